// Package job runs retrieval operations on a bounded worker pool and manages
// the transient artifacts they produce.
package job

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mediagate/internal/engine"

	"golang.org/x/sync/semaphore"
)

// ErrNoOutput is returned when the engine reports success but no file matching
// the job's unique prefix exists in the working directory. It signals an
// engine or environment fault, not a usage error.
var ErrNoOutput = errors.New("retrieval produced no output file")

// Artifact is a transient file produced by a retrieval job. Ownership passes
// to the caller, who deletes it after delivery.
type Artifact struct {
	Path      string
	Name      string
	MediaType string
}

// Remove deletes the artifact file. A file that is already gone is a benign
// outcome: the reaper may have swept it first.
func (a *Artifact) Remove() error {
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Runner executes retrieval operations without blocking the request-serving
// path beyond the worker-slot bound. When all slots are busy new jobs queue;
// nothing is shed, because the engine itself is the bottleneck and unbounded
// concurrency would exhaust the host.
type Runner struct {
	engine  engine.Engine
	workDir string
	slots   *semaphore.Weighted
}

// NewRunner creates a runner with the given number of worker slots writing
// into workDir.
func NewRunner(eng engine.Engine, workDir string, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		engine:  eng,
		workDir: workDir,
		slots:   semaphore.NewWeighted(int64(workers)),
	}
}

// Lookup probes a source URL for metadata on a worker slot.
func (r *Runner) Lookup(ctx context.Context, url string) (*engine.Metadata, error) {
	if err := r.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.slots.Release(1)

	return r.engine.Probe(ctx, url)
}

// Download retrieves media for a source URL on a worker slot and returns a
// handle to the produced artifact. The output base combines the source's
// stable identifier with a fresh random suffix, so concurrent jobs for the
// same source never collide.
func (r *Runner) Download(ctx context.Context, url string, sel engine.Selector) (*Artifact, error) {
	if err := r.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.slots.Release(1)

	meta, err := r.engine.Probe(ctx, url)
	if err != nil {
		return nil, err
	}

	base, err := uniqueBase(meta.ID, sel.Kind)
	if err != nil {
		return nil, err
	}
	template := filepath.Join(r.workDir, base+".%(ext)s")

	if err := r.engine.Fetch(ctx, url, sel, template); err != nil {
		return nil, err
	}

	// The engine decides the final extension (container remux, audio
	// transcode), so the produced file is located by its unique prefix.
	path, err := r.findByPrefix(base)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Path:      path,
		Name:      filepath.Base(path),
		MediaType: mediaType(sel.Kind),
	}, nil
}

// uniqueBase builds the collision-proof artifact name base for one job.
func uniqueBase(sourceID string, kind engine.Kind) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate artifact suffix: %w", err)
	}
	if kind == engine.KindAudio {
		return fmt.Sprintf("%s_audio_%s", sourceID, hex.EncodeToString(suffix)), nil
	}
	return fmt.Sprintf("%s_%s", sourceID, hex.EncodeToString(suffix)), nil
}

// findByPrefix locates the single file the job produced in the working
// directory.
func (r *Runner) findByPrefix(base string) (string, error) {
	entries, err := os.ReadDir(r.workDir)
	if err != nil {
		return "", fmt.Errorf("scan working directory: %w", err)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasPrefix(entry.Name(), base) {
			return filepath.Join(r.workDir, entry.Name()), nil
		}
	}
	return "", ErrNoOutput
}

func mediaType(kind engine.Kind) string {
	if kind == engine.KindAudio {
		return "audio/mpeg"
	}
	return "video/mp4"
}
