package job

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Reaper periodically deletes artifacts whose owning request never reached
// the explicit post-delivery deletion step (crash, disconnect, abandoned
// request). It runs independently of request handling.
type Reaper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// NewReaper creates a reaper over the given artifact directory.
func NewReaper(dir string, maxAge, interval time.Duration, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the periodic sweep and returns an idempotent stop function
// that blocks until the loop has exited.
func (r *Reaper) Start(ctx context.Context) func() {
	workerCtx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(r.interval)
	done := make(chan struct{})

	go func() {
		defer func() {
			ticker.Stop()
			close(done)
		}()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				r.Sweep(time.Now())
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// Sweep deletes every regular file in the artifact directory whose
// modification time is older than the TTL relative to now. Individual delete
// failures are logged and do not abort the sweep.
func (r *Reaper) Sweep(now time.Time) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		r.logger.Error("failed to scan artifact directory", "dir", r.dir, "error", err)
		return
	}

	cutoff := now.Add(-r.maxAge)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // removed between ReadDir and stat
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.Error("failed to remove stale artifact", "path", path, "error", err)
			continue
		}
		r.logger.Info("removed stale artifact", "file", entry.Name())
	}
}
