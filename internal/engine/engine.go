// Package engine wraps the external media retrieval engine (yt-dlp). It can
// probe a source URL for metadata or fetch media to local storage; everything
// else in the service treats it as an opaque collaborator.
package engine

import (
	"context"
	"errors"
)

// ErrSourceUnavailable wraps retrieval failures caused by the source itself:
// malformed URLs, private, region-locked or removed media. Handlers map it to
// a client error rather than a server fault.
var ErrSourceUnavailable = errors.New("source unavailable")

// Kind selects the retrieval mode.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Selector carries caller-supplied format constraints through to the engine.
// The service never interprets these values itself.
type Selector struct {
	Kind    Kind
	Quality string // video: "1080p", "720p", "best"
	Bitrate int    // audio: kbps
}

// Format describes one downloadable format reported by the engine.
type Format struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Resolution     string  `json:"resolution"`
	FPS            float64 `json:"fps"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	URL            string  `json:"url"`
}

// Metadata is the structured result of probing a source URL.
type Metadata struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    int64    `json:"duration"`
	Thumbnail   string   `json:"thumbnail"`
	Uploader    string   `json:"uploader"`
	ViewCount   int64    `json:"view_count"`
	Formats     []Format `json:"formats"`
}

// Engine is the retrieval engine contract. Implementations must be safe for
// concurrent use; both calls block for the duration of the engine operation.
type Engine interface {
	// Probe fetches metadata for a source URL without downloading anything.
	Probe(ctx context.Context, url string) (*Metadata, error)

	// Fetch downloads media for a source URL into the path described by
	// outputTemplate (a yt-dlp-style template ending in ".%(ext)s" — the
	// engine decides the final extension). The selector chooses the format.
	Fetch(ctx context.Context, url string, sel Selector, outputTemplate string) error
}
