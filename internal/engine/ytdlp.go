package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// YTDLP implements Engine by shelling out to yt-dlp through go-ytdlp.
type YTDLP struct{}

// NewYTDLP ensures the yt-dlp binary is available and returns the engine.
func NewYTDLP(ctx context.Context) (*YTDLP, error) {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return nil, fmt.Errorf("install yt-dlp: %w", err)
	}
	return &YTDLP{}, nil
}

func (e *YTDLP) Probe(ctx context.Context, url string) (*Metadata, error) {
	result, err := ytdlp.New().
		Quiet().
		NoWarnings().
		SkipDownload().
		DumpSingleJSON().
		Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(result.Stdout), &meta); err != nil {
		return nil, fmt.Errorf("parse engine metadata: %w", err)
	}
	return &meta, nil
}

func (e *YTDLP) Fetch(ctx context.Context, url string, sel Selector, outputTemplate string) error {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		Output(outputTemplate)

	switch sel.Kind {
	case KindAudio:
		cmd = cmd.
			Format("bestaudio/best").
			ExtractAudio().
			AudioFormat("mp3").
			AudioQuality(fmt.Sprintf("%d", sel.Bitrate))
	default:
		cmd = cmd.
			Format(videoFormat(sel.Quality)).
			MergeOutputFormat("mp4")
	}

	if _, err := cmd.Run(ctx, url); err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return nil
}

// videoFormat builds the yt-dlp format expression for a quality constraint.
// "best" takes the best muxed mp4; a resolution like "720p" caps the video
// stream height and merges the best m4a audio.
func videoFormat(quality string) string {
	if quality == "" || quality == "best" {
		return "best[ext=mp4]/best"
	}
	height := strings.TrimSuffix(quality, "p")
	return fmt.Sprintf("bestvideo[height<=%s][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best", height)
}
