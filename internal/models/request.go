// Package models - API request types and input validation.
package models

import (
	"errors"
	"net/url"
	"strings"
)

// VideoRequest is the body of POST /info and POST /download/video.
type VideoRequest struct {
	URL     string `json:"url"`
	Quality string `json:"quality,omitempty"` // e.g. "1080p", "720p", "best"
}

// AudioRequest is the body of POST /download/audio.
type AudioRequest struct {
	URL     string `json:"url"`
	Bitrate int    `json:"bitrate,omitempty"` // kbps, e.g. 128, 192, 256
}

// NewAPIKeyRequest is the body of POST /admin/keys/generate.
type NewAPIKeyRequest struct {
	Owner             string `json:"owner"`
	RequestsPerMinute int    `json:"requests_per_minute,omitempty"`
}

// Validate checks the video request and applies the default quality.
func (r *VideoRequest) Validate() error {
	if err := validateSourceURL(r.URL); err != nil {
		return err
	}
	if r.Quality == "" {
		r.Quality = "best"
	}
	return nil
}

// Validate checks the audio request and applies the default bitrate.
func (r *AudioRequest) Validate() error {
	if err := validateSourceURL(r.URL); err != nil {
		return err
	}
	if r.Bitrate == 0 {
		r.Bitrate = 192
	}
	if r.Bitrate < 0 {
		return errors.New("bitrate must be positive")
	}
	return nil
}

// Validate checks the key generation request and applies the default quota.
func (r *NewAPIKeyRequest) Validate() error {
	if strings.TrimSpace(r.Owner) == "" {
		return errors.New("owner is required")
	}
	if r.Owner == MasterOwner {
		return errors.New("owner name is reserved")
	}
	if r.RequestsPerMinute == 0 {
		r.RequestsPerMinute = DefaultQuotaPerMinute
	}
	if r.RequestsPerMinute < 0 {
		return errors.New("requests_per_minute must be positive")
	}
	return nil
}

func validateSourceURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("url must be a valid http(s) URL")
	}
	return nil
}
