// Package models - API response types and error handling.
package models

import "time"

// Error codes returned in the error envelope.
const (
	ErrorCodeBadRequest        = "BAD_REQUEST"         // 400: Invalid request format or data
	ErrorCodeSourceUnavailable = "SOURCE_UNAVAILABLE"  // 400: Source URL unresolvable, private or removed
	ErrorCodeUnauthorized      = "UNAUTHORIZED"        // 401: Missing or unknown API key
	ErrorCodeForbidden         = "FORBIDDEN"           // 403: Inactive key, or non-master on admin routes
	ErrorCodeNotFound          = "NOT_FOUND"           // 404: Target key doesn't exist
	ErrorCodeProtectedKey      = "PROTECTED_KEY"       // 400: Attempt to mutate the master key
	ErrorCodeRateLimited       = "RATE_LIMIT_EXCEEDED" // 429: Per-key quota exhausted
	ErrorCodeInternalError     = "INTERNAL_ERROR"      // 500: Server-side fault
)

// ErrorResponse is the consistent error envelope for all endpoints.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// NewErrorResponse builds an error envelope with the current timestamp.
func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// FormatInfo describes one downloadable format of a source.
type FormatInfo struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Resolution     string  `json:"resolution,omitempty"`
	FPS            float64 `json:"fps,omitempty"`
	Filesize       int64   `json:"filesize,omitempty"`
	FilesizeApprox int64   `json:"filesize_approx,omitempty"`
	VCodec         string  `json:"vcodec,omitempty"`
	ACodec         string  `json:"acodec,omitempty"`
	URL            string  `json:"url,omitempty"` // often short-lived
}

// InfoResponse is the body of a successful POST /info.
type InfoResponse struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Duration    int64        `json:"duration"`
	Thumbnail   string       `json:"thumbnail"`
	Uploader    string       `json:"uploader"`
	ViewCount   int64        `json:"view_count"`
	Formats     []FormatInfo `json:"formats"`
}

// MessageResponse is the body of admin mutations that report an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// RootResponse is the unauthenticated capability summary served at /.
type RootResponse struct {
	Message  string            `json:"message"`
	Features map[string]string `json:"features"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}
