package api

import (
	"errors"
	"fmt"
	"time"

	"go-krea-generate/internal/models"
)

// Custom Error Types
var (
	ErrMissingApiKey = errors.New("API key is not configured (set KREA_API_KEY)")
	ErrAuth          = errors.New("invalid API key")
	ErrBilling       = errors.New("insufficient credits")
	ErrNoJobID       = errors.New("no job_id in submission response")
)

// StatusError reports an unexpected non-2xx response and preserves the raw body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed (%d): %s", e.StatusCode, e.Body)
}

// JobFailedError reports a job that reached a failed terminal state,
// carrying the raw status payload for diagnostics.
type JobFailedError struct {
	Payload string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job failed: %s", e.Payload)
}

// JobCancelledError reports a job that was cancelled remotely, carrying the
// raw status payload for diagnostics.
type JobCancelledError struct {
	Payload string
}

func (e *JobCancelledError) Error() string {
	return fmt.Sprintf("job was cancelled: %s", e.Payload)
}

// TimeoutError reports a job that produced no terminal status within the
// polling budget for its kind.
type TimeoutError struct {
	Kind    models.JobKind
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s job timed out after %s", e.Kind, e.Elapsed)
}
