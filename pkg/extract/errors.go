package extract

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrMissingJobID is wrapped by SubmissionError when the service accepted the
// request but did not hand back a job id.
var ErrMissingJobID = errors.New("extract: submission response has no job id")

// SubmissionError means the remote job could not be created.
type SubmissionError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *SubmissionError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "extraction service rejected the API key (invalid credentials)"
	case http.StatusPaymentRequired:
		return "extraction service reports insufficient credits"
	}
	if e.Message != "" {
		if e.StatusCode > 0 {
			return fmt.Sprintf("extraction request failed (status %d): %s", e.StatusCode, e.Message)
		}
		return "extraction request failed: " + e.Message
	}
	if e.Err != nil {
		return "extraction request failed: " + e.Err.Error()
	}
	return fmt.Sprintf("extraction request failed (status %d)", e.StatusCode)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// JobFailedError is the remote job's terminal "failed" state.
type JobFailedError struct {
	JobID  string
	Reason string
}

func (e *JobFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("extraction job %s failed", e.JobID)
	}
	return fmt.Sprintf("extraction job %s failed: %s", e.JobID, e.Reason)
}

// JobCancelledError is the remote job's terminal "cancelled" state.
type JobCancelledError struct {
	JobID string
}

func (e *JobCancelledError) Error() string {
	return fmt.Sprintf("extraction job %s was cancelled", e.JobID)
}

// JobTimeoutError means the job did not reach a terminal state in time.
// The remote job is not cancelled and may still finish server-side.
type JobTimeoutError struct {
	JobID   string
	Timeout time.Duration
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("extraction job %s did not finish within %s", e.JobID, e.Timeout)
}

// EmptyResultError is a completed job that carried no data.
type EmptyResultError struct {
	JobID string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("extraction job %s completed without data", e.JobID)
}

// StatusError is a failed status poll: transport error, non-2xx status or an
// undecodable body. It is not retried.
type StatusError struct {
	JobID      string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("extraction status check for job %s failed (status %d): %v", e.JobID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("extraction status check for job %s failed: %v", e.JobID, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }
