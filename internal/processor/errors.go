package processor

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when a run stops because cancellation was
// requested. No partial output file is left behind.
var ErrCancelled = errors.New("cancelled")

// PipelineError is a stage-aware error for pipeline failures.
type PipelineError struct {
	Stage   string
	Message string
	Err     error
}

// Error formats pipeline failures for logs and UI.
func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func stageErr(stage, message string, err error) *PipelineError {
	return &PipelineError{Stage: stage, Message: message, Err: err}
}
