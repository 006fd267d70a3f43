package ui

import (
	"pausetune/internal/processor"
)

// ProgressMsg represents a progress update from the pipeline
type ProgressMsg struct {
	Percent int    // 0 to 100
	Status  string // "Transcribing", "Rebuilding", ...
}

// LogMsg carries a single log line from the pipeline
type LogMsg struct {
	Line string
}

// RunCompleteMsg indicates the pipeline has finished
type RunCompleteMsg struct {
	Result *processor.Result
	Err    error
}
