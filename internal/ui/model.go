// Package ui provides the Bubbletea terminal user interface for pausetune
package ui

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"pausetune/internal/processor"
)

var debugLog *os.File

func init() {
	debugLog, _ = os.OpenFile("pausetune-ui-debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func log(format string, args ...interface{}) {
	if debugLog != nil {
		fmt.Fprintf(debugLog, format+"\n", args...)
	}
}

// maxLogLines is how many recent pipeline log lines the log pane keeps.
const maxLogLines = 8

// Model is the Bubbletea model for the processing UI
type Model struct {
	InputPath  string
	OutputPath string
	Mode       string

	// Live pipeline state
	Percent  int
	Status   string
	LogLines []string

	// Completion state
	Result    *processor.Result
	Err       error
	Done      bool
	Cancelled bool

	StartTime time.Time

	// Cancel aborts the running pipeline; quitting waits for its
	// RunCompleteMsg so the run never outlives the UI.
	Cancel context.CancelFunc

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model for a single processing run
func NewModel(inputPath, outputPath, mode string, cancel context.CancelFunc) Model {
	return Model{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Mode:       mode,
		Status:     "Starting",
		StartTime:  time.Now(),
		Cancel:     cancel,
	}
}

// Init initializes the model. The pipeline goroutine delivers its
// messages with Program.Send, so there is nothing to kick off here.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			log("[DEBUG] Cancel requested")
			m.Cancelled = true
			if m.Cancel != nil {
				m.Cancel()
			}
			// The pipeline sends RunCompleteMsg once it unwinds.
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		log("[DEBUG] Window size: %dx%d", m.Width, m.Height)

	case ProgressMsg:
		log("[DEBUG] ProgressMsg received: %d%% %s", msg.Percent, msg.Status)
		m.Percent = msg.Percent
		if msg.Status != "" {
			m.Status = msg.Status
		}
		return m, nil

	case LogMsg:
		m.LogLines = append(m.LogLines, msg.Line)
		if len(m.LogLines) > maxLogLines {
			m.LogLines = m.LogLines[len(m.LogLines)-maxLogLines:]
		}
		return m, nil

	case RunCompleteMsg:
		log("[DEBUG] RunCompleteMsg received: err=%v", msg.Err)
		m.Done = true
		m.Result = msg.Result
		m.Err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nFile: %s\n", m.InputPath)
	}

	if m.Done {
		return renderCompletionSummary(m)
	}

	return renderProcessingView(m)
}
