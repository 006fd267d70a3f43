package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"pausetune/internal/processor"
)

// renderProcessingView renders the main processing view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderRunDetails(m))
	b.WriteString("\n\n")

	b.WriteString(renderLogPane(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#A40000")).
		Render("Pausetune ⏯ - Spoken Pause Normaliser")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("%s → %s (%s mode)",
			filepath.Base(m.InputPath), filepath.Base(m.OutputPath), m.Mode))

	return title + "\n" + subtitle
}

// renderRunDetails renders the progress box for the running pipeline
func renderRunDetails(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#A40000")).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	status := m.Status
	if m.Cancelled {
		status = "Cancelling"
	}
	content.WriteString(fmt.Sprintf("Stage: %s\n", status))

	content.WriteString(renderProgressBar(m.Percent, 40))
	content.WriteString("\n\n")

	elapsed := time.Since(m.StartTime).Seconds()
	var remaining float64
	if m.Percent > 0 {
		remaining = (elapsed/float64(m.Percent))*100 - elapsed
	}
	content.WriteString(fmt.Sprintf("⏱  Elapsed: %.1fs | Remaining: ~%.1fs\n", elapsed, remaining))
	content.WriteString("Press q to cancel")

	return box.Render(content.String())
}

// renderLogPane renders the recent pipeline log lines
func renderLogPane(m Model) string {
	if len(m.LogLines) == 0 {
		return ""
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#888888")).
		Padding(0, 1).
		Width(60)

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	var content strings.Builder
	for i, line := range m.LogLines {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(dim.Render(line))
	}

	return box.Render(content.String())
}

// renderProgressBar renders a progress bar
func renderProgressBar(percent int, width int) string {
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return fmt.Sprintf("%s %d%%", bar, percent)
}

// renderCompletionSummary renders the final completion summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	switch {
	case errors.Is(m.Err, processor.ErrCancelled):
		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFA500")).
			Render("Cancelled")
		b.WriteString(header)
		b.WriteString("\n\nNo output written.\n")
		return b.String()

	case m.Err != nil:
		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000")).
			Render("✗ Processing Failed")
		b.WriteString(header)
		b.WriteString(fmt.Sprintf("\n\n   Error: %v\n", m.Err))
		return b.String()
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AA00")).
		Render("✨ Processing Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")

	if m.Result != nil {
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
		b.WriteString(fmt.Sprintf(" %s %s → %s\n",
			icon, filepath.Base(m.InputPath), filepath.Base(m.Result.OutputPath)))
		b.WriteString(fmt.Sprintf("   Duration: %s → %s | Pauses edited: %d\n",
			formatClock(m.Result.InputDurationMS),
			formatClock(m.Result.OutputDurationMS),
			m.Result.PlanLen))
		if r := m.Result.Report; r != nil {
			b.WriteString(fmt.Sprintf("   Script match: %.1f%% (%d of %d words)\n",
				r.MatchRate(), r.Matched, r.TranscriptWords))
		}
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString("Pause cadence now follows the script punctuation ✓\n")

	return b.String()
}

// formatClock renders a millisecond duration as m:ss
func formatClock(ms int) string {
	return fmt.Sprintf("%d:%02d", ms/60000, (ms%60000)/1000)
}
