// Package logging handles generation of run reports for processed audio files

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pausetune/internal/align"
)

// ReportData contains all the information needed to generate a run report
type ReportData struct {
	InputPath        string
	OutputPath       string
	Mode             string
	Format           string
	StartTime        time.Time
	EndTime          time.Time
	InputDurationMS  int
	OutputDurationMS int
	PlanLen          int
	Report           *align.Report // nil in fast mode
	LogLines         []string
}

// GenerateReport creates a run report and saves it alongside the output file.
// The report filename will be <output>.log
func GenerateReport(data ReportData) error {
	logPath := strings.TrimSuffix(data.OutputPath, filepath.Ext(data.OutputPath)) + ".log"

	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	writeReportHeader(f, data)
	writeRunSummary(f, data)
	if data.Report != nil {
		writeAlignmentSection(f, data.Report)
	}
	writeLogSection(f, data.LogLines)

	return nil
}

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(f *os.File, title string) {
	fmt.Fprintln(f, title)
	fmt.Fprintln(f, strings.Repeat("-", len(title)))
}

func writeReportHeader(f *os.File, data ReportData) {
	fmt.Fprintln(f, "Pausetune Run Report")
	fmt.Fprintln(f, "====================")
	fmt.Fprintf(f, "File: %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(f, "Output: %s\n", filepath.Base(data.OutputPath))
	fmt.Fprintf(f, "Mode: %s (%s)\n", data.Mode, data.Format)
	fmt.Fprintf(f, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(f, "")
}

func writeRunSummary(f *os.File, data ReportData) {
	writeSection(f, "Run Summary")

	fmt.Fprintf(f, "Input duration:  %s\n", formatMS(data.InputDurationMS))
	fmt.Fprintf(f, "Output duration: %s\n", formatMS(data.OutputDurationMS))

	saved := data.InputDurationMS - data.OutputDurationMS
	if saved >= 0 {
		fmt.Fprintf(f, "Time saved:      %s\n", formatMS(saved))
	} else {
		fmt.Fprintf(f, "Time added:      %s\n", formatMS(-saved))
	}
	fmt.Fprintf(f, "Pauses edited:   %d\n", data.PlanLen)

	total := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(f, "Processing time: %s\n", formatDuration(total))
	fmt.Fprintln(f, "")
}

func writeAlignmentSection(f *os.File, report *align.Report) {
	writeSection(f, "Script Alignment")

	fmt.Fprintf(f, "Script words:     %d\n", report.ScriptWords)
	fmt.Fprintf(f, "Transcript words: %d\n", report.TranscriptWords)
	fmt.Fprintf(f, "Matched:          %d (%.1f%%)\n", report.Matched, report.MatchRate())
	fmt.Fprintf(f, "Punctuation hits: %d\n", report.PunctFound)
	fmt.Fprintf(f, "Mismatches:       %d\n", report.MismatchCount)

	if report.LowConfidence() {
		fmt.Fprintf(f, "Warning: match rate below %.0f%% — pause placement may be unreliable\n",
			align.LowConfidenceRate)
	}

	if len(report.Mismatches) > 0 {
		fmt.Fprintln(f, "")
		fmt.Fprintln(f, "Mismatched words (heard vs expected):")
		for _, m := range report.Mismatches {
			fmt.Fprintf(f, "  #%-4d %-20s %-20s at %s\n",
				m.Position, m.Transcript, m.Expected, formatMS(m.TimeMS))
		}
	}
	fmt.Fprintln(f, "")
}

func writeLogSection(f *os.File, lines []string) {
	if len(lines) == 0 {
		return
	}
	writeSection(f, "Processing Log")
	for _, line := range lines {
		fmt.Fprintln(f, line)
	}
	fmt.Fprintln(f, "")
}

// formatMS renders an audio position or duration in m:ss.mmm form.
func formatMS(ms int) string {
	neg := ""
	if ms < 0 {
		neg = "-"
		ms = -ms
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%s%d:%02d.%03d", neg, minutes, seconds, millis)
}

// formatDuration formats a wall-clock duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
