package processor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"pausetune/internal/align"
	"pausetune/internal/audio"
	"pausetune/internal/transcribe"
)

// Mode selects how pause targets are derived.
type Mode string

const (
	// ModeSmart aligns a transcript against the script and maps
	// punctuation onto silences.
	ModeSmart Mode = "smart"
	// ModeFast derives targets from silence durations alone.
	ModeFast Mode = "fast"
)

// Options configures one pipeline run.
type Options struct {
	Mode         Mode
	Script       string // script text, required for smart mode
	ThresholdDB  float64
	MinSilenceMS int
	Format       string // "mp3" or "wav"

	// Rand drives the frame-count picks. Nil gets a fresh source.
	Rand *rand.Rand
}

// Callbacks deliver progress and diagnostics during a run. Either
// field may be nil.
type Callbacks struct {
	Progress func(percent int, status string)
	Log      func(line string)
}

// Result summarises a completed run.
type Result struct {
	OutputPath       string
	InputDurationMS  int
	OutputDurationMS int
	PlanLen          int
	Report           *align.Report // nil in fast mode
}

// Pipeline drives one audio file through detection, alignment, plan
// resolution, reconstruction, and export. A single Pipeline runs one
// file at a time; the recognizer handle it owns is reused across runs.
type Pipeline struct {
	recognizer *transcribe.Recognizer
}

// New creates a pipeline around an existing recognizer handle.
func New(recognizer *transcribe.Recognizer) *Pipeline {
	return &Pipeline{recognizer: recognizer}
}

// Run processes inputPath into outputPath. Progress percentages are
// monotonically non-decreasing. Cancellation via ctx returns
// ErrCancelled and leaves no output file.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string, opts Options, cb Callbacks) (*Result, error) {
	progress := monotonicProgress(cb.Progress)
	logf := func(format string, args ...any) {
		if cb.Log != nil {
			cb.Log(fmt.Sprintf(format, args...))
		}
	}
	rng := opts.Rand
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>32))
	}

	progress(0, "Loading audio")
	track, _, err := audio.Decode(inputPath)
	if err != nil {
		return nil, stageErr("decode", "failed to decode input audio", err)
	}
	if ctx.Err() != nil {
		return nil, ErrCancelled
	}

	progress(5, "Detecting silences")
	intervals := audio.DetectSilence(track, opts.MinSilenceMS, opts.ThresholdDB)
	logf("found %d silences", len(intervals))
	progress(10, fmt.Sprintf("Found %d silences", len(intervals)))
	if ctx.Err() != nil {
		return nil, ErrCancelled
	}

	var plan EditPlan
	var report *align.Report
	rebuildBase, rebuildSpan := 70, 25

	switch opts.Mode {
	case ModeFast:
		plan = GenerateFastCandidates(intervals, rng, logf)
		rebuildBase, rebuildSpan = 10, 85

	default:
		if opts.Script == "" {
			return nil, stageErr("align", "smart mode requires a script", nil)
		}

		progress(15, "Transcribing")
		words, err := p.recognizer.Transcribe(ctx, inputPath)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrCancelled
			}
			if errors.Is(err, transcribe.ErrUnavailable) {
				return nil, stageErr("transcribe", "speech recognizer unavailable", err)
			}
			return nil, stageErr("transcribe", "transcription failed", err)
		}
		logf("transcribed %d words", len(words))
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}

		progress(40, "Aligning with script")
		var aligned []align.AlignedWord
		aligned, report = align.Align(words, opts.Script)

		progress(50, "Mapping pauses")
		pool := NewSilencePool(intervals)
		candidates := GenerateCandidates(aligned, pool, rng, logf)
		plan = ResolvePlan(candidates, logf)
		logf("edit plan: %d entries", len(plan))
	}

	progress(rebuildBase, "Rebuilding audio")
	rebuilt, err := Reconstruct(ctx, track, plan, opts.ThresholdDB, logf, func(done, total int) {
		progress(rebuildBase+done*rebuildSpan/total, fmt.Sprintf("Rebuilding %d/%d", done, total))
	})
	if err != nil {
		return nil, err
	}

	progress(98, "Exporting")
	if err := audio.Encode(rebuilt, outputPath, opts.Format); err != nil {
		return nil, stageErr("export", "failed to encode output audio", err)
	}
	progress(100, "Done")

	saved := track.DurationMS() - rebuilt.DurationMS()
	logf("output %dms (saved %dms)", rebuilt.DurationMS(), saved)

	if report != nil {
		for _, line := range report.Summary() {
			logf("%s", line)
		}
	}

	return &Result{
		OutputPath:       outputPath,
		InputDurationMS:  track.DurationMS(),
		OutputDurationMS: rebuilt.DurationMS(),
		PlanLen:          len(plan),
		Report:           report,
	}, nil
}

// monotonicProgress wraps a progress callback so reported percentages
// never move backwards and never pass 100.
func monotonicProgress(cb func(int, string)) func(int, string) {
	last := 0
	return func(percent int, status string) {
		if cb == nil {
			return
		}
		if percent < last {
			percent = last
		}
		if percent > 100 {
			percent = 100
		}
		last = percent
		cb(percent, status)
	}
}
