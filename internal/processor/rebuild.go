package processor

import (
	"context"

	"pausetune/internal/audio"
)

// Default edge preservation when replacing a silence: keep up to this
// much of the real recording at each end so breaths and room tone
// survive, and synthesise only the middle.
const (
	edgePreserveMS = 30
	// Below this original length the whole silence is copied verbatim
	// and only padding is synthesised.
	shortSilenceMS = 60
)

// Trailing trim: scan this much of the tail, and cut a final silence
// down to tailKeepMS when it reaches within tailReachMS of the end.
const (
	tailScanMS       = 5000
	tailKeepMS       = 500
	tailReachMS      = 50
	tailMinSilenceMS = 100
)

// Reconstruct assembles the output track by walking the plan: speech
// between edits is copied verbatim, each edited silence is rebuilt to
// its target length. Cancellation is checked before every edit. An
// empty plan yields a verbatim copy (minus the trailing trim).
func Reconstruct(
	ctx context.Context,
	src *audio.Track,
	plan EditPlan,
	thresholdDB float64,
	logf func(format string, args ...any),
	progress func(done, total int),
) (*audio.Track, error) {
	out := audio.NewBuilder(src.SampleRate, src.DurationMS())
	cursor := 0

	for i, e := range plan {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}

		if e.StartMS > cursor {
			out.AppendSlice(src, cursor, e.StartMS)
		}

		appendRebuiltSilence(out, src, e)
		cursor = e.EndMS

		if progress != nil {
			progress(i+1, len(plan))
		}
	}

	if cursor < src.DurationMS() {
		out.AppendSlice(src, cursor, src.DurationMS())
	}

	trimTrailingSilence(out, thresholdDB, logf)

	return out.Track(), nil
}

// appendRebuiltSilence writes one edited pause: preserved head,
// synthetic middle, preserved tail. Padding is never negative; a
// target longer than the preserved edges only stretches the middle.
func appendRebuiltSilence(out *audio.Builder, src *audio.Track, e EditCandidate) {
	span := e.EndMS - e.StartMS

	head, tail := e.HeadMS, e.TailMS
	if head == 0 && tail == 0 {
		if e.OriginalMS <= shortSilenceMS {
			// Too short to split: copy whole, pad the difference.
			out.AppendSlice(src, e.StartMS, e.EndMS)
			if extra := e.TargetMS - e.OriginalMS; extra > 0 {
				out.AppendSilence(extra)
			}
			return
		}
		head = edgePreserveMS
		if half := e.OriginalMS / 2; head > half {
			head = half
		}
		tail = head
	}

	if head > span {
		head = span
	}
	if tail > span-head {
		tail = span - head
	}

	out.AppendSlice(src, e.StartMS, e.StartMS+head)
	if mid := e.TargetMS - head - tail; mid > 0 {
		out.AppendSilence(mid)
	}
	out.AppendSlice(src, e.EndMS-tail, e.EndMS)
}

// trimTrailingSilence cuts an overlong final silence down to
// tailKeepMS. Only the last tailScanMS of the assembled audio is
// examined, and only a silence reaching (almost) the very end counts.
func trimTrailingSilence(out *audio.Builder, thresholdDB float64, logf func(format string, args ...any)) {
	built := out.Track()
	total := built.DurationMS()

	scanStart := 0
	if total > tailScanMS {
		scanStart = total - tailScanMS
	}
	tail := &audio.Track{
		Samples:    built.SliceMS(scanStart, total),
		SampleRate: built.SampleRate,
	}

	silences := audio.DetectSilence(tail, tailMinSilenceMS, thresholdDB)
	if len(silences) == 0 {
		return
	}

	last := silences[len(silences)-1]
	if last.EndMS < tail.DurationMS()-tailReachMS {
		return
	}
	if last.LenMS() <= tailKeepMS {
		return
	}

	trim := last.LenMS() - tailKeepMS
	out.TrimTail(trim)
	logf("trimmed %dms trailing silence", trim)
}
