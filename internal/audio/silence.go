package audio

import "math"

// Interval is one detected silence span, in milliseconds from track
// start. Intervals from DetectSilence are non-overlapping and ordered
// by StartMS.
type Interval struct {
	StartMS int
	EndMS   int
}

// LenMS returns the interval length in milliseconds.
func (i Interval) LenMS() int {
	return i.EndMS - i.StartMS
}

// DetectSilence scans the track for maximal spans whose RMS level stays
// below thresholdDB for at least minLenMS milliseconds.
//
// The scan slides a minLenMS-wide window in 1 ms steps; a window whose
// RMS dBFS falls below the threshold marks its whole span silent, and
// overlapping silent windows merge into one interval. Digital silence
// (all-zero samples) measures as -inf dB and is always below threshold.
func DetectSilence(t *Track, minLenMS int, thresholdDB float64) []Interval {
	durMS := t.DurationMS()
	if minLenMS <= 0 || durMS < minLenMS {
		return nil
	}

	// Prefix sums of squared normalised samples give O(1) window RMS.
	prefix := make([]float64, len(t.Samples)+1)
	for i, s := range t.Samples {
		v := float64(s) / 32768.0
		prefix[i+1] = prefix[i] + v*v
	}

	windowBelow := func(startMS int) bool {
		lo := t.sampleIndex(startMS)
		hi := t.sampleIndex(startMS + minLenMS)
		n := hi - lo
		if n <= 0 {
			return true
		}
		meanSquare := (prefix[hi] - prefix[lo]) / float64(n)
		rms := math.Sqrt(meanSquare)
		if rms < 1e-10 {
			return true // digital silence
		}
		return 20.0*math.Log10(rms) < thresholdDB
	}

	var intervals []Interval
	runStart := -1
	lastSilent := -1
	for start := 0; start <= durMS-minLenMS; start++ {
		if windowBelow(start) {
			if runStart < 0 {
				runStart = start
			}
			lastSilent = start
			continue
		}
		if runStart >= 0 {
			intervals = append(intervals, Interval{StartMS: runStart, EndMS: lastSilent + minLenMS})
			runStart = -1
		}
	}
	if runStart >= 0 {
		intervals = append(intervals, Interval{StartMS: runStart, EndMS: lastSilent + minLenMS})
	}

	return intervals
}
