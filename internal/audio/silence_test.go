package audio

import "testing"

// boundary tolerance in ms for detected interval edges; the sliding
// window blurs edges by up to one window length.
const edgeToleranceMS = 15

func TestDetectSilenceSingleGap(t *testing.T) {
	track := makeTestTrack(t, 8000, []segment{
		{DurationMS: 1000, ToneFreq: 440, ToneLevel: -12},
		{DurationMS: 400},
		{DurationMS: 1000, ToneFreq: 440, ToneLevel: -12},
	})

	intervals := DetectSilence(track, 60, -37.0)
	if len(intervals) != 1 {
		t.Fatalf("got %d intervals, want 1: %v", len(intervals), intervals)
	}

	iv := intervals[0]
	if diff := iv.StartMS - 1000; diff < -edgeToleranceMS || diff > edgeToleranceMS {
		t.Errorf("StartMS = %d, want ~1000", iv.StartMS)
	}
	if diff := iv.EndMS - 1400; diff < -edgeToleranceMS || diff > edgeToleranceMS {
		t.Errorf("EndMS = %d, want ~1400", iv.EndMS)
	}
}

func TestDetectSilenceIgnoresShortGap(t *testing.T) {
	track := makeTestTrack(t, 8000, []segment{
		{DurationMS: 500, ToneFreq: 440, ToneLevel: -12},
		{DurationMS: 30},
		{DurationMS: 500, ToneFreq: 440, ToneLevel: -12},
	})

	if intervals := DetectSilence(track, 60, -37.0); len(intervals) != 0 {
		t.Errorf("got %d intervals for a 30ms gap with 60ms minimum, want 0", len(intervals))
	}
}

func TestDetectSilenceMultipleGaps(t *testing.T) {
	track := makeTestTrack(t, 8000, []segment{
		{DurationMS: 800, ToneFreq: 440, ToneLevel: -12},
		{DurationMS: 200},
		{DurationMS: 800, ToneFreq: 300, ToneLevel: -12},
		{DurationMS: 700},
		{DurationMS: 800, ToneFreq: 500, ToneLevel: -12},
	})

	intervals := DetectSilence(track, 60, -37.0)
	if len(intervals) != 2 {
		t.Fatalf("got %d intervals, want 2: %v", len(intervals), intervals)
	}

	// Ordered and non-overlapping.
	for i := 1; i < len(intervals); i++ {
		if intervals[i].StartMS < intervals[i-1].EndMS {
			t.Errorf("intervals overlap: %v then %v", intervals[i-1], intervals[i])
		}
	}

	if got := intervals[0].LenMS(); got < 200-edgeToleranceMS || got > 200+2*edgeToleranceMS {
		t.Errorf("first gap length = %d, want ~200", got)
	}
	if got := intervals[1].LenMS(); got < 700-edgeToleranceMS || got > 700+2*edgeToleranceMS {
		t.Errorf("second gap length = %d, want ~700", got)
	}
}

func TestDetectSilenceQuietNoiseBelowThreshold(t *testing.T) {
	// A -50 dBFS tone sits below the -37 dB threshold and counts as
	// silence; a -20 dBFS tone does not.
	track := makeTestTrack(t, 8000, []segment{
		{DurationMS: 500, ToneFreq: 440, ToneLevel: -20},
		{DurationMS: 300, ToneFreq: 440, ToneLevel: -50},
		{DurationMS: 500, ToneFreq: 440, ToneLevel: -20},
	})

	intervals := DetectSilence(track, 60, -37.0)
	if len(intervals) != 1 {
		t.Fatalf("got %d intervals, want 1: %v", len(intervals), intervals)
	}
	if got := intervals[0].LenMS(); got < 300-2*edgeToleranceMS || got > 300+2*edgeToleranceMS {
		t.Errorf("interval length = %d, want ~300", got)
	}
}

func TestDetectSilenceAllSilent(t *testing.T) {
	track := makeTestTrack(t, 8000, []segment{{DurationMS: 500}})

	intervals := DetectSilence(track, 60, -37.0)
	if len(intervals) != 1 {
		t.Fatalf("got %d intervals, want 1", len(intervals))
	}
	if intervals[0].StartMS != 0 {
		t.Errorf("StartMS = %d, want 0", intervals[0].StartMS)
	}
	if intervals[0].EndMS != 500 {
		t.Errorf("EndMS = %d, want 500", intervals[0].EndMS)
	}
}

func TestDetectSilenceTooShortTrack(t *testing.T) {
	track := makeTestTrack(t, 8000, []segment{{DurationMS: 40}})
	if intervals := DetectSilence(track, 60, -37.0); intervals != nil {
		t.Errorf("got %v for a track shorter than the minimum, want nil", intervals)
	}
}
