package audio

import (
	"path/filepath"
	"testing"
)

func TestDecodeWAV(t *testing.T) {
	src := makeTestTrack(t, 8000, []segment{
		{DurationMS: 1500, ToneFreq: 440, ToneLevel: -12},
	})
	path := writeTestWAV(t, src)

	track, metadata, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if track.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", track.SampleRate)
	}
	if metadata.Channels != 1 {
		t.Errorf("metadata.Channels = %d, want 1", metadata.Channels)
	}

	if got := track.DurationMS(); got < 1450 || got > 1550 {
		t.Errorf("DurationMS() = %d, want ~1500", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := makeTestTrack(t, 8000, []segment{
		{DurationMS: 1000, ToneFreq: 440, ToneLevel: -12},
		{DurationMS: 400},
		{DurationMS: 1000, ToneFreq: 440, ToneLevel: -12},
	})

	outPath := filepath.Join(t.TempDir(), "roundtrip.wav")
	if err := Encode(src, outPath, "wav"); err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	track, _, err := Decode(outPath)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if got := track.DurationMS(); got < 2350 || got > 2450 {
		t.Errorf("DurationMS() = %d, want ~2400", got)
	}

	// The silence gap must survive the round trip.
	intervals := DetectSilence(track, 60, -37.0)
	if len(intervals) != 1 {
		t.Fatalf("got %d silence intervals after round trip, want 1: %v", len(intervals), intervals)
	}
	if got := intervals[0].LenMS(); got < 350 || got > 450 {
		t.Errorf("gap length = %d, want ~400", got)
	}
}

func TestEncodeRejectsUnknownFormat(t *testing.T) {
	src := makeTestTrack(t, 8000, []segment{{DurationMS: 100}})
	if err := Encode(src, filepath.Join(t.TempDir(), "out.ogg"), "ogg"); err == nil {
		t.Fatal("Encode() with unknown format succeeded, want error")
	}
}

func TestDecodeMissingFile(t *testing.T) {
	if _, _, err := Decode(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("Decode() of missing file succeeded, want error")
	}
}
