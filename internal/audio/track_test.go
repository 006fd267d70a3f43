package audio

import "testing"

func TestTrackDurationMS(t *testing.T) {
	tests := []struct {
		name       string
		samples    int
		sampleRate int
		wantMS     int
	}{
		{"one second", 44100, 44100, 1000},
		{"half second", 22050, 44100, 500},
		{"empty", 0, 44100, 0},
		{"zero rate", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := &Track{Samples: make([]int16, tt.samples), SampleRate: tt.sampleRate}
			if got := track.DurationMS(); got != tt.wantMS {
				t.Errorf("DurationMS() = %d, want %d", got, tt.wantMS)
			}
		})
	}
}

func TestTrackSliceMS(t *testing.T) {
	track := &Track{Samples: make([]int16, 44100), SampleRate: 44100}

	tests := []struct {
		name        string
		startMS     int
		endMS       int
		wantSamples int
	}{
		{"first 100ms", 0, 100, 4410},
		{"middle span", 250, 750, 22050},
		{"inverted range", 500, 100, 0},
		{"past the end", 900, 2000, 4410},
		{"negative start", -100, 100, 4410},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := track.SliceMS(tt.startMS, tt.endMS)
			if len(got) != tt.wantSamples {
				t.Errorf("SliceMS(%d, %d) returned %d samples, want %d",
					tt.startMS, tt.endMS, len(got), tt.wantSamples)
			}
		})
	}
}

func TestBuilderAssembly(t *testing.T) {
	src := makeTestTrack(t, 8000, []segment{
		{DurationMS: 500, ToneFreq: 440, ToneLevel: -12},
	})

	b := NewBuilder(8000, 1000)
	b.AppendSlice(src, 0, 200)
	b.AppendSilence(300)
	b.AppendSlice(src, 200, 500)

	if got := b.DurationMS(); got != 800 {
		t.Fatalf("DurationMS() = %d, want 800", got)
	}

	out := b.Track()
	if out.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", out.SampleRate)
	}

	// The inserted silence must be all zeros.
	for i, s := range out.SliceMS(200, 500) {
		if s != 0 {
			t.Fatalf("sample %d in silence span = %d, want 0", i, s)
		}
	}

	// Copied spans must match the source verbatim.
	head := out.SliceMS(0, 200)
	for i, s := range src.SliceMS(0, 200) {
		if head[i] != s {
			t.Fatalf("copied sample %d = %d, want %d", i, head[i], s)
		}
	}
}

func TestBuilderTrimTail(t *testing.T) {
	b := NewBuilder(8000, 0)
	b.AppendSilence(1000)

	b.TrimTail(250)
	if got := b.DurationMS(); got != 750 {
		t.Errorf("after TrimTail(250): DurationMS() = %d, want 750", got)
	}

	b.TrimTail(-10)
	if got := b.DurationMS(); got != 750 {
		t.Errorf("after TrimTail(-10): DurationMS() = %d, want 750", got)
	}

	b.TrimTail(5000)
	if got := b.DurationMS(); got != 0 {
		t.Errorf("after oversized TrimTail: DurationMS() = %d, want 0", got)
	}
}

func TestBuilderAppendSilenceIgnoresNonPositive(t *testing.T) {
	b := NewBuilder(8000, 0)
	b.AppendSilence(0)
	b.AppendSilence(-50)
	if got := b.DurationMS(); got != 0 {
		t.Errorf("DurationMS() = %d, want 0", got)
	}
}
