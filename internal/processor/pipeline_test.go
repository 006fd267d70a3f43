package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pausetune/internal/audio"
)

// encodeFixture writes a track to a temp WAV and returns its path.
func encodeFixture(t *testing.T, track *audio.Track) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.wav")
	if err := audio.Encode(track, path, "wav"); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestRunFastMode(t *testing.T) {
	src := makeTrack(t, tone(1000), gap(900), tone(1000))
	inPath := encodeFixture(t, src)
	outPath := filepath.Join(t.TempDir(), "out.wav")

	var percents []int
	var logs []string

	p := New(nil)
	result, err := p.Run(context.Background(), inPath, outPath, Options{
		Mode:         ModeFast,
		ThresholdDB:  -37.0,
		MinSilenceMS: 60,
		Format:       "wav",
		Rand:         testRNG(),
	}, Callbacks{
		Progress: func(percent int, _ string) { percents = append(percents, percent) },
		Log:      func(line string) { logs = append(logs, line) },
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.PlanLen != 1 {
		t.Errorf("PlanLen = %d, want 1", result.PlanLen)
	}
	if result.Report != nil {
		t.Error("fast mode produced an alignment report")
	}
	if result.OutputDurationMS >= result.InputDurationMS {
		t.Errorf("output %dms not shorter than input %dms",
			result.OutputDurationMS, result.InputDurationMS)
	}
	// 900ms pause normalised to 792ms.
	if got := result.OutputDurationMS; got < 2750 || got > 2850 {
		t.Errorf("OutputDurationMS = %d, want ~2792", got)
	}

	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file missing: %v", err)
	}

	if len(percents) == 0 || percents[len(percents)-1] != 100 {
		t.Fatalf("progress did not reach 100: %v", percents)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress moved backwards: %v", percents)
		}
	}
	if len(logs) == 0 {
		t.Error("no log lines emitted")
	}
}

func TestRunSmartModeRequiresScript(t *testing.T) {
	src := makeTrack(t, tone(500))
	inPath := encodeFixture(t, src)

	p := New(nil)
	_, err := p.Run(context.Background(), inPath, filepath.Join(t.TempDir(), "out.wav"), Options{
		Mode:         ModeSmart,
		ThresholdDB:  -37.0,
		MinSilenceMS: 60,
		Format:       "wav",
	}, Callbacks{})

	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PipelineError", err)
	}
	if pe.Stage != "align" {
		t.Errorf("Stage = %q, want %q", pe.Stage, "align")
	}
}

func TestRunDecodeFailure(t *testing.T) {
	p := New(nil)
	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), "out.wav", Options{
		Mode:         ModeFast,
		ThresholdDB:  -37.0,
		MinSilenceMS: 60,
		Format:       "wav",
	}, Callbacks{})

	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PipelineError", err)
	}
	if pe.Stage != "decode" {
		t.Errorf("Stage = %q, want %q", pe.Stage, "decode")
	}
}

func TestRunCancelled(t *testing.T) {
	src := makeTrack(t, tone(500))
	inPath := encodeFixture(t, src)
	outPath := filepath.Join(t.TempDir(), "out.wav")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(nil)
	_, err := p.Run(ctx, inPath, outPath, Options{
		Mode:         ModeFast,
		ThresholdDB:  -37.0,
		MinSilenceMS: 60,
		Format:       "wav",
	}, Callbacks{})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}

	if _, err := os.Stat(outPath); err == nil {
		t.Error("cancelled run left an output file")
	}
}

func TestMonotonicProgress(t *testing.T) {
	var got []int
	progress := monotonicProgress(func(percent int, _ string) { got = append(got, percent) })

	for _, p := range []int{0, 10, 5, 40, 200, 90} {
		progress(p, "")
	}

	want := []int{0, 10, 10, 40, 100, 100}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
