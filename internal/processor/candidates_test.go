package processor

import (
	"testing"

	"pausetune/internal/align"
)

func aligned(text string, startMS, endMS int, punct string) align.AlignedWord {
	return align.AlignedWord{Text: text, StartMS: startMS, EndMS: endMS, Punct: punct}
}

func TestGenerateCandidatesEndPunct(t *testing.T) {
	words := []align.AlignedWord{
		aligned("hết", 500, 1000, "."),
	}
	pool := NewSilencePool(intervals([2]int{1050, 1950}))

	cands := GenerateCandidates(words, pool, testRNG(), discardLogf)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}

	c := cands[0]
	if c.Kind != KindEndPunct {
		t.Errorf("Kind = %v, want KindEndPunct", c.Kind)
	}
	if c.OriginalMS != 900 {
		t.Errorf("OriginalMS = %d, want 900", c.OriginalMS)
	}
	// 900ms is >= 20 frames, so it normalises to 24 frames.
	if c.TargetMS != 792 {
		t.Errorf("TargetMS = %d, want 792", c.TargetMS)
	}
	if c.StartMS != 1050 || c.EndMS != 1950 {
		t.Errorf("span = [%d, %d], want [1050, 1950]", c.StartMS, c.EndMS)
	}
}

func TestGenerateCandidatesWordTailClamp(t *testing.T) {
	// The detected silence starts 120ms before the word ends; the
	// candidate start must be clamped to word end minus 50ms.
	words := []align.AlignedWord{
		aligned("chào", 500, 1000, ","),
	}
	pool := NewSilencePool(intervals([2]int{880, 1300}))

	cands := GenerateCandidates(words, pool, testRNG(), discardLogf)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if cands[0].StartMS != 950 {
		t.Errorf("StartMS = %d, want 950 (word end - 50)", cands[0].StartMS)
	}
	// The original length stays that of the full silence.
	if cands[0].OriginalMS != 420 {
		t.Errorf("OriginalMS = %d, want 420", cands[0].OriginalMS)
	}
}

func TestGenerateCandidatesNoSilenceNoEdit(t *testing.T) {
	words := []align.AlignedWord{
		aligned("xa", 500, 1000, "."),
	}
	// Only silence is far outside the search window.
	pool := NewSilencePool(intervals([2]int{5000, 6000}))

	var logged []string
	logf := func(format string, args ...any) { logged = append(logged, format) }

	cands := GenerateCandidates(words, pool, testRNG(), logf)
	if len(cands) != 0 {
		t.Fatalf("got %d candidates, want 0 (never inject)", len(cands))
	}
	if len(logged) == 0 {
		t.Error("skipped word was not logged")
	}
}

func TestGenerateCandidatesSilenceClaimedOnce(t *testing.T) {
	// Two punctuated words near one silence: only the first claims it.
	words := []align.AlignedWord{
		aligned("một", 500, 1000, ","),
		aligned("hai", 1050, 1100, "."),
	}
	pool := NewSilencePool(intervals([2]int{1020, 1380}))

	cands := GenerateCandidates(words, pool, testRNG(), discardLogf)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if cands[0].Word != "một" {
		t.Errorf("claimed by %q, want %q", cands[0].Word, "một")
	}
}

func TestGenerateCandidatesAnomalyPass(t *testing.T) {
	words := []align.AlignedWord{
		aligned("bị", 500, 1000, ""),
		aligned("kẹt", 1600, 1900, ""),
	}
	pool := NewSilencePool(intervals([2]int{1050, 1550}))

	cands := GenerateCandidates(words, pool, testRNG(), discardLogf)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}

	c := cands[0]
	if c.Kind != KindAnomaly {
		t.Errorf("Kind = %v, want KindAnomaly", c.Kind)
	}
	if c.TargetMS != 100 {
		t.Errorf("TargetMS = %d, want 100", c.TargetMS)
	}
	// 50ms head and tail stay outside the edited span.
	if c.StartMS != 1100 || c.EndMS != 1500 {
		t.Errorf("span = [%d, %d], want [1100, 1500]", c.StartMS, c.EndMS)
	}
}

func TestGenerateCandidatesAnomalyRequiresGap(t *testing.T) {
	// 200ms gap is under the anomaly threshold.
	words := []align.AlignedWord{
		aligned("sát", 500, 1000, ""),
		aligned("nhau", 1200, 1500, ""),
	}
	pool := NewSilencePool(intervals([2]int{1020, 1180}))

	if cands := GenerateCandidates(words, pool, testRNG(), discardLogf); len(cands) != 0 {
		t.Fatalf("got %d candidates for a 200ms gap, want 0", len(cands))
	}
}

func TestGenerateCandidatesAnomalySkipsPunctuated(t *testing.T) {
	words := []align.AlignedWord{
		aligned("xong", 500, 1000, "."),
		aligned("rồi", 1600, 1900, ""),
	}
	pool := NewSilencePool(intervals([2]int{1050, 1550}))

	cands := GenerateCandidates(words, pool, testRNG(), discardLogf)
	// The punctuation pass claims the silence; the anomaly pass must
	// not produce a second edit for the same gap.
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if cands[0].Kind == KindAnomaly {
		t.Errorf("Kind = %v, want a punctuation edit", cands[0].Kind)
	}
}

func TestGenerateFastCandidates(t *testing.T) {
	ivs := intervals(
		[2]int{0, 150},      // 4 frames: kept
		[2]int{1000, 1500},  // 15 frames: shortened
		[2]int{3000, 3792},  // exactly 24 frames: kept
		[2]int{5000, 6200},  // 36 frames: capped
	)

	cands := GenerateFastCandidates(ivs, testRNG(), discardLogf)
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(cands), cands)
	}

	short := cands[0]
	if short.StartMS != 1000 || short.Kind != KindLength {
		t.Errorf("first candidate = %+v", short)
	}
	if short.TargetMS < 7*FrameMS || short.TargetMS > 9*FrameMS {
		t.Errorf("short TargetMS = %d, want 7-9 frames", short.TargetMS)
	}
	if short.HeadMS != 100 || short.TailMS != 50 {
		t.Errorf("short head/tail = %d/%d, want 100/50", short.HeadMS, short.TailMS)
	}

	long := cands[1]
	if long.TargetMS != 792 {
		t.Errorf("long TargetMS = %d, want 792", long.TargetMS)
	}
	if long.HeadMS != 200 || long.TailMS != 100 {
		t.Errorf("long head/tail = %d/%d, want 200/100", long.HeadMS, long.TailMS)
	}
}
