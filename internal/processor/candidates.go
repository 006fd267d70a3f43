package processor

import (
	"math/rand/v2"

	"pausetune/internal/align"
	"pausetune/internal/audio"
)

// Search window around a punctuated word's end when looking for the
// silence that carries its pause.
const (
	searchBackMS  = 200
	searchAheadMS = 600
)

// wordTailGuardMS protects word tails: a claimed silence's effective
// start never reaches more than this far into the word's time.
const wordTailGuardMS = 50

// Anomaly pass constants: an unpunctuated gap at least anomalyGapMS
// long is a synthesis artefact and gets squeezed to anomalyTargetMS,
// keeping head/tail margins so the voice can ring out.
const (
	anomalyGapMS    = 300
	anomalyTargetMS = 100
	anomalyHeadMS   = 50
	anomalyTailMS   = 50
)

// Fast-mode head/tail preservation, larger than the smart-mode margins
// because there is no transcript to protect word boundaries.
const (
	fastHeadShortMS = 100
	fastTailShortMS = 50
	fastHeadLongMS  = 200
	fastTailLongMS  = 100
)

// CandidateKind tags where an edit candidate came from.
type CandidateKind int

const (
	// KindEndPunct is a pause after sentence-final punctuation.
	KindEndPunct CandidateKind = iota
	// KindMidPunct is a pause after a mid-sentence mark.
	KindMidPunct
	// KindAnomaly is an unpunctuated synthesis gap.
	KindAnomaly
	// KindLength is a fast-mode edit driven by duration alone.
	KindLength
)

func (k CandidateKind) String() string {
	switch k {
	case KindEndPunct:
		return "end_punct"
	case KindMidPunct:
		return "mid_punct"
	case KindAnomaly:
		return "tts_error"
	default:
		return "length"
	}
}

// EditCandidate is one proposed silence rewrite on the source
// timeline. StartMS/EndMS is the span the reconstructor replaces;
// OriginalMS is the full detected silence length before any clamping.
type EditCandidate struct {
	StartMS    int
	EndMS      int
	OriginalMS int
	TargetMS   int
	Kind       CandidateKind
	Word       string
	Punct      string

	// HeadMS/TailMS override how much real audio the reconstructor
	// preserves at the span edges. Zero means the default rule.
	HeadMS int
	TailMS int
}

// GenerateCandidates runs the punctuation pass and then the anomaly
// pass over the aligned transcript, claiming silences from the pool so
// no silence serves two edits. When no silence fits a word, the word
// is skipped; an edit is never invented.
func GenerateCandidates(words []align.AlignedWord, pool *SilencePool, rng *rand.Rand, logf func(format string, args ...any)) []EditCandidate {
	var candidates []EditCandidate

	// Punctuation pass.
	for _, w := range words {
		if w.Punct == "" {
			continue
		}

		sil, ok := pool.ClaimNearest(w.EndMS, searchBackMS, searchAheadMS)
		if !ok {
			logf("skip %q + %q: no silence near %dms", w.Text, w.Punct, w.EndMS)
			continue
		}

		class := Classify(w.Punct)
		target := TargetMS(class, sil.LenMS(), rng)

		safeStart := sil.StartMS
		if guard := w.EndMS - wordTailGuardMS; safeStart < guard {
			safeStart = guard
		}

		kind := KindEndPunct
		if class == ClassMid {
			kind = KindMidPunct
		}

		if target == sil.LenMS() {
			logf("%q + %q: %dms kept", w.Text, w.Punct, sil.LenMS())
		} else {
			logf("%q + %q: %dms -> %dms", w.Text, w.Punct, sil.LenMS(), target)
		}

		candidates = append(candidates, EditCandidate{
			StartMS:    safeStart,
			EndMS:      sil.EndMS,
			OriginalMS: sil.LenMS(),
			TargetMS:   target,
			Kind:       kind,
			Word:       w.Text,
			Punct:      w.Punct,
		})
	}

	// Anomaly pass: long unpunctuated gaps between consecutive words.
	for i := 0; i+1 < len(words); i++ {
		cur := words[i]
		next := words[i+1]
		if cur.Punct != "" {
			continue
		}

		gap := next.StartMS - cur.EndMS
		if gap < anomalyGapMS {
			continue
		}

		sil, ok := pool.ClaimBetween(cur.EndMS-wordTailGuardMS, next.StartMS+wordTailGuardMS)
		if !ok {
			continue
		}

		target := sil.LenMS()
		if target > anomalyTargetMS {
			target = anomalyTargetMS
		}

		start := sil.StartMS + anomalyHeadMS
		end := sil.EndMS - anomalyTailMS
		if end < start {
			end = start
		}

		logf("gap %q -> %q: %dms -> %dms", cur.Text, next.Text, gap, target)

		candidates = append(candidates, EditCandidate{
			StartMS:    start,
			EndMS:      end,
			OriginalMS: sil.LenMS(),
			TargetMS:   target,
			Kind:       KindAnomaly,
			Word:       cur.Text,
		})
	}

	return candidates
}

// GenerateFastCandidates derives edits from silence durations alone.
// Every detected silence gets the unpunctuated pause policy; silences
// the policy leaves alone produce no candidate.
func GenerateFastCandidates(intervals []audio.Interval, rng *rand.Rand, logf func(format string, args ...any)) []EditCandidate {
	var candidates []EditCandidate

	for _, iv := range intervals {
		frames := iv.LenMS() / FrameMS
		if frames == endSentenceFrames {
			continue // already the normalised pause
		}

		target := TargetMS(ClassNone, iv.LenMS(), rng)
		if target == iv.LenMS() {
			continue
		}

		head, tail := fastHeadShortMS, fastTailShortMS
		if frames > endSentenceFrames {
			head, tail = fastHeadLongMS, fastTailLongMS
		}

		logf("pause at %dms: %dms -> %dms", iv.StartMS, iv.LenMS(), target)

		candidates = append(candidates, EditCandidate{
			StartMS:    iv.StartMS,
			EndMS:      iv.EndMS,
			OriginalMS: iv.LenMS(),
			TargetMS:   target,
			Kind:       KindLength,
			HeadMS:     head,
			TailMS:     tail,
		})
	}

	return candidates
}
