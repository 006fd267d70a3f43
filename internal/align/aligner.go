package align

import (
	"fmt"
	"strings"

	"pausetune/internal/transcribe"
)

// lookahead is how many script words beyond the cursor are tried when
// the word under the cursor does not match, covering short runs the
// recogniser dropped.
const lookahead = 3

// maxMismatchDetail caps how many mismatched words the report records
// individually.
const maxMismatchDetail = 10

// LowConfidenceRate is the match rate (percent) below which an
// alignment is considered unreliable.
const LowConfidenceRate = 80.0

// AlignedWord is a transcript word annotated with the punctuation that
// follows its script counterpart. Punct is "" when the word matched an
// unpunctuated script word or matched nothing at all.
type AlignedWord struct {
	Text    string
	StartMS int
	EndMS   int
	Punct   string
}

// Mismatch records one transcript word that found no script
// counterpart.
type Mismatch struct {
	Position   int    // index into the transcript
	Transcript string // what the recogniser heard
	Expected   string // script word under the cursor at the time
	TimeMS     int    // end time of the transcript word
}

// Report summarises an alignment run.
type Report struct {
	ScriptWords     int
	TranscriptWords int
	Matched         int
	PunctFound      int
	MismatchCount   int
	Mismatches      []Mismatch // first maxMismatchDetail only
}

// MatchRate returns the share of transcript words that matched, in
// percent.
func (r *Report) MatchRate() float64 {
	if r.TranscriptWords == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.TranscriptWords) * 100.0
}

// LowConfidence reports whether the match rate falls below the
// reliability floor.
func (r *Report) LowConfidence() bool {
	return r.MatchRate() < LowConfidenceRate
}

// Summary renders the report as log lines.
func (r *Report) Summary() []string {
	lines := []string{
		fmt.Sprintf("Script: %d words", r.ScriptWords),
		fmt.Sprintf("Transcript: %d words", r.TranscriptWords),
		fmt.Sprintf("Matched: %d (%.1f%%)", r.Matched, r.MatchRate()),
		fmt.Sprintf("Mismatched: %d words", r.MismatchCount),
		fmt.Sprintf("Punctuation found: %d", r.PunctFound),
	}
	for _, m := range r.Mismatches {
		lines = append(lines, fmt.Sprintf("  #%d heard %q, expected %q at %dms",
			m.Position, m.Transcript, m.Expected, m.TimeMS))
	}
	if r.MismatchCount > len(r.Mismatches) {
		lines = append(lines, fmt.Sprintf("  ... and %d more", r.MismatchCount-len(r.Mismatches)))
	}
	if r.LowConfidence() {
		lines = append(lines, fmt.Sprintf("warning: match rate below %.0f%%, punctuation mapping may be unreliable", LowConfidenceRate))
	}
	return lines
}

// Align walks the transcript against the script with a monotonic
// cursor. Each transcript word is compared to the script word under
// the cursor and up to lookahead words beyond it; a match consumes the
// script up to and including the matched word and copies its
// punctuation onto the transcript word. Unmatched transcript words
// leave the cursor where it is.
func Align(words []transcribe.Word, script string) ([]AlignedWord, *Report) {
	tokens := ExtractTokens(script)

	report := &Report{
		ScriptWords:     len(tokens),
		TranscriptWords: len(words),
	}

	aligned := make([]AlignedWord, 0, len(words))
	cursor := 0

	for i, tw := range words {
		normalized := Normalize(tw.Text)
		punct := ""
		matched := false

		limit := cursor + lookahead
		if limit > len(tokens)-1 {
			limit = len(tokens) - 1
		}
		for j := cursor; j <= limit; j++ {
			if wordsMatch(normalized, Normalize(tokens[j].Word)) {
				punct = tokens[j].Punct
				cursor = j + 1
				matched = true
				break
			}
		}

		if matched {
			report.Matched++
			if punct != "" {
				report.PunctFound++
			}
		} else {
			report.MismatchCount++
			if len(report.Mismatches) < maxMismatchDetail {
				expected := ""
				if cursor < len(tokens) {
					expected = tokens[cursor].Word
				}
				report.Mismatches = append(report.Mismatches, Mismatch{
					Position:   i,
					Transcript: strings.TrimSpace(tw.Text),
					Expected:   expected,
					TimeMS:     tw.EndMS,
				})
			}
		}

		aligned = append(aligned, AlignedWord{
			Text:    strings.TrimSpace(tw.Text),
			StartMS: tw.StartMS,
			EndMS:   tw.EndMS,
			Punct:   punct,
		})
	}

	return aligned, report
}
