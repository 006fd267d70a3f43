// Package processor turns detected silences, transcript timings, and
// script punctuation into an edit plan and rebuilds the audio from it.
package processor

import (
	"math/rand/v2"
)

// FrameMS is the pause quantum. All pause targets are whole frames at
// 30 fps.
const FrameMS = 33

const (
	endSentenceFrames  = 24 // normalised end-of-sentence pause
	endKeepBelowFrames = 20 // shorter end pauses stay untouched

	midKeepFrames = 6 // mid pauses this short stay untouched
	midMinFrames  = 6
	midMaxFrames  = 8

	noneKeepFrames = 7 // unpunctuated pauses this short stay untouched
	noneMinFrames  = 7
	noneMaxFrames  = 9
)

// Class is the punctuation class a pause belongs to.
type Class int

const (
	// ClassNone is a pause with no punctuation behind it.
	ClassNone Class = iota
	// ClassEnd follows sentence-final punctuation.
	ClassEnd
	// ClassMid follows a mid-sentence mark.
	ClassMid
)

// Classify maps a punctuation string to its pause class.
func Classify(punct string) Class {
	switch punct {
	case ".", "!", "?", "...":
		return ClassEnd
	case ",", ":", ";":
		return ClassMid
	default:
		return ClassNone
	}
}

// TargetMS returns the pause duration a silence of originalMS should
// become under the given class. Random picks come from rng so tests
// can pin the source.
//
// A returned value equal to originalMS means "leave it alone".
func TargetMS(class Class, originalMS int, rng *rand.Rand) int {
	frames := originalMS / FrameMS

	switch class {
	case ClassEnd:
		if frames >= endKeepBelowFrames {
			return endSentenceFrames * FrameMS
		}
		return originalMS

	case ClassMid:
		if frames <= midKeepFrames {
			return originalMS
		}
		if frames < endKeepBelowFrames {
			n := midMinFrames + rng.IntN(midMaxFrames-midMinFrames+1)
			return n * FrameMS
		}
		// Overlong mid pause, normalise like a sentence end.
		return endSentenceFrames * FrameMS

	default:
		if frames <= noneKeepFrames {
			return originalMS
		}
		if frames < endSentenceFrames {
			n := noneMinFrames + rng.IntN(noneMaxFrames-noneMinFrames+1)
			return n * FrameMS
		}
		return endSentenceFrames * FrameMS
	}
}
