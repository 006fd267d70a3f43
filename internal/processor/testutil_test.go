package processor

import (
	"math"
	"math/rand/v2"
	"testing"

	"pausetune/internal/audio"
)

// testRate keeps synthetic tracks small while staying millisecond
// accurate.
const testRate = 8000

// seg is one stretch of synthetic audio; Freq 0 means silence.
type seg struct {
	MS   int
	Freq float64
	DB   float64
}

// makeTrack builds an in-memory mono track from consecutive segments.
func makeTrack(t *testing.T, segments ...seg) *audio.Track {
	t.Helper()

	var samples []int16
	for _, s := range segments {
		n := s.MS * testRate / 1000
		if s.Freq == 0 {
			samples = append(samples, make([]int16, n)...)
			continue
		}
		amp := math.Pow(10.0, s.DB/20.0)
		for i := 0; i < n; i++ {
			ts := float64(i) / float64(testRate)
			v := amp * math.Sin(2.0*math.Pi*s.Freq*ts)
			samples = append(samples, int16(v*float64(math.MaxInt16)))
		}
	}

	return &audio.Track{Samples: samples, SampleRate: testRate}
}

// tone and gap are segment shorthands for readable test fixtures.
func tone(ms int) seg { return seg{MS: ms, Freq: 440, DB: -12} }
func gap(ms int) seg  { return seg{MS: ms} }

// testRNG returns a pinned random source; tests assert ranges, not
// exact draws.
func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(7, 13))
}

// discardLogf swallows diagnostics.
func discardLogf(string, ...any) {}
