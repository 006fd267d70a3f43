package processor

import "pausetune/internal/audio"

// SilencePool hands out detected silences to candidate passes. Each
// silence can be claimed once; later passes only see what is left.
type SilencePool struct {
	intervals []audio.Interval
	claimed   []bool
}

// NewSilencePool wraps detected intervals. The slice is not copied;
// callers must not mutate it afterwards.
func NewSilencePool(intervals []audio.Interval) *SilencePool {
	return &SilencePool{
		intervals: intervals,
		claimed:   make([]bool, len(intervals)),
	}
}

// Len returns the total number of silences, claimed or not.
func (p *SilencePool) Len() int {
	return len(p.intervals)
}

// ClaimNearest claims the unclaimed silence whose start is closest to
// anchorMS, looking backMS behind and aheadMS ahead of it. Ties go to
// the earlier silence. Returns false when nothing lies in the window.
func (p *SilencePool) ClaimNearest(anchorMS, backMS, aheadMS int) (audio.Interval, bool) {
	best := -1
	bestDist := 0
	for i, iv := range p.intervals {
		if p.claimed[i] {
			continue
		}
		dist := iv.StartMS - anchorMS
		if dist < -backMS || dist > aheadMS {
			continue
		}
		if dist < 0 {
			dist = -dist
		}
		if best == -1 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best == -1 {
		return audio.Interval{}, false
	}
	p.claimed[best] = true
	return p.intervals[best], true
}

// ClaimBetween claims the first unclaimed silence lying entirely
// within [loMS, hiMS].
func (p *SilencePool) ClaimBetween(loMS, hiMS int) (audio.Interval, bool) {
	for i, iv := range p.intervals {
		if p.claimed[i] {
			continue
		}
		if iv.StartMS >= loMS && iv.EndMS <= hiMS {
			p.claimed[i] = true
			return p.intervals[i], true
		}
	}
	return audio.Interval{}, false
}
