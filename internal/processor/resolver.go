package processor

import "sort"

// MinVoiceChunkMS is the shortest stretch of voice allowed to sit
// between two edited silences. Editing around a shorter chunk would
// turn it into a stuttering island, so the edit is dropped and the
// chunk flows into the next pause.
const MinVoiceChunkMS = 700

// EditPlan is the resolved, ordered, non-overlapping list of edits the
// reconstructor applies.
type EditPlan []EditCandidate

// ResolvePlan orders candidates by position and drops any whose
// preceding voice chunk would be too short, then any that overlap an
// earlier survivor.
func ResolvePlan(candidates []EditCandidate, logf func(format string, args ...any)) EditPlan {
	plan := make(EditPlan, len(candidates))
	copy(plan, candidates)
	sort.Slice(plan, func(i, j int) bool { return plan[i].StartMS < plan[j].StartMS })

	final := plan[:0]
	lastEnd := 0
	dropped := 0

	for _, c := range plan {
		voiceLen := c.StartMS - lastEnd
		if voiceLen < 0 {
			logf("drop edit at %dms: overlaps previous edit", c.StartMS)
			dropped++
			continue
		}
		if voiceLen > 0 && voiceLen < MinVoiceChunkMS {
			logf("drop edit at %dms: voice chunk %dms too short", c.StartMS, voiceLen)
			dropped++
			continue
		}
		final = append(final, c)
		lastEnd = c.EndMS
	}

	if dropped > 0 {
		logf("dropped %d edits around short voice chunks", dropped)
	}

	return final
}
