package domain

import (
	"sort"
	"time"
)

// MaxFallbackSlots caps the alternatives offered with a reschedule request.
const MaxFallbackSlots = 3

// FallbackSearch produces alternative slots when no fully common slot exists.
type FallbackSearch interface {
	Search(participants []Participant) []CandidateSlot
}

// StrictFallback re-runs the full intersection over the same windows.
// When the primary intersection was empty it yields nothing.
type StrictFallback struct{}

// Search implements FallbackSearch.
func (StrictFallback) Search(participants []Participant) []CandidateSlot {
	slots, err := IntersectParticipants(participants)
	if err != nil {
		return nil
	}
	return slots
}

// QuorumFallback looks for spans where as many participants as possible overlap,
// even if not all of them do.
type QuorumFallback struct {
	// MinAttendees is the smallest attendance a span needs to qualify.
	MinAttendees int

	// MinDuration drops spans shorter than this.
	MinDuration time.Duration
}

// NewQuorumFallback creates a quorum search. minAttendees below 1 defaults to 2.
func NewQuorumFallback(minAttendees int, minDuration time.Duration) QuorumFallback {
	if minAttendees < 1 {
		minAttendees = 2
	}
	return QuorumFallback{MinAttendees: minAttendees, MinDuration: minDuration}
}

type quorumSpan struct {
	window    TimeWindow
	attendees int
}

// Search implements FallbackSearch. Spans are ordered by attendance (desc),
// then start (asc), then duration (desc).
func (q QuorumFallback) Search(participants []Participant) []CandidateSlot {
	merged := make([][]TimeWindow, 0, len(participants))
	boundaries := make([]time.Time, 0)
	for _, p := range participants {
		windows := mergeWindows(p.windows)
		merged = append(merged, windows)
		for _, w := range windows {
			boundaries = append(boundaries, w.Start, w.End)
		}
	}
	boundaries = uniqueSorted(boundaries)

	spans := make([]quorumSpan, 0)
	var current *quorumSpan
	var currentMask []bool
	for i := 0; i+1 < len(boundaries); i++ {
		segment := TimeWindow{Start: boundaries[i], End: boundaries[i+1]}
		mask := make([]bool, len(merged))
		count := 0
		for j, windows := range merged {
			for _, w := range windows {
				if w.Contains(segment) {
					mask[j] = true
					count++
					break
				}
			}
		}

		if current != nil && current.window.End.Equal(segment.Start) && sameMask(currentMask, mask) {
			current.window.End = segment.End
			continue
		}
		if current != nil {
			spans = append(spans, *current)
		}
		current = &quorumSpan{window: segment, attendees: count}
		currentMask = mask
	}
	if current != nil {
		spans = append(spans, *current)
	}

	qualified := make([]quorumSpan, 0, len(spans))
	for _, s := range spans {
		if s.attendees < q.MinAttendees || s.window.Duration() < q.MinDuration {
			continue
		}
		qualified = append(qualified, s)
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		if qualified[i].attendees != qualified[j].attendees {
			return qualified[i].attendees > qualified[j].attendees
		}
		if !qualified[i].window.Start.Equal(qualified[j].window.Start) {
			return qualified[i].window.Start.Before(qualified[j].window.Start)
		}
		return qualified[i].window.Duration() > qualified[j].window.Duration()
	})

	slots := make([]CandidateSlot, 0, len(qualified))
	for _, s := range qualified {
		slots = append(slots, CandidateSlot(s.window))
	}
	return slots
}

// TopFallbacks returns at most MaxFallbackSlots valid slots from a search.
func TopFallbacks(search FallbackSearch, participants []Participant) []CandidateSlot {
	if search == nil {
		return []CandidateSlot{}
	}
	result := make([]CandidateSlot, 0, MaxFallbackSlots)
	for _, s := range search.Search(participants) {
		if !s.IsValid() {
			continue
		}
		result = append(result, s)
		if len(result) == MaxFallbackSlots {
			break
		}
	}
	return result
}

// mergeWindows returns the union of a participant's windows, sorted by start.
func mergeWindows(windows []TimeWindow) []TimeWindow {
	if len(windows) == 0 {
		return nil
	}
	sorted := make([]TimeWindow, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []TimeWindow{sorted[0]}
	for _, w := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !w.Start.After(last.End) {
			if w.End.After(last.End) {
				last.End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

func uniqueSorted(times []time.Time) []time.Time {
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	out := make([]time.Time, 0, len(times))
	for _, t := range times {
		if len(out) > 0 && out[len(out)-1].Equal(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func sameMask(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
