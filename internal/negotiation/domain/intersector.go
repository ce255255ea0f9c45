package domain

// Intersect computes the spans available to every window list.
//
// The first list seeds the running common set; each following list is
// overlapped pairwise against it and replaces it. Output follows fold order,
// not chronological order. Once the running set is empty no later list can
// reintroduce availability, so the fold stops early.
func Intersect(lists [][]TimeWindow) ([]CandidateSlot, error) {
	if len(lists) == 0 {
		return nil, &InsufficientParticipantsError{Got: 0, Required: 1}
	}

	common := make([]TimeWindow, len(lists[0]))
	copy(common, lists[0])

	for _, next := range lists[1:] {
		if len(common) == 0 {
			break
		}
		common = overlapAll(common, next)
	}

	slots := make([]CandidateSlot, 0, len(common))
	for _, w := range common {
		slots = append(slots, CandidateSlot(w))
	}
	return slots, nil
}

// IntersectParticipants intersects the normalized windows of all participants.
func IntersectParticipants(participants []Participant) ([]CandidateSlot, error) {
	lists := make([][]TimeWindow, 0, len(participants))
	for _, p := range participants {
		lists = append(lists, p.windows)
	}
	return Intersect(lists)
}

func overlapAll(common, next []TimeWindow) []TimeWindow {
	result := make([]TimeWindow, 0)
	for _, a := range common {
		for _, b := range next {
			if o, ok := a.Overlap(b); ok {
				result = append(result, o)
			}
		}
	}
	return result
}
