package domain

import "time"

// TimeWindow is one contiguous span of availability in absolute time.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeWindow creates a window, normalizing both instants to UTC.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !start.Before(end) {
		return TimeWindow{}, ErrInvalidTimeRange
	}
	return TimeWindow{Start: start.UTC(), End: end.UTC()}, nil
}

// Duration returns the length of the window.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// IsValid reports whether start < end.
func (w TimeWindow) IsValid() bool {
	return w.Start.Before(w.End)
}

// Overlap returns the shared part of two half-open windows.
// The second return value is false when max(start) >= min(end).
func (w TimeWindow) Overlap(other TimeWindow) (TimeWindow, bool) {
	start := w.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := w.End
	if other.End.Before(end) {
		end = other.End
	}
	if !start.Before(end) {
		return TimeWindow{}, false
	}
	return TimeWindow{Start: start, End: end}, true
}

// Contains reports whether other lies entirely within w.
func (w TimeWindow) Contains(other TimeWindow) bool {
	return !other.Start.Before(w.Start) && !other.End.After(w.End)
}

// CandidateSlot is a span in which every participant is available.
type CandidateSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewCandidateSlot creates a slot, rejecting empty or inverted spans.
func NewCandidateSlot(start, end time.Time) (CandidateSlot, error) {
	if !start.Before(end) {
		return CandidateSlot{}, ErrInvalidTimeRange
	}
	return CandidateSlot{Start: start.UTC(), End: end.UTC()}, nil
}

// Window returns the slot as a TimeWindow.
func (s CandidateSlot) Window() TimeWindow {
	return TimeWindow(s)
}

// Duration returns the length of the slot.
func (s CandidateSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// IsValid reports whether start < end.
func (s CandidateSlot) IsValid() bool {
	return s.Start.Before(s.End)
}

// Equal compares two slots by instant rather than by location.
func (s CandidateSlot) Equal(other CandidateSlot) bool {
	return s.Start.Equal(other.Start) && s.End.Equal(other.End)
}
