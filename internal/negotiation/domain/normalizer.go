package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Zone resolution must not depend on the host's zoneinfo
)

// Layouts carrying their own zone information; converted directly.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02T15:04Z0700",
}

// Wall-clock layouts interpreted in the participant's timezone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var offsetPattern = regexp.MustCompile(`^(?:UTC|GMT)?\s*([+-])(\d{1,2})(?::?(\d{2}))?$`)

// Normalizer converts participant-local windows into absolute UTC windows.
// It is stateless and safe for concurrent use.
type Normalizer struct{}

// NewNormalizer creates a new normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize converts one raw window expressed in the given timezone into UTC.
func (n *Normalizer) Normalize(participantID, timezone string, raw RawWindow) (TimeWindow, error) {
	return n.normalizeWindow(participantID, timezone, raw, "window")
}

// NormalizeParticipant normalizes every window of a participant.
// The first failure aborts and identifies the offending field.
func (n *Normalizer) NormalizeParticipant(input ParticipantInput) (Participant, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return Participant{}, NewMalformedInputError(input.ID, "email", "", fmt.Errorf("identifier is required"))
	}

	if _, err := LoadLocation(input.Timezone); err != nil {
		return Participant{}, NewMalformedInputError(id, "timezone", input.Timezone, err)
	}

	windows := make([]TimeWindow, 0, len(input.Windows))
	for i, raw := range input.Windows {
		w, err := n.normalizeWindow(id, input.Timezone, raw, fmt.Sprintf("windows[%d]", i))
		if err != nil {
			return Participant{}, err
		}
		windows = append(windows, w)
	}

	name := strings.TrimSpace(input.DisplayName)
	if name != "" {
		name = CleanName(name)
	}
	return NewParticipant(id, name, input.Timezone, windows), nil
}

func (n *Normalizer) normalizeWindow(participantID, timezone string, raw RawWindow, field string) (TimeWindow, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return TimeWindow{}, NewMalformedInputError(participantID, "timezone", timezone, err)
	}

	start, err := ParseInstant(raw.Start, loc)
	if err != nil {
		return TimeWindow{}, NewMalformedInputError(participantID, field+".start", raw.Start, err)
	}
	end, err := ParseInstant(raw.End, loc)
	if err != nil {
		return TimeWindow{}, NewMalformedInputError(participantID, field+".end", raw.End, err)
	}

	w, err := NewTimeWindow(start, end)
	if err != nil {
		return TimeWindow{}, NewMalformedInputError(participantID, field, raw.Start+" - "+raw.End, err)
	}
	return w, nil
}

// ParseInstant parses a timestamp. Values with an explicit offset keep it;
// wall-clock values are interpreted in loc. The result is in UTC.
func ParseInstant(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrUnparseableTimestamp
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrUnparseableTimestamp
}

// LoadLocation resolves an IANA zone name, "UTC", or a fixed offset such as
// "UTC+05:30", "+0530" or "-03:00".
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	switch strings.ToUpper(name) {
	case "", "LOCAL":
		return nil, ErrUnknownTimezone
	case "UTC", "Z", "GMT":
		return time.UTC, nil
	}

	if m := offsetPattern.FindStringSubmatch(strings.ToUpper(name)); m != nil {
		hours, _ := strconv.Atoi(m[2])
		minutes := 0
		if m[3] != "" {
			minutes, _ = strconv.Atoi(m[3])
		}
		if hours > 14 || minutes > 59 {
			return nil, ErrUnknownTimezone
		}
		offset := hours*3600 + minutes*60
		if m[1] == "-" {
			offset = -offset
		}
		return time.FixedZone(name, offset), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTimezone, name)
	}
	return loc, nil
}
