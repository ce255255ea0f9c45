package domain

import (
	"regexp"
	"strings"
)

// RawWindow is an availability window as submitted, in participant-local wall-clock terms.
type RawWindow struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// ParticipantInput is a participant before normalization.
type ParticipantInput struct {
	ID          string      `json:"email" validate:"required,email"`
	DisplayName string      `json:"name,omitempty"`
	Timezone    string      `json:"timezone,omitempty"`
	Windows     []RawWindow `json:"slots" validate:"dive"`
}

// IdentityKey is the comparison key for participant IDs. E-mail addresses
// match case-insensitively.
func IdentityKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Participant is a participant whose windows have been normalized to UTC.
// Identity is the ID compared through IdentityKey; the display name is cosmetic.
type Participant struct {
	id          string
	displayName string
	timezone    string
	windows     []TimeWindow
}

// NewParticipant creates a participant from already-normalized windows.
func NewParticipant(id, displayName, timezone string, windows []TimeWindow) Participant {
	if displayName == "" {
		displayName = DisplayNameFromID(id)
	}
	copied := make([]TimeWindow, len(windows))
	copy(copied, windows)
	return Participant{
		id:          id,
		displayName: displayName,
		timezone:    timezone,
		windows:     copied,
	}
}

// Getters
func (p Participant) ID() string          { return p.id }
func (p Participant) DisplayName() string { return p.displayName }
func (p Participant) Timezone() string    { return p.timezone }

// Windows returns a copy of the participant's normalized windows.
func (p Participant) Windows() []TimeWindow {
	copied := make([]TimeWindow, len(p.windows))
	copy(copied, p.windows)
	return copied
}

// HasAvailability reports whether the participant declared any window.
func (p Participant) HasAvailability() bool {
	return len(p.windows) > 0
}

// IsAvailable reports whether one of the participant's windows covers the slot.
func (p Participant) IsAvailable(slot CandidateSlot) bool {
	for _, w := range p.windows {
		if w.Contains(slot.Window()) {
			return true
		}
	}
	return false
}

var (
	digitsPattern    = regexp.MustCompile(`\d+`)
	nonLetterPattern = regexp.MustCompile(`[^a-zA-Z\s]`)
)

// DisplayNameFromID derives a readable name from an e-mail style identifier.
// Digits are dropped, other non-letters become spaces and words are title-cased.
// Falls back to "User" when nothing readable remains.
func DisplayNameFromID(id string) string {
	local := id
	if at := strings.Index(id, "@"); at >= 0 {
		local = id[:at]
	}
	return CleanName(local)
}

// CleanName normalizes a free-form name the same way DisplayNameFromID does.
func CleanName(raw string) string {
	cleaned := digitsPattern.ReplaceAllString(raw, "")
	cleaned = nonLetterPattern.ReplaceAllString(cleaned, " ")
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return "User"
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
