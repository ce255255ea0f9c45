// Package ranking provides SlotRankingService implementations.
package ranking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
)

// ErrNoIndex is returned when a reply carries no slot number.
var ErrNoIndex = errors.New("reply contains no slot number")

const slotLayout = "2006-01-02 15:04"

// Prompt builds the ranking prompt: one numbered line per candidate.
func Prompt(candidates []domain.CandidateSlot) string {
	var b strings.Builder
	b.WriteString("You are an intelligent scheduling assistant. Here are some available meeting slots:\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s to %s UTC\n", i+1, c.Start.UTC().Format(slotLayout), c.End.UTC().Format(slotLayout))
	}
	b.WriteString("\nChoose the best slot based on:\n")
	b.WriteString("- Natural working hours\n")
	b.WriteString("- Balance for global time zones\n")
	b.WriteString("- Ideal start times\n\n")
	b.WriteString("Respond with only the slot number (e.g., 1, 2, etc.) of the best slot.\n")
	return b.String()
}

// ParseIndex reads a 1-based slot number from a model reply by joining its
// digits. Range checking is left to the caller.
func ParseIndex(reply string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, reply)
	if digits == "" {
		return 0, ErrNoIndex
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoIndex, reply)
	}
	return n, nil
}
