package meeting

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/dto"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/samber/lo"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderOutcome(out io.Writer, view dto.OutcomeDTO) {
	fmt.Fprintf(out, "Negotiation %s\n", view.NegotiationID)

	switch view.Status {
	case "confirmed":
		fmt.Fprintf(out, "Confirmed: %s\n", view.Slot.Display)
	case "awaiting_confirmation":
		fmt.Fprintf(out, "Proposed (awaiting confirmation): %s\n", view.Slot.Display)
		fmt.Fprintf(out, "Confirm with: rendezvous meeting finalize --start %s --end %s\n",
			view.Slot.Start.Format("2006-01-02T15:04Z07:00"), view.Slot.End.Format("2006-01-02T15:04Z07:00"))
	default:
		fmt.Fprintln(out, "No common slot. Reschedule requested.")
		if len(view.FallbackSlots) > 0 {
			fmt.Fprintln(out, "Closest alternatives:")
			for _, s := range view.FallbackSlots {
				fmt.Fprintf(out, "  - %s\n", s.Display)
			}
		}
	}
	if view.SelectionSource != "" {
		fmt.Fprintf(out, "Chosen by: %s (%d candidates)\n", view.SelectionSource, view.CandidateCount)
	}

	fmt.Fprintln(out, "\nParticipants:")
	for _, p := range view.Participants {
		line := fmt.Sprintf("  %-28s %-20s %s", p.Email, p.Name, p.Timezone)
		if p.LocalTime != "" {
			line += "  " + p.LocalTime
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}

	if len(view.Excluded) > 0 {
		fmt.Fprintln(out, "\nExcluded:")
		for _, e := range view.Excluded {
			fmt.Fprintf(out, "  %s: %s\n", e.ID, e.Reason)
		}
	}

	if view.MeetingLink != "" {
		fmt.Fprintf(out, "\nMeeting link: %s\n", view.MeetingLink)
	}
	if len(view.Deliveries) > 0 {
		renderDeliveries(out, view.Deliveries)
	}

	warnings := lo.Reject(view.Warnings, func(w domain.Warning, _ int) bool { return w.Service == "input" })
	if len(warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			fmt.Fprintf(out, "  %s\n", w.String())
		}
	}
}

func renderDeliveries(out io.Writer, deliveries []dto.DeliveryDTO) {
	sent := lo.CountBy(deliveries, func(d dto.DeliveryDTO) bool { return d.Status == "sent" })
	fmt.Fprintf(out, "\nDeliveries: %d of %d sent\n", sent, len(deliveries))
	for _, d := range deliveries {
		if d.Error != "" {
			fmt.Fprintf(out, "  %-28s %-12s %s (%s)\n", d.Recipient, d.Kind, d.Status, d.Error)
			continue
		}
		fmt.Fprintf(out, "  %-28s %-12s %s\n", d.Recipient, d.Kind, d.Status)
	}
}
