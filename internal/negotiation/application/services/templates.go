package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
)

// ReferenceZone is shown next to UTC in every confirmation.
const ReferenceZone = "Asia/Kolkata"

const clockLayout = "03:04 PM"

// Subject returns the fixed subject line for a message kind.
func Subject(kind MessageKind, sender string) string {
	if kind == MessageReschedule {
		return "Meeting Reschedule Request – From " + sender
	}
	return "Meeting Confirmation – Scheduled by " + sender
}

// CustomMessageBody wraps a caller-supplied message for one recipient.
func CustomMessageBody(name, message, link string) string {
	return fmt.Sprintf("Dear %s,\n\n%s\n\n🔗 Meeting Link: %s", name, message, link)
}

// RenderTemplate produces the fixed-text body used whenever a composer is
// absent or fails. It never fails itself.
func RenderTemplate(req MessageRequest) string {
	if req.Kind == MessageReschedule {
		return renderReschedule(req)
	}
	return renderConfirmation(req)
}

func renderConfirmation(req MessageRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", req.Recipient.DisplayName())
	b.WriteString("I hope you're doing well.\n\n")
	b.WriteString("We've successfully scheduled a meeting based on mutual availability:\n\n")

	if req.Slot != nil {
		start, end := req.Slot.Start.UTC(), req.Slot.End.UTC()
		fmt.Fprintf(&b, "📅 Date: %s\n\n", start.Format("2006-01-02"))
		b.WriteString("🕒 Meeting Time:\n")
		fmt.Fprintf(&b, "- UTC: %s to %s\n", start.Format(clockLayout), end.Format(clockLayout))
		if ist, err := domain.LoadLocation(ReferenceZone); err == nil {
			fmt.Fprintf(&b, "- IST (India): %s to %s\n", start.In(ist).Format(clockLayout), end.In(ist).Format(clockLayout))
		}
		local, label := localZone(req.Recipient.Timezone())
		fmt.Fprintf(&b, "- Your Time (%s): %s to %s\n\n", label, start.In(local).Format(clockLayout), end.In(local).Format(clockLayout))
	}

	fmt.Fprintf(&b, "🔗 Meeting Link: %s\n", req.MeetingLink)
	b.WriteString("📌 Calendar Invite: Please find the attached .ics file to add this meeting to your calendar.\n\n")
	b.WriteString("Looking forward to your presence.\n\n")
	fmt.Fprintf(&b, "Best regards,\n%s\n", req.SenderName)
	return b.String()
}

func renderReschedule(req MessageRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", req.Recipient.DisplayName())
	b.WriteString("Unfortunately, no mutual meeting slot was found.\n\n")
	if len(req.FallbackSlots) > 0 {
		b.WriteString("The following alternatives may work:\n")
		for _, s := range req.FallbackSlots {
			fmt.Fprintf(&b, "- %s\n", FormatSlotUTC(s))
		}
		b.WriteString("\n")
	}
	b.WriteString("Kindly review your availability and suggest alternate time slots.\n\n")
	fmt.Fprintf(&b, "Regards,\n%s\n", req.SenderName)
	return b.String()
}

// FormatSlotUTC renders a slot as "2006-01-02 15:04 to 15:04 UTC".
func FormatSlotUTC(s domain.CandidateSlot) string {
	start, end := s.Start.UTC(), s.End.UTC()
	endLayout := "15:04"
	if start.YearDay() != end.YearDay() || start.Year() != end.Year() {
		endLayout = "2006-01-02 15:04"
	}
	return fmt.Sprintf("%s to %s UTC", start.Format("2006-01-02 15:04"), end.Format(endLayout))
}

func localZone(name string) (*time.Location, string) {
	loc, err := domain.LoadLocation(name)
	if err != nil {
		return time.UTC, "UTC"
	}
	return loc, name
}
