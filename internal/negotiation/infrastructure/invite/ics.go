// Package invite builds iCalendar invitations for confirmed slots.
package invite

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/google/uuid"
)

const (
	// DefaultSummary is the event title when none is configured.
	DefaultSummary = "Smart AI Meeting"

	// Filename is the attachment name used for invitations.
	Filename = "meeting.ics"

	// ContentType is the MIME type of a meeting request.
	ContentType = "text/calendar; method=REQUEST; charset=UTF-8"

	productID = "-//Rendezvous//Meeting Negotiation//EN"
)

// Event describes one invitation.
type Event struct {
	UID       string
	Summary   string
	Slot      domain.CandidateSlot
	Link      string
	Attendees []domain.Participant
	Stamp     time.Time
}

// Calendar builds an iCalendar object holding a single VEVENT.
// method is omitted when empty (CalDAV stores reject METHOD).
func Calendar(e Event, method string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	if method != "" {
		cal.Props.SetText(ical.PropMethod, method)
	}

	summary := e.Summary
	if summary == "" {
		summary = DefaultSummary
	}
	stamp := e.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, e.UID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, e.Slot.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, e.Slot.End.UTC())
	event.Props.SetText(ical.PropSummary, summary)
	if e.Link != "" {
		event.Props.SetText(ical.PropLocation, e.Link)
		event.Props.SetText(ical.PropURL, e.Link)
		event.Props.SetText(ical.PropDescription, fmt.Sprintf("Meeting Link: %s\n\nPlease join the meeting on time from any device.", e.Link))
	}
	for _, a := range e.Attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.Value = "mailto:" + a.ID()
		prop.Params.Set(ical.ParamCommonName, a.DisplayName())
		event.Props.Add(prop)
	}

	cal.Children = append(cal.Children, event.Component)
	return cal
}

// ICSEncoder renders confirmed slots as .ics attachments.
type ICSEncoder struct {
	summary string
	newUID  func() string
	now     func() time.Time
}

// NewICSEncoder creates an encoder. An empty summary uses DefaultSummary.
func NewICSEncoder(summary string) *ICSEncoder {
	return &ICSEncoder{
		summary: summary,
		newUID:  func() string { return uuid.New().String() },
		now:     time.Now,
	}
}

// Encode implements services.CalendarInviteEncoder.
func (e *ICSEncoder) Encode(slot domain.CandidateSlot, link string) (*services.Attachment, error) {
	if !slot.IsValid() {
		return nil, domain.ErrInvalidTimeRange
	}

	cal := Calendar(Event{
		UID:     e.newUID(),
		Summary: e.summary,
		Slot:    slot,
		Link:    link,
		Stamp:   e.now(),
	}, "REQUEST")

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode invite: %w", err)
	}
	return &services.Attachment{
		Filename:    Filename,
		ContentType: ContentType,
		Data:        buf.Bytes(),
	}, nil
}
