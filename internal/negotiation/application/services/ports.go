package services

import (
	"context"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/google/uuid"
)

// SlotRankingService picks the best of several candidate slots.
// It returns a 1-based index into candidates.
type SlotRankingService interface {
	Rank(ctx context.Context, candidates []domain.CandidateSlot) (int, error)
}

// MessageKind distinguishes the two mails a negotiation sends.
type MessageKind string

const (
	MessageConfirmation MessageKind = "confirmation"
	MessageReschedule   MessageKind = "reschedule"
)

// MessageRequest carries everything a composer may mention.
type MessageRequest struct {
	Kind          MessageKind
	Recipient     domain.Participant
	Slot          *domain.CandidateSlot
	FallbackSlots []domain.CandidateSlot
	MeetingLink   string
	SenderName    string
}

// MessageComposer phrases the body of a notification.
type MessageComposer interface {
	Compose(ctx context.Context, req MessageRequest) (string, error)
}

// MeetingLinkProvisioner creates a video-conference link for a slot.
type MeetingLinkProvisioner interface {
	Create(ctx context.Context, slot domain.CandidateSlot) (string, error)
}

// Attachment is an opaque file attached to a notification.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CalendarInviteEncoder renders a slot as a calendar invite.
type CalendarInviteEncoder interface {
	Encode(slot domain.CandidateSlot, link string) (*Attachment, error)
}

// Message is one outbound notification to one recipient.
type Message struct {
	NegotiationID uuid.UUID
	Kind          MessageKind
	To            string
	ToName        string
	Subject       string
	Body          string
	Attachment    *Attachment
}

// Notifier delivers a single message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// CalendarPublisher stores a confirmed meeting in a shared calendar.
type CalendarPublisher interface {
	Publish(ctx context.Context, slot domain.CandidateSlot, link string, attendees []domain.Participant) error
}

// DeliveryStatus is the result of one notification attempt.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryRecord is what the journal keeps about a notification attempt.
// It never contains availability or slot data.
type DeliveryRecord struct {
	NegotiationID uuid.UUID
	Recipient     string
	Kind          MessageKind
	Status        DeliveryStatus
	Error         string
	AttemptedAt   time.Time
}

// DeliveryJournal records notification attempts.
type DeliveryJournal interface {
	Record(ctx context.Context, record DeliveryRecord) error
}
