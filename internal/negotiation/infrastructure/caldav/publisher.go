// Package caldav publishes confirmed meetings to a CalDAV calendar
// (Apple Calendar, Fastmail, Nextcloud, ...).
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/infrastructure/invite"
	"github.com/google/uuid"
)

// Common CalDAV server URLs
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

// Publisher stores confirmed meetings as calendar objects.
type Publisher struct {
	baseURL      string
	username     string
	password     string
	calendarPath string
	summary      string
	httpClient   *http.Client
	newUID       func() string
	logger       *slog.Logger
}

// NewPublisher creates a CalDAV publisher.
func NewPublisher(baseURL, username, password string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		newUID:     func() string { return uuid.New().String() },
		logger:     logger,
	}
}

// WithCalendarPath pins the calendar collection instead of discovering it.
func (p *Publisher) WithCalendarPath(path string) *Publisher {
	if path != "" && !strings.HasSuffix(path, "/") {
		path += "/"
	}
	p.calendarPath = path
	return p
}

// WithSummary sets the event title.
func (p *Publisher) WithSummary(summary string) *Publisher {
	p.summary = summary
	return p
}

// Publish implements services.CalendarPublisher.
func (p *Publisher) Publish(ctx context.Context, slot domain.CandidateSlot, link string, attendees []domain.Participant) error {
	client, err := p.client()
	if err != nil {
		return err
	}

	calPath, err := p.findCalendarPath(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to find calendar: %w", err)
	}

	uid := p.newUID()
	cal := invite.Calendar(invite.Event{
		UID:       uid,
		Summary:   p.summary,
		Slot:      slot,
		Link:      link,
		Attendees: attendees,
	}, "")

	eventPath := fmt.Sprintf("%s%s.ics", calPath, uid)
	if _, err := client.PutCalendarObject(ctx, eventPath, cal); err != nil {
		return fmt.Errorf("failed to store calendar object: %w", err)
	}

	p.logger.InfoContext(ctx, "meeting published to calendar", "event_path", eventPath)
	return nil
}

func (p *Publisher) client() (*caldav.Client, error) {
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(p.httpClient, p.username, p.password), p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return client, nil
}

func (p *Publisher) findCalendarPath(ctx context.Context, client *caldav.Client) (string, error) {
	if p.calendarPath != "" {
		return p.calendarPath, nil
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}
	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}

	path := cals[0].Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path, nil
}
