// Package meetinglink provides MeetingLinkProvisioner implementations.
package meetinglink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultZoomBaseURL  = "https://api.zoom.us/v2"
	defaultZoomTokenURL = "https://zoom.us/oauth/token"

	// DefaultTopic is the meeting topic used when none is configured.
	DefaultTopic = "AI Scheduled Meeting"
)

// ErrNotConfigured is returned when Zoom credentials are missing.
var ErrNotConfigured = errors.New("zoom credentials not configured")

// ZoomConfig configures the Zoom server-to-server OAuth app.
type ZoomConfig struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	UserID       string
	BaseURL      string
	TokenURL     string
	Topic        string

	// Duration is the booked meeting length. Zero uses the slot's length.
	Duration time.Duration
}

// ZoomProvisioner creates scheduled Zoom meetings.
type ZoomProvisioner struct {
	config ZoomConfig
	client *http.Client
	logger *slog.Logger
}

// NewZoomProvisioner creates a provisioner. Tokens are fetched with the
// account_credentials grant and reused until they expire.
func NewZoomProvisioner(config ZoomConfig, logger *slog.Logger) *ZoomProvisioner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultZoomBaseURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultZoomTokenURL
	}
	if config.UserID == "" {
		config.UserID = "me"
	}
	if config.Topic == "" {
		config.Topic = DefaultTopic
	}

	cc := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     config.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {config.AccountID},
		},
	}

	return &ZoomProvisioner{
		config: config,
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &oauth2.Transport{
				Source: cc.TokenSource(context.Background()),
				Base:   http.DefaultTransport,
			},
		},
		logger: logger,
	}
}

type zoomMeetingRequest struct {
	Topic     string              `json:"topic"`
	Type      int                 `json:"type"`
	StartTime string              `json:"start_time"`
	Duration  int                 `json:"duration"`
	Timezone  string              `json:"timezone"`
	Settings  zoomMeetingSettings `json:"settings"`
}

type zoomMeetingSettings struct {
	JoinBeforeHost bool `json:"join_before_host"`
	WaitingRoom    bool `json:"waiting_room"`
}

// Create implements services.MeetingLinkProvisioner.
func (p *ZoomProvisioner) Create(ctx context.Context, slot domain.CandidateSlot) (string, error) {
	if p.config.AccountID == "" || p.config.ClientID == "" || p.config.ClientSecret == "" {
		return "", ErrNotConfigured
	}

	duration := p.config.Duration
	if duration <= 0 {
		duration = slot.Duration()
	}
	body, err := json.Marshal(zoomMeetingRequest{
		Topic:     p.config.Topic,
		Type:      2,
		StartTime: slot.Start.UTC().Format("2006-01-02T15:04:05Z"),
		Duration:  int(duration / time.Minute),
		Timezone:  "UTC",
		Settings:  zoomMeetingSettings{JoinBeforeHost: true},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/users/%s/meetings", p.config.BaseURL, url.PathEscape(p.config.UserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}

	var created struct {
		ID      int64  `json:"id"`
		JoinURL string `json:"join_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode zoom response: %w", err)
	}
	if created.JoinURL == "" {
		return "", fmt.Errorf("zoom response has no join_url")
	}

	p.logger.InfoContext(ctx, "zoom meeting created", "meeting_id", created.ID, "start", slot.Start)
	return created.JoinURL, nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("zoom meeting creation failed: status=%d body=%s", resp.StatusCode, string(body))
}

// StaticProvisioner hands out a fixed link, e.g. a caller-supplied room.
type StaticProvisioner struct {
	URL string
}

// Create implements services.MeetingLinkProvisioner.
func (p StaticProvisioner) Create(context.Context, domain.CandidateSlot) (string, error) {
	if p.URL == "" {
		return "", fmt.Errorf("no static meeting link configured")
	}
	return p.URL, nil
}
