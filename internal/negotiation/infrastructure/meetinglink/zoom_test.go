package meetinglink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSlot() domain.CandidateSlot {
	start := time.Date(2025, time.July, 7, 14, 0, 0, 0, time.UTC)
	return domain.CandidateSlot{Start: start, End: start.Add(45 * time.Minute)}
}

func zoomServer(t *testing.T, meetingStatus int, meetingBody string, tokenCalls *int32, payload *zoomMeetingRequest) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "account_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "acct", r.PostForm.Get("account_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v2/users/me/meetings", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if payload != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(payload))
		}
		w.WriteHeader(meetingStatus)
		_, _ = w.Write([]byte(meetingBody))
	})
	return httptest.NewServer(mux)
}

func newTestProvisioner(server *httptest.Server, duration time.Duration) *ZoomProvisioner {
	return NewZoomProvisioner(ZoomConfig{
		AccountID:    "acct",
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      server.URL + "/v2",
		TokenURL:     server.URL + "/oauth/token",
		Duration:     duration,
	}, nil)
}

func TestZoomProvisioner_Create(t *testing.T) {
	var tokenCalls int32
	var payload zoomMeetingRequest
	server := zoomServer(t, http.StatusCreated, `{"id":987,"join_url":"https://zoom.us/j/987"}`, &tokenCalls, &payload)
	defer server.Close()

	link, err := newTestProvisioner(server, 30*time.Minute).Create(context.Background(), testSlot())

	require.NoError(t, err)
	assert.Equal(t, "https://zoom.us/j/987", link)
	assert.Equal(t, DefaultTopic, payload.Topic)
	assert.Equal(t, 2, payload.Type)
	assert.Equal(t, "2025-07-07T14:00:00Z", payload.StartTime)
	assert.Equal(t, 30, payload.Duration)
	assert.Equal(t, "UTC", payload.Timezone)
	assert.True(t, payload.Settings.JoinBeforeHost)
	assert.False(t, payload.Settings.WaitingRoom)
}

func TestZoomProvisioner_ReusesToken(t *testing.T) {
	var tokenCalls int32
	server := zoomServer(t, http.StatusCreated, `{"join_url":"https://zoom.us/j/1"}`, &tokenCalls, nil)
	defer server.Close()
	p := newTestProvisioner(server, 0)

	for i := 0; i < 3; i++ {
		_, err := p.Create(context.Background(), testSlot())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestZoomProvisioner_SlotDurationWhenUnset(t *testing.T) {
	var tokenCalls int32
	var payload zoomMeetingRequest
	server := zoomServer(t, http.StatusCreated, `{"join_url":"https://zoom.us/j/1"}`, &tokenCalls, &payload)
	defer server.Close()

	_, err := newTestProvisioner(server, 0).Create(context.Background(), testSlot())

	require.NoError(t, err)
	assert.Equal(t, 45, payload.Duration)
}

func TestZoomProvisioner_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusBadRequest, `{"code":300,"message":"Invalid start_time"}`},
		{"missing join url", http.StatusCreated, `{"id":1}`},
		{"bad json", http.StatusCreated, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokenCalls int32
			server := zoomServer(t, tt.status, tt.body, &tokenCalls, nil)
			defer server.Close()

			_, err := newTestProvisioner(server, 0).Create(context.Background(), testSlot())

			assert.Error(t, err)
		})
	}
}

func TestZoomProvisioner_NotConfigured(t *testing.T) {
	_, err := NewZoomProvisioner(ZoomConfig{}, nil).Create(context.Background(), testSlot())

	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStaticProvisioner(t *testing.T) {
	link, err := StaticProvisioner{URL: "https://meet.example.com/room"}.Create(context.Background(), testSlot())
	require.NoError(t, err)
	assert.Equal(t, "https://meet.example.com/room", link)

	_, err = StaticProvisioner{}.Create(context.Background(), testSlot())
	assert.Error(t, err)
}
