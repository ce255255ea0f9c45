package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/mail"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultGmailBaseURL = "https://gmail.googleapis.com/gmail/v1"

// GmailSendScope is the only scope the notifier needs.
const GmailSendScope = "https://www.googleapis.com/auth/gmail.send"

// ErrMissingToken is returned when no authorized token file exists.
var ErrMissingToken = errors.New("gmail token file not found; authorize the account first")

// GmailConfig locates the OAuth material for the sending account.
type GmailConfig struct {
	TokenPath       string
	CredentialsPath string
	From            string
	BaseURL         string
}

// GmailNotifier sends messages through the Gmail REST API.
type GmailNotifier struct {
	client  *http.Client
	baseURL string
	from    string
	logger  *slog.Logger
}

// NewGmailNotifier loads the stored token and client credentials and returns
// a notifier whose token is refreshed and written back on expiry.
func NewGmailNotifier(ctx context.Context, cfg GmailConfig, logger *slog.Logger) (*GmailNotifier, error) {
	stored, err := loadToken(cfg.TokenPath)
	if err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID:     stored.ClientID,
		ClientSecret: stored.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{GmailSendScope},
	}
	if stored.TokenURI != "" {
		conf.Endpoint.TokenURL = stored.TokenURI
	}
	if conf.ClientID == "" && cfg.CredentialsPath != "" {
		raw, err := os.ReadFile(cfg.CredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read gmail credentials: %w", err)
		}
		fromFile, err := google.ConfigFromJSON(raw, GmailSendScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse gmail credentials: %w", err)
		}
		conf = fromFile
	}

	source := &persistingTokenSource{
		base:   conf.TokenSource(ctx, stored.oauthToken()),
		path:   cfg.TokenPath,
		last:   stored.AccessToken(),
		stored: stored,
		logger: logger,
	}
	return NewGmailNotifierWithTokenSource(oauth2.ReuseTokenSource(nil, source), cfg.BaseURL, cfg.From, logger), nil
}

// NewGmailNotifierWithTokenSource creates a notifier from an existing token source.
func NewGmailNotifierWithTokenSource(source oauth2.TokenSource, baseURL, from string, logger *slog.Logger) *GmailNotifier {
	if baseURL == "" {
		baseURL = defaultGmailBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GmailNotifier{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &oauthTransport{
				base:   http.DefaultTransport,
				source: source,
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		from:    from,
		logger:  logger,
	}
}

// Send delivers one message from the authorized account.
func (n *GmailNotifier) Send(ctx context.Context, msg services.Message) error {
	raw, err := BuildMIME(n.from, msg)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{
		"raw": base64.URLEncoding.EncodeToString(raw),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/users/me/messages/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gmail send failed: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var sent struct {
		ID string `json:"id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&sent)
	n.logger.Info("mail sent", "to", msg.To, "kind", msg.Kind, "message_id", sent.ID)
	return nil
}

// BuildMIME renders msg as a multipart/mixed message. A calendar attachment
// is included twice: inline so mail clients render the invite, and as a
// downloadable file.
func BuildMIME(from string, msg services.Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	to := msg.To
	if msg.ToName != "" {
		to = (&mail.Address{Name: msg.ToName, Address: msg.To}).String()
	}

	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	if from != "" {
		fmt.Fprintf(&buf, "From: %s\r\n", from)
	}
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(text, msg.Body); err != nil {
		return nil, err
	}

	if att := msg.Attachment; att != nil && len(att.Data) > 0 {
		inline, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":        {att.ContentType},
			"Content-Disposition": {fmt.Sprintf("inline; filename=%q", att.Filename)},
		})
		if err != nil {
			return nil, err
		}
		if _, err := inline.Write(att.Data); err != nil {
			return nil, err
		}

		file, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("application/octet-stream; name=%q", att.Filename)},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.Filename)},
		})
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(file, wrapBase64(att.Data)); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func wrapBase64(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var sb strings.Builder
	for len(encoded) > 76 {
		sb.WriteString(encoded[:76])
		sb.WriteString("\r\n")
		encoded = encoded[76:]
	}
	sb.WriteString(encoded)
	return sb.String()
}

// storedToken accepts both the authorized-user file written by Google's
// client libraries and a serialized oauth2.Token.
type storedToken struct {
	Token        string    `json:"token,omitempty"`
	Access       string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type,omitempty"`
	TokenURI     string    `json:"token_uri,omitempty"`
	ClientID     string    `json:"client_id,omitempty"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

func (t *storedToken) AccessToken() string {
	if t.Access != "" {
		return t.Access
	}
	return t.Token
}

func (t *storedToken) oauthToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken(),
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}

func loadToken(path string) (*storedToken, error) {
	if path == "" {
		return nil, ErrMissingToken
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMissingToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read gmail token: %w", err)
	}
	var token storedToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("failed to parse gmail token: %w", err)
	}
	if token.AccessToken() == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("gmail token file %s holds no token", path)
	}
	return &token, nil
}

// persistingTokenSource writes refreshed tokens back to disk.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	path   string
	mu     sync.Mutex
	last   string
	stored *storedToken
	logger *slog.Logger
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken == s.last || s.path == "" {
		return token, nil
	}
	s.last = token.AccessToken

	updated := *s.stored
	updated.Token = token.AccessToken
	updated.Access = ""
	updated.Expiry = token.Expiry
	if token.RefreshToken != "" {
		updated.RefreshToken = token.RefreshToken
	}
	if raw, err := json.MarshalIndent(updated, "", "  "); err == nil {
		if err := os.WriteFile(s.path, raw, 0o600); err != nil && s.logger != nil {
			s.logger.Warn("failed to persist refreshed gmail token", "error", err)
		}
	}
	return token, nil
}

type oauthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return t.base.RoundTrip(req)
}
