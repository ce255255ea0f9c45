package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted for ranking and composing.
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Notifier names.
const (
	NotifierLog   = "log"
	NotifierGmail = "gmail"
	NotifierQueue = "queue"
)

// Fallback strategies for reschedule proposals.
const (
	FallbackStrict = "strict"
	FallbackQuorum = "quorum"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv     string
	AppVersion string
	LogLevel   string
	LogFormat  string

	// Negotiation
	SenderName           string
	DefaultTimezone      string
	RequireConfirmation  bool
	FallbackStrategy     string
	FallbackMinAttendees int
	FallbackMinDuration  time.Duration

	// Ranking
	RankingProvider      string
	RankingTimeout       time.Duration
	RankingRatePerMinute int
	RankingCacheTTL      time.Duration

	// Message composing
	ComposerProvider string
	ComposerTimeout  time.Duration

	// LLM providers
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Redis
	RedisURL string

	// Meeting links
	ZoomAccountID     string
	ZoomClientID      string
	ZoomClientSecret  string
	ZoomUserID        string
	ZoomAPIBaseURL    string
	ZoomTokenURL      string
	MeetingTopic      string
	MeetingDuration   time.Duration
	DefaultMeetingURL string
	LinkTimeout       time.Duration

	// Notifications
	Notifier             string
	NotifyTimeout        time.Duration
	GmailTokenPath       string
	GmailCredentialsPath string
	GmailFrom            string
	RabbitMQURL          string
	RabbitMQExchange     string
	MailQueue            string
	DispatchConcurrency  int

	// CalDAV publishing
	CalDAVURL          string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendarPath string

	// Delivery journal
	JournalEnabled     bool
	JournalDatabaseURL string
	JournalRetention   time.Duration

	// Circuit breakers
	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration

	// MCP
	MCPAddr      string
	MCPAuthToken string

	// HTTP API
	APIAddr string
}

// Load loads configuration from environment variables. Explicit env files
// must exist and take precedence over .env; neither overrides the process
// environment.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		AppVersion: getEnv("APP_VERSION", "dev"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", ""),

		SenderName:           getEnv("SENDER_NAME", "Rendezvous"),
		DefaultTimezone:      getEnv("DEFAULT_TIMEZONE", "Asia/Kolkata"),
		RequireConfirmation:  getBoolEnv("REQUIRE_CONFIRMATION", false),
		FallbackStrategy:     getEnv("FALLBACK_STRATEGY", FallbackStrict),
		FallbackMinAttendees: getIntEnv("FALLBACK_MIN_ATTENDEES", 2),
		FallbackMinDuration:  getDurationEnv("FALLBACK_MIN_DURATION", 15*time.Minute),

		RankingProvider:      getEnv("RANKING_PROVIDER", ProviderNone),
		RankingTimeout:       getDurationEnv("RANKING_TIMEOUT", 10*time.Second),
		RankingRatePerMinute: getIntEnv("RANKING_RATE_PER_MINUTE", 30),
		RankingCacheTTL:      getDurationEnv("RANKING_CACHE_TTL", time.Hour),

		ComposerProvider: getEnv("COMPOSER_PROVIDER", ProviderNone),
		ComposerTimeout:  getDurationEnv("COMPOSER_TIMEOUT", 15*time.Second),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		RedisURL: getEnv("REDIS_URL", ""),

		ZoomAccountID:     getEnv("ZOOM_ACCOUNT_ID", ""),
		ZoomClientID:      getEnv("ZOOM_CLIENT_ID", ""),
		ZoomClientSecret:  getEnv("ZOOM_CLIENT_SECRET", ""),
		ZoomUserID:        getEnv("ZOOM_USER_ID", "me"),
		ZoomAPIBaseURL:    getEnv("ZOOM_API_BASE_URL", "https://api.zoom.us/v2"),
		ZoomTokenURL:      getEnv("ZOOM_TOKEN_URL", "https://zoom.us/oauth/token"),
		MeetingTopic:      getEnv("MEETING_TOPIC", "AI Scheduled Meeting"),
		MeetingDuration:   getDurationEnv("MEETING_DURATION", 30*time.Minute),
		DefaultMeetingURL: getEnv("DEFAULT_MEETING_URL", "https://zoom.us/"),
		LinkTimeout:       getDurationEnv("LINK_TIMEOUT", 10*time.Second),

		Notifier:             getEnv("NOTIFIER", NotifierLog),
		NotifyTimeout:        getDurationEnv("NOTIFY_TIMEOUT", 20*time.Second),
		GmailTokenPath:       getEnv("GMAIL_TOKEN_PATH", "token.json"),
		GmailCredentialsPath: getEnv("GMAIL_CREDENTIALS_PATH", "credentials.json"),
		GmailFrom:            getEnv("GMAIL_FROM", ""),
		RabbitMQURL:          getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange:     getEnv("RABBITMQ_EXCHANGE", "rendezvous.events"),
		MailQueue:            getEnv("MAIL_QUEUE", "rendezvous.mail"),
		DispatchConcurrency:  getIntEnv("DISPATCH_CONCURRENCY", 4),

		CalDAVURL:          getEnv("CALDAV_URL", ""),
		CalDAVUsername:     getEnv("CALDAV_USERNAME", ""),
		CalDAVPassword:     getEnv("CALDAV_PASSWORD", ""),
		CalDAVCalendarPath: getEnv("CALDAV_CALENDAR_PATH", ""),

		JournalEnabled:     getBoolEnv("JOURNAL_ENABLED", true),
		JournalDatabaseURL: getEnv("JOURNAL_DATABASE_URL", ""),
		JournalRetention:   getDurationEnv("JOURNAL_RETENTION", 30*24*time.Hour),

		BreakerFailureThreshold: getIntEnv("BREAKER_FAILURE_THRESHOLD", 3),
		BreakerOpenTimeout:      getDurationEnv("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		MCPAddr:      getEnv("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),

		APIAddr: getEnv("API_ADDR", "0.0.0.0:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and incomplete provider settings.
func (c *Config) Validate() error {
	var errs []error

	if !oneOf(c.FallbackStrategy, FallbackStrict, FallbackQuorum) {
		errs = append(errs, fmt.Errorf("FALLBACK_STRATEGY: unknown value %q", c.FallbackStrategy))
	}
	if !oneOf(c.RankingProvider, ProviderNone, ProviderGemini, ProviderOpenAI) {
		errs = append(errs, fmt.Errorf("RANKING_PROVIDER: unknown value %q", c.RankingProvider))
	}
	if !oneOf(c.ComposerProvider, ProviderNone, ProviderGemini, ProviderOpenAI) {
		errs = append(errs, fmt.Errorf("COMPOSER_PROVIDER: unknown value %q", c.ComposerProvider))
	}
	if !oneOf(c.Notifier, NotifierLog, NotifierGmail, NotifierQueue) {
		errs = append(errs, fmt.Errorf("NOTIFIER: unknown value %q", c.Notifier))
	}
	if c.LogFormat != "" && !oneOf(c.LogFormat, "text", "json") {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: unknown value %q", c.LogFormat))
	}

	if c.usesProvider(ProviderGemini) && c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required when gemini is selected"))
	}
	if c.usesProvider(ProviderOpenAI) && c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required when openai is selected"))
	}
	if c.Notifier == NotifierQueue && c.RabbitMQURL == "" {
		errs = append(errs, errors.New("RABBITMQ_URL is required when NOTIFIER=queue"))
	}
	if c.DispatchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("DISPATCH_CONCURRENCY must be at least 1, got %d", c.DispatchConcurrency))
	}
	if c.RankingTimeout <= 0 {
		errs = append(errs, errors.New("RANKING_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ZoomConfigured reports whether server-to-server Zoom credentials are present.
func (c *Config) ZoomConfigured() bool {
	return c.ZoomAccountID != "" && c.ZoomClientID != "" && c.ZoomClientSecret != ""
}

// CalDAVConfigured reports whether calendar publishing is enabled.
func (c *Config) CalDAVConfigured() bool {
	return c.CalDAVURL != ""
}

func (c *Config) usesProvider(name string) bool {
	return c.RankingProvider == name || c.ComposerProvider == name
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
