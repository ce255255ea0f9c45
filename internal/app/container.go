package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/commands"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/infrastructure/caldav"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/infrastructure/composer"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/infrastructure/invite"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/infrastructure/journal"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/infrastructure/meetinglink"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/infrastructure/notify"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/infrastructure/ranking"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/llm"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/resilience"
	"github.com/felixgeelhaar/rendezvous/pkg/config"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry
	Guard   *resilience.Guard

	// Infrastructure
	RedisClient    *redis.Client
	EventPublisher eventbus.Publisher
	InProcessBus   *eventbus.InProcessBus
	JournalConn    database.Connection
	Journal        *journal.SQLJournal

	// Negotiation
	Ranker      services.SlotRankingService
	Selector    *services.SlotSelector
	Coordinator *services.Coordinator
	Notifier    services.Notifier
	Dispatcher  *services.Dispatcher

	// Command handlers
	NegotiateHandler *commands.NegotiateHandler
	FinalizeHandler  *commands.FinalizeHandler

	generators map[string]llm.Generator
	closers    []io.Closer
}

// NewContainer creates and wires all dependencies. Optional collaborators
// that cannot be reached are skipped in development and fatal elsewhere.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    observability.NewInMemoryMetrics(),
		Health:     observability.NewHealthRegistry(),
		generators: make(map[string]llm.Generator),
	}

	breakers := resilience.DefaultConfig()
	if cfg.BreakerFailureThreshold > 0 {
		breakers.FailureThreshold = uint32(cfg.BreakerFailureThreshold)
	}
	if cfg.BreakerOpenTimeout > 0 {
		breakers.Timeout = cfg.BreakerOpenTimeout
	}
	c.Guard = resilience.NewGuard(breakers, logger)
	c.Health.Register("breakers", c.Guard.Checker(
		services.RankingService,
		services.ComposerService,
		services.MeetingLinkService,
		services.CalendarService,
	))

	steps := []func(context.Context) error{
		c.connectRedis,
		c.connectEventBus,
		c.openJournal,
		c.buildNegotiation,
		c.buildDispatcher,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}

	c.NegotiateHandler = commands.NewNegotiateHandler(c.Coordinator, c.Dispatcher, cfg.DefaultTimezone, logger)
	c.FinalizeHandler = commands.NewFinalizeHandler(c.Coordinator, c.Dispatcher, cfg.DefaultTimezone, logger)

	return c, nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		return c.optional("invalid Redis URL, ranking cache disabled", fmt.Errorf("failed to parse Redis URL: %w", err))
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return c.optional("Redis not available, ranking cache disabled", fmt.Errorf("failed to connect to Redis: %w", err))
	}

	c.RedisClient = client
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) connectEventBus(_ context.Context) error {
	if c.Config.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(eventbus.RabbitMQConfig{
			URL:      c.Config.RabbitMQURL,
			Exchange: c.Config.RabbitMQExchange,
			Logger:   c.Logger,
		})
		if err == nil {
			c.EventPublisher = publisher
			c.Health.Register("rabbitmq", observability.PingChecker("rabbitmq", observability.HealthStatusDegraded, publisher.Ping))
			return nil
		}
		if c.Config.Notifier == config.NotifierQueue {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		if err := c.optional("RabbitMQ not available, using in-process bus", fmt.Errorf("failed to connect to RabbitMQ: %w", err)); err != nil {
			return err
		}
	}

	c.InProcessBus = eventbus.NewInProcessBus(c.Logger)
	c.InProcessBus.RegisterConsumer(eventbus.NewLogConsumer(c.Logger))
	c.EventPublisher = c.InProcessBus
	return nil
}

func (c *Container) openJournal(ctx context.Context) error {
	if !c.Config.JournalEnabled {
		return nil
	}

	conn, err := database.Open(ctx, database.Config{URL: c.Config.JournalDatabaseURL})
	if err != nil {
		return c.optional("delivery journal unavailable", fmt.Errorf("failed to open delivery journal: %w", err))
	}
	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return c.optional("delivery journal migrations failed", err)
	}

	c.JournalConn = conn
	c.Journal = journal.NewSQLJournal(conn)
	c.Health.Register("journal", observability.PingChecker("journal", observability.HealthStatusDegraded, conn.Ping))

	if c.Config.JournalRetention > 0 {
		removed, err := c.Journal.Prune(ctx, time.Now().Add(-c.Config.JournalRetention))
		if err != nil {
			c.Logger.Warn("failed to prune delivery journal", "error", err)
		} else if removed > 0 {
			c.Logger.Info("pruned delivery journal", "removed", removed)
		}
	}
	c.Logger.Info("delivery journal ready", "driver", conn.Driver())
	return nil
}

func (c *Container) buildNegotiation(ctx context.Context) error {
	ranker, err := c.buildRanker(ctx)
	if err != nil {
		return err
	}
	c.Ranker = ranker

	c.Selector = services.NewSlotSelector(ranker, c.Guard, c.Config.RankingTimeout, c.Logger).
		WithMetrics(c.Metrics)

	var fallback domain.FallbackSearch = domain.StrictFallback{}
	if c.Config.FallbackStrategy == config.FallbackQuorum {
		fallback = domain.NewQuorumFallback(c.Config.FallbackMinAttendees, c.Config.FallbackMinDuration)
	}

	c.Coordinator = services.NewCoordinator(c.Selector, fallback, c.EventPublisher, c.Logger).
		WithMetrics(c.Metrics)
	return nil
}

// buildRanker layers cache over rate limit over the model, so cache hits do
// not spend rate budget.
func (c *Container) buildRanker(ctx context.Context) (services.SlotRankingService, error) {
	if c.Config.RankingProvider == config.ProviderNone {
		return ranking.FirstRanker{}, nil
	}

	gen, err := c.generator(ctx, c.Config.RankingProvider)
	if err != nil {
		return nil, err
	}

	var ranker services.SlotRankingService = ranking.NewLLMRanker(gen, c.Logger)
	ranker = ranking.NewRateLimitedRanker(ranker, c.Config.RankingRatePerMinute)
	if c.RedisClient != nil {
		ranker = ranking.NewCachedRanker(ranker, c.RedisClient, c.Config.RankingCacheTTL, c.Logger)
	}
	return ranker, nil
}

func (c *Container) buildDispatcher(ctx context.Context) error {
	notifier, err := c.buildNotifier(ctx)
	if err != nil {
		return err
	}
	c.Notifier = notifier

	deps := services.DispatcherDeps{
		Invites:  invite.NewICSEncoder(c.Config.MeetingTopic),
		Notifier: notifier,
		Guard:    c.Guard,
		Metrics:  c.Metrics,
	}
	if c.Journal != nil {
		deps.Journal = c.Journal
	}

	if c.Config.ComposerProvider != config.ProviderNone {
		gen, err := c.generator(ctx, c.Config.ComposerProvider)
		if err != nil {
			return err
		}
		deps.Composer = composer.NewLLMComposer(gen)
	}

	if c.Config.ZoomConfigured() {
		deps.Links = meetinglink.NewZoomProvisioner(meetinglink.ZoomConfig{
			AccountID:    c.Config.ZoomAccountID,
			ClientID:     c.Config.ZoomClientID,
			ClientSecret: c.Config.ZoomClientSecret,
			UserID:       c.Config.ZoomUserID,
			BaseURL:      c.Config.ZoomAPIBaseURL,
			TokenURL:     c.Config.ZoomTokenURL,
			Topic:        c.Config.MeetingTopic,
			Duration:     c.Config.MeetingDuration,
		}, c.Logger)
	} else if c.Config.DefaultMeetingURL != "" {
		deps.Links = meetinglink.StaticProvisioner{URL: c.Config.DefaultMeetingURL}
	}

	if c.Config.CalDAVConfigured() {
		deps.Calendar = caldav.NewPublisher(c.Config.CalDAVURL, c.Config.CalDAVUsername, c.Config.CalDAVPassword, c.Logger).
			WithCalendarPath(c.Config.CalDAVCalendarPath).
			WithSummary(c.Config.MeetingTopic)
	}

	c.Dispatcher = services.NewDispatcher(services.DispatcherConfig{
		SenderName:        c.Config.SenderName,
		DefaultMeetingURL: c.Config.DefaultMeetingURL,
		Concurrency:       c.Config.DispatchConcurrency,
		ComposeTimeout:    c.Config.ComposerTimeout,
		LinkTimeout:       c.Config.LinkTimeout,
		NotifyTimeout:     c.Config.NotifyTimeout,
	}, deps, c.Logger)
	return nil
}

func (c *Container) buildNotifier(ctx context.Context) (services.Notifier, error) {
	switch c.Config.Notifier {
	case config.NotifierQueue:
		return notify.NewQueueNotifier(c.EventPublisher), nil
	case config.NotifierGmail:
		return c.MailSender(ctx)
	default:
		return notify.NewLogNotifier(nil, c.Logger), nil
	}
}

// MailSender returns the notifier that actually delivers mail: Gmail when a
// token is available, otherwise the log notifier in development.
func (c *Container) MailSender(ctx context.Context) (services.Notifier, error) {
	gmail, err := notify.NewGmailNotifier(ctx, notify.GmailConfig{
		TokenPath:       c.Config.GmailTokenPath,
		CredentialsPath: c.Config.GmailCredentialsPath,
		From:            c.Config.GmailFrom,
	}, c.Logger)
	if err != nil {
		if optErr := c.optional("Gmail not configured, logging mail instead", err); optErr != nil {
			return nil, optErr
		}
		return notify.NewLogNotifier(nil, c.Logger), nil
	}
	return gmail, nil
}

// NewMailConsumer connects a queue consumer with the mail worker registered.
func (c *Container) NewMailConsumer(ctx context.Context) (eventbus.Consumer, error) {
	if c.Config.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for the mail worker")
	}
	sender, err := c.MailSender(ctx)
	if err != nil {
		return nil, err
	}

	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConfig{
		URL:      c.Config.RabbitMQURL,
		Exchange: c.Config.RabbitMQExchange,
		Logger:   c.Logger,
	}, c.Config.MailQueue)
	if err != nil {
		return nil, err
	}
	consumer.RegisterConsumer(notify.NewMailWorker(sender, c.Logger))
	return consumer, nil
}

// generator returns one shared client per provider.
func (c *Container) generator(ctx context.Context, provider string) (llm.Generator, error) {
	if gen, ok := c.generators[provider]; ok {
		return gen, nil
	}

	var gen llm.Generator
	switch provider {
	case config.ProviderGemini:
		gemini, err := llm.NewGeminiGenerator(ctx, c.Config.GeminiAPIKey, c.Config.GeminiModel)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, gemini)
		gen = gemini
	case config.ProviderOpenAI:
		openai, err := llm.NewOpenAIGenerator(llm.OpenAIConfig{
			APIKey:  c.Config.OpenAIAPIKey,
			BaseURL: c.Config.OpenAIBaseURL,
			Model:   c.Config.OpenAIModel,
		})
		if err != nil {
			return nil, err
		}
		gen = openai
	default:
		return nil, fmt.Errorf("unknown language model provider %q", provider)
	}

	c.generators[provider] = gen
	return gen, nil
}

// optional logs err and continues in development; elsewhere it is fatal.
func (c *Container) optional(msg string, err error) error {
	if c.Config.IsDevelopment() {
		c.Logger.Warn(msg, "error", err)
		return nil
	}
	return err
}

// Close releases all connections held by the container.
func (c *Container) Close() {
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.Logger.Warn("error closing client", "error", err)
		}
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.JournalConn != nil {
		if err := c.JournalConn.Close(); err != nil {
			c.Logger.Warn("error closing journal connection", "error", err)
		} else {
			c.Logger.Info("journal connection closed", "driver", c.JournalConn.Driver())
		}
	}
}
