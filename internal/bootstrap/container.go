package bootstrap

import (
	"context"
	"fmt"

	"care-advisor-be/internal/config"
	"care-advisor-be/internal/controller"
	"care-advisor-be/internal/handler"
	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/internal/repository"
	"care-advisor-be/internal/repository/contract"
	"care-advisor-be/internal/repository/implementation"
	"care-advisor-be/internal/repository/memory"
	"care-advisor-be/internal/service"
	"care-advisor-be/internal/websocket"
	"care-advisor-be/pkg/advisor"
	"care-advisor-be/pkg/llm/factory"
	pktNats "care-advisor-be/pkg/nats"
	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/reference"
	"care-advisor-be/pkg/stage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	CaseController   controller.IReferenceController
	ScriptController controller.IReferenceController
	AiController     controller.IAiController

	// Reference library
	CaseIndex   *reference.Index
	ScriptIndex *reference.Index

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	BroadcastService *service.BroadcastService
	SessionEvents    *service.SessionEventService

	// WebSockets & Sessions
	SessionHandler *handler.SessionHandler
	WebSocketHub   *websocket.Hub

	closers []func()
}

// NewContainer wires the application. db may be nil, in which case the
// reference library and snapshots live in memory.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	wsLogger := logger.NewIsolatedLogger(cfg.App.SessionLogFilePath)
	c := &Container{Logger: sysLogger}

	// 2. Repositories
	var referenceRepo contract.ReferenceRepository
	var snapshotRepo contract.ProfileSnapshotRepository
	if db != nil {
		referenceRepo = implementation.NewReferenceRepository(db)
		snapshotRepo = implementation.NewProfileSnapshotRepository(db)
	} else {
		sysLogger.Warn("Container", "No database configured, using in-memory repositories with seed data", nil)
		referenceRepo = memory.NewReferenceRepository(memory.SeedRecords()...)
		snapshotRepo = memory.NewProfileSnapshotRepository()
	}

	// 3. Reference library
	c.CaseIndex = reference.NewIndex(reference.KindCase, reference.CaseScheme, repository.NewKindStore(referenceRepo, reference.KindCase))
	c.ScriptIndex = reference.NewIndex(reference.KindScript, reference.ScriptScheme, repository.NewKindStore(referenceRepo, reference.KindScript))
	for _, idx := range []*reference.Index{c.CaseIndex, c.ScriptIndex} {
		if err := idx.Load(ctx); err != nil {
			return nil, err
		}
	}
	sysLogger.Info("Container", "Reference library loaded", map[string]interface{}{
		"cases":   c.CaseIndex.Len(),
		"scripts": c.ScriptIndex.Len(),
	})

	// 4. LLM collaborators
	llmProvider, err := factory.NewLLMProvider(factory.Settings{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		OpenAIAPIKey:  cfg.Ai.OpenAIAPIKey,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	sysLogger.Info("Container", "Using LLM provider", map[string]interface{}{"provider": cfg.Ai.LLMProvider, "model": cfg.Ai.LLMModel})

	analyzer := advisor.NewAnalyzer(llmProvider, sysLogger)
	responder := advisor.NewResponder(llmProvider, cfg.Assistant.WakeWord)

	// 5. Infrastructure
	// NATS (optional)
	var eventPub service.EventPublisher
	var eventSub service.EventSubscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Container", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			eventPub = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Container", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
		} else {
			eventSub = natsSub
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// Redis (optional)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("Container", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			sysLogger.Warn("Container", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// In-process queue for profile snapshots
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 6. Services
	c.SessionEvents = service.NewSessionEventService(eventPub, sysLogger)
	snapshotService := service.NewProfileSnapshotService(
		service.NewPublisherService(cfg.App.ProfileSnapshotTopic, pubSub),
		snapshotRepo,
		sysLogger,
	)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.ProfileSnapshotTopic, snapshotRepo, sysLogger)

	// 7. Sessions
	profiles := profile.NewStore(cfg.Assistant.SessionTimeout, cfg.Assistant.ContextWindow)
	machine := stage.NewMachine(
		analyzer,
		responder,
		c.CaseIndex,
		profiles,
		stage.Config{
			WakeWord:    cfg.Assistant.WakeWord,
			CallTimeout: cfg.Assistant.CallTimeout,
			TopK:        cfg.Assistant.MatchTopK,
			Mode:        reference.ParseMode(cfg.Assistant.FallbackMode),
		},
		wsLogger,
		stage.WithScripts(c.ScriptIndex),
		stage.WithListener(c.SessionEvents),
	)
	c.WebSocketHub = websocket.NewHub(machine, profiles, rdb, wsLogger, c.SessionEvents, snapshotService)
	c.BroadcastService = service.NewBroadcastService(eventPub, eventSub, c.WebSocketHub, wsLogger)

	// 8. Controllers
	c.CaseController = controller.NewReferenceController(service.NewReferenceService(c.CaseIndex, cfg.Assistant.MatchTopK), "/cases", cfg.App.JwtSecret)
	c.ScriptController = controller.NewReferenceController(service.NewReferenceService(c.ScriptIndex, cfg.Assistant.MatchTopK), "/scripts", cfg.App.JwtSecret)
	c.AiController = controller.NewAiController(service.NewAiService(analyzer, responder, cfg.Assistant.CallTimeout))
	c.SessionHandler = handler.NewSessionHandler(c.WebSocketHub, profiles, snapshotService, c.BroadcastService, cfg.App.JwtSecret, wsLogger)

	return c, nil
}

// Close releases infrastructure connections in reverse order.
func (c *Container) Close() {
	c.SessionEvents.Wait()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
