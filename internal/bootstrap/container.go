package bootstrap

import (
	"context"
	"log"

	"clinical-assist-be/internal/config"
	"clinical-assist-be/internal/controller"
	"clinical-assist-be/internal/pkg/logger"
	"clinical-assist-be/internal/pkg/mailer"
	"clinical-assist-be/internal/pkg/serverutils"
	"clinical-assist-be/internal/repository/implementation"
	"clinical-assist-be/internal/repository/unitofwork"
	"clinical-assist-be/internal/service"
	"clinical-assist-be/pkg/audit"
	"clinical-assist-be/pkg/authz"
	"clinical-assist-be/pkg/embedding"
	"clinical-assist-be/pkg/encryption"
	"clinical-assist-be/pkg/llm/factory"
	"clinical-assist-be/pkg/metrics"
	"clinical-assist-be/pkg/rag/assemble"
	"clinical-assist-be/pkg/rag/synthesize"
	"clinical-assist-be/pkg/retrieval"
	"clinical-assist-be/pkg/retry"

	pktNats "clinical-assist-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const alertTopic = "security.alerts"

type Container struct {
	// Controllers
	QueryController  controller.IQueryController
	AuditController  controller.IAuditController
	HealthController controller.IHealthController

	// Middleware
	JwtMiddleware fiber.Handler

	// Background Services (Exposed for main.go to run)
	AlertConsumerService service.IAlertConsumerService

	// Shared facades
	Logger       logger.ILogger
	Metrics      *metrics.Metrics
	Registry     *prometheus.Registry
	ErrorHandler fiber.ErrorHandler
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// 2. Encryption strategy, fixed at startup. Nothing downstream branches
	// on which provider is active.
	cryptoProvider, err := encryption.NewProvider(cfg.Encryption.Provider, cfg.Encryption.KeyHex)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize encryption provider: %v", err)
	}
	log.Printf("[INFO] Using Encryption Provider: %s", cryptoProvider.Name())

	// 3. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 4. AI Providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFaceAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Infrastructure
	// NATS audit fan-out, optional
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		}
	}

	// Redis token denylist, optional
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	// 6. Pipeline components
	retryCfg := retry.Config{
		MaxAttempts: cfg.Pipeline.RetryMaxAttempts,
		BaseDelay:   cfg.Pipeline.RetryBaseDelay,
	}

	recordRepo := implementation.NewRecordEmbeddingRepository(db)
	auditRepo := implementation.NewAuditRepository(db)

	store := retrieval.NewPgvectorStore(
		recordRepo,
		cryptoProvider,
		sysLogger,
		cfg.Pipeline.SimilarityThreshold,
		retryCfg,
	)
	assembler := assemble.NewAssembler(cfg.Pipeline.ContextBudgetChars)
	synthesizer := synthesize.NewSynthesizer(
		llmProvider,
		sysLogger,
		cfg.Pipeline.LLMTimeout,
		cfg.Pipeline.RetryBaseDelay,
	)
	recorder := audit.NewDBRecorder(auditRepo, auditLogger, natsPub, cfg.App.NatsAuditSubject)

	// 7. Services
	queryService := service.NewQueryService(
		authz.NewPolicy(),
		embeddingProvider,
		store,
		assembler,
		synthesizer,
		recorder,
		pubSub,
		alertTopic,
		m,
		sysLogger,
		cfg.Pipeline,
	)
	auditService := service.NewAuditService(uowFactory)
	alertConsumer := service.NewAlertConsumerService(
		pubSub,
		alertTopic,
		auditLogger,
		emailService,
		cfg.SMTP.AlertTo,
		cfg.Alert.DedupWindow,
	)

	// 8. Controllers
	return &Container{
		QueryController:      controller.NewQueryController(queryService),
		AuditController:      controller.NewAuditController(auditService),
		HealthController:     controller.NewHealthController(db),
		JwtMiddleware:        serverutils.NewJwtMiddleware(rdb),
		AlertConsumerService: alertConsumer,
		Logger:               sysLogger,
		Metrics:              m,
		Registry:             registry,
		ErrorHandler:         serverutils.NewErrorHandler(sysLogger),
	}
}
