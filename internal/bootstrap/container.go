package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"rag-presupuestos-be/internal/config"
	"rag-presupuestos-be/internal/controller"
	"rag-presupuestos-be/internal/pkg/logger"
	"rag-presupuestos-be/internal/repository/cache"
	"rag-presupuestos-be/internal/repository/implementation"
	"rag-presupuestos-be/internal/repository/memory"
	"rag-presupuestos-be/internal/service"
	"rag-presupuestos-be/pkg/budget/enrich"
	"rag-presupuestos-be/pkg/embedding"
	"rag-presupuestos-be/pkg/llm/factory"
	"rag-presupuestos-be/pkg/llm/resilient"
	"rag-presupuestos-be/pkg/rag/answer"
	"rag-presupuestos-be/pkg/rag/search"

	pktNats "rag-presupuestos-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	RagController    controller.IRagController
	BudgetController controller.IBudgetController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Retry/backoff plus circuit breaking around every generation call.
	generator := resilient.Wrap(llmProvider, resilient.Config{})

	// 4. Knowledge Store & Sessions
	chunkRepo := implementation.NewChunkRepository(db)
	vectorSearcher := implementation.NewVectorSearchAdapter(embeddingProvider, chunkRepo)
	lexicalSearcher := implementation.NewLexicalSearchAdapter(chunkRepo)

	sessionRepo := memory.NewSessionRepositoryWithConfig(memory.Config{
		MaxTurns:    cfg.Rag.MaxTurns,
		PromptTurns: cfg.Rag.PromptTurns,
		TTL:         time.Duration(cfg.Rag.SessionTTLHrs) * time.Hour,
		MaxSessions: cfg.Rag.MaxSessions,
	})

	// 5. Optional Infrastructure
	var natsPub *pktNats.Publisher
	if cfg.App.NatsEnabled {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisEnabled {
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
	previewCache := cache.NewPreviewCache(rdb, sysLogger)

	// 6. Engine & Services
	engine := search.NewEngine(vectorSearcher, lexicalSearcher, sysLogger)
	orchestrator := answer.NewOrchestratorWithConfig(engine, sessionRepo, generator, sysLogger, answer.Config{
		MinScore: cfg.Rag.MinScore,
	})
	orchestrator.SetTraceLogger(initLLMLogger())

	publisherService := service.NewPublisherService(cfg.Keys.QueryTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.Keys.QueryTopic, sysLogger)

	ragService := service.NewRagService(
		orchestrator,
		engine,
		sessionRepo,
		previewCache,
		publisherService,
		natsPub,
		sysLogger,
	)

	pipeline := enrich.NewPipeline(engine, generator, enrich.Config{
		Workers:   cfg.Budget.Workers,
		RateLimit: rate.Limit(cfg.Budget.EstimatePerSec),
	}, sysLogger)
	budgetService := service.NewBudgetService(pipeline, natsPub, sysLogger)

	return &Container{
		RagController:    controller.NewRagController(ragService),
		BudgetController: controller.NewBudgetController(budgetService),

		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}

// initLLMLogger writes raw prompt/response traces to their own file so the
// main log stays readable.
func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
