package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/telebot.v3"

	"interaction_log_bot/internal/app"
	domainAI "interaction_log_bot/internal/domain/ai"
	"interaction_log_bot/internal/infra/config"
	idb "interaction_log_bot/internal/infra/database"
	"interaction_log_bot/internal/infra/gemini"
	"interaction_log_bot/internal/infra/logger"
	"interaction_log_bot/internal/infra/memstore"
	"interaction_log_bot/internal/infra/report"
	"interaction_log_bot/internal/infra/scheduler"
	"interaction_log_bot/internal/infra/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	ctx := context.Background()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Initialize Repositories
	eventRepo := idb.NewPostgresEventRepository(db)
	auditRepo := idb.NewPostgresAuditRepository(db)
	log.Info("Event and audit repositories initialized.")

	// Initialize AI client (optional: without a key, only the
	// deterministic fallback extractor runs)
	var aiClient domainAI.Client
	if cfg.GeminiAPIKey != "" {
		aiClient, err = gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("FATAL: Could not create Gemini client: %v", err)
		}
		log.Infof("AI extraction enabled with model %s.", cfg.GeminiModel)
	} else {
		log.Warn("GEMINI_API_KEY not set; AI extraction disabled, using fallback extractor only.")
	}

	// Initialize application services
	normalizer := app.NewNormalizer(aiClient, cfg.GeminiModel, cfg.AITimeout, log.WithField("component", "normalizer"))
	headerValidator := app.NewHeaderValidator(aiClient, cfg.GeminiModel, cfg.AITimeout, log.WithField("component", "header_validator"))
	merger := app.NewMerger(eventRepo)
	caseService := app.NewCaseService(eventRepo)
	ingestService := app.NewIngestService(normalizer, merger, eventRepo, auditRepo, log.WithField("component", "ingest"))
	reportService := app.NewReportService(caseService, report.NewRenderer(), log.WithField("component", "reports"))

	sessions := memstore.NewSessionStore()
	flowEngine := app.NewFlowEngine(
		sessions,
		headerValidator,
		ingestService,
		caseService,
		reportService,
		cfg.FlowTTL,
		cfg.QueryCooldown,
		log.WithField("component", "flow_engine"),
	)
	log.Info("Application services initialized.")

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID).WithField("chat_id", c.Chat().ID)
			}
			entry.Error("telebot handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}

	// Register Handlers
	telegram.RegisterBotHandlers(ctx, bot, flowEngine, log.WithField("component", "telegram"))
	log.Info("Bot handlers registered.")

	// Initialize Report Scheduler
	tgClient := telegram.NewTelebotAdapter(bot)
	reportScheduler := scheduler.NewReportScheduler(
		reportService,
		tgClient,
		cfg.ManagerChatID,
		cfg.CronSpecDailyReport,
		cfg.CronSpecMonthlyReport,
		log.WithField("component", "scheduler"),
	)
	if err := reportScheduler.Start(); err != nil {
		log.Fatalf("FATAL: Could not start report scheduler: %v", err)
	}

	log.Info("Application setup complete. Bot and scheduler are starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	reportScheduler.Stop()
	bot.Stop()
	log.Info("Application shut down gracefully.")
}
