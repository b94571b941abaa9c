package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"triage-assistant/internal/chat"
	"triage-assistant/internal/config"
	"triage-assistant/internal/guidance"
	"triage-assistant/internal/llm"
	"triage-assistant/internal/platform/logger"
	"triage-assistant/internal/platform/telegram"
	"triage-assistant/internal/report"
	"triage-assistant/internal/triage"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("failed to load configuration")
	}

	// 1. Infrastructure
	var db *sql.DB
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			break
		}
		logger.WithField("attempt", i+1).Info("waiting for database")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("could not connect to database")
	}
	logger.Log.Info("connected to database")

	m, err := migrate.New("file://migrations", cfg.DatabaseURL)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("migration init failed")
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.WithField("error", err.Error()).Fatal("migration up failed")
	}
	logger.Log.Info("migrations applied")

	// 2. Rules and clients
	rules, err := guidance.Load(cfg.GuidanceRulesPath)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("failed to load guidance rules")
	}
	logger.WithField("symptoms", rules.Symptoms.Len()).Info("guidance rules loaded")

	llmClient := llm.NewCerebrasClient(cfg.CerebrasAPIKey, cfg.CerebrasAPIURL, cfg.CerebrasModel)

	// 3. Services
	triageSvc := triage.NewService(rules, llmClient, cfg.GuidanceTimeout)
	triageHandler := triage.NewHandler(triageSvc)

	var notifier *report.Notifier
	if cfg.TelegramBotToken != "" && cfg.DoctorChatID != 0 {
		tgClient := telegram.NewClient(cfg.TelegramBotToken)
		notifier = report.NewNotifier(tgClient, cfg.DoctorChatID)
	} else {
		logger.Log.Warn("TELEGRAM_BOT_TOKEN or DOCTOR_CHAT_ID not set, emergency notifications disabled")
	}
	synth := report.NewSynthesizer(llmClient, cfg.ReportTimeout)
	reportHandler := report.NewHandler(synth, notifier)

	chatRepo := chat.NewRepository(db)
	chatSvc := chat.NewService(chatRepo, llmClient, cfg.ChatTimeout)
	chatHandler := chat.NewHandler(chatSvc, cfg.CerebrasModel, cfg.CerebrasAPIKey != "")

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for the web frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
			if r.Method == "OPTIONS" {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		triage.RegisterRoutes(r, triageHandler)
		report.RegisterRoutes(r, reportHandler)
		chat.RegisterRoutes(r, chatHandler)
	})

	logger.WithField("port", cfg.Port).Info("server starting")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.WithField("error", err.Error()).Fatal("server stopped")
	}
}
