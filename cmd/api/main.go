package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/savings-planner/internal/config"
	"github.com/Dan9191/savings-planner/internal/handler"
	"github.com/Dan9191/savings-planner/internal/integrations/advisory"
	"github.com/Dan9191/savings-planner/internal/integrations/news"
	"github.com/Dan9191/savings-planner/internal/integrations/quotes"
	"github.com/Dan9191/savings-planner/internal/jobs"
	"github.com/Dan9191/savings-planner/internal/repository"
	sentryutil "github.com/Dan9191/savings-planner/internal/sentry"
	"github.com/Dan9191/savings-planner/internal/service"
	"github.com/Dan9191/savings-planner/internal/tax"
	"github.com/Dan9191/savings-planner/internal/utils"
	"github.com/Dan9191/savings-planner/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	sentryutil.Init(cfg, logger)
	defer sentryutil.Flush()

	// Money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	rules, err := tax.LoadRules(cfg.TaxRulesPath)
	if err != nil {
		logger.Fatalf("Failed to load tax rules: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	sealer, err := utils.NewSealer(cfg.EncryptionKey, cfg.HMACSecret)
	if err != nil {
		logger.Fatalf("Failed to initialize plan sealing: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db, sealer)
	if err := repo.Migrate(context.Background()); err != nil {
		logger.Fatalf("Failed to apply schema: %v", err)
	}

	svc := service.NewService(service.Deps{
		Store:   repo,
		Advisor: advisory.NewClient(cfg, logger),
		Quotes:  quotes.NewClient(cfg, logger),
		News:    news.NewClient(cfg, logger),
		Mailer:  email.NewSender(cfg, logger),
		Rules:   rules,
	}, logger, cfg)
	h := handler.NewHandler(svc, logger)

	scheduler, err := jobs.NewScheduler(svc, logger)
	if err != nil {
		logger.Fatalf("Failed to schedule jobs: %v", err)
	}
	scheduler.Start()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler.NewRouter(h, cfg),
		ReadTimeout: 10 * time.Second,
		// an analysis may retry the advisory call
		WriteTimeout: time.Duration(cfg.AdvisoryMaxRetries+1)*cfg.AdvisoryTimeout + 30*time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown: %v", err)
	}
	scheduler.Stop(shutdownCtx)
}
