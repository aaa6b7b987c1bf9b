package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/rift-arena/config"
	"github.com/Dosada05/rift-arena/db"
	"github.com/Dosada05/rift-arena/handlers"
	"github.com/Dosada05/rift-arena/live"
	"github.com/Dosada05/rift-arena/middleware"
	"github.com/Dosada05/rift-arena/pairing"
	"github.com/Dosada05/rift-arena/repositories"
	"github.com/Dosada05/rift-arena/riot"
	api "github.com/Dosada05/rift-arena/routes"
	"github.com/Dosada05/rift-arena/services"
	"github.com/Dosada05/rift-arena/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Загрузчик доказательств: без R2 загрузка отключена, сервис работает дальше.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		uploader = storage.NewDisabledUploader()
		logger.Warn("R2 is not configured, proof uploads are disabled")
	}

	hub := live.NewHub(logger)
	go hub.Run()
	logger.Info("live hub started")

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	transactionRepo := repositories.NewPostgresTransactionRepository(dbConn)
	storeRepo := repositories.NewPostgresStoreRepository(dbConn)
	txManager := repositories.NewSQLTxManager(dbConn)
	logger.Info("repositories initialized")

	// Коллабораторы доменных сервисов
	var pairer pairing.Pairer
	if cfg.PairerKind == "llm" {
		pairer = pairing.NewLLMPairer(pairing.LLMPairerConfig{
			APIKey: cfg.LLMAPIKey,
			APIURL: cfg.LLMAPIURL,
			Model:  cfg.LLMModel,
		})
	} else {
		pairer = pairing.NewRandomPairer(time.Now().UnixNano())
	}
	logger.Info("bracket pairer selected", slog.String("pairer", pairer.GetName()))

	oracle := riot.NewMockOracle()

	var notifier services.Notifier
	smtpCfg := services.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}
	if smtpCfg.Configured() {
		notifier = services.NewSMTPNotifier(smtpCfg)
		logger.Info("smtp notifier initialized", slog.String("host", cfg.SMTPHost))
	} else {
		notifier = services.NewLogNotifier(logger)
		logger.Warn("SMTP is not configured, notifications go to the log")
	}

	// Сервисы
	ledger := services.NewLedgerService(userRepo, transactionRepo)
	authService := services.NewAuthService(userRepo, transactionRepo, txManager)
	userService := services.NewUserService(userRepo)
	tournamentService := services.NewTournamentService(
		tournamentRepo,
		registrationRepo,
		matchRepo,
		txManager,
		pairer,
		hub,
		logger,
	)
	matchService := services.NewMatchService(
		matchRepo,
		txManager,
		oracle,
		uploader,
		notifier,
		hub,
		logger,
	)
	gameService := services.NewGameService(gameRepo, txManager, ledger, hub, logger)
	storeService := services.NewStoreService(storeRepo, userRepo, transactionRepo, txManager, ledger, notifier, logger)
	adminService := services.NewAdminService(userRepo, gameRepo, storeRepo, txManager, ledger, logger)
	logger.Info("services initialized")

	// HTTP-контур
	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, matchService)
	matchHandler := handlers.NewMatchHandler(matchService)
	gameHandler := handlers.NewGameHandler(gameService)
	storeHandler := handlers.NewStoreHandler(storeService)
	adminHandler := handlers.NewAdminHandler(adminService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		auth,
		authHandler,
		userHandler,
		tournamentHandler,
		matchHandler,
		gameHandler,
		storeHandler,
		adminHandler,
		webSocketHandler,
		cfg.CORSAllowedOrigins,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
