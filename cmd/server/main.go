package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gportela85/gestor/internal/ai"
	"github.com/gportela85/gestor/internal/alerts"
	"github.com/gportela85/gestor/internal/api"
	"github.com/gportela85/gestor/internal/circuitbreaker"
	"github.com/gportela85/gestor/internal/config"
	"github.com/gportela85/gestor/internal/db"
	"github.com/gportela85/gestor/internal/metrics"
	"github.com/gportela85/gestor/internal/observ"
	"github.com/gportela85/gestor/internal/redis"
	"github.com/gportela85/gestor/internal/reminder"
	"github.com/gportela85/gestor/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting gestor server",
		zap.String("env", cfg.Env),
		zap.Int("port", cfg.Port),
	)

	ctx := context.Background()
	database, err := db.New(ctx, db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	repo := db.NewRepository(database, logger)

	// Redis backs rate limiting and seller location tracking. Both
	// degrade cleanly when it is down.
	redisClient, err := redis.New(ctx, redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting and location tracking disabled",
			zap.Error(err),
			zap.String("host", cfg.RedisHost),
		)
		redisClient = nil
	}

	var rateLimiter *redis.RateLimiter
	var locations *redis.LocationTracker
	if redisClient != nil {
		rateLimiter = redis.NewRateLimiter(redisClient, logger, redis.RateLimitConfig{
			Limit:  300,
			Window: 1 * time.Minute,
		})
		locations = redis.NewLocationTracker(redisClient, logger, redis.DefaultLocationTTL)
		defer redisClient.Close()
	}

	// Reminder composer, optionally backed by a text-generation API
	// behind a circuit breaker. Without a key the composer still works
	// and always uses the canned texts.
	var generator ai.Generator
	if cfg.AIEnabled {
		aiClient, err := ai.NewClient(ai.Config{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create text generator: %w", err)
		}
		breaker := circuitbreaker.New(circuitbreaker.DefaultConfig("openai"), logger)
		generator = circuitbreaker.NewProtectedGenerator(aiClient, breaker, logger)
	}
	composer := ai.NewComposer(generator, 10*time.Second, logger)

	logger.Info("reminder composer initialized", zap.Bool("ai_enabled", cfg.AIEnabled))

	sender, err := buildSender(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize reminder delivery: %w", err)
	}

	// Background reminder dispatcher
	if cfg.DispatchInterval > 0 && sender != nil {
		d := worker.New(repo, composer, sender, worker.Config{
			PollInterval: time.Duration(cfg.DispatchInterval) * time.Second,
		}, logger)

		workerCtx, workerCancel := context.WithCancel(context.Background())
		defer workerCancel()

		go d.Start(workerCtx)

		logger.Info("reminder dispatcher started",
			zap.Int("interval_seconds", cfg.DispatchInterval),
		)
	} else {
		logger.Info("reminder dispatcher disabled")
	}

	// Router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)
	r.Use(api.RequestLogger(logger))

	feed := alerts.NewService(repo, logger)
	handler := api.NewHandler(logger, repo, feed, composer, sender, locations)

	r.Route("/v1", func(r chi.Router) {
		r.Use(api.RateLimitMiddleware(rateLimiter, logger, api.IPKeyFunc))

		r.Post("/clients", handler.CreateClient)
		r.Get("/clients", handler.ListClients)
		r.Get("/clients/{id}", handler.GetClient)
		r.Put("/clients/{id}", handler.UpdateClient)
		r.Patch("/clients/{id}/status", handler.UpdateClientStatus)
		r.Delete("/clients/{id}", handler.DeleteClient)
		r.Post("/clients/{id}/reminder", handler.ComposeReminder)

		r.Post("/messages", handler.CreateMessage)
		r.Get("/messages", handler.ListMessages)
		r.Delete("/messages/{id}", handler.DeleteMessage)

		r.Get("/notifications", handler.GetNotifications)
		r.Delete("/notifications/{id}", handler.DeleteNotification)

		r.Get("/dashboard", handler.GetDashboard)

		r.Post("/sellers", handler.CreateSeller)
		r.Get("/sellers", handler.ListSellers)
		r.Put("/sellers/{id}", handler.UpdateSeller)
		r.Delete("/sellers/{id}", handler.DeleteSeller)
		r.Put("/sellers/{id}/location", handler.UpdateLocation)
		r.Get("/locations", handler.ListLocations)
		r.Post("/login", handler.Login)

		r.Post("/products", handler.CreateProduct)
		r.Get("/products", handler.ListProducts)
		r.Put("/products/{id}", handler.UpdateProduct)
		r.Delete("/products/{id}", handler.DeleteProduct)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unreachable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		logger.Info("server stopped gracefully")
	}

	return nil
}

// buildSender assembles the multi-channel reminder sender from the
// configured channels. Email over SES is required outside development;
// SMS and WhatsApp are added when configured. In development a logging
// sender stands in so reminders can be exercised without AWS.
func buildSender(ctx context.Context, cfg *config.Config, logger *zap.Logger) (reminder.Sender, error) {
	var senders []reminder.Sender

	sesSender, err := reminder.NewSESSender(ctx, reminder.SESConfig{
		Region:    cfg.AWSRegion,
		FromEmail: cfg.SESFromEmail,
	}, logger)
	if err != nil {
		if cfg.Env != "development" {
			return nil, fmt.Errorf("failed to create email sender: %w", err)
		}
		logger.Warn("email sender unavailable", zap.Error(err))
	} else {
		senders = append(senders, sesSender)
	}

	snsSender, err := reminder.NewSNSSender(ctx, reminder.SNSConfig{
		Region: cfg.SNSRegion,
	}, logger)
	if err != nil {
		logger.Warn("SMS sender unavailable", zap.Error(err))
	} else {
		senders = append(senders, snsSender)
	}

	if cfg.WhatsappGatewayURL != "" {
		senders = append(senders, reminder.NewWhatsappSender(reminder.WhatsappConfig{
			GatewayURL: cfg.WhatsappGatewayURL,
			Token:      cfg.WhatsappGatewayToken,
		}, logger))
	}

	if len(senders) == 0 {
		if cfg.Env == "development" {
			logger.Info("no delivery channels configured, using log sender")
			return reminder.NewLogSender(logger), nil
		}
		return nil, nil
	}

	logger.Info("reminder delivery initialized",
		zap.Int("channels", len(senders)),
		zap.String("whatsapp_gateway", cfg.WhatsappGatewayURL),
	)

	return reminder.NewMultiSender(logger, senders...), nil
}
