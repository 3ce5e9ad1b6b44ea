package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"segreta/internal/auth"
	"segreta/internal/config"
	"segreta/internal/http_server/handlers/forgotpassword"
	"segreta/internal/http_server/handlers/login"
	"segreta/internal/http_server/handlers/logout"
	quizHandler "segreta/internal/http_server/handlers/quiz"
	"segreta/internal/http_server/handlers/refresh"
	"segreta/internal/http_server/handlers/register"
	"segreta/internal/http_server/handlers/resendcode"
	"segreta/internal/http_server/handlers/resetpassword"
	"segreta/internal/http_server/handlers/secret"
	"segreta/internal/http_server/handlers/sendcode"
	"segreta/internal/http_server/handlers/verifyemail"
	sl "segreta/internal/lib/logger"
	"segreta/internal/middleware/authn"
	rateLimit "segreta/internal/middleware/ratelimit"
	"segreta/internal/passreset"
	"segreta/internal/rabbitmq"
	"segreta/internal/secrets"
	"segreta/internal/storage/postgres"
	"segreta/internal/verification"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting segreta", slog.String("env", cfg.Env), slog.Bool("demo_mode", cfg.DemoMode))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	if cfg.DemoMode {
		if err := storage.SeedDemo(ctx); err != nil {
			log.Error("failed to seed demo data", sl.Err(err))
		}
	}

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	verifier := verification.New(
		log,
		storage,
		msgBroker,
		verification.Policy{Bypass: cfg.DemoMode},
		cfg.Verification.CodeTTL,
		cfg.Verification.ResendInterval,
	)

	resetService := passreset.New(
		log,
		storage,
		storage,
		msgBroker,
		cfg.Reset.TokenTTL,
		cfg.Reset.RequestInterval,
		cfg.HTTPServer.BaseURL,
	)

	authService := auth.New(
		log,
		storage,
		storage,
		verifier,
		cfg.Tokens.JWTSecret,
		cfg.Tokens.AccessTokenTTL,
		cfg.Tokens.RefreshTokenTTL,
	)

	secretService := secrets.New(log, storage, storage, verifier)

	router := setupRouter(log, cfg, authService, verifier, resetService, secretService)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	authService *auth.Auth,
	verifier *verification.Service,
	resetService *passreset.Service,
	secretService *secrets.Service,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.With(rateLimit.Register()).Post("/signup",
		register.New(log, validate, authService, verifier),
	)
	r.With(rateLimit.Login()).Post("/login",
		login.New(log, validate, authService),
	)
	r.With(rateLimit.Refresh()).Post("/refresh",
		refresh.New(log, validate, authService),
	)
	r.With(rateLimit.Logout()).Post("/logout",
		logout.New(log, validate, authService),
	)

	r.With(rateLimit.SendCode()).Post("/send-code",
		sendCode.New(log, validate, verifier),
	)
	r.With(rateLimit.Verify()).Post("/verify-email",
		verifyEmail.New(log, validate, verifier),
	)
	r.With(rateLimit.ResendCode()).Post("/resend-code",
		resendCode.New(log, validate, verifier),
	)

	r.With(rateLimit.ForgotPassword()).Post("/forgot-password",
		forgotPassword.New(log, validate, resetService),
	)
	r.Get("/reset-password/check",
		resetPassword.NewCheck(log, resetService),
	)
	r.With(rateLimit.ResetPassword()).Post("/reset-password",
		resetPassword.New(log, validate, resetService),
	)

	r.Get("/api/secrets",
		secret.NewList(log, secretService),
	)
	r.With(authn.New(cfg.Tokens.JWTSecret)).Post("/api/secrets",
		secret.NewCreate(log, validate, secretService),
	)

	r.Get("/api/questions",
		quizHandler.NewQuestions(log),
	)
	r.Post("/api/flower-match",
		quizHandler.NewMatch(log),
	)

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
