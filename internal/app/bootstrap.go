package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"petcare-serverless/internal/auth"
	"petcare-serverless/internal/db"
	"petcare-serverless/internal/maintenance"
	"petcare-serverless/internal/observability"
	"petcare-serverless/internal/record"
	"petcare-serverless/internal/stats"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	// Missing secret or credential does not fail bootstrap: login surfaces
	// a generic server error instead, so the rest of the API stays up.
	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	passwordHash := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH"))
	if jwtSecret == "" || passwordHash == "" {
		logger.Error("auth_env_incomplete", map[string]any{
			"jwt_secret_set":    jwtSecret != "",
			"password_hash_set": passwordHash != "",
		})
	}

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	timezone := envOrDefault("APP_TIMEZONE", "Asia/Seoul")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Error("load_timezone_failed", map[string]any{"timezone": timezone, "error": err.Error()})
		loc = time.UTC
	}

	codec := auth.NewTokenCodec(jwtSecret, envHoursOrDefault("AUTH_TOKEN_TTL_HOURS", 168))
	verifier := auth.NewCredentialVerifier(EnvBoolOrDefault("AUTH_ALLOW_PLAIN_CREDENTIAL", false))
	authRepo := auth.NewRepository(database)
	throttle := auth.NewLoginThrottle(
		authRepo,
		logger,
		envIntOrDefault("LOGIN_MAX_ATTEMPTS", 5),
		envMinutesOrDefault("LOGIN_LOCK_MINUTES", 5),
	)
	authService := auth.NewService(codec, verifier, throttle, logger, passwordHash)
	authHandler := auth.NewHandler(authService)

	cleanupHandler := maintenance.NewCleanupHandler(
		authRepo,
		logger,
		os.Getenv("CRON_SECRET"),
		envDaysOrDefault("AUTH_LOGIN_ATTEMPT_RETENTION_DAYS", 30),
		envIntOrDefault("AUTH_CLEANUP_BATCH_SIZE", 500),
	)

	recordRepo := record.NewRepository(database)
	recordHandler := record.NewHandler(recordRepo, loc)
	statsRepo := stats.NewRepository(database)
	statsHandler := stats.NewHandler(statsRepo, loc)

	guard := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(authService, h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/auth/verify", authHandler.Verify)
	mux.HandleFunc("GET /health", healthHandler(database))
	mux.Handle("GET /api/records", guard(recordHandler.List))
	mux.Handle("POST /api/records", guard(recordHandler.Create))
	mux.Handle("GET /api/records/{id}", guard(recordHandler.Get))
	mux.Handle("DELETE /api/records/{id}", guard(recordHandler.Delete))
	mux.Handle("GET /api/stats/food", guard(statsHandler.Food))
	mux.Handle("GET /api/stats/water", guard(statsHandler.Water))
	mux.Handle("GET /api/stats/bathroom", guard(statsHandler.Bathroom))
	mux.Handle("GET /api/stats/memo", guard(statsHandler.Memo))
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	handler := observability.RecoverMiddleware(logger,
		observability.RequestLoggingMiddleware(logger,
			corsMiddleware.Handler(mux)))

	return &Runtime{
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func envDaysOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * 24 * time.Hour
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
