package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/timely-app/timely-backend/libs/auth"
	"github.com/timely-app/timely-backend/libs/config"
	"github.com/timely-app/timely-backend/libs/db"
	"github.com/timely-app/timely-backend/libs/httpx"
	"github.com/timely-app/timely-backend/libs/kafkax"
	otelx "github.com/timely-app/timely-backend/libs/otel"
	"github.com/timely-app/timely-backend/libs/runtime"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/friendship"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/googlecal"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/handlers"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/outbox"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "calendar-service")
	port, err := config.Port("PORT", "8081")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	eventRepo := storage.NewEventRepository(pool)
	friendshipRepo := storage.NewFriendshipRepository(pool)
	userRepo := storage.NewUserRepository(pool)
	tokenRepo := storage.NewTokenRepository(pool)
	outboxRepo := outbox.NewRepository()
	proposalRepo := storage.NewProposalRepository(pool, outboxRepo)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	oauth := googlecal.NewOAuth(nil, googlecal.OAuthConfig{
		ClientID:     config.String("GOOGLE_CLIENT_ID", ""),
		ClientSecret: config.String("GOOGLE_CLIENT_SECRET", ""),
		RedirectURI:  config.String("GOOGLE_REDIRECT_URI", "postmessage"),
	})
	calendarClient := googlecal.NewClient(nil, googlecal.NewRefreshTokenSource(oauth, tokenRepo))

	gate := friendship.NewGate(friendshipRepo)
	googleHandler := handlers.NewGoogleHandler(oauth, calendarClient, tokenRepo, eventRepo, logger)
	freeSlotsHandler := handlers.NewFreeSlotsHandler(gate, eventRepo, logger)
	scheduleHandler := handlers.NewScheduleHandler(userRepo, friendshipRepo, eventRepo, logger)
	proposalHandler := handlers.NewProposalHandler(proposalRepo, userRepo, eventRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)

	api := http.NewServeMux()
	api.HandleFunc("/api/v1/google/token", googleHandler.StoreToken)
	api.HandleFunc("/api/v1/calendar/sync", googleHandler.Sync)
	api.HandleFunc("/api/v1/calendar/free-slots", freeSlotsHandler.Find)
	api.HandleFunc("/api/v1/friends/schedule", scheduleHandler.Friend)
	api.HandleFunc("/api/v1/proposals", proposalHandler.Create)
	api.HandleFunc("/api/v1/proposals/respond", proposalHandler.Respond)
	mux.Handle("/api/v1/", auth.RequireHS256(api, jwtSecret))

	rateLimit := rateLimitMiddleware(logger)
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		rateLimit,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "calendar")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// rateLimitMiddleware prefers the shared Redis window so replicas enforce one
// budget; without REDIS_ADDR each replica falls back to its own in-memory
// window.
func rateLimitMiddleware(logger *slog.Logger) httpx.Middleware {
	limit := config.Int("RATE_LIMIT_REQUESTS", 120)
	window := time.Duration(config.Int("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second

	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		return httpx.NewRedisRateLimiter(rdb, limit, window, "calendar").Middleware(logger, true)
	}
	logger.Warn("REDIS_ADDR unset; using per-replica in-memory rate limiting")
	return httpx.NewRateLimiter(limit, window).Middleware()
}
