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
	"github.com/timely-app/timely-backend/libs/httpx"
	otelx "github.com/timely-app/timely-backend/libs/otel"
	"github.com/timely-app/timely-backend/libs/runtime"
	"github.com/timely-app/timely-backend/services/assistant-service/internal/genai"
	"github.com/timely-app/timely-backend/services/assistant-service/internal/handlers"
	"github.com/timely-app/timely-backend/services/assistant-service/internal/vision"
)

func main() {
	service := config.String("SERVICE_NAME", "assistant-service")
	port, err := config.Port("PORT", "8082")
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

	// Model clients come up lazily: a bad GENAI_API_KEY surfaces on the first
	// assistant request instead of preventing startup.
	promptModel := genai.NewLazy(func() (genai.Generator, error) {
		return genai.NewGemini(nil, config.String("GENAI_API_KEY", ""), config.String("GENAI_MODEL", "gemini-2.0-flash-lite"))
	})
	ocrModel := genai.NewLazy(func() (genai.Generator, error) {
		return genai.NewGemini(nil, config.String("GENAI_API_KEY", ""), config.String("GENAI_OCR_MODEL", "gemini-2.5-pro"))
	})
	visionClient, err := vision.NewClient(nil, config.String("VISION_API_KEY", ""))
	if err != nil {
		logger.Error("vision client init failed", "err", err)
		panic(err)
	}

	promptHandler := handlers.NewPromptHandler(promptModel, logger)
	ocrHandler := handlers.NewOCRHandler(visionClient, ocrModel, logger)

	mux := runtime.NewBaseMuxWithReady()
	api := http.NewServeMux()
	api.HandleFunc("/api/v1/assistant/prompt", promptHandler.Handle)
	api.HandleFunc("/api/v1/assistant/ocr", ocrHandler.Handle)
	mux.Handle("/api/v1/", auth.RequireHS256(api, jwtSecret))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(12<<20),
		httpx.WithTimeout(90*time.Second),
		rateLimitMiddleware(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "assistant")

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

func rateLimitMiddleware(logger *slog.Logger) httpx.Middleware {
	limit := config.Int("RATE_LIMIT_REQUESTS", 30)
	window := time.Duration(config.Int("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second

	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		return httpx.NewRedisRateLimiter(rdb, limit, window, "assistant").Middleware(logger, true)
	}
	logger.Warn("REDIS_ADDR unset; using per-replica in-memory rate limiting")
	return httpx.NewRateLimiter(limit, window).Middleware()
}
