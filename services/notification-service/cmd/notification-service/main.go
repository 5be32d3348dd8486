package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/timely-app/timely-backend/libs/config"
	"github.com/timely-app/timely-backend/libs/db"
	"github.com/timely-app/timely-backend/libs/httpx"
	"github.com/timely-app/timely-backend/libs/kafkax"
	otelx "github.com/timely-app/timely-backend/libs/otel"
	"github.com/timely-app/timely-backend/libs/runtime"
	"github.com/timely-app/timely-backend/services/notification-service/internal/consumer"
	"github.com/timely-app/timely-backend/services/notification-service/internal/inbox"
	"github.com/timely-app/timely-backend/services/notification-service/internal/notify"
	"github.com/timely-app/timely-backend/services/notification-service/internal/push"
	"github.com/timely-app/timely-backend/services/notification-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8083")
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

	var sender push.Sender
	switch strings.ToLower(config.String("PUSH_PROVIDER", "log")) {
	case "webhook":
		sender = push.NewWebhookSender(config.String("PUSH_WEBHOOK_URL", ""), config.String("PUSH_WEBHOOK_TOKEN", ""))
	default:
		sender = push.NewLogSender(logger)
	}

	inboxRepo := inbox.NewRepository(pool)
	svc := notify.NewService(storage.NewRepository(pool), sender, logger)

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")
	startConsumer := func(topic string, handle func(context.Context, []byte) error) {
		c := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}, func(ctx context.Context, msg kafka.Message) error {
			return handle(ctx, msg.Value)
		})
		go c.Run(ctx)
	}
	startConsumer(config.String("KAFKA_TOPIC_PROPOSAL_CREATED", "calendar.proposal.created.v1"), svc.HandleProposalCreated)
	startConsumer(config.String("KAFKA_TOPIC_PROPOSAL_ACCEPTED", "calendar.proposal.accepted.v1"), svc.HandleProposalAccepted)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
