// The notifier worker consumes queued notification envelopes, renders the
// matching email template, and delivers over SMTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/careercompass/auth-service/internal/application/notify"
	"github.com/careercompass/auth-service/internal/config"
	"github.com/careercompass/auth-service/internal/infrastructure/email"
	"github.com/careercompass/auth-service/internal/infrastructure/messaging/rabbitmq"
	redisinfra "github.com/careercompass/auth-service/internal/infrastructure/redis"
	"github.com/careercompass/auth-service/internal/logger"
)

var emailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "compass_notifier",
		Name:      "emails_total",
		Help:      "Notification handling outcomes",
	},
	[]string{"kind", "outcome"},
)

func main() {
	logger.Init()
	_ = godotenv.Load()

	if code := run(); code != 0 {
		os.Exit(code)
	}
}

func run() int {
	lg := logger.Logger

	cfg, err := config.Load()
	if err != nil {
		lg.Error().Err(err).Msg("config load failed")
		return 1
	}
	if err := cfg.ValidateSMTP(); err != nil {
		lg.Error().Err(err).Msg("smtp config invalid")
		return 1
	}

	redisClient, err := redisinfra.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		lg.Error().Err(err).Msg("redis connect failed")
		return 1
	}
	defer redisClient.Close()

	renderer, err := email.NewTemplateRenderer(cfg.AppName)
	if err != nil {
		lg.Error().Err(err).Msg("template setup failed")
		return 1
	}

	sender, err := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.AppName,
		UseTLS:   !cfg.SMTPInsecure,
	})
	if err != nil {
		lg.Error().Err(err).Msg("smtp setup failed")
		return 1
	}

	handler := notify.NewHandler(
		redisinfra.NewIdempotencyStore(redisClient),
		renderer,
		sender,
		24*time.Hour,
		3,
	).WithResultHook(func(kind, outcome string) {
		emailsTotal.WithLabelValues(kind, outcome).Inc()
	})

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		lg.Error().Err(err).Msg("rabbitmq dial failed")
		return 1
	}
	defer conn.Close()

	consumer, err := rabbitmq.NewConsumer(conn, cfg.RabbitExchange, handler, 10, 5)
	if err != nil {
		lg.Error().Err(err).Msg("consumer setup failed")
		return 1
	}
	defer consumer.Close()

	// Metrics endpoint for scraping; the worker has no other HTTP surface.
	metricsSrv := &http.Server{
		Addr:    getEnv("METRICS_ADDR", ":9091"),
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Error().Err(err).Msg("metrics server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		lg.Error().Err(err).Msg("consumer stopped with error")
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	lg.Info().Msg("notifier shutdown complete")
	return 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
