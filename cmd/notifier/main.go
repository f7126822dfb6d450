// Command notifier consumes domain events from RabbitMQ and sends the
// matching emails.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"reviewly-backend-go/internal/config"
	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/internal/logger"
	"reviewly-backend-go/internal/notify"
	"reviewly-backend-go/pkg/messagequeue"
)

func main() {
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}
	zapLogger, err := logger.New(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	if appConfig.RabbitMQURL == "" {
		zapLogger.Fatal("CRITICAL_ERROR: RABBITMQ_URL is required by the notifier")
	}
	m, err := notify.MailerFromConfig(appConfig)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to configure mailer", zap.Error(err))
	}
	mq, err := messagequeue.NewRabbitMQService(messagequeue.NewRabbitMQServiceConfig{URL: appConfig.RabbitMQURL}, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mq.Close()

	notifier := notify.New(m, appConfig.SupportEmail, appConfig.PublicBaseURL, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zapLogger.Info("Notifier consuming events", zap.String("queue", appConfig.EventsQueue))
	if err := events.Consume(ctx, mq, appConfig.EventsQueue, notifier.Handle); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("Event consumer stopped", zap.Error(err))
		return
	}
	zapLogger.Info("Notifier exiting gracefully.")
}
