// Command notification-service tells account holders how their
// transactions ended.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/banksaga/internal/adapter/http"
	"github.com/iho/banksaga/internal/adapter/http/handler"
	"github.com/iho/banksaga/internal/adapter/notifier"
	"github.com/iho/banksaga/internal/adapter/queue"
	"github.com/iho/banksaga/internal/app"
	"github.com/iho/banksaga/internal/infrastructure/config"
	"github.com/iho/banksaga/internal/infrastructure/messaging"
	"github.com/iho/banksaga/internal/usecase"
)

const serviceName = "notification-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("notification service failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	rt := app.New(serviceName, cfg)

	conn, publisher, err := rt.ConnectBroker(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer publisher.Close()

	notificationUC := usecase.NewNotificationUseCase(notifier.NewLogNotifier(rt.Logger), rt.Metrics, rt.Logger)

	router := httpAdapter.NewNotificationRouter(rt.RouterConfig(nil, handler.RabbitMQCheck(conn)))

	return rt.Run(ctx, rt.HTTPServer(router),
		rt.Consumer(conn, publisher, messaging.QueueNotificationCompleted, queue.Completed(notificationUC)),
		rt.Consumer(conn, publisher, messaging.QueueNotificationFailed, queue.Failed(notificationUC)),
	)
}
