package consumers

import (
	"context"
	"log/slog"

	"homestay/internal/cache"
	"homestay/internal/config"
	"homestay/internal/database"
	"homestay/internal/messaging"
	"homestay/internal/models"
	"homestay/internal/repository"
)

// ConsumerService подписывается на события жизненного цикла броней и
// выполняет побочную работу: инвалидация кеша, уведомления хостам.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	// Connect to NATS
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	// Кеш не обязателен и для консьюмеров
	valkeyClient, err := cache.NewValkeyClient()
	if err != nil {
		slog.Warn("Valkey unavailable, cache invalidation disabled", "error", err)
		valkeyClient = nil
	}

	repos := repository.NewRepositories(db)

	handlers := NewHandlers(repos, valkeyClient)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: handlers,
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	subjects := map[string]func(data []byte){
		models.EventBookingCreated:   cs.handlers.HandleBookingCreated,
		models.EventBookingConfirmed: cs.handlers.HandleBookingConfirmed,
		models.EventBookingCancelled: cs.handlers.HandleBookingCancelled,
		models.EventBookingExpired:   cs.handlers.HandleBookingExpired,
		models.EventBookingConflict:  cs.handlers.HandleBookingConflict,
		models.EventPaymentFailed:    cs.handlers.HandlePaymentFailed,
	}

	for subject, handler := range subjects {
		if _, err := cs.nats.SubscribeQueue(subject, "consumers", wrap(handler)); err != nil {
			return err
		}
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.handlers.valkey != nil {
		if err := cs.handlers.valkey.Close(); err != nil {
			slog.Error("Error closing Valkey connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
