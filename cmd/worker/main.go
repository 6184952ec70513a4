package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homestay/internal/config"
	"homestay/internal/consumers"
	"homestay/internal/database"
	"homestay/internal/external"
	"homestay/internal/logger"
	"homestay/internal/messaging"
	"homestay/internal/repository"
	"homestay/internal/service"
	"homestay/internal/worker"
)

func main() {
	log.Println("Starting worker service...")

	// Загружаем конфигурацию
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Отдельный NATS client ID для воркера
	cfg.NATS.ClientID = "homestay-worker"

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)

	repos := repository.NewRepositories(db)

	services := service.NewServices(repos, natsClient, paymentClient, service.Options{
		ServiceFeeRate: cfg.ServiceFeeRate,
		Currency:       cfg.Payment.Currency,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expiration := worker.NewExpirationJob(repos.Bookings, services.Ledger, natsClient, cfg.PendingBookingTTL)
	expiration.Start(ctx)

	// Консьюмеры держат собственные соединения, их жизненный цикл
	// независим от джобы истечения
	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		log.Fatalf("Failed to create consumer service: %v", err)
	}
	if err := consumerService.Start(); err != nil {
		log.Fatalf("Failed to start consumers: %v", err)
	}

	log.Println("Worker service started successfully")

	// Ждем сигнал для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker service...")

	expiration.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := consumerService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during consumer shutdown: %v", err)
	}

	if err := natsClient.Close(); err != nil {
		log.Printf("Error closing NATS connection: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}

	log.Println("Worker service stopped")
}
