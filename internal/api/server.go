package api

import (
	"fmt"
	"log"
	"net/http"

	"homestay/internal/cache"
	"homestay/internal/config"
	"homestay/internal/database"
	"homestay/internal/external"
	"homestay/internal/handlers"
	"homestay/internal/messaging"
	"homestay/internal/middleware"
	"homestay/internal/repository"
	"homestay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server представляет HTTP сервер API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	// Кеш не обязателен: при недоступности Valkey работаем от БД
	valkeyClient, err := cache.NewValkeyClient()
	if err != nil {
		log.Printf("Valkey unavailable, continuing without cache: %v", err)
		valkeyClient = nil
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)

	repos := repository.NewRepositories(db)

	services := service.NewServices(repos, natsClient, paymentClient, service.Options{
		ServiceFeeRate: cfg.ServiceFeeRate,
		Currency:       cfg.Payment.Currency,
	})

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.valkey)

	api := s.router.Group("/api")
	// Обязательная Basic Auth для всех API роутов
	api.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
	{
		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.GET("/:id", h.GetBooking)
			bookings.PATCH("/:id", h.UpdateBooking)
			bookings.DELETE("/:id", h.CancelBooking)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/create-intent", h.CreateIntent)
			payments.POST("/webhook", h.OnPaymentWebhook)
		}

		listings := api.Group("/listings")
		{
			listings.GET("/:id", h.GetListing)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthCheck обрабатывает health check запросы
func (s *Server) healthCheck(c *gin.Context) {
	dbHealth := s.db.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if dbHealth.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   dbHealth.Status,
		"service":  "homestay-api",
		"database": dbHealth,
	})
}

// Run запускает HTTP сервер
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Printf("Error closing Valkey connection: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}
