package api

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"motorent/internal/cache"
	"motorent/internal/config"
	"motorent/internal/database"
	"motorent/internal/external"
	"motorent/internal/handlers"
	"motorent/internal/messaging"
	"motorent/internal/middleware"
	"motorent/internal/repository"
	"motorent/internal/search"
	"motorent/internal/service"

	"github.com/gin-gonic/gin"
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
	// Устанавливаем режим Gin
	gin.SetMode(cfg.GinMode)

	// Подключаемся к базе данных
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Запускаем миграции
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Подключаемся к NATS
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	// Кеш не обязателен: без него работаем напрямую с БД
	valkeyClient, err := cache.NewValkeyClient()
	if err != nil {
		slog.Warn("Valkey unavailable, running without cache", "error", err)
		valkeyClient = nil
	}

	// Поисковый индекс тоже не обязателен: без него ищем по каталогу в БД
	esClient, err := search.NewElasticsearchClient(config.LoadElasticsearchConfig())
	if err != nil {
		slog.Warn("Elasticsearch unavailable, catalog search disabled", "error", err)
		esClient = nil
	}

	// Создаем клиент платежного шлюза
	paymentClient := external.NewPaymentClient(cfg.Payment)

	// Создаем репозитории
	repos := repository.NewRepositories(db)

	// Создаем сервисы
	services := service.NewServices(repos, esClient, natsClient, paymentClient)

	// Создаем роутер
	router := gin.New()

	// Применяем middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	// Создаем сервер
	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
	}

	// Настраиваем роуты
	server.setupRoutes()

	return server
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.valkey, s.config.Payment.WebhookSecret)

	api := s.router.Group("/api")
	{
		// Каталог открыт без аутентификации
		vehicles := api.Group("/vehicles")
		{
			vehicles.GET("", h.ListVehicles)
			vehicles.GET("/:id", h.GetVehicle)
		}

		// Бронирования требуют Basic Auth
		bookings := api.Group("/bookings")
		bookings.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.PATCH("/initiatePayment", h.InitiatePayment)

			admin := bookings.Group("")
			admin.Use(middleware.RequireAdmin(s.repos.Users))
			{
				admin.GET("/all", h.ListAllBookings)
				admin.PATCH("/status", h.UpdateBookingStatus)
			}
		}

		// Вебхук аутентифицируется подписью, не Basic Auth
		payments := api.Group("/payments")
		{
			payments.POST("/webhook", h.OnPaymentUpdate)
		}
	}

	// Health check endpoint
	s.router.GET("/health", s.healthCheck)

	// Prometheus metrics
	s.router.GET("/metrics", middleware.PrometheusHandler())
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
		"service":  "motorent-api",
		"version":  "1.0.0",
		"database": dbHealth,
	})
}

// Run запускает HTTP сервер
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// Cleanup освобождает соединения сервера
func (s *Server) Cleanup() error {
	var firstErr error
	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.nats != nil {
		if err := s.nats.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
