package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"

	blockSlotHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/block_slot"
	createBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_booking"
	createSlotHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_slot"
	decideRescheduleHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/decide_reschedule"
	deleteSlotHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/delete_slot"
	expireRequestsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/expire_reschedule_requests"
	generateSlotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/generate_slots"
	getAvailableSlotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_booking"
	getBookingPolicyHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_booking_policy"
	getSettingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_settings"
	getSlotBookingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_slot_bookings"
	getUserBookingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_user_bookings"
	listRequestsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/list_reschedule_requests"
	listSlotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/list_slots"
	proposeRescheduleHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/propose_reschedule"
	updateBookingStatusHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_booking_status"
	updateSettingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_settings"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/config"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/cache/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	rescheduleRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/reschedule"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schema"
	settingsRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/settings"
	slotRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	bookingsService "github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	catalogService "github.com/m04kA/SMC-SchedulingService/internal/service/catalog"
	rescheduleService "github.com/m04kA/SMC-SchedulingService/internal/service/reschedule"
	settingsService "github.com/m04kA/SMC-SchedulingService/internal/service/settings"
	createBookingUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-SchedulingService/pkg/clock"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SchedulingService...")
	log.Info("Configuration loaded from config.toml (db driver=%s, timezone=%s)",
		cfg.Database.Driver, cfg.Scheduling.Timezone)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open(cfg.Database.SQLDriverName(), cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (driver=%s)", cfg.Database.Driver)

	// При выключенных метриках обёртка просто проксирует вызовы
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)

	qb, err := psqlbuilder.New(cfg.Database.SQLDriverName())
	if err != nil {
		log.Fatal("Failed to create query builder: %v", err)
	}

	if cfg.Database.AutoMigrate {
		if err := schema.Apply(context.Background(), wrappedDB, qb.Dialect()); err != nil {
			log.Fatal("Failed to apply schema: %v", err)
		}
		log.Info("Database schema applied (dialect=%s)", qb.Dialect())
	}

	// Кэш доступности (Redis) или заглушка
	var availabilityCache availability.Store = availability.Nop{}
	if cfg.Cache.Enabled {
		redisClient, err := availability.Connect(context.Background(), cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			log.Fatal("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		availabilityCache = availability.New(redisClient, cfg.Cache.TTL(), log)
		log.Info("Availability cache enabled (addr=%s, ttl=%s)", cfg.Cache.Addr, cfg.Cache.TTL())
	}

	// Публикация событий (RabbitMQ) или заглушка
	var publisher events.Sink = events.Nop{}
	if cfg.Events.Enabled {
		amqpPublisher, err := events.NewPublisher(cfg.Events.URL, cfg.Events.Exchange, log)
		if err != nil {
			log.Fatal("Failed to connect to event broker: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		log.Info("Event publishing enabled (exchange=%s)", cfg.Events.Exchange)
	}

	location := cfg.Scheduling.Location()
	staleAfter := time.Duration(cfg.Scheduling.StaleRequestHours) * time.Hour
	clk := clock.Real{}

	// Инициализируем репозитории
	slotRepository := slotRepo.NewRepository(wrappedDB, qb)
	bookingRepository := bookingRepo.NewRepository(wrappedDB, qb)
	rescheduleRepository := rescheduleRepo.NewRepository(wrappedDB, qb)
	settingsRepository := settingsRepo.NewRepository(wrappedDB, qb)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем сервисы
	catalogSvc := catalogService.NewService(
		slotRepository,
		settingsRepository,
		availabilityCache,
		publisher,
		metricsCollector,
		clk,
		location,
		log,
	)
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		slotRepository,
		settingsRepository,
		txMgr,
		availabilityCache,
		publisher,
		metricsCollector,
		clk,
		location,
		log,
	)
	rescheduleSvc := rescheduleService.NewService(
		bookingRepository,
		slotRepository,
		rescheduleRepository,
		settingsRepository,
		txMgr,
		availabilityCache,
		publisher,
		metricsCollector,
		clk,
		location,
		staleAfter,
		log,
	)
	settingsSvc := settingsService.NewService(
		settingsRepository,
		txMgr,
		clk,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		slotRepository,
		settingsRepository,
		txMgr,
		availabilityCache,
		publisher,
		metricsCollector,
		clk,
		location,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		catalogSvc,
		settingsRepository,
		clk,
		location,
		log,
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	getBookingPolicy := getBookingPolicyHandler.NewHandler(bookingSvc, log)
	getSlotBookings := getSlotBookingsHandler.NewHandler(bookingSvc, log)

	proposeReschedule := proposeRescheduleHandler.NewHandler(rescheduleSvc, log)
	decideReschedule := decideRescheduleHandler.NewHandler(rescheduleSvc, log)
	listRequests := listRequestsHandler.NewHandler(rescheduleSvc, log)
	expireRequests := expireRequestsHandler.NewHandler(rescheduleSvc, log)

	createSlot := createSlotHandler.NewHandler(catalogSvc, log)
	generateSlots := generateSlotsHandler.NewHandler(catalogSvc, log)
	listSlots := listSlotsHandler.NewHandler(catalogSvc, log)
	blockSlot := blockSlotHandler.NewHandler(catalogSvc, log)
	deleteSlot := deleteSlotHandler.NewHandler(catalogSvc, log)

	getSettings := getSettingsHandler.NewHandler(settingsSvc, log)
	updateSettings := updateSettingsHandler.NewHandler(settingsSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Доступность ---
	protected.HandleFunc("/availability", getAvailableSlots.Handle).Methods(http.MethodGet)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", getUserBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/policy", getBookingPolicy.Handle).Methods(http.MethodGet)

	// Запрос на перенос создаёт клиент-владелец или администратор
	protected.HandleFunc("/bookings/{bookingId}/reschedule", proposeReschedule.Handle).Methods(http.MethodPost)

	// ============================================================
	// ADMIN ROUTES (X-User-Role: admin)
	// ============================================================

	decisions := protected.PathPrefix("/reschedule-requests").Subrouter()
	decisions.Use(middleware.RequireAdmin)
	decisions.HandleFunc("/{requestId}/approve", decideReschedule.HandleApprove).Methods(http.MethodPost)
	decisions.HandleFunc("/{requestId}/decline", decideReschedule.HandleDecline).Methods(http.MethodPost)

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)

	// --- Слоты ---
	admin.HandleFunc("/slots", listSlots.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/slots", createSlot.Handle).Methods(http.MethodPost)
	admin.HandleFunc("/slots/generate", generateSlots.Handle).Methods(http.MethodPost)
	admin.HandleFunc("/slots/{slotId}", deleteSlot.Handle).Methods(http.MethodDelete)
	admin.HandleFunc("/slots/{slotId}/block", blockSlot.HandleBlock).Methods(http.MethodPost)
	admin.HandleFunc("/slots/{slotId}/unblock", blockSlot.HandleUnblock).Methods(http.MethodPost)
	admin.HandleFunc("/slots/{slotId}/bookings", getSlotBookings.Handle).Methods(http.MethodGet)

	// --- Переносы ---
	admin.HandleFunc("/reschedule-requests", listRequests.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/reschedule-requests/expire", expireRequests.Handle).Methods(http.MethodPost)

	// --- Настройки ---
	admin.HandleFunc("/settings/template", getSettings.HandleTemplate).Methods(http.MethodGet)
	admin.HandleFunc("/settings/template", updateSettings.HandleTemplate).Methods(http.MethodPut)
	admin.HandleFunc("/settings/policy", getSettings.HandlePolicy).Methods(http.MethodGet)
	admin.HandleFunc("/settings/policy", updateSettings.HandlePolicy).Methods(http.MethodPut)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
