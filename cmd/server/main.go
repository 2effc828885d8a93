package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/vessel-charter/internal/config"
	"github.com/ignatzorin/vessel-charter/internal/db"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/goroutine"
	httpRouter "github.com/ignatzorin/vessel-charter/internal/http/router"
	"github.com/ignatzorin/vessel-charter/internal/infrastructure/document"
	"github.com/ignatzorin/vessel-charter/internal/infrastructure/events"
	"github.com/ignatzorin/vessel-charter/internal/infrastructure/payment"
	"github.com/ignatzorin/vessel-charter/internal/infrastructure/persistence"
	"github.com/ignatzorin/vessel-charter/internal/interface/http/handler"
	"github.com/ignatzorin/vessel-charter/internal/logger"
	"github.com/ignatzorin/vessel-charter/internal/service"
	"github.com/ignatzorin/vessel-charter/internal/usecase/booking"
	"github.com/ignatzorin/vessel-charter/internal/usecase/contract"
	"github.com/ignatzorin/vessel-charter/internal/usecase/escrow"
	"github.com/ignatzorin/vessel-charter/internal/usecase/shared"
	"github.com/ignatzorin/vessel-charter/internal/usecase/vessel"
	"github.com/ignatzorin/vessel-charter/internal/ws"
)

const accessTokenTTL = 15 * time.Minute

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.IsProduction() {
		logger.Init("info")
	} else {
		logger.Init("debug")
		logger.SetTextFormatter()
	}
	lg := logger.L()

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		lg.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		lg.Fatalf("main: ошибка миграций: %v", err)
	}

	// Платёжные провайдеры.
	catalogue, err := payment.LoadCatalogue(cfg.ProvidersConfigPath)
	if err != nil {
		lg.Fatalf("main: ошибка каталога провайдеров: %v", err)
	}
	gateway := payment.NewGateway(catalogue)
	webhookParser, err := payment.NewWebhookParser(cfg.PaystackSecret, cfg.FlutterwaveHash)
	if err != nil {
		lg.Fatalf("main: ошибка схем вебхуков: %v", err)
	}

	// Документы.
	renderer := document.NewHTTPRenderer(cfg.RendererURL, cfg.RendererTimeout, cfg.MaxDocumentSizeMB)
	documentStore, err := document.NewFileStore(cfg.DocumentStoragePath, cfg.PublicBaseURL)
	if err != nil {
		lg.Fatalf("main: не удалось подготовить хранилище документов: %v", err)
	}
	if cfg.RendererURL == "" {
		lg.Warn("main: RENDERER_URL не задан, PDF договоров генерироваться не будут")
	}

	// Доменные события.
	var publisher repository.EventPublisher
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, lg)
		if err != nil {
			lg.Fatalf("main: ошибка подключения к RabbitMQ: %v", err)
		}
		defer func() { _ = amqpPublisher.Close() }()
		publisher = amqpPublisher
	} else {
		lg.Warn("main: AMQP_URL не задан, события пишутся только в лог")
		publisher = events.NewLogPublisher(lg)
	}

	// Вебсокеты.
	hub := ws.NewHub(lg)
	goroutine.SafeGo(func() { hub.Run(ctx) })

	announcer := shared.NewAnnouncer(publisher, hub)
	background := goroutine.NewRecoveryHandler(lg, cfg.BackgroundTaskTimeout)
	tokenManager := service.NewTokenManager(cfg.JWTSecret, accessTokenTTL)

	// Репозитории.
	vesselRepo := persistence.NewVesselRepositoryAdapter(dbConn)
	bookingRepo := persistence.NewBookingRepositoryAdapter(dbConn)
	contractRepo := persistence.NewContractRepositoryAdapter(dbConn)
	escrowRepo := persistence.NewEscrowRepositoryAdapter(dbConn)
	parties := persistence.NewPartyDirectoryAdapter(dbConn)

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Vessel: handler.NewVesselHandler(
			vessel.NewCreateVesselUseCase(vesselRepo),
			vessel.NewGetVesselUseCase(vesselRepo),
			vessel.NewListMyVesselsUseCase(vesselRepo),
			vessel.NewActivateVesselUseCase(vesselRepo),
			vessel.NewAddSlotUseCase(vesselRepo),
			vessel.NewRemoveSlotUseCase(vesselRepo),
			booking.NewListVesselBookingsUseCase(bookingRepo, vesselRepo),
		),
		Booking: handler.NewBookingHandler(
			booking.NewCreateBookingUseCase(bookingRepo, parties, announcer),
			booking.NewUpdateBookingUseCase(bookingRepo, vesselRepo, escrowRepo, announcer),
			booking.NewGetBookingUseCase(bookingRepo, vesselRepo, parties),
			booking.NewListMyBookingsUseCase(bookingRepo),
			booking.NewGetHistoryUseCase(bookingRepo, vesselRepo),
		),
		Contract: handler.NewContractHandler(
			contract.NewCreateContractUseCase(bookingRepo, vesselRepo, contractRepo, parties, renderer, documentStore, background, announcer),
			contract.NewSignContractUseCase(contractRepo, bookingRepo, vesselRepo, announcer),
			contract.NewGetContractUseCase(contractRepo, bookingRepo, vesselRepo),
		),
		Escrow: handler.NewEscrowHandler(
			escrow.NewInitiateEscrowUseCase(bookingRepo, contractRepo, escrowRepo, vesselRepo, parties, gateway, announcer, cfg.PlatformFeePercent),
			escrow.NewApplyProviderUpdateUseCase(escrowRepo, bookingRepo, vesselRepo, announcer),
			escrow.NewGetEscrowUseCase(escrowRepo, bookingRepo, vesselRepo),
		),
		Webhook: handler.NewWebhookHandler(webhookParser, escrow.NewProcessProviderEventUseCase(escrowRepo, bookingRepo, vesselRepo, announcer)),
		WS:      handler.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
		Health:  handler.NewHealthHandler(dbConn),
	}

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpRouter.Compress(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Errorf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	lg.Infof("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lg.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.L().Errorf("main: ошибка закрытия базы: %v", err)
	}
}
