package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"leave-system/internal/listeners"
	"leave-system/internal/migrate"
	"leave-system/internal/repositories"
	"leave-system/internal/routes"
	"leave-system/internal/scheduler"
	"leave-system/internal/services"
	"leave-system/pkg/config"
	"leave-system/pkg/database/postgresql"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/eventbus"
	applogger "leave-system/pkg/logger"
	"leave-system/pkg/mailer"
	"leave-system/pkg/metrics"
	appmiddleware "leave-system/pkg/middleware"
	"leave-system/pkg/service"
	"leave-system/pkg/telegram"
	"leave-system/pkg/utils"
	"leave-system/pkg/validation"
	appwebsocket "leave-system/pkg/websocket"
)

func main() {
	// 1. Конфиг и логгер
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Хранилища
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.Postgres.AutoMigrate {
		runner, err := migrate.New(dbConn, cfg.Postgres.DSN, cfg.Postgres.MigrationsDir, logger)
		if err != nil {
			logger.Fatal("не удалось настроить миграции", zap.Error(err))
		}
		if err := runner.Ensure(ctx); err != nil {
			logger.Fatal("не удалось применить миграции", zap.Error(err))
		}
		runner.Close()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}
	defer redisClient.Close()

	// 3. Уведомления: шина событий -> почта, Telegram, WebSocket
	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	bus := eventbus.New(logger.Named("eventbus"))
	hub := appwebsocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	mailSender, err := mailer.New(cfg.Mail, logger.Named("mail"))
	if err != nil {
		logger.Fatal("не удалось настроить почту", zap.Error(err))
	}
	telegramService, err := telegram.NewService(cfg.Telegram.BotToken, logger.Named("telegram"))
	if err != nil {
		logger.Fatal("не удалось настроить Telegram", zap.Error(err))
	}

	userRepo := repositories.NewUserRepository(dbConn, logger.Named("user"))
	listeners.NewNotificationListener(
		userRepo, mailSender, telegramService, hub, appMetrics, cfg.Mail, cfg.Frontend, logger.Named("notify"),
	).Register(bus)
	notifier := services.NewBusNotifier(bus, logger.Named("notify"))

	// 4. Планировщик фоновых задач
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	reconciliation := services.NewReconciliationService(
		repositories.NewTxManager(dbConn),
		repositories.NewEmployeeLeaveRepository(dbConn, logger.Named("leave")),
		userRepo,
		notifier,
		cfg.Policy,
		logger.Named("scheduler"),
	)
	jobs := scheduler.New(cacheRepo, cfg.Scheduler, appMetrics, logger.Named("scheduler"))
	jobs.Register(scheduler.LeaveJobs(reconciliation, cfg.Scheduler)...)
	if cfg.Scheduler.Enabled {
		jobs.Start()
		defer jobs.Stop()
	}

	// 5. HTTP
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("Паника при обработке запроса",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Disposition"},
	}))
	e.Use(appmiddleware.RequestLogger(logger.Named("http")))
	e.Use(appMetrics.Middleware())

	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	routes.InitRouter(e, routes.Deps{
		DB:       dbConn,
		Redis:    redisClient,
		JWT:      jwtSvc,
		Notifier: notifier,
		Hub:      hub,
		Metrics:  appMetrics,
		Telegram: telegramService,
	}, &routes.Loggers{
		Main:  logger,
		Auth:  logger.Named("auth"),
		Leave: logger.Named("leave"),
		User:  logger.Named("user"),
	}, cfg)

	go func() {
		logger.Info("Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Получен сигнал остановки, завершаем работу")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки HTTP-сервера", zap.Error(err))
	}
	bus.Wait()
}
