package routes

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"leave-system/internal/authz"
	"leave-system/internal/controllers"
	"leave-system/internal/repositories"
	"leave-system/internal/services"
	"leave-system/pkg/config"
	"leave-system/pkg/metrics"
	"leave-system/pkg/middleware"
	"leave-system/pkg/service"
	"leave-system/pkg/telegram"
	appwebsocket "leave-system/pkg/websocket"
)

type Loggers struct {
	Main  *zap.Logger
	Auth  *zap.Logger
	Leave *zap.Logger
	User  *zap.Logger
}

// Deps - инфраструктура, которую создаёт main и разделяет с планировщиком.
type Deps struct {
	DB       *pgxpool.Pool
	Redis    *redis.Client
	JWT      service.JWTService
	Notifier services.NotifierInterface
	Hub      *appwebsocket.Hub
	Metrics  *metrics.Metrics
	Telegram telegram.ServiceInterface
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func InitRouter(e *echo.Echo, deps Deps, loggers *Loggers, cfg *config.Config) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	api := e.Group("/api/v1")
	authMW := middleware.NewAuthMiddleware(deps.JWT, loggers.Auth)
	txManager := repositories.NewTxManager(deps.DB)

	// --- 1. РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(deps.DB, loggers.User)
	teamRepo := repositories.NewTeamRepository(deps.DB, loggers.Main)
	unitRepo := repositories.NewOrganizationalUnitRepository(deps.DB, loggers.Main)
	leaveRepo := repositories.NewEmployeeLeaveRepository(deps.DB, loggers.Leave)
	externalRepo := repositories.NewExternalAuthorizationRepository(deps.DB, loggers.Leave)
	exitRepo := repositories.NewTeamExitPermissionRepository(deps.DB, loggers.Leave)
	teamLeaveRepo := repositories.NewTeamLeaveRepository(deps.DB, loggers.Leave)
	reportRepo := repositories.NewReportRepository(deps.DB)
	cacheRepo := repositories.NewRedisCacheRepository(deps.Redis)

	// --- 2. СЕРВИСЫ ---
	authService := services.NewAuthService(userRepo, cacheRepo, deps.JWT, loggers.Auth, cfg.Auth)
	userService := services.NewUserService(txManager, userRepo, teamRepo, unitRepo, deps.Notifier, cfg.Policy, loggers.User)
	adService := services.NewADService(cfg.LDAP, loggers.User)
	teamService := services.NewTeamService(txManager, teamRepo, userRepo, unitRepo, deps.Notifier, loggers.Main)
	unitService := services.NewOrganizationalUnitService(txManager, unitRepo, teamRepo, userRepo, deps.Notifier, loggers.Main)
	leaveService := services.NewEmployeeLeaveService(txManager, leaveRepo, userRepo, teamRepo, unitRepo, deps.Notifier, deps.Metrics, loggers.Leave)
	externalService := services.NewExternalAuthorizationService(txManager, externalRepo, userRepo, teamRepo, unitRepo, deps.Notifier, deps.Metrics, loggers.Leave)
	exitService := services.NewTeamExitPermissionService(txManager, exitRepo, userRepo, teamRepo, unitRepo, deps.Notifier, deps.Metrics, loggers.Leave)
	teamLeaveService := services.NewTeamLeaveService(txManager, teamLeaveRepo, userRepo, teamRepo, unitRepo, deps.Notifier, deps.Metrics, loggers.Leave)
	reportService := services.NewReportService(reportRepo, loggers.Leave)
	telegramLinkService := services.NewTelegramLinkService(txManager, userRepo, cacheRepo, deps.Telegram, loggers.User)

	// --- 3. КОНТРОЛЛЕРЫ ---
	authController := controllers.NewAuthController(authService, deps.JWT, loggers.Auth)
	userController := controllers.NewUserController(userService, adService, loggers.User)
	teamController := controllers.NewTeamController(teamService, loggers.Main)
	unitController := controllers.NewOrganizationalUnitController(unitService, loggers.Main)
	leaveController := controllers.NewEmployeeLeaveController(leaveService, loggers.Leave)
	externalController := controllers.NewExternalAuthorizationController(externalService, loggers.Leave)
	exitController := controllers.NewTeamExitPermissionController(exitService, loggers.Leave)
	teamLeaveController := controllers.NewTeamLeaveController(teamLeaveService, loggers.Leave)
	reportController := controllers.NewReportController(reportService, loggers.Leave)
	telegramController := controllers.NewTelegramController(telegramLinkService, loggers.User)
	wsController := controllers.NewWebSocketController(deps.Hub, deps.JWT, cfg.Server.AllowedOrigins, loggers.Main)
	healthController := controllers.NewHealthController(map[string]controllers.Pinger{
		"postgres": deps.DB,
		"redis":    redisPinger{client: deps.Redis},
	}, loggers.Main)

	// --- 4. РОУТЕРЫ ---
	e.GET("/health", healthController.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/ws", wsController.ServeWs)

	runAuthRouter(api, authController)

	secureGroup := api.Group("", authMW.Auth, middleware.RequireRoleForPath(authz.NewGatekeeper(), loggers.Auth))

	runEmployeeLeaveRouter(secureGroup, leaveController, reportController)
	runExternalAuthorizationRouter(secureGroup, externalController)
	runTeamExitPermissionRouter(secureGroup, exitController)
	runTeamLeaveRouter(secureGroup, teamLeaveController)
	runTeamRouter(secureGroup, teamController)
	runOrganizationalUnitRouter(secureGroup, unitController)
	runUserRouter(secureGroup, userController)
	runTelegramRouter(api, secureGroup, telegramController, deps.Telegram, cfg.Telegram, loggers.Main)

	loggers.Main.Info("InitRouter: Создание маршрутов завершено")
}
