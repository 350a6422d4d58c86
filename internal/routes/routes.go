package routes

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"it-inventory/internal/controllers"
	"it-inventory/internal/repositories"
	"it-inventory/internal/services"
	"it-inventory/pkg/config"
	"it-inventory/pkg/filestorage"
	"it-inventory/pkg/metrics"
	"it-inventory/pkg/middleware"
	"it-inventory/pkg/pdf"
	"it-inventory/pkg/service"
)

type Loggers struct {
	Main      *zap.Logger
	Auth      *zap.Logger
	Equipment *zap.Logger
	Custody   *zap.Logger
	User      *zap.Logger
}

// InitRouter собирает репозитории, сервисы и контроллеры и регистрирует маршруты.
// e.Validator должен быть установлен до вызова: импорт из Excel использует его же.
func InitRouter(
	e *echo.Echo,
	db repositories.DB,
	redisClient *redis.Client,
	jwtSvc service.JWTService,
	cfg *config.Config,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	loggers *Loggers,
) error {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	fileStorage, err := filestorage.NewLocalFileStorage(cfg.Storage.BasePath)
	if err != nil {
		return fmt.Errorf("не удалось создать файловое хранилище: %w", err)
	}
	renderer, err := pdf.NewRenderer(cfg.PDF.FontDir)
	if err != nil {
		return fmt.Errorf("не удалось подготовить генератор актов: %w", err)
	}
	txManager := repositories.NewTxManager(db, cfg.Postgres.TxTimeout)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	authMW := middleware.NewAuthMiddleware(jwtSvc, cacheRepo, loggers.Auth)

	// --- 1. РЕПОЗИТОРИИ ---
	equipmentRepo := repositories.NewEquipmentRepository(db)
	custodyRepo := repositories.NewCustodyRepository(db)
	transferRepo := repositories.NewTransferRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// --- 2. СЕРВИСЫ ---
	auditService := services.NewAuditService(historyRepo, loggers.Main)
	historyService := services.NewHistoryService(historyRepo, loggers.Main)
	custodyService := services.NewCustodyService(txManager, custodyRepo, transferRepo, equipmentRepo, auditService, fileStorage, m, loggers.Custody)
	equipmentService := services.NewEquipmentService(txManager, equipmentRepo, custodyService, auditService, loggers.Equipment)
	lifecycleService := services.NewLifecycleService(txManager, equipmentRepo, custodyRepo, auditService, m, loggers.Equipment)
	handoverService := services.NewHandoverService(custodyService, renderer, fileStorage, cfg.PDF, loggers.Custody)
	excelService := services.NewExcelService(equipmentService, e.Validator, equipmentRepo, custodyRepo, transferRepo, historyRepo, userRepo, loggers.Equipment)
	authService := services.NewAuthService(txManager, userRepo, cacheRepo, auditService, jwtSvc, cfg.Auth, m, loggers.Auth)
	userService := services.NewUserService(txManager, userRepo, auditService, loggers.User)

	// --- 3. КОНТРОЛЛЕРЫ ---
	authCtrl := controllers.NewAuthController(authService, loggers.Auth)
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, excelService, loggers.Equipment)
	lifecycleCtrl := controllers.NewLifecycleController(lifecycleService, loggers.Equipment)
	custodyCtrl := controllers.NewCustodyController(custodyService, loggers.Custody)
	handoverCtrl := controllers.NewHandoverController(handoverService, loggers.Custody)
	historyCtrl := controllers.NewHistoryController(historyService, loggers.Main)
	userCtrl := controllers.NewUserController(userService, loggers.User)
	exportCtrl := controllers.NewExportController(excelService, loggers.Main)

	// --- 4. РОУТЕРЫ ---
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, authCtrl, authMW)
	runEquipmentRouter(secureGroup, equipmentCtrl, lifecycleCtrl)
	runCustodyRouter(secureGroup, custodyCtrl, handoverCtrl)
	runHistoryRouter(secureGroup, historyCtrl)
	runUserRouter(secureGroup, userCtrl, authMW)
	runExportRouter(secureGroup, exportCtrl)

	loggers.Main.Info("INIT_ROUTER: Создание маршрутов завершено")
	return nil
}
