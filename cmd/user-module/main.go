// User Module — сервис администрирования учётных записей White Portal.
//
// Отвечает за экраны списка, карточки и создания пользователей,
// хранит учётные записи в PostgreSQL и проверяет JWT от Keycloak.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	apihandlers "github.com/arturkryukov/whiteportal/user-module/internal/api/handlers"
	"github.com/arturkryukov/whiteportal/user-module/internal/api/middleware"
	"github.com/arturkryukov/whiteportal/user-module/internal/config"
	"github.com/arturkryukov/whiteportal/user-module/internal/database"
	"github.com/arturkryukov/whiteportal/user-module/internal/repository"
	"github.com/arturkryukov/whiteportal/user-module/internal/server"
	"github.com/arturkryukov/whiteportal/user-module/internal/service"
	uihandlers "github.com/arturkryukov/whiteportal/user-module/internal/ui/handlers"
	"github.com/arturkryukov/whiteportal/user-module/internal/ui/view"
)

// serviceID — имя вершины графа зависимостей в topologymetrics.
const serviceID = "user-module"

func main() {
	if err := run(); err != nil {
		slog.Error("Фатальная ошибка", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Конфигурация и логирование
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.SetupLogger(cfg)
	logger.Info("User Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// Миграции применяются до открытия пула
	if err := database.Migrate(cfg, logger); err != nil {
		return err
	}

	// Пул подключений к PostgreSQL
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	// *sql.DB поверх pgxpool — для pgcheck (topologymetrics)
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	// Каталог учётных записей
	userRepo := repository.NewUserRepository(pool)
	directory := service.NewUserDirectory(userRepo, logger)

	// JWT-аутентификация через JWKS Keycloak
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWTJWKSURL,
		cfg.CACertPath,
		cfg.JWTIssuer,
		cfg.RoleAdminGroups,
		cfg.RoleGeneralGroups,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		return err
	}

	// Рендерер HTML-представлений
	renderer, err := view.NewHTMLRenderer(logger)
	if err != nil {
		return err
	}

	// Обработчики
	usersHandler := uihandlers.NewUsersHandler(directory, renderer, logger)
	healthHandler := apihandlers.NewHealthHandler(
		database.NewReadinessChecker(pool),
		service.NewKeycloakChecker(cfg.JWTJWKSURL, nil),
	)

	// Мониторинг зависимостей (topologymetrics)
	dephealthSvc, err := service.NewDephealthService(
		serviceID,
		cfg.DephealthGroup,
		sqlDB,
		cfg.DatabaseURL(),
		cfg.JWTJWKSURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if err != nil {
		return err
	}
	if err := dephealthSvc.Start(ctx); err != nil {
		return err
	}
	defer dephealthSvc.Stop()

	// HTTP-сервер с graceful shutdown
	srv := server.NewServer(cfg, jwtAuth, usersHandler, healthHandler, logger)
	return srv.Run(ctx)
}
