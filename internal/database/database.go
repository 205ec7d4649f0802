// Пакет database — хранилище учётных записей User Module:
// пул подключений pgxpool с размерами из конфигурации, миграции схемы users
// (golang-migrate поверх встроенных SQL-файлов) и readiness-проверка для probe.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arturkryukov/whiteportal/user-module/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connect открывает пул подключений к хранилищу учётных записей.
// Размеры пула берутся из UM_DB_MAX_CONNS/UM_DB_MIN_CONNS, первый ping
// ограничен UM_DB_CONNECT_TIMEOUT.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	log := logger.With(slog.String("component", "database"))

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("парсинг DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConns) //nolint:gosec // размер пула валидирован в config.Load
	poolCfg.MinConns = int32(cfg.DBMinConns) //nolint:gosec // размер пула валидирован в config.Load

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("создание пула подключений: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("хранилище учётных записей недоступно: %w", err)
	}

	log.Info("Пул подключений к хранилищу учётных записей открыт",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
		slog.Int("max_conns", cfg.DBMaxConns),
		slog.Int("min_conns", cfg.DBMinConns),
	)

	return pool, nil
}

// Migrate приводит схему users к актуальной версии.
// Вызывается при старте до открытия пула: процесс не принимает запросы
// на недомигрированной схеме.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	log := logger.With(slog.String("component", "database"))

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.MigrationURL())
	if err != nil {
		return fmt.Errorf("инициализация миграций: %w", err)
	}
	defer m.Close()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("Схема users актуальна, миграции не требуются")
	case err != nil:
		return fmt.Errorf("применение миграций: %w", err)
	default:
		version, dirty, _ := m.Version()
		log.Info("Схема users мигрирована",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	}

	return nil
}

// ReadinessChecker — проверка готовности хранилища для /health/ready.
// Реализует интерфейс handlers.ReadinessChecker.
type ReadinessChecker struct {
	pool *pgxpool.Pool
}

// NewReadinessChecker создаёт проверку готовности хранилища учётных записей.
func NewReadinessChecker(pool *pgxpool.Pool) *ReadinessChecker {
	return &ReadinessChecker{pool: pool}
}

// CheckReady пингует пул. Возвращает статус ("ok", "fail") и сообщение.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.pool.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("хранилище учётных записей недоступно: %v", err)
	}
	return "ok", "подключение активно"
}
