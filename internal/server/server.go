// Пакет server — HTTP-сервер User Module.
// Собирает маршруты chi, навешивает middleware и управляет
// graceful shutdown по SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arturkryukov/whiteportal/user-module/internal/api/handlers"
	"github.com/arturkryukov/whiteportal/user-module/internal/api/middleware"
	"github.com/arturkryukov/whiteportal/user-module/internal/config"
	"github.com/arturkryukov/whiteportal/user-module/internal/domain/rbac"
	uihandlers "github.com/arturkryukov/whiteportal/user-module/internal/ui/handlers"
)

// Server — HTTP-сервер User Module.
type Server struct {
	httpServer      *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// NewServer создаёт HTTP-сервер с настроенными маршрутами.
func NewServer(
	cfg *config.Config,
	jwtAuth *middleware.JWTAuth,
	usersHandler *uihandlers.UsersHandler,
	healthHandler *handlers.HealthHandler,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	// Глобальные middleware: метрики и логирование всех запросов
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Health endpoints и метрики — без аутентификации
	// (нужны kubelet и Prometheus)
	router.Get("/health/live", healthHandler.HealthLive)
	router.Get("/health/ready", healthHandler.HealthReady)
	router.Get("/metrics", healthHandler.Metrics)

	// Администрирование учётных записей — только для администраторов портала
	router.Group(func(r chi.Router) {
		r.Use(jwtAuth.Middleware())
		r.Use(middleware.RequireRole(rbac.RoleAdmin))

		r.Get("/user/userList", usersHandler.HandleUserList)
		r.Get("/user/userDetail", usersHandler.HandleUserDetail)
		r.Get("/user/userDetail/{id}", usersHandler.HandleUserDetail)
		r.Post("/user/userDetail", usersHandler.HandleUserDetailPost)
		r.Get("/user/userInsert", usersHandler.HandleUserInsertForm)
		r.Post("/user/userInsert", usersHandler.HandleUserInsert)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:          logger.With(slog.String("component", "server")),
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Run запускает сервер и блокируется до SIGINT/SIGTERM или ошибки.
// После сигнала выполняется graceful shutdown с таймаутом.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP-сервер запущен", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("работа HTTP-сервера: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Получен сигнал завершения, останавливаем сервер")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("остановка HTTP-сервера: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
