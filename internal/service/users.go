// Пакет service — бизнес-логика User Module.
// users.go — каталог учётных записей (UserDirectory): CRUD поверх репозитория,
// хэширование паролей и контроль уникальности user_id.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arturkryukov/whiteportal/user-module/internal/domain/model"
	"github.com/arturkryukov/whiteportal/user-module/internal/domain/rbac"
	"github.com/arturkryukov/whiteportal/user-module/internal/repository"
)

// UserDirectory — каталог учётных записей пользователей.
// Владеет хэшированием паролей: обработчики передают сюда пароль открытым
// текстом, в БД попадает только хэш.
type UserDirectory struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

// NewUserDirectory создаёт каталог учётных записей.
func NewUserDirectory(repo repository.UserRepository, logger *slog.Logger) *UserDirectory {
	return &UserDirectory{
		repo:   repo,
		logger: logger.With(slog.String("component", "user_directory")),
	}
}

// FindAll возвращает все учётные записи.
func (d *UserDirectory) FindAll(ctx context.Context) ([]*model.UserRecord, error) {
	users, err := d.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение списка пользователей: %w", err)
	}
	return users, nil
}

// FindOne возвращает учётную запись по user_id.
// Если запись не найдена — возвращает ErrNotFound.
func (d *UserDirectory) FindOne(ctx context.Context, userID string) (*model.UserRecord, error) {
	user, err := d.repo.FindOne(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return user, nil
}

// Insert создаёт учётную запись. Пароль принимается открытым текстом
// и хэшируется здесь. Возвращает количество созданных записей (0 или 1).
// При дубликате user_id возвращает (0, ErrConflict).
func (d *UserDirectory) Insert(ctx context.Context, userID, password, userName, role string) (int, error) {
	if !rbac.IsValidRole(role) {
		return 0, ErrInvalidRole
	}

	hash, err := HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("хэширование пароля: %w", err)
	}

	user := &model.UserRecord{
		UserID:       userID,
		UserName:     userName,
		PasswordHash: hash,
		Role:         role,
		// DarkMode задаётся пользователем после входа, при создании — false
	}

	if err := d.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("создание пользователя: %w", err)
	}

	d.logger.Info("Учётная запись создана",
		slog.String("user_id", userID),
		slog.String("role", role),
	)
	return 1, nil
}

// UpdateProfile обновляет имя и роль учётной записи, не трогая пароль и dark_mode.
// Возвращает true при успехе, false если запись не найдена.
func (d *UserDirectory) UpdateProfile(ctx context.Context, userID, userName, role string) (bool, error) {
	if !rbac.IsValidRole(role) {
		return false, ErrInvalidRole
	}

	err := d.repo.UpdateProfile(ctx, userID, userName, role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("обновление пользователя: %w", err)
	}
	return true, nil
}

// UpdateProfileAndPassword обновляет имя, роль и пароль учётной записи.
// Пароль принимается открытым текстом и хэшируется здесь. dark_mode не меняется.
// Возвращает true при успехе, false если запись не найдена.
func (d *UserDirectory) UpdateProfileAndPassword(ctx context.Context, userID, userName, role, password string) (bool, error) {
	if !rbac.IsValidRole(role) {
		return false, ErrInvalidRole
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("хэширование пароля: %w", err)
	}

	err = d.repo.UpdateProfileAndPassword(ctx, userID, userName, role, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("обновление пользователя с паролем: %w", err)
	}
	return true, nil
}

// Delete удаляет учётную запись. Возвращает количество удалённых строк.
func (d *UserDirectory) Delete(ctx context.Context, userID string) (int64, error) {
	affected, err := d.repo.Delete(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("удаление пользователя: %w", err)
	}

	d.logger.Info("Учётная запись удалена",
		slog.String("user_id", userID),
		slog.Int64("affected", affected),
	)
	return affected, nil
}
