package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/whiteportal/user-module/internal/domain/model"
)

// UserRepository — интерфейс CRUD для таблицы users.
type UserRepository interface {
	// FindAll возвращает все учётные записи, отсортированные по user_id.
	FindAll(ctx context.Context) ([]*model.UserRecord, error)
	// FindOne возвращает учётную запись по user_id.
	FindOne(ctx context.Context, userID string) (*model.UserRecord, error)
	// Insert создаёт учётную запись. При дубликате user_id возвращает ErrConflict.
	Insert(ctx context.Context, user *model.UserRecord) error
	// UpdateProfile обновляет user_name и role. Хэш пароля и dark_mode не трогаются.
	UpdateProfile(ctx context.Context, userID, userName, role string) error
	// UpdateProfileAndPassword обновляет user_name, role и хэш пароля. dark_mode не трогается.
	UpdateProfileAndPassword(ctx context.Context, userID, userName, role, passwordHash string) error
	// Delete удаляет учётную запись. Возвращает количество удалённых строк.
	Delete(ctx context.Context, userID string) (int64, error)
}

// userRepo — реализация UserRepository.
type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий учётных записей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `user_id, user_name, password_hash, role, dark_mode, created_at, updated_at`

func (r *userRepo) FindAll(ctx context.Context) ([]*model.UserRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY user_id`, userColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	defer rows.Close()

	var result []*model.UserRecord
	for rows.Next() {
		u := &model.UserRecord{}
		if err := rows.Scan(
			&u.UserID, &u.UserName, &u.PasswordHash, &u.Role,
			&u.DarkMode, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *userRepo) FindOne(ctx context.Context, userID string) (*model.UserRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE user_id = $1`, userColumns)

	u := &model.UserRecord{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&u.UserID, &u.UserName, &u.PasswordHash, &u.Role,
		&u.DarkMode, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}

func (r *userRepo) Insert(ctx context.Context, user *model.UserRecord) error {
	query := `
		INSERT INTO users (user_id, user_name, password_hash, role, dark_mode)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.UserID, user.UserName, user.PasswordHash, user.Role, user.DarkMode,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, userID, userName, role string) error {
	query := `
		UPDATE users
		SET user_name = $2, role = $3, updated_at = now()
		WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID, userName, role)
	if err != nil {
		return fmt.Errorf("ошибка обновления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) UpdateProfileAndPassword(ctx context.Context, userID, userName, role, passwordHash string) error {
	query := `
		UPDATE users
		SET user_name = $2, role = $3, password_hash = $4, updated_at = now()
		WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID, userName, role, passwordHash)
	if err != nil {
		return fmt.Errorf("ошибка обновления пользователя с паролем: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления пользователя: %w", err)
	}
	return tag.RowsAffected(), nil
}
