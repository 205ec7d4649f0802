// Пакет model — доменные модели User Module.
package model

import "time"

// UserRecord — учётная запись пользователя White Portal.
// Хранится в таблице users.
type UserRecord struct {
	// UserID — идентификатор пользователя (первичный ключ, неизменяем после создания)
	UserID string
	// UserName — отображаемое имя пользователя
	UserName string
	// PasswordHash — хэш пароля (argon2id, PHC-формат).
	// Write-only: никогда не отдаётся в представления.
	PasswordHash string
	// Role — роль учётной записи (admin, general)
	Role string
	// DarkMode — тёмная тема интерфейса.
	// Устанавливается только при создании, поток редактирования её не меняет.
	DarkMode bool
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}
