// forms.go — формы администрирования учётных записей и их валидация.
package handlers

import (
	"net/http"
	"strings"

	"github.com/arturkryukov/whiteportal/user-module/internal/domain/rbac"
)

// UserUpdateForm — форма редактирования учётной записи.
// Пароль не привязывается обратно к форме и не рендерится.
type UserUpdateForm struct {
	UserID   string
	UserName string
	Role     string
	// DarkMode — тёмная тема записи. Только для отображения:
	// поток редактирования её не меняет.
	DarkMode bool
	// Password — новый пароль. Пустое значение означает "не менять".
	Password string
}

// parseUpdateForm извлекает форму редактирования из POST-запроса.
func parseUpdateForm(r *http.Request) UserUpdateForm {
	return UserUpdateForm{
		UserID:   strings.TrimSpace(r.PostFormValue("user_id")),
		UserName: strings.TrimSpace(r.PostFormValue("user_name")),
		Role:     r.PostFormValue("role"),
		Password: r.PostFormValue("password"),
	}
}

// Validate проверяет форму редактирования.
// Возвращает map поле → сообщение; пустая map означает успех.
func (f UserUpdateForm) Validate() map[string]string {
	errs := make(map[string]string)
	if f.UserID == "" {
		errs["user_id"] = "Укажите идентификатор пользователя"
	}
	if f.UserName == "" {
		errs["user_name"] = "Укажите имя пользователя"
	}
	if !rbac.IsValidRole(f.Role) {
		errs["role"] = "Выберите роль"
	}
	return errs
}

// UserInsertForm — форма создания учётной записи.
// Пароль не привязывается обратно к форме и не рендерится.
type UserInsertForm struct {
	UserID   string
	UserName string
	Role     string
	Password string
}

// parseInsertForm извлекает форму создания из POST-запроса.
func parseInsertForm(r *http.Request) UserInsertForm {
	return UserInsertForm{
		UserID:   strings.TrimSpace(r.PostFormValue("user_id")),
		UserName: strings.TrimSpace(r.PostFormValue("user_name")),
		Role:     r.PostFormValue("role"),
		Password: r.PostFormValue("password"),
	}
}

// Validate проверяет форму создания. При создании пароль обязателен.
func (f UserInsertForm) Validate() map[string]string {
	errs := make(map[string]string)
	if f.UserID == "" {
		errs["user_id"] = "Укажите идентификатор пользователя"
	}
	if f.Password == "" {
		errs["password"] = "Укажите пароль"
	}
	if f.UserName == "" {
		errs["user_name"] = "Укажите имя пользователя"
	}
	if !rbac.IsValidRole(f.Role) {
		errs["role"] = "Выберите роль"
	}
	return errs
}
