// Пакет handlers — HTML-обработчики администрирования учётных записей.
// users.go — экран списка пользователей, карточка пользователя
// (редактирование и удаление) и форма создания.
//
// Маршруты:
//
//	GET  /user/userList        — список пользователей
//	GET  /user/userDetail/{id} — карточка пользователя
//	POST /user/userDetail      — сохранение (поле update) или удаление (поле delete)
//	GET  /user/userInsert      — форма создания
//	POST /user/userInsert      — создание учётной записи
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arturkryukov/whiteportal/user-module/internal/api/middleware"
	"github.com/arturkryukov/whiteportal/user-module/internal/domain/model"
	"github.com/arturkryukov/whiteportal/user-module/internal/domain/rbac"
	"github.com/arturkryukov/whiteportal/user-module/internal/service"
	"github.com/arturkryukov/whiteportal/user-module/internal/ui/view"
)

// UserDirectory — каталог учётных записей, нужный обработчикам.
type UserDirectory interface {
	FindAll(ctx context.Context) ([]*model.UserRecord, error)
	FindOne(ctx context.Context, userID string) (*model.UserRecord, error)
	Insert(ctx context.Context, userID, password, userName, role string) (int, error)
	UpdateProfile(ctx context.Context, userID, userName, role string) (bool, error)
	UpdateProfileAndPassword(ctx context.Context, userID, userName, role, password string) (bool, error)
	Delete(ctx context.Context, userID string) (int64, error)
}

// UsersHandler — обработчики администрирования учётных записей.
type UsersHandler struct {
	directory UserDirectory
	renderer  view.Renderer
	logger    *slog.Logger
}

// NewUsersHandler создаёт обработчики администрирования учётных записей.
func NewUsersHandler(directory UserDirectory, renderer view.Renderer, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		directory: directory,
		renderer:  renderer,
		logger:    logger.With(slog.String("component", "users_handler")),
	}
}

// principal возвращает имя вызывающего для audit-логов.
func principal(ctx context.Context) string {
	claims := middleware.ClaimsFromContext(ctx)
	if claims == nil {
		return "unknown"
	}
	return claims.Principal()
}

// HandleUserList обрабатывает GET /user/userList.
func (h *UsersHandler) HandleUserList(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, "")
}

// HandleUserDetail обрабатывает GET /user/userDetail/{id}.
// Если запись не найдена — карточка рендерится с пустой формой
// и сообщением, без отдельной страницы ошибки.
func (h *UsersHandler) HandleUserDetail(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		h.renderDetail(w, r, UserUpdateForm{}, nil, "")
		return
	}

	h.logger.InfoContext(r.Context(), "Поиск учётной записи",
		slog.String("principal", principal(r.Context())),
		slog.String("user_id", userID),
	)

	user, err := h.directory.FindOne(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.renderDetail(w, r, UserUpdateForm{}, nil, "Пользователь не найден")
			return
		}
		h.serverError(w, r, "получение пользователя", err)
		return
	}

	form := UserUpdateForm{
		UserID:   user.UserID,
		UserName: user.UserName,
		Role:     user.Role,
		DarkMode: user.DarkMode,
		// Пароль в форму никогда не подставляется
	}
	h.renderDetail(w, r, form, nil, "")
}

// HandleUserDetailPost обрабатывает POST /user/userDetail.
// Действие определяется именем нажатой кнопки: update — сохранение,
// delete — удаление.
func (h *UsersHandler) HandleUserDetailPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Некорректные данные формы", http.StatusBadRequest)
		return
	}

	switch {
	case r.PostForm.Has("update"):
		h.handleUpdate(w, r)
	case r.PostForm.Has("delete"):
		h.handleDelete(w, r)
	default:
		http.Error(w, "Неизвестное действие формы", http.StatusBadRequest)
	}
}

// handleUpdate сохраняет карточку пользователя.
// Пустой пароль означает "не менять пароль".
func (h *UsersHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	form := parseUpdateForm(r)

	if errs := form.Validate(); len(errs) > 0 {
		h.renderDetail(w, r, form, errs, "")
		return
	}

	var (
		updated bool
		err     error
	)
	if form.Password == "" {
		updated, err = h.directory.UpdateProfile(r.Context(), form.UserID, form.UserName, form.Role)
	} else {
		updated, err = h.directory.UpdateProfileAndPassword(r.Context(), form.UserID, form.UserName, form.Role, form.Password)
	}
	if err != nil {
		h.serverError(w, r, "обновление пользователя", err)
		return
	}

	message := "Пользователь " + form.UserID + " обновлён"
	if !updated {
		message = "Пользователь " + form.UserID + " не найден, изменения не сохранены"
	}

	h.logger.InfoContext(r.Context(), "Обновление учётной записи",
		slog.String("principal", principal(r.Context())),
		slog.String("user_id", form.UserID),
		slog.String("role", form.Role),
		slog.Bool("updated", updated),
		slog.Bool("password_changed", form.Password != ""),
	)

	h.renderList(w, r, message)
}

// handleDelete удаляет учётную запись.
func (h *UsersHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID := r.PostFormValue("user_id")
	if userID == "" {
		http.Error(w, "Не указан идентификатор пользователя", http.StatusBadRequest)
		return
	}

	affected, err := h.directory.Delete(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, "удаление пользователя", err)
		return
	}

	message := "Пользователь " + userID + " удалён"
	if affected == 0 {
		message = "Пользователь " + userID + " не найден, ничего не удалено"
	}

	h.logger.InfoContext(r.Context(), "Удаление учётной записи",
		slog.String("principal", principal(r.Context())),
		slog.String("user_id", userID),
		slog.Int64("affected", affected),
	)

	h.renderList(w, r, message)
}

// HandleUserInsertForm обрабатывает GET /user/userInsert.
func (h *UsersHandler) HandleUserInsertForm(w http.ResponseWriter, r *http.Request) {
	h.renderInsert(w, r, UserInsertForm{}, nil, "")
}

// HandleUserInsert обрабатывает POST /user/userInsert.
func (h *UsersHandler) HandleUserInsert(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Некорректные данные формы", http.StatusBadRequest)
		return
	}

	form := parseInsertForm(r)

	if errs := form.Validate(); len(errs) > 0 {
		h.renderInsert(w, r, form, errs, "")
		return
	}

	count, err := h.directory.Insert(r.Context(), form.UserID, form.Password, form.UserName, form.Role)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			h.renderInsert(w, r, form, map[string]string{
				"user_id": "Идентификатор уже занят",
			}, "")
			return
		}
		if errors.Is(err, service.ErrInvalidRole) {
			h.renderInsert(w, r, form, map[string]string{
				"role": "Выберите роль",
			}, "")
			return
		}
		h.serverError(w, r, "создание пользователя", err)
		return
	}

	// Пароль в лог не пишется
	h.logger.InfoContext(r.Context(), "Создание учётной записи",
		slog.String("principal", principal(r.Context())),
		slog.String("user_id", form.UserID),
		slog.String("role", form.Role),
		slog.Int("count", count),
	)

	h.renderList(w, r, "Пользователь "+form.UserID+" создан")
}

// renderList рендерит список пользователей с опциональным сообщением.
func (h *UsersHandler) renderList(w http.ResponseWriter, r *http.Request, message string) {
	users, err := h.directory.FindAll(r.Context())
	if err != nil {
		h.serverError(w, r, "получение списка пользователей", err)
		return
	}

	h.render(w, r, "user/userList", view.Data{
		"users":   users,
		"message": message,
	})
}

// renderDetail рендерит карточку пользователя.
// Варианты роли прикладываются всегда, даже при ошибках и "не найден".
func (h *UsersHandler) renderDetail(w http.ResponseWriter, r *http.Request, form UserUpdateForm, errs map[string]string, message string) {
	if errs == nil {
		errs = map[string]string{}
	}
	form.Password = ""

	h.render(w, r, "user/userDetail", view.Data{
		"form":        form,
		"roleOptions": rbac.RoleOptions(),
		"errors":      errs,
		"message":     message,
	})
}

// renderInsert рендерит форму создания пользователя.
func (h *UsersHandler) renderInsert(w http.ResponseWriter, r *http.Request, form UserInsertForm, errs map[string]string, message string) {
	if errs == nil {
		errs = map[string]string{}
	}
	form.Password = ""

	h.render(w, r, "user/userInsert", view.Data{
		"form":        form,
		"roleOptions": rbac.RoleOptions(),
		"errors":      errs,
		"message":     message,
	})
}

// render рендерит представление и обрабатывает ошибку рендеринга.
func (h *UsersHandler) render(w http.ResponseWriter, r *http.Request, viewName string, data view.Data) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(r.Context(), w, viewName, data); err != nil {
		h.logger.ErrorContext(r.Context(), "Ошибка рендеринга",
			slog.String("view", viewName),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}

// serverError логирует ошибку и возвращает 500.
func (h *UsersHandler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), "Ошибка обработки запроса",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
}
