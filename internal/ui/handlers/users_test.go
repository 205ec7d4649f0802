package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/arturkryukov/whiteportal/user-module/internal/api/middleware"
	"github.com/arturkryukov/whiteportal/user-module/internal/domain/model"
	"github.com/arturkryukov/whiteportal/user-module/internal/domain/rbac"
	"github.com/arturkryukov/whiteportal/user-module/internal/service"
	"github.com/arturkryukov/whiteportal/user-module/internal/ui/view"
)

// fakeDirectory — in-memory каталог учётных записей для тестов.
// Записывает вызовы методов обновления для проверки маршрутизации
// "пустой пароль → профиль без пароля".
type fakeDirectory struct {
	users map[string]*model.UserRecord

	updateProfileCalled            bool
	updateProfileAndPasswordCalled bool

	failFindAll bool
}

func newFakeDirectory(users ...*model.UserRecord) *fakeDirectory {
	d := &fakeDirectory{users: make(map[string]*model.UserRecord)}
	for _, u := range users {
		d.users[u.UserID] = u
	}
	return d
}

func (d *fakeDirectory) FindAll(_ context.Context) ([]*model.UserRecord, error) {
	if d.failFindAll {
		return nil, errors.New("база недоступна")
	}
	out := make([]*model.UserRecord, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	return out, nil
}

func (d *fakeDirectory) FindOne(_ context.Context, userID string) (*model.UserRecord, error) {
	u, ok := d.users[userID]
	if !ok {
		return nil, service.ErrNotFound
	}
	return u, nil
}

func (d *fakeDirectory) Insert(_ context.Context, userID, _, userName, role string) (int, error) {
	if _, ok := d.users[userID]; ok {
		return 0, service.ErrConflict
	}
	d.users[userID] = &model.UserRecord{UserID: userID, UserName: userName, Role: role}
	return 1, nil
}

func (d *fakeDirectory) UpdateProfile(_ context.Context, userID, userName, role string) (bool, error) {
	d.updateProfileCalled = true
	u, ok := d.users[userID]
	if !ok {
		return false, nil
	}
	u.UserName = userName
	u.Role = role
	return true, nil
}

func (d *fakeDirectory) UpdateProfileAndPassword(_ context.Context, userID, userName, role, _ string) (bool, error) {
	d.updateProfileAndPasswordCalled = true
	u, ok := d.users[userID]
	if !ok {
		return false, nil
	}
	u.UserName = userName
	u.Role = role
	return true, nil
}

func (d *fakeDirectory) Delete(_ context.Context, userID string) (int64, error) {
	if _, ok := d.users[userID]; !ok {
		return 0, nil
	}
	delete(d.users, userID)
	return 1, nil
}

// fakeRenderer — рендерер, запоминающий имя представления и атрибуты.
type fakeRenderer struct {
	view string
	data view.Data
}

func (f *fakeRenderer) Render(_ context.Context, w io.Writer, viewName string, data view.Data) error {
	f.view = viewName
	f.data = data
	_, err := io.WriteString(w, "<!-- "+viewName+" -->")
	return err
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestHandler(dir *fakeDirectory) (*UsersHandler, *fakeRenderer) {
	renderer := &fakeRenderer{}
	return NewUsersHandler(dir, renderer, testLogger()), renderer
}

// getDetail выполняет GET /user/userDetail/{id} с chi route context.
func getDetail(h *UsersHandler, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/user/userDetail/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.HandleUserDetail(rec, req)
	return rec
}

// postForm выполняет POST с form-urlencoded телом.
func postForm(handler http.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleUserList(t *testing.T) {
	dir := newFakeDirectory(
		&model.UserRecord{UserID: "u1", UserName: "Тарас", Role: rbac.RoleAdmin},
		&model.UserRecord{UserID: "u2", UserName: "Олена", Role: rbac.RoleGeneral},
	)
	h, renderer := newTestHandler(dir)

	req := httptest.NewRequest(http.MethodGet, "/user/userList", nil)
	rec := httptest.NewRecorder()
	h.HandleUserList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if renderer.view != "user/userList" {
		t.Errorf("представление = %q, ожидается user/userList", renderer.view)
	}
	users, ok := renderer.data["users"].([]*model.UserRecord)
	if !ok || len(users) != 2 {
		t.Errorf("в представление передано %d пользователей, ожидается 2", len(users))
	}
}

func TestHandleUserList_DirectoryError(t *testing.T) {
	dir := newFakeDirectory()
	dir.failFindAll = true
	h, _ := newTestHandler(dir)

	req := httptest.NewRequest(http.MethodGet, "/user/userList", nil)
	rec := httptest.NewRecorder()
	h.HandleUserList(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("статус = %d, ожидается 500", rec.Code)
	}
}

func TestHandleUserDetail(t *testing.T) {
	dir := newFakeDirectory(&model.UserRecord{
		UserID:       "u1",
		UserName:     "Тарас",
		PasswordHash: "$argon2id$...",
		Role:         rbac.RoleAdmin,
		DarkMode:     true,
	})
	h, renderer := newTestHandler(dir)

	rec := getDetail(h, "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if renderer.view != "user/userDetail" {
		t.Errorf("представление = %q, ожидается user/userDetail", renderer.view)
	}

	form, ok := renderer.data["form"].(UserUpdateForm)
	if !ok {
		t.Fatal("форма не передана в представление")
	}
	if form.UserID != "u1" || form.UserName != "Тарас" || form.Role != rbac.RoleAdmin {
		t.Errorf("форма заполнена неверно: %+v", form)
	}
	// Тёмная тема записи отображается на карточке
	if !form.DarkMode {
		t.Error("DarkMode записи не попал в форму")
	}
	// Пароль (ни хэш, ни открытый текст) никогда не попадает в форму
	if form.Password != "" {
		t.Error("пароль не должен подставляться в форму")
	}

	options, ok := renderer.data["roleOptions"].([]rbac.RoleOption)
	if !ok || len(options) != 2 {
		t.Fatal("варианты роли не приложены к представлению")
	}
	if options[0].Label != "Admin" || options[1].Label != "General" {
		t.Errorf("порядок вариантов роли нарушен: %+v", options)
	}
}

func TestHandleUserDetail_NotFound(t *testing.T) {
	dir := newFakeDirectory()
	h, renderer := newTestHandler(dir)

	rec := getDetail(h, "ghost")
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if renderer.view != "user/userDetail" {
		t.Errorf("представление = %q, ожидается user/userDetail", renderer.view)
	}
	if renderer.data["message"] != "Пользователь не найден" {
		t.Errorf("сообщение = %q, ожидается 'Пользователь не найден'", renderer.data["message"])
	}
	form := renderer.data["form"].(UserUpdateForm)
	if form.UserID != "" {
		t.Error("для не найденного пользователя форма должна быть пустой")
	}
	if _, ok := renderer.data["roleOptions"]; !ok {
		t.Error("варианты роли должны прикладываться и для не найденного пользователя")
	}
}

func TestHandleUserDetail_AuditLog(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	dir := newFakeDirectory(&model.UserRecord{UserID: "u1", UserName: "Тарас", Role: rbac.RoleAdmin})
	h := NewUsersHandler(dir, &fakeRenderer{}, logger)

	req := httptest.NewRequest(http.MethodGet, "/user/userDetail/u1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "u1")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.ContextKeyClaims, &middleware.AuthClaims{
		Subject:           "kc-user-1",
		PreferredUsername: "taro",
		Role:              rbac.RoleAdmin,
	})
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	h.HandleUserDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}

	// Поиск логируется с principal вызывающего и user_id
	logLine := logBuf.String()
	if !strings.Contains(logLine, "principal=taro") {
		t.Errorf("в логе поиска нет principal вызывающего: %q", logLine)
	}
	if !strings.Contains(logLine, "user_id=u1") {
		t.Errorf("в логе поиска нет user_id: %q", logLine)
	}
}

func TestHandleUpdate_EmptyPasswordKeepsPassword(t *testing.T) {
	dir := newFakeDirectory(&model.UserRecord{UserID: "u1", UserName: "Тарас", Role: rbac.RoleAdmin})
	h, renderer := newTestHandler(dir)

	rec := postForm(h.HandleUserDetailPost, "/user/userDetail", url.Values{
		"update":    {"1"},
		"user_id":   {"u1"},
		"user_name": {"Тарас Обновлённый"},
		"role":      {rbac.RoleGeneral},
		"password":  {""},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if !dir.updateProfileCalled {
		t.Error("при пустом пароле должен вызываться UpdateProfile")
	}
	if dir.updateProfileAndPasswordCalled {
		t.Error("при пустом пароле UpdateProfileAndPassword вызываться не должен")
	}
	if renderer.view != "user/userList" {
		t.Errorf("после сохранения ожидается список, получено %q", renderer.view)
	}
	msg, _ := renderer.data["message"].(string)
	if !strings.Contains(msg, "u1") {
		t.Errorf("сообщение %q не содержит идентификатор", msg)
	}
	if dir.users["u1"].Role != rbac.RoleGeneral {
		t.Error("роль не обновлена")
	}
}

func TestHandleUpdate_WithPassword(t *testing.T) {
	dir := newFakeDirectory(&model.UserRecord{UserID: "u1", UserName: "Тарас", Role: rbac.RoleAdmin})
	h, _ := newTestHandler(dir)

	postForm(h.HandleUserDetailPost, "/user/userDetail", url.Values{
		"update":    {"1"},
		"user_id":   {"u1"},
		"user_name": {"Тарас"},
		"role":      {rbac.RoleAdmin},
		"password":  {"новый-пароль"},
	})

	if !dir.updateProfileAndPasswordCalled {
		t.Error("при непустом пароле должен вызываться UpdateProfileAndPassword")
	}
	if dir.updateProfileCalled {
		t.Error("при непустом пароле UpdateProfile вызываться не должен")
	}
}

func TestHandleUpdate_ValidationError(t *testing.T) {
	dir := newFakeDirectory(&model.UserRecord{UserID: "u1", UserName: "Тарас", Role: rbac.RoleAdmin})
	h, renderer := newTestHandler(dir)

	rec := postForm(h.HandleUserDetailPost, "/user/userDetail", url.Values{
		"update":  {"1"},
		"user_id": {"u1"},
		// user_name пуст, role не выбрана
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if renderer.view != "user/userDetail" {
		t.Errorf("при ошибке валидации ожидается карточка, получено %q", renderer.view)
	}
	errs := renderer.data["errors"].(map[string]string)
	if errs["user_name"] == "" || errs["role"] == "" {
		t.Errorf("отсутствуют сообщения валидации: %v", errs)
	}
	// Форма привязывается обратно с введёнными значениями
	form := renderer.data["form"].(UserUpdateForm)
	if form.UserID != "u1" {
		t.Error("форма не привязана обратно")
	}
	if dir.updateProfileCalled || dir.updateProfileAndPasswordCalled {
		t.Error("при ошибке валидации каталог вызываться не должен")
	}
}

func TestHandleUpdate_NotFound(t *testing.T) {
	dir := newFakeDirectory()
	h, renderer := newTestHandler(dir)

	postForm(h.HandleUserDetailPost, "/user/userDetail", url.Values{
		"update":    {"1"},
		"user_id":   {"ghost"},
		"user_name": {"Призрак"},
		"role":      {rbac.RoleGeneral},
	})

	if renderer.view != "user/userList" {
		t.Errorf("представление = %q, ожидается user/userList", renderer.view)
	}
	msg, _ := renderer.data["message"].(string)
	if !strings.Contains(msg, "не найден") {
		t.Errorf("сообщение %q не говорит, что пользователь не найден", msg)
	}
}

func TestHandleDelete(t *testing.T) {
	dir := newFakeDirectory(&model.UserRecord{UserID: "u1", UserName: "Тарас", Role: rbac.RoleAdmin})
	h, renderer := newTestHandler(dir)

	rec := postForm(h.HandleUserDetailPost, "/user/userDetail", url.Values{
		"delete":  {"1"},
		"user_id": {"u1"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if renderer.view != "user/userList" {
		t.Errorf("после удаления ожидается список, получено %q", renderer.view)
	}
	if _, ok := dir.users["u1"]; ok {
		t.Error("пользователь не удалён")
	}
	msg, _ := renderer.data["message"].(string)
	if !strings.Contains(msg, "удалён") {
		t.Errorf("сообщение %q не подтверждает удаление", msg)
	}
}

func TestHandleDelete_NotFound(t *testing.T) {
	dir := newFakeDirectory()
	h, renderer := newTestHandler(dir)

	postForm(h.HandleUserDetailPost, "/user/userDetail", url.Values{
		"delete":  {"1"},
		"user_id": {"ghost"},
	})

	msg, _ := renderer.data["message"].(string)
	if !strings.Contains(msg, "не найден") {
		t.Errorf("сообщение %q не говорит, что удалять нечего", msg)
	}
}

func TestHandleUserDetailPost_UnknownAction(t *testing.T) {
	dir := newFakeDirectory()
	h, _ := newTestHandler(dir)

	rec := postForm(h.HandleUserDetailPost, "/user/userDetail", url.Values{
		"user_id": {"u1"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("статус = %d, ожидается 400", rec.Code)
	}
}

func TestHandleUserInsertForm(t *testing.T) {
	dir := newFakeDirectory()
	h, renderer := newTestHandler(dir)

	req := httptest.NewRequest(http.MethodGet, "/user/userInsert", nil)
	rec := httptest.NewRecorder()
	h.HandleUserInsertForm(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if renderer.view != "user/userInsert" {
		t.Errorf("представление = %q, ожидается user/userInsert", renderer.view)
	}
	form := renderer.data["form"].(UserInsertForm)
	if form.UserID != "" || form.UserName != "" {
		t.Error("форма создания должна быть пустой")
	}
	if _, ok := renderer.data["roleOptions"]; !ok {
		t.Error("варианты роли не приложены")
	}
}

func TestHandleUserInsert(t *testing.T) {
	dir := newFakeDirectory()
	h, renderer := newTestHandler(dir)

	rec := postForm(h.HandleUserInsert, "/user/userInsert", url.Values{
		"user_id":   {"u3"},
		"password":  {"секрет"},
		"user_name": {"Новый"},
		"role":      {rbac.RoleGeneral},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if renderer.view != "user/userList" {
		t.Errorf("после создания ожидается список, получено %q", renderer.view)
	}
	if _, ok := dir.users["u3"]; !ok {
		t.Error("пользователь не создан")
	}
	msg, _ := renderer.data["message"].(string)
	if !strings.Contains(msg, "u3") {
		t.Errorf("сообщение %q не содержит идентификатор", msg)
	}
}

func TestHandleUserInsert_Conflict(t *testing.T) {
	dir := newFakeDirectory(&model.UserRecord{UserID: "u1", UserName: "Тарас", Role: rbac.RoleAdmin})
	h, renderer := newTestHandler(dir)

	rec := postForm(h.HandleUserInsert, "/user/userInsert", url.Values{
		"user_id":   {"u1"},
		"password":  {"секрет"},
		"user_name": {"Дубликат"},
		"role":      {rbac.RoleGeneral},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if renderer.view != "user/userInsert" {
		t.Errorf("при конфликте ожидается форма создания, получено %q", renderer.view)
	}
	errs := renderer.data["errors"].(map[string]string)
	if errs["user_id"] == "" {
		t.Error("конфликт идентификатора не показан на форме")
	}
	if dir.users["u1"].UserName != "Тарас" {
		t.Error("существующая запись не должна меняться при конфликте")
	}
}

func TestHandleUserInsert_ValidationError(t *testing.T) {
	dir := newFakeDirectory()
	h, renderer := newTestHandler(dir)

	rec := postForm(h.HandleUserInsert, "/user/userInsert", url.Values{
		"user_id":   {"u3"},
		"user_name": {"Без пароля"},
		"role":      {rbac.RoleGeneral},
		// password отсутствует
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if renderer.view != "user/userInsert" {
		t.Errorf("при ошибке валидации ожидается форма создания, получено %q", renderer.view)
	}
	errs := renderer.data["errors"].(map[string]string)
	if errs["password"] == "" {
		t.Error("отсутствует сообщение о пустом пароле")
	}
	form := renderer.data["form"].(UserInsertForm)
	if form.UserID != "u3" {
		t.Error("форма не привязана обратно")
	}
	// Пароль никогда не возвращается в форму
	if form.Password != "" {
		t.Error("пароль не должен возвращаться в форму")
	}
	if len(dir.users) != 0 {
		t.Error("при ошибке валидации запись создаваться не должна")
	}
}
