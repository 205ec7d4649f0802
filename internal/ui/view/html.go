// html.go — рендерер на html/template.
// Шаблоны встраиваются в бинарник через go:embed: отдельный layout (base.html)
// плюс по файлу на представление. Имя представления совпадает с путём URL
// без расширения: "user/userList" → templates/user/userList.html.
package view

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
)

//go:embed templates/base.html templates/user/*.html
var templatesFS embed.FS

// HTMLRenderer — рендерер представлений на html/template.
type HTMLRenderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// views — представления User Module и их шаблоны.
var views = map[string]string{
	"user/userList":   "templates/user/userList.html",
	"user/userDetail": "templates/user/userDetail.html",
	"user/userInsert": "templates/user/userInsert.html",
}

// NewHTMLRenderer создаёт рендерер и парсит все шаблоны.
// Каждое представление компонуется с base.html при старте процесса,
// ошибка в шаблоне обнаруживается сразу, а не на первом запросе.
func NewHTMLRenderer(logger *slog.Logger) (*HTMLRenderer, error) {
	templates := make(map[string]*template.Template, len(views))
	for name, file := range views {
		tmpl, err := template.ParseFS(templatesFS, "templates/base.html", file)
		if err != nil {
			return nil, fmt.Errorf("парсинг шаблона %s: %w", file, err)
		}
		templates[name] = tmpl
	}

	return &HTMLRenderer{
		templates: templates,
		logger:    logger.With(slog.String("component", "html_renderer")),
	}, nil
}

// Render рендерит представление view с атрибутами data в w.
// Рендеринг идёт в буфер: при ошибке шаблона клиенту не уходит
// половина страницы.
func (r *HTMLRenderer) Render(ctx context.Context, w io.Writer, view string, data Data) error {
	tmpl, ok := r.templates[view]
	if !ok {
		return fmt.Errorf("неизвестное представление: %s", view)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		r.logger.ErrorContext(ctx, "Ошибка рендеринга представления",
			slog.String("view", view),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("рендеринг представления %s: %w", view, err)
	}

	_, err := buf.WriteTo(w)
	return err
}
