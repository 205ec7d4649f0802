// Пакет view — серверный рендеринг HTML-страниц User Module.
// Обработчики не знают о html/template: они передают имя представления
// и атрибуты, рендерер подставляет их в шаблон.
package view

import (
	"context"
	"io"
)

// Data — атрибуты, передаваемые представлению.
type Data map[string]any

// Renderer — рендерер представлений.
type Renderer interface {
	// Render рендерит представление view с атрибутами data в w.
	Render(ctx context.Context, w io.Writer, view string, data Data) error
}
