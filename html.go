package markzap

import (
	"html/template"
	"path/filepath"
	"strings"
	"sync"
)

type PreviewRenderer interface {
	Render(src []byte) (template.HTML, error)
}

type HTMLRenderer struct{}

func init() {
	RegisterPreviewFormat("html", &HTMLRenderer{})
	RegisterPreviewFormat("htm", &HTMLRenderer{})
}

func (h *HTMLRenderer) Render(src []byte) (template.HTML, error) {
	return template.HTML(src), nil
}

var (
	previewFormats   = map[string]PreviewRenderer{}
	previewFormatsMu sync.RWMutex
)

// RegisterPreviewFormat sets the renderer used for files with extension ext
// (without the leading dot).
func RegisterPreviewFormat(ext string, r PreviewRenderer) {
	previewFormatsMu.Lock()
	defer previewFormatsMu.Unlock()
	previewFormats[strings.ToLower(ext)] = r
}

// rendererFor picks the renderer registered for path's extension. Markdown
// files and files with an unregistered extension use the markdown engine, or
// the renderer registered for "md" when engine is nil.
func rendererFor(path string, engine PreviewRenderer) PreviewRenderer {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	previewFormatsMu.RLock()
	defer previewFormatsMu.RUnlock()
	if ext != "md" && ext != "markdown" {
		if r, exists := previewFormats[ext]; exists {
			return r
		}
	}
	if engine != nil {
		return engine
	}
	return previewFormats["md"]
}
