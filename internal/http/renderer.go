package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
)

var templatePatterns = []string{"*.tmpl", "pages/*.tmpl", "panels/*.tmpl"}

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	mu      sync.RWMutex
	t       *template.Template
	fsys    fs.FS
	devMode bool
	logger  *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing templates (required)
	DevMode    bool         // Re-parse templates on every render
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer parses every template once so syntax errors surface at startup.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &TemplateRenderer{fsys: cfg.TemplateFS, devMode: cfg.DevMode, logger: logger}
	t, err := r.parse()
	if err != nil {
		logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, err
	}
	r.t = t
	return r, nil
}

func (r *TemplateRenderer) parse() (*template.Template, error) {
	holder := new(*template.Template)
	t, err := template.New("root").Funcs(templateFuncs(holder)).ParseFS(r.fsys, templatePatterns...)
	if err != nil {
		return nil, err
	}
	*holder = t
	return t, nil
}

func (r *TemplateRenderer) current() *template.Template {
	if r.devMode {
		if t, err := r.parse(); err == nil {
			r.mu.Lock()
			r.t = t
			r.mu.Unlock()
		} else {
			r.logger.Warn("template reload failed, keeping previous set", slog.Any("error", err))
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.t
}

// RenderFull renders the full page (layout + page content).
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, status int, data any) error {
	return r.Render(w, status, "layout", data)
}

// Render executes one named template into w with status.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.current().ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", name),
			slog.Any("error", err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", name),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
