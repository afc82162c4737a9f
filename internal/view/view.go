// Package view renders the three FocusDetect pages. Templates and static assets
// are embedded so the binary has no runtime file dependencies.
package view

import (
	"FocusDetect/internal/entity"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutName = "layout"

// Page is everything a view needs. Rendering is a pure function of it.
type Page struct {
	State      entity.UIState
	Result     *Result
	Error      string
	Confidence float64
	RequestID  string
}

// Result is one ingestion/detection pass shown under the capture controls.
// AnnotatedURI is empty when detection failed.
type Result struct {
	OriginalURI  template.URL
	AnnotatedURI template.URL
	Width        int
	Height       int
	Summary      entity.DetectionSummary
	Detections   []entity.Detection
	Notice       string
}

func (r *Result) Failed() bool {
	return r.AnnotatedURI == ""
}

// Template is the name the page is registered under.
func (p Page) Template() string {
	return p.State.String()
}

func (p Page) Buttons() []Button {
	next := p.State.Transitions()
	out := make([]Button, 0, len(next))
	for _, s := range next {
		out = append(out, Button{Target: s.String(), Text: buttonText(s)})
	}
	return out
}

type Button struct {
	Target string
	Text   string
}

func buttonText(target entity.UIState) string {
	switch target {
	case entity.UIStateUpload:
		return "Upload Image"
	case entity.UIStateWebcam:
		return "Take Picture"
	default:
		return "Back to Home"
	}
}

// Engine implements fiber.Views. Each UIState has its own template set made of
// the shared layout and partials plus the page body.
type Engine struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

func New() *Engine {
	return &Engine{}
}

var funcs = template.FuncMap{
	"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	"conf":    func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"focus":   func() string { return entity.LabelFocus },
	"unfocus": func() string { return entity.LabelUnfocus },
}

func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	templates := make(map[string]*template.Template, len(entity.UIStateMap))
	for _, state := range entity.AllUIStates() {
		name := state.String()
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/result.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return fmt.Errorf("parse %s templates: %w", name, err)
		}
		templates[name] = t
	}

	e.templates = templates
	return nil
}

// Render writes the named page. The layout argument is accepted for
// fiber.Views compatibility; every page uses the shared layout.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	e.mu.RLock()
	loaded := e.templates != nil
	e.mu.RUnlock()

	if !loaded {
		if err := e.Load(); err != nil {
			return err
		}
	}

	e.mu.RLock()
	t, ok := e.templates[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("view: unknown template %q", name)
	}

	return t.ExecuteTemplate(w, layoutName, binding)
}

// Static serves the embedded css and js under /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
