// Package render выводит HTML-страницы сайтов.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"

	"newsnotes/internal/auth"
	"newsnotes/internal/logger"
	"newsnotes/internal/models"
)

//go:embed templates
var templateFS embed.FS

// Renderer рисует страницу name с данными data.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, name string, data any)
}

// view - то, что видит шаблон: сайт, текущий пользователь и данные страницы.
type view struct {
	Site string
	User *models.User
	Data any
}

// Templates - Renderer на встроенных html/template.
type Templates struct {
	site  string
	pages map[string]*template.Template
}

// NewTemplates разбирает все страницы каталога templates, каждую вместе с base.html.
func NewTemplates(site string) (*Templates, error) {
	base, err := fs.ReadFile(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("read base template: %w", err)
	}

	t := &Templates{site: site, pages: make(map[string]*template.Template)}
	err = fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || p == "templates/base.html" {
			return err
		}
		page, err := fs.ReadFile(templateFS, p)
		if err != nil {
			return err
		}
		name := strings.TrimPrefix(p, "templates/")
		tmpl, err := template.New(path.Base(p)).Parse(string(base))
		if err != nil {
			return fmt.Errorf("parse base for %s: %w", name, err)
		}
		if _, err = tmpl.Parse(string(page)); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		t.pages[name] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Templates) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	tmpl, ok := t.pages[name]
	if !ok {
		logger.Log.WithField("template", name).Error("Шаблон не найден")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	v := view{Site: t.site, User: auth.UserFrom(r.Context()), Data: data}
	if err := tmpl.ExecuteTemplate(&buf, "base", v); err != nil {
		logger.Log.WithError(err).WithField("template", name).Error("Ошибка отрисовки шаблона")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Call - одна отрисовка, сохранённая Recorder.
type Call struct {
	Status int
	Name   string
	User   *models.User
	Data   any
}

// Recorder запоминает отрисованные страницы вместо HTML, чтобы тесты
// проверяли контекст страницы.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (rec *Recorder) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	rec.mu.Lock()
	rec.calls = append(rec.calls, Call{Status: status, Name: name, User: auth.UserFrom(r.Context()), Data: data})
	rec.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, name)
}

// Last возвращает последнюю отрисовку; ok=false, если их не было.
func (rec *Recorder) Last() (Call, bool) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) == 0 {
		return Call{}, false
	}
	return rec.calls[len(rec.calls)-1], true
}

func (rec *Recorder) Reset() {
	rec.mu.Lock()
	rec.calls = nil
	rec.mu.Unlock()
}
