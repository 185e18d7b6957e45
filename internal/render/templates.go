package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"gitlab.com/ranfdev/blogmod/internal/domain"
	"gitlab.com/ranfdev/blogmod/internal/models"
	"gitlab.com/ranfdev/blogmod/web"
)

type Templates struct {
	mu        sync.RWMutex
	templates *template.Template
	envConfig *models.EnvConfig
	fsys      fs.FS
	log       zerolog.Logger
	now       func() time.Time
}

func (tmpls *Templates) RenderHTML(w http.ResponseWriter, tmplName string, data interface{}) {
	tmpls.RenderHTMLStatus(w, http.StatusOK, tmplName, data)
}

func (tmpls *Templates) RenderHTMLStatus(w http.ResponseWriter, status int, tmplName string, data interface{}) {
	// Reload templates every time when developing locally.
	if tmpls.envConfig.Debug {
		if err := tmpls.load(); err != nil {
			tmpls.log.Error().Err(err).Msg("Error reloading templates")
		}
	}
	tmpls.mu.RLock()
	t := tmpls.templates
	tmpls.mu.RUnlock()

	buff := bytes.NewBuffer([]byte{})
	err := t.ExecuteTemplate(buff, tmplName, data)
	if err != nil && tmplName != "404" {
		tmpls.log.Error().Err(err).Str("template", tmplName).Msg("Error rendering template")
		tmpls.RenderHTMLStatus(w, http.StatusNotFound, "404", nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buff.Bytes())
}

func markdown(s string) template.HTML {
	var b bytes.Buffer
	goldmark.Convert([]byte(s), &b)
	return template.HTML(b.String())
}

func markdownPreview(s string) template.HTML {
	var b bytes.Buffer
	i := strings.Index(s, "\n\n")
	maxLen := len(s)
	if 300 < maxLen {
		maxLen = 300
	}
	if i < 0 || i > maxLen {
		i = maxLen
		for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
			i--
		}
	}
	goldmark.Convert([]byte(s[0:i]), &b)
	return template.HTML(b.String())
}

func plural(n int, singular, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func (tmpls *Templates) funcs() template.FuncMap {
	return template.FuncMap{
		"markdown":        markdown,
		"markdownPreview": markdownPreview,
		"plural":          plural,
		"postAge": func(ts models.Timestamp) string {
			if ts.IsZero() {
				return "unknown date"
			}
			return domain.PostAge(ts.Time, tmpls.now())
		},
		"commentAge": func(ts models.Timestamp) string {
			if ts.IsZero() {
				return "unknown date"
			}
			return domain.CommentAge(ts.Time, tmpls.now())
		},
		"localTime": func(ts models.Timestamp) string {
			return domain.LocalTime(ts.Time)
		},
		"rfc3339": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
		"categoryLabel":   func(c models.Category) string { return c.Label() },
		"reportTypeLabel": func(t models.ReportType) string { return t.Label() },
	}
}

func (tmpls *Templates) load() error {
	t, err := template.New("").Funcs(tmpls.funcs()).ParseFS(tmpls.fsys, "templates/*.html")
	if err != nil {
		return err
	}
	tmpls.mu.Lock()
	tmpls.templates = t
	tmpls.mu.Unlock()
	return nil
}

// Static serves the stylesheet and other assets.
func (tmpls *Templates) Static() http.Handler {
	sub, err := fs.Sub(tmpls.fsys, "static")
	if err != nil {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(sub))
}

// GetTemplates parses the embedded templates. In debug mode they are read
// from ./web instead and reparsed on every render.
func GetTemplates(envConfig *models.EnvConfig, log zerolog.Logger) (*Templates, error) {
	var fsys fs.FS = web.FS
	if envConfig.Debug {
		fsys = os.DirFS("web")
	}
	return newTemplates(envConfig, fsys, log)
}

func newTemplates(envConfig *models.EnvConfig, fsys fs.FS, log zerolog.Logger) (*Templates, error) {
	tmpls := &Templates{
		envConfig: envConfig,
		fsys:      fsys,
		log:       log,
		now:       time.Now,
	}
	if err := tmpls.load(); err != nil {
		return nil, fmt.Errorf("Failed to parse templates: %w", err)
	}
	return tmpls, nil
}
