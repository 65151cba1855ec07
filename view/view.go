package view

import (
	"bytes"
	"crypto/sha1"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-deliveries/i18n"
)

//go:embed templates
var embeddedTemplates embed.FS

//go:embed static
var embeddedStatic embed.FS

var (
	mu        sync.RWMutex
	devMode   bool
	templates fs.FS = mustSub(embeddedTemplates, "templates")
	static    fs.FS = mustSub(embeddedStatic, "static")
	tplCache        = map[string]*template.Template{}
	assetHash       = map[string]string{}
)

func mustSub(f fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(f, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// SetDev switches development mode: templates and assets are read from
// view/ on disk when present and nothing is cached.
func SetDev(dev bool) {
	mu.Lock()
	defer mu.Unlock()
	devMode = dev
	tplCache = map[string]*template.Template{}
	assetHash = map[string]string{}
	templates = mustSub(embeddedTemplates, "templates")
	static = mustSub(embeddedStatic, "static")
	if !dev {
		return
	}
	for _, base := range []string{"view", "../view", "../../view"} {
		if fi, err := os.Stat(path.Join(base, "templates")); err == nil && fi.IsDir() {
			templates = os.DirFS(path.Join(base, "templates"))
			static = os.DirFS(path.Join(base, "static"))
			return
		}
	}
}

// Static serves the stylesheet and scripts.
func Static() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		fsys := static
		mu.RUnlock()
		http.FileServerFS(fsys).ServeHTTP(w, r)
	})
}

// Funcs returns the standard func map including i18n and simple helpers.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.Default
	if r != nil {
		lang = i18n.LangFromContext(r.Context())
	}
	return template.FuncMap{
		"t":     func(code string) string { return i18n.T(lang, code) },
		"tf":    func(code string, args ...any) string { return i18n.Tf(lang, code, args...) },
		"lang":  func() string { return lang },
		"year":  func() int { return time.Now().Year() },
		"asset": resolveAsset,
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// resolveAsset returns /static/<name>?v=<hash> for cache busting.
func resolveAsset(rel string) string {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") || strings.HasPrefix(rel, "//") {
		return rel
	}
	mu.RLock()
	h, ok := assetHash[rel]
	fsys := static
	mu.RUnlock()
	if ok {
		return "/static/" + rel + "?v=" + h
	}
	b, err := fs.ReadFile(fsys, rel)
	if err != nil {
		return "/static/" + rel
	}
	sum := sha1.Sum(b)
	h = fmt.Sprintf("%x", sum[:8])
	mu.Lock()
	if !devMode {
		assetHash[rel] = h
	}
	mu.Unlock()
	return "/static/" + rel + "?v=" + h
}

// parse builds the template set for page: layout, the page itself and every
// partial. An empty page parses only the partials.
func parse(page string) (*template.Template, error) {
	mu.RLock()
	fsys := templates
	mu.RUnlock()

	root := template.New("layout.html").Funcs(Funcs(nil))
	patterns := []string{"partials/*.html"}
	if page != "" {
		patterns = append([]string{"layout.html", page}, patterns...)
	}
	return root.ParseFS(fsys, patterns...)
}

func lookup(page string) (*template.Template, error) {
	mu.RLock()
	t, ok := tplCache[page]
	dev := devMode
	mu.RUnlock()
	if ok {
		return t, nil
	}
	t, err := parse(page)
	if err != nil {
		return nil, err
	}
	if !dev {
		mu.Lock()
		tplCache[page] = t
		mu.Unlock()
	}
	return t, nil
}

func execute(w http.ResponseWriter, r *http.Request, page, name string, status int, data any) error {
	base, err := lookup(page)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(r))
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != 0 {
		w.WriteHeader(status)
	}
	_, err = buf.WriteTo(w)
	return err
}

// Render executes a page template (e.g. "index.html") inside the layout.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, 0, name, data)
}

// RenderStatus is Render with an explicit status code.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	// Ensure data map exists and inject common defaults to avoid template errors.
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	return execute(w, r, name, "layout.html", status, data)
}

// RenderPartial executes a single template defined under partials/, for
// fragment responses.
func RenderPartial(w http.ResponseWriter, r *http.Request, name string, data any) error {
	return execute(w, r, "", name, 0, data)
}
