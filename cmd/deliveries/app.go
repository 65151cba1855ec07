package main

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/diewo77/go-deliveries/i18n"
	"github.com/diewo77/go-deliveries/internal/handlers"
	"github.com/diewo77/go-deliveries/internal/ledger"
	"github.com/diewo77/go-deliveries/internal/store"
	"github.com/diewo77/go-deliveries/session"
	"github.com/diewo77/go-deliveries/view"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux         *http.ServeMux
	store       store.TableStore
	registry    *ledger.Registry
	sessions    *session.Manager
	defaultLang string
}

// NewApp creates a new application with all routes configured.
func NewApp(st store.TableStore, reg *ledger.Registry, sm *session.Manager, defaultLang string) *App {
	if !i18n.Supported(defaultLang) {
		defaultLang = i18n.Default
	}
	app := &App{
		mux:         http.NewServeMux(),
		store:       st,
		registry:    reg,
		sessions:    sm,
		defaultLang: defaultLang,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Apply global middleware: browser session + language preference
	handler := a.sessions.Middleware(withPreferences(a.defaultLang, a.mux))
	handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	sessions := handlers.NewSessions(a.registry)
	lh := handlers.NewLocationHandler(sessions)
	dh := handlers.NewDeliveryHandler(sessions)
	hh := handlers.NewHealthHandler(a.store)

	a.mux.HandleFunc("GET /{$}", lh.Index)
	a.mux.HandleFunc("GET /locations", lh.List)
	a.mux.HandleFunc("POST /locations", lh.Create)
	a.mux.HandleFunc("POST /locations/{id}/select", lh.Select)
	a.mux.HandleFunc("POST /locations/{id}/delete", lh.Delete)

	a.mux.HandleFunc("GET /deliveries", dh.Panel)
	a.mux.HandleFunc("POST /deliveries", dh.Create)
	a.mux.HandleFunc("POST /deliveries/{id}/delete", dh.Delete)
	a.mux.HandleFunc("POST /deliveries/filter", dh.Filter)
	a.mux.HandleFunc("GET /deliveries/export.xlsx", dh.Export)

	a.mux.HandleFunc("GET /health", hh.Live)
	a.mux.HandleFunc("GET /healthz", hh.Ready)

	a.mux.Handle("GET /static/", http.StripPrefix("/static/", view.Static()))
}

// withPreferences injects the language preference from query, cookie or
// Accept-Language, in that order.
func withPreferences(defaultLang string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := defaultLang
		if h := r.Header.Get("Accept-Language"); h != "" {
			lang = i18n.DetectLanguage(h)
		}
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
			})
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging middleware tagged with a request id.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[http] %s %s %s %d %s", id, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
