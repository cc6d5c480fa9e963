package httpapi

import (
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/DoyleJ11/moodplay-backend/internal/ws"
)

func SetupRoutes(d *Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	d.validate = newValidator()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(d.observe)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	if d.RateLimit > 0 {
		r.Use(httprate.LimitByIP(d.RateLimit, time.Minute))
	}

	// Public routes
	r.Get("/healthz", Healthz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	wsOpts := ws.Options{Logger: d.Logger, OriginPatterns: OriginPatterns(d.CORSOrigins)}
	if d.Metrics != nil {
		wsOpts.OnConnect = func(delta int) { d.Metrics.WSConnections.Add(float64(delta)) }
	}
	r.Get("/ws", ws.Handler(d.Hub, wsOpts))

	r.Route("/games", func(r chi.Router) {
		r.Post("/", CreateGame(d))
		r.Get("/{code}", GetGame(d))
		r.Delete("/{code}", DeleteGame(d))
	})

	r.Get("/moods", ListMoods)
	r.Post("/moods", SelectMood(d))

	r.Route("/interactions", func(r chi.Router) {
		r.Get("/", ListInteractions(d))
		r.Post("/", AddInteraction(d))
		r.Get("/stats", InteractionStats(d))
	})

	r.Get("/content", ListContent)
	r.Post("/suggestions/mood", SuggestMood(d))
	r.Post("/insights", Insights(d))
	return r
}

// OriginPatterns turns CORS origins into the host patterns the websocket
// accept check wants.
func OriginPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			out = append(out, "*")
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}
	return out
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// observe logs each request and records it under its route pattern.
func (d *Deps) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		if d.Metrics != nil {
			d.Metrics.HTTPRequest(r.Method, route, status, elapsed)
		}
		d.Logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
