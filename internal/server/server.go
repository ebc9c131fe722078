package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jgoulah/griddash/internal/app"
	"github.com/jgoulah/griddash/internal/dataset"
	"github.com/jgoulah/griddash/internal/views"
)

const chartsPath = "/api/charts"

// Dashboard is the part of the application context the HTTP layer drives
type Dashboard interface {
	Update(sel dataset.Selection) (app.View, error)
	Snapshot() app.View
}

// ErrorResponse is the JSON body of failed API calls
type ErrorResponse struct {
	Error string `json:"error"`
	State string `json:"state,omitempty"`
}

type handler struct {
	dash   Dashboard
	logger *slog.Logger
}

// NewRouter builds the dashboard routes. gatherer may be nil to omit /metrics.
func NewRouter(dash Dashboard, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	h := &handler{dash: dash, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/", h.handleDashboard)
	r.Get("/charts", h.handleChartsPartial)
	r.Get("/healthz", h.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/charts", h.handleCharts)
		r.Get("/options", h.handleOptions)
		r.Get("/summary", h.handleSummary)
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// NewServer wraps the router in an http.Server listening on addr
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}

// update applies the ?hour= selection. Before the dataset is ready the
// current (empty) view is returned with ok=false.
func (h *handler) update(w http.ResponseWriter, r *http.Request) (app.View, bool) {
	sel, err := dataset.ParseSelection(r.URL.Query().Get("hour"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), "")
		return app.View{}, false
	}

	v, err := h.dash.Update(sel)
	if errors.Is(err, app.ErrNotReady) {
		return v, true
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error(), string(v.State))
		return app.View{}, false
	}
	return v, true
}

func (h *handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	v, ok := h.update(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderDashboard(w, views.NewDashboardData(v, chartsPath)); err != nil {
		h.logger.Error("render dashboard", "error", err)
	}
}

func (h *handler) handleChartsPartial(w http.ResponseWriter, r *http.Request) {
	v, ok := h.update(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderChartsPartial(w, views.NewDashboardData(v, chartsPath)); err != nil {
		h.logger.Error("render charts partial", "error", err)
	}
}

func (h *handler) handleCharts(w http.ResponseWriter, r *http.Request) {
	v, ok := h.update(w, r)
	if !ok {
		return
	}
	if v.State != app.StateReady {
		writeNotReady(w, r, v)
		return
	}
	render.JSON(w, r, v)
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	v, ok := h.update(w, r)
	if !ok {
		return
	}
	if v.State != app.StateReady {
		writeNotReady(w, r, v)
		return
	}
	render.JSON(w, r, map[string]any{
		"selection": v.Selection,
		"summary":   v.Summary,
	})
}

func (h *handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	v := h.dash.Snapshot()
	if v.State != app.StateReady {
		writeNotReady(w, r, v)
		return
	}
	render.JSON(w, r, v.Options)
}

func (h *handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	v := h.dash.Snapshot()
	render.JSON(w, r, map[string]any{
		"status":  "ok",
		"state":   v.State,
		"records": v.Records,
	})
}

func writeNotReady(w http.ResponseWriter, r *http.Request, v app.View) {
	msg := app.ErrNotReady.Error()
	if v.Error != "" {
		msg = v.Error
	}
	writeError(w, r, http.StatusServiceUnavailable, msg, string(v.State))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg, state string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg, State: state})
}
