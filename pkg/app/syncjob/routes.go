package syncjob

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/sales-sync/pkg/app/errors"
	apphttp "github.com/chainsafe/sales-sync/pkg/app/http"
	"github.com/chainsafe/sales-sync/pkg/salesstore"
)

const (
	defaultHTTPMiddlewareTimeout = 30 * time.Second
	defaultRunsLimit             = 50
	maxRunsLimit                 = 500
)

func (s *Server) newRouter(d *deps, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultHTTPMiddlewareTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics enabled", zap.String("path", "/metrics"))
	}

	if d.store != nil {
		h := &runsHandler{store: d.store, logger: logger}
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/runs", apphttp.HandleError(h.list))
			r.Get("/runs/{entity}", apphttp.HandleError(h.list))
		})
	}

	return r
}

type runsHandler struct {
	store  salesstore.RunStore
	logger *zap.Logger
}

type runResponse struct {
	ID                 string     `json:"id"`
	Entity             string     `json:"entity"`
	Status             string     `json:"status"`
	WindowStart        *time.Time `json:"window_start,omitempty"`
	WindowEnd          *time.Time `json:"window_end,omitempty"`
	Records            int        `json:"records"`
	Pages              int        `json:"pages"`
	Requests           int        `json:"requests"`
	EnrichmentFailures int        `json:"enrichment_failures"`
	Error              string     `json:"error,omitempty"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         time.Time  `json:"finished_at"`
}

func toRunResponse(r *salesstore.Run) runResponse {
	resp := runResponse{
		ID:                 r.ID.String(),
		Entity:             r.Entity,
		Status:             r.Status,
		Records:            r.Records,
		Pages:              r.Pages,
		Requests:           r.Requests,
		EnrichmentFailures: r.EnrichmentFailures,
		Error:              r.Error,
		StartedAt:          r.StartedAt,
		FinishedAt:         r.FinishedAt,
	}
	if !r.Window.IsZero() {
		start, end := r.Window.Start, r.Window.End
		resp.WindowStart = &start
		resp.WindowEnd = &end
	}
	return resp
}

func (h *runsHandler) list(w http.ResponseWriter, r *http.Request) error {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxRunsLimit {
			return apperrors.BadRequestError(err, "limit must be between 1 and 500")
		}
		limit = n
	}

	runs, err := h.store.ListRuns(r.Context(), chi.URLParam(r, "entity"), limit)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		return apperrors.GeneralError(err, "failed to list runs")
	}

	out := make([]runResponse, len(runs))
	for i, run := range runs {
		out[i] = toRunResponse(run)
	}
	return apphttp.WriteJSON(w, http.StatusOK, map[string]any{"runs": out})
}
