package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/logistock/logistock/internal/inventory"
	"github.com/logistock/logistock/internal/platform/httpx"
	"github.com/logistock/logistock/internal/shared"
)

// Snapshotter hands out read-only copies of the live ledger.
type Snapshotter interface {
	Snapshot() *inventory.Ledger
}

// Enqueuer queues detailed exports on an external worker. The worker renders
// the persisted inventory file.
type Enqueuer interface {
	EnqueueExport(ctx context.Context, destination string) (string, error)
}

// Handler exposes report endpoints.
type Handler struct {
	logger     *slog.Logger
	source     Snapshotter
	cache      *Cache
	dispatcher *Dispatcher
	queue      Enqueuer
}

// NewHandler constructs the report handler. cache and queue may be nil.
func NewHandler(logger *slog.Logger, source Snapshotter, cache *Cache, dispatcher *Dispatcher, queue Enqueuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, source: source, cache: cache, dispatcher: dispatcher, queue: queue}
}

// MountRoutes registers report routes; guard wraps the export trigger.
func (h *Handler) MountRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Get("/reports/current", h.handleRender(KindCurrent))
	r.Get("/reports/history", h.handleRender(KindHistory))
	r.Group(func(r chi.Router) {
		if guard != nil {
			r.Use(guard)
		}
		r.Post("/reports/export", h.handleExport)
	})
}

type exportRequest struct {
	Destination string `json:"destination"`
	Async       bool   `json:"async"`
}

func (h *Handler) handleRender(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := h.cache.FetchText(r.Context(), kind, func(context.Context) (string, error) {
			return Render(kind, h.source.Snapshot())
		})
		if err != nil {
			h.logger.Error("render report", slog.String("kind", string(kind)), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, text)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"kind": kind, "report": text})
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	dest, err := h.destination(req.Destination)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Async && h.queue != nil {
		id, err := h.queue.EnqueueExport(r.Context(), dest)
		if err != nil {
			h.logger.Error("enqueue export", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]any{"job": Job{ID: id, Kind: KindExport, Destination: dest}, "queued": true})
		return
	}
	job, err := h.dispatcher.Submit(context.WithoutCancel(r.Context()), KindExport, h.source.Snapshot(), dest)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"job": job, "queued": false})
}

// destination confines a requested file name to the report directory.
func (h *Handler) destination(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: destination must be relative to the report directory", shared.ErrInvalidArgument)
	}
	return filepath.Join(h.dispatcher.reportDir, clean), nil
}
