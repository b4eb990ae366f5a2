package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/logistock/logistock/internal/platform/httpx"
	"github.com/logistock/logistock/internal/shared"
)

// Handler wires HTTP endpoints for the inventory ledger.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes. guard wraps every mutating route;
// nil leaves them open.
func (h *Handler) MountRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Get("/products", h.handleList)
	r.Get("/products/{id}", h.handleFind)

	r.Group(func(r chi.Router) {
		if guard != nil {
			r.Use(guard)
		}
		r.Post("/products", h.handleAdd)
		r.Delete("/products/{id}", h.handleRemove)
		r.Put("/products/{id}/quantity", h.handleUpdateQuantity)
		r.Post("/products/{id}/entry", h.handleEntry)
		r.Post("/products/{id}/exit", h.handleExit)
		r.Put("/products/{id}/price", h.handleSetPrice)
		r.Put("/products/{id}/base-price", h.handleSetBasePrice)
		r.Post("/products/{id}/discount", h.handleDiscount)
		r.Post("/products/{id}/reset-price", h.handleResetPrice)
		r.Post("/inventory/save", h.handleSave)
		r.Post("/inventory/load", h.handleLoad)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	products := h.service.Products(r.Context())
	q := r.URL.Query()
	if !q.Has("page") && !q.Has("per_page") {
		httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
		return
	}
	page := shared.ParsePagination(q.Get("page"), q.Get("per_page"), len(products))
	start, end := page.Bounds()
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products[start:end], "pagination": page})
}

func (h *Handler) handleFind(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	view, err := h.service.FindProduct(r.Context(), id)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	view, err := h.service.AddProduct(r.Context(), req)
	h.respond(w, http.StatusCreated, view, err)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	view, err := h.service.RemoveProduct(r.Context(), id)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if !h.decodeFor(w, r, &req, &req.ID) {
		return
	}
	view, err := h.service.UpdateQuantity(r.Context(), req)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) handleEntry(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if !h.decodeFor(w, r, &req, &req.ID) {
		return
	}
	view, err := h.service.RegisterEntry(r.Context(), req)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) handleExit(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if !h.decodeFor(w, r, &req, &req.ID) {
		return
	}
	view, err := h.service.RegisterExit(r.Context(), req)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if !h.decodeFor(w, r, &req, &req.ID) {
		return
	}
	view, err := h.service.SetPrice(r.Context(), req)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) handleSetBasePrice(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if !h.decodeFor(w, r, &req, &req.ID) {
		return
	}
	view, err := h.service.SetBasePrice(r.Context(), req)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) handleDiscount(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequest
	if !h.decodeFor(w, r, &req, &req.ID) {
		return
	}
	view, err := h.service.ApplyDiscount(r.Context(), req)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) handleResetPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	view, err := h.service.ResetPrice(r.Context(), id)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Save(r.Context()); err != nil {
		h.fail(w, "save inventory", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"saved": h.service.Len()})
}

func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Load(r.Context())
	if err != nil {
		h.fail(w, "load inventory", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"result": res, "outcome": res.Outcome()})
}

// decodeFor decodes the request body into target and overrides the id with
// the path parameter.
func (h *Handler) decodeFor(w http.ResponseWriter, r *http.Request, target any, id *int64) bool {
	pathID, ok := h.productID(w, r)
	if !ok {
		return false
	}
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	*id = pathID
	return true
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httpx.RespondError(w, invalid("invalid product id %q", raw))
		return 0, false
	}
	return id, true
}

func (h *Handler) respond(w http.ResponseWriter, status int, view ProductView, err error) {
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, status, view)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
