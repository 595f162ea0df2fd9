package product

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/medtrack/rx-backend/internal/modules/auth"
	"github.com/medtrack/rx-backend/internal/pg"
)

// Handler exposes product HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, mw *auth.Middleware) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(mw.RequireUser)
		r.Get("/", h.list)                  // GET /api/v1/products?limit=50&offset=0
		r.Get("/low-stock", h.listLowStock) // GET /api/v1/products/low-stock
		r.Get("/{id}", h.get)               // GET /api/v1/products/{id}

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin)
			r.Post("/", h.create)                   // POST /api/v1/products
			r.Put("/{id}/stock", h.updateStock)     // PUT  /api/v1/products/{id}/stock
			r.Put("/{id}/reorder", h.updateReorder) // PUT  /api/v1/products/{id}/reorder
		})
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	products, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if products == nil {
		products = []*Product{}
	}
	respond(w, http.StatusOK, products)
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListLowStock(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if products == nil {
		products = []*Product{}
	}
	respond(w, http.StatusOK, products)
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "missing actor"})
		return
	}
	var req UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.UpdateStock(r.Context(), id, req.Qty, actor.ID)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) updateReorder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "missing actor"})
		return
	}
	var req UpdateReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.UpdateReorderLevel(r.Context(), id, req.ReorderLevel, actor.ID)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pg.ErrContention):
		return http.StatusConflict
	case strings.Contains(err.Error(), "must not be negative"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
