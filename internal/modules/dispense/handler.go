package dispense

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medtrack/rx-backend/internal/modules/auth"
	"github.com/medtrack/rx-backend/internal/pg"
)

// Handler exposes dispense HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, mw *auth.Middleware) {
	r.Route("/api/v1/dispense", func(r chi.Router) {
		r.Use(mw.RequireUser)
		r.Post("/", h.create)             // POST /api/v1/dispense
		r.Get("/my-history", h.myHistory) // GET  /api/v1/dispense/my-history
		r.Get("/{id}", h.get)             // GET  /api/v1/dispense/{id}

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin)
			r.Get("/all", h.listAll)                   // GET /api/v1/dispense/all?start_date=&end_date=
			r.Get("/history/{user_id}", h.userHistory) // GET /api/v1/dispense/history/{user_id}?page=1&limit=5
		})
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "missing actor"})
		return
	}
	var req CreateDispenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	d, err := h.service.Dispense(r.Context(), actor.ID, req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			respond(w, http.StatusBadRequest, map[string]interface{}{
				"error": verr.Error(),
				"lines": verr.Lines,
			})
		case errors.Is(err, pg.ErrContention):
			respond(w, http.StatusConflict, map[string]string{"error": "inventory busy, please retry"})
		default:
			respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}
	respond(w, http.StatusCreated, d)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid dispense id"})
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrNotFound) {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, d)
}

func (h *Handler) myHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "missing actor"})
		return
	}
	dispenses, err := h.service.History(r.Context(), actor.ID)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if dispenses == nil {
		dispenses = []*Dispense{}
	}
	respond(w, http.StatusOK, dispenses)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("start_date"), false)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date"})
		return
	}
	to, err := parseDate(r.URL.Query().Get("end_date"), true)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date"})
		return
	}
	dispenses, err := h.service.ListAll(r.Context(), from, to)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if dispenses == nil {
		dispenses = []*Dispense{}
	}
	respond(w, http.StatusOK, dispenses)
}

func (h *Handler) userHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := h.service.UserHistory(r.Context(), userID, page, limit)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, result)
}

// parseDate accepts YYYY-MM-DD or RFC3339. A bare end date is extended to
// the end of that day so the whole day is included.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return &t, nil
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
