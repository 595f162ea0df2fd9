package notification

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// writeWait bounds how long a single send may block on one peer. A client
// that cannot drain its socket within it errors out and is dropped instead
// of stalling the fan-out.
const writeWait = 10 * time.Second

// Handler exposes the live websocket feed and the synchronous snapshot of
// active notifications clients query on connect.
type Handler struct {
	repo     Repository
	registry *Registry
	upgrader websocket.Upgrader
}

func NewHandler(repo Repository, registry *Registry) *Handler {
	return &Handler{
		repo:     repo,
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(r *chi.Mux, requireUser func(http.Handler) http.Handler) {
	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Get("/ws", h.subscribe)                        // GET /api/v1/notifications/ws
		r.With(requireUser).Get("/active", h.listActive) // GET /api/v1/notifications/active
	})
}

// wsSession adapts a websocket connection to the registry's Session. Writes
// are serialized: the broadcaster and the close path may race otherwise.
type wsSession struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSession) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *wsSession) Close() error { return s.conn.Close() }

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := h.registry.Add(&wsSession{conn: conn})

	// Inbound traffic is tolerated and discarded; the session exists purely
	// to receive pushes. The read loop doubles as disconnect detection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.registry.Remove(id)
}

type activeNotification struct {
	Message string `json:"message"`
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	notifs, err := h.repo.ListActive(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make([]activeNotification, 0, len(notifs))
	for _, n := range notifs {
		out = append(out, activeNotification{Message: n.Message})
	}
	respond(w, http.StatusOK, out)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
