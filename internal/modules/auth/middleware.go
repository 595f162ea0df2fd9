package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgrijalva/jwt-go"
)

// Middleware guards routes with bearer-token authentication.
type Middleware struct {
	secret []byte
}

func NewMiddleware(secret []byte) *Middleware {
	return &Middleware{secret: secret}
}

// RequireUser rejects requests without a valid token and stores the actor
// in the request context.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := m.authenticate(r)
		if !ok {
			reject(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireAdmin additionally rejects non-admin actors.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			actor, ok = m.authenticate(r)
			if !ok {
				reject(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
			r = r.WithContext(WithActor(r.Context(), actor))
		}
		if !actor.IsAdmin {
			reject(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) authenticate(r *http.Request) (Actor, bool) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return Actor{}, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		// Only the HMAC family we issue may verify against the shared secret.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return Actor{}, false
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Actor{}, false
	}
	return Actor{ID: id, IsAdmin: claims.IsAdmin}, true
}

func reject(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
