package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/medtrack/rx-backend/internal/modules/user"
)

type fakeUserRepo struct {
	users map[string]*user.User
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *user.User) error { return nil }

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func newFakeRepo(t *testing.T, username, password string, isAdmin bool) *fakeUserRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &fakeUserRepo{users: map[string]*user.User{
		username: {ID: 9, Username: username, PasswordHash: string(hash), IsAdmin: isAdmin, IsActive: true},
	}}
}

func TestLoginAndMiddlewareRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	repo := newFakeRepo(t, "pharmacist", "correct-horse", false)
	s := NewService(repo, secret)

	token, err := s.Login(context.Background(), "pharmacist", "correct-horse")
	require.NoError(t, err)

	mw := NewMiddleware(secret)
	var got Actor
	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(9), got.ID)
	require.False(t, got.IsAdmin)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := NewService(newFakeRepo(t, "pharmacist", "correct-horse", false), []byte("x"))
	_, err := s.Login(context.Background(), "pharmacist", "wrong")
	require.Error(t, err)
}

func TestRequireUserRejectsMissingToken(t *testing.T) {
	mw := NewMiddleware([]byte("test-secret"))
	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserRejectsNonHMACToken(t *testing.T) {
	claims := &Claims{StandardClaims: jwt.StandardClaims{
		Subject:   "9",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	mw := NewMiddleware([]byte("test-secret"))
	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	secret := []byte("test-secret")
	s := NewService(newFakeRepo(t, "pharmacist", "correct-horse", false), secret)
	token, err := s.Login(context.Background(), "pharmacist", "correct-horse")
	require.NoError(t, err)

	mw := NewMiddleware(secret)
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminAcceptsAdmin(t *testing.T) {
	secret := []byte("test-secret")
	s := NewService(newFakeRepo(t, "chief", "correct-horse", true), secret)
	token, err := s.Login(context.Background(), "chief", "correct-horse")
	require.NoError(t, err)

	mw := NewMiddleware(secret)
	called := false
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.True(t, called)
}
