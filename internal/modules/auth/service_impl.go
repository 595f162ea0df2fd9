package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/medtrack/rx-backend/internal/modules/user"
)

// Claims are the token claims issued at login.
type Claims struct {
	jwt.StandardClaims
	IsAdmin bool `json:"is_admin"`
}

type service struct {
	userRepo user.Repository
	secret   []byte
}

// NewService creates a new auth service signing tokens with the given secret.
func NewService(userRepo user.Repository, secret []byte) Service {
	return &service{userRepo: userRepo, secret: secret}
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", errors.New("invalid credentials")
	}
	if !u.IsActive {
		return "", errors.New("account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			ExpiresAt: expirationTime.Unix(),
		},
		IsAdmin: u.IsAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
