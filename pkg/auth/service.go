package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/botslatam/admin-engine/pkg/models"
)

// Service defines the interface for issuing and validating access tokens.
type Service interface {
	// IssueToken creates a signed access token for the user.
	IssueToken(user *models.User) (string, error)
	// ValidateToken parses and verifies a token string.
	ValidateToken(tokenString string) (*Claims, error)
	// ValidateRequest extracts and validates the bearer token from an HTTP request.
	// Returns the claims and the raw token string.
	ValidateRequest(r *http.Request) (*Claims, string, error)
}

// service implements Service using HS256 with a shared secret.
type service struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates a new auth service.
func NewService(secret string, tokenTTL time.Duration) Service {
	return &service{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// IssueToken creates a signed access token for the user.
func (s *service) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		Email: user.Email,
		Role:  user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string.
func (s *service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ValidateRequest extracts and validates the bearer token from an HTTP request.
func (s *service) ValidateRequest(r *http.Request) (*Claims, string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, "", fmt.Errorf("missing Authorization header")
	}

	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, "", fmt.Errorf("Authorization header is not a bearer token")
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, "", err
	}
	return claims, tokenString, nil
}

// UserID returns the user ID carried in the claims subject.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID in token subject: %w", err)
	}
	return id, nil
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)
