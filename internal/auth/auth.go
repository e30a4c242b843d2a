package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims identifies the client an API key was issued to. This service
// has no end-user accounts: every caller is a client service holding an
// API key, not a signed-in human.
type Claims struct {
	ClientID string `json:"clientId"`
	jwt.RegisteredClaims
}

// Service issues and verifies bearer tokens for service-to-service API
// access, and hashes the long-lived API keys those tokens are exchanged
// for.
type Service struct {
	jwtSecret     []byte
	tokenDuration time.Duration
}

func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: time.Hour,
	}
}

// HashAPIKey hashes a client's API key for storage.
func (s *Service) HashAPIKey(key string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckAPIKey compares a presented API key against its stored hash.
func (s *Service) CheckAPIKey(key, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
	return err == nil
}

// GenerateToken issues a short-lived bearer token for clientID, exchanged
// once after an API key check succeeds.
func (s *Service) GenerateToken(clientID string) (string, error) {
	claims := &Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "crosscsp",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a bearer token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// RefreshToken issues a fresh token for the same client, extending its
// session without requiring the API key again.
func (s *Service) RefreshToken(claims *Claims) (string, error) {
	return s.GenerateToken(claims.ClientID)
}
