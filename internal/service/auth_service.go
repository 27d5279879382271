package service

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents JWT claims
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LoginResult is the token issued on a successful login
type LoginResult struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Email     string    `json:"email"`
}

// AuthService issues and verifies admin tokens. Without configured admin
// credentials any non-empty email and password are accepted.
type AuthService struct {
	secret        []byte
	adminEmail    string
	adminPassword string
	ttl           time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(secret, adminEmail, adminPassword string, ttl time.Duration) *AuthService {
	return &AuthService{
		secret:        []byte(secret),
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		ttl:           ttl,
	}
}

// Login checks the credentials and signs a token
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if s.adminEmail != "" || s.adminPassword != "" {
		emailOK := strings.EqualFold(email, s.adminEmail)
		passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
		if !emailOK || !passwordOK {
			return nil, ErrInvalidCredentials
		}
	}

	now := time.Now()
	expires := now.Add(s.ttl)
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expires.UTC().Truncate(time.Second),
		Email:     email,
	}, nil
}

// ValidateToken parses a token, with or without the Bearer prefix
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
