// Package auth provides JWT issuance and validation for the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Esosek/tubely/internal/metrics"
)

// TokenLifetime is how long issued tokens remain valid.
const TokenLifetime = 24 * time.Hour

// Auth errors
var (
	ErrMissingSecret     = errors.New("JWT secret is required")
	ErrEmptyUserID       = errors.New("user ID is required")
	ErrMissingAuthHeader = errors.New("authorization header missing")
	ErrInvalidAuthFormat = errors.New("invalid authorization format")
	ErrInvalidToken      = errors.New("invalid or expired token")
)

// Claims holds the JWT claims for an authenticated user.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTService issues and validates tokens signed with an HMAC secret.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a JWTService with the given signing secret.
func NewJWTService(secret []byte) (*JWTService, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	return &JWTService{secret: secret}, nil
}

// GenerateToken creates a signed token for the given user ID.
func (s *JWTService) GenerateToken(userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "tubely",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken parses and validates a token, returning its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Authenticate extracts and validates the bearer token from a request,
// returning the authenticated user ID.
func (s *JWTService) Authenticate(r *http.Request) (string, error) {
	tokenString, err := ExtractTokenFromRequest(r)
	if err != nil {
		return "", err
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	return claims.UserID, nil
}

// ExtractTokenFromRequest pulls the bearer token from the Authorization header.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrInvalidAuthFormat
	}

	return token, nil
}

type contextKey string

const claimsContextKey contextKey = "authClaims"

// SetClaimsInContext stores claims in the context.
func SetClaimsInContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// GetClaimsFromContext retrieves claims from the context.
func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// Middleware validates the bearer token, enforces the failed-auth rate limit,
// and injects the claims into the request context.
func (s *JWTService) Middleware(rl *RateLimiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			clientIP := GetClientIP(r)

			if rl != nil && rl.IsLimited(clientIP) {
				metrics.AuthFailures.WithLabelValues("rate_limited").Inc()
				http.Error(w, "Too many failed attempts", http.StatusTooManyRequests)
				return
			}

			tokenString, err := ExtractTokenFromRequest(r)
			if err != nil {
				metrics.AuthFailures.WithLabelValues("missing_token").Inc()
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := s.ValidateToken(tokenString)
			if err != nil {
				if rl != nil {
					rl.RecordFailure(clientIP)
				}
				metrics.AuthFailures.WithLabelValues("invalid_token").Inc()
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetClaimsInContext(r.Context(), claims)))
		}
	}
}
