package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Esosek/tubely/internal/auth"
	"github.com/Esosek/tubely/internal/metrics"
	"github.com/Esosek/tubely/pkg/models"
)

// MaxCredentialBodySize bounds login/register request bodies.
const MaxCredentialBodySize = 1 << 20 // 1 MB

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxCredentialBodySize)

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return req, false
	}
	if req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Email and password are required", nil)
		return req, false
	}

	return req, true
}

// RegisterHandler handles POST /register: creates an account with a
// bcrypt-hashed password.
func (h *Handlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrUserExists) {
			h.writeError(w, http.StatusConflict, "An account with this email already exists", nil)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	h.log.Info("User registered", "userId", user.ID)
	h.writeJSON(w, http.StatusCreated, user)
}

// LoginHandler handles POST /login: verifies credentials and returns a JWT.
// Failed attempts are rate-limited per client IP.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	clientIP := auth.GetClientIP(r)

	if h.rateLimiter != nil && h.rateLimiter.IsLimited(clientIP) {
		metrics.AuthFailures.WithLabelValues("rate_limited").Inc()
		h.writeError(w, http.StatusTooManyRequests, "Too many failed attempts, try again later", nil)
		return
	}

	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		h.writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}

	// Same failure response for unknown email and wrong password.
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		if h.rateLimiter != nil {
			h.rateLimiter.RecordFailure(clientIP)
		}
		metrics.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		h.log.Warn("Failed login attempt", "email", req.Email, "ip", clientIP)
		h.writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	if h.rateLimiter != nil {
		h.rateLimiter.Reset(clientIP)
	}

	h.log.Info("Successful login", "userId", user.ID, "ip", clientIP)
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
