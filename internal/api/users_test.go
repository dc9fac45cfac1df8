package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Esosek/tubely/internal/auth"
	"github.com/Esosek/tubely/pkg/models"
)

func credentialsBody(email, password string) *strings.Reader {
	return strings.NewReader(`{"email":"` + email + `","password":"` + password + `"}`)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest("POST", "/register", credentialsBody("alice@example.com", "hunter22"))
	rr := httptest.NewRecorder()
	f.handlers.RegisterHandler(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d; body %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var user models.User
	if err := json.Unmarshal(rr.Body.Bytes(), &user); err != nil {
		t.Fatalf("response unmarshal error = %v", err)
	}
	if user.ID == "" {
		t.Error("response user has no ID")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want alice@example.com", user.Email)
	}
	if strings.Contains(rr.Body.String(), "passwordHash") {
		t.Error("response leaks the password hash")
	}

	stored := f.store.users["alice@example.com"]
	if stored.PasswordHash == "" || stored.PasswordHash == "hunter22" {
		t.Error("stored password is not hashed")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.store.users["alice@example.com"] = models.User{
		ID:    "existing",
		Email: "alice@example.com",
	}

	req := httptest.NewRequest("POST", "/register", credentialsBody("alice@example.com", "hunter22"))
	rr := httptest.NewRecorder()
	f.handlers.RegisterHandler(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestRegister_InvalidBody(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: "{not json"},
		{name: "missing email", body: `{"password":"hunter22"}`},
		{name: "missing password", body: `{"email":"alice@example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/register", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			f.handlers.RegisterHandler(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func registerUser(t *testing.T, f *handlerFixture, email, password string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/register", credentialsBody(email, password))
	rr := httptest.NewRecorder()
	f.handlers.RegisterHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d", rr.Code, http.StatusCreated)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	registerUser(t, f, "bob@example.com", "correct horse")

	req := httptest.NewRequest("POST", "/login", credentialsBody("bob@example.com", "correct horse"))
	rr := httptest.NewRecorder()
	f.handlers.LoginHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d; body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response unmarshal error = %v", err)
	}

	claims, err := f.jwt.ValidateToken(resp["token"])
	if err != nil {
		t.Fatalf("returned token does not validate: %v", err)
	}
	if claims.UserID != f.store.users["bob@example.com"].ID {
		t.Errorf("token UserID = %q, want the registered user's ID", claims.UserID)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	registerUser(t, f, "bob@example.com", "correct horse")

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "unknown email", email: "mallory@example.com", password: "correct horse"},
		{name: "wrong password", email: "bob@example.com", password: "wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/login", credentialsBody(tt.email, tt.password))
			rr := httptest.NewRecorder()
			f.handlers.LoginHandler(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("Status = %d, want %d", rr.Code, http.StatusUnauthorized)
			}
			// Both failures must be indistinguishable to the client.
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("response unmarshal error = %v", err)
			}
			if resp["error"] != "Invalid credentials" {
				t.Errorf("error = %q, want generic invalid credentials message", resp["error"])
			}
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	f := newFixture(t)
	registerUser(t, f, "bob@example.com", "correct horse")

	rl := auth.NewRateLimiter(auth.RateLimiterConfig{
		MaxFailedAttempts: 2,
		Window:            time.Minute,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()
	f.handlers.rateLimiter = rl

	attempt := func(password string) int {
		req := httptest.NewRequest("POST", "/login", credentialsBody("bob@example.com", password))
		req.RemoteAddr = "10.9.8.7:4567"
		rr := httptest.NewRecorder()
		f.handlers.LoginHandler(rr, req)
		return rr.Code
	}

	if code := attempt("wrong"); code != http.StatusUnauthorized {
		t.Fatalf("first failure status = %d, want %d", code, http.StatusUnauthorized)
	}
	if code := attempt("wrong"); code != http.StatusUnauthorized {
		t.Fatalf("second failure status = %d, want %d", code, http.StatusUnauthorized)
	}
	if code := attempt("correct horse"); code != http.StatusTooManyRequests {
		t.Errorf("limited status = %d, want %d even with the right password", code, http.StatusTooManyRequests)
	}
}

func TestLogin_SuccessResetsFailures(t *testing.T) {
	f := newFixture(t)
	registerUser(t, f, "bob@example.com", "correct horse")

	rl := auth.NewRateLimiter(auth.RateLimiterConfig{
		MaxFailedAttempts: 2,
		Window:            time.Minute,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()
	f.handlers.rateLimiter = rl

	attempt := func(password string) int {
		req := httptest.NewRequest("POST", "/login", credentialsBody("bob@example.com", password))
		req.RemoteAddr = "10.9.8.7:4567"
		rr := httptest.NewRecorder()
		f.handlers.LoginHandler(rr, req)
		return rr.Code
	}

	attempt("wrong")
	if code := attempt("correct horse"); code != http.StatusOK {
		t.Fatalf("login status = %d, want %d", code, http.StatusOK)
	}
	attempt("wrong")
	// One failure since the successful login; the counter must have reset.
	if code := attempt("correct horse"); code != http.StatusOK {
		t.Errorf("login status after reset = %d, want %d", code, http.StatusOK)
	}
}
