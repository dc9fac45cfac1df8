package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func newTestService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService([]byte(testSecret))
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	return svc
}

func TestNewJWTService_EmptySecret(t *testing.T) {
	if _, err := NewJWTService(nil); err != ErrMissingSecret {
		t.Errorf("NewJWTService(nil) error = %v, want %v", err, ErrMissingSecret)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-123")
	}
	if claims.Issuer != "tubely" {
		t.Errorf("Issuer = %q, want tubely", claims.Issuer)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > TokenLifetime {
		t.Error("token expiry not set within the lifetime")
	}
}

func TestGenerateToken_EmptyUserID(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.GenerateToken(""); err != ErrEmptyUserID {
		t.Errorf("GenerateToken(\"\") error = %v, want %v", err, ErrEmptyUserID)
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ValidateToken(tt.token); err != ErrInvalidToken {
				t.Errorf("ValidateToken(%q) error = %v, want %v", tt.token, err, ErrInvalidToken)
			}
		})
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestService(t)
	other, err := NewJWTService([]byte("a-completely-different-secret-value"))
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}

	token, err := other.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := svc.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("ValidateToken() with wrong secret error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestExtractTokenFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantErr   error
	}{
		{name: "valid bearer", header: "Bearer abc123", wantToken: "abc123"},
		{name: "lowercase bearer", header: "bearer abc123", wantToken: "abc123"},
		{name: "missing header", header: "", wantErr: ErrMissingAuthHeader},
		{name: "no token", header: "Bearer", wantErr: ErrInvalidAuthFormat},
		{name: "blank token", header: "Bearer   ", wantErr: ErrInvalidAuthFormat},
		{name: "wrong scheme", header: "Basic abc123", wantErr: ErrInvalidAuthFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			token, err := ExtractTokenFromRequest(r)
			if err != tt.wantErr {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.GenerateToken("user-456")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	userID, err := svc.Authenticate(r)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if userID != "user-456" {
		t.Errorf("userID = %q, want user-456", userID)
	}
}

func TestClaimsContext(t *testing.T) {
	claims := &Claims{UserID: "user-789"}
	ctx := SetClaimsInContext(context.Background(), claims)

	got, ok := GetClaimsFromContext(ctx)
	if !ok {
		t.Fatal("GetClaimsFromContext() ok = false")
	}
	if got.UserID != "user-789" {
		t.Errorf("UserID = %q, want user-789", got.UserID)
	}

	if _, ok := GetClaimsFromContext(context.Background()); ok {
		t.Error("GetClaimsFromContext() on empty context ok = true")
	}
}

func TestMiddleware(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.GenerateToken("user-abc")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	var gotClaims *Claims
	handler := svc.Middleware(nil)(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "valid token", authHeader: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", authHeader: "Bearer bogus", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClaims = nil
			r := httptest.NewRequest("GET", "/", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			handler(rr, r)

			if rr.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotClaims == nil || gotClaims.UserID != "user-abc" {
					t.Errorf("claims in context = %+v, want UserID user-abc", gotClaims)
				}
			}
		})
	}
}

func TestMiddleware_RateLimited(t *testing.T) {
	svc := newTestService(t)
	rl := NewRateLimiter(RateLimiterConfig{
		MaxFailedAttempts: 2,
		Window:            time.Minute,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	handler := svc.Middleware(rl)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func() int {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.1.2.3:54321"
		r.Header.Set("Authorization", "Bearer bogus")
		rr := httptest.NewRecorder()
		handler(rr, r)
		return rr.Code
	}

	if code := send(); code != http.StatusUnauthorized {
		t.Fatalf("first failure status = %d, want %d", code, http.StatusUnauthorized)
	}
	if code := send(); code != http.StatusUnauthorized {
		t.Fatalf("second failure status = %d, want %d", code, http.StatusUnauthorized)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Errorf("limited status = %d, want %d", code, http.StatusTooManyRequests)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		MaxFailedAttempts: 3,
		Window:            50 * time.Millisecond,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	const ip = "192.168.1.10"

	if rl.IsLimited(ip) {
		t.Error("fresh IP reported limited")
	}

	for range 3 {
		rl.RecordFailure(ip)
	}
	if !rl.IsLimited(ip) {
		t.Error("IP not limited after reaching threshold")
	}

	rl.Reset(ip)
	if rl.IsLimited(ip) {
		t.Error("IP still limited after Reset")
	}

	for range 3 {
		rl.RecordFailure(ip)
	}
	time.Sleep(60 * time.Millisecond)
	if rl.IsLimited(ip) {
		t.Error("IP still limited after the window expired")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "203.0.113.7:1234",
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.2"},
			want:       "198.51.100.2",
		},
		{
			name:       "x-forwarded-for chain",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"},
			want:       "198.51.100.2",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
		{
			name:       "forwarded-for wins over real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers: map[string]string{
				"X-Forwarded-For": "198.51.100.2",
				"X-Real-IP":       "198.51.100.9",
			},
			want: "198.51.100.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
