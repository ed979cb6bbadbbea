package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/branchline/todotree/internal/auth"
	"github.com/branchline/todotree/internal/database/memory"
	"github.com/branchline/todotree/internal/request"
	"github.com/branchline/todotree/internal/service"
)

func newAuthFixture(t *testing.T) (http.Handler, *auth.TokenIssuer, *service.UserService) {
	t.Helper()

	store := memory.NewStore()
	issuer := auth.NewTokenIssuer("test-secret", time.Minute)
	users := service.NewUserService(store.Users(), issuer, nil)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := request.User(r)
		if user == nil {
			t.Error("handler reached without a resolved user")
		}
		w.WriteHeader(http.StatusOK)
	})
	return Auth(issuer, users, zap.NewNop())(inner), issuer, users
}

func signupUser(t *testing.T, users *service.UserService) string {
	t.Helper()
	_, token, err := users.Signup(context.Background(), service.SignupInput{
		FirstName:       "Frank",
		LastName:        "Meridian",
		Username:        "frank",
		Password:        "Sup3rsecret",
		ConfirmPassword: "Sup3rsecret",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	return token
}

func authErrorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not a JSON string: %q", rec.Body.String())
	}
	return body
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	handler, _, users := newAuthFixture(t)
	token := signupUser(t, users)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid token",
			header:     "Bearer " + token,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
			wantError:  "Error: Token is missing.",
		},
		{
			name:       "malformed header",
			header:     "Bearer",
			wantStatus: http.StatusUnauthorized,
			wantError:  "Error: Invalid token.",
		},
		{
			name:       "wrong scheme",
			header:     "Basic abcdef",
			wantStatus: http.StatusUnauthorized,
			wantError:  "Error: Invalid token.",
		},
		{
			name:       "garbage token",
			header:     "Bearer not-a-token",
			wantStatus: http.StatusUnauthorized,
			wantError:  "Error: Invalid token.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/todos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantError != "" {
				if got := authErrorBody(t, rec); got != tt.wantError {
					t.Errorf("body = %q, want %q", got, tt.wantError)
				}
			}
		})
	}
}

func TestAuthMiddlewareForeignToken(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	live := auth.NewTokenIssuer("test-secret", time.Minute)
	users := service.NewUserService(store.Users(), live, nil)
	token := signupUser(t, users)

	// A token signed with a different secret must fail verification.
	other := auth.NewTokenIssuer("other-secret", time.Minute)
	handler := Auth(other, users, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := authErrorBody(t, rec); got != "Error: Invalid token." {
		t.Errorf("body = %q", got)
	}
}

func TestAuthMiddlewareDeletedUser(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	issuer := auth.NewTokenIssuer("test-secret", time.Minute)
	users := service.NewUserService(store.Users(), issuer, nil)

	user, token, err := users.Signup(context.Background(), service.SignupInput{
		FirstName:       "Frank",
		LastName:        "Meridian",
		Username:        "frank",
		Password:        "Sup3rsecret",
		ConfirmPassword: "Sup3rsecret",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if err := users.DeleteAccount(context.Background(), user); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	handler := Auth(issuer, users, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for a deleted user")
	}))

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if got := authErrorBody(t, rec); got != "Error: User not found." {
		t.Errorf("body = %q", got)
	}
}
