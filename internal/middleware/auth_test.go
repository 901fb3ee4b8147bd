package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tammydufil/moodlagosapi/internal/auth"
	"github.com/tammydufil/moodlagosapi/internal/middleware"
)

const testSecret = "test-secret"

func protectedHandler(t *testing.T, wantUsername string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			t.Error("claims missing from context")
			return
		}
		if claims.Username != wantUsername {
			t.Errorf("username: got %q, want %q", claims.Username, wantUsername)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_ValidToken(t *testing.T) {
	token, err := auth.GenerateToken(testSecret, "amaka", "staff", auth.Modules{KitchenManage: true})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	handler := middleware.Authenticate(testSecret)(protectedHandler(t, "amaka"))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	token, err := auth.GenerateToken("other-secret", "amaka", "staff", auth.Modules{})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRequireModule(t *testing.T) {
	token, err := auth.GenerateToken(testSecret, "chef", "staff", auth.Modules{KitchenManage: true})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	allowed := middleware.Authenticate(testSecret)(
		middleware.RequireModule(func(m auth.Modules) bool { return m.KitchenManage })(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))
	denied := middleware.Authenticate(testSecret)(
		middleware.RequireModule(func(m auth.Modules) bool { return m.CashierManage })(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be reached")
			})))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	allowed.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("allowed status: got %d, want %d", rr.Code, http.StatusOK)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	denied.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("denied status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}
