package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mlefebvre/tunesync/internal/models"
)

// fakeAuthenticator exchanges any code for a fixed credential.
type fakeAuthenticator struct {
	err error
}

func (f *fakeAuthenticator) AuthURL(state string) string {
	return "https://auth.example.com/?state=" + state
}

func (f *fakeAuthenticator) Exchange(ctx context.Context, userID, code string) (*models.PlatformCredential, error) {
	if f.err != nil {
		return nil, f.err
	}
	return models.NewPlatformCredential(userID, "spotify", "access-"+code, "refresh", "", nil), nil
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Successful Callback", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeAuthenticator{}, "user-1", "expected-state")

		req := httptest.NewRequest("GET", "/callback?state=expected-state&code=auth-code", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}

		result := <-handler.Result()
		if err := result.Error(); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.Credential.AccessToken() != "access-auth-code" {
			t.Errorf("unexpected token %q", result.Credential.AccessToken())
		}
		if result.Credential.UserID() != "user-1" {
			t.Errorf("unexpected user %q", result.Credential.UserID())
		}
	})

	t.Run("Invalid State", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeAuthenticator{}, "user-1", "expected-state")

		req := httptest.NewRequest("GET", "/callback?state=wrong&code=auth-code", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		result := <-handler.Result()
		if err := result.Error(); err == nil {
			t.Error("expected state mismatch error")
		}
	})

	t.Run("Missing Code", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeAuthenticator{}, "user-1", "expected-state")

		req := httptest.NewRequest("GET", "/callback?state=expected-state&error=access_denied", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		result := <-handler.Result()
		if err := result.Error(); err == nil {
			t.Error("expected authorization error")
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeAuthenticator{err: errors.New("upstream down")}, "user-1", "expected-state")

		req := httptest.NewRequest("GET", "/callback?state=expected-state&code=auth-code", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		result := <-handler.Result()
		if err := result.Error(); err == nil {
			t.Error("expected exchange error")
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeAuthenticator{}, "user-1", "expected-state")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest("GET", "/callback?state=expected-state&code=one", nil))

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest("GET", "/callback?state=expected-state&code=two", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", second.Code)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("GET", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle("GET", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ping", nil))

		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("unexpected middleware order %v", order)
		}
	})
}
