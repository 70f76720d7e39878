package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/shiki/internal/kv"
)

type fakeProvider struct {
	mu       sync.Mutex
	requests map[string][]map[string]any
	keys     []string
	handle   func(method string, body map[string]any) (int, any)
}

func (f *fakeProvider) serve(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, "/v1/")
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	if f.requests == nil {
		f.requests = map[string][]map[string]any{}
	}
	f.requests[method] = append(f.requests[method], body)
	f.keys = append(f.keys, r.URL.Query().Get("key"))
	f.mu.Unlock()

	status, resp := f.handle(method, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeProvider) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests[method])
}

func (f *fakeProvider) keysSeen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func (f *fakeProvider) request(method string, i int) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[method][i]
}

func newTestClient(t *testing.T, store kv.Store, handle func(string, map[string]any) (int, any)) (*Client, *fakeProvider) {
	t.Helper()
	fp := &fakeProvider{handle: handle}
	server := httptest.NewServer(http.HandlerFunc(fp.serve))
	t.Cleanup(server.Close)
	c, err := NewClient(Options{BaseURL: server.URL + "/v1", APIKey: "test-key", Store: store})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c, fp
}

func providerFailure(message string) (int, any) {
	return http.StatusBadRequest, map[string]any{"error": map[string]any{"code": 400, "message": message}}
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestSignInWithEmail(t *testing.T) {
	store := kv.NewMemory(nil)
	token := signedToken(t, jwt.MapClaims{
		"sub":     "uid-1",
		"name":    "Mika",
		"picture": "https://example.com/mika.png",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	c, fp := newTestClient(t, store, func(method string, body map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"localId":      "uid-1",
			"email":        body["email"],
			"idToken":      token,
			"refreshToken": "refresh",
			"expiresIn":    "3600",
		}
	})

	var seen []*User
	unsubscribe := c.Subscribe(func(u *User) { seen = append(seen, u) })
	defer unsubscribe()

	user, err := c.SignInWithEmail(context.Background(), "  mika@example.com ", "hunter22")
	if err != nil {
		t.Fatalf("SignInWithEmail returned error: %v", err)
	}
	if user.UID != "uid-1" || user.Email != "mika@example.com" {
		t.Fatalf("user = %+v", user)
	}
	if user.DisplayName != "Mika" || user.PhotoURL != "https://example.com/mika.png" {
		t.Fatalf("token claims not applied: %+v", user)
	}
	if keys := fp.keysSeen(); fp.count("accounts:signInWithPassword") != 1 || keys[0] != "test-key" {
		t.Fatalf("unexpected requests: keys=%v", keys)
	}
	if len(seen) != 2 || seen[0] != nil || seen[1] == nil || seen[1].UID != "uid-1" {
		t.Fatalf("subscriber saw %v, want [nil, uid-1]", seen)
	}

	raw, ok := store.Raw(SessionKey)
	if !ok || !strings.Contains(raw, `"refresh_token":"refresh"`) {
		t.Fatalf("session not persisted: %q", raw)
	}
}

func TestSignInMapsProviderErrors(t *testing.T) {
	cases := map[string]string{
		"EMAIL_NOT_FOUND":                   "No account exists for that email.",
		"INVALID_LOGIN_CREDENTIALS":         "Email or password is incorrect.",
		"TOO_MANY_ATTEMPTS_TRY_LATER : x y": "Too many attempts. Wait a moment and try again.",
		"SOMETHING_NEW : Custom detail":     "Custom detail",
		"SOMETHING_ELSE":                    "Sign-in failed: something else",
	}
	for raw, want := range cases {
		c, _ := newTestClient(t, nil, func(string, map[string]any) (int, any) {
			return providerFailure(raw)
		})
		_, err := c.SignInWithEmail(context.Background(), "a@b.co", "secret1")
		var ae *Error
		if !errors.As(err, &ae) {
			t.Fatalf("%s: err = %v, want *Error", raw, err)
		}
		if ae.Message != want {
			t.Fatalf("%s: message = %q, want %q", raw, ae.Message, want)
		}
		if !IsUserError(err) {
			t.Fatalf("%s: IsUserError = false", raw)
		}
		if c.Current() != nil {
			t.Fatalf("%s: failed sign-in left a session", raw)
		}
	}
}

func TestInputValidationSkipsNetwork(t *testing.T) {
	c, fp := newTestClient(t, nil, func(string, map[string]any) (int, any) {
		return http.StatusOK, map[string]any{}
	})
	ctx := context.Background()

	tests := []struct {
		name     string
		call     func() error
		wantCode string
	}{
		{"bad email", func() error { _, err := c.SignInWithEmail(ctx, "nope", "secret1"); return err }, "INVALID_EMAIL"},
		{"missing email", func() error { _, err := c.SignInWithEmail(ctx, " ", "secret1"); return err }, "MISSING_EMAIL"},
		{"missing password", func() error { _, err := c.SignInWithEmail(ctx, "a@b.co", ""); return err }, "MISSING_PASSWORD"},
		{"weak password", func() error { _, err := c.SignUpWithEmail(ctx, "a@b.co", "123", ""); return err }, "WEAK_PASSWORD"},
		{"missing credential", func() error { _, err := c.SignInWithCredential(ctx, "google.com", ""); return err }, "MISSING_CREDENTIAL"},
	}
	for _, tt := range tests {
		var ae *Error
		if err := tt.call(); !errors.As(err, &ae) || ae.Code != tt.wantCode {
			t.Fatalf("%s: err = %v, want code %s", tt.name, err, tt.wantCode)
		}
	}
	if n := len(fp.keysSeen()); n != 0 {
		t.Fatalf("validation failures reached the provider %d times", n)
	}
}

func TestSignUpSetsDisplayName(t *testing.T) {
	c, fp := newTestClient(t, nil, func(method string, body map[string]any) (int, any) {
		switch method {
		case "accounts:signUp":
			return http.StatusOK, map[string]any{"localId": "new", "email": body["email"], "idToken": "first"}
		case "accounts:update":
			if body["idToken"] != "first" || body["displayName"] != "Ren" {
				return providerFailure("INVALID_ID_TOKEN")
			}
			return http.StatusOK, map[string]any{"localId": "new", "displayName": "Ren", "idToken": "second"}
		}
		return http.StatusNotFound, map[string]any{}
	})
	user, err := c.SignUpWithEmail(context.Background(), "ren@example.com", "longenough", "Ren")
	if err != nil {
		t.Fatalf("SignUpWithEmail returned error: %v", err)
	}
	if user.DisplayName != "Ren" || fp.count("accounts:update") != 1 {
		t.Fatalf("user = %+v, updates = %d", user, fp.count("accounts:update"))
	}
}

func TestSignUpEmailExists(t *testing.T) {
	c, _ := newTestClient(t, nil, func(string, map[string]any) (int, any) {
		return providerFailure("EMAIL_EXISTS")
	})
	_, err := c.SignUpWithEmail(context.Background(), "a@b.co", "secret1", "")
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != "EMAIL_EXISTS" {
		t.Fatalf("err = %v, want EMAIL_EXISTS", err)
	}
}

func TestSignInWithCredential(t *testing.T) {
	c, fp := newTestClient(t, nil, func(method string, body map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"localId": "g-1", "email": "g@example.com", "photoUrl": "https://example.com/g.png"}
	})
	user, err := c.SignInWithCredential(context.Background(), "google.com", "google-id-token")
	if err != nil {
		t.Fatalf("SignInWithCredential returned error: %v", err)
	}
	if user.UID != "g-1" || user.PhotoURL == "" {
		t.Fatalf("user = %+v", user)
	}
	body := fp.request("accounts:signInWithIdp", 0)
	post, err := url.ParseQuery(body["postBody"].(string))
	if err != nil {
		t.Fatalf("postBody is not a query string: %v", err)
	}
	if post.Get("id_token") != "google-id-token" || post.Get("providerId") != "google.com" {
		t.Fatalf("postBody = %v", post)
	}
	if body["returnSecureToken"] != true {
		t.Fatalf("returnSecureToken missing: %v", body)
	}
}

func TestSessionRestoreAndSignOut(t *testing.T) {
	store := kv.NewMemory(nil)
	c, _ := newTestClient(t, store, func(string, map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"localId": "uid-9", "email": "nine@example.com"}
	})
	if _, err := c.SignInWithEmail(context.Background(), "nine@example.com", "secret1"); err != nil {
		t.Fatalf("SignInWithEmail returned error: %v", err)
	}

	restored, err := NewClient(Options{APIKey: "k", Store: store})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := restored.Restore(context.Background()); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if u := restored.Current(); u == nil || u.UID != "uid-9" {
		t.Fatalf("restored user = %+v, want uid-9", u)
	}

	var last *User
	notified := false
	restored.Subscribe(func(u *User) { last, notified = u, true })
	notified = false
	if err := restored.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut returned error: %v", err)
	}
	if !notified || last != nil {
		t.Fatalf("sign-out notification = %v/%+v, want nil user", notified, last)
	}
	if err := restored.SignOut(context.Background()); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("second SignOut err = %v, want ErrNotSignedIn", err)
	}

	again, _ := NewClient(Options{Store: store})
	if err := again.Restore(context.Background()); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if again.Current() != nil {
		t.Fatalf("session survived sign-out")
	}
}

func TestRestoreIgnoresGarbage(t *testing.T) {
	store := kv.NewMemory(map[string]string{SessionKey: "{not json"})
	c, _ := NewClient(Options{Store: store})
	if err := c.Restore(context.Background()); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if c.Current() != nil {
		t.Fatalf("garbage session produced a user")
	}
}

func TestNotConfigured(t *testing.T) {
	c, _ := NewClient(Options{})
	if c.Enabled() {
		t.Fatalf("client without key reports enabled")
	}
	_, err := c.SignInWithEmail(context.Background(), "a@b.co", "secret1")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
