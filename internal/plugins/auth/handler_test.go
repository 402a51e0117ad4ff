package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

// handlerFixture wires a handler over mocks and a miniredis-backed store.
func handlerFixture(t *testing.T, repo *mockUserRepo, resolver IdentityResolver) (*echo.Echo, *Handler, *SessionStore) {
	t.Helper()
	if resolver == nil {
		resolver = &mockResolver{}
	}

	store, m := newTestManager(t, resolver)
	svc := &authService{repo: repo, resolver: resolver, store: store}
	h := NewHandler(svc, m)

	e := echo.New()
	e.POST("/auth/signup", h.Signup)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/logout", h.Logout)
	e.GET("/auth/me", h.Me)

	return e, h, store
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerSignup_Validation(t *testing.T) {
	e, _, _ := handlerFixture(t, &mockUserRepo{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"password":"long-enough-pw"}`},
		{"bad email", `{"email":"not-an-email","password":"long-enough-pw"}`},
		{"missing password", `{"email":"a@example.com"}`},
		{"short password", `{"email":"a@example.com","password":"short"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(e, "/auth/signup", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var result SignupResult
			if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
				t.Fatalf("bad response: %v", err)
			}
			if result.Success {
				t.Error("expected validation failure")
			}
			if result.Error == "" {
				t.Error("expected a message the client can show")
			}
		})
	}
}

func TestHandlerSignup_Success(t *testing.T) {
	e, _, _ := handlerFixture(t, &mockUserRepo{}, nil)

	rec := postJSON(e, "/auth/signup", `{"email":"alice@example.com","full_name":"Alice","password":"long-enough-pw"}`)
	var result SignupResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if result.User == nil || result.User.Role != RoleUser {
		t.Error("expected new account with default role in response")
	}
}

func TestHandlerLogin_SetsSessionCookie(t *testing.T) {
	repo := loginFixtureRepo(t, "correct-password")
	e, _, _ := handlerFixture(t, repo, nil)

	rec := postJSON(e, "/auth/login", `{"email":"alice@example.com","password":"correct-password"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected session cookie to be set")
	}
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly session cookie")
	}

	var result LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if result.RedirectTo != "/" {
		t.Errorf("expected redirect to /, got %s", result.RedirectTo)
	}
}

func TestHandlerLogin_FailureSetsNoCookie(t *testing.T) {
	repo := loginFixtureRepo(t, "correct-password")
	e, _, _ := handlerFixture(t, repo, nil)

	rec := postJSON(e, "/auth/login", `{"email":"alice@example.com","password":"wrong"}`)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			t.Error("expected no session cookie on failed login")
		}
	}
}

func TestHandlerLogin_HonorsSafeNext(t *testing.T) {
	repo := loginFixtureRepo(t, "correct-password")
	e, _, _ := handlerFixture(t, repo, nil)

	rec := postJSON(e, "/auth/login?next=%2Flms%2Fbooks%3Fpage%3D2", `{"email":"alice@example.com","password":"correct-password"}`)
	var result LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if result.RedirectTo != "/lms/books?page=2" {
		t.Errorf("expected resumed navigation, got %s", result.RedirectTo)
	}
}

func TestHandlerLogin_IgnoresUnsafeNext(t *testing.T) {
	repo := loginFixtureRepo(t, "correct-password")
	e, _, _ := handlerFixture(t, repo, nil)

	rec := postJSON(e, "/auth/login?next=https%3A%2F%2Fevil.example%2Fphish", `{"email":"alice@example.com","password":"correct-password"}`)
	var result LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if result.RedirectTo != "/" {
		t.Errorf("expected landing path when next is unsafe, got %s", result.RedirectTo)
	}
}

func TestHandlerLogout_AlwaysClearsCookie(t *testing.T) {
	e, _, _ := handlerFixture(t, &mockUserRepo{}, nil)

	// No session at all: still 200, still a cleared cookie.
	rec := postJSON(e, "/auth/logout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

func TestHandlerMe_Anonymous(t *testing.T) {
	e, _, _ := handlerFixture(t, &mockUserRepo{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if body["user"] != nil {
		t.Errorf("expected user=null for anonymous, got %v", body["user"])
	}
}

func TestHandlerMe_Authenticated(t *testing.T) {
	resolver := newCountingResolver(RoleScholar)
	e, _, store := handlerFixture(t, &mockUserRepo{}, resolver)

	token, err := store.Create(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body struct {
		User *UserProfile `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if body.User == nil {
		t.Fatal("expected user in response")
	}
	if body.User.ID != "user-123" || body.User.Role != RoleScholar {
		t.Errorf("unexpected user: %+v", body.User)
	}
}

func TestIsSafeRedirect(t *testing.T) {
	tests := []struct {
		next string
		want bool
	}{
		{"/lms/books", true},
		{"/lms/books?page=2", true},
		{"/", true},
		{"", false},
		{"https://evil.example/", false},
		{"//evil.example/", false},
		{"javascript:alert(1)", false},
		{"lms/books", false},
	}
	for _, tt := range tests {
		if got := isSafeRedirect(tt.next); got != tt.want {
			t.Errorf("isSafeRedirect(%q) = %v, want %v", tt.next, got, tt.want)
		}
	}
}
