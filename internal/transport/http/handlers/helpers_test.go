package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/VaibhavAI05/TasteRail/internal/application/auth"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/media"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/memory"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/security"
	"github.com/VaibhavAI05/TasteRail/internal/transport/http/middleware"
	"github.com/VaibhavAI05/TasteRail/internal/transport/http/response"
)

const testFrontend = "http://frontend.test"

// captureMailer records every outgoing notification.
type captureMailer struct {
	mu     sync.Mutex
	codes  []string
	links  []string
	events []string
}

func (m *captureMailer) SendVerification(_ context.Context, _ string, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	m.events = append(m.events, "verification")
	return nil
}

func (m *captureMailer) SendWelcome(context.Context, string, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "welcome")
	return nil
}

func (m *captureMailer) SendPasswordReset(_ context.Context, _ string, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	m.events = append(m.events, "password_reset")
	return nil
}

func (m *captureMailer) SendResetSuccess(context.Context, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "reset_success")
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.codes) == 0 {
		t.Fatalf("no verification code was mailed")
	}
	return m.codes[len(m.codes)-1]
}

// lastResetToken extracts the token from the most recent reset link.
func (m *captureMailer) lastResetToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.links) == 0 {
		t.Fatalf("no reset link was mailed")
	}
	link := m.links[len(m.links)-1]
	prefix := testFrontend + "/reset-password/"
	if !strings.HasPrefix(link, prefix) {
		t.Fatalf("unexpected reset link %q", link)
	}
	return strings.TrimPrefix(link, prefix)
}

type testEnv struct {
	repo   *memory.UserRepo
	mailer *captureMailer
	router http.Handler

	auditMu sync.Mutex
	audits  map[string][]map[string]string
}

// lastAudit returns the fields of the most recent audit event for action.
func (e *testEnv) lastAudit(t *testing.T, action string) map[string]string {
	t.Helper()
	e.auditMu.Lock()
	defer e.auditMu.Unlock()
	got := e.audits[action]
	if len(got) == 0 {
		t.Fatalf("no %q audit event recorded", action)
	}
	return got[len(got)-1]
}

// newTestEnv mounts the account routes on a bare chi router backed by the memory store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := memory.NewUserRepo()
	mailer := &captureMailer{}
	signer := security.NewJWTSigner("handler-test-secret", "account-service")
	svc := auth.NewService(
		repo,
		security.NewBcryptHasher(4),
		signer,
		mailer,
		media.NewNoopStore(1<<20),
		auth.Config{FrontendURL: testFrontend},
	)
	env := &testEnv{repo: repo, mailer: mailer, audits: map[string][]map[string]string{}}
	svc.WithAudit(func(_ context.Context, action string, fields map[string]string) {
		env.auditMu.Lock()
		defer env.auditMu.Unlock()
		env.audits[action] = append(env.audits[action], fields)
	})
	h := NewAccountHandler(svc, false, 1<<20)

	r := chi.NewRouter()
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/verify-email", h.VerifyEmail)
	r.Post("/logout", h.Logout)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password/{token}", h.ResetPassword)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(signer, response.WriteError))
		r.Get("/check-auth", h.CheckAuth)
		r.Put("/profile/update", h.UpdateProfile)
	})

	env.router = r
	return env
}

// do sends a JSON request; body may be a string (sent raw) or any value (marshaled).
func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		rd = mustJSONBody(t, b)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// mustJSONBody marshals v to JSON and returns an io.Reader for request body.
func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta"`
	User    map[string]any    `json:"user"`
}

func mustReadJSON(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()

	var out envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode json failed; body=%s err=%v", rr.Body.String(), err)
	}
	return out
}

// readCookie finds cookie by name from response headers.
func readCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func mustSessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	c := readCookie(rr, security.SessionCookieName)
	if c == nil || c.Value == "" {
		t.Fatalf("expected %q cookie; headers=%v", security.SessionCookieName, rr.Header())
	}
	return c
}
