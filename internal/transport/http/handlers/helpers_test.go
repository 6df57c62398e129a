package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careercompass/auth-service/internal/application/auth"
	"github.com/careercompass/auth-service/internal/domain"
	"github.com/careercompass/auth-service/internal/infrastructure/memory"
	"github.com/careercompass/auth-service/internal/infrastructure/security"
	"github.com/careercompass/auth-service/internal/transport/http/handlers"
	"github.com/careercompass/auth-service/internal/transport/http/middleware"
	"github.com/careercompass/auth-service/internal/transport/http/router"
)

// capturingNotifier records queued notifications for assertions.
type capturingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *capturingNotifier) Notify(_ context.Context, _ domain.User, notif domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notif)
}

func (n *capturingNotifier) byKind(kind domain.NotificationKind) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Notification
	for _, s := range n.sent {
		if s.Kind() == kind {
			out = append(out, s)
		}
	}
	return out
}

// countingLimiter is a deterministic in-process fixed-window stand-in.
type countingLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingLimiter() *countingLimiter {
	return &countingLimiter{counts: map[string]int{}}
}

func (l *countingLimiter) Check(_ context.Context, scope, key string, limit int, window time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := scope + ":" + key
	l.counts[k]++
	if l.counts[k] > limit {
		return domain.ErrRateLimited(scope, window)
	}
	return nil
}

type testServer struct {
	srv      *httptest.Server
	notifier *capturingNotifier
	limiter  *countingLimiter
	links    *security.URLSigner
	users    *memory.UserRepo
	svc      *auth.Service
	provider *stubProvider
}

type stubProvider struct {
	configured    bool
	info          auth.OAuthUserInfo
	lastState     string
	lastChallenge string
}

func (p *stubProvider) IsConfigured() bool { return p.configured }

func (p *stubProvider) AuthURL(state, challenge string) string {
	p.lastState = state
	p.lastChallenge = challenge
	return "https://provider.test/authorize?state=" + state
}

func (p *stubProvider) Exchange(_ context.Context, code, verifier string) (auth.OAuthUserInfo, error) {
	if code == "" || verifier == "" {
		return auth.OAuthUserInfo{}, domain.ErrInternal(nil)
	}
	return p.info, nil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := memory.NewUserRepo()
	sessions := memory.NewSessionStore()
	states := memory.NewOAuthStateStore(10 * time.Minute)
	used := memory.NewConsumedTokenStore()
	otp := memory.NewOTPStore()
	notifier := &capturingNotifier{}
	limiter := newCountingLimiter()

	hasher := security.NewBcryptHasher(4)
	tokens := security.NewJWTSigner("test-secret", "careercompass-test")
	links := security.NewURLSigner("test-signing-key")

	svc := auth.NewService(users, hasher, tokens, sessions, links, used, otp, notifier, auth.Config{
		AccessTokenTTL:   15 * time.Minute,
		SessionTTL:       24 * time.Hour,
		PasswordResetTTL: time.Hour,
		VerifyEmailTTL:   time.Hour,
		OTPTTL:           10 * time.Minute,
		FrontendURL:      "https://app.test",
		APIBaseURL:       "https://api.test",
	})

	provider := &stubProvider{configured: true, info: auth.OAuthUserInfo{
		Subject: "g-1", Email: "social@example.com", EmailVerified: true, Name: "Social User",
	}}
	socialSvc := auth.NewSocialService(svc, states, map[string]auth.OAuthProvider{"google": provider})

	guard := middleware.NewGuard(tokens, svc)
	handler := router.New(router.Deps{
		Auth:   handlers.NewAuthHandler(svc, limiter, 24*time.Hour, false, "https://app.test"),
		Social: handlers.NewSocialHandler(socialSvc, 24*time.Hour, false, "https://app.test"),
		User:   handlers.NewUserHandler(),
		Health: handlers.NewHealthHandler(nil, nil),
		Guard:  guard,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		srv:      srv,
		notifier: notifier,
		limiter:  limiter,
		links:    links,
		users:    users,
		svc:      svc,
		provider: provider,
	}
}

type apiResponse struct {
	status int
	body   map[string]any
	resp   *http.Response
}

func (ts *testServer) do(t *testing.T, method, path string, payload any, mutate ...func(*http.Request)) apiResponse {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, fn := range mutate {
		fn(req)
	}

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return apiResponse{status: resp.StatusCode, body: decoded, resp: resp}
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(c)
	}
}

func (ts *testServer) register(t *testing.T, name, email, password string) apiResponse {
	t.Helper()
	return ts.do(t, http.MethodPost, "/auth/register", map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              password,
		"password_confirmation": password,
	})
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == security.SessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func errorBody(t *testing.T, res apiResponse) map[string]any {
	t.Helper()
	require.Equal(t, "error", res.body["status"])
	errObj, ok := res.body["error"].(map[string]any)
	require.True(t, ok, "missing error object: %v", res.body)
	return errObj
}

func dataBody(t *testing.T, res apiResponse) map[string]any {
	t.Helper()
	require.Equal(t, "success", res.body["status"])
	data, ok := res.body["data"].(map[string]any)
	require.True(t, ok, "missing data object: %v", res.body)
	return data
}
