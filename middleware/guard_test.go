package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
)

type member struct {
	Name string `json:"name"`
}

func newGuardEngine(t *testing.T, cfg goSession.Config) *goSession.Engine[member] {
	t.Helper()

	engine, err := goSession.New[member]().
		WithConfig(cfg).
		WithStore(session.NewMemoryStore[member]()).
		WithAuthenticator(func(_ context.Context, username, password string) (member, error) {
			if username == "alice" && password == "wonderland" {
				return member{Name: "alice"}, nil
			}
			return member{}, errors.New("Incorrect username or password")
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext[member](r.Context())
	if !ok {
		http.Error(w, "no user", http.StatusTeapot)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body["detail"]
}

func TestGuardPassesPrincipal(t *testing.T) {
	engine := newGuardEngine(t, goSession.DefaultConfig())
	tok, err := engine.Login(context.Background(), "alice", "wonderland")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	h := Guard[member](engine, "")(http.HandlerFunc(whoAmI))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got member
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got.Name != "alice" {
		t.Fatalf("unexpected body %q err=%v", rec.Body.String(), err)
	}
}

func TestGuardRejections(t *testing.T) {
	engine := newGuardEngine(t, goSession.DefaultConfig())
	h := Guard[member](engine, "")(http.HandlerFunc(whoAmI))

	tests := []struct {
		name   string
		header string
		status int
		detail string
	}{
		{name: "no header", header: "", status: http.StatusUnauthorized, detail: DetailNotAuthenticated},
		{name: "basic scheme", header: "Basic YWxpY2U6d29uZGVybGFuZA==", status: http.StatusUnauthorized, detail: DetailNotAuthenticated},
		{name: "empty bearer", header: "Bearer ", status: http.StatusUnauthorized, detail: DetailNotAuthenticated},
		{name: "garbage token", header: "Bearer garbage", status: http.StatusUnauthorized, detail: DetailInvalidCredentials},
		{name: "unknown session", header: "Bearer " + token.Encode("nope").AccessToken, status: http.StatusUnauthorized, detail: DetailInvalidCredentials},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Fatalf("expected Bearer challenge, got %q", got)
			}
			if got := decodeDetail(t, rec); got != tc.detail {
				t.Fatalf("expected detail %q, got %v", tc.detail, got)
			}
		})
	}
}

type brokenResolver struct{}

func (brokenResolver) CurrentUser(context.Context, string) (member, error) {
	return member{}, goSession.ErrSessionLookupFailed
}

func TestGuardStoreFailureIsInternalError(t *testing.T) {
	h := Guard[member](brokenResolver{}, "")(http.HandlerFunc(whoAmI))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.Encode("abc").AccessToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "" {
		t.Fatal("internal errors must not carry a challenge")
	}
	if got := decodeDetail(t, rec); got != DetailInternalError {
		t.Fatalf("unexpected detail %v", got)
	}
}

func TestGuardCookieFallback(t *testing.T) {
	cfg := goSession.DefaultConfig()
	cfg.Token.Type = token.TypeCookie
	cfg.Token.CookieName = "sid"
	engine := newGuardEngine(t, cfg)

	tok, err := engine.Login(context.Background(), "alice", "wonderland")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	h := Guard[member](engine, CookieName(cfg.Token))(http.HandlerFunc(whoAmI))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: tok.AccessToken})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 via cookie, got %d: %s", rec.Code, rec.Body.String())
	}

	bearerOnly := Guard[member](engine, "")(http.HandlerFunc(whoAmI))
	rec = httptest.NewRecorder()
	bearerOnly.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie fallback, got %d", rec.Code)
	}
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc.def")
	req.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})

	got, ok := TokenFromRequest(req, "token")
	if !ok || got != "abc.def" {
		t.Fatalf("expected header token to win, got %q ok=%v", got, ok)
	}

	req.Header.Del("Authorization")
	got, ok = TokenFromRequest(req, "token")
	if !ok || got != "from-cookie" {
		t.Fatalf("expected cookie token, got %q ok=%v", got, ok)
	}

	if _, ok := TokenFromRequest(req, ""); ok {
		t.Fatal("expected no token without cookie fallback")
	}
}

func TestMatchStatusFallback(t *testing.T) {
	rule := MatchStatus(CurrentUserStatus, errors.New("boom"))
	if rule.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 fallback, got %d", rule.Status)
	}

	rule = MatchStatus(CurrentUserStatus, goSession.ErrSessionNotFound)
	if rule.Status != http.StatusUnauthorized || !rule.Challenge {
		t.Fatalf("unexpected rule %+v", rule)
	}
}

func TestRequestContextCarriesClientAddress(t *testing.T) {
	sink := goSession.NewChannelSink(4)
	cfg := goSession.DefaultConfig()
	cfg.Audit.Enabled = true

	engine, err := goSession.New[member]().
		WithConfig(cfg).
		WithAuthenticator(func(context.Context, string, string) (member, error) {
			return member{}, errors.New("Incorrect username or password")
		}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "192.0.2.10:4711"
	req.Header.Set("User-Agent", "probe/1.0")

	_, _ = engine.Login(RequestContext(req), "alice", "x")
	ev := <-sink.Events()
	if ev.IP != "192.0.2.10" || ev.UserAgent != "probe/1.0" {
		t.Fatalf("unexpected audit client fields %+v", ev)
	}
}
