package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/token"
)

const (
	// DetailNotAuthenticated is returned when a request carries no bearer credentials.
	DetailNotAuthenticated = "Not authenticated"
	// DetailInvalidCredentials is returned when presented credentials do not resolve.
	DetailInvalidCredentials = "Invalid authentication credentials"
	// DetailInternalError is returned when the session store fails.
	DetailInternalError = "Internal Server Error"
)

// TokenFromRequest returns the access token carried by r. The Authorization
// header must use the Bearer scheme. When the header is absent and cookieName
// is set, the cookie of that name is used instead.
func TokenFromRequest(r *http.Request, cookieName string) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		return bearerToken(h)
	}
	if cookieName == "" {
		return "", false
	}

	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func bearerToken(value string) (string, bool) {
	scheme, credentials, ok := strings.Cut(value, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	credentials = strings.TrimSpace(credentials)
	if credentials == "" {
		return "", false
	}

	return credentials, true
}

// CookieName returns the cookie the extractor should fall back to for cfg,
// or "" in bearer mode.
func CookieName(cfg goSession.TokenConfig) string {
	if cfg.Type != token.TypeCookie {
		return ""
	}
	return cfg.CookieName
}

// RequestContext returns r's context annotated with the client address and
// user agent for audit records.
func RequestContext(r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return goSession.WithRequestInfo(r.Context(), host, r.UserAgent())
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDetail writes {"detail": detail}. With challenge set it also sends
// WWW-Authenticate: Bearer.
func WriteDetail(w http.ResponseWriter, status int, detail any, challenge bool) {
	if challenge {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteJSON(w, status, map[string]any{"detail": detail})
}
