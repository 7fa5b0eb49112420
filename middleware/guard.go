package middleware

import (
	"context"
	"errors"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

type userContextKey struct{}

// Resolver is the part of *goSession.Engine a guard needs.
type Resolver[U any] interface {
	CurrentUser(ctx context.Context, accessToken string) (U, error)
}

// StatusRule maps an engine error to an HTTP response.
type StatusRule struct {
	Err       error
	Status    int
	Detail    string
	Challenge bool
}

// CurrentUserStatus is the fixed table for current-user resolution failures.
// The first rule whose Err matches wins.
var CurrentUserStatus = []StatusRule{
	{Err: goSession.ErrTokenInvalid, Status: http.StatusUnauthorized, Detail: DetailInvalidCredentials, Challenge: true},
	{Err: goSession.ErrSessionNotFound, Status: http.StatusUnauthorized, Detail: DetailInvalidCredentials, Challenge: true},
	{Err: goSession.ErrSessionLookupFailed, Status: http.StatusInternalServerError, Detail: DetailInternalError},
}

var fallbackStatus = StatusRule{Status: http.StatusInternalServerError, Detail: DetailInternalError}

// MatchStatus returns the first rule in rules matching err, or a 500 rule.
func MatchStatus(rules []StatusRule, err error) StatusRule {
	for _, rule := range rules {
		if errors.Is(err, rule.Err) {
			return rule
		}
	}
	return fallbackStatus
}

// UserFromContext returns the principal stored by Guard.
func UserFromContext[U any](ctx context.Context) (U, bool) {
	u, ok := ctx.Value(userContextKey{}).(U)
	return u, ok
}

// Guard rejects requests whose token does not resolve to an active session
// and passes the principal to next through the request context. cookieName
// enables the cookie fallback; pass "" for header-only extraction.
func Guard[U any](resolver Resolver[U], cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				WriteDetail(w, http.StatusUnauthorized, DetailNotAuthenticated, true)
				return
			}

			accessToken, ok := TokenFromRequest(r, cookieName)
			if !ok {
				WriteDetail(w, http.StatusUnauthorized, DetailNotAuthenticated, true)
				return
			}

			user, err := resolver.CurrentUser(RequestContext(r), accessToken)
			if err != nil {
				rule := MatchStatus(CurrentUserStatus, err)
				WriteDetail(w, rule.Status, rule.Detail, rule.Challenge)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
