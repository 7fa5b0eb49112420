package goSession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
)

// AuthenticateFunc verifies credentials and returns the principal to store in
// the new session. Its error message is shown to the client unchanged.
type AuthenticateFunc[U any] func(ctx context.Context, username, password string) (U, error)

// Engine issues, resolves and invalidates sessions. It is safe for concurrent
// use once returned by Builder.Build.
type Engine[U any] struct {
	config       Config
	store        session.Store[U]
	authenticate AuthenticateFunc[U]
	ids          *internal.SessionIDSource
	audit        *auditDispatcher
	metrics      *Metrics
}

// Close flushes pending audit events. The store is owned by the caller and is
// left open.
func (e *Engine[U]) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full or the request context ended while waiting for room.
func (e *Engine[U]) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns empty maps while metrics are disabled.
func (e *Engine[U]) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return e.metrics.Snapshot()
}

// TokenType is the type stamped on tokens returned by Login.
func (e *Engine[U]) TokenType() token.Type {
	if e == nil {
		return token.TypeBearer
	}
	return e.config.Token.Type
}

// Config returns a copy of the validated configuration.
func (e *Engine[U]) Config() Config {
	if e == nil {
		return defaultConfig()
	}
	return cloneConfig(e.config)
}

func (e *Engine[U]) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine[U]) metricAdd(id MetricID, n uint64) {
	if e == nil || e.metrics == nil || n == 0 {
		return
	}
	e.metrics.Add(id, n)
}

func (e *Engine[U]) observeSince(id MetricID, start time.Time) {
	if e == nil || e.metrics == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// Login creates a session for the principal returned by the authenticator and
// returns its token.
//
// The session id is drawn before the credentials are checked. A failed
// authentication returns an *AuthenticationError carrying the authenticator's
// message and leaves the store untouched.
//
//	Performance: 1 store membership check per candidate id, 1 insert.
func (e *Engine[U]) Login(ctx context.Context, username, password string) (token.Token, error) {
	if e == nil || e.store == nil || e.authenticate == nil {
		return token.Token{}, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	defer e.observeSince(MetricLoginLatency, start)

	id, collisions, err := e.ids.NextUnique(ctx, e.store, e.config.SessionID.MaxAttempts)
	e.metricAdd(MetricSessionIDCollision, uint64(collisions))
	if err != nil {
		return token.Token{}, e.loginCreationFailure(ctx, username, err)
	}

	principal, err := e.authenticate(ctx, username, password)
	if err != nil {
		authErr := &AuthenticationError{Err: err}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLoginFailure, false, username, "", authErr, nil)
		return token.Token{}, authErr
	}

	if err := e.store.Insert(ctx, id, principal); err != nil {
		return token.Token{}, e.loginCreationFailure(ctx, username, err)
	}

	e.metricInc(MetricSessionCreated)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditLoginSuccess, true, username, id, nil, func() map[string]string {
		if collisions == 0 {
			return nil
		}
		return map[string]string{"id_collisions": fmt.Sprint(collisions)}
	})

	return token.EncodeAs(id, e.config.Token.Type), nil
}

func (e *Engine[U]) loginCreationFailure(ctx context.Context, username string, cause error) error {
	err := fmt.Errorf("%w: %w", ErrSessionCreationFailed, cause)
	e.metricInc(MetricSessionCreationFailed)
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, AuditLoginFailure, false, username, "", err, nil)
	return err
}

// CurrentUser resolves accessToken to the principal stored at login.
//
// Errors: ErrTokenInvalid when the token does not decode to a session id,
// ErrSessionNotFound when no session is active for it, ErrSessionLookupFailed
// when the store fails.
//
//	Performance: 1 store lookup.
func (e *Engine[U]) CurrentUser(ctx context.Context, accessToken string) (U, error) {
	var zero U
	if e == nil || e.store == nil {
		return zero, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	defer e.observeSince(MetricCurrentUserLatency, start)

	id, err := e.sessionIDFromToken(accessToken)
	if err != nil {
		return zero, e.currentUserFailure(ctx, "", err)
	}

	principal, ok, err := e.store.Lookup(ctx, id)
	if err != nil {
		return zero, e.currentUserFailure(ctx, id, fmt.Errorf("%w: %w", ErrSessionLookupFailed, err))
	}
	if !ok {
		return zero, e.currentUserFailure(ctx, id, ErrSessionNotFound)
	}

	e.metricInc(MetricCurrentUserSuccess)
	return principal, nil
}

func (e *Engine[U]) currentUserFailure(ctx context.Context, sessionID string, err error) error {
	e.metricInc(MetricCurrentUserFailure)
	e.emitAudit(ctx, AuditSessionResolveFailure, false, "", sessionID, err, nil)
	return err
}

// Logout ends the session named by accessToken.
//
// Errors: ErrTokenInvalid, ErrSessionNotFound when the session is not active
// (including a repeated logout), ErrSessionInvalidationFailed when the store
// fails.
//
//	Performance: 1 store delete.
func (e *Engine[U]) Logout(ctx context.Context, accessToken string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := e.sessionIDFromToken(accessToken)
	if err != nil {
		return e.logoutFailure(ctx, "", err)
	}

	if err := e.store.Remove(ctx, id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return e.logoutFailure(ctx, id, fmt.Errorf("%w: %w", ErrSessionNotFound, err))
		}
		return e.logoutFailure(ctx, id, fmt.Errorf("%w: %w", ErrSessionInvalidationFailed, err))
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditLogoutSuccess, true, "", id, nil, nil)
	return nil
}

func (e *Engine[U]) logoutFailure(ctx context.Context, sessionID string, err error) error {
	e.metricInc(MetricLogoutFailure)
	e.emitAudit(ctx, AuditLogoutFailure, false, "", sessionID, err, nil)
	return err
}

func (e *Engine[U]) sessionIDFromToken(accessToken string) (string, error) {
	payload, err := token.Decode(accessToken, e.config.Token.StrictDecoding)
	if err != nil {
		e.metricInc(MetricTokenInvalid)
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	id, ok := payload.SessionID()
	if !ok {
		e.metricInc(MetricTokenInvalid)
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, &token.Error{
			Kind: token.ErrTokenPayload,
			Err:  errors.New("payload has no session id"),
		})
	}
	return id, nil
}
