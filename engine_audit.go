package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
	"github.com/google/uuid"
)

// AuditErrorCode is the stable, non-sensitive error classification stored in
// AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrInvalidToken          AuditErrorCode = "invalid_token"
	auditErrSessionNotFound       AuditErrorCode = "session_not_found"
	auditErrSessionExists         AuditErrorCode = "session_exists"
	auditErrSessionIDExhausted    AuditErrorCode = "session_id_exhausted"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrSessionLookup         AuditErrorCode = "session_lookup_failed"
	auditErrSessionInvalidation   AuditErrorCode = "session_invalidation_failed"
	auditErrUnavailable           AuditErrorCode = "backend_unavailable"
	auditErrCanceled              AuditErrorCode = "canceled"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (e *Engine[U]) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	username string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	info := requestInfoFrom(ctx)

	event := AuditEvent{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		Username:   username,
		SessionRef: internal.SessionFingerprint(sessionID),
		IP:         info.ip,
		UserAgent:  info.userAgent,
		Success:    success,
		Metadata:   metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// auditErrorCode never returns the error text: authenticator messages may
// echo user input.
func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrAuthenticationFailed):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, token.ErrToken):
		return auditErrInvalidToken
	case errors.Is(err, internal.ErrSessionIDExhausted):
		return auditErrSessionIDExhausted
	case errors.Is(err, session.ErrSessionExists):
		return auditErrSessionExists
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, session.ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	case errors.Is(err, session.ErrStoreUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	case errors.Is(err, ErrSessionLookupFailed):
		return auditErrSessionLookup
	case errors.Is(err, ErrSessionInvalidationFailed):
		return auditErrSessionInvalidation
	default:
		return auditErrInternal
	}
}
