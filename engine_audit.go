package goSession

import (
	"context"
	"errors"
)

const (
	auditEventLoginSuccess               = "login_success"
	auditEventLoginFailure               = "login_failure"
	auditEventLoginRateLimited           = "login_rate_limited"
	auditEventLogoutSession              = "logout_session"
	auditEventSessionRemoved             = "session_removed"
	auditEventOtherSessionsRevoked       = "other_sessions_revoked"
	auditEventAccountCreationSuccess     = "account_creation_success"
	auditEventAccountCreationFailure     = "account_creation_failure"
	auditEventAccountCreationDuplicate   = "account_creation_duplicate"
	auditEventAccountCreationRateLimited = "account_creation_rate_limited"
)

// AuditErrorCode is the stable error label carried in AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrUnauthorized          AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrInvalidPassword       AuditErrorCode = "invalid_password"
	auditErrUserNotFound          AuditErrorCode = "user_not_found"
	auditErrRateLimited           AuditErrorCode = "rate_limited"
	auditErrSessionNotFound       AuditErrorCode = "session_not_found"
	auditErrSessionConflict       AuditErrorCode = "session_conflict"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrSessionInvalidation   AuditErrorCode = "session_invalidation_failed"
	auditErrPasswordPolicy        AuditErrorCode = "password_policy"
	auditErrInvalidRequest        AuditErrorCode = "invalid_request"
	auditErrDuplicate             AuditErrorCode = "duplicate"
	auditErrInternal              AuditErrorCode = "internal_error"
)

// emitAudit matches flows.AuditFunc so it can be handed to every flow.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
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

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        e.clientIP(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidPassword):
		return auditErrInvalidPassword
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrAccountCreationRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionConflict):
		return auditErrSessionConflict
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	case errors.Is(err, ErrSessionInvalidationFailed):
		return auditErrSessionInvalidation
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrAccountCreationInvalid):
		return auditErrInvalidRequest
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	default:
		return auditErrInternal
	}
}
