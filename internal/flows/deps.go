package flows

import (
	"context"
	"time"
)

// AccountRecord is the flow-local account model shared by every flow.
type AccountRecord struct {
	ID           string
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuditFunc emits one audit event. meta is evaluated lazily and may be nil.
type AuditFunc func(ctx context.Context, event string, success bool, userID, sessionID string, err error, meta func() map[string]string)

func noopAudit(context.Context, string, bool, string, string, error, func() map[string]string) {}

func noopMetric(int) {}

func noopWarn(string, error) {}
