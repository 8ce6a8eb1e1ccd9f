package conversation

import (
	"context"
)

// SessionStore keeps at most one session per user and expires idle ones.
type SessionStore interface {
	// Lock serializes turns of one user. The returned func releases the
	// lock. ErrSessionBusy is returned when the lock cannot be obtained in
	// time.
	Lock(ctx context.Context, userID string) (unlock func(), err error)

	// Get returns false for missing or expired sessions.
	Get(ctx context.Context, userID string) (Session, bool, error)
	Save(ctx context.Context, s Session) error

	// Delete is a no-op for absent sessions.
	Delete(ctx context.Context, userID string) error

	// Sweep evicts expired sessions and reports how many were removed.
	Sweep(ctx context.Context) (int, error)
}
