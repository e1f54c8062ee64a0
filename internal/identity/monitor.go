package identity

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs a session expiry at a point in time. Scheduling a key that
// is already scheduled replaces the earlier expiry.
type Scheduler interface {
	Schedule(ctx context.Context, key string, at time.Time) error
	Cancel(ctx context.Context, key string) error
}

// ExpireFunc ends the session identified by key.
type ExpireFunc func(ctx context.Context, key string) error

// Monitor arms one expiry per session, derived from the token exp claim.
type Monitor struct {
	scheduler Scheduler
	logger    *slog.Logger
	now       func() time.Time
}

// NewMonitor builds a Monitor.
func NewMonitor(scheduler Scheduler, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{scheduler: scheduler, logger: logger, now: time.Now}
}

// Arm schedules the expiry of key at the token's exp. An undecodable or
// already expired token returns ErrTokenInvalid and nothing is scheduled;
// the caller logs the session out immediately.
func (m *Monitor) Arm(ctx context.Context, key, token string) error {
	exp, err := DecodeExpiry(token)
	if err != nil {
		_ = m.scheduler.Cancel(ctx, key)
		return err
	}
	if !m.now().Before(exp) {
		_ = m.scheduler.Cancel(ctx, key)
		return ErrTokenInvalid
	}
	if err := m.scheduler.Schedule(ctx, key, exp); err != nil {
		return err
	}
	m.logger.Debug("session expiry armed", slog.String("session", key), slog.Time("at", exp))
	return nil
}

// Disarm cancels a pending expiry.
func (m *Monitor) Disarm(ctx context.Context, key string) {
	if err := m.scheduler.Cancel(ctx, key); err != nil {
		m.logger.Warn("cancel session expiry", slog.String("session", key), slog.Any("error", err))
	}
}
