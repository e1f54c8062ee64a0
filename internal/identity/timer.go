package identity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type stopper interface {
	Stop() bool
}

// TimerScheduler keeps expiries in process with time.AfterFunc. Expiries
// are lost on restart; the guard still rejects expired tokens per request.
type TimerScheduler struct {
	mu        sync.Mutex
	timers    map[string]stopper
	expire    ExpireFunc
	logger    *slog.Logger
	now       func() time.Time
	afterFunc func(time.Duration, func()) stopper
}

// NewTimerScheduler builds a TimerScheduler calling expire when a session
// runs out.
func NewTimerScheduler(expire ExpireFunc, logger *slog.Logger) *TimerScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerScheduler{
		timers: make(map[string]stopper),
		expire: expire,
		logger: logger,
		now:    time.Now,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Schedule implements Scheduler.
func (s *TimerScheduler) Schedule(_ context.Context, key string, at time.Time) error {
	delay := at.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[key]; ok {
		prev.Stop()
	}
	var t stopper
	t = s.afterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[key] != t {
			// Re-armed or cancelled after this timer fired.
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.mu.Unlock()
		if err := s.expire(context.Background(), key); err != nil {
			s.logger.Warn("expire session", slog.String("session", key), slog.Any("error", err))
		}
	})
	s.timers[key] = t
	return nil
}

// Cancel implements Scheduler.
func (s *TimerScheduler) Cancel(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
	return nil
}

// Pending returns the number of armed expiries.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
