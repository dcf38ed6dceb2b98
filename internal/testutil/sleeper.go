package testutil

import (
	"context"
	"sync"
	"time"
)

// RecordingSleeper stands in for the driver's rate-limit delay. It never
// blocks and records every requested duration.
type RecordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

// Sleep records d and returns immediately, or returns ctx.Err() when ctx is
// already done.
func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Delays returns the recorded durations in call order.
func (s *RecordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.delays))
	copy(out, s.delays)
	return out
}

// Count returns how many sleeps were requested.
func (s *RecordingSleeper) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}

// NoSleep is a sleeper that does nothing.
func NoSleep(context.Context, time.Duration) error {
	return nil
}
