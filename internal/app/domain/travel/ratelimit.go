package travel

import (
	"sync"
	"time"
)

const (
	defaultMaxMessages = 120
	defaultWindow      = time.Minute
)

// messageLimiter is a sliding-window cap on the messages one socket may send.
type messageLimiter struct {
	maxMessages int
	window      time.Duration
	now         func() time.Time

	mu   sync.Mutex
	sent []time.Time
}

func newMessageLimiter(maxMessages int, window time.Duration) *messageLimiter {
	return &messageLimiter{maxMessages: maxMessages, window: window, now: time.Now}
}

func (l *messageLimiter) allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	valid := l.sent[:0]
	for _, t := range l.sent {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	l.sent = valid

	if len(l.sent) >= l.maxMessages {
		return false
	}
	l.sent = append(l.sent, now)
	return true
}
