package travel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageLimiter(t *testing.T) {
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newMessageLimiter(3, time.Minute)
	l.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		assert.True(t, l.allow())
		clock = clock.Add(10 * time.Second)
	}
	assert.False(t, l.allow(), "fourth message inside the window")

	clock = clock.Add(31 * time.Second)
	assert.True(t, l.allow(), "the first message has left the window")
	assert.False(t, l.allow())
}
