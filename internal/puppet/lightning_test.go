package puppet

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrincessGray/ClawCat/internal/live2d"
)

type countingWriter struct {
	mu     sync.Mutex
	states []bool
}

func (c *countingWriter) SetBool(id string, on bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == live2d.ParamLightning {
		c.states = append(c.states, on)
	}
	return true
}

func (c *countingWriter) snapshot() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]bool, len(c.states))
	copy(out, c.states)
	return out
}

func TestLightningTriggerReverts(t *testing.T) {
	w := &countingWriter{}
	l := NewLightning(w, zerolog.Nop())

	l.Trigger()
	assert.Equal(t, []bool{true}, w.snapshot())

	require.Eventually(t, func() bool {
		s := w.snapshot()
		return len(s) == 2 && !s[1]
	}, 2*time.Second, 10*time.Millisecond, "flash must self-revert")
}

func TestLightningRetriggerDoesNotStack(t *testing.T) {
	w := &countingWriter{}
	l := NewLightning(w, zerolog.Nop())

	l.Trigger()
	time.Sleep(300 * time.Millisecond)
	l.Trigger()
	time.Sleep(300 * time.Millisecond)
	l.Trigger()

	// Three raises so far and the first two reverts were canceled.
	assert.Equal(t, []bool{true, true, true}, w.snapshot())

	require.Eventually(t, func() bool {
		s := w.snapshot()
		return len(s) == 4 && !s[3]
	}, 2*time.Second, 10*time.Millisecond, "exactly one revert after the last trigger")

	time.Sleep(200 * time.Millisecond)
	assert.Len(t, w.snapshot(), 4, "no dangling timers")
}
