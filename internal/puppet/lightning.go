package puppet

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/PrincessGray/ClawCat/internal/live2d"
)

// Lightning flash hold before auto-revert.
const lightningHold = 800 * time.Millisecond

// Lightning is the one-shot flash effect played when the assistant asks for
// a decision. Retriggering restarts the hold instead of stacking reverts.
type Lightning struct {
	surface BoolWriter
	logger  zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewLightning creates the effect over the given surface.
func NewLightning(surface BoolWriter, logger zerolog.Logger) *Lightning {
	return &Lightning{
		surface: surface,
		logger:  logger.With().Str("component", "lightning").Logger(),
	}
}

// Trigger raises the lightning parameter and schedules the revert.
func (l *Lightning) Trigger() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer != nil {
		l.timer.Stop()
	}
	l.surface.SetBool(live2d.ParamLightning, true)
	l.timer = time.AfterFunc(lightningHold, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.surface.SetBool(live2d.ParamLightning, false)
		l.timer = nil
	})
	l.logger.Debug().Msg("Lightning triggered")
}
