// Package notify delivers desktop notifications.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// Desktop sends OS notifications through the system notifier. Delivery is
// best-effort; a headless session just logs the failure.
type Desktop struct {
	enabled bool
	logger  zerolog.Logger
}

// NewDesktop creates a notifier. When enabled is false every Notify call is
// a silent no-op.
func NewDesktop(enabled bool, logger zerolog.Logger) *Desktop {
	return &Desktop{
		enabled: enabled,
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// Notify shows a desktop notification with the given title and message.
func (d *Desktop) Notify(title, message string) {
	if !d.enabled {
		return
	}
	if err := beeep.Notify(title, message, ""); err != nil {
		d.logger.Warn().Err(err).Str("title", title).Msg("Desktop notification failed")
	}
}
