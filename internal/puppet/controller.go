// Package puppet derives hand-pose parameters from the aggregate input
// state. It holds no state of its own: every application is a pure function
// of the snapshot it is handed.
package puppet

import (
	"github.com/rs/zerolog"

	"github.com/PrincessGray/ClawCat/internal/bus"
	"github.com/PrincessGray/ClawCat/internal/cat"
	"github.com/PrincessGray/ClawCat/internal/live2d"
	"github.com/PrincessGray/ClawCat/internal/resources"
)

// BoolWriter is the boolean-parameter slice of the render surface.
type BoolWriter interface {
	SetBool(id string, on bool) bool
}

// Controller maps snapshots to hand-pose parameter writes.
type Controller struct {
	surface BoolWriter
	logger  zerolog.Logger
}

// NewController creates a controller over the given surface.
func NewController(surface BoolWriter, logger zerolog.Logger) *Controller {
	return &Controller{
		surface: surface,
		logger:  logger.With().Str("component", "puppet").Logger(),
	}
}

// Apply writes the hand pose derived from the snapshot.
//
// A hand is down when its gesture channel is deflected, a held key belongs
// to its group, or the cat is visibly typing (spying and working with no
// individual key held, both paws rest on the keyboard). Any held key also
// forces both joystick hands hidden so a pulse never overlaps a gesture.
func (c *Controller) Apply(snap cat.Snapshot) {
	typing := snap.Mode == cat.ModeSpy &&
		snap.Activity == cat.ActivityWorking &&
		!snap.AnyKeyPressed()

	leftDown := snap.LeftGesture || snap.KeyInGroup(resources.GroupLeft) || typing
	rightDown := snap.RightGesture || snap.KeyInGroup(resources.GroupRight) || typing

	c.surface.SetBool(live2d.ParamLeftHandDown, leftDown)
	c.surface.SetBool(live2d.ParamRightHandDown, rightDown)

	if snap.AnyKeyPressed() {
		c.surface.SetBool(live2d.ParamLeftJoyHand, false)
		c.surface.SetBool(live2d.ParamRightJoyHand, false)
	}
}

// Attach subscribes the controller to every event type that carries a
// snapshot, so poses track state changes without the store knowing about
// hand parameters.
func (c *Controller) Attach(b *bus.EventBus) {
	b.SubscribeMultiple([]bus.EventType{
		bus.EventModeChanged,
		bus.EventActivityChanged,
		bus.EventKeysChanged,
		bus.EventGestureChanged,
	}, func(ev bus.Event) {
		snap, ok := ev.Data["snapshot"].(cat.Snapshot)
		if !ok {
			c.logger.Warn().Str("event", string(ev.Type)).Msg("Event carried no snapshot")
			return
		}
		c.Apply(snap)
	})
}
