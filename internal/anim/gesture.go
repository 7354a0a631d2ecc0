package anim

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/PrincessGray/ClawCat/internal/live2d"
)

// Idle gesture tuning.
const (
	gestureRetargetMin = 500 * time.Millisecond
	gestureRetargetMax = 2 * time.Second

	// Per-frame approach factor toward the current target.
	gestureLerpFactor = 0.1

	// Joystick deflection below this on both axes reads as neutral.
	gestureDeadzone = 0.1
)

// ParamWriter is the model-parameter slice of the render surface the
// gestures need. Ranges are probed per write so a model swap mid-run is
// picked up without restart.
type ParamWriter interface {
	ParameterRange(id string) live2d.ParameterRange
	SetParameter(id string, value float64) bool
	SetBool(id string, on bool) bool
}

type gestureChannel struct {
	left    bool
	xParam  string
	yParam  string
	visible string

	curX, curY float64
	tgtX, tgtY float64
	active     bool
}

// GestureScheduler drifts two 2-axis joystick channels through eased random
// wander while the session rests. Channels whose parameters are absent from
// the loaded model are skipped entirely.
type GestureScheduler struct {
	surface  ParamWriter
	onActive func(left, active bool)
	logger   zerolog.Logger
	rnd      *lockedRand

	mu       sync.Mutex
	running  bool
	channels [2]gestureChannel
	retimer  *time.Timer
	frames   *FrameHandle
}

// NewGestureScheduler creates the scheduler. onActive fires on every
// deadzone crossing of either channel; nil is allowed.
func NewGestureScheduler(surface ParamWriter, onActive func(left, active bool), logger zerolog.Logger) *GestureScheduler {
	return &GestureScheduler{
		surface:  surface,
		onActive: onActive,
		logger:   logger.With().Str("component", "gesture-scheduler").Logger(),
		rnd:      newLockedRand(),
		channels: [2]gestureChannel{
			{left: true, xParam: live2d.ParamLeftJoyX, yParam: live2d.ParamLeftJoyY, visible: live2d.ParamLeftJoyHand},
			{left: false, xParam: live2d.ParamRightJoyX, yParam: live2d.ParamRightJoyY, visible: live2d.ParamRightJoyHand},
		},
	}
}

// Start begins the wander. No-op while already running.
func (s *GestureScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.retargetLocked()
	s.scheduleRetargetLocked()
	s.frames = Frames(s.step)
	s.logger.Debug().Msg("Gesture scheduler started")
}

// Stop halts the wander and restores every reachable channel to neutral:
// axes recentered, joystick hands hidden, active flags cleared. Idempotent.
func (s *GestureScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	if s.retimer != nil {
		s.retimer.Stop()
		s.retimer = nil
	}
	if s.frames != nil {
		s.frames.Stop()
		s.frames = nil
	}
	for i := range s.channels {
		ch := &s.channels[i]
		ch.curX, ch.curY, ch.tgtX, ch.tgtY = 0, 0, 0, 0
		wasActive := ch.active
		ch.active = false
		r := s.surface.ParameterRange(ch.xParam)
		if !r.IsZero() {
			s.surface.SetParameter(ch.xParam, r.FromUnit(0))
			if ry := s.surface.ParameterRange(ch.yParam); !ry.IsZero() {
				s.surface.SetParameter(ch.yParam, ry.FromUnit(0))
			}
			s.surface.SetBool(ch.visible, false)
		}
		if wasActive && s.onActive != nil {
			s.onActive(ch.left, false)
		}
	}
	s.mu.Unlock()

	s.logger.Debug().Msg("Gesture scheduler stopped")
}

// Running reports whether the scheduler is active.
func (s *GestureScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *GestureScheduler) scheduleRetargetLocked() {
	s.retimer = time.AfterFunc(randDuration(s.rnd, gestureRetargetMin, gestureRetargetMax), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.running {
			return
		}
		s.retargetLocked()
		s.scheduleRetargetLocked()
	})
}

func (s *GestureScheduler) retargetLocked() {
	for i := range s.channels {
		ch := &s.channels[i]
		ch.tgtX = s.rnd.Float64()*2 - 1
		ch.tgtY = s.rnd.Float64()*2 - 1
	}
}

func (s *GestureScheduler) step(dt float64) bool {
	type flip struct {
		left, active bool
	}
	var flips []flip

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	// Writes happen under the lock so a Stop racing this frame cannot have
	// its neutral reset overwritten by a stale interpolation step.
	for i := range s.channels {
		ch := &s.channels[i]
		rx := s.surface.ParameterRange(ch.xParam)
		if rx.IsZero() {
			continue
		}
		ch.curX = lerp(ch.curX, ch.tgtX, gestureLerpFactor)
		ch.curY = lerp(ch.curY, ch.tgtY, gestureLerpFactor)
		s.surface.SetParameter(ch.xParam, rx.FromUnit(ch.curX))
		if ry := s.surface.ParameterRange(ch.yParam); !ry.IsZero() {
			s.surface.SetParameter(ch.yParam, ry.FromUnit(ch.curY))
		}
		// Hand visibility follows the deadzone: a deflected stick shows
		// the paw on it, a centered one hides it.
		active := math.Abs(ch.curX) > gestureDeadzone || math.Abs(ch.curY) > gestureDeadzone
		if active != ch.active {
			ch.active = active
			s.surface.SetBool(ch.visible, active)
			flips = append(flips, flip{ch.left, active})
		}
	}
	for _, f := range flips {
		if s.onActive != nil {
			s.onActive(f.left, f.active)
		}
	}
	s.mu.Unlock()
	return true
}
