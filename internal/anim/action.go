package anim

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/PrincessGray/ClawCat/internal/resources"
)

// Autonomous action cadences. Each timer re-randomizes within its window on
// every reschedule.
const (
	keyPulseMin = 200 * time.Millisecond
	keyPulseMax = 500 * time.Millisecond
	keyHoldMin  = 100 * time.Millisecond
	keyHoldMax  = 500 * time.Millisecond

	pointerIdleMin = 500 * time.Millisecond
	pointerIdleMax = 1500 * time.Millisecond
	pointerWalkMin = 300 * time.Millisecond
	pointerWalkMax = 900 * time.Millisecond
)

// ActionConfig wires the autonomous action scheduler to its collaborators.
type ActionConfig struct {
	// Gate is the scheduling predicate, re-checked at every timer and frame
	// fire. A timer scheduled under one state may fire after that state is
	// gone; the gate keeps it from acting.
	Gate func() bool
	// Keys returns the currently eligible pulse keys.
	Keys func() []resources.Key
	// Press and Release mutate the pressed-key set.
	Press   func(resources.Key)
	Release func(resources.Key)
	// SetPointer applies a pointer position as a ratio pair in [0,1]^2.
	SetPointer func(x, y float64)
}

// ActionScheduler simulates plausible keyboard and pointer activity while
// the monitored session is working: randomized discrete key pulses and a
// continuously eased pointer-target walk, independently scheduled.
type ActionScheduler struct {
	cfg    ActionConfig
	logger zerolog.Logger
	rnd    *lockedRand

	mu       sync.Mutex
	running  bool
	keyTimer *time.Timer
	ptrTimer *time.Timer
	walk     *FrameHandle

	pointerX float64
	pointerY float64
}

// NewActionScheduler creates the scheduler. It starts stopped.
func NewActionScheduler(cfg ActionConfig, logger zerolog.Logger) *ActionScheduler {
	return &ActionScheduler{
		cfg:      cfg,
		logger:   logger.With().Str("component", "action-scheduler").Logger(),
		rnd:      newLockedRand(),
		pointerX: 0.5,
		pointerY: 0.5,
	}
}

// Start begins both processes. Calling it while already running is a no-op.
func (s *ActionScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.scheduleKeyPulseLocked()
	s.schedulePointerLocked()
	s.logger.Debug().Msg("Action scheduler started")
}

// Stop cancels both cadence timers and any in-flight walk frame handle. It
// does not clear already-pressed keys; the store's transition path owns
// that. Idempotent.
func (s *ActionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.keyTimer != nil {
		s.keyTimer.Stop()
		s.keyTimer = nil
	}
	if s.ptrTimer != nil {
		s.ptrTimer.Stop()
		s.ptrTimer = nil
	}
	if s.walk != nil {
		s.walk.Stop()
		s.walk = nil
	}
	s.logger.Debug().Msg("Action scheduler stopped")
}

// Running reports whether the scheduler is active.
func (s *ActionScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *ActionScheduler) scheduleKeyPulseLocked() {
	s.keyTimer = time.AfterFunc(randDuration(s.rnd, keyPulseMin, keyPulseMax), s.keyPulse)
}

func (s *ActionScheduler) keyPulse() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.scheduleKeyPulseLocked()

	// The press happens under the lock: Stop takes it too, so an in-flight
	// pulse is strictly ordered before whatever cleanup follows the stop.
	if !s.cfg.Gate() {
		s.mu.Unlock()
		return
	}
	keys := s.cfg.Keys()
	if len(keys) == 0 {
		s.mu.Unlock()
		return
	}
	key := keys[s.rnd.Intn(len(keys))]
	s.cfg.Press(key)
	hold := randDuration(s.rnd, keyHoldMin, keyHoldMax)
	s.mu.Unlock()

	// The hold may outlive a mode flip; re-checking the gate keeps a late
	// release from touching a key the transition already cleared.
	time.AfterFunc(hold, func() {
		if s.cfg.Gate() {
			s.cfg.Release(key)
		}
	})
}

func (s *ActionScheduler) schedulePointerLocked() {
	s.ptrTimer = time.AfterFunc(randDuration(s.rnd, pointerIdleMin, pointerIdleMax), s.pointerRetarget)
}

func (s *ActionScheduler) pointerRetarget() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.schedulePointerLocked()

	if s.walk != nil {
		s.walk.Stop()
	}

	startX, startY := s.pointerX, s.pointerY
	targetX, targetY := s.rnd.Float64(), s.rnd.Float64()
	duration := randDuration(s.rnd, pointerWalkMin, pointerWalkMax)
	began := time.Now()

	var handle *FrameHandle
	handle = Frames(func(dt float64) bool {
		if !s.cfg.Gate() {
			return false
		}
		s.mu.Lock()
		// A retarget may have replaced this walk while the frame was queued.
		if s.walk != handle {
			s.mu.Unlock()
			return false
		}
		t := float64(time.Since(began)) / float64(duration)
		done := t >= 1
		if done {
			t = 1
		}
		e := EaseInOutCubic(t)
		s.pointerX = lerp(startX, targetX, e)
		s.pointerY = lerp(startY, targetY, e)
		x, y := s.pointerX, s.pointerY
		s.mu.Unlock()

		s.cfg.SetPointer(x, y)
		return !done
	})
	s.walk = handle
	s.mu.Unlock()
}
