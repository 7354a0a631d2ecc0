package cat

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/PrincessGray/ClawCat/internal/bus"
	"github.com/PrincessGray/ClawCat/internal/resources"
)

// StoreConfig carries the store's resource layout and poll cadence.
type StoreConfig struct {
	// ResourceRoot holds the key-image bundles: {root}/{mode}/{group}/{key}.png.
	ResourceRoot string
	// ModelPaths maps each mode to its model descriptor path.
	ModelPaths map[Mode]string
	// PollInterval is the status poll cadence. Zero means one second.
	PollInterval time.Duration
}

// StoreDeps are the store's collaborators. Remote, Surface and Effect must
// be non-nil; Notifier and Bus may be nil. The two schedulers are bound
// separately through BindRunners because their gating closures need the
// store to exist first.
type StoreDeps struct {
	Remote   Service
	Surface  ModelSurface
	Effect   Effect
	Notifier Notifier
	Bus      *bus.EventBus
}

// Store is the single source of truth for operating mode, activity state,
// the pending decision, pressed keys, and gesture activity. It owns every
// transition side effect: scheduler start/stop, model swap, bundle reload.
type Store struct {
	cfg     StoreConfig
	deps    StoreDeps
	action  Runner
	gesture Runner
	logger  zerolog.Logger

	// flip serializes effective transitions so a reconcile and a user
	// toggle cannot interleave their side effects.
	flip sync.Mutex

	mu           sync.Mutex
	mode         Mode
	activity     Activity
	decision     *PendingDecision
	pressed      map[string]resources.Key
	leftGesture  bool
	rightGesture bool
	keymap       *resources.Keymap
}

// NewStore creates a store starting in slack mode at rest, with nothing
// loaded. Call Start to bring up the initial mode's resources.
func NewStore(cfg StoreConfig, deps StoreDeps, logger zerolog.Logger) *Store {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Store{
		cfg:      cfg,
		deps:     deps,
		logger:   logger.With().Str("component", "store").Logger(),
		mode:     ModeSlack,
		activity: ActivityResting,
		pressed:  make(map[string]resources.Key),
	}
}

// BindRunners attaches the two schedulers. Must be called before Start.
func (s *Store) BindRunners(action, gesture Runner) {
	s.action = action
	s.gesture = gesture
}

// Start loads the initial mode's model and key bundle and starts the
// matching scheduler.
func (s *Store) Start(ctx context.Context) {
	s.flip.Lock()
	defer s.flip.Unlock()

	s.mu.Lock()
	mode, activity := s.mode, s.activity
	s.mu.Unlock()

	s.loadModeResources(ctx, mode)
	s.applySchedulers(mode, activity)
}

// Run polls the status service at the configured cadence and reconciles,
// strictly sequentially, until the context ends.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.cfg.PollInterval).Msg("Status poll loop started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Status poll loop stopped")
			return
		case <-ticker.C:
			if rs := s.deps.Remote.Poll(ctx); rs != nil {
				s.Reconcile(ctx, rs)
			}
		}
	}
}

// Mode returns the current operating mode.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Activity returns the current activity state.
func (s *Store) Activity() Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activity
}

// Decision returns the pending decision, nil when none.
func (s *Store) Decision() *PendingDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decision == nil {
		return nil
	}
	d := *s.decision
	return &d
}

// Snapshot returns an immutable copy of the derivation inputs.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	pressed := make(map[string]resources.Key, len(s.pressed))
	for id, k := range s.pressed {
		pressed[id] = k
	}
	return Snapshot{
		Mode:         s.mode,
		Activity:     s.activity,
		PressedKeys:  pressed,
		LeftGesture:  s.leftGesture,
		RightGesture: s.rightGesture,
	}
}

// SetMode switches the operating mode. Setting the current mode is a no-op;
// an effective change stops both schedulers, clears pressed keys and
// gesture activity, swaps the model and key bundle, and starts the new
// mode's scheduler.
func (s *Store) SetMode(ctx context.Context, m Mode) {
	s.flip.Lock()
	defer s.flip.Unlock()

	s.mu.Lock()
	if s.mode == m {
		s.mu.Unlock()
		return
	}
	s.mode = m
	s.mu.Unlock()

	s.logger.Info().Str("mode", string(m)).Msg("Mode changed")

	// Both schedulers fully down before the model swap so no leftover
	// timer fires into the new mode's parameter space.
	s.action.Stop()
	s.gesture.Stop()

	// Keys and gesture flags clear after the stops: a pulse that was
	// already past its gate check lands before Stop returns, never after.
	s.mu.Lock()
	activity := s.activity
	s.pressed = make(map[string]resources.Key)
	s.leftGesture = false
	s.rightGesture = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.loadModeResources(ctx, m)
	s.applySchedulers(m, activity)

	s.publish(bus.EventModeChanged, snap, nil)
	s.publish(bus.EventKeysChanged, snap, nil)
}

// SetActivity switches the activity state. Setting the current activity is
// a no-op.
func (s *Store) SetActivity(a Activity) {
	s.flip.Lock()
	defer s.flip.Unlock()

	s.mu.Lock()
	if s.activity == a {
		s.mu.Unlock()
		return
	}
	s.activity = a
	mode := s.mode
	s.mu.Unlock()

	s.logger.Info().Str("activity", string(a)).Msg("Activity changed")

	s.action.Stop()

	// A hold or pulse in flight across this change must not leave its key
	// behind; the clear happens after the stop so nothing lands later.
	s.mu.Lock()
	hadKeys := len(s.pressed) > 0
	s.pressed = make(map[string]resources.Key)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.applySchedulers(mode, a)
	if mode == ModeSpy && a == ActivityConfirming {
		s.deps.Effect.Trigger()
	}

	s.publish(bus.EventActivityChanged, snap, nil)
	if hadKeys {
		s.publish(bus.EventKeysChanged, snap, nil)
	}
}

// ToggleMode asks the service to flip the mode and reconciles against the
// authoritative post-toggle status.
func (s *Store) ToggleMode(ctx context.Context) {
	if rs := s.deps.Remote.ToggleMode(ctx); rs != nil {
		s.Reconcile(ctx, rs)
	}
}

// Reconcile applies a remote status record: mode first, then activity, then
// the pending decision.
func (s *Store) Reconcile(ctx context.Context, rs *RemoteStatus) {
	if rs == nil {
		return
	}
	s.SetMode(ctx, rs.Mode)
	s.SetActivity(rs.Activity)
	if rs.Activity == ActivityConfirming {
		s.setDecision(rs.Decision)
	} else {
		s.setDecision(nil)
	}
}

// Resolve answers the pending decision. It validates the choice, clears the
// decision and returns to rest synchronously, then sends the answer in the
// background. Returns false when there is nothing to resolve or the input
// is rejected.
func (s *Store) Resolve(choice, input string) bool {
	s.flip.Lock()
	defer s.flip.Unlock()

	s.mu.Lock()
	d := s.decision
	if d == nil {
		s.mu.Unlock()
		return false
	}

	send := choice
	var userInput *string
	switch {
	case d.JumpOnly || choice == ChoiceCancel || choice == ChoiceIgnore:
		// Dismiss without forwarding to the assistant.
		send = ChoiceIgnore
		ignore := ChoiceIgnore
		userInput = &ignore
	case d.Kind == DecisionInputAsk:
		if strings.TrimSpace(input) == "" {
			s.mu.Unlock()
			return false
		}
		// The wire choice enum has no submit value; the answer rides in
		// user_input and the choice goes out as allow.
		send = ChoiceAllow
		text := input
		userInput = &text
	}

	s.decision = nil
	s.activity = ActivityResting
	mode := s.mode
	s.mu.Unlock()

	s.logger.Info().Str("choice", send).Msg("Decision resolved")

	// The state is already reset; a failed send only logs. Re-prompting a
	// stale request is unsafe, the service may have timed it out.
	go s.deps.Remote.SendDecision(context.Background(), send, userInput)

	s.action.Stop()

	s.mu.Lock()
	hadKeys := len(s.pressed) > 0
	s.pressed = make(map[string]resources.Key)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.applySchedulers(mode, ActivityResting)

	s.publish(bus.EventDecisionChanged, snap, map[string]any{"decision": (*PendingDecision)(nil)})
	s.publish(bus.EventActivityChanged, snap, nil)
	if hadKeys {
		s.publish(bus.EventKeysChanged, snap, nil)
	}
	return true
}

// PressKey inserts a key into the pressed set.
func (s *Store) PressKey(k resources.Key) {
	s.mu.Lock()
	s.pressed[k.ID] = k
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(bus.EventKeysChanged, snap, nil)
}

// ReleaseKey removes a key from the pressed set. Unknown ids are ignored.
func (s *Store) ReleaseKey(id string) {
	s.mu.Lock()
	if _, ok := s.pressed[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pressed, id)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(bus.EventKeysChanged, snap, nil)
}

// SetGestureActive records a gesture channel's deadzone state.
func (s *Store) SetGestureActive(left, active bool) {
	s.mu.Lock()
	cur := &s.rightGesture
	if left {
		cur = &s.leftGesture
	}
	if *cur == active {
		s.mu.Unlock()
		return
	}
	*cur = active
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(bus.EventGestureChanged, snap, nil)
}

// EligibleKeys returns the current bundle's pulse-eligible keys.
func (s *Store) EligibleKeys() []resources.Key {
	s.mu.Lock()
	km := s.keymap
	s.mu.Unlock()
	if km == nil {
		return nil
	}
	return km.Eligible()
}

// Keymap returns the current mode's probed key bundle, nil before Start.
func (s *Store) Keymap() *resources.Keymap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keymap
}

// ResourceDir returns the key-image bundle directory for the current mode.
func (s *Store) ResourceDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filepath.Join(s.cfg.ResourceRoot, string(s.mode))
}

// ReloadKeymap re-probes the current mode's key bundle. The resource
// watcher calls this when PNGs appear or disappear under the bundle root.
func (s *Store) ReloadKeymap() {
	s.mu.Lock()
	mode := s.mode
	s.mu.Unlock()

	km := resources.Probe(filepath.Join(s.cfg.ResourceRoot, string(mode)))

	s.mu.Lock()
	s.keymap = km
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info().Int("keys", km.Len()).Str("mode", string(mode)).Msg("Key bundle reloaded")
	s.publish(bus.EventKeymapReloaded, snap, map[string]any{"keys": km.Len()})
}

// setDecision replaces the pending decision when it differs from the
// current one, notifying on a newly arrived request.
func (s *Store) setDecision(d *PendingDecision) {
	s.mu.Lock()
	if decisionEqual(s.decision, d) {
		s.mu.Unlock()
		return
	}
	appeared := d != nil && s.decision == nil
	s.decision = d
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if appeared && s.deps.Notifier != nil {
		msg := d.PromptText
		if msg == "" {
			msg = "Awaiting your decision"
		}
		s.deps.Notifier.Notify("ClawCat", msg)
	}

	s.publish(bus.EventDecisionChanged, snap, map[string]any{"decision": d})
}

// loadModeResources swaps the model and key bundle for a mode. A failed
// model load is logged and the store stays in the new mode; a missing model
// must not trap the user in the old one.
func (s *Store) loadModeResources(ctx context.Context, m Mode) {
	s.deps.Surface.Destroy()
	if path, ok := s.cfg.ModelPaths[m]; ok && path != "" {
		info, err := s.deps.Surface.Load(ctx, path)
		if err != nil {
			s.logger.Warn().Err(err).Str("mode", string(m)).Msg("Model load failed")
		} else {
			s.publish(bus.EventModelLoaded, s.Snapshot(), map[string]any{"info": info})
		}
	}

	km := resources.Probe(filepath.Join(s.cfg.ResourceRoot, string(m)))
	s.mu.Lock()
	s.keymap = km
	s.mu.Unlock()
	s.logger.Debug().Int("keys", km.Len()).Str("mode", string(m)).Msg("Key bundle probed")
}

// applySchedulers enforces the scheduler invariant for a mode and activity:
// gestures run in slack mode, actions run while spying and working, and at
// most one of the two is ever up.
func (s *Store) applySchedulers(m Mode, a Activity) {
	if m == ModeSlack {
		s.gesture.Start()
	} else {
		s.gesture.Stop()
	}
	if m == ModeSpy && a == ActivityWorking {
		s.action.Start()
	} else {
		s.action.Stop()
	}
}

func (s *Store) publish(t bus.EventType, snap Snapshot, extra map[string]any) {
	if s.deps.Bus == nil {
		return
	}
	data := map[string]any{"snapshot": snap}
	for k, v := range extra {
		data[k] = v
	}
	s.deps.Bus.Publish(bus.Event{Type: t, Data: data})
}

func decisionEqual(a, b *PendingDecision) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
