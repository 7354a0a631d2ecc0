// Package cat manages the pet's operating mode and activity state.
package cat

import (
	"context"

	"github.com/PrincessGray/ClawCat/internal/live2d"
	"github.com/PrincessGray/ClawCat/internal/resources"
)

// Mode is the top-level behavioral profile. It selects the loaded model, the
// key-image bundle, and which scheduler family runs.
type Mode string

const (
	ModeSlack Mode = "slacking"
	ModeSpy   Mode = "spying"
)

// Activity is the three-way condition of the monitored assistant session.
type Activity string

const (
	ActivityResting    Activity = "resting"
	ActivityWorking    Activity = "working"
	ActivityConfirming Activity = "confirming"
)

// DecisionKind classifies a pending decision request.
type DecisionKind int

const (
	DecisionUnknown DecisionKind = iota
	DecisionPermissionAsk
	DecisionInputAsk
)

// Decision choices. Allow, deny, always and the ChoiceIgnore sentinel are
// what the hook-response endpoint accepts; ChoiceIgnore means dismiss
// without forwarding to the assistant. Submit and cancel are UI-level and
// map onto allow and the ignore sentinel when sent.
const (
	ChoiceAllow  = "allow"
	ChoiceDeny   = "deny"
	ChoiceAlways = "always"
	ChoiceSubmit = "submit"
	ChoiceCancel = "cancel"
	ChoiceIgnore = "__IGNORE__"
)

// PendingDecision is a prompt awaiting a user choice. It exists only while
// the activity is Confirming and is owned exclusively by the Store.
type PendingDecision struct {
	Kind        DecisionKind
	PromptText  string
	AllowAlways bool
	JumpOnly    bool
}

// RemoteStatus is the normalized status feed record. It is replaced wholesale
// on every successful poll and never partially merged.
type RemoteStatus struct {
	Mode     Mode
	Activity Activity
	PID      int
	Message  string
	Decision *PendingDecision
}

// Snapshot is an immutable view of the store's derivation inputs, published
// with every change event.
type Snapshot struct {
	Mode         Mode
	Activity     Activity
	PressedKeys  map[string]resources.Key
	LeftGesture  bool
	RightGesture bool
}

// AnyKeyPressed reports whether any simulated key is currently held.
func (s Snapshot) AnyKeyPressed() bool {
	return len(s.PressedKeys) > 0
}

// KeyInGroup reports whether a held key belongs to the given hand group.
func (s Snapshot) KeyInGroup(group string) bool {
	for _, k := range s.PressedKeys {
		if k.Group == group {
			return true
		}
	}
	return false
}

// Service is the remote status feed the store reconciles against.
type Service interface {
	Poll(ctx context.Context) *RemoteStatus
	SendDecision(ctx context.Context, choice string, userInput *string) bool
	ToggleMode(ctx context.Context) *RemoteStatus
}

// ModelSurface is the slice of the parameter surface the store drives.
type ModelSurface interface {
	Load(ctx context.Context, path string) (*live2d.ModelInfo, error)
	Destroy()
}

// Runner is a start/stop scheduler. Start is idempotent while running and
// Stop is idempotent while stopped.
type Runner interface {
	Start()
	Stop()
}

// Effect is a one-shot transient visual effect.
type Effect interface {
	Trigger()
}

// Notifier surfaces user-facing notifications. Implementations are
// best-effort.
type Notifier interface {
	Notify(title, message string)
}
