package status

import (
	"strings"

	"github.com/PrincessGray/ClawCat/internal/cat"
)

// wireStatus is the raw GET /status body.
type wireStatus struct {
	Mode        string       `json:"mode"`
	PID         int          `json:"pid"`
	State       string       `json:"state"`
	Message     string       `json:"message"`
	HookPayload *hookPayload `json:"hook_payload,omitempty"`
	HookType    string       `json:"hook_type,omitempty"`
	HookAction  string       `json:"hook_action,omitempty"`
}

// hookPayload is the stored hook body the service forwards with the status.
type hookPayload struct {
	Action string   `json:"action"`
	Mode   string   `json:"mode"`
	PID    int      `json:"pid"`
	Data   hookData `json:"data"`
}

type hookData struct {
	Caption   string `json:"caption"`
	CanAlways bool   `json:"can_always"`
	JumpOnly  bool   `json:"jump_only"`
	State     string `json:"state"`
	Type      string `json:"type"`
}

// captionPrefix is what the hook script prepends to permission captions.
const captionPrefix = "Allow? "

// normalize converts a wire status into the typed record.
func normalize(w *wireStatus) *cat.RemoteStatus {
	rs := &cat.RemoteStatus{
		Mode:     normalizeMode(w.Mode),
		Activity: normalizeActivity(w.State),
		PID:      w.PID,
		Message:  w.Message,
	}
	if rs.Activity == cat.ActivityConfirming {
		rs.Decision = normalizeDecision(w)
	}
	return rs
}

func normalizeMode(s string) cat.Mode {
	if s == string(cat.ModeSpy) {
		return cat.ModeSpy
	}
	return cat.ModeSlack
}

func normalizeActivity(s string) cat.Activity {
	switch s {
	case string(cat.ActivityWorking):
		return cat.ActivityWorking
	case string(cat.ActivityConfirming):
		return cat.ActivityConfirming
	default:
		return cat.ActivityResting
	}
}

// normalizeDecision builds the pending decision from the hook payload. An
// unrecognized shape becomes the generic dismiss-only decision rather than a
// failure.
func normalizeDecision(w *wireStatus) *cat.PendingDecision {
	action := w.HookAction
	var data hookData
	if w.HookPayload != nil {
		if action == "" {
			action = w.HookPayload.Action
		}
		data = w.HookPayload.Data
	}

	d := &cat.PendingDecision{
		PromptText:  strings.TrimPrefix(data.Caption, captionPrefix),
		AllowAlways: data.CanAlways,
		JumpOnly:    data.JumpOnly,
	}

	switch action {
	case "ask_permission":
		d.Kind = cat.DecisionPermissionAsk
	case "ask_user":
		d.Kind = cat.DecisionInputAsk
	default:
		d.Kind = cat.DecisionUnknown
		d.JumpOnly = true
	}
	return d
}
