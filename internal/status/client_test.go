package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrincessGray/ClawCat/internal/cat"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(&ClientConfig{
		BaseURL:      srv.URL,
		Timeout:      time.Second,
		ToggleSettle: 10 * time.Millisecond,
	}, zerolog.Nop())
	return c, srv
}

func TestPollNormalizesStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
		want cat.RemoteStatus
	}{
		{
			name: "slacking resting",
			body: `{"mode":"slacking","pid":123,"state":"resting","message":"hi"}`,
			want: cat.RemoteStatus{Mode: cat.ModeSlack, Activity: cat.ActivityResting, PID: 123, Message: "hi"},
		},
		{
			name: "spying working",
			body: `{"mode":"spying","pid":7,"state":"working"}`,
			want: cat.RemoteStatus{Mode: cat.ModeSpy, Activity: cat.ActivityWorking, PID: 7},
		},
		{
			name: "unknown strings fall back",
			body: `{"mode":"???","pid":1,"state":"???"}`,
			want: cat.RemoteStatus{Mode: cat.ModeSlack, Activity: cat.ActivityResting, PID: 1},
		},
		{
			name: "permission ask strips caption prefix",
			body: `{"mode":"spying","pid":1,"state":"confirming","hook_payload":{"action":"ask_permission","data":{"caption":"Allow? read file","can_always":true}}}`,
			want: cat.RemoteStatus{
				Mode: cat.ModeSpy, Activity: cat.ActivityConfirming, PID: 1,
				Decision: &cat.PendingDecision{Kind: cat.DecisionPermissionAsk, PromptText: "read file", AllowAlways: true},
			},
		},
		{
			name: "ask user",
			body: `{"mode":"spying","pid":1,"state":"confirming","hook_payload":{"action":"ask_user","data":{"caption":"pick one","jump_only":true}}}`,
			want: cat.RemoteStatus{
				Mode: cat.ModeSpy, Activity: cat.ActivityConfirming, PID: 1,
				Decision: &cat.PendingDecision{Kind: cat.DecisionInputAsk, PromptText: "pick one", JumpOnly: true},
			},
		},
		{
			name: "unknown hook shape becomes dismiss only",
			body: `{"mode":"spying","pid":1,"state":"confirming","hook_payload":{"action":"mystery","data":{"caption":"???"}}}`,
			want: cat.RemoteStatus{
				Mode: cat.ModeSpy, Activity: cat.ActivityConfirming, PID: 1,
				Decision: &cat.PendingDecision{Kind: cat.DecisionUnknown, PromptText: "???", JumpOnly: true},
			},
		},
		{
			name: "hook ignored outside confirming",
			body: `{"mode":"spying","pid":1,"state":"working","hook_payload":{"action":"ask_permission","data":{"caption":"Allow? x"}}}`,
			want: cat.RemoteStatus{Mode: cat.ModeSpy, Activity: cat.ActivityWorking, PID: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/status", r.URL.Path)
				w.Write([]byte(tt.body))
			}))

			got := c.Poll(context.Background())
			require.NotNil(t, got)
			assert.Equal(t, &tt.want, got)
			assert.Equal(t, got, c.Last())
		})
	}
}

func TestPollFailureRetainsLast(t *testing.T) {
	fail := false
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"mode":"spying","pid":9,"state":"working"}`))
	}))

	first := c.Poll(context.Background())
	require.NotNil(t, first)

	fail = true
	assert.Nil(t, c.Poll(context.Background()))
	assert.Equal(t, first, c.Last(), "failed poll must keep the previous record")
}

func TestSendDecisionBody(t *testing.T) {
	var got map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/hook-response", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true}`))
	}))

	input := "two spaces"
	assert.True(t, c.SendDecision(context.Background(), cat.ChoiceAllow, &input))
	assert.Equal(t, map[string]any{"choice": "allow", "user_input": "two spaces"}, got)

	assert.True(t, c.SendDecision(context.Background(), cat.ChoiceIgnore, nil))
	assert.Equal(t, map[string]any{"choice": "__IGNORE__", "user_input": nil}, got)
}

func TestSendDecisionFailure(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	assert.False(t, c.SendDecision(context.Background(), cat.ChoiceDeny, nil))

	srv.Close()
	assert.False(t, c.SendDecision(context.Background(), cat.ChoiceDeny, nil))
}

func TestToggleModeSettlesThenPolls(t *testing.T) {
	var order []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)
		switch r.URL.Path {
		case "/toggle-mode":
			w.Write([]byte(`{"mode":"spying","pid":5}`))
		case "/status":
			w.Write([]byte(`{"mode":"spying","pid":5,"state":"resting"}`))
		}
	}))

	rs := c.ToggleMode(context.Background())
	require.NotNil(t, rs)
	assert.Equal(t, cat.ModeSpy, rs.Mode)
	assert.Equal(t, []string{"/toggle-mode", "/status"}, order)
}

func TestToggleModeFailureReturnsNil(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	assert.Nil(t, c.ToggleMode(context.Background()))
}

func TestWindowActions(t *testing.T) {
	bodies := map[string]map[string]any{}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		bodies[r.URL.Path] = body
		w.Write([]byte(`{"success":true}`))
	}))

	ctx := context.Background()
	assert.True(t, c.ActivateTerminal(ctx))
	assert.True(t, c.SetTopmost(ctx, true))
	assert.True(t, c.ExecuteCommand(ctx, "spying", "claude"))
	assert.True(t, c.MoveWindow(ctx, 40, -8))

	assert.Equal(t, map[string]any{"topmost": true}, bodies["/set-topmost"])
	assert.Equal(t, map[string]any{"mode": "spying", "command": "claude"}, bodies["/execute-command"])
	assert.Equal(t, map[string]any{"x": float64(40), "y": float64(-8)}, bodies["/move-window"])
}
