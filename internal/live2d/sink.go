package live2d

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Sink receives everything the surface applies to the rendered model. The
// character-animation runtime sits on the other end; when it is not attached
// writes are dropped silently.
type Sink interface {
	ModelLoaded(instance string, desc *Descriptor)
	SetParameter(instance, id string, value float64)
	PlayMotion(instance, group string, index int)
	PlayExpression(instance string, index int)
	Clear()
}

// NopSink discards everything. Useful in tests and headless runs.
type NopSink struct{}

func (NopSink) ModelLoaded(string, *Descriptor)      {}
func (NopSink) SetParameter(string, string, float64) {}
func (NopSink) PlayMotion(string, string, int)       {}
func (NopSink) PlayExpression(string, int)           {}
func (NopSink) Clear()                               {}

type wsMessage struct {
	Type     string  `json:"type"`
	Instance string  `json:"instance,omitempty"`
	ID       string  `json:"id,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Group    string  `json:"group,omitempty"`
	Index    int     `json:"index,omitempty"`
	Model    string  `json:"model,omitempty"`
	Sequence int64   `json:"sequence,omitempty"`
}

// WSSink streams applied parameter state to the render runtime over a local
// WebSocket.
type WSSink struct {
	wsURL  string
	logger zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	sequence  int64
	cancel    context.CancelFunc
}

// NewWSSink creates a render sink for the given service base URL and path.
func NewWSSink(baseURL, path string, logger zerolog.Logger) *WSSink {
	wsURL := strings.Replace(baseURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	if u, err := url.Parse(wsURL); err == nil {
		u.Path = path
		wsURL = u.String()
	}
	return &WSSink{
		wsURL:  wsURL,
		logger: logger.With().Str("component", "render-sink").Logger(),
	}
}

// Connect starts the background connect loop.
func (s *WSSink) Connect(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.connectLoop(ctx)
}

// Disconnect closes the connection and stops reconnecting.
func (s *WSSink) Disconnect() {
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connected = false
	s.mu.Unlock()
}

// IsConnected returns connection status.
func (s *WSSink) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *WSSink) connectLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Render runtime not reachable, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.connected = true
		s.mu.Unlock()
		s.logger.Info().Str("url", s.wsURL).Msg("Connected to render runtime")

		// Drain incoming messages until the connection drops; the sink is
		// write-only and ignores runtime chatter.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
			s.connected = false
		}
		s.mu.Unlock()
		conn.Close()
		s.logger.Debug().Msg("Render runtime connection lost")
	}
}

func (s *WSSink) send(msg wsMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected || s.conn == nil {
		return
	}
	s.sequence++
	msg.Sequence = s.sequence
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug().Err(err).Msg("Render write failed")
		s.conn.Close()
		s.conn = nil
		s.connected = false
	}
}

func (s *WSSink) ModelLoaded(instance string, desc *Descriptor) {
	s.send(wsMessage{Type: "model", Instance: instance, Model: desc.FileReferences.Moc})
}

func (s *WSSink) SetParameter(instance, id string, value float64) {
	s.send(wsMessage{Type: "param", Instance: instance, ID: id, Value: value})
}

func (s *WSSink) PlayMotion(instance, group string, index int) {
	s.send(wsMessage{Type: "motion", Instance: instance, Group: group, Index: index})
}

func (s *WSSink) PlayExpression(instance string, index int) {
	s.send(wsMessage{Type: "expression", Instance: instance, Index: index})
}

func (s *WSSink) Clear() {
	s.send(wsMessage{Type: "clear"})
}
