// Package live2d wraps the character-animation runtime behind a named,
// range-bounded parameter surface with model load/unload lifecycle.
package live2d

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ModelInfo is what a successful load reports back: the model's natural size
// and the declared motion/expression catalog.
type ModelInfo struct {
	Width       int
	Height      int
	Motions     map[string]int
	Expressions []string
}

// MotionHandle identifies a fire-and-forget motion or expression trigger.
type MotionHandle struct {
	Instance string
	Group    string
	Index    int
}

type modelInstance struct {
	id   string
	desc *Descriptor
}

type renderChild struct {
	id   string
	name string
}

// Surface owns the loaded model and applies clamped parameter writes to it
// through the render sink. All methods are safe for concurrent use.
type Surface struct {
	baseURL string
	http    *http.Client
	sink    Sink
	logger  zerolog.Logger

	mu       sync.Mutex
	model    *modelInstance
	children []renderChild
}

// NewSurface creates a parameter surface fetching descriptors from the given
// service base URL.
func NewSurface(baseURL string, sink Sink, logger zerolog.Logger) *Surface {
	if sink == nil {
		sink = NopSink{}
	}
	return &Surface{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		sink:    sink,
		logger:  logger.With().Str("component", "parameter-surface").Logger(),
	}
}

// Load fetches the model descriptor at path, tears down any previous model
// completely, and attaches the new one. At most one model is visible at any
// instant.
func (s *Surface) Load(ctx context.Context, path string) (*ModelInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Full teardown first so two models never overlap.
	s.destroyLocked()

	data, err := s.fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	desc, err := ParseDescriptor(data)
	if err != nil {
		return nil, err
	}

	inst := &modelInstance{id: uuid.NewString(), desc: desc}
	s.model = inst
	s.children = append(s.children, renderChild{id: inst.id, name: desc.Name})
	s.sink.ModelLoaded(inst.id, desc)

	info := &ModelInfo{
		Width:   desc.CanvasSize.Width,
		Height:  desc.CanvasSize.Height,
		Motions: make(map[string]int, len(desc.FileReferences.Motions)),
	}
	for group, refs := range desc.FileReferences.Motions {
		info.Motions[group] = len(refs)
	}
	for _, e := range desc.FileReferences.Expressions {
		info.Expressions = append(info.Expressions, e.Name)
	}

	s.logger.Info().
		Str("path", path).
		Str("instance", inst.id).
		Int("parameters", len(desc.Parameters)).
		Msg("Model loaded")
	return info, nil
}

// Destroy detaches and frees the current model. Calling it with no model
// loaded is a safe no-op that still clears the render root defensively.
func (s *Surface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyLocked()
}

func (s *Surface) destroyLocked() {
	// Clear every remaining render child even if the model reference was
	// already gone.
	if len(s.children) > 0 || s.model != nil {
		s.sink.Clear()
	}
	s.children = s.children[:0]
	s.model = nil
}

// Instance returns the current model instance id, or "" when none is loaded.
// Asynchronous writers compare it before applying stale work.
func (s *Surface) Instance() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return ""
	}
	return s.model.id
}

// Children reports the render root child count.
func (s *Surface) Children() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.children)
}

// ParameterRange returns the declared range for a parameter id, re-probed
// from the live descriptor on every call so a mid-flight model swap never
// serves stale bounds. Unknown ids and the unloaded state return the
// zero-range sentinel.
func (s *Surface) ParameterRange(id string) ParameterRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return ParameterRange{}
	}
	return s.model.desc.Range(id)
}

// SetParameter clamps value to the declared range and applies it. It returns
// false, writing nothing, when the parameter is absent.
func (s *Surface) SetParameter(id string, value float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return false
	}
	r := s.model.desc.Range(id)
	if r.IsZero() {
		return false
	}
	s.sink.SetParameter(s.model.id, id, r.Clamp(value))
	return true
}

// SetBool applies a boolean parameter as its range extreme.
func (s *Surface) SetBool(id string, on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return false
	}
	r := s.model.desc.Range(id)
	if r.IsZero() {
		return false
	}
	v := r.Min
	if on {
		v = r.Max
	}
	s.sink.SetParameter(s.model.id, id, v)
	return true
}

// PlayMotion triggers a motion by group and index. Returns nil when the
// group or index is unavailable.
func (s *Surface) PlayMotion(group string, index int) *MotionHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil || index < 0 || index >= s.model.desc.MotionCount(group) {
		return nil
	}
	s.sink.PlayMotion(s.model.id, group, index)
	return &MotionHandle{Instance: s.model.id, Group: group, Index: index}
}

// PlayExpression triggers an expression by index. Returns nil when
// unavailable.
func (s *Surface) PlayExpression(index int) *MotionHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil || index < 0 || index >= len(s.model.desc.FileReferences.Expressions) {
		return nil
	}
	s.sink.PlayExpression(s.model.id, index)
	return &MotionHandle{Instance: s.model.id, Index: index}
}

func (s *Surface) fetch(ctx context.Context, path string) ([]byte, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch model descriptor: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch model descriptor: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
