package live2d

import (
	"encoding/json"
	"fmt"
)

// Descriptor is a parsed model3.json model descriptor as served by the
// ClawCat service. The runtime exports the canvas size and the declared
// parameter table alongside the usual file references.
type Descriptor struct {
	Version        int            `json:"Version"`
	Name           string         `json:"Name"`
	CanvasSize     CanvasSize     `json:"CanvasSize"`
	FileReferences FileReferences `json:"FileReferences"`
	Parameters     []Parameter    `json:"Parameters"`
}

// CanvasSize is the model's natural size in pixels.
type CanvasSize struct {
	Width  int `json:"Width"`
	Height int `json:"Height"`
}

// FileReferences lists the model's asset files.
type FileReferences struct {
	Moc         string                 `json:"Moc"`
	Textures    []string               `json:"Textures"`
	Motions     map[string][]MotionRef `json:"Motions"`
	Expressions []ExpressionRef        `json:"Expressions"`
}

// MotionRef names one motion file inside a motion group.
type MotionRef struct {
	File string `json:"File"`
}

// ExpressionRef names one expression.
type ExpressionRef struct {
	Name string `json:"Name"`
	File string `json:"File"`
}

// Parameter declares one controllable parameter and its range.
type Parameter struct {
	ID      string  `json:"Id"`
	Min     float64 `json:"Min"`
	Max     float64 `json:"Max"`
	Default float64 `json:"Default"`
}

// ParseDescriptor decodes a model descriptor.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse model descriptor: %w", err)
	}
	if d.FileReferences.Moc == "" {
		return nil, fmt.Errorf("model descriptor missing moc reference")
	}
	return &d, nil
}

// Range looks up the declared range for a parameter id. Unknown ids get the
// zero-range sentinel.
func (d *Descriptor) Range(id string) ParameterRange {
	for i := range d.Parameters {
		if d.Parameters[i].ID == id {
			return ParameterRange{Min: d.Parameters[i].Min, Max: d.Parameters[i].Max}
		}
	}
	return ParameterRange{}
}

// MotionCount returns the number of motions in a group, 0 for unknown groups.
func (d *Descriptor) MotionCount(group string) int {
	return len(d.FileReferences.Motions[group])
}
