// Package document reads and writes project documents: the YAML or JSON
// form of a project that lists the canvas and its components.
package document

import "errors"

// ErrMalformedProject marks a document that cannot be turned into a project.
// Loading is all or nothing; no partial project is returned with it.
var ErrMalformedProject = errors.New("malformed project document")

// Document is the serialized form of a project.
type Document struct {
	Width      int         `yaml:"width" json:"width"`
	Height     int         `yaml:"height" json:"height"`
	Length     uint64      `yaml:"length" json:"length"` // milliseconds
	Components []Component `yaml:"components" json:"components"`
}

// Component is one timeline entry. Image components carry their file in
// data_path, Video and Sound components in entity, Text components in text.
type Component struct {
	ID            string         `yaml:"id,omitempty" json:"id,omitempty"`
	ComponentType string         `yaml:"component_type" json:"component_type"`
	DataPath      string         `yaml:"data_path,omitempty" json:"data_path,omitempty"`
	Entity        string         `yaml:"entity,omitempty" json:"entity,omitempty"`
	Text          string         `yaml:"text,omitempty" json:"text,omitempty"`
	StartTime     uint64         `yaml:"start_time" json:"start_time"`
	Length        uint64         `yaml:"length" json:"length"`
	LayerIndex    uint           `yaml:"layer_index" json:"layer_index"`
	Coordinate    *[2]int        `yaml:"coordinate,omitempty,flow" json:"coordinate,omitempty"`
	Rotation      float64        `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	Scale         *[2]float64    `yaml:"scale,omitempty,flow" json:"scale,omitempty"`
	Alpha         *int           `yaml:"alpha,omitempty" json:"alpha,omitempty"`
	Properties    map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
	Effects       []Effect       `yaml:"effect,omitempty" json:"effect,omitempty"`
}

// Effect is a parametric value curve attached to a component.
type Effect struct {
	EffectType  string       `yaml:"effect_type" json:"effect_type"`
	Transition  string       `yaml:"transition,omitempty" json:"transition,omitempty"`
	StartValue  float64      `yaml:"start_value" json:"start_value"`
	EndValue    float64      `yaml:"end_value" json:"end_value"`
	Breakpoints []Breakpoint `yaml:"breakpoints,omitempty" json:"breakpoints,omitempty"`
}

type Breakpoint struct {
	Transition string  `yaml:"transition,omitempty" json:"transition,omitempty"`
	Position   float64 `yaml:"position" json:"position"`
	Value      float64 `yaml:"value" json:"value"`
}
