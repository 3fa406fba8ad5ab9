// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package feature

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/fxgraph"
)

// ParameterDefinition declares one tunable of a feature: its value kind,
// its default, and kind-specific constraints. Definitions are immutable
// once loaded; the compiler consults them when overlaying overrides.
type ParameterDefinition struct {
	// Name is the parameter's identifier within the manifest.
	Name string

	// Kind is the value kind every bound value must carry.
	Kind fxgraph.ValueKind

	// Default is the value used when no override is supplied.
	Default fxgraph.Value

	// Min and Max bound float parameters when set.
	Min, Max *float64

	// Values enumerates the legal choices of an enum parameter.
	Values []string
}

// parameterYAML is the wire shape of a parameter declaration. The default
// is kind-dependent, so it is held as a raw node until the kind is known.
type parameterYAML struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Default yaml.Node `yaml:"default"`
	Min     *float64  `yaml:"min"`
	Max     *float64  `yaml:"max"`
	Values  []string  `yaml:"values"`
}

// UnmarshalYAML decodes a parameter declaration, resolving the default
// value against the declared type.
func (p *ParameterDefinition) UnmarshalYAML(node *yaml.Node) error {
	var raw parameterYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}

	kind, err := kindForName(raw.Type)
	if err != nil {
		return fmt.Errorf("parameter %q: %w", raw.Name, err)
	}

	p.Name = raw.Name
	p.Kind = kind
	p.Min = raw.Min
	p.Max = raw.Max
	p.Values = raw.Values

	if raw.Default.IsZero() {
		p.Default = zeroValue(kind)
		return nil
	}
	v, err := decodeValue(kind, &raw.Default)
	if err != nil {
		return fmt.Errorf("parameter %q: %w", raw.Name, err)
	}
	p.Default = v
	return nil
}

// kindForName maps a manifest type name to a value kind.
func kindForName(s string) (fxgraph.ValueKind, error) {
	switch s {
	case "float":
		return fxgraph.ValueFloat, nil
	case "bool":
		return fxgraph.ValueBool, nil
	case "color":
		return fxgraph.ValueColor, nil
	case "string":
		return fxgraph.ValueString, nil
	case "enum":
		return fxgraph.ValueEnum, nil
	case "vec2":
		return fxgraph.ValueVec2, nil
	case "":
		return fxgraph.ValueInvalid, errors.New("missing type")
	}
	return fxgraph.ValueInvalid, fmt.Errorf("unknown type %q", s)
}

// zeroValue returns the neutral default for a kind when the manifest
// declares none.
func zeroValue(kind fxgraph.ValueKind) fxgraph.Value {
	switch kind {
	case fxgraph.ValueFloat:
		return fxgraph.Float(0)
	case fxgraph.ValueBool:
		return fxgraph.Bool(false)
	case fxgraph.ValueColor:
		return fxgraph.Color(color.RGBA{A: 255})
	case fxgraph.ValueString:
		return fxgraph.String("")
	case fxgraph.ValueEnum:
		return fxgraph.Enum("")
	case fxgraph.ValueVec2:
		return fxgraph.Vec2(0, 0)
	}
	return fxgraph.Value{}
}

// decodeValue decodes a YAML node into a value of the given kind.
func decodeValue(kind fxgraph.ValueKind, node *yaml.Node) (fxgraph.Value, error) {
	switch kind {
	case fxgraph.ValueFloat:
		var f float64
		if err := node.Decode(&f); err != nil {
			return fxgraph.Value{}, fmt.Errorf("default is not a float: %w", err)
		}
		return fxgraph.Float(f), nil

	case fxgraph.ValueBool:
		var b bool
		if err := node.Decode(&b); err != nil {
			return fxgraph.Value{}, fmt.Errorf("default is not a bool: %w", err)
		}
		return fxgraph.Bool(b), nil

	case fxgraph.ValueColor:
		var s string
		if err := node.Decode(&s); err != nil {
			return fxgraph.Value{}, fmt.Errorf("default is not a color string: %w", err)
		}
		c, err := parseHexColor(s)
		if err != nil {
			return fxgraph.Value{}, err
		}
		return fxgraph.Color(c), nil

	case fxgraph.ValueString:
		var s string
		if err := node.Decode(&s); err != nil {
			return fxgraph.Value{}, fmt.Errorf("default is not a string: %w", err)
		}
		return fxgraph.String(s), nil

	case fxgraph.ValueEnum:
		var s string
		if err := node.Decode(&s); err != nil {
			return fxgraph.Value{}, fmt.Errorf("default is not an enum value: %w", err)
		}
		return fxgraph.Enum(s), nil

	case fxgraph.ValueVec2:
		var v [2]float64
		if err := node.Decode(&v); err != nil {
			return fxgraph.Value{}, fmt.Errorf("default is not a [x, y] pair: %w", err)
		}
		return fxgraph.Vec2(v[0], v[1]), nil
	}
	return fxgraph.Value{}, fmt.Errorf("unsupported kind %v", kind)
}

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	var c color.RGBA
	c.A = 255
	switch len(s) {
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}
	case 8:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return c, nil
}

// checkDefault validates that the declared default satisfies the
// parameter's own constraints.
func (p *ParameterDefinition) checkDefault() error {
	if p.Default.Kind() == fxgraph.ValueInvalid {
		return errors.New("invalid default")
	}
	return p.Check(p.Default)
}

// Check validates a candidate value against the parameter's kind and
// constraints. The compiler rejects overrides that fail this.
func (p *ParameterDefinition) Check(v fxgraph.Value) error {
	if v.Kind() != p.Kind {
		return fmt.Errorf("value kind %v does not match declared kind %v", v.Kind(), p.Kind)
	}
	switch p.Kind {
	case fxgraph.ValueFloat:
		f, _ := v.AsFloat()
		if p.Min != nil && f < *p.Min {
			return fmt.Errorf("value %g below minimum %g", f, *p.Min)
		}
		if p.Max != nil && f > *p.Max {
			return fmt.Errorf("value %g above maximum %g", f, *p.Max)
		}
	case fxgraph.ValueEnum:
		if len(p.Values) == 0 {
			return nil
		}
		s, _ := v.AsEnum()
		for _, allowed := range p.Values {
			if s == allowed {
				return nil
			}
		}
		return fmt.Errorf("enum value %q not in %v", s, p.Values)
	}
	return nil
}
