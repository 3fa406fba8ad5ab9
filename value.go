// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fxgraph

import (
	"fmt"
	"image/color"
)

// ValueKind identifies the payload carried by a Value.
type ValueKind uint8

// Value kinds. The set is closed: consumers must match exhaustively and
// treat anything else as a decoding error, never as a default.
const (
	// ValueInvalid is the zero Value. It carries no payload.
	ValueInvalid ValueKind = iota

	// ValueFloat carries a float64 payload.
	ValueFloat

	// ValueBool carries a bool payload.
	ValueBool

	// ValueColor carries an 8-bit RGBA payload.
	ValueColor

	// ValueString carries a string payload.
	ValueString

	// ValueEnum carries a named enumerator payload.
	ValueEnum

	// ValueVec2 carries a two-component float64 payload.
	ValueVec2
)

// String returns a human-readable name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case ValueInvalid:
		return "Invalid"
	case ValueFloat:
		return "Float"
	case ValueBool:
		return "Bool"
	case ValueColor:
		return "Color"
	case ValueString:
		return "String"
	case ValueEnum:
		return "Enum"
	case ValueVec2:
		return "Vec2"
	default:
		return "Unknown"
	}
}

// Value is the dynamic parameter payload attached to render nodes.
//
// Value is a closed tagged union: the kind is fixed at construction and the
// typed accessors report whether the stored kind matches. Values are small,
// immutable and comparable; they are passed and stored by value.
type Value struct {
	kind ValueKind
	num  float64
	num2 float64
	str  string
	col  color.RGBA
}

// Float returns a Value holding a float64.
func Float(f float64) Value { return Value{kind: ValueFloat, num: f} }

// Bool returns a Value holding a bool.
func Bool(b bool) Value {
	v := Value{kind: ValueBool}
	if b {
		v.num = 1
	}
	return v
}

// Color returns a Value holding an 8-bit RGBA color.
func Color(c color.RGBA) Value { return Value{kind: ValueColor, col: c} }

// String returns a Value holding a string.
func String(s string) Value { return Value{kind: ValueString, str: s} }

// Enum returns a Value holding a named enumerator.
func Enum(name string) Value { return Value{kind: ValueEnum, str: name} }

// Vec2 returns a Value holding a two-component vector.
func Vec2(x, y float64) Value { return Value{kind: ValueVec2, num: x, num2: y} }

// Kind returns the kind of payload stored in the value.
func (v Value) Kind() ValueKind { return v.kind }

// AsFloat returns the float payload. ok is false if the value does not
// hold a float.
func (v Value) AsFloat() (f float64, ok bool) {
	return v.num, v.kind == ValueFloat
}

// AsBool returns the bool payload. ok is false if the value does not
// hold a bool.
func (v Value) AsBool() (b bool, ok bool) {
	return v.num != 0, v.kind == ValueBool
}

// AsColor returns the color payload. ok is false if the value does not
// hold a color.
func (v Value) AsColor() (c color.RGBA, ok bool) {
	return v.col, v.kind == ValueColor
}

// AsString returns the string payload. ok is false if the value does not
// hold a string.
func (v Value) AsString() (s string, ok bool) {
	return v.str, v.kind == ValueString
}

// AsEnum returns the enumerator payload. ok is false if the value does not
// hold an enum.
func (v Value) AsEnum() (name string, ok bool) {
	return v.str, v.kind == ValueEnum
}

// AsVec2 returns the vector payload. ok is false if the value does not
// hold a vec2.
func (v Value) AsVec2() (x, y float64, ok bool) {
	return v.num, v.num2, v.kind == ValueVec2
}

// FloatOr returns the float payload, or def if the value does not hold
// a float. Convenience for kernels reading optional parameters.
func (v Value) FloatOr(def float64) float64 {
	if v.kind == ValueFloat {
		return v.num
	}
	return def
}

// BoolOr returns the bool payload, or def if the value does not hold a bool.
func (v Value) BoolOr(def bool) bool {
	if v.kind == ValueBool {
		return v.num != 0
	}
	return def
}

// ColorOr returns the color payload, or def if the value does not hold
// a color.
func (v Value) ColorOr(def color.RGBA) color.RGBA {
	if v.kind == ValueColor {
		return v.col
	}
	return def
}

// GoString returns a debug representation of the value.
func (v Value) GoString() string {
	switch v.kind {
	case ValueInvalid:
		return "fxgraph.Value(invalid)"
	case ValueFloat:
		return fmt.Sprintf("fxgraph.Float(%g)", v.num)
	case ValueBool:
		return fmt.Sprintf("fxgraph.Bool(%t)", v.num != 0)
	case ValueColor:
		return fmt.Sprintf("fxgraph.Color(%d,%d,%d,%d)", v.col.R, v.col.G, v.col.B, v.col.A)
	case ValueString:
		return fmt.Sprintf("fxgraph.String(%q)", v.str)
	case ValueEnum:
		return fmt.Sprintf("fxgraph.Enum(%q)", v.str)
	case ValueVec2:
		return fmt.Sprintf("fxgraph.Vec2(%g,%g)", v.num, v.num2)
	default:
		return "fxgraph.Value(unknown)"
	}
}
