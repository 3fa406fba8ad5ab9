// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fxgraph

import (
	"image/color"
	"testing"
)

func TestValueKinds(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want ValueKind
	}{
		{"float", Float(1.5), ValueFloat},
		{"bool", Bool(true), ValueBool},
		{"color", Color(color.RGBA{R: 255, A: 255}), ValueColor},
		{"string", String("hello"), ValueString},
		{"enum", Enum("screen"), ValueEnum},
		{"vec2", Vec2(3, 4), ValueVec2},
		{"zero", Value{}, ValueInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueAccessors(t *testing.T) {
	if f, ok := Float(2.5).AsFloat(); !ok || f != 2.5 {
		t.Errorf("AsFloat() = %v, %v, want 2.5, true", f, ok)
	}
	if _, ok := Float(2.5).AsBool(); ok {
		t.Error("AsBool() on float should report ok=false")
	}
	if b, ok := Bool(true).AsBool(); !ok || !b {
		t.Errorf("AsBool() = %v, %v, want true, true", b, ok)
	}
	if s, ok := String("x").AsString(); !ok || s != "x" {
		t.Errorf("AsString() = %q, %v, want \"x\", true", s, ok)
	}
	if e, ok := Enum("overlay").AsEnum(); !ok || e != "overlay" {
		t.Errorf("AsEnum() = %q, %v, want \"overlay\", true", e, ok)
	}
	if x, y, ok := Vec2(3, 4).AsVec2(); !ok || x != 3 || y != 4 {
		t.Errorf("AsVec2() = %v, %v, %v, want 3, 4, true", x, y, ok)
	}

	c := color.RGBA{R: 10, G: 20, B: 30, A: 40}
	if got, ok := Color(c).AsColor(); !ok || got != c {
		t.Errorf("AsColor() = %v, %v, want %v, true", got, ok, c)
	}
}

func TestValueOrDefaults(t *testing.T) {
	if got := Float(8).FloatOr(1); got != 8 {
		t.Errorf("FloatOr() = %v, want 8", got)
	}
	if got := Bool(false).FloatOr(1); got != 1 {
		t.Errorf("FloatOr() on bool = %v, want default 1", got)
	}
	if got := String("x").BoolOr(true); got != true {
		t.Errorf("BoolOr() on string = %v, want default true", got)
	}
	red := color.RGBA{R: 255, A: 255}
	if got := Float(0).ColorOr(red); got != red {
		t.Errorf("ColorOr() on float = %v, want default %v", got, red)
	}
}

func TestValueComparable(t *testing.T) {
	// Values are used as map keys in caller code; equal construction must
	// compare equal.
	if Float(1) != Float(1) {
		t.Error("Float(1) != Float(1)")
	}
	if Float(1) == Float(2) {
		t.Error("Float(1) == Float(2)")
	}
	if Enum("a") == String("a") {
		t.Error("Enum and String with same payload must differ")
	}
}
