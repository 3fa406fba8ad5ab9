// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package feature

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/gogpu/fxgraph"
	"github.com/gogpu/fxgraph/graph"
)

// loadGlow loads the three-pass glow manifest through a real loader.
func loadGlow(t *testing.T) (*Manifest, *Compiler) {
	t.Helper()
	kernels := builtinKernels(t)
	features := NewRegistry()
	loader := NewLoader(features, kernels)
	if err := loader.LoadBundle(fstest.MapFS{"glow.yaml": {Data: []byte(blurManifest)}}); err != nil {
		t.Fatal(err)
	}
	m, ok := features.Lookup("fx.glow")
	if !ok {
		t.Fatal("fx.glow not registered")
	}
	return m, NewCompiler(kernels)
}

func TestCompileMultiPass(t *testing.T) {
	m, compiler := loadGlow(t)

	source := graph.NodeID("clip-7/source")
	frag, err := compiler.Compile(m,
		map[string]graph.NodeID{"input": source},
		map[string]fxgraph.Value{"radius": fxgraph.Float(8)},
	)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	if len(frag.Nodes) != 3 {
		t.Fatalf("fragment has %d nodes, want 3", len(frag.Nodes))
	}

	byID := make(map[graph.NodeID]*graph.Node)
	for _, n := range frag.Nodes {
		byID[n.ID] = n
	}

	blurH := byID["fx.glow/blurH"]
	blurV := byID["fx.glow/blurV"]
	combine := byID["fx.glow/combine"]
	if blurH == nil || blurV == nil || combine == nil {
		t.Fatalf("missing expected nodes, got %v", frag.Nodes)
	}

	// Wiring: external -> blurH -> blurV -> combine; combine also reads
	// the external source directly.
	if blurH.Inputs["input"] != source {
		t.Errorf("blurH input = %v, want external source", blurH.Inputs)
	}
	if blurV.Inputs["input"] != blurH.ID {
		t.Errorf("blurV input = %v, want blurH", blurV.Inputs)
	}
	if combine.Inputs["base"] != source || combine.Inputs["over"] != blurV.ID {
		t.Errorf("combine inputs = %v, want base=source over=blurV", combine.Inputs)
	}
	if frag.Root != combine.ID {
		t.Errorf("fragment root = %v, want combine", frag.Root)
	}

	// Every emitted node carries the full resolved parameter set.
	for _, n := range []*graph.Node{blurH, blurV} {
		if r, _ := n.Params["radius"].AsFloat(); r != 8 {
			t.Errorf("%s radius = %v, want 8", n.ID, n.Params["radius"])
		}
	}

	// Declared tiers surface as output specs.
	if blurH.Output == nil || blurH.Output.Tier.Kind != fxgraph.TierHalf {
		t.Errorf("blurH output spec = %+v, want half tier", blurH.Output)
	}
	if combine.Output != nil {
		t.Errorf("combine output spec = %+v, want none (inherits frame)", combine.Output)
	}
}

func TestCompileDeterministic(t *testing.T) {
	m, compiler := loadGlow(t)
	external := map[string]graph.NodeID{"input": "src"}

	a, err := compiler.Compile(m, external, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := compiler.Compile(m, external, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Nodes) != len(b.Nodes) || a.Root != b.Root {
		t.Fatal("repeated compilations differ in shape")
	}
	for i := range a.Nodes {
		if a.Nodes[i].ID != b.Nodes[i].ID {
			t.Errorf("node %d id %v != %v", i, a.Nodes[i].ID, b.Nodes[i].ID)
		}
	}
}

func TestCompileWithInstance(t *testing.T) {
	m, compiler := loadGlow(t)
	external := map[string]graph.NodeID{"input": "src"}

	frag, err := compiler.Compile(m, external, nil, WithInstance("clip-3/glow-0"))
	if err != nil {
		t.Fatal(err)
	}
	if frag.Root != "clip-3/glow-0/combine" {
		t.Errorf("root id = %v, want instance-prefixed", frag.Root)
	}
}

func TestCompileUnboundInput(t *testing.T) {
	m, compiler := loadGlow(t)

	_, err := compiler.Compile(m, nil, nil)
	if !errors.Is(err, ErrUnboundInput) {
		t.Fatalf("Compile() without external bindings = %v, want ErrUnboundInput", err)
	}
	var cerr *CompileError
	if !errors.As(err, &cerr) || cerr.FeatureID != "fx.glow" {
		t.Errorf("error should be a CompileError naming fx.glow, got %v", err)
	}
}

func TestCompileBadOverride(t *testing.T) {
	m, compiler := loadGlow(t)
	external := map[string]graph.NodeID{"input": "src"}

	tests := []struct {
		name      string
		overrides map[string]fxgraph.Value
	}{
		{"undeclared parameter", map[string]fxgraph.Value{"strength": fxgraph.Float(1)}},
		{"wrong kind", map[string]fxgraph.Value{"radius": fxgraph.Bool(true)}},
		{"out of range", map[string]fxgraph.Value{"radius": fxgraph.Float(1000)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := compiler.Compile(m, external, tt.overrides); !errors.Is(err, ErrBadParameter) {
				t.Errorf("Compile() = %v, want ErrBadParameter", err)
			}
		})
	}
}

func TestCompileShorthand(t *testing.T) {
	kernels := builtinKernels(t)
	features := NewRegistry()
	loader := NewLoader(features, kernels)
	if err := loader.LoadBundle(fstest.MapFS{"tint.yaml": {Data: []byte(tintManifest)}}); err != nil {
		t.Fatal(err)
	}
	m, _ := features.Lookup("fx.tint")

	frag, err := NewCompiler(kernels).Compile(m,
		map[string]graph.NodeID{"input": "src"},
		map[string]fxgraph.Value{"saturation": fxgraph.Float(0)},
	)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if len(frag.Nodes) != 1 {
		t.Fatalf("shorthand fragment has %d nodes, want 1", len(frag.Nodes))
	}
	n := frag.Nodes[0]
	if n.Kernel != "color_adjust" || n.Inputs["input"] != "src" {
		t.Errorf("shorthand node = %+v", n)
	}
	if s, _ := n.Params["saturation"].AsFloat(); s != 0 {
		t.Errorf("saturation = %v, want override 0", n.Params["saturation"])
	}
}

func TestCompileBoundOptionalPort(t *testing.T) {
	const vignette = `
id: fx.vignette
domain: scene
inputs:
  - name: backdrop
    kind: image
  - name: shade
    kind: image
    optional: true
passes:
  - name: apply
    kernel: composite_over
    inputs: [backdrop, shade]
    output: out
`
	kernels := builtinKernels(t)
	features := NewRegistry()
	loader := NewLoader(features, kernels)
	if err := loader.LoadBundle(fstest.MapFS{"vignette.yaml": {Data: []byte(vignette)}}); err != nil {
		t.Fatal(err)
	}
	m, _ := features.Lookup("fx.vignette")
	compiler := NewCompiler(kernels)

	// A bound optional port fills its kernel slot like any other input.
	frag, err := compiler.Compile(m, map[string]graph.NodeID{
		"backdrop": "bg",
		"shade":    "shade-src",
	}, nil)
	if err != nil {
		t.Fatalf("Compile() with bound optional port: %v", err)
	}
	n := frag.Nodes[0]
	if n.Inputs["base"] != "bg" || n.Inputs["over"] != "shade-src" {
		t.Errorf("inputs = %v, want base=bg over=shade-src", n.Inputs)
	}

	// Left unbound, the optional port no longer satisfies the kernel's
	// arity and the compilation fails rather than dispatching half-wired.
	if _, err := compiler.Compile(m, map[string]graph.NodeID{"backdrop": "bg"}, nil); err == nil {
		t.Error("Compile() with unbound second kernel input succeeded, want arity error")
	}
}

func TestCompileTimeRemapPass(t *testing.T) {
	const echo = `
id: fx.echo
domain: clip
inputs:
  - name: input
    kind: image
parameters:
  - name: delay
    type: float
    default: -0.5
passes:
  - name: shift
    kernel: $time_remap
    inputs: [input]
    output: delayed
    params:
      offset: $delay
  - name: mix
    kernel: composite_over
    inputs: [input, delayed]
    output: out
`
	kernels := builtinKernels(t)
	features := NewRegistry()
	loader := NewLoader(features, kernels)
	if err := loader.LoadBundle(fstest.MapFS{"echo.yaml": {Data: []byte(echo)}}); err != nil {
		t.Fatal(err)
	}
	m, _ := features.Lookup("fx.echo")

	frag, err := NewCompiler(kernels).Compile(m, map[string]graph.NodeID{"input": "src"}, nil)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	var shift *graph.Node
	for _, n := range frag.Nodes {
		if n.Kind == graph.KindTimeRemap {
			shift = n
		}
	}
	if shift == nil {
		t.Fatal("no time-remap node emitted")
	}
	if shift.Inputs[graph.InputPrimary] != "src" {
		t.Errorf("remap input = %v, want src", shift.Inputs)
	}
	if got := shift.RemapTime(3); got != 2.5 {
		t.Errorf("RemapTime(3) = %v, want 2.5 with offset -0.5", got)
	}
}
