// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"testing/fstest"

	"github.com/gogpu/fxgraph"
	"github.com/gogpu/fxgraph/feature"
	"github.com/gogpu/fxgraph/graph"
	"github.com/gogpu/fxgraph/kernel"
)

const tintManifest = `
id: fx.tint
name: Tint
category: color
domain: clip
inputs:
  - name: input
    kind: image
parameters:
  - name: saturation
    type: float
    default: 1.0
    min: 0
    max: 4
kernel: color_adjust
`

const glowManifest = `
id: fx.glow
name: Glow
category: stylize
domain: clip
inputs:
  - name: input
    kind: image
parameters:
  - name: radius
    type: float
    default: 4.0
passes:
  - name: blurH
    kernel: blur_h
    inputs: [input]
    output: halfBlur
  - name: blurV
    kernel: blur_v
    inputs: [halfBlur]
    output: blurred
  - name: combine
    kernel: composite_over
    inputs: [input, blurred]
    output: out
`

func testEngine(t *testing.T) *Engine {
	t.Helper()
	kernels := testKernels(t)
	features := feature.NewRegistry()
	loader := feature.NewLoader(features, kernels)
	err := loader.LoadBundle(fstest.MapFS{
		"tint.yaml": {Data: []byte(tintManifest)},
		"glow.yaml": {Data: []byte(glowManifest)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(kernels, WithFeatures(features))
}

func TestEngineRenderFeatureNode(t *testing.T) {
	e := testEngine(t)

	g := graph.New()
	mustAdd(t, g,
		&graph.Node{
			ID: "src", Kind: graph.KindKernel, Kernel: kernel.Solid,
			Params: map[string]fxgraph.Value{"color": fxgraph.Color(color.RGBA{R: 200, G: 40, B: 40, A: 255})},
		},
		&graph.Node{
			ID: "tint", Kind: graph.KindFeature, Feature: "fx.tint",
			Inputs: map[string]graph.NodeID{"input": "src"},
			Params: map[string]fxgraph.Value{"saturation": fxgraph.Float(0)},
		},
	)
	g.SetRoot("tint")

	img, stats, err := e.Render(context.Background(), g, frameContext())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	got := img.RGBAAt(2, 2)
	if got.R != got.G || got.G != got.B {
		t.Errorf("output pixel = %v, want desaturated gray", got)
	}
	if stats.NodesEvaluated != 2 {
		t.Errorf("NodesEvaluated = %d, want 2 (source + expanded tint)", stats.NodesEvaluated)
	}

	// Expansion never mutates the caller's graph.
	if n := g.Node("tint"); n.Kind != graph.KindFeature {
		t.Error("original graph was mutated by expansion")
	}
}

func TestEngineRenderMultiPassFeature(t *testing.T) {
	e := testEngine(t)

	g := graph.New()
	mustAdd(t, g,
		&graph.Node{
			ID: "src", Kind: graph.KindKernel, Kernel: kernel.Solid,
			Params: map[string]fxgraph.Value{"color": fxgraph.Color(color.RGBA{G: 180, A: 255})},
		},
		&graph.Node{
			ID: "glow", Kind: graph.KindFeature, Feature: "fx.glow",
			Inputs: map[string]graph.NodeID{"input": "src"},
		},
	)
	g.SetRoot("glow")

	img, stats, err := e.Render(context.Background(), g, frameContext())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	// src + blurH + blurV + combine.
	if stats.NodesEvaluated != 4 {
		t.Errorf("NodesEvaluated = %d, want 4", stats.NodesEvaluated)
	}
	if got := img.RGBAAt(4, 4); got.G == 0 {
		t.Errorf("output pixel = %v, want green content", got)
	}
	if live := e.Executor().Pool().Stats().Live; live != 0 {
		t.Errorf("pool live = %d after render, want 0", live)
	}
}

func TestEngineRenderUnknownFeature(t *testing.T) {
	e := testEngine(t)

	g := graph.New()
	mustAdd(t, g, &graph.Node{ID: "fx", Kind: graph.KindFeature, Feature: "fx.unknown"})
	g.SetRoot("fx")

	_, _, err := e.Render(context.Background(), g, frameContext())
	if !errors.Is(err, feature.ErrUnknownFeature) {
		t.Errorf("Render() = %v, want feature.ErrUnknownFeature", err)
	}
}

func TestEngineRenderBadOverride(t *testing.T) {
	e := testEngine(t)

	g := graph.New()
	mustAdd(t, g,
		&graph.Node{ID: "src", Kind: graph.KindKernel, Kernel: kernel.Solid},
		&graph.Node{
			ID: "tint", Kind: graph.KindFeature, Feature: "fx.tint",
			Inputs: map[string]graph.NodeID{"input": "src"},
			Params: map[string]fxgraph.Value{"saturation": fxgraph.Float(99)},
		},
	)
	g.SetRoot("tint")

	_, _, err := e.Render(context.Background(), g, frameContext())
	if !errors.Is(err, feature.ErrBadParameter) {
		t.Errorf("Render() = %v, want feature.ErrBadParameter", err)
	}
}

func TestEngineCompileFeature(t *testing.T) {
	e := testEngine(t)

	frag, err := e.CompileFeature("fx.glow",
		map[string]graph.NodeID{"input": "clip-1/src"},
		map[string]fxgraph.Value{"radius": fxgraph.Float(8)},
		feature.WithInstance("clip-1/glow"),
	)
	if err != nil {
		t.Fatalf("CompileFeature() error: %v", err)
	}
	if len(frag.Nodes) != 3 || frag.Root != "clip-1/glow/combine" {
		t.Errorf("fragment = %d nodes root %v", len(frag.Nodes), frag.Root)
	}

	if _, err := e.CompileFeature("fx.unknown", nil, nil); !errors.Is(err, feature.ErrUnknownFeature) {
		t.Errorf("CompileFeature(unknown) = %v, want ErrUnknownFeature", err)
	}
}

func TestEngineFragmentCacheStability(t *testing.T) {
	e := testEngine(t)

	g := graph.New()
	mustAdd(t, g,
		&graph.Node{
			ID: "src", Kind: graph.KindKernel, Kernel: kernel.Solid,
			Params: map[string]fxgraph.Value{"color": fxgraph.Color(color.RGBA{R: 120, G: 30, B: 30, A: 255})},
		},
		&graph.Node{
			ID: "tint", Kind: graph.KindFeature, Feature: "fx.tint",
			Inputs: map[string]graph.NodeID{"input": "src"},
			Params: map[string]fxgraph.Value{"saturation": fxgraph.Float(0)},
		},
	)
	g.SetRoot("tint")

	// Repeated renders reuse the cached compiled fragment and stay
	// pixel-identical.
	first, _, err := e.Render(context.Background(), g, frameContext())
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := e.Render(context.Background(), g, frameContext())
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Pix {
		if first.Pix[i] != second.Pix[i] {
			t.Fatalf("renders diverge at byte %d", i)
		}
	}
}

func TestEngineWithoutFeatureRegistry(t *testing.T) {
	e := NewEngine(testKernels(t))

	g := graph.New()
	mustAdd(t, g, &graph.Node{ID: "fx", Kind: graph.KindFeature, Feature: "fx.tint"})
	g.SetRoot("fx")

	if _, _, err := e.Render(context.Background(), g, frameContext()); !errors.Is(err, feature.ErrUnknownFeature) {
		t.Errorf("Render() without registry = %v, want ErrUnknownFeature", err)
	}
}
