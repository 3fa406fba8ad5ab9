// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package feature

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/fxgraph"
	"github.com/gogpu/fxgraph/graph"
	"github.com/gogpu/fxgraph/kernel"
)

// Compiler turns validated manifests into render-graph fragments. It needs
// the kernel registry to map pass inputs onto each kernel's named binding
// contract.
type Compiler struct {
	kernels *kernel.Registry
}

// NewCompiler creates a compiler resolving kernels against the given
// registry.
func NewCompiler(kernels *kernel.Registry) *Compiler {
	return &Compiler{kernels: kernels}
}

// CompileOption customizes one compilation.
type CompileOption func(*compileConfig)

type compileConfig struct {
	instance string
}

// WithInstance namespaces the emitted node ids. Assemblers applying the
// same feature to several clips pass a distinct instance per application;
// the default instance is the feature id itself, which keeps single-use
// compilations deterministic.
func WithInstance(id string) CompileOption {
	return func(c *compileConfig) { c.instance = id }
}

// Compile expands a manifest into a graph fragment.
//
// external binds the manifest's port names (and any external context names
// its passes reference) to already-existing producer nodes. overrides
// overlays parameter values on the manifest defaults; an override naming an
// undeclared parameter, or failing the declaration's type or range check,
// fails the compilation. Every required binding is resolved before any node
// is emitted, so a failed compilation contributes nothing to the graph.
//
// Each emitted kernel node carries the complete resolved parameter set, so
// multi-pass features see consistent parameters in every pass.
func (c *Compiler) Compile(m *Manifest, external map[string]graph.NodeID, overrides map[string]fxgraph.Value, opts ...CompileOption) (*graph.Fragment, error) {
	cfg := compileConfig{instance: m.ID}
	for _, opt := range opts {
		opt(&cfg)
	}

	params, err := c.resolveParams(m, overrides)
	if err != nil {
		return nil, &CompileError{FeatureID: m.ID, Detail: err}
	}

	ordered, err := Schedule(m.EffectivePasses())
	if err != nil {
		return nil, &CompileError{FeatureID: m.ID, Detail: err}
	}

	// Resolve every input reference up front. A dangling reference must
	// fail before any node exists.
	outputs := make(map[string]graph.NodeID, len(ordered))
	for _, pass := range ordered {
		outputs[pass.Output] = c.nodeID(cfg.instance, pass.Name)
	}
	for _, pass := range ordered {
		for _, in := range pass.Inputs {
			if _, fromPass := outputs[in]; fromPass {
				continue
			}
			if _, bound := external[in]; bound {
				continue
			}
			if port := m.Port(in); port != nil && port.Optional {
				continue
			}
			return nil, &CompileError{
				FeatureID: m.ID,
				Detail:    fmt.Errorf("%w: pass %q input %q", ErrUnboundInput, pass.Name, in),
			}
		}
	}

	frag := &graph.Fragment{Nodes: make([]*graph.Node, 0, len(ordered))}
	for _, pass := range ordered {
		node, err := c.compilePass(m, &pass, cfg.instance, outputs, external, params)
		if err != nil {
			return nil, &CompileError{FeatureID: m.ID, Detail: err}
		}
		frag.Nodes = append(frag.Nodes, node)
		frag.Root = node.ID
	}
	return frag, nil
}

// resolveParams overlays overrides on the manifest's parameter defaults,
// rejecting unknown names and constraint violations.
func (c *Compiler) resolveParams(m *Manifest, overrides map[string]fxgraph.Value) (map[string]fxgraph.Value, error) {
	params := make(map[string]fxgraph.Value, len(m.Parameters))
	for i := range m.Parameters {
		p := &m.Parameters[i]
		params[p.Name] = p.Default
	}
	for name, v := range overrides {
		decl := m.Parameter(name)
		if decl == nil {
			return nil, fmt.Errorf("%w: %q is not declared", ErrBadParameter, name)
		}
		if err := decl.Check(v); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadParameter, name, err)
		}
		params[name] = v
	}
	return params, nil
}

// compilePass emits the render node for one scheduled pass.
func (c *Compiler) compilePass(m *Manifest, pass *FeaturePass, instance string, outputs map[string]graph.NodeID, external map[string]graph.NodeID, params map[string]fxgraph.Value) (*graph.Node, error) {
	node := &graph.Node{
		ID:     c.nodeID(instance, pass.Name),
		Inputs: make(map[string]graph.NodeID),
		Params: make(map[string]fxgraph.Value, len(params)+len(pass.Params)),
	}
	for name, v := range params {
		node.Params[name] = v
	}
	if err := overlayPassParams(node.Params, pass.Params, params); err != nil {
		return nil, fmt.Errorf("pass %q: %w", pass.Name, err)
	}

	resolve := func(ref string) (graph.NodeID, bool) {
		if id, ok := outputs[ref]; ok {
			return id, true
		}
		id, ok := external[ref]
		return id, ok
	}

	if pass.Kernel == TimeRemapKernel {
		node.Kind = graph.KindTimeRemap
		if len(pass.Inputs) != 1 {
			return nil, fmt.Errorf("pass %q: time remap takes exactly one input", pass.Name)
		}
		id, ok := resolve(pass.Inputs[0])
		if !ok {
			return nil, fmt.Errorf("%w: pass %q input %q", ErrUnboundInput, pass.Name, pass.Inputs[0])
		}
		node.Inputs[graph.InputPrimary] = id
		return node, nil
	}

	k, err := c.kernels.ResolveOrErr(pass.Kernel)
	if err != nil {
		return nil, err
	}
	node.Kind = graph.KindKernel
	node.Kernel = pass.Kernel

	// Primary pass inputs map positionally onto the kernel's declared
	// input names; surplus inputs keep their referenced names and become
	// extra bindings (masks, references). Only bound references count
	// toward the kernel's arity: an optional port left unbound is skipped,
	// a bound one satisfies its slot like any other input.
	bound := 0
	for i, ref := range pass.Inputs {
		id, ok := resolve(ref)
		if !ok {
			if port := m.Port(ref); port != nil && port.Optional {
				continue
			}
			return nil, fmt.Errorf("%w: pass %q input %q", ErrUnboundInput, pass.Name, ref)
		}
		bound++
		name := ref
		if i < len(k.Inputs) {
			name = k.Inputs[i]
		}
		node.Inputs[name] = id
	}
	if required := len(k.Inputs); bound < required {
		return nil, fmt.Errorf("pass %q: kernel %q needs %d inputs, got %d",
			pass.Name, pass.Kernel, required, bound)
	}

	tier, err := parseTier(pass.Tier)
	if err != nil {
		return nil, fmt.Errorf("pass %q: %w", pass.Name, err)
	}
	if tier != nil || pass.Format != "" {
		format, err := formatForName(pass.Format)
		if err != nil {
			return nil, fmt.Errorf("pass %q: %w", pass.Name, err)
		}
		spec := &graph.OutputSpec{Format: format}
		if tier != nil {
			spec.Tier = *tier
		}
		node.Output = spec
	}
	return node, nil
}

// overlayPassParams applies a pass's pinned parameter values. A value of
// the form "$name" references a resolved feature parameter; anything else
// is parsed as a literal (bool, float, else string).
func overlayPassParams(dst map[string]fxgraph.Value, pins map[string]string, params map[string]fxgraph.Value) error {
	for name, raw := range pins {
		if strings.HasPrefix(raw, "$") {
			ref := strings.TrimPrefix(raw, "$")
			v, ok := params[ref]
			if !ok {
				return fmt.Errorf("pass param %q references undeclared parameter %q", name, ref)
			}
			dst[name] = v
			continue
		}
		switch raw {
		case "true":
			dst[name] = fxgraph.Bool(true)
		case "false":
			dst[name] = fxgraph.Bool(false)
		default:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				dst[name] = fxgraph.Float(f)
			} else {
				dst[name] = fxgraph.String(raw)
			}
		}
	}
	return nil
}

// nodeID derives the deterministic node id for a pass.
func (c *Compiler) nodeID(instance, pass string) graph.NodeID {
	return graph.NodeID(instance + "/" + pass)
}
