// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package feature holds the declarative effect library: manifest data
// model, validated registry, bundle loader, pass scheduler and the
// multi-pass compiler that turns a manifest into render-graph fragments.
package feature

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/fxgraph"
)

// Domain classifies where a feature may be compiled.
type Domain string

// Feature domains.
const (
	// DomainClip features attach to a single clip's image stream. They may
	// only declare the ports the clip-compilation context can supply.
	DomainClip Domain = "clip"

	// DomainScene features operate on a composed scene rather than one clip.
	DomainScene Domain = "scene"

	// DomainGenerator features synthesize imagery with no upstream clip.
	DomainGenerator Domain = "generator"

	// DomainTransition features blend two adjacent clips.
	DomainTransition Domain = "transition"

	// DomainUtility features are internal building blocks (adapters,
	// format conversions) not exposed to end users.
	DomainUtility Domain = "utility"

	// DomainIntrinsic features are engine-reserved (time remaps,
	// compositing primitives).
	DomainIntrinsic Domain = "intrinsic"

	// DomainAudio features process audio, not imagery; the render core
	// stores but never compiles them.
	DomainAudio Domain = "audio"
)

// valid reports whether the domain is one of the known values.
func (d Domain) valid() bool {
	switch d {
	case DomainClip, DomainScene, DomainGenerator, DomainTransition,
		DomainUtility, DomainIntrinsic, DomainAudio:
		return true
	}
	return false
}

// Clip-compilation port contract: the only ports a clip-domain feature may
// declare. "source"/"input" bind to the clip's running image stream,
// "faceMask" to the compiler-synthesized face mask node.
const (
	PortSource   = "source"
	PortInput    = "input"
	PortFaceMask = "faceMask"
)

// clipPortAllowed reports whether a clip-domain manifest may declare the
// given port name.
func clipPortAllowed(name string) bool {
	return name == PortSource || name == PortInput || name == PortFaceMask
}

// PortKind is the type of payload a port carries.
type PortKind string

// Port kinds.
const (
	PortImage  PortKind = "image"
	PortScalar PortKind = "scalar"
)

// PortDefinition declares a named input a feature can consume.
// Immutable once loaded.
type PortDefinition struct {
	Name string   `yaml:"name"`
	Kind PortKind `yaml:"kind"`

	// Optional marks ports the compiler may leave unbound (masks).
	Optional bool `yaml:"optional"`
}

// FeaturePass is one internal dispatch step inside a multi-pass feature.
// The pass set forms a DAG: a pass consuming another pass's Output depends
// on it.
type FeaturePass struct {
	// Name is the pass's logical name within the manifest.
	Name string `yaml:"name"`

	// Kernel is the kernel function the pass dispatches, or
	// TimeRemapKernel for a temporal-context rewrite step.
	Kernel string `yaml:"kernel"`

	// Inputs reference declared port names, external context names, or
	// the Output names of other passes.
	Inputs []string `yaml:"inputs"`

	// Output is the name later passes use to consume this pass's result.
	Output string `yaml:"output"`

	// Tier optionally declares the pass's output resolution tier:
	// "full", "half", "quarter" or "WxH".
	Tier string `yaml:"tier"`

	// Format optionally declares the pass's output pixel format:
	// "rgba8" (default) or "bgra8".
	Format string `yaml:"format"`

	// Params optionally pins parameter values for this pass only.
	Params map[string]string `yaml:"params"`
}

// TimeRemapKernel is the reserved pass kernel name that compiles to a
// temporal-context-rewrite node instead of a kernel dispatch. The loader
// exempts it from kernel-existence validation.
const TimeRemapKernel = "$time_remap"

// Manifest is the declarative description of one feature: its identity,
// its input ports, its tunable parameters, and its internal pass list.
//
// Manifests are decoded from a bundle, validated once at load time, and
// immutable and shared thereafter (until a registry reload swaps the whole
// set).
type Manifest struct {
	// SchemaVersion is the manifest format revision. Absent means 1.
	SchemaVersion int `yaml:"schemaVersion"`

	// ID is the feature's globally unique identifier.
	ID string `yaml:"id"`

	// Version is the feature's own revision, for authoring bookkeeping.
	Version string `yaml:"version"`

	// Name is the human-readable display name.
	Name string `yaml:"name"`

	// Category groups features for browsing ("stylize", "color", ...).
	Category string `yaml:"category"`

	// Domain classifies where the feature may be compiled.
	Domain Domain `yaml:"domain"`

	// Inputs declares the feature's named ports.
	Inputs []PortDefinition `yaml:"inputs"`

	// Parameters declares the feature's tunables with defaults.
	Parameters []ParameterDefinition `yaml:"parameters"`

	// Kernel is the single-pass shorthand: a manifest with a kernel and
	// no pass list is sugar for one implicit pass whose inputs are the
	// declared ports in order.
	Kernel string `yaml:"kernel"`

	// Passes is the explicit internal pass list.
	Passes []FeaturePass `yaml:"passes"`

	// source records where the manifest was decoded from, for error
	// reporting. Not part of the wire format.
	source string
}

// Source returns the bundle path the manifest was decoded from.
func (m *Manifest) Source() string { return m.source }

// Port returns the declared port with the given name, or nil.
func (m *Manifest) Port(name string) *PortDefinition {
	for i := range m.Inputs {
		if m.Inputs[i].Name == name {
			return &m.Inputs[i]
		}
	}
	return nil
}

// Parameter returns the declared parameter with the given name, or nil.
func (m *Manifest) Parameter(name string) *ParameterDefinition {
	for i := range m.Parameters {
		if m.Parameters[i].Name == name {
			return &m.Parameters[i]
		}
	}
	return nil
}

// EffectivePasses returns the manifest's pass list, materializing the
// single-kernel shorthand as one implicit pass whose inputs are the
// declared ports in order.
func (m *Manifest) EffectivePasses() []FeaturePass {
	if len(m.Passes) > 0 {
		return m.Passes
	}
	inputs := make([]string, len(m.Inputs))
	for i, p := range m.Inputs {
		inputs[i] = p.Name
	}
	return []FeaturePass{{
		Name:   m.ID,
		Kernel: m.Kernel,
		Inputs: inputs,
		Output: "out",
	}}
}

// checkStructure validates the manifest's internal shape: identity fields,
// domain, pass naming and port references. Kernel existence and pass-order
// constraints are the loader's and scheduler's concern.
func (m *Manifest) checkStructure() []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if m.ID == "" {
		fail("manifest %s: missing id", m.source)
	}
	if m.Domain == "" {
		fail("manifest %q: missing domain", m.ID)
	} else if !m.Domain.valid() {
		fail("manifest %q: unknown domain %q", m.ID, m.Domain)
	}
	if m.Kernel == "" && len(m.Passes) == 0 {
		fail("manifest %q: neither kernel nor passes declared", m.ID)
	}
	if m.Kernel != "" && len(m.Passes) > 0 {
		fail("manifest %q: kernel shorthand and explicit passes are mutually exclusive", m.ID)
	}

	seenPorts := make(map[string]bool, len(m.Inputs))
	for _, p := range m.Inputs {
		if p.Name == "" {
			fail("manifest %q: unnamed port", m.ID)
			continue
		}
		if seenPorts[p.Name] {
			fail("manifest %q: duplicate port %q", m.ID, p.Name)
		}
		seenPorts[p.Name] = true
		if m.Domain == DomainClip && !clipPortAllowed(p.Name) {
			fail("manifest %q: port %q is not available to clip-domain features (allowed: %s, %s, %s)",
				m.ID, p.Name, PortSource, PortInput, PortFaceMask)
		}
	}

	seenParams := make(map[string]bool, len(m.Parameters))
	for i := range m.Parameters {
		p := &m.Parameters[i]
		if p.Name == "" {
			fail("manifest %q: unnamed parameter", m.ID)
			continue
		}
		if seenParams[p.Name] {
			fail("manifest %q: duplicate parameter %q", m.ID, p.Name)
		}
		seenParams[p.Name] = true
		if err := p.checkDefault(); err != nil {
			fail("manifest %q: parameter %q: %v", m.ID, p.Name, err)
		}
	}

	seenPasses := make(map[string]bool, len(m.Passes))
	seenOutputs := make(map[string]bool, len(m.Passes))
	for _, pass := range m.Passes {
		if pass.Name == "" {
			fail("manifest %q: unnamed pass", m.ID)
			continue
		}
		if seenPasses[pass.Name] {
			fail("manifest %q: duplicate pass %q", m.ID, pass.Name)
		}
		seenPasses[pass.Name] = true
		if pass.Output == "" {
			fail("manifest %q: pass %q has no output name", m.ID, pass.Name)
		} else if seenOutputs[pass.Output] {
			fail("manifest %q: duplicate pass output %q", m.ID, pass.Output)
		}
		seenOutputs[pass.Output] = true
		if pass.Kernel == "" {
			fail("manifest %q: pass %q has no kernel", m.ID, pass.Name)
		}
		if _, err := parseTier(pass.Tier); err != nil {
			fail("manifest %q: pass %q: %v", m.ID, pass.Name, err)
		}
		if _, err := formatForName(pass.Format); err != nil {
			fail("manifest %q: pass %q: %v", m.ID, pass.Name, err)
		}
	}

	return errs
}

// parseTier parses a pass tier declaration: "", "full", "half", "quarter"
// or an explicit "WxH".
func parseTier(s string) (*fxgraph.ResolutionTier, error) {
	switch s {
	case "":
		return nil, nil
	case "full":
		t := fxgraph.FullTier()
		return &t, nil
	case "half":
		t := fxgraph.HalfTier()
		return &t, nil
	case "quarter":
		t := fxgraph.QuarterTier()
		return &t, nil
	}
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid tier %q", s)
	}
	t := fxgraph.FixedTier(w, h)
	return &t, nil
}

// formatForName maps a declared pixel format name to gputypes. Only the
// formats the pool allocates CPU backing for are accepted.
func formatForName(s string) (gputypes.TextureFormat, error) {
	switch s {
	case "", "rgba8":
		return gputypes.TextureFormatRGBA8Unorm, nil
	case "bgra8":
		return gputypes.TextureFormatBGRA8Unorm, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("unknown pixel format %q", s)
	}
}
