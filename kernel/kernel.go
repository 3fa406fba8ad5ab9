// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package kernel resolves logical kernel names to dispatchable entry points.
//
// A kernel is an opaque named function with a documented binding contract:
// it reads its inputs from physical slots, writes one output slot, and is
// parameterized by a name→Value map. The registry is populated once at
// startup and read-mostly thereafter; both the feature loader (validation)
// and the graph executor (dispatch) gate on it.
package kernel

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/fxgraph"
)

// Registry errors.
var (
	// ErrUnresolved indicates a logical kernel name has no registered
	// entry point.
	ErrUnresolved = errors.New("kernel: unresolved kernel")

	// ErrDuplicate indicates a kernel name was registered twice.
	ErrDuplicate = errors.New("kernel: duplicate registration")
)

// Func is a kernel entry point. It reads the input slots, writes the output
// slot, and returns an error only for contract violations (missing binding,
// malformed parameter); pixel math itself does not fail.
type Func func(ctx *DispatchContext) error

// Kernel describes one registered entry point.
type Kernel struct {
	// Name is the logical kernel name referenced by manifests and nodes.
	Name string

	// Inputs lists the kernel's primary input names in slot order.
	// A one-element list is the common filter shape (input→slot 0,
	// output→slot 1); an N-element list declares an N-ary compositor;
	// an empty list declares a generator.
	Inputs []string

	// Func is the CPU entry point.
	Func Func

	// WGSL optionally carries the kernel's GPU source. When present it is
	// compiled with naga at registration time, so a malformed shader fails
	// at startup rather than at dispatch.
	WGSL string
}

// OutputSlot returns the physical slot the kernel writes: the slot after
// its primary inputs.
func (k *Kernel) OutputSlot() int {
	return len(k.Inputs)
}

// DispatchContext carries everything one kernel dispatch may touch.
// Bindings are physical: the executor has already mapped the node's named
// inputs to slots by the binding convention.
type DispatchContext struct {
	// Bindings holds the textures bound to physical slots. The kernel's
	// output texture sits at OutputSlot; primary inputs at 0..OutputSlot-1;
	// extra inputs (masks, references) from OutputSlot+1 upward.
	Bindings []*fxgraph.Texture

	// OutputSlot is the index of the output binding.
	OutputSlot int

	// Params carries the node's resolved parameter values.
	Params map[string]fxgraph.Value

	// Time is the evaluation time in seconds, after any upstream remap.
	Time float64

	// Quality is the requested fidelity level.
	Quality fxgraph.Quality

	// Device is the GPU device handle for shader-backed kernels. CPU
	// kernels ignore it; it may be a null handle.
	Device fxgraph.DeviceHandle
}

// Input returns the texture bound at the given physical slot, or nil.
func (c *DispatchContext) Input(slot int) *fxgraph.Texture {
	if slot < 0 || slot >= len(c.Bindings) || slot == c.OutputSlot {
		return nil
	}
	return c.Bindings[slot]
}

// Output returns the texture bound at the output slot.
func (c *DispatchContext) Output() *fxgraph.Texture {
	if c.OutputSlot < 0 || c.OutputSlot >= len(c.Bindings) {
		return nil
	}
	return c.Bindings[c.OutputSlot]
}

// Extra returns the i-th extra input (mask, reference) bound after the
// output slot, or nil when absent. Extras are ordered by the binding
// convention: reserved names first, then lexicographic.
func (c *DispatchContext) Extra(i int) *fxgraph.Texture {
	slot := c.OutputSlot + 1 + i
	if i < 0 || slot >= len(c.Bindings) {
		return nil
	}
	return c.Bindings[slot]
}

// Param returns the parameter with the given name and whether it was set.
func (c *DispatchContext) Param(name string) (fxgraph.Value, bool) {
	v, ok := c.Params[name]
	return v, ok
}

// Registry is the lookup table from logical kernel names to entry points.
//
// Registration happens once at startup (RegisterBuiltins plus any
// host-specific kernels); afterwards reads may occur concurrently from
// multiple rendering goroutines.
type Registry struct {
	mu      sync.RWMutex
	kernels map[string]*Kernel
}

// NewRegistry creates an empty kernel registry.
func NewRegistry() *Registry {
	return &Registry{kernels: make(map[string]*Kernel)}
}

// Register adds a kernel to the registry. Registering a name twice or a
// kernel without an entry point fails loudly; kernels with WGSL source are
// compile-checked before acceptance.
func (r *Registry) Register(k Kernel) error {
	if k.Name == "" {
		return errors.New("kernel: empty kernel name")
	}
	if k.Func == nil {
		return fmt.Errorf("kernel: %q has no entry point", k.Name)
	}
	if k.WGSL != "" {
		if err := ValidateWGSL(k.Name, k.WGSL); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kernels[k.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, k.Name)
	}
	kc := k
	r.kernels[k.Name] = &kc
	return nil
}

// Resolve returns the kernel registered under the given name.
func (r *Registry) Resolve(name string) (*Kernel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kernels[name]
	return k, ok
}

// ResolveOrErr returns the kernel registered under the given name, or an
// ErrUnresolved error naming it.
func (r *Registry) ResolveOrErr(name string) (*Kernel, error) {
	k, ok := r.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolved, name)
	}
	return k, nil
}

// Has reports whether a kernel name is registered. The feature loader uses
// this for kernel-existence validation.
func (r *Registry) Has(name string) bool {
	_, ok := r.Resolve(name)
	return ok
}

// Names returns all registered kernel names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.kernels))
	for name := range r.kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
