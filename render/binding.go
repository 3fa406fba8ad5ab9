// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sort"

	"github.com/gogpu/fxgraph/graph"
	"github.com/gogpu/fxgraph/kernel"
)

// Reserved extra-binding names, bound ahead of all others in this order.
// The list is part of the dispatch ABI: kernels address extras by position,
// so the mapping from names to slots must never depend on map iteration.
var reservedExtras = []string{"mask", "faceMask"}

// BindingPlan maps a node's named inputs onto the physical slot layout a
// kernel dispatch expects.
//
// The layout is fixed by convention: the kernel's primary inputs occupy
// slots 0..N-1 in declared order, the output occupies slot N, and extra
// inputs follow from slot N+1 — reserved names first, the rest in
// lexicographic order. Identical node shapes therefore always produce
// identical plans, which keeps compiled pipelines reusable across frames.
type BindingPlan struct {
	// Producers holds, per slot, the producer node id feeding that slot.
	// The output slot's entry is empty.
	Producers []graph.NodeID

	// Names holds the logical binding name per slot ("input", "mask", ...).
	// The output slot's entry is "output".
	Names []string

	// OutputSlot is the slot index the kernel writes.
	OutputSlot int
}

// PlanBindings computes the slot layout for one node dispatching the given
// kernel. A kernel input with no matching node input fails with
// ErrUnboundInput; a single-"input" kernel accepts the "source" spelling as
// an alias.
func PlanBindings(n *graph.Node, k *kernel.Kernel) (*BindingPlan, error) {
	outputSlot := k.OutputSlot()
	plan := &BindingPlan{
		Producers:  make([]graph.NodeID, outputSlot+1),
		Names:      make([]string, outputSlot+1),
		OutputSlot: outputSlot,
	}

	used := make(map[string]bool, len(k.Inputs)+1)
	for slot, name := range k.Inputs {
		id, ok := n.Inputs[name]
		if !ok && name == graph.InputPrimary {
			id, ok = n.Inputs[graph.InputSource]
			if ok {
				used[graph.InputSource] = true
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: kernel %q input %q", ErrUnboundInput, k.Name, name)
		}
		used[name] = true
		plan.Producers[slot] = id
		plan.Names[slot] = name
	}
	plan.Names[outputSlot] = "output"

	// Extras: reserved names first, then the rest lexicographically.
	var rest []string
	for name := range n.Inputs {
		if used[name] || isReserved(name) {
			continue
		}
		rest = append(rest, name)
	}
	sort.Strings(rest)

	for _, name := range reservedExtras {
		if id, ok := n.Inputs[name]; ok && !used[name] {
			plan.Producers = append(plan.Producers, id)
			plan.Names = append(plan.Names, name)
		}
	}
	for _, name := range rest {
		plan.Producers = append(plan.Producers, n.Inputs[name])
		plan.Names = append(plan.Names, name)
	}
	return plan, nil
}

func isReserved(name string) bool {
	for _, r := range reservedExtras {
		if name == r {
			return true
		}
	}
	return false
}
