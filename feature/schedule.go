// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package feature

import "fmt"

// Schedule orders a manifest's passes so every pass runs strictly after the
// passes whose outputs it consumes. Inputs naming declared ports or external
// context contribute no edges. The order is deterministic: among ready
// passes, declaration order wins.
func Schedule(passes []FeaturePass) ([]FeaturePass, error) {
	producer := make(map[string]int, len(passes))
	for i, p := range passes {
		producer[p.Output] = i
	}

	// In-degrees count distinct producing passes, so a pass consuming two
	// outputs of the same upstream pass is not double-counted.
	indegree := make([]int, len(passes))
	dependents := make([][]int, len(passes))
	for i, p := range passes {
		seen := make(map[int]bool)
		for _, in := range p.Inputs {
			src, ok := producer[in]
			if !ok || seen[src] {
				continue
			}
			if src == i {
				// Self-consumption can never be scheduled.
				indegree[i]++
				continue
			}
			seen[src] = true
			indegree[i]++
			dependents[src] = append(dependents[src], i)
		}
	}

	ordered := make([]FeaturePass, 0, len(passes))
	done := make([]bool, len(passes))
	for len(ordered) < len(passes) {
		next := -1
		for i := range passes {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i := range passes {
				if !done[i] {
					stuck = append(stuck, passes[i].Name)
				}
			}
			return nil, fmt.Errorf("%w: passes %v", ErrCycle, stuck)
		}
		done[next] = true
		ordered = append(ordered, passes[next])
		for _, d := range dependents[next] {
			indegree[d]--
		}
	}
	return ordered, nil
}
