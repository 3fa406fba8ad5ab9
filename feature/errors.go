// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package feature

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Wrapped errors carry the specifics; callers branch with
// errors.Is.
var (
	// ErrValidation indicates a bundle failed load-time validation. The
	// registry keeps its previous contents.
	ErrValidation = errors.New("feature: bundle validation failed")

	// ErrCycle indicates a manifest's pass graph is not acyclic.
	ErrCycle = errors.New("feature: pass cycle detected")

	// ErrUnknownFeature indicates a compile request named a feature the
	// registry does not hold.
	ErrUnknownFeature = errors.New("feature: unknown feature")

	// ErrUnboundInput indicates compilation could not bind a required
	// feature input.
	ErrUnboundInput = errors.New("feature: unbound input")

	// ErrBadParameter indicates a parameter override failed its
	// declaration's type or range check.
	ErrBadParameter = errors.New("feature: bad parameter")
)

// ValidationError aggregates every issue found while loading a bundle.
// Validation is all-or-nothing: any issue rejects the whole bundle, and all
// issues are reported at once so authors fix them in one round.
type ValidationError struct {
	Issues []error
}

// Error lists every issue, one per line.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "feature: bundle validation failed (%d issues)", len(e.Issues))
	for _, issue := range e.Issues {
		b.WriteString("\n\t")
		b.WriteString(issue.Error())
	}
	return b.String()
}

// Unwrap ties the aggregate to ErrValidation for errors.Is.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// CompileError reports why a manifest could not be compiled into a graph
// fragment.
type CompileError struct {
	// FeatureID names the manifest being compiled.
	FeatureID string

	// Detail is the specific failure, wrapping one of the sentinel errors.
	Detail error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("feature: compiling %q: %v", e.FeatureID, e.Detail)
}

// Unwrap returns the wrapped detail error.
func (e *CompileError) Unwrap() error { return e.Detail }
