// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga"
)

// ValidateWGSL compile-checks a kernel's WGSL source with naga and verifies
// the source declares a compute entry point matching the kernel name.
// Name is only used for error reporting and entry-point matching.
func ValidateWGSL(name, source string) error {
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("kernel: %q: shader does not compile: %w", name, err)
	}
	entries := EntryPoints(source)
	for _, e := range entries {
		if e == name {
			return nil
		}
	}
	return fmt.Errorf("kernel: %q: no matching @compute entry point (found %v)", name, entries)
}

// EntryPoints scans WGSL source for @compute entry point names.
//
// This is a lexical scan, not a parse: it runs after naga has already
// validated the source, so it only needs to pick out the function names
// following each @compute attribute.
func EntryPoints(source string) []string {
	var entries []string
	rest := source
	for {
		i := strings.Index(rest, "@compute")
		if i < 0 {
			break
		}
		rest = rest[i+len("@compute"):]

		j := strings.Index(rest, "fn ")
		if j < 0 {
			break
		}
		tail := rest[j+len("fn "):]
		end := strings.IndexAny(tail, "( \t\n")
		if end <= 0 {
			continue
		}
		entries = append(entries, strings.TrimSpace(tail[:end]))
	}
	return entries
}
