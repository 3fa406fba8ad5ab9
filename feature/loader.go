// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package feature

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/fxgraph"
	"github.com/gogpu/fxgraph/kernel"
)

// schemaVersionCurrent is the newest manifest format revision the loader
// understands. Manifests omitting schemaVersion are treated as revision 1.
const schemaVersionCurrent = 1

// Loader decodes and validates feature bundles and installs them into a
// registry. Validation is all-or-nothing: a bundle with any invalid
// manifest leaves the registry untouched.
type Loader struct {
	features *Registry
	kernels  *kernel.Registry
}

// NewLoader creates a loader that validates kernel references against the
// given kernel registry and installs accepted bundles into features.
func NewLoader(features *Registry, kernels *kernel.Registry) *Loader {
	return &Loader{features: features, kernels: kernels}
}

// LoadBundle walks the filesystem for .yaml/.yml manifests, validates the
// whole set, and atomically replaces the registry's contents on success.
//
// Every validation issue across the bundle is collected into a single
// *ValidationError; duplicate feature IDs report both declaring files.
func (l *Loader) LoadBundle(fsys fs.FS) error {
	manifests, issues := l.decodeBundle(fsys)

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}

	byID := make(map[string]*Manifest, len(manifests))
	for _, m := range manifests {
		byID[m.ID] = m
	}
	l.features.replaceAll(byID)

	fxgraph.Logger().Info("feature bundle loaded",
		"features", len(byID),
		"revision", l.features.Revision())
	return nil
}

// decodeBundle decodes and validates every manifest in the filesystem,
// returning the decoded set and all issues found.
func (l *Loader) decodeBundle(fsys fs.FS) ([]*Manifest, []error) {
	var paths []string
	walkErr := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch path.Ext(p) {
		case ".yaml", ".yml":
			paths = append(paths, p)
		}
		return nil
	})
	if walkErr != nil {
		return nil, []error{fmt.Errorf("walking bundle: %w", walkErr)}
	}
	sort.Strings(paths)

	var (
		manifests []*Manifest
		issues    []error
		sources   = make(map[string]string) // feature ID -> first declaring file
	)
	for _, p := range paths {
		m, errs := l.decodeManifest(fsys, p)
		if len(errs) > 0 {
			issues = append(issues, errs...)
			continue
		}
		if prev, dup := sources[m.ID]; dup {
			issues = append(issues, fmt.Errorf("duplicate feature id %q: declared in %s and %s", m.ID, prev, p))
			continue
		}
		sources[m.ID] = p
		manifests = append(manifests, m)
	}
	return manifests, issues
}

// decodeManifest decodes and fully validates one manifest file.
func (l *Loader) decodeManifest(fsys fs.FS, p string) (*Manifest, []error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, []error{fmt.Errorf("%s: %w", p, err)}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, []error{fmt.Errorf("%s: %w", p, err)}
	}
	m.source = p

	if m.SchemaVersion == 0 {
		m.SchemaVersion = 1
	}
	if m.SchemaVersion > schemaVersionCurrent {
		return nil, []error{fmt.Errorf("%s: schemaVersion %d is newer than supported %d",
			p, m.SchemaVersion, schemaVersionCurrent)}
	}

	errs := m.checkStructure()

	// Audio features are stored for cataloguing but never compiled, so
	// their kernels are outside this registry's vocabulary.
	if m.Domain != DomainAudio {
		errs = append(errs, l.checkKernels(&m)...)
		if _, err := Schedule(m.EffectivePasses()); err != nil {
			errs = append(errs, fmt.Errorf("manifest %q: %w", m.ID, err))
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &m, nil
}

// checkKernels verifies every kernel the manifest references is registered.
func (l *Loader) checkKernels(m *Manifest) []error {
	var errs []error
	check := func(name string) {
		if name == TimeRemapKernel {
			return
		}
		if !l.kernels.Has(name) {
			errs = append(errs, fmt.Errorf("manifest %q: unresolved kernel %q", m.ID, name))
		}
	}
	if m.Kernel != "" {
		check(m.Kernel)
	}
	for _, pass := range m.Passes {
		if pass.Kernel != "" {
			check(pass.Kernel)
		}
	}
	return errs
}

// IsManifestPath reports whether a file path looks like a bundle manifest.
// The reloader uses it to ignore editor droppings in watched directories.
func IsManifestPath(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".yaml" || ext == ".yml"
}
