// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package fxgraph provides the shared types for the fxgraph rendering core:
// a compiler and executor for per-frame render graphs built from
// declaratively described visual effects ("features").
//
// The root package is a leaf. It holds the types every other package agrees
// on and nothing else:
//
//   - [Value]: the tagged union carried by node parameters.
//   - [ResolutionTier]: a node's declared output size class.
//   - [EdgePolicy]: what the executor does about size-mismatched edges.
//   - [Texture], [Descriptor], [Pool]: transient GPU image resources and
//     their reuse cache.
//   - [DeviceHandle]: the seam through which a host application shares its
//     GPU device, in the gpucontext style.
//
// The machinery lives in the subpackages:
//
//   - feature: manifests, validation, the pass scheduler and the
//     multi-pass compiler.
//   - graph: the per-frame render graph data model.
//   - kernel: the kernel registry and the builtin CPU kernel set.
//   - render: the graph executor and the Engine facade.
//
// # Quick Start
//
//	kernels := kernel.NewRegistry()
//	kernel.RegisterBuiltins(kernels)
//
//	features := feature.NewRegistry()
//	loader := feature.NewLoader(features, kernels)
//	if err := loader.LoadBundle(os.DirFS("effects")); err != nil {
//	    log.Fatal(err)
//	}
//
//	engine := render.NewEngine(kernels, render.WithFeatures(features))
//	img, stats, err := engine.Render(ctx, g, render.Context{Time: t, Width: 1920, Height: 1080})
//
// # Logging
//
// fxgraph produces no log output by default. Call [SetLogger] to enable it:
//
//	fxgraph.SetLogger(slog.Default())
package fxgraph

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
