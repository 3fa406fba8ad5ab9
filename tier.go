// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fxgraph

import "fmt"

// TierKind identifies the size class of a ResolutionTier.
type TierKind uint8

// Resolution tier kinds, relative to the frame's target resolution.
const (
	// TierFull renders at the frame's target resolution.
	TierFull TierKind = iota

	// TierHalf renders at half the target resolution in each dimension.
	TierHalf

	// TierQuarter renders at a quarter of the target resolution in each
	// dimension.
	TierQuarter

	// TierFixed renders at an absolute size independent of the target.
	TierFixed
)

// String returns a human-readable name for the tier kind.
func (k TierKind) String() string {
	switch k {
	case TierFull:
		return "Full"
	case TierHalf:
		return "Half"
	case TierQuarter:
		return "Quarter"
	case TierFixed:
		return "Fixed"
	default:
		return "Unknown"
	}
}

// ResolutionTier is a node's declared output size class.
//
// Most nodes inherit the frame's target resolution (TierFull). Cheap
// intermediate passes (e.g. blur pyramids) declare TierHalf or TierQuarter;
// lookup-table style resources declare TierFixed with an absolute size.
type ResolutionTier struct {
	Kind TierKind

	// Width and Height are only meaningful for TierFixed.
	Width, Height int
}

// FullTier returns the full-resolution tier.
func FullTier() ResolutionTier { return ResolutionTier{Kind: TierFull} }

// HalfTier returns the half-resolution tier.
func HalfTier() ResolutionTier { return ResolutionTier{Kind: TierHalf} }

// QuarterTier returns the quarter-resolution tier.
func QuarterTier() ResolutionTier { return ResolutionTier{Kind: TierQuarter} }

// FixedTier returns a fixed-size tier with the given absolute dimensions.
func FixedTier(width, height int) ResolutionTier {
	return ResolutionTier{Kind: TierFixed, Width: width, Height: height}
}

// Resolve returns the concrete pixel size for this tier given the frame's
// target resolution. Sizes never resolve below 1x1.
func (t ResolutionTier) Resolve(targetWidth, targetHeight int) (w, h int) {
	switch t.Kind {
	case TierHalf:
		w, h = targetWidth/2, targetHeight/2
	case TierQuarter:
		w, h = targetWidth/4, targetHeight/4
	case TierFixed:
		w, h = t.Width, t.Height
	default:
		w, h = targetWidth, targetHeight
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// String returns a human-readable description of the tier.
func (t ResolutionTier) String() string {
	if t.Kind == TierFixed {
		return fmt.Sprintf("Fixed(%dx%d)", t.Width, t.Height)
	}
	return t.Kind.String()
}

// EdgePolicy governs what the executor does when a producer's output size
// does not match what the consumer expects on an edge.
//
// EdgePolicy is a per-render configuration value, not persisted state.
type EdgePolicy uint8

const (
	// AutoResizeBilinear transparently inserts a bilinear resize adapter
	// node on any size-mismatched edge.
	AutoResizeBilinear EdgePolicy = iota

	// RequireExplicitAdapters proceeds without resizing and records a
	// warning. Consumers that sample in normalized coordinates (masks)
	// tolerate the mismatch.
	RequireExplicitAdapters
)

// String returns a human-readable name for the edge policy.
func (p EdgePolicy) String() string {
	switch p {
	case AutoResizeBilinear:
		return "AutoResizeBilinear"
	case RequireExplicitAdapters:
		return "RequireExplicitAdapters"
	default:
		return "Unknown"
	}
}

// Quality selects the executor's speed/fidelity trade-off. It is threaded
// through the evaluation context and forwarded to kernels; kernels may
// reduce sample counts at draft quality.
type Quality uint8

const (
	// QualityFull is full-fidelity rendering (export, final playback).
	QualityFull Quality = iota

	// QualityDraft is reduced-fidelity rendering (scrubbing, previews).
	QualityDraft
)

// String returns a human-readable name for the quality level.
func (q Quality) String() string {
	switch q {
	case QualityFull:
		return "Full"
	case QualityDraft:
		return "Draft"
	default:
		return "Unknown"
	}
}
