// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fxgraph

import (
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
)

// TextureUsage specifies how a texture can be used.
// These flags can be combined with bitwise OR.
type TextureUsage uint32

const (
	// TextureUsageCopySrc allows the texture to be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << iota

	// TextureUsageCopyDst allows the texture to be used as a copy destination.
	TextureUsageCopyDst

	// TextureUsageTextureBinding allows the texture to be sampled by kernels.
	TextureUsageTextureBinding

	// TextureUsageStorageBinding allows the texture to be written by kernels.
	TextureUsageStorageBinding

	// TextureUsageRenderAttachment allows the texture to be a render target.
	TextureUsageRenderAttachment
)

// UsageIntermediate is the usage carried by pooled intermediate images:
// written by one node's kernel, sampled by its consumers.
const UsageIntermediate = TextureUsageTextureBinding | TextureUsageStorageBinding

// Descriptor identifies a texture allocation. Two textures with equal
// descriptors are interchangeable, which is what makes pooled reuse sound.
type Descriptor struct {
	// Width is the texture width in pixels.
	Width int

	// Height is the texture height in pixels.
	Height int

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage TextureUsage
}

// TextureView represents a view into a GPU texture.
// Views are used to bind textures to shader stages.
type TextureView interface {
	// Destroy releases resources associated with this view.
	Destroy()
}

// Texture is a transient image resource produced and consumed by render
// nodes.
//
// Textures are CPU-backed (*image.RGBA) so the builtin kernel set and tests
// run without a GPU; when a DeviceHandle is present a backend may attach a
// GPU view. Textures are owned by the [Pool] that allocated them — node
// evaluation borrows a texture for the window between producing its content
// and the last consumer reading it, then returns it.
type Texture struct {
	desc Descriptor
	img  *image.RGBA
	view TextureView
}

// NewTexture allocates a texture matching the descriptor.
// Prefer [Pool.Acquire] on hot paths; direct allocation is for tests and
// externally-owned resources (e.g. temporal accumulation history).
func NewTexture(desc Descriptor) *Texture {
	return &Texture{
		desc: desc,
		img:  image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height)),
	}
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.desc.Width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.desc.Height }

// Format returns the texture pixel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }

// Usage returns the texture usage flags.
func (t *Texture) Usage() TextureUsage { return t.desc.Usage }

// Descriptor returns the descriptor this texture was allocated with.
func (t *Texture) Descriptor() Descriptor { return t.desc }

// Pixels returns direct access to the pixel data.
// Each pixel is 4 bytes: R, G, B, A.
func (t *Texture) Pixels() []byte { return t.img.Pix }

// Stride returns the number of bytes per row.
func (t *Texture) Stride() int { return t.img.Stride }

// Image returns the underlying *image.RGBA.
// The returned image shares memory with the texture.
func (t *Texture) Image() *image.RGBA { return t.img }

// View returns the GPU texture view, or nil for CPU-only textures.
func (t *Texture) View() TextureView { return t.view }

// SetView attaches a GPU view to the texture. The texture takes ownership
// and destroys the view when it is itself destroyed.
func (t *Texture) SetView(v TextureView) { t.view = v }

// Clear fills the texture with the given color.
func (t *Texture) Clear(c color.RGBA) {
	pix := t.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
}

// Destroy releases the texture's GPU view, if any. The CPU backing is
// garbage collected.
func (t *Texture) Destroy() {
	if t.view != nil {
		t.view.Destroy()
		t.view = nil
	}
}
