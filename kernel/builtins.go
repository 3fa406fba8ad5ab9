// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/chewxy/math32"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/fxgraph"
)

// Builtin kernel names.
const (
	// Blit copies its input to its output without resampling.
	Blit = "blit"

	// ResizeBilinear resamples its input to the output size. The executor
	// synthesizes nodes with this kernel on size-mismatched edges under
	// the AutoResizeBilinear policy.
	ResizeBilinear = "resize_bilinear"

	// Solid is a generator producing a constant color ("color" parameter).
	Solid = "solid"

	// CompositeOver is a binary compositor: "over" source-over "base".
	// Accepts an "opacity" parameter and an optional "mask" extra input
	// modulating the over layer.
	CompositeOver = "composite_over"

	// BlurH is the horizontal pass of a separable Gaussian blur
	// ("radius" parameter, pixels).
	BlurH = "blur_h"

	// BlurV is the vertical pass of a separable Gaussian blur.
	BlurV = "blur_v"

	// ColorAdjust applies brightness/contrast/saturation adjustments.
	ColorAdjust = "color_adjust"
)

var errMissingBinding = errors.New("kernel: missing binding")

// RegisterBuiltins registers the CPU reference kernel set. Hosts with a GPU
// backend register shader-backed kernels under the same names instead.
func RegisterBuiltins(r *Registry) error {
	builtins := []Kernel{
		{Name: Blit, Inputs: []string{"input"}, Func: blitKernel},
		{Name: ResizeBilinear, Inputs: []string{"input"}, Func: resizeKernel},
		{Name: Solid, Inputs: nil, Func: solidKernel},
		{Name: CompositeOver, Inputs: []string{"base", "over"}, Func: compositeOverKernel},
		{Name: BlurH, Inputs: []string{"input"}, Func: blurKernel(true)},
		{Name: BlurV, Inputs: []string{"input"}, Func: blurKernel(false)},
		{Name: ColorAdjust, Inputs: []string{"input"}, Func: colorAdjustKernel},
	}
	for _, k := range builtins {
		if err := r.Register(k); err != nil {
			return err
		}
	}
	return nil
}

func blitKernel(ctx *DispatchContext) error {
	src, dst := ctx.Input(0), ctx.Output()
	if src == nil || dst == nil {
		return errMissingBinding
	}
	draw.Draw(dst.Image(), dst.Image().Bounds(), src.Image(), image.Point{}, draw.Src)
	return nil
}

func resizeKernel(ctx *DispatchContext) error {
	src, dst := ctx.Input(0), ctx.Output()
	if src == nil || dst == nil {
		return errMissingBinding
	}
	scaler := xdraw.Scaler(xdraw.BiLinear)
	if ctx.Quality == fxgraph.QualityDraft {
		scaler = xdraw.ApproxBiLinear
	}
	scaler.Scale(dst.Image(), dst.Image().Bounds(), src.Image(), src.Image().Bounds(), xdraw.Src, nil)
	return nil
}

func solidKernel(ctx *DispatchContext) error {
	dst := ctx.Output()
	if dst == nil {
		return errMissingBinding
	}
	c := color.RGBA{A: 255}
	if v, ok := ctx.Param("color"); ok {
		c = v.ColorOr(c)
	}
	dst.Clear(c)
	return nil
}

func compositeOverKernel(ctx *DispatchContext) error {
	base, over, dst := ctx.Input(0), ctx.Input(1), ctx.Output()
	if base == nil || over == nil || dst == nil {
		return errMissingBinding
	}

	draw.Draw(dst.Image(), dst.Image().Bounds(), base.Image(), image.Point{}, draw.Src)

	opacity := 1.0
	if v, ok := ctx.Param("opacity"); ok {
		opacity = v.FloatOr(1)
	}
	if opacity <= 0 {
		return nil
	}
	if opacity > 1 {
		opacity = 1
	}

	var maskImg image.Image
	if mask := ctx.Extra(0); mask != nil {
		maskImg = maskAlpha{mask.Image()}
	}
	if opacity < 1 {
		u := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
		if maskImg == nil {
			maskImg = u
		} else {
			maskImg = scaledMask{maskImg, uint16(opacity*255 + 0.5)}
		}
	}

	draw.DrawMask(dst.Image(), dst.Image().Bounds(), over.Image(), image.Point{}, maskImg, image.Point{}, draw.Over)
	return nil
}

// maskAlpha presents a mask texture's red channel as an alpha mask.
// Mask kernels write single-channel coverage into R; consumers sample in
// normalized coordinates, so size mismatch is tolerated by clamping.
type maskAlpha struct {
	img *image.RGBA
}

func (m maskAlpha) ColorModel() color.Model { return color.AlphaModel }
func (m maskAlpha) Bounds() image.Rectangle { return m.img.Bounds() }
func (m maskAlpha) At(x, y int) color.Color {
	b := m.img.Bounds()
	if x < b.Min.X {
		x = b.Min.X
	} else if x >= b.Max.X {
		x = b.Max.X - 1
	}
	if y < b.Min.Y {
		y = b.Min.Y
	} else if y >= b.Max.Y {
		y = b.Max.Y - 1
	}
	return color.Alpha{A: m.img.RGBAAt(x, y).R}
}

// scaledMask multiplies a mask by a constant opacity (0..255).
type scaledMask struct {
	mask  image.Image
	scale uint16
}

func (s scaledMask) ColorModel() color.Model { return color.AlphaModel }
func (s scaledMask) Bounds() image.Rectangle { return s.mask.Bounds() }
func (s scaledMask) At(x, y int) color.Color {
	_, _, _, a := s.mask.At(x, y).RGBA()
	return color.Alpha{A: uint8((a >> 8) * uint32(s.scale) / 255)}
}

// blurKernel returns a one-dimensional Gaussian blur pass. The separable
// split keeps the cost O(w*h*r) instead of O(w*h*r²); manifests chain the
// horizontal and vertical passes.
func blurKernel(horizontal bool) Func {
	return func(ctx *DispatchContext) error {
		src, dst := ctx.Input(0), ctx.Output()
		if src == nil || dst == nil {
			return errMissingBinding
		}

		radius := 0.0
		if v, ok := ctx.Param("radius"); ok {
			radius = v.FloatOr(0)
		}
		if ctx.Quality == fxgraph.QualityDraft && radius > 2 {
			radius /= 2
		}
		r := int(radius + 0.5)
		if r <= 0 {
			return blitKernel(ctx)
		}

		weights := gaussianWeights(r)
		srcImg, dstImg := src.Image(), dst.Image()
		w, h := dstImg.Bounds().Dx(), dstImg.Bounds().Dy()
		sw, sh := srcImg.Bounds().Dx(), srcImg.Bounds().Dy()

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var accR, accG, accB, accA, norm float32
				for i := -r; i <= r; i++ {
					sx, sy := x, y
					if horizontal {
						sx += i
					} else {
						sy += i
					}
					if sx < 0 || sx >= sw || sy < 0 || sy >= sh {
						continue
					}
					wgt := weights[i+r]
					p := srcImg.RGBAAt(sx, sy)
					accR += wgt * float32(p.R)
					accG += wgt * float32(p.G)
					accB += wgt * float32(p.B)
					accA += wgt * float32(p.A)
					norm += wgt
				}
				if norm > 0 {
					inv := 1 / norm
					dstImg.SetRGBA(x, y, color.RGBA{
						R: uint8(accR*inv + 0.5),
						G: uint8(accG*inv + 0.5),
						B: uint8(accB*inv + 0.5),
						A: uint8(accA*inv + 0.5),
					})
				}
			}
		}
		return nil
	}
}

// gaussianWeights builds a normalized 1D Gaussian kernel of 2r+1 taps with
// sigma = r/2, the usual visual-blur parameterization.
func gaussianWeights(r int) []float32 {
	sigma := float32(r) / 2
	if sigma < 0.5 {
		sigma = 0.5
	}
	inv2s2 := 1 / (2 * sigma * sigma)

	weights := make([]float32, 2*r+1)
	var sum float32
	for i := -r; i <= r; i++ {
		w := math32.Exp(-float32(i*i) * inv2s2)
		weights[i+r] = w
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

func colorAdjustKernel(ctx *DispatchContext) error {
	src, dst := ctx.Input(0), ctx.Output()
	if src == nil || dst == nil {
		return errMissingBinding
	}

	brightness := float32(0)
	contrast := float32(1)
	saturation := float32(1)
	if v, ok := ctx.Param("brightness"); ok {
		brightness = float32(v.FloatOr(0)) * 255
	}
	if v, ok := ctx.Param("contrast"); ok {
		contrast = float32(v.FloatOr(1))
	}
	if v, ok := ctx.Param("saturation"); ok {
		saturation = float32(v.FloatOr(1))
	}

	srcImg, dstImg := src.Image(), dst.Image()
	w, h := dstImg.Bounds().Dx(), dstImg.Bounds().Dy()
	sw, sh := srcImg.Bounds().Dx(), srcImg.Bounds().Dy()

	for y := 0; y < h && y < sh; y++ {
		for x := 0; x < w && x < sw; x++ {
			p := srcImg.RGBAAt(x, y)
			r := (float32(p.R)-128)*contrast + 128 + brightness
			g := (float32(p.G)-128)*contrast + 128 + brightness
			b := (float32(p.B)-128)*contrast + 128 + brightness

			// Rec. 601 luma for the desaturation pivot.
			luma := 0.299*r + 0.587*g + 0.114*b
			r = luma + (r-luma)*saturation
			g = luma + (g-luma)*saturation
			b = luma + (b-luma)*saturation

			dstImg.SetRGBA(x, y, color.RGBA{
				R: clamp8(r),
				G: clamp8(g),
				B: clamp8(b),
				A: p.A,
			})
		}
	}
	return nil
}

func clamp8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
