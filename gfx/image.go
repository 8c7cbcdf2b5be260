// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gfx

import (
	"image"

	"golang.org/x/image/draw"
	"honnef.co/go/fresco/fmath"
)

// RGBA converts img to tightly packed RGBA bytes suitable for a polychrome
// atlas tile.
func RGBA(img image.Image) (fmath.Size[fmath.DevicePixels], []byte) {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		rgba = dst
	}
	size := fmath.Sz(fmath.DevicePixels(b.Dx()), fmath.DevicePixels(b.Dy()))
	return size, rgba.Pix
}

// RGBAScaled is RGBA with the image resampled to size first, for rendering
// image tiles at the display's scale factor.
func RGBAScaled(img image.Image, size fmath.Size[fmath.DevicePixels]) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, int(size.Width), int(size.Height)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst.Pix
}
