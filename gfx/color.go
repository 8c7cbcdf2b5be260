// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gfx

import (
	"honnef.co/go/color"
)

// Hsla is the color representation primitives carry to the GPU. All four
// components are in [0, 1]; the shaders convert to RGB per fragment.
type Hsla struct {
	H float32
	S float32
	L float32
	A float32
}

func HSLA(h, s, l, a float32) Hsla { return Hsla{h, s, l, a} }

var (
	Transparent = Hsla{}
	Black       = Hsla{0, 0, 0, 1}
	White       = Hsla{0, 0, 1, 1}
)

func (c Hsla) IsTransparent() bool { return c.A == 0 }

// SRGBA converts to non-premultiplied sRGB components. This mirrors the
// conversion the fragment shaders perform.
func (c Hsla) SRGBA() [4]float32 {
	if c.S == 0 {
		return [4]float32{c.L, c.L, c.L, c.A}
	}
	var q float32
	if c.L < 0.5 {
		q = c.L * (1 + c.S)
	} else {
		q = c.L + c.S - c.L*c.S
	}
	p := 2*c.L - q
	return [4]float32{
		hueToRGB(p, q, c.H+1.0/3.0),
		hueToRGB(p, q, c.H),
		hueToRGB(p, q, c.H-1.0/3.0),
		c.A,
	}
}

func hueToRGB(p, q, t float32) float32 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}

// Premul32 converts a color to premultiplied linear components, the form
// render passes clear to.
func Premul32(c *color.Color) [4]float32 {
	cc := c.Convert(color.LinearSRGB)
	r := cc.Values[0]
	g := cc.Values[1]
	b := cc.Values[2]
	a := cc.Values[3]

	return [4]float32{
		float32(r * a),
		float32(g * a),
		float32(b * a),
		float32(a),
	}
}

// BackgroundTag selects how a Background fills its area.
type BackgroundTag uint32

const (
	BackgroundSolid BackgroundTag = iota
	BackgroundLinearGradient
)

// ColorSpace selects the space gradient stops are interpolated in.
type ColorSpace uint32

const (
	ColorSpaceSRGB ColorSpace = iota
	ColorSpaceOklab
)

type ColorStop struct {
	Color      Hsla
	Percentage float32
}

// Background is a solid color or a two-stop linear gradient. The zero value
// is fully transparent.
type Background struct {
	Tag        BackgroundTag
	ColorSpace ColorSpace
	Solid      Hsla
	// Angle of the gradient line in radians, clockwise from pointing up.
	Angle float32
	Stops [2]ColorStop
}

func Solid(c Hsla) Background {
	return Background{Tag: BackgroundSolid, Solid: c}
}

func LinearGradient(angle float32, from, to ColorStop, space ColorSpace) Background {
	return Background{
		Tag:        BackgroundLinearGradient,
		ColorSpace: space,
		Angle:      angle,
		Stops:      [2]ColorStop{from, to},
	}
}
