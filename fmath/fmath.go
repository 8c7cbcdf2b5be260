// Package fmath provides the pixel units and small geometry types shared by
// the atlas and the renderer.
package fmath

import (
	"math"

	"golang.org/x/exp/constraints"
)

// DevicePixels count physical pixels, e.g. texture texels or framebuffer
// coordinates.
type DevicePixels int32

// ScaledPixels are logical pixels with the display scale factor already
// applied. Primitive geometry reaches the renderer in this unit.
type ScaledPixels float32

// Unit is the scalar type of a geometric value.
type Unit interface {
	~int32 | ~float32
}

func (p DevicePixels) F32() float32 { return float32(p) }

func (p ScaledPixels) Floor() DevicePixels {
	return DevicePixels(math.Floor(float64(p)))
}

func (p ScaledPixels) Ceil() DevicePixels {
	return DevicePixels(math.Ceil(float64(p)))
}

func (p ScaledPixels) Round() DevicePixels {
	return DevicePixels(math.Round(float64(p)))
}

type Point[T Unit] struct {
	X T
	Y T
}

func Pt[T Unit](x, y T) Point[T] { return Point[T]{x, y} }

func (p Point[T]) Add(other Point[T]) Point[T] {
	return Point[T]{p.X + other.X, p.Y + other.Y}
}

type Size[T Unit] struct {
	Width  T
	Height T
}

func Sz[T Unit](w, h T) Size[T] { return Size[T]{w, h} }

func (s Size[T]) IsEmpty() bool { return s.Width <= 0 || s.Height <= 0 }

// Area returns Width*Height. Callers guarantee the product fits in T.
func (s Size[T]) Area() T { return s.Width * s.Height }

type Bounds[T Unit] struct {
	Origin Point[T]
	Size   Size[T]
}

func Rect[T Unit](x, y, w, h T) Bounds[T] {
	return Bounds[T]{Point[T]{x, y}, Size[T]{w, h}}
}

func (b Bounds[T]) IsEmpty() bool { return b.Size.IsEmpty() }

func (b Bounds[T]) Right() T  { return b.Origin.X + b.Size.Width }
func (b Bounds[T]) Bottom() T { return b.Origin.Y + b.Size.Height }

func (b Bounds[T]) Intersects(other Bounds[T]) bool {
	return b.Origin.X < other.Right() &&
		other.Origin.X < b.Right() &&
		b.Origin.Y < other.Bottom() &&
		other.Origin.Y < b.Bottom()
}

func (b Bounds[T]) Contains(p Point[T]) bool {
	return p.X >= b.Origin.X && p.X < b.Right() &&
		p.Y >= b.Origin.Y && p.Y < b.Bottom()
}

// Corners holds one value per rectangle corner, clockwise from the top left.
type Corners[T Unit] struct {
	TopLeft     T
	TopRight    T
	BottomRight T
	BottomLeft  T
}

// Edges holds one value per rectangle edge, clockwise from the top.
type Edges[T Unit] struct {
	Top    T
	Right  T
	Bottom T
	Left   T
}

// AlignUp rounds v up to the next multiple of alignment, which has to be a
// power of two.
func AlignUp[T constraints.Integer](v T, alignment T) T {
	return (v + alignment - 1) & -alignment
}
