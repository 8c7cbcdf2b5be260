package scene

import (
	"fmt"
	"math"

	"honnef.co/go/curve"
	"honnef.co/go/fresco/fmath"
	"honnef.co/go/fresco/gfx"
)

// shapeTolerance is the maximum distance, in scaled pixels, between a curve
// and its triangulated approximation.
const shapeTolerance = 0.1

// PathBuilder turns an outline into the triangles a Path carries. Each
// segment fans a triangle from the contour's start point, and quadratic
// segments add one curve triangle whose ST coordinates the path shader
// evaluates; cubics are approximated by quadratics within shapeTolerance.
//
// Contours are implicitly closed. Overlapping contours accumulate coverage
// rather than cancel, so holes need the even-odd geometry resolved before
// building.
//
// The zero value is an empty builder with the contour start at the origin;
// begin with MoveTo.
type PathBuilder struct {
	vertices []PathVertex
	first    fmath.Point[fmath.ScaledPixels]
	current  fmath.Point[fmath.ScaledPixels]
	contour  int
	min, max fmath.Point[fmath.ScaledPixels]
}

// MoveTo starts a new contour at p.
func (b *PathBuilder) MoveTo(p fmath.Point[fmath.ScaledPixels]) {
	b.first = p
	b.current = p
	b.contour = 0
}

// LineTo adds a straight segment from the current point to p.
func (b *PathBuilder) LineTo(p fmath.Point[fmath.ScaledPixels]) {
	b.contour++
	if b.contour > 1 {
		b.pushInterior(p)
	}
	b.current = p
}

// QuadTo adds a quadratic segment from the current point to p with the
// control point ctrl.
func (b *PathBuilder) QuadTo(ctrl, p fmath.Point[fmath.ScaledPixels]) {
	b.contour++
	if b.contour > 1 {
		b.pushInterior(p)
	}
	b.pushTriangle(
		b.current, fmath.Pt[float32](0, 0),
		ctrl, fmath.Pt[float32](0.5, 0),
		p, fmath.Pt[float32](1, 1),
	)
	b.current = p
}

// CubicTo adds a cubic segment from the current point to p with the control
// points c1 and c2, approximating it with quadratics.
func (b *PathBuilder) CubicTo(c1, c2, p fmath.Point[fmath.ScaledPixels]) {
	p0 := vecOf(b.current)
	v1 := vecOf(c1)
	v2 := vecOf(c2)
	p3 := vecOf(p)

	// The number of quadratics needed comes from the cubic-to-quadratic
	// error bound: the error shrinks with the cube of the segment count.
	// 432 is (36/sqrt(3))²; see
	// caffeineowl.com/graphics/2d/vectorial/cubic2quad01.html.
	h := v2.Mul(3).Sub(p3).Sub(v1.Mul(3)).Add(p0).Hypot()
	n := max(1, int(math.Ceil(math.Pow(h*h/(432*shapeTolerance*shapeTolerance), 1.0/6))))

	pos := p0
	deriv := v1.Sub(p0).Mul(3)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		nextPos, nextDeriv := cubicSplit(p0, v1, v2, p3, t)
		if i == n {
			// avoid drift on the endpoint
			nextPos = p3
		}
		dt := 1 / float64(n)
		q0 := pos
		q3 := nextPos
		q1 := q0.Add(deriv.Mul(dt / 3))
		q2 := q3.Sub(nextDeriv.Mul(dt / 3))
		// midpoint approximation of the subsegment by one quadratic
		ctrl := q1.Mul(3).Sub(q0).Add(q2.Mul(3)).Sub(q3).Mul(0.25)
		b.QuadTo(ptOf(ctrl), ptOf(q3))
		pos, deriv = nextPos, nextDeriv
	}
}

// Close ends the current contour. The fan triangulation covers the closing
// edge already, so this only moves the current point back to the contour
// start.
func (b *PathBuilder) Close() {
	b.current = b.first
	b.contour = 0
}

// Shape appends a whole curve shape, flattened to shapeTolerance.
func (b *PathBuilder) Shape(shape curve.Shape) {
	for el := range shape.PathElements(shapeTolerance) {
		switch el.Kind {
		case curve.MoveToKind:
			b.MoveTo(ptFromCurve(el.P0))
		case curve.LineToKind:
			b.LineTo(ptFromCurve(el.P0))
		case curve.QuadToKind:
			b.QuadTo(ptFromCurve(el.P0), ptFromCurve(el.P1))
		case curve.CubicToKind:
			b.CubicTo(ptFromCurve(el.P0), ptFromCurve(el.P1), ptFromCurve(el.P2))
		case curve.ClosePathKind:
			b.Close()
		default:
			panic(fmt.Sprintf("unhandled value %d", el.Kind))
		}
	}
}

// Empty reports whether the builder holds no triangles.
func (b *PathBuilder) Empty() bool { return len(b.vertices) == 0 }

// Build returns the accumulated triangles as a Path filled with background.
// The content mask defaults to the path bounds; callers clip further by
// shrinking it. Build hands off the vertex storage, so Reset the builder
// before reusing it.
func (b *PathBuilder) Build(background gfx.Background) Path {
	bounds := fmath.Bounds[fmath.ScaledPixels]{
		Origin: b.min,
		Size:   fmath.Sz(b.max.X-b.min.X, b.max.Y-b.min.Y),
	}
	return Path{
		Bounds:      bounds,
		ContentMask: bounds,
		Background:  background,
		Vertices:    b.vertices,
	}
}

// Reset returns the builder to its zero state.
func (b *PathBuilder) Reset() {
	*b = PathBuilder{}
}

func (b *PathBuilder) pushInterior(p fmath.Point[fmath.ScaledPixels]) {
	st := fmath.Pt[float32](0, 1)
	b.pushTriangle(b.first, st, b.current, st, p, st)
}

func (b *PathBuilder) pushTriangle(
	p0 fmath.Point[fmath.ScaledPixels], st0 fmath.Point[float32],
	p1 fmath.Point[fmath.ScaledPixels], st1 fmath.Point[float32],
	p2 fmath.Point[fmath.ScaledPixels], st2 fmath.Point[float32],
) {
	if len(b.vertices) == 0 {
		b.min = p0
		b.max = p0
	}
	for _, p := range [3]fmath.Point[fmath.ScaledPixels]{p0, p1, p2} {
		b.min.X = min(b.min.X, p.X)
		b.min.Y = min(b.min.Y, p.Y)
		b.max.X = max(b.max.X, p.X)
		b.max.Y = max(b.max.Y, p.Y)
	}
	b.vertices = append(b.vertices,
		PathVertex{XY: p0, ST: st0},
		PathVertex{XY: p1, ST: st1},
		PathVertex{XY: p2, ST: st2},
	)
}

// cubicSplit evaluates the cubic at t and returns the point and derivative
// there, both off the same de Casteljau triangle.
func cubicSplit(p0, p1, p2, p3 curve.Vec2, t float64) (pos, deriv curve.Vec2) {
	a := p0.Lerp(p1, t)
	b := p1.Lerp(p2, t)
	c := p2.Lerp(p3, t)
	ab := a.Lerp(b, t)
	bc := b.Lerp(c, t)
	return ab.Lerp(bc, t), bc.Sub(ab).Mul(3)
}

func vecOf(p fmath.Point[fmath.ScaledPixels]) curve.Vec2 {
	return curve.Vec2{X: float64(p.X), Y: float64(p.Y)}
}

func ptOf(v curve.Vec2) fmath.Point[fmath.ScaledPixels] {
	return fmath.Pt(fmath.ScaledPixels(v.X), fmath.ScaledPixels(v.Y))
}

func ptFromCurve(p curve.Point) fmath.Point[fmath.ScaledPixels] {
	return fmath.Pt(fmath.ScaledPixels(p.X), fmath.ScaledPixels(p.Y))
}
