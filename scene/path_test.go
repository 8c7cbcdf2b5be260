package scene

import (
	"testing"

	"honnef.co/go/curve"
	"honnef.co/go/fresco/fmath"
	"honnef.co/go/fresco/gfx"
)

func pt(x, y fmath.ScaledPixels) fmath.Point[fmath.ScaledPixels] {
	return fmath.Pt(x, y)
}

func TestPathBuilderFanTriangles(t *testing.T) {
	var b PathBuilder
	b.MoveTo(pt(0, 0))
	b.LineTo(pt(100, 0))
	b.LineTo(pt(100, 100))
	b.LineTo(pt(0, 100))

	// three segments fan into two interior triangles
	if len(b.vertices) != 6 {
		t.Fatalf("got %d vertices, want 6", len(b.vertices))
	}
	for i, v := range b.vertices {
		if v.ST != (fmath.Pt[float32](0, 1)) {
			t.Errorf("vertex %d has ST %v, want interior (0, 1)", i, v.ST)
		}
	}
	if b.vertices[0].XY != pt(0, 0) || b.vertices[3].XY != pt(0, 0) {
		t.Error("fan triangles do not share the contour start")
	}

	p := b.Build(gfx.Solid(gfx.White))
	if p.Bounds != fmath.Rect[fmath.ScaledPixels](0, 0, 100, 100) {
		t.Errorf("bounds = %v, want 100x100 at the origin", p.Bounds)
	}
	if p.ContentMask != p.Bounds {
		t.Errorf("content mask = %v, want the path bounds", p.ContentMask)
	}
}

func TestPathBuilderQuadraticTriangle(t *testing.T) {
	var b PathBuilder
	b.MoveTo(pt(0, 0))
	b.QuadTo(pt(50, 100), pt(100, 0))

	// a single curve segment emits only the curve triangle
	if len(b.vertices) != 3 {
		t.Fatalf("got %d vertices, want 3", len(b.vertices))
	}
	wantST := []fmath.Point[float32]{
		fmath.Pt[float32](0, 0),
		fmath.Pt[float32](0.5, 0),
		fmath.Pt[float32](1, 1),
	}
	for i, v := range b.vertices {
		if v.ST != wantST[i] {
			t.Errorf("vertex %d has ST %v, want %v", i, v.ST, wantST[i])
		}
	}
	if b.vertices[1].XY != pt(50, 100) {
		t.Errorf("control vertex at %v, want (50, 100)", b.vertices[1].XY)
	}
}

func TestPathBuilderCubicSubdivision(t *testing.T) {
	var b PathBuilder
	b.MoveTo(pt(0, 0))
	b.CubicTo(pt(0, 100), pt(100, 100), pt(100, 0))

	if len(b.vertices) == 0 || len(b.vertices)%3 != 0 {
		t.Fatalf("got %d vertices, want a positive multiple of 3", len(b.vertices))
	}
	if len(b.vertices) < 9 {
		t.Errorf("got %d vertices; a full-height cubic should need several quadratics", len(b.vertices))
	}
	last := b.vertices[len(b.vertices)-1]
	if last.XY != pt(100, 0) {
		t.Errorf("final vertex at %v, want the cubic endpoint (100, 0)", last.XY)
	}
	p := b.Build(gfx.Solid(gfx.White))
	if p.Bounds.Origin.X < -1 || p.Bounds.Origin.Y < -1 ||
		p.Bounds.Right() > 101 || p.Bounds.Bottom() > 101 {
		t.Errorf("bounds %v escape the control polygon", p.Bounds)
	}
}

func TestPathBuilderShape(t *testing.T) {
	var b PathBuilder
	b.Shape(curve.Rect{X0: 0, Y0: 0, X1: 100, Y1: 50})
	if b.Empty() {
		t.Fatal("rect shape produced no triangles")
	}
	if len(b.vertices)%3 != 0 {
		t.Fatalf("got %d vertices, want a multiple of 3", len(b.vertices))
	}
	p := b.Build(gfx.Solid(gfx.Black))
	if p.Bounds != fmath.Rect[fmath.ScaledPixels](0, 0, 100, 50) {
		t.Errorf("bounds = %v, want 100x50 at the origin", p.Bounds)
	}
}

func TestPathBuilderMultipleContours(t *testing.T) {
	var b PathBuilder
	b.MoveTo(pt(0, 0))
	b.LineTo(pt(10, 0))
	b.LineTo(pt(10, 10))
	b.Close()
	b.MoveTo(pt(20, 0))
	b.LineTo(pt(30, 0))
	b.LineTo(pt(30, 10))

	if len(b.vertices) != 6 {
		t.Fatalf("got %d vertices, want one triangle per contour", len(b.vertices))
	}
	if b.vertices[3].XY != pt(20, 0) {
		t.Errorf("second contour fans from %v, want its own start (20, 0)", b.vertices[3].XY)
	}
}

func TestPathBuilderReset(t *testing.T) {
	var b PathBuilder
	b.MoveTo(pt(0, 0))
	b.LineTo(pt(10, 0))
	b.LineTo(pt(10, 10))
	b.Reset()
	if !b.Empty() {
		t.Fatal("builder not empty after Reset")
	}
	p := b.Build(gfx.Solid(gfx.Black))
	if len(p.Vertices) != 0 {
		t.Fatalf("reset builder built %d vertices", len(p.Vertices))
	}
}
