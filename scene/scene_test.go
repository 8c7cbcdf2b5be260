package scene

import (
	"slices"
	"testing"

	"honnef.co/go/fresco/atlas"
	"honnef.co/go/fresco/fmath"
	"honnef.co/go/fresco/gfx"
)

func quadAt(x fmath.ScaledPixels) Quad {
	return Quad{
		Bounds:     fmath.Rect(x, 0, 10, 10),
		Background: gfx.Solid(gfx.Black),
	}
}

func monoSprite(index uint32) MonochromeSprite {
	return MonochromeSprite{
		Bounds: fmath.Rect[fmath.ScaledPixels](0, 0, 8, 8),
		Color:  gfx.Black,
		Tile: atlas.Tile{
			Texture: atlas.TextureID{Kind: atlas.Monochrome, Index: index},
		},
	}
}

func collectKinds(s *Scene) []BatchKind {
	var kinds []BatchKind
	for b := range s.Batches() {
		kinds = append(kinds, b.Kind)
	}
	return kinds
}

func TestBatchesGroupConsecutiveKinds(t *testing.T) {
	var s Scene
	s.AppendQuad(quadAt(0))
	s.AppendQuad(quadAt(1))
	s.AppendShadow(Shadow{})
	s.AppendQuad(quadAt(2))

	var got []PrimitiveBatch
	for b := range s.Batches() {
		got = append(got, b)
	}
	if len(got) != 3 {
		t.Fatalf("got %d batches, want 3", len(got))
	}
	if got[0].Kind != BatchQuads || len(got[0].Quads) != 2 {
		t.Errorf("batch 0 = %v with %d quads, want 2 quads", got[0].Kind, len(got[0].Quads))
	}
	if got[1].Kind != BatchShadows || len(got[1].Shadows) != 1 {
		t.Errorf("batch 1 = %v, want 1 shadow", got[1].Kind)
	}
	if got[2].Kind != BatchQuads || len(got[2].Quads) != 1 {
		t.Errorf("batch 2 = %v with %d quads, want 1 quad", got[2].Kind, len(got[2].Quads))
	}
	if got[0].Quads[0].Bounds.Origin.X != 0 || got[2].Quads[0].Bounds.Origin.X != 2 {
		t.Error("quads assigned to the wrong batches")
	}
}

func TestBatchesKeepPaintOrder(t *testing.T) {
	var s Scene
	s.AppendShadow(Shadow{})
	s.AppendQuad(quadAt(0))
	s.AppendUnderline(Underline{})
	s.AppendPath(Path{})
	s.AppendQuad(quadAt(1))

	want := []BatchKind{BatchShadows, BatchQuads, BatchUnderlines, BatchPaths, BatchQuads}
	if got := collectKinds(&s); !slices.Equal(got, want) {
		t.Fatalf("batch kinds = %v, want %v", got, want)
	}
}

func TestBatchesSplitSpritesOnTextureChange(t *testing.T) {
	var s Scene
	s.AppendMonochromeSprite(monoSprite(0))
	s.AppendMonochromeSprite(monoSprite(0))
	s.AppendMonochromeSprite(monoSprite(1))
	s.AppendMonochromeSprite(monoSprite(0))

	var got []PrimitiveBatch
	for b := range s.Batches() {
		got = append(got, b)
	}
	if len(got) != 3 {
		t.Fatalf("got %d batches, want 3 splits of one sprite run", len(got))
	}
	wantCounts := []int{2, 1, 1}
	wantTextures := []uint32{0, 1, 0}
	for i, b := range got {
		if b.Kind != BatchMonochromeSprites {
			t.Fatalf("batch %d kind = %v", i, b.Kind)
		}
		if len(b.MonochromeSprites) != wantCounts[i] {
			t.Errorf("batch %d has %d sprites, want %d", i, len(b.MonochromeSprites), wantCounts[i])
		}
		if b.Texture.Index != wantTextures[i] {
			t.Errorf("batch %d texture index = %d, want %d", i, b.Texture.Index, wantTextures[i])
		}
	}
}

func TestBatchesStopEarly(t *testing.T) {
	var s Scene
	s.AppendQuad(quadAt(0))
	s.AppendShadow(Shadow{})
	n := 0
	for range s.Batches() {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("iterated %d batches after break", n)
	}
}

func TestSceneReset(t *testing.T) {
	var s Scene
	s.AppendQuad(quadAt(0))
	s.AppendPath(Path{Vertices: []PathVertex{{}, {}, {}}})
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("Len after Reset = %d, want 0", s.Len())
	}
	if kinds := collectKinds(&s); len(kinds) != 0 {
		t.Fatalf("reset scene still yields %d batches", len(kinds))
	}
}
