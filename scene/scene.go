// Package scene holds the primitives a UI layer paints and turns them into
// the ordered batches the renderer draws.
//
// A Scene is rebuilt every frame: primitives are appended in paint order and
// Batches groups consecutive primitives of one kind (and, for sprites, one
// atlas texture) into draw batches. Batch order is paint order; the renderer
// never reorders or merges across batch boundaries, since that would change
// stacking.
package scene

import (
	"iter"

	"honnef.co/go/fresco/atlas"
	"honnef.co/go/fresco/fmath"
	"honnef.co/go/fresco/gfx"
)

type Quad struct {
	Bounds       fmath.Bounds[fmath.ScaledPixels]
	ContentMask  fmath.Bounds[fmath.ScaledPixels]
	Background   gfx.Background
	BorderColor  gfx.Hsla
	CornerRadii  fmath.Corners[fmath.ScaledPixels]
	BorderWidths fmath.Edges[fmath.ScaledPixels]
}

type Shadow struct {
	Bounds      fmath.Bounds[fmath.ScaledPixels]
	ContentMask fmath.Bounds[fmath.ScaledPixels]
	CornerRadii fmath.Corners[fmath.ScaledPixels]
	Color       gfx.Hsla
	BlurRadius  fmath.ScaledPixels
}

type Underline struct {
	Bounds      fmath.Bounds[fmath.ScaledPixels]
	ContentMask fmath.Bounds[fmath.ScaledPixels]
	Color       gfx.Hsla
	Thickness   fmath.ScaledPixels
	Wavy        bool
}

// MonochromeSprite draws an alpha-mask atlas tile, typically a glyph, tinted
// with a color.
type MonochromeSprite struct {
	Bounds      fmath.Bounds[fmath.ScaledPixels]
	ContentMask fmath.Bounds[fmath.ScaledPixels]
	Color       gfx.Hsla
	Tile        atlas.Tile
}

// PolychromeSprite draws a full-color atlas tile, typically an image or color
// emoji.
type PolychromeSprite struct {
	Bounds      fmath.Bounds[fmath.ScaledPixels]
	ContentMask fmath.Bounds[fmath.ScaledPixels]
	CornerRadii fmath.Corners[fmath.ScaledPixels]
	Tile        atlas.Tile
	Grayscale   bool
	Opacity     float32
}

// PathVertex is one corner of a path triangle. ST carries the quadratic
// coverage coordinates the path shader evaluates; interior triangles use
// (0, 1).
type PathVertex struct {
	XY fmath.Point[fmath.ScaledPixels]
	ST fmath.Point[float32]
}

// Path is a filled shape, pre-tessellated into triangles.
type Path struct {
	Bounds      fmath.Bounds[fmath.ScaledPixels]
	ContentMask fmath.Bounds[fmath.ScaledPixels]
	Background  gfx.Background
	Vertices    []PathVertex
}

// BatchKind tags the variant of a PrimitiveBatch.
type BatchKind uint8

const (
	BatchQuads BatchKind = iota
	BatchShadows
	BatchUnderlines
	BatchPaths
	BatchMonochromeSprites
	BatchPolychromeSprites
)

// PrimitiveBatch is one draw batch: a run of consecutive primitives of one
// kind. Exactly the slice named by Kind is populated; sprite batches
// additionally carry the atlas texture all their sprites live on. The slices
// alias the Scene's storage and are read-only.
type PrimitiveBatch struct {
	Kind BatchKind

	Quads             []Quad
	Shadows           []Shadow
	Underlines        []Underline
	Paths             []Path
	Texture           atlas.TextureID
	MonochromeSprites []MonochromeSprite
	PolychromeSprites []PolychromeSprite
}

// Scene accumulates one frame's primitives in paint order. The zero value is
// an empty scene; Reset reuses the storage for the next frame.
type Scene struct {
	order []BatchKind

	quads       []Quad
	shadows     []Shadow
	underlines  []Underline
	paths       []Path
	monoSprites []MonochromeSprite
	polySprites []PolychromeSprite
}

func (s *Scene) Reset() {
	s.order = s.order[:0]
	s.quads = s.quads[:0]
	s.shadows = s.shadows[:0]
	s.underlines = s.underlines[:0]
	s.paths = s.paths[:0]
	s.monoSprites = s.monoSprites[:0]
	s.polySprites = s.polySprites[:0]
}

// Len returns the number of primitives in the scene.
func (s *Scene) Len() int { return len(s.order) }

func (s *Scene) AppendQuad(q Quad) {
	s.quads = append(s.quads, q)
	s.order = append(s.order, BatchQuads)
}

func (s *Scene) AppendShadow(sh Shadow) {
	s.shadows = append(s.shadows, sh)
	s.order = append(s.order, BatchShadows)
}

func (s *Scene) AppendUnderline(u Underline) {
	s.underlines = append(s.underlines, u)
	s.order = append(s.order, BatchUnderlines)
}

func (s *Scene) AppendPath(p Path) {
	s.paths = append(s.paths, p)
	s.order = append(s.order, BatchPaths)
}

func (s *Scene) AppendMonochromeSprite(sp MonochromeSprite) {
	s.monoSprites = append(s.monoSprites, sp)
	s.order = append(s.order, BatchMonochromeSprites)
}

func (s *Scene) AppendPolychromeSprite(sp PolychromeSprite) {
	s.polySprites = append(s.polySprites, sp)
	s.order = append(s.order, BatchPolychromeSprites)
}

// Batches yields the scene's primitives grouped into draw batches, in paint
// order. Consecutive primitives of the same kind form one batch; sprite runs
// split whenever the atlas texture changes, since a sprite batch binds
// exactly one texture.
func (s *Scene) Batches() iter.Seq[PrimitiveBatch] {
	return func(yield func(PrimitiveBatch) bool) {
		var nq, nsh, nu, np, nm, npo int
		i := 0
		for i < len(s.order) {
			kind := s.order[i]
			run := 1
			for i+run < len(s.order) && s.order[i+run] == kind {
				run++
			}
			i += run

			switch kind {
			case BatchQuads:
				if !yield(PrimitiveBatch{Kind: kind, Quads: s.quads[nq : nq+run]}) {
					return
				}
				nq += run
			case BatchShadows:
				if !yield(PrimitiveBatch{Kind: kind, Shadows: s.shadows[nsh : nsh+run]}) {
					return
				}
				nsh += run
			case BatchUnderlines:
				if !yield(PrimitiveBatch{Kind: kind, Underlines: s.underlines[nu : nu+run]}) {
					return
				}
				nu += run
			case BatchPaths:
				if !yield(PrimitiveBatch{Kind: kind, Paths: s.paths[np : np+run]}) {
					return
				}
				np += run
			case BatchMonochromeSprites:
				sprites := s.monoSprites[nm : nm+run]
				nm += run
				for len(sprites) > 0 {
					tex := sprites[0].Tile.Texture
					n := 1
					for n < len(sprites) && sprites[n].Tile.Texture == tex {
						n++
					}
					if !yield(PrimitiveBatch{Kind: kind, Texture: tex, MonochromeSprites: sprites[:n]}) {
						return
					}
					sprites = sprites[n:]
				}
			case BatchPolychromeSprites:
				sprites := s.polySprites[npo : npo+run]
				npo += run
				for len(sprites) > 0 {
					tex := sprites[0].Tile.Texture
					n := 1
					for n < len(sprites) && sprites[n].Tile.Texture == tex {
						n++
					}
					if !yield(PrimitiveBatch{Kind: kind, Texture: tex, PolychromeSprites: sprites[:n]}) {
						return
					}
					sprites = sprites[n:]
				}
			}
		}
	}
}
