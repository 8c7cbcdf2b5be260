package wgpu_engine

import (
	"structs"
	"unsafe"

	"honnef.co/go/fresco/atlas"
	"honnef.co/go/fresco/fmath"
	"honnef.co/go/fresco/gfx"
	"honnef.co/go/fresco/scene"
)

// The types in this file are the instance layouts the shaders read from
// storage buffers. They must match the structs in shaders/shaders.wgsl byte
// for byte; every field is a 4-byte scalar so neither Go nor WGSL inserts
// padding beyond the explicit Pad fields.

type gpuGlobals struct {
	_ structs.HostLayout

	ViewportSize       [2]float32
	PremultipliedAlpha uint32
	Pad                uint32
}

type gpuBounds struct {
	_ structs.HostLayout

	Origin [2]float32
	Size   [2]float32
}

type gpuCorners struct {
	_ structs.HostLayout

	TopLeft     float32
	TopRight    float32
	BottomRight float32
	BottomLeft  float32
}

type gpuEdges struct {
	_ structs.HostLayout

	Top    float32
	Right  float32
	Bottom float32
	Left   float32
}

type gpuHsla struct {
	_ structs.HostLayout

	H float32
	S float32
	L float32
	A float32
}

type gpuColorStop struct {
	_ structs.HostLayout

	Color      gpuHsla
	Percentage float32
}

type gpuBackground struct {
	_ structs.HostLayout

	Tag        uint32
	ColorSpace uint32
	Solid      gpuHsla
	Angle      float32
	Stops      [2]gpuColorStop
	Pad        uint32
}

type gpuTextureID struct {
	_ structs.HostLayout

	Kind  uint32
	Index uint32
}

type gpuAtlasBounds struct {
	_ structs.HostLayout

	Origin [2]int32
	Size   [2]int32
}

type gpuTile struct {
	_ structs.HostLayout

	Texture gpuTextureID
	TileID  uint32
	Pad     uint32
	Bounds  gpuAtlasBounds
}

type gpuQuad struct {
	_ structs.HostLayout

	Bounds       gpuBounds
	ContentMask  gpuBounds
	Background   gpuBackground
	BorderColor  gpuHsla
	CornerRadii  gpuCorners
	BorderWidths gpuEdges
}

type gpuShadow struct {
	_ structs.HostLayout

	Bounds      gpuBounds
	ContentMask gpuBounds
	CornerRadii gpuCorners
	Color       gpuHsla
	BlurRadius  float32
	Pad         uint32
}

type gpuUnderline struct {
	_ structs.HostLayout

	Bounds      gpuBounds
	ContentMask gpuBounds
	Color       gpuHsla
	Thickness   float32
	Wavy        uint32
}

type gpuMonochromeSprite struct {
	_ structs.HostLayout

	Bounds      gpuBounds
	ContentMask gpuBounds
	Color       gpuHsla
	Tile        gpuTile
}

type gpuPolychromeSprite struct {
	_ structs.HostLayout

	Bounds      gpuBounds
	ContentMask gpuBounds
	CornerRadii gpuCorners
	Tile        gpuTile
	Grayscale   uint32
	Opacity     float32
}

type gpuPathVertex struct {
	_ structs.HostLayout

	XY          [2]float32
	ST          [2]float32
	ContentMask gpuBounds
	Bounds      gpuBounds
	Background  gpuBackground
}

const (
	gpuGlobalsSize    = int(unsafe.Sizeof(gpuGlobals{}))
	gpuQuadSize       = int(unsafe.Sizeof(gpuQuad{}))
	gpuShadowSize     = int(unsafe.Sizeof(gpuShadow{}))
	gpuUnderlineSize  = int(unsafe.Sizeof(gpuUnderline{}))
	gpuMonoSize       = int(unsafe.Sizeof(gpuMonochromeSprite{}))
	gpuPolySize       = int(unsafe.Sizeof(gpuPolychromeSprite{}))
	gpuPathVertexSize = int(unsafe.Sizeof(gpuPathVertex{}))
)

func gpuBoundsOf(b fmath.Bounds[fmath.ScaledPixels]) gpuBounds {
	return gpuBounds{
		Origin: [2]float32{float32(b.Origin.X), float32(b.Origin.Y)},
		Size:   [2]float32{float32(b.Size.Width), float32(b.Size.Height)},
	}
}

func gpuCornersOf(c fmath.Corners[fmath.ScaledPixels]) gpuCorners {
	return gpuCorners{
		TopLeft:     float32(c.TopLeft),
		TopRight:    float32(c.TopRight),
		BottomRight: float32(c.BottomRight),
		BottomLeft:  float32(c.BottomLeft),
	}
}

func gpuEdgesOf(e fmath.Edges[fmath.ScaledPixels]) gpuEdges {
	return gpuEdges{
		Top:    float32(e.Top),
		Right:  float32(e.Right),
		Bottom: float32(e.Bottom),
		Left:   float32(e.Left),
	}
}

func gpuHslaOf(c gfx.Hsla) gpuHsla {
	return gpuHsla{H: c.H, S: c.S, L: c.L, A: c.A}
}

func gpuBackgroundOf(b gfx.Background) gpuBackground {
	return gpuBackground{
		Tag:        uint32(b.Tag),
		ColorSpace: uint32(b.ColorSpace),
		Solid:      gpuHslaOf(b.Solid),
		Angle:      b.Angle,
		Stops: [2]gpuColorStop{
			{Color: gpuHslaOf(b.Stops[0].Color), Percentage: b.Stops[0].Percentage},
			{Color: gpuHslaOf(b.Stops[1].Color), Percentage: b.Stops[1].Percentage},
		},
	}
}

func gpuTileOf(t atlas.Tile) gpuTile {
	return gpuTile{
		Texture: gpuTextureID{Kind: uint32(t.Texture.Kind), Index: t.Texture.Index},
		TileID:  uint32(t.ID),
		Bounds: gpuAtlasBounds{
			Origin: [2]int32{int32(t.Bounds.Origin.X), int32(t.Bounds.Origin.Y)},
			Size:   [2]int32{int32(t.Bounds.Size.Width), int32(t.Bounds.Size.Height)},
		},
	}
}

func gpuQuadOf(q scene.Quad) gpuQuad {
	return gpuQuad{
		Bounds:       gpuBoundsOf(q.Bounds),
		ContentMask:  gpuBoundsOf(q.ContentMask),
		Background:   gpuBackgroundOf(q.Background),
		BorderColor:  gpuHslaOf(q.BorderColor),
		CornerRadii:  gpuCornersOf(q.CornerRadii),
		BorderWidths: gpuEdgesOf(q.BorderWidths),
	}
}

func gpuShadowOf(sh scene.Shadow) gpuShadow {
	return gpuShadow{
		Bounds:      gpuBoundsOf(sh.Bounds),
		ContentMask: gpuBoundsOf(sh.ContentMask),
		CornerRadii: gpuCornersOf(sh.CornerRadii),
		Color:       gpuHslaOf(sh.Color),
		BlurRadius:  float32(sh.BlurRadius),
	}
}

func gpuUnderlineOf(u scene.Underline) gpuUnderline {
	var wavy uint32
	if u.Wavy {
		wavy = 1
	}
	return gpuUnderline{
		Bounds:      gpuBoundsOf(u.Bounds),
		ContentMask: gpuBoundsOf(u.ContentMask),
		Color:       gpuHslaOf(u.Color),
		Thickness:   float32(u.Thickness),
		Wavy:        wavy,
	}
}

func gpuMonoSpriteOf(sp scene.MonochromeSprite) gpuMonochromeSprite {
	return gpuMonochromeSprite{
		Bounds:      gpuBoundsOf(sp.Bounds),
		ContentMask: gpuBoundsOf(sp.ContentMask),
		Color:       gpuHslaOf(sp.Color),
		Tile:        gpuTileOf(sp.Tile),
	}
}

func gpuPolySpriteOf(sp scene.PolychromeSprite) gpuPolychromeSprite {
	var grayscale uint32
	if sp.Grayscale {
		grayscale = 1
	}
	return gpuPolychromeSprite{
		Bounds:      gpuBoundsOf(sp.Bounds),
		ContentMask: gpuBoundsOf(sp.ContentMask),
		CornerRadii: gpuCornersOf(sp.CornerRadii),
		Tile:        gpuTileOf(sp.Tile),
		Grayscale:   grayscale,
		Opacity:     sp.Opacity,
	}
}

func gpuPathVertexOf(p *scene.Path, v scene.PathVertex) gpuPathVertex {
	return gpuPathVertex{
		XY:          [2]float32{float32(v.XY.X), float32(v.XY.Y)},
		ST:          [2]float32{v.ST.X, v.ST.Y},
		ContentMask: gpuBoundsOf(p.ContentMask),
		Bounds:      gpuBoundsOf(p.Bounds),
		Background:  gpuBackgroundOf(p.Background),
	}
}
