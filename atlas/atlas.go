// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package atlas caches rasterized content, such as glyphs and images, in
// shared GPU textures.
//
// Content is addressed by value-comparable keys. The first request for a key
// rasterizes the content via a caller-supplied producer, packs it into a
// sub-rectangle ("tile") of an atlas texture and schedules the pixel upload;
// subsequent requests return the same tile without touching the producer or
// the GPU. Uploads are deferred and flushed in one batch per frame, before
// any draw that could sample the new tiles.
//
// Textures come in two kinds: monochrome (R8, alpha-only glyph masks) and
// polychrome (RGBA8, color emoji and images). Each kind grows its own list of
// textures; when no existing texture has room for a tile, a new one is
// created. Removing a key evicts the cache entry but deliberately does not
// return the tile's rectangle to the allocator: the GPU may still sample it
// for draws recorded this frame. The rectangle is reclaimed only when its
// whole texture is destroyed.
//
// An Atlas must only be used from the goroutine that drives rendering.
package atlas

import (
	"fmt"
	"log/slog"

	"honnef.co/go/fresco/fmath"
	"honnef.co/go/fresco/profiler"
	"honnef.co/go/wgpu"
)

// DefaultAtlasSize is the edge length of atlas textures, unless a single tile
// needs more.
const DefaultAtlasSize = 1024

// Kind partitions atlas textures by pixel format.
type Kind uint8

const (
	Monochrome Kind = iota
	Polychrome
)

func (k Kind) String() string {
	switch k {
	case Monochrome:
		return "monochrome"
	case Polychrome:
		return "polychrome"
	default:
		panic(fmt.Sprintf("unhandled value %d", k))
	}
}

func (k Kind) bytesPerPixel() int {
	switch k {
	case Monochrome:
		return 1
	case Polychrome:
		return 4
	default:
		panic(fmt.Sprintf("unhandled value %d", k))
	}
}

func (k Kind) format() wgpu.TextureFormat {
	switch k {
	case Monochrome:
		return wgpu.TextureFormatR8Unorm
	case Polychrome:
		return wgpu.TextureFormatRGBA8Unorm
	default:
		panic(fmt.Sprintf("unhandled value %d", k))
	}
}

// TextureID identifies one texture within an Atlas.
type TextureID struct {
	Kind  Kind
	Index uint32
}

// Tile is an allocated sub-rectangle of an atlas texture. Tiles compare equal
// exactly when they refer to the same rectangle of the same texture.
type Tile struct {
	Texture TextureID
	ID      AllocID
	Bounds  fmath.Bounds[fmath.DevicePixels]
}

// Key identifies a piece of rasterized content. The two implementations,
// GlyphKey and ImageKey, are value types; equal keys resolve to the same Tile
// for as long as the tile is live.
type Key interface {
	kind() Kind
}

// GlyphKey identifies a glyph rasterized with specific parameters.
type GlyphKey struct {
	FontID          uint32
	GlyphID         uint16
	Size            fmath.ScaledPixels
	SubpixelVariant uint8
	ScaleFactor     float32
	IsEmoji         bool
}

func (k GlyphKey) kind() Kind {
	if k.IsEmoji {
		return Polychrome
	}
	return Monochrome
}

// ImageKey identifies an image resource rendered at a specific scale.
type ImageKey struct {
	ImageID     uint64
	ScaleFactor float32
}

func (k ImageKey) kind() Kind { return Polychrome }

// Bitmap is the producer's output: tightly packed pixels, bytes per pixel
// according to the key's kind.
type Bitmap struct {
	Size fmath.Size[fmath.DevicePixels]
	Data []byte
}

// Stats reports cache effectiveness since the last flush.
type Stats struct {
	Hits   int
	Misses int
	Tiles  int
}

type pendingUpload struct {
	texture TextureID
	bounds  fmath.Bounds[fmath.DevicePixels]
	data    []byte
}

type atlasTexture struct {
	id        TextureID
	alloc     *BucketedAllocator
	backing   backendTexture
	liveTiles int
}

type partition struct {
	// indexed by TextureID.Index; nil entries are destroyed textures whose
	// index sits in freeIndices
	textures    []*atlasTexture
	freeIndices []uint32
}

// Atlas owns the atlas textures of both kinds, the key→tile cache and the
// pending upload queue. Use New; the zero value is not usable.
type Atlas struct {
	backend backend

	mono    partition
	poly    partition
	tiles   map[Key]Tile
	uploads []pendingUpload

	hits   int
	misses int
}

// New returns an Atlas creating its textures on dev and uploading through
// queue.
func New(dev *wgpu.Device, queue *wgpu.Queue) *Atlas {
	return &Atlas{
		backend: &wgpuBackend{dev: dev, queue: queue},
		tiles:   make(map[Key]Tile),
	}
}

func (a *Atlas) partition(kind Kind) *partition {
	switch kind {
	case Monochrome:
		return &a.mono
	case Polychrome:
		return &a.poly
	default:
		panic(fmt.Sprintf("unhandled value %d", kind))
	}
}

func (a *Atlas) texture(id TextureID) *atlasTexture {
	p := a.partition(id.Kind)
	if int(id.Index) >= len(p.textures) {
		return nil
	}
	return p.textures[id.Index]
}

// GetOrInsert returns the tile for key, rasterizing it with produce on the
// first request. produce is called at most once; returning false from it
// means "no content" (for example a whitespace glyph), in which case nothing
// is cached and GetOrInsert returns false. The returned tile stays valid, and
// identical, until Remove(key) or the destruction of its texture.
func (a *Atlas) GetOrInsert(key Key, produce func() (Bitmap, bool)) (Tile, bool) {
	if tile, ok := a.tiles[key]; ok {
		a.hits++
		return tile, true
	}
	a.misses++

	bitmap, ok := produce()
	if !ok || bitmap.Size.IsEmpty() {
		return Tile{}, false
	}

	kind := key.kind()
	want := int(bitmap.Size.Area()) * kind.bytesPerPixel()
	if len(bitmap.Data) != want {
		slog.Error("atlas producer returned mismatched pixel data",
			"kind", kind, "size", fmt.Sprintf("%dx%d", bitmap.Size.Width, bitmap.Size.Height),
			"got", len(bitmap.Data), "want", want)
		return Tile{}, false
	}

	tile := a.allocate(kind, bitmap.Size)
	a.uploads = append(a.uploads, pendingUpload{
		texture: tile.Texture,
		bounds:  tile.Bounds,
		data:    bitmap.Data,
	})
	a.tiles[key] = tile
	return tile, true
}

// allocate finds room for a tile of the given size, creating a new texture if
// no existing one of the kind has space. It cannot fail: a fresh texture is
// always at least as large as the request.
func (a *Atlas) allocate(kind Kind, size fmath.Size[fmath.DevicePixels]) Tile {
	p := a.partition(kind)

	// Most recently created textures first; they are the likeliest to have
	// room.
	for i := len(p.textures) - 1; i >= 0; i-- {
		t := p.textures[i]
		if t == nil {
			continue
		}
		if size.Width > t.alloc.Size().Width || size.Height > t.alloc.Size().Height {
			continue
		}
		if r, ok := t.alloc.Allocate(size); ok {
			t.liveTiles++
			return Tile{Texture: t.id, ID: r.ID, Bounds: r.Bounds}
		}
	}

	t := a.newTexture(kind, fmath.Size[fmath.DevicePixels]{
		Width:  max(size.Width, DefaultAtlasSize),
		Height: max(size.Height, DefaultAtlasSize),
	})
	r, ok := t.alloc.Allocate(size)
	if !ok {
		panic("fresh atlas texture rejected allocation")
	}
	t.liveTiles++
	return Tile{Texture: t.id, ID: r.ID, Bounds: r.Bounds}
}

func (a *Atlas) newTexture(kind Kind, size fmath.Size[fmath.DevicePixels]) *atlasTexture {
	p := a.partition(kind)
	var index uint32
	if n := len(p.freeIndices); n > 0 {
		index = p.freeIndices[n-1]
		p.freeIndices = p.freeIndices[:n-1]
	} else {
		index = uint32(len(p.textures))
		p.textures = append(p.textures, nil)
	}

	t := &atlasTexture{
		id:      TextureID{Kind: kind, Index: index},
		alloc:   NewBucketedAllocator(size),
		backing: a.backend.newTexture(kind, size),
	}
	p.textures[index] = t
	slog.Debug("created atlas texture",
		"kind", kind, "index", index,
		"size", fmt.Sprintf("%dx%d", size.Width, size.Height))
	return t
}

// Remove evicts key from the cache. The tile's rectangle is not reused this
// frame (see the package documentation); removing an unknown key is a no-op.
func (a *Atlas) Remove(key Key) {
	tile, ok := a.tiles[key]
	if !ok {
		return
	}
	delete(a.tiles, key)
	if t := a.texture(tile.Texture); t != nil && t.liveTiles > 0 {
		t.liveTiles--
	}
}

// Flush writes all pending uploads to their textures and resets the frame's
// cache statistics. The renderer calls this once per frame, before recording
// any draw.
func (a *Atlas) Flush(pgroup profiler.ProfilerGroup) {
	pgroup = pgroup.Start("Flush")
	defer pgroup.End()

	for _, up := range a.uploads {
		t := a.texture(up.texture)
		if t == nil {
			slog.Warn("dropping upload for destroyed atlas texture",
				"kind", up.texture.Kind, "index", up.texture.Index)
			continue
		}
		a.backend.write(t.backing, up.bounds, up.texture.Kind.bytesPerPixel(), up.data)
	}
	clear(a.uploads)
	a.uploads = a.uploads[:0]

	if lookups := a.hits + a.misses; lookups > 0 {
		slog.Debug("glyph cache",
			"hits", a.hits,
			"misses", a.misses,
			"hitRate", fmt.Sprintf("%.1f%%", float64(a.hits)/float64(lookups)*100),
			"tiles", len(a.tiles))
		a.hits = 0
		a.misses = 0
	}
}

// TextureView returns the sampleable view of an atlas texture. It returns
// false for destroyed textures and for ids that were never created; callers
// are expected to skip the affected draw.
func (a *Atlas) TextureView(id TextureID) (*wgpu.TextureView, bool) {
	t := a.texture(id)
	if t == nil {
		return nil, false
	}
	view := t.backing.view()
	if view == nil {
		return nil, false
	}
	return view, true
}

// DestroyTexture releases a texture and recycles its index for future
// textures. Cache entries still naming the texture become stale: their sprite
// batches are skipped at draw time and their Remove is a plain eviction.
func (a *Atlas) DestroyTexture(id TextureID) {
	p := a.partition(id.Kind)
	if int(id.Index) >= len(p.textures) || p.textures[id.Index] == nil {
		return
	}
	t := p.textures[id.Index]
	a.backend.destroyTexture(t.backing)
	p.textures[id.Index] = nil
	p.freeIndices = append(p.freeIndices, id.Index)
	slog.Debug("destroyed atlas texture", "kind", id.Kind, "index", id.Index, "liveTiles", t.liveTiles)
}

// Stats returns the lookup counters accumulated since the last Flush and the
// current number of live tiles.
func (a *Atlas) Stats() Stats {
	return Stats{Hits: a.hits, Misses: a.misses, Tiles: len(a.tiles)}
}

// PendingUploads reports the number of queued uploads.
func (a *Atlas) PendingUploads() int { return len(a.uploads) }

// backend abstracts the GPU operations the Atlas needs, so the cache logic
// can be exercised without a device.
type backend interface {
	newTexture(kind Kind, size fmath.Size[fmath.DevicePixels]) backendTexture
	destroyTexture(t backendTexture)
	write(t backendTexture, bounds fmath.Bounds[fmath.DevicePixels], bytesPerPixel int, data []byte)
}

type backendTexture interface {
	view() *wgpu.TextureView
}

type wgpuBackend struct {
	dev   *wgpu.Device
	queue *wgpu.Queue
}

type wgpuTexture struct {
	tex     *wgpu.Texture
	texView *wgpu.TextureView
}

func (t *wgpuTexture) view() *wgpu.TextureView { return t.texView }

func (b *wgpuBackend) newTexture(kind Kind, size fmath.Size[fmath.DevicePixels]) backendTexture {
	tex := b.dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "atlas " + kind.String(),
		Size: wgpu.Extent3D{
			Width:              uint32(size.Width),
			Height:             uint32(size.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Format:        kind.format(),
	})
	view := tex.CreateView(nil)
	return &wgpuTexture{tex: tex, texView: view}
}

func (b *wgpuBackend) destroyTexture(t backendTexture) {
	wt := t.(*wgpuTexture)
	wt.texView.Release()
	wt.tex.Release()
}

func (b *wgpuBackend) write(t backendTexture, bounds fmath.Bounds[fmath.DevicePixels], bytesPerPixel int, data []byte) {
	wt := t.(*wgpuTexture)
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  wt.tex,
			MipLevel: 0,
			Origin: wgpu.Origin3D{
				X: uint32(bounds.Origin.X),
				Y: uint32(bounds.Origin.Y),
				Z: 0,
			},
			Aspect: wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(bounds.Size.Width) * uint32(bytesPerPixel),
			RowsPerImage: uint32(bounds.Size.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(bounds.Size.Width),
			Height:             uint32(bounds.Size.Height),
			DepthOrArrayLayers: 1,
		},
	)
}
