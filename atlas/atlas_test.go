package atlas

import (
	"bytes"
	"testing"

	"honnef.co/go/fresco/fmath"
	"honnef.co/go/fresco/profiler"
	"honnef.co/go/wgpu"
)

type fakeBackend struct {
	created   int
	destroyed int
	writes    []fakeWrite
}

type fakeWrite struct {
	bounds fmath.Bounds[fmath.DevicePixels]
	data   []byte
}

type fakeTexture struct {
	size fmath.Size[fmath.DevicePixels]
}

func (t *fakeTexture) view() *wgpu.TextureView { return nil }

func (b *fakeBackend) newTexture(kind Kind, size fmath.Size[fmath.DevicePixels]) backendTexture {
	b.created++
	return &fakeTexture{size: size}
}

func (b *fakeBackend) destroyTexture(t backendTexture) {
	b.destroyed++
}

func (b *fakeBackend) write(t backendTexture, bounds fmath.Bounds[fmath.DevicePixels], bytesPerPixel int, data []byte) {
	b.writes = append(b.writes, fakeWrite{bounds: bounds, data: data})
}

func newTestAtlas() (*Atlas, *fakeBackend) {
	fb := &fakeBackend{}
	return &Atlas{backend: fb, tiles: make(map[Key]Tile)}, fb
}

func glyphBitmap(w, h fmath.DevicePixels, value byte) func() (Bitmap, bool) {
	return func() (Bitmap, bool) {
		data := bytes.Repeat([]byte{value}, int(w)*int(h))
		return Bitmap{Size: fmath.Sz(w, h), Data: data}, true
	}
}

func TestGetOrInsertStableTile(t *testing.T) {
	a, _ := newTestAtlas()
	key := GlyphKey{FontID: 1, GlyphID: 65, Size: 13, ScaleFactor: 2}

	calls := 0
	produce := func() (Bitmap, bool) {
		calls++
		return glyphBitmap(8, 8, 0xff)()
	}

	tile1, ok := a.GetOrInsert(key, produce)
	if !ok {
		t.Fatal("first insert failed")
	}
	if tile1.Bounds.Size != fmath.Sz[fmath.DevicePixels](8, 8) {
		t.Fatalf("tile size = %v, want 8x8", tile1.Bounds.Size)
	}
	if tile1.Texture.Kind != Monochrome {
		t.Fatalf("glyph landed in %v texture", tile1.Texture.Kind)
	}
	if a.PendingUploads() != 1 {
		t.Fatalf("pending uploads = %d, want 1", a.PendingUploads())
	}

	tile2, ok := a.GetOrInsert(key, produce)
	if !ok {
		t.Fatal("second lookup failed")
	}
	if tile1 != tile2 {
		t.Fatalf("tiles differ: %v vs %v", tile1, tile2)
	}
	if calls != 1 {
		t.Fatalf("produce called %d times, want 1", calls)
	}
	if a.PendingUploads() != 1 {
		t.Fatalf("cache hit enqueued an upload, pending = %d", a.PendingUploads())
	}
	if s := a.Stats(); s.Hits != 1 || s.Misses != 1 || s.Tiles != 1 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestNoContentNotCached(t *testing.T) {
	a, _ := newTestAtlas()
	key := GlyphKey{FontID: 1, GlyphID: 32} // a space

	calls := 0
	produce := func() (Bitmap, bool) {
		calls++
		return Bitmap{}, false
	}
	if _, ok := a.GetOrInsert(key, produce); ok {
		t.Fatal("no-content producer yielded a tile")
	}
	if _, ok := a.GetOrInsert(key, produce); ok {
		t.Fatal("no-content producer yielded a tile on retry")
	}
	// no caching of absence: each miss asks the producer again
	if calls != 2 {
		t.Fatalf("produce called %d times, want 2", calls)
	}
	if a.PendingUploads() != 0 {
		t.Fatal("no-content insert enqueued an upload")
	}
}

func TestMismatchedDataDropped(t *testing.T) {
	a, _ := newTestAtlas()
	key := ImageKey{ImageID: 7, ScaleFactor: 1}

	produce := func() (Bitmap, bool) {
		// polychrome wants 4 bytes per pixel, hand over 1
		return Bitmap{Size: fmath.Sz[fmath.DevicePixels](4, 4), Data: make([]byte, 16)}, true
	}
	if _, ok := a.GetOrInsert(key, produce); ok {
		t.Fatal("mismatched data produced a tile")
	}
	if a.PendingUploads() != 0 {
		t.Fatal("mismatched data enqueued an upload")
	}
	if s := a.Stats(); s.Tiles != 0 {
		t.Fatalf("mismatched data was cached: %+v", s)
	}
}

func TestRemoveUnknownKeyNoop(t *testing.T) {
	a, _ := newTestAtlas()
	a.Remove(GlyphKey{FontID: 99, GlyphID: 99})
	if s := a.Stats(); s != (Stats{}) {
		t.Fatalf("stats changed: %+v", s)
	}
}

func TestRemoveIsConservative(t *testing.T) {
	a, _ := newTestAtlas()
	keyA := GlyphKey{FontID: 1, GlyphID: 65}
	keyB := GlyphKey{FontID: 1, GlyphID: 66}

	tileA, ok := a.GetOrInsert(keyA, glyphBitmap(8, 8, 0xff))
	if !ok {
		t.Fatal("insert A failed")
	}
	a.Remove(keyA)
	tileB, ok := a.GetOrInsert(keyB, glyphBitmap(8, 8, 0x7f))
	if !ok {
		t.Fatal("insert B failed")
	}
	if tileA.Texture == tileB.Texture && tileA.Bounds == tileB.Bounds {
		t.Fatal("B reused A's rectangle in the same frame")
	}
}

func TestOverflowCreatesTexture(t *testing.T) {
	a, fb := newTestAtlas()
	// 256 64x64 tiles fill the first 1024x1024 texture exactly
	for i := range 256 {
		key := GlyphKey{FontID: 1, GlyphID: uint16(i)}
		tile, ok := a.GetOrInsert(key, glyphBitmap(64, 64, 1))
		if !ok {
			t.Fatalf("insert %d failed", i)
		}
		if tile.Texture.Index != 0 {
			t.Fatalf("insert %d landed on texture %d before the first was full", i, tile.Texture.Index)
		}
	}
	tile, ok := a.GetOrInsert(GlyphKey{FontID: 2, GlyphID: 0}, glyphBitmap(64, 64, 1))
	if !ok {
		t.Fatal("insert after fill failed")
	}
	if tile.Texture.Index != 1 {
		t.Fatalf("overflow insert landed on texture %d, want 1", tile.Texture.Index)
	}
	if fb.created != 2 {
		t.Fatalf("%d textures created, want 2", fb.created)
	}
}

func TestOversizedTileGetsOwnTexture(t *testing.T) {
	a, _ := newTestAtlas()
	tile, ok := a.GetOrInsert(ImageKey{ImageID: 1}, func() (Bitmap, bool) {
		size := fmath.Sz[fmath.DevicePixels](2000, 100)
		return Bitmap{Size: size, Data: make([]byte, 2000*100*4)}, true
	})
	if !ok {
		t.Fatal("oversized insert failed")
	}
	if tile.Bounds.Size != fmath.Sz[fmath.DevicePixels](2000, 100) {
		t.Fatalf("tile size = %v", tile.Bounds.Size)
	}
	if tile.Texture.Kind != Polychrome {
		t.Fatalf("image landed in %v texture", tile.Texture.Kind)
	}
}

func TestFlushDrainsUploads(t *testing.T) {
	a, fb := newTestAtlas()
	for i := range 5 {
		a.GetOrInsert(GlyphKey{FontID: 1, GlyphID: uint16(i)}, glyphBitmap(8, 8, byte(i)))
	}
	if a.PendingUploads() != 5 {
		t.Fatalf("pending = %d, want 5", a.PendingUploads())
	}
	a.Flush(profiler.Nop{})
	if a.PendingUploads() != 0 {
		t.Fatalf("pending = %d after flush", a.PendingUploads())
	}
	if len(fb.writes) != 5 {
		t.Fatalf("backend received %d writes, want 5", len(fb.writes))
	}
	if s := a.Stats(); s.Hits != 0 || s.Misses != 0 {
		t.Fatalf("stats not reset by flush: %+v", s)
	}
	if s := a.Stats(); s.Tiles != 5 {
		t.Fatalf("tiles = %d, want 5", s.Tiles)
	}
	a.Flush(profiler.Nop{})
	if len(fb.writes) != 5 {
		t.Fatal("second flush re-sent uploads")
	}
}

func TestDestroyTextureRecyclesIndex(t *testing.T) {
	a, fb := newTestAtlas()
	key := GlyphKey{FontID: 1, GlyphID: 1}
	tile, ok := a.GetOrInsert(key, glyphBitmap(8, 8, 0xff))
	if !ok {
		t.Fatal("insert failed")
	}

	a.DestroyTexture(tile.Texture)
	if fb.destroyed != 1 {
		t.Fatalf("destroyed = %d, want 1", fb.destroyed)
	}
	if _, ok := a.TextureView(tile.Texture); ok {
		t.Fatal("destroyed texture still has a view")
	}
	// stale entry: eviction must not underflow anything
	a.Remove(key)

	tile2, ok := a.GetOrInsert(GlyphKey{FontID: 1, GlyphID: 2}, glyphBitmap(8, 8, 0xff))
	if !ok {
		t.Fatal("insert after destroy failed")
	}
	if tile2.Texture.Index != 0 {
		t.Fatalf("new texture got index %d, want recycled 0", tile2.Texture.Index)
	}
}

func TestFlushDropsUploadsForDestroyedTexture(t *testing.T) {
	a, fb := newTestAtlas()
	tile, ok := a.GetOrInsert(GlyphKey{FontID: 1, GlyphID: 1}, glyphBitmap(8, 8, 0xff))
	if !ok {
		t.Fatal("insert failed")
	}
	a.DestroyTexture(tile.Texture)
	a.Flush(profiler.Nop{})
	if len(fb.writes) != 0 {
		t.Fatalf("flush wrote %d uploads to a destroyed texture", len(fb.writes))
	}
}
