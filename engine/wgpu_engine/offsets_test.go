package wgpu_engine

import (
	"testing"
)

func TestReserveAlignsOffsets(t *testing.T) {
	var fo frameOffsets
	prev := -1
	for _, count := range []int{1, 3, 17, 100} {
		off, n := fo.reserve(kindQuads, count, gpuQuadSize, kindQuads.bufferSize())
		if n != count {
			t.Fatalf("reserve(%d) clamped to %d with room to spare", count, n)
		}
		if off%storageBufferAlignment != 0 {
			t.Errorf("offset %d is not %d-byte aligned", off, storageBufferAlignment)
		}
		if off <= prev {
			t.Errorf("offset %d overlaps the previous batch ending at %d", off, prev)
		}
		prev = off + count*gpuQuadSize - 1
	}
}

func TestReserveKindsIndependent(t *testing.T) {
	var fo frameOffsets
	if off, _ := fo.reserve(kindQuads, 5, gpuQuadSize, kindQuads.bufferSize()); off != 0 {
		t.Errorf("first quad batch at offset %d, want 0", off)
	}
	if off, _ := fo.reserve(kindShadows, 5, gpuShadowSize, kindShadows.bufferSize()); off != 0 {
		t.Errorf("first shadow batch at offset %d, want 0", off)
	}
	if off, _ := fo.reserve(kindQuads, 5, gpuQuadSize, kindQuads.bufferSize()); off == 0 {
		t.Error("second quad batch reuses offset 0")
	}
}

func TestReserveClampsToCapacity(t *testing.T) {
	var fo frameOffsets
	capacity := 4 * storageBufferAlignment
	want := capacity / gpuQuadSize
	off, n := fo.reserve(kindQuads, want+10, gpuQuadSize, capacity)
	if off != 0 {
		t.Fatalf("offset = %d, want 0", off)
	}
	if n != want {
		t.Fatalf("n = %d, want clamp to %d", n, want)
	}
	if _, n := fo.reserve(kindQuads, 1, gpuQuadSize, capacity); n != 0 {
		t.Fatalf("reserve in a full buffer returned n = %d, want 0", n)
	}
}

func TestReserveOverfullFrame(t *testing.T) {
	// A frame with more quads than the instance buffer holds draws the first
	// maxQuadsPerFrame and drops the rest.
	var fo frameOffsets
	if _, n := fo.reserve(kindQuads, 5000, gpuQuadSize, kindQuads.bufferSize()); n != maxQuadsPerFrame {
		t.Fatalf("n = %d, want %d", n, maxQuadsPerFrame)
	}
}

func TestReserveFillsWholeBuffer(t *testing.T) {
	var fo frameOffsets
	off, n := fo.reserve(kindQuads, maxQuadsPerFrame, gpuQuadSize, kindQuads.bufferSize())
	if off != 0 || n != maxQuadsPerFrame {
		t.Fatalf("got offset %d, n %d, want the full buffer", off, n)
	}
	if _, n := fo.reserve(kindQuads, 1, gpuQuadSize, kindQuads.bufferSize()); n != 0 {
		t.Fatalf("reserve after filling the buffer returned n = %d, want 0", n)
	}
	fo.reset()
	if off, n := fo.reserve(kindQuads, 1, gpuQuadSize, kindQuads.bufferSize()); off != 0 || n != 1 {
		t.Fatalf("reserve after reset returned offset %d, n %d", off, n)
	}
}

func TestBufferSizesAligned(t *testing.T) {
	for kind := range numDrawKinds {
		size := kind.bufferSize()
		if size <= 0 {
			t.Errorf("%v buffer size = %d", kind, size)
		}
		if size%storageBufferAlignment != 0 {
			t.Errorf("%v buffer size %d is not a multiple of %d", kind, size, storageBufferAlignment)
		}
	}
}

func TestStorageBindings(t *testing.T) {
	// must match the binding declarations in shaders.wgsl
	want := map[drawKind]uint32{
		kindQuads:       3,
		kindShadows:     4,
		kindUnderlines:  5,
		kindPaths:       6,
		kindMonoSprites: 7,
		kindPolySprites: 8,
	}
	for kind, binding := range want {
		if got := kind.storageBinding(); got != binding {
			t.Errorf("%v bound at %d, want %d", kind, got, binding)
		}
	}
}
