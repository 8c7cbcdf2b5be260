package wgpu_engine

import (
	"fmt"
	"log/slog"

	"honnef.co/go/fresco/fmath"
)

// Capacities of the per-kind instance buffers, in instances. A frame that
// exceeds one of them truncates or drops the excess batches with a warning;
// the rest of the frame still renders.
const (
	maxQuadsPerFrame        = 4096
	maxShadowsPerFrame      = 4096
	maxUnderlinesPerFrame   = 4096
	maxSpritesPerFrame      = 4096
	maxPathVerticesPerFrame = 65536
)

// storageBufferAlignment is WebGPU's minimum offset alignment for storage
// buffer bindings.
const storageBufferAlignment = 256

type drawKind int

const (
	kindQuads drawKind = iota
	kindShadows
	kindUnderlines
	kindPaths
	kindMonoSprites
	kindPolySprites
	numDrawKinds
)

// storageBinding returns the shader binding number of the kind's instance
// buffer. Bindings 3 through 8 in shaders.wgsl follow drawKind order.
func (k drawKind) storageBinding() uint32 {
	return uint32(3 + int(k))
}

// bufferSize returns the byte capacity of the kind's instance buffer.
func (k drawKind) bufferSize() int {
	switch k {
	case kindQuads:
		return maxQuadsPerFrame * gpuQuadSize
	case kindShadows:
		return maxShadowsPerFrame * gpuShadowSize
	case kindUnderlines:
		return maxUnderlinesPerFrame * gpuUnderlineSize
	case kindPaths:
		return maxPathVerticesPerFrame * gpuPathVertexSize
	case kindMonoSprites:
		return maxSpritesPerFrame * gpuMonoSize
	case kindPolySprites:
		return maxSpritesPerFrame * gpuPolySize
	default:
		panic(fmt.Sprintf("unhandled value %d", int(k)))
	}
}

func (k drawKind) String() string {
	switch k {
	case kindQuads:
		return "quads"
	case kindShadows:
		return "shadows"
	case kindUnderlines:
		return "underlines"
	case kindPaths:
		return "paths"
	case kindMonoSprites:
		return "monochrome sprites"
	case kindPolySprites:
		return "polychrome sprites"
	default:
		panic(fmt.Sprintf("unhandled value %d", int(k)))
	}
}

// frameOffsets hands out byte ranges of the per-kind instance buffers for
// one frame. Each batch occupies [offset, offset+n*size); the next batch of
// the same kind starts at the following storageBufferAlignment boundary,
// which bind group offsets have to sit on.
type frameOffsets struct {
	off [numDrawKinds]int
}

func (fo *frameOffsets) reset() {
	fo.off = [numDrawKinds]int{}
}

// reserve returns the byte offset for a batch of count instances of size
// bytes each, and the number of instances that fit. When the buffer cannot
// hold the whole batch the count is clamped and a warning logged; n == 0
// means the batch has to be skipped entirely.
func (fo *frameOffsets) reserve(kind drawKind, count, size, capacity int) (offset, n int) {
	offset = fo.off[kind]
	n = min(count, (capacity-offset)/size)
	if n < count {
		slog.Warn("instance buffer full, dropping primitives",
			"kind", kind, "drawn", n, "dropped", count-n)
	}
	if n == 0 {
		return offset, 0
	}
	fo.off[kind] = fmath.AlignUp(offset+n*size, storageBufferAlignment)
	return offset, n
}
