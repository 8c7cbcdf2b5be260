// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package atlas

import (
	"fmt"

	"honnef.co/go/fresco/fmath"
)

// AllocID identifies one live allocation within a BucketedAllocator.
type AllocID uint32

// Region is an allocated rectangle. Bounds has the exact requested size; the
// allocator may reserve a larger slot around it internally.
type Region struct {
	ID     AllocID
	Bounds fmath.Bounds[fmath.DevicePixels]
}

// BucketedAllocator bin-packs rectangles into a fixed area using shelves of
// bucketed heights. Shelves are stacked top to bottom as needed; slots within
// a shelf are packed left to right and recycled through a per-shelf free
// list. Allocations of similar height share shelves, which keeps waste
// bounded under glyph-sized workloads.
//
// The allocator never moves live regions and no two live regions overlap.
type BucketedAllocator struct {
	size    fmath.Size[fmath.DevicePixels]
	shelves []shelf
	cursorY fmath.DevicePixels

	slots     []slot
	freeSlots []AllocID
	live      int
}

type shelf struct {
	y       fmath.DevicePixels
	height  fmath.DevicePixels
	cursorX fmath.DevicePixels
	// recycled spans, usable by requests no wider than the span
	free []span
}

type span struct {
	x     fmath.DevicePixels
	width fmath.DevicePixels
}

type slot struct {
	shelf  int
	bounds fmath.Bounds[fmath.DevicePixels]
	// the full width reserved in the shelf, >= bounds.Size.Width when the
	// slot reuses a wider freed span
	width fmath.DevicePixels
	live  bool
}

// shelfBucket quantizes an allocation height to a shelf height. Coarser
// buckets mean fewer, fuller shelves.
func shelfBucket(h fmath.DevicePixels) fmath.DevicePixels {
	return fmath.AlignUp(h, 8)
}

func NewBucketedAllocator(size fmath.Size[fmath.DevicePixels]) *BucketedAllocator {
	if size.IsEmpty() {
		panic(fmt.Sprintf("invalid allocator size %dx%d", size.Width, size.Height))
	}
	return &BucketedAllocator{size: size}
}

func (a *BucketedAllocator) Size() fmath.Size[fmath.DevicePixels] { return a.size }

// IsEmpty reports whether no allocations are live.
func (a *BucketedAllocator) IsEmpty() bool { return a.live == 0 }

// Allocate places a rectangle of the given size. The second return value is
// false when the area is full. Sizes have to be positive and no larger than
// the allocator's size.
func (a *BucketedAllocator) Allocate(size fmath.Size[fmath.DevicePixels]) (Region, bool) {
	if size.IsEmpty() || size.Width > a.size.Width || size.Height > a.size.Height {
		panic(fmt.Sprintf("invalid allocation size %dx%d in %dx%d",
			size.Width, size.Height, a.size.Width, a.size.Height))
	}

	bucket := shelfBucket(size.Height)

	// Prefer an existing shelf of the matching bucket. Tight shelves (see
	// below) are shorter than their bucket and accept requests that fit
	// exactly.
	for i := range a.shelves {
		sh := &a.shelves[i]
		fits := sh.height == bucket || (sh.height < bucket && size.Height <= sh.height)
		if !fits {
			continue
		}
		if r, ok := a.allocateInShelf(i, size); ok {
			return r, true
		}
	}

	// Open a new shelf. When the quantized height no longer fits but the
	// exact height still does, open a tight shelf; this keeps "a fresh
	// texture sized to the request always fits" true.
	height := bucket
	if a.cursorY+height > a.size.Height {
		height = size.Height
		if a.cursorY+height > a.size.Height {
			return Region{}, false
		}
	}
	a.shelves = append(a.shelves, shelf{y: a.cursorY, height: height})
	a.cursorY += height
	r, ok := a.allocateInShelf(len(a.shelves)-1, size)
	if !ok {
		panic("empty shelf rejected allocation")
	}
	return r, true
}

func (a *BucketedAllocator) allocateInShelf(idx int, size fmath.Size[fmath.DevicePixels]) (Region, bool) {
	sh := &a.shelves[idx]

	// First fit among recycled spans.
	for i, sp := range sh.free {
		if sp.width >= size.Width {
			sh.free[i] = sh.free[len(sh.free)-1]
			sh.free = sh.free[:len(sh.free)-1]
			return a.newSlot(idx, sp.x, sp.width, size), true
		}
	}

	if sh.cursorX+size.Width > a.size.Width {
		return Region{}, false
	}
	x := sh.cursorX
	sh.cursorX += size.Width
	return a.newSlot(idx, x, size.Width, size), true
}

func (a *BucketedAllocator) newSlot(shelfIdx int, x, width fmath.DevicePixels, size fmath.Size[fmath.DevicePixels]) Region {
	s := slot{
		shelf:  shelfIdx,
		bounds: fmath.Bounds[fmath.DevicePixels]{
			Origin: fmath.Pt(x, a.shelves[shelfIdx].y),
			Size:   size,
		},
		width: width,
		live:  true,
	}

	var id AllocID
	if len(a.freeSlots) > 0 {
		id = a.freeSlots[len(a.freeSlots)-1]
		a.freeSlots = a.freeSlots[:len(a.freeSlots)-1]
		a.slots[id] = s
	} else {
		id = AllocID(len(a.slots))
		a.slots = append(a.slots, s)
	}
	a.live++
	return Region{ID: id, Bounds: s.bounds}
}

// Free returns a region's slot to its shelf for reuse. Freeing an ID that is
// not live panics; the caller owns the live set.
func (a *BucketedAllocator) Free(id AllocID) {
	if int(id) >= len(a.slots) || !a.slots[id].live {
		panic(fmt.Sprintf("free of dead or unknown allocation %d", id))
	}
	s := &a.slots[id]
	s.live = false
	sh := &a.shelves[s.shelf]
	sh.free = append(sh.free, span{x: s.bounds.Origin.X, width: s.width})
	a.freeSlots = append(a.freeSlots, id)
	a.live--
}
