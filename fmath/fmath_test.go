package fmath

import "testing"

func TestAlignUp(t *testing.T) {
	tests := []struct {
		v, alignment, want uint64
	}{
		{0, 256, 0},
		{1, 256, 256},
		{255, 256, 256},
		{256, 256, 256},
		{257, 256, 512},
		{4096, 256, 4096},
		{13, 4, 16},
	}
	for _, tt := range tests {
		if got := AlignUp(tt.v, tt.alignment); got != tt.want {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", tt.v, tt.alignment, got, tt.want)
		}
	}
}

func TestBoundsIntersects(t *testing.T) {
	a := Rect[DevicePixels](0, 0, 10, 10)
	tests := []struct {
		name string
		b    Bounds[DevicePixels]
		want bool
	}{
		{"overlapping", Rect[DevicePixels](5, 5, 10, 10), true},
		{"contained", Rect[DevicePixels](2, 2, 4, 4), true},
		{"touching right edge", Rect[DevicePixels](10, 0, 5, 5), false},
		{"touching bottom edge", Rect[DevicePixels](0, 10, 5, 5), false},
		{"disjoint", Rect[DevicePixels](20, 20, 5, 5), false},
	}
	for _, tt := range tests {
		if got := a.Intersects(tt.b); got != tt.want {
			t.Errorf("%s: Intersects = %v, want %v", tt.name, got, tt.want)
		}
		if got := tt.b.Intersects(a); got != tt.want {
			t.Errorf("%s (flipped): Intersects = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestScaledPixelsRounding(t *testing.T) {
	if got := ScaledPixels(7.2).Ceil(); got != 8 {
		t.Errorf("Ceil(7.2) = %d, want 8", got)
	}
	if got := ScaledPixels(7.2).Floor(); got != 7 {
		t.Errorf("Floor(7.2) = %d, want 7", got)
	}
	if got := ScaledPixels(7.5).Round(); got != 8 {
		t.Errorf("Round(7.5) = %d, want 8", got)
	}
	if got := ScaledPixels(-1.2).Floor(); got != -2 {
		t.Errorf("Floor(-1.2) = %d, want -2", got)
	}
}

func TestSizeArea(t *testing.T) {
	if got := Sz[DevicePixels](1024, 1024).Area(); got != 1<<20 {
		t.Errorf("Area = %d, want %d", got, 1<<20)
	}
	if !Sz[DevicePixels](0, 5).IsEmpty() {
		t.Error("0x5 size should be empty")
	}
	if Sz[DevicePixels](1, 1).IsEmpty() {
		t.Error("1x1 size should not be empty")
	}
}
