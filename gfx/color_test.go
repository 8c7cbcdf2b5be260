package gfx

import (
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestHslaSRGBA(t *testing.T) {
	tests := []struct {
		name string
		in   Hsla
		want [4]float32
	}{
		{"black", Hsla{0, 0, 0, 1}, [4]float32{0, 0, 0, 1}},
		{"white", Hsla{0, 0, 1, 1}, [4]float32{1, 1, 1, 1}},
		{"mid gray", Hsla{0.3, 0, 0.5, 1}, [4]float32{0.5, 0.5, 0.5, 1}},
		{"red", Hsla{0, 1, 0.5, 1}, [4]float32{1, 0, 0, 1}},
		{"green", Hsla{1.0 / 3.0, 1, 0.5, 1}, [4]float32{0, 1, 0, 1}},
		{"blue", Hsla{2.0 / 3.0, 1, 0.5, 1}, [4]float32{0, 0, 1, 1}},
		{"half alpha", Hsla{0, 0, 1, 0.5}, [4]float32{1, 1, 1, 0.5}},
	}
	for _, tt := range tests {
		got := tt.in.SRGBA()
		for i := range got {
			if !approx(got[i], tt.want[i]) {
				t.Errorf("%s: SRGBA() = %v, want %v", tt.name, got, tt.want)
				break
			}
		}
	}
}

func TestBackgroundZeroValue(t *testing.T) {
	var bg Background
	if bg.Tag != BackgroundSolid {
		t.Errorf("zero Background tag = %d, want solid", bg.Tag)
	}
	if !bg.Solid.IsTransparent() {
		t.Error("zero Background should be transparent")
	}
}
