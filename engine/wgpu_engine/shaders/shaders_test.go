package shaders

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"
)

func TestSourceCompiles(t *testing.T) {
	if Source == "" {
		t.Fatal("embedded shader source is empty")
	}

	spirv, err := naga.Compile(Source)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
			t.Skipf("naga limitation: %v", err)
		}
		t.Fatalf("compiling shaders: %v", err)
	}
	if len(spirv) < 4 {
		t.Fatalf("SPIR-V output too short: %d bytes", len(spirv))
	}
	magic := uint32(spirv[0]) | uint32(spirv[1])<<8 | uint32(spirv[2])<<16 | uint32(spirv[3])<<24
	if magic != 0x07230203 {
		t.Errorf("invalid SPIR-V magic: got %#08x, want 0x07230203", magic)
	}
}

func TestSourceEntryPoints(t *testing.T) {
	entryPoints := []string{
		"vs_quad", "fs_quad",
		"vs_shadow", "fs_shadow",
		"vs_underline", "fs_underline",
		"vs_underline_wavy", "fs_underline_wavy",
		"vs_path", "fs_path",
		"vs_mono_sprite", "fs_mono_sprite",
		"vs_poly_sprite", "fs_poly_sprite",
	}
	for _, name := range entryPoints {
		if !strings.Contains(Source, "fn "+name+"(") {
			t.Errorf("missing entry point %s", name)
		}
	}
}
