// Package shaders carries the WGSL source shared by all render pipelines.
package shaders

import _ "embed"

// Source is one WGSL module containing the entry points of every pipeline.
// The engine creates a single shader module from it; cmd/check-shaders and
// the tests validate it offline with naga.
//
//go:embed shaders.wgsl
var Source string
