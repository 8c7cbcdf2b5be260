// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package profiler decouples packages that report timing spans from the
// engine's GPU-backed profiler implementation.
package profiler

type ProfilerGroup interface {
	Start(label string) ProfilerGroup
	End()
}

// Nop is a ProfilerGroup that records nothing, for callers that don't have a
// profiler.
type Nop struct{}

func (Nop) Start(label string) ProfilerGroup { return Nop{} }
func (Nop) End()                             {}
