// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Command check-shaders validates the renderer's WGSL with naga. By default
// it checks the embedded source; pass a file to check an edited copy without
// rebuilding, and -o to keep the SPIR-V for inspection.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gogpu/naga"
	"honnef.co/go/fresco/engine/wgpu_engine/shaders"
)

func main() {
	var out string
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-o <file>] [shader.wgsl]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&out, "o", "", "Write the compiled SPIR-V to `file`")
	flag.Parse()

	dief := func(f string, v ...any) {
		fmt.Fprintf(os.Stderr, f, v...)
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}

	source := shaders.Source
	name := "embedded shaders"
	switch flag.NArg() {
	case 0:
	case 1:
		name = flag.Arg(0)
		b, err := os.ReadFile(name)
		if err != nil {
			dief("Couldn't read %q: %s", name, err)
		}
		source = string(b)
	default:
		flag.Usage()
		os.Exit(2)
	}

	spirv, err := naga.Compile(source)
	if err != nil {
		msg := err.Error()
		// naga's WGSL frontend doesn't cover the full language yet. Missing
		// features aren't shader bugs, so don't fail on them.
		if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
			fmt.Fprintf(os.Stderr, "%s: naga limitation: %s\n", name, err)
			return
		}
		dief("%s: %s", name, err)
	}
	fmt.Printf("%s: ok, %d bytes of SPIR-V\n", name, len(spirv))
	if out != "" {
		if err := os.WriteFile(out, spirv, 0666); err != nil {
			dief("Couldn't write %q: %s", out, err)
		}
	}
}
