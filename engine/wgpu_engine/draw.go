package wgpu_engine

import (
	"log/slog"
	"unsafe"

	"honnef.co/go/fresco/mem"
	"honnef.co/go/fresco/scene"
	"honnef.co/go/safeish"
	"honnef.co/go/wgpu"
)

// Draw renders one frame of the scene to the surface texture and reports
// whether a frame was submitted. It blocks until the GPU has finished the
// frame submitted two calls ago, flushes pending atlas uploads, then records
// all batches into a single multisampled render pass that resolves into the
// surface. A nil surface skips the frame.
//
// Transient allocations live in arena; the caller resets it between frames.
func (r *Renderer) Draw(arena *mem.Arena, sc *scene.Scene, surface *wgpu.SurfaceTexture, pgroup *ProfilerGroup) bool {
	pgroup = pgroup.Nest("Draw")
	defer pgroup.End()

	r.fence.wait()
	r.atlas.Flush(pgroup)

	if surface == nil {
		slog.Warn("no surface texture, skipping frame")
		return false
	}
	surfaceView := surface.Texture.CreateView(nil)
	defer surfaceView.Release()

	r.offsets.reset()
	binds := mem.NewSlice[[]*wgpu.BindGroup](arena, 0, 16)

	encoder := r.dev.CreateCommandEncoder(nil)
	defer encoder.Release()
	span := pgroup.Begin(encoder, "frame")

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          r.msaa.View,
				ResolveTarget: surfaceView,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       wgpu.StoreOpDiscard,
				ClearValue:    wgpu.Color{},
			},
		},
		TimestampWrites: pgroup.Render(arena, "scene"),
	})

	drawUnderlines := func(us []scene.Underline, pipeline *wgpu.RenderPipeline) {
		if len(us) == 0 {
			return
		}
		off, size, n := stageBatch(r, arena, kindUnderlines, us, gpuUnderlineOf)
		if n == 0 {
			return
		}
		bg := r.bindInstances(arena, kindUnderlines, off, size, nil)
		binds = mem.Append(arena, binds, bg)
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Draw(4, uint32(n), 0, 0)
	}

	for b := range sc.Batches() {
		switch b.Kind {
		case scene.BatchQuads:
			off, size, n := stageBatch(r, arena, kindQuads, b.Quads, gpuQuadOf)
			if n == 0 {
				continue
			}
			bg := r.bindInstances(arena, kindQuads, off, size, nil)
			binds = mem.Append(arena, binds, bg)
			pass.SetPipeline(r.pipelines[kindQuads])
			pass.SetBindGroup(0, bg, nil)
			pass.Draw(4, uint32(n), 0, 0)

		case scene.BatchShadows:
			off, size, n := stageBatch(r, arena, kindShadows, b.Shadows, gpuShadowOf)
			if n == 0 {
				continue
			}
			bg := r.bindInstances(arena, kindShadows, off, size, nil)
			binds = mem.Append(arena, binds, bg)
			pass.SetPipeline(r.pipelines[kindShadows])
			pass.SetBindGroup(0, bg, nil)
			pass.Draw(4, uint32(n), 0, 0)

		case scene.BatchUnderlines:
			// Straight and wavy underlines use different entry points but
			// share the underline instance buffer.
			straight, wavy := splitUnderlines(arena, b.Underlines)
			drawUnderlines(straight, r.pipelines[kindUnderlines])
			drawUnderlines(wavy, r.wavyPipeline)

		case scene.BatchPaths:
			off, n := r.stagePaths(arena, b.Paths)
			if n == 0 {
				continue
			}
			bg := r.bindInstances(arena, kindPaths, off, n*gpuPathVertexSize, nil)
			binds = mem.Append(arena, binds, bg)
			pass.SetPipeline(r.pipelines[kindPaths])
			pass.SetBindGroup(0, bg, nil)
			pass.Draw(uint32(n), 1, 0, 0)

		case scene.BatchMonochromeSprites:
			view, ok := r.atlas.TextureView(b.Texture)
			if !ok {
				slog.Warn("atlas texture gone, skipping sprite batch", "texture", b.Texture)
				continue
			}
			off, size, n := stageBatch(r, arena, kindMonoSprites, b.MonochromeSprites, gpuMonoSpriteOf)
			if n == 0 {
				continue
			}
			bg := r.bindInstances(arena, kindMonoSprites, off, size, view)
			binds = mem.Append(arena, binds, bg)
			pass.SetPipeline(r.pipelines[kindMonoSprites])
			pass.SetBindGroup(0, bg, nil)
			pass.Draw(4, uint32(n), 0, 0)

		case scene.BatchPolychromeSprites:
			view, ok := r.atlas.TextureView(b.Texture)
			if !ok {
				slog.Warn("atlas texture gone, skipping sprite batch", "texture", b.Texture)
				continue
			}
			off, size, n := stageBatch(r, arena, kindPolySprites, b.PolychromeSprites, gpuPolySpriteOf)
			if n == 0 {
				continue
			}
			bg := r.bindInstances(arena, kindPolySprites, off, size, view)
			binds = mem.Append(arena, binds, bg)
			pass.SetPipeline(r.pipelines[kindPolySprites])
			pass.SetBindGroup(0, bg, nil)
			pass.Draw(4, uint32(n), 0, 0)

		default:
			// Unknown batch kind, skip it.
		}
	}

	pass.End()
	for _, bg := range binds {
		bg.Release()
	}
	pass.Release()

	span.End(encoder)
	fence := r.fence.record(encoder)

	cmd := encoder.Finish(nil)
	defer cmd.Release()
	r.queue.Submit(cmd)
	r.fence.signal(fence)
	return true
}

// stageBatch converts a batch of primitives to their GPU layout and uploads
// them to the kind's instance buffer. It returns the byte range of the
// upload and the number of instances that fit.
func stageBatch[G, P any](r *Renderer, arena *mem.Arena, kind drawKind, prims []P, conv func(P) G) (off, size, n int) {
	var zero G
	instSize := int(unsafe.Sizeof(zero))
	off, n = r.offsets.reserve(kind, len(prims), instSize, kind.bufferSize())
	if n == 0 {
		return off, 0, 0
	}
	gpu := mem.NewSlice[[]G](arena, n, n)
	for i := range n {
		gpu[i] = conv(prims[i])
	}
	r.queue.WriteBuffer(r.instances[kind], uint64(off), safeish.SliceCast[[]byte](gpu))
	return off, n * instSize, n
}

// stagePaths flattens the batch's path vertices into the path instance
// buffer. Paths draw as a triangle list, so when the buffer runs out the
// vertex count is clamped to whole triangles.
func (r *Renderer) stagePaths(arena *mem.Arena, paths []scene.Path) (off, n int) {
	total := 0
	for i := range paths {
		total += len(paths[i].Vertices)
	}
	off, n = r.offsets.reserve(kindPaths, total, gpuPathVertexSize, kindPaths.bufferSize())
	n -= n % 3
	if n == 0 {
		return off, 0
	}
	verts := mem.NewSlice[[]gpuPathVertex](arena, 0, n)
flatten:
	for i := range paths {
		p := &paths[i]
		for j := range p.Vertices {
			if len(verts) == n {
				break flatten
			}
			verts = append(verts, gpuPathVertexOf(p, p.Vertices[j]))
		}
	}
	r.queue.WriteBuffer(r.instances[kindPaths], uint64(off), safeish.SliceCast[[]byte](verts))
	return off, n
}

// splitUnderlines partitions a batch into straight and wavy runs, keeping
// relative order within each.
func splitUnderlines(arena *mem.Arena, us []scene.Underline) (straight, wavy []scene.Underline) {
	nw := 0
	for i := range us {
		if us[i].Wavy {
			nw++
		}
	}
	switch nw {
	case 0:
		return us, nil
	case len(us):
		return nil, us
	}
	straight = mem.NewSlice[[]scene.Underline](arena, 0, len(us)-nw)
	wavy = mem.NewSlice[[]scene.Underline](arena, 0, nw)
	for i := range us {
		if us[i].Wavy {
			wavy = append(wavy, us[i])
		} else {
			straight = append(straight, us[i])
		}
	}
	return straight, wavy
}

// bindInstances creates the bind group for one batch, pointing the kind's
// storage binding at the staged byte range. Sprite kinds additionally bind
// the atlas texture and sampler.
func (r *Renderer) bindInstances(arena *mem.Arena, kind drawKind, off, size int, view *wgpu.TextureView) *wgpu.BindGroup {
	entries := mem.NewSlice[[]wgpu.BindGroupEntry](arena, 0, 4)
	entries = append(entries, wgpu.BindGroupEntry{
		Binding: 0,
		Buffer:  r.globals,
		Size:    ^uint64(0),
	})
	if view != nil {
		entries = append(entries,
			wgpu.BindGroupEntry{
				Binding:     1,
				TextureView: view,
				Size:        ^uint64(0),
			},
			wgpu.BindGroupEntry{
				Binding: 2,
				Sampler: r.sampler,
				Size:    ^uint64(0),
			},
		)
	}
	entries = append(entries, wgpu.BindGroupEntry{
		Binding: kind.storageBinding(),
		Buffer:  r.instances[kind],
		Offset:  uint64(off),
		Size:    uint64(size),
	})
	return r.dev.CreateBindGroup(mem.Make(arena, wgpu.BindGroupDescriptor{
		Layout:  r.layouts[kind],
		Entries: entries,
	}))
}
