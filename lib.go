// Package fresco renders retained-mode UI scenes on the GPU. Glyphs and
// images are cached in texture atlases; every frame, the scene's primitives
// are grouped into instanced batches and drawn in one multisampled render
// pass that resolves into the surface.
//
// The packages divide the work as follows: scene accumulates a frame's
// primitives and batches them, atlas owns rasterized content and its GPU
// textures, and engine/wgpu_engine records and submits the frames. This
// package ties them together behind a single Renderer for embedders that
// don't need the pieces individually.
package fresco

import (
	"honnef.co/go/fresco/atlas"
	"honnef.co/go/fresco/engine/wgpu_engine"
	"honnef.co/go/fresco/fmath"
	"honnef.co/go/fresco/mem"
	"honnef.co/go/fresco/scene"
	"honnef.co/go/wgpu"
)

type Options struct {
	// SurfaceFormat is the texture format of the surfaces passed to Draw and
	// Clear.
	SurfaceFormat wgpu.TextureFormat
	// Size is the initial size of the drawable area.
	Size fmath.Size[fmath.DevicePixels]
	// PremultipliedAlpha has shaders emit premultiplied color, for surfaces
	// composited with premultiplied alpha.
	PremultipliedAlpha bool
	// Profile enables GPU timestamp profiling of frames. Results come from
	// Profile; the device has to support timestamp queries.
	Profile bool
}

type Renderer struct {
	dev      *wgpu.Device
	queue    *wgpu.Queue
	atlas    *atlas.Atlas
	engine   *wgpu_engine.Renderer
	arena    *mem.Arena
	profiler *wgpu_engine.Profiler
	frame    uint64
}

func NewRenderer(dev *wgpu.Device, queue *wgpu.Queue, options Options) (*Renderer, error) {
	atl := atlas.New(dev, queue)
	engine, err := wgpu_engine.New(dev, queue, atl, wgpu_engine.Options{
		SurfaceFormat:      options.SurfaceFormat,
		Size:               options.Size,
		PremultipliedAlpha: options.PremultipliedAlpha,
	})
	if err != nil {
		return nil, err
	}
	profiler := wgpu_engine.NewNopProfiler()
	if options.Profile {
		profiler = wgpu_engine.NewProfiler(dev)
	}
	return &Renderer{
		dev:      dev,
		queue:    queue,
		atlas:    atl,
		engine:   engine,
		arena:    mem.NewArena(),
		profiler: profiler,
	}, nil
}

// Atlas returns the texture atlas that glyphs and images get rasterized
// into. Embedders insert and remove tiles; the renderer uploads and samples
// them.
func (r *Renderer) Atlas() *atlas.Atlas { return r.atlas }

// Draw renders one frame of the scene to the surface texture and reports
// whether a frame was submitted. The scene is only read; the caller owns it
// and typically resets it afterwards.
func (r *Renderer) Draw(sc *scene.Scene, surface *wgpu.SurfaceTexture) bool {
	r.arena.Reset()
	pgroup := r.profiler.Start(r.frame)
	r.frame++
	ok := r.engine.Draw(r.arena, sc, surface, pgroup)
	pgroup.End()
	if r.profiler != nil {
		enc := r.dev.CreateCommandEncoder(nil)
		r.profiler.Resolve(enc)
		cmd := enc.Finish(nil)
		r.queue.Submit(cmd)
		cmd.Release()
		r.profiler.Map()
	}
	return ok
}

// Clear paints the surface opaque black without drawing a scene.
func (r *Renderer) Clear(surface *wgpu.SurfaceTexture) bool {
	return r.engine.Clear(surface)
}

// Resize adjusts the renderer to a new drawable size. The embedder owns the
// surface and reconfigures it itself.
func (r *Renderer) Resize(size fmath.Size[fmath.DevicePixels]) {
	r.engine.Resize(size)
}

// Size returns the current size of the drawable area.
func (r *Renderer) Size() fmath.Size[fmath.DevicePixels] {
	return r.engine.Size()
}

// Profile returns the GPU timings of frames that have finished since the
// last call. The result is tagged with the frame number passed to the
// profiler and is only valid until the next call.
func (r *Renderer) Profile() []wgpu_engine.ProfilerResult {
	return r.profiler.Collect()
}
