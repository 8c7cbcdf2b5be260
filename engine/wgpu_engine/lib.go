// Package wgpu_engine renders scenes on the GPU using wgpu. It owns the
// render pipelines, the per-kind instance buffers, and the multisampled
// render target that frames resolve from.
package wgpu_engine

import (
	"fmt"
	"log/slog"

	"honnef.co/go/fresco/atlas"
	"honnef.co/go/fresco/engine/wgpu_engine/shaders"
	"honnef.co/go/fresco/fmath"
	"honnef.co/go/safeish"
	"honnef.co/go/wgpu"
)

const msaaSampleCount = 4

type Options struct {
	// SurfaceFormat is the texture format of the surfaces passed to Draw and
	// Clear.
	SurfaceFormat wgpu.TextureFormat
	// Size is the initial size of the drawable area.
	Size fmath.Size[fmath.DevicePixels]
	// PremultipliedAlpha has shaders emit premultiplied color, for surfaces
	// that get composited with premultiplied alpha.
	PremultipliedAlpha bool
}

type Renderer struct {
	dev   *wgpu.Device
	queue *wgpu.Queue
	atlas *atlas.Atlas

	surfaceFormat      wgpu.TextureFormat
	premultipliedAlpha bool
	size               fmath.Size[fmath.DevicePixels]

	// uniform buffer holding gpuGlobals
	globals *wgpu.Buffer
	// per-kind instance buffers, suballocated by frameOffsets
	instances [numDrawKinds]*wgpu.Buffer
	sampler   *wgpu.Sampler

	layouts   [numDrawKinds]*wgpu.BindGroupLayout
	pipelines [numDrawKinds]*wgpu.RenderPipeline
	// wavy underlines share the underline instance buffer and layout but
	// have their own entry points
	wavyPipeline *wgpu.RenderPipeline

	msaa    *targetTexture
	fence   *frameFence
	offsets frameOffsets
}

func New(dev *wgpu.Device, queue *wgpu.Queue, atlas *atlas.Atlas, options Options) (*Renderer, error) {
	if options.Size.Width <= 0 || options.Size.Height <= 0 {
		return nil, fmt.Errorf("invalid drawable size %dx%d", options.Size.Width, options.Size.Height)
	}

	r := &Renderer{
		dev:                dev,
		queue:              queue,
		atlas:              atlas,
		surfaceFormat:      options.SurfaceFormat,
		premultipliedAlpha: options.PremultipliedAlpha,
		size:               options.Size,
		fence:              newFrameFence(dev),
	}

	module := dev.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  "scene shaders",
		Source: wgpu.ShaderSourceWGSL(shaders.Source),
	})

	r.globals = dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "globals",
		Size:  uint64(gpuGlobalsSize),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	for kind := range numDrawKinds {
		r.instances[kind] = dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: kind.String() + " instances",
			Size:  uint64(kind.bufferSize()),
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		})
	}

	r.sampler = dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "atlas sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})

	for kind := range numDrawKinds {
		r.layouts[kind] = r.newBindGroupLayout(kind)
	}
	r.pipelines[kindQuads] = r.newPipeline(module, r.layouts[kindQuads],
		"quads", "vs_quad", "fs_quad", wgpu.PrimitiveTopologyTriangleStrip)
	r.pipelines[kindShadows] = r.newPipeline(module, r.layouts[kindShadows],
		"shadows", "vs_shadow", "fs_shadow", wgpu.PrimitiveTopologyTriangleStrip)
	r.pipelines[kindUnderlines] = r.newPipeline(module, r.layouts[kindUnderlines],
		"underlines", "vs_underline", "fs_underline", wgpu.PrimitiveTopologyTriangleStrip)
	r.wavyPipeline = r.newPipeline(module, r.layouts[kindUnderlines],
		"wavy underlines", "vs_underline_wavy", "fs_underline_wavy", wgpu.PrimitiveTopologyTriangleStrip)
	r.pipelines[kindPaths] = r.newPipeline(module, r.layouts[kindPaths],
		"paths", "vs_path", "fs_path", wgpu.PrimitiveTopologyTriangleList)
	r.pipelines[kindMonoSprites] = r.newPipeline(module, r.layouts[kindMonoSprites],
		"monochrome sprites", "vs_mono_sprite", "fs_mono_sprite", wgpu.PrimitiveTopologyTriangleStrip)
	r.pipelines[kindPolySprites] = r.newPipeline(module, r.layouts[kindPolySprites],
		"polychrome sprites", "vs_poly_sprite", "fs_poly_sprite", wgpu.PrimitiveTopologyTriangleStrip)

	r.msaa = newTargetTexture(dev, r.surfaceFormat, uint32(r.size.Width), uint32(r.size.Height))
	r.writeGlobals()

	return r, nil
}

func (r *Renderer) newBindGroupLayout(kind drawKind) *wgpu.BindGroupLayout {
	entries := []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: &wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: false,
				MinBindingSize:   0,
			},
		},
	}
	if kind == kindMonoSprites || kind == kindPolySprites {
		// to_tile_position queries the texture size in the vertex stage
		entries = append(entries,
			wgpu.BindGroupLayoutEntry{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Texture: &wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
			wgpu.BindGroupLayoutEntry{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: &wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		)
	}
	entries = append(entries, wgpu.BindGroupLayoutEntry{
		Binding:    kind.storageBinding(),
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		Buffer: &wgpu.BufferBindingLayout{
			Type:             wgpu.BufferBindingTypeReadOnlyStorage,
			HasDynamicOffset: false,
			MinBindingSize:   0,
		},
	})
	return r.dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: entries,
	})
}

func (r *Renderer) newPipeline(
	module *wgpu.ShaderModule,
	layout *wgpu.BindGroupLayout,
	label string,
	vertexEntry, fragmentEntry string,
	topology wgpu.PrimitiveTopology,
) *wgpu.RenderPipeline {
	pipelineLayout := r.dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + " pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	defer pipelineLayout.Release()

	return r.dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " pipeline",
		Layout: pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     module,
			EntryPoint: vertexEntry,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: fragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format: r.surfaceFormat,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
						Alpha: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         topology,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeNone,
		},
		Multisample: &wgpu.MultisampleState{
			Count:                  msaaSampleCount,
			Mask:                   ^uint32(0),
			AlphaToCoverageEnabled: false,
		},
	})
}

type targetTexture struct {
	View   *wgpu.TextureView
	Width  uint32
	Height uint32
}

func newTargetTexture(dev *wgpu.Device, format wgpu.TextureFormat, width, height uint32) *targetTexture {
	tex := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "msaa target",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   msaaSampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageRenderAttachment,
		Format:        format,
	})
	defer tex.Release()
	view := tex.CreateView(nil)
	return &targetTexture{
		View:   view,
		Width:  width,
		Height: height,
	}
}

func (r *Renderer) writeGlobals() {
	g := gpuGlobals{
		ViewportSize: [2]float32{float32(r.size.Width), float32(r.size.Height)},
	}
	if r.premultipliedAlpha {
		g.PremultipliedAlpha = 1
	}
	r.queue.WriteBuffer(r.globals, 0, safeish.AsBytes(&g))
}

// Size returns the current size of the drawable area.
func (r *Renderer) Size() fmath.Size[fmath.DevicePixels] { return r.size }

// Resize adjusts the renderer to a new drawable size. Empty and unchanged
// sizes are ignored.
func (r *Renderer) Resize(size fmath.Size[fmath.DevicePixels]) {
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	width, height := uint32(size.Width), uint32(size.Height)
	if r.msaa.Width == width && r.msaa.Height == height {
		return
	}
	r.size = size
	r.msaa.View.Release()
	r.msaa = newTargetTexture(r.dev, r.surfaceFormat, width, height)
	r.writeGlobals()
}

// Clear paints the surface opaque black, bypassing the scene pipelines. It
// shares the frame fence with Draw and reports whether a frame was
// submitted.
func (r *Renderer) Clear(surface *wgpu.SurfaceTexture) bool {
	r.fence.wait()

	if surface == nil {
		slog.Warn("no surface texture, skipping clear")
		return false
	}
	view := surface.Texture.CreateView(nil)
	defer view.Release()

	encoder := r.dev.CreateCommandEncoder(nil)
	defer encoder.Release()
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	pass.End()
	pass.Release()

	fence := r.fence.record(encoder)
	cmd := encoder.Finish(nil)
	defer cmd.Release()
	r.queue.Submit(cmd)
	r.fence.signal(fence)
	return true
}
