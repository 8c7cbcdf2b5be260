// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package wgpu_engine

import (
	"log/slog"
	"time"

	"honnef.co/go/wgpu"
)

// completionWaitTimeout bounds how long a frame blocks on the previous
// frame's fence before carrying on without it.
const completionWaitTimeout = 1000 * time.Millisecond

// frameFence observes frame completion. Each frame ends its command stream
// with a copy into a tiny mappable buffer; the map callback firing means the
// GPU has consumed every command before the copy, so the instance buffers
// can be overwritten.
type frameFence struct {
	dev     *wgpu.Device
	scratch *wgpu.Buffer

	// free list of mappable buffers
	bufs []*wgpu.Buffer

	// fences for submitted frames, oldest first
	inFlight []pendingFence
}

type pendingFence struct {
	buf *wgpu.Buffer
	ch  <-chan error
}

func newFrameFence(dev *wgpu.Device) *frameFence {
	return &frameFence{
		dev: dev,
		scratch: dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "fence scratch",
			Size:  8,
			Usage: wgpu.BufferUsageCopySrc,
		}),
	}
}

func (f *frameFence) getBuf() *wgpu.Buffer {
	if n := len(f.bufs); n > 0 {
		buf := f.bufs[n-1]
		f.bufs = f.bufs[:n-1]
		return buf
	}
	return f.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "fence",
		Size:  8,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
}

// record appends the fence copy to a frame's command stream and returns the
// fence buffer. signal must be called with it once the commands have been
// submitted.
func (f *frameFence) record(enc *wgpu.CommandEncoder) *wgpu.Buffer {
	buf := f.getBuf()
	enc.CopyBufferToBuffer(f.scratch, 0, buf, 0, 8)
	return buf
}

func (f *frameFence) signal(buf *wgpu.Buffer) {
	f.inFlight = append(f.inFlight, pendingFence{
		buf: buf,
		ch:  buf.Map(f.dev, wgpu.MapModeRead, 0, 8),
	})
}

// wait blocks until the oldest in-flight fence has signalled, at most
// completionWaitTimeout. On timeout the fence stays in flight and is
// collected by a later wait; rendering continues either way.
func (f *frameFence) wait() {
	if len(f.inFlight) == 0 {
		return
	}

	done := 0
	timer := time.NewTimer(completionWaitTimeout)
	select {
	case err := <-f.inFlight[0].ch:
		f.finish(f.inFlight[0], err)
		done++
	case <-timer.C:
		slog.Warn("GPU did not finish the previous frame in time",
			"timeout", completionWaitTimeout)
	}
	timer.Stop()

	if done > 0 {
		// Collect newer fences that have signalled in the meantime. We stop
		// at the first one that hasn't, so buffers return to the free list
		// in submission order.
	collect:
		for done < len(f.inFlight) {
			select {
			case err := <-f.inFlight[done].ch:
				f.finish(f.inFlight[done], err)
				done++
			default:
				break collect
			}
		}
	}

	copy(f.inFlight, f.inFlight[done:])
	clear(f.inFlight[len(f.inFlight)-done:])
	f.inFlight = f.inFlight[:len(f.inFlight)-done]
}

func (f *frameFence) finish(p pendingFence, err error) {
	if err != nil {
		// The buffer is in an unknown state; don't recycle it.
		slog.Error("mapping fence buffer", "err", err)
		return
	}
	p.buf.Unmap()
	f.bufs = append(f.bufs, p.buf)
}
