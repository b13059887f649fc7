// Copyright 2024 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ring implements the per-CPU lock-free single-producer/
// single-consumer byte ring: allocation layout, head/tail discipline,
// the overflow cushion and its wrap-around copy-back, and the preempt
// gate that keeps a ring single-writer even under nested probe fires.
package ring

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/ringcap/ringcap/event"
	"github.com/ringcap/ringcap/shm"
)

// Ring is one CPU's worth of publication buffer for one Consumer. It owns
// the shared-memory data region and stats page directly (the Data Model
// in spec.md §3 places buffer, stats and str_storage on Ring, not on the
// registry that holds it).
type Ring struct {
	opts Options

	region      *shm.Region
	statsRegion *shm.StatsRegion
	buf         []byte // ringBufSize + 2*pageSize, producer view
	strStorage  []byte // one scratch page, exclusive to the writer

	stats statsView

	// preemptCount is the single-writer gate (spec.md §5, §9). It is
	// intentionally never reset by Open/Close: an in-flight record on a
	// closing ring must still be able to release the gate it holds.
	preemptCount atomic.Int32

	open           atomic.Bool
	captureEnabled atomic.Bool

	// nevents is the writer's own private monotonic event counter,
	// distinct from the publicly exposed stats.n_evts. It is exposed only
	// through Nevents (filler.Args does not carry it) and is never reset
	// except on Open (mirroring ring->nevents in the driver this core
	// generalizes).
	nevents uint64

	lastPrintTime atomic.Int64
}

// New allocates the shared-memory backing for one ring: a memfd-backed
// data region with its overflow cushion, a memfd-backed stats page, and
// an in-process scratch page for str_storage.
func New(opts Options) (*Ring, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	region, err := shm.NewRegion(opts.RingBufSize, opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("ring: allocate data region: %w", err)
	}
	statsRegion, err := shm.NewStatsRegion(opts.PageSize)
	if err != nil {
		region.Close()
		return nil, fmt.Errorf("ring: allocate stats page: %w", err)
	}
	r := &Ring{
		opts:        opts,
		region:      region,
		statsRegion: statsRegion,
		buf:         region.ProducerBuffer(),
		// str_storage is write-before-read scratch; dirtmake skips the
		// zero-fill make() would otherwise do on a page we're about to
		// overwrite anyway. This runs once per New, not per event; Open
		// reuses the page.
		strStorage: dirtmake.Bytes(opts.PageSize, opts.PageSize),
		stats:      newStatsView(statsRegion.ProducerPage()),
	}
	return r, nil
}

// Close releases the shared-memory backing. The caller must ensure no
// writer holds the preempt gate.
func (r *Ring) Close() error {
	err1 := r.region.Close()
	err2 := r.statsRegion.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// DataMmap returns a fresh mirrored mapping of the ring's data buffer,
// per spec.md §4.6's offset=0,length=2*RingBufSize case.
func (r *Ring) DataMmap() ([]byte, error) { return r.region.MapMirror() }

// StatsMmap returns a fresh read-write mapping of the stats page, per
// spec.md §4.6's offset=0,length<=PageSize case.
func (r *Ring) StatsMmap() ([]byte, error) { return r.statsRegion.MapStats() }

// RingBufSize is the logical ring size, excluding the overflow cushion.
func (r *Ring) RingBufSize() int { return r.opts.RingBufSize }

// StrStorage returns the scratch page exclusively owned by this ring's
// writer; fillers use it as working space while encoding parameters.
func (r *Ring) StrStorage() []byte { return r.strStorage }

// Open resets per-open state (spec.md §4.2 step 3): head, tail and
// counters go to zero, the ring is marked open with capture disabled, and
// the private nevents sentinel restarts. preemptCount is deliberately
// untouched.
func (r *Ring) Open() {
	r.stats.reset()
	r.nevents = 0
	r.captureEnabled.Store(false)
	r.open.Store(true)
}

// IsOpen reports whether the ring is currently open.
func (r *Ring) IsOpen() bool { return r.open.Load() }

// CloseDevice marks the ring closed for a device-close (spec.md §4.2
// close path), distinct from Close which tears down shared memory.
func (r *Ring) CloseDevice() {
	r.captureEnabled.Store(false)
	r.open.Store(false)
}

func (r *Ring) SetCaptureEnabled(v bool) { r.captureEnabled.Store(v) }
func (r *Ring) CaptureEnabled() bool     { return r.captureEnabled.Load() }

// Stats returns a point-in-time snapshot of the stats page.
func (r *Ring) Stats() event.Stats { return r.stats.snapshot() }

func (r *Ring) IncDropsBuffer()     { r.stats.addDropsBuffer(1) }
func (r *Ring) IncDropsPf()         { r.stats.addDropsPf(1) }
func (r *Ring) IncContextSwitches() { r.stats.addContextSwitches(1) }

// IncEvts bumps the publicly exposed stats.n_evts counter. Per spec.md
// §4.3 step 4, this happens unconditionally once a ring is known to be
// capture-enabled, before the preempt gate and space computation — it is
// distinct from the private Nevents sentinel Commit advances.
func (r *Ring) IncEvts() { r.stats.addEvts(1) }

// AcquirePreemptGate implements the exclusive single-writer gate (spec.md
// §4.3 step 5, §5, P4): it atomically increments preemptCount and reports
// whether this call won the gate (prior value was 0). A losing caller
// must not proceed to write, and must not call ReleasePreemptGate.
func (r *Ring) AcquirePreemptGate() (acquired bool) {
	prior := r.preemptCount.Add(1) - 1
	if prior != 0 {
		r.preemptCount.Add(-1)
		r.stats.addPreemptions(1)
		return false
	}
	return true
}

// ReleasePreemptGate releases a gate acquired by AcquirePreemptGate.
func (r *Ring) ReleasePreemptGate() { r.preemptCount.Add(-1) }

// Space computes free and usable_write_window exactly as spec.md §4.1
// defines them, reading tail with a load-acquire (it is the only field
// the consumer mutates).
func (r *Ring) Space() (free, usableWriteWindow int) {
	h := int(r.stats.loadHead())
	t := int(r.stats.loadTail())
	rbs := r.opts.RingBufSize
	if t > h {
		free = t - h - 1
	} else {
		free = rbs + t - h - 1
	}
	window := rbs + 2*r.opts.PageSize - h - 1
	if window < free {
		usableWriteWindow = window
	} else {
		usableWriteWindow = free
	}
	return free, usableWriteWindow
}

// Reserve returns the slice of the producer buffer starting at the
// current head, sized to usable_write_window, for a caller (the event
// recorder) to populate. It does not itself check that the event fits;
// callers consult Space first.
func (r *Ring) Reserve() (buf []byte, window int) {
	h := int(r.stats.loadHead())
	_, window = r.Space()
	return r.buf[h : h+window], window
}

// Commit advances head by n bytes written at the previously Reserve'd
// offset, performing the overflow-cushion copy-back on wrap (spec.md
// §4.1, §4.3 step 10) and publishing the new head with a store-release.
func (r *Ring) Commit(n int) {
	rbs := r.opts.RingBufSize
	h := int(r.stats.loadHead())
	newHead := h + n
	if newHead > rbs {
		copy(r.buf[0:newHead-rbs], r.buf[rbs:newHead])
	}
	if newHead >= rbs {
		newHead -= rbs
	}
	r.stats.storeHead(uint32(newHead))
	r.nevents++
}

// Nevents returns the writer's private monotonic event counter. It is
// not part of the externally published Stats.
func (r *Ring) Nevents() uint64 { return r.nevents }

// ShouldLogSummary reports whether at least one second has elapsed since
// the last drop-summary log line for this ring (spec.md §7: "periodic
// summary is logged at most once per second per ring"), and records now
// as the new watermark if so.
func (r *Ring) ShouldLogSummary(now time.Time) bool {
	nowNs := now.UnixNano()
	last := r.lastPrintTime.Load()
	if nowNs-last < int64(time.Second) {
		return false
	}
	return r.lastPrintTime.CompareAndSwap(last, nowNs)
}
