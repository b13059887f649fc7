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

// Package consumer implements the consumer registry (C2) and the
// per-consumer control plane (C5): owner identity, per-CPU ring
// ownership and lifetime, capture/sampling/snaplen/mask state, and the
// sampling-based drop policy (spec.md §4.2, §4.5).
package consumer

import (
	"sync/atomic"
	"time"

	"github.com/ringcap/ringcap/event"
	"github.com/ringcap/ringcap/ring"
)

const (
	// RWSnaplen is the default per-consumer payload cap.
	RWSnaplen = 80
	// RWMaxSnaplen bounds SET_SNAPLEN requests.
	RWMaxSnaplen = 4096

	nsPerSecond = int64(time.Second)
)

// Consumer owns one Ring per online CPU and the per-consumer control
// state spec.md §3 describes. The zero value is not usable; construct
// via newConsumer.
type Consumer struct {
	ownerID OwnerID
	rings   []*ring.Ring

	droppingMode     atomic.Bool
	samplingRatio    atomic.Int32
	samplingInterval atomic.Int64 // nanoseconds
	snaplen          atomic.Int32
	doDynamicSnaplen atomic.Bool
	signalDeliver    atomic.Bool

	// isDropping tracks the sampling duty-cycle's current phase so a
	// phase transition can be detected (spec.md §4.5).
	isDropping atomic.Bool
	// needDropE/needDropX are deferred drop markers: set when a phase
	// transition is detected, consumed (and cleared) by the next call to
	// TakeDeferredDropMarker from the event recorder (spec.md §4.3 step 2).
	needDropE atomic.Bool
	needDropX atomic.Bool

	mask *event.Mask
}

// OwnerID is the opaque identity of the user-space task that opened a
// device (spec.md §3).
type OwnerID int64

// processMask is the single event mask every Consumer built by
// newConsumer shares (spec.md §9).
var processMask = event.NewMask()

func newConsumer(owner OwnerID, numCPU int, ringOpts ring.Options) (*Consumer, error) {
	c := &Consumer{ownerID: owner, mask: processMask}
	c.resetDefaults()
	rings := make([]*ring.Ring, numCPU)
	for i := range rings {
		r, err := ring.New(ringOpts)
		if err != nil {
			for j := 0; j < i; j++ {
				rings[j].Close()
			}
			return nil, err
		}
		rings[i] = r
	}
	c.rings = rings
	return c, nil
}

// resetDefaults applies spec.md §4.2 step 3's consumer-level reset.
func (c *Consumer) resetDefaults() {
	c.droppingMode.Store(false)
	c.samplingRatio.Store(1)
	c.samplingInterval.Store(nsPerSecond)
	c.snaplen.Store(RWSnaplen)
	c.doDynamicSnaplen.Store(false)
	c.signalDeliver.Store(false)
	c.isDropping.Store(false)
	c.needDropE.Store(false)
	c.needDropX.Store(false)
	// Every open turns delivery of every built-in event type back on in
	// the shared mask; MASK_* commands narrow it afterwards.
	for t := 0; t < event.MaxType; t++ {
		c.mask.Set(event.Type(t))
	}
}

// OwnerID returns the consumer's identity.
func (c *Consumer) OwnerID() OwnerID { return c.ownerID }

// NumRings returns the number of per-CPU rings this consumer owns.
func (c *Consumer) NumRings() int { return len(c.rings) }

// Ring returns the ring for CPU n, or nil if n is out of range.
func (c *Consumer) Ring(n int) *ring.Ring {
	if n < 0 || n >= len(c.rings) {
		return nil
	}
	return c.rings[n]
}

// Mask returns the process-wide event mask (spec.md §9: mask is shared
// across consumers, deliberately, even though sampling/snaplen are not).
func (c *Consumer) Mask() *event.Mask { return c.mask }

// anyRingOpen reports whether at least one of this consumer's rings is
// still open; used by the registry's GC decision (spec.md §4.2 close path).
func (c *Consumer) anyRingOpen() bool {
	for _, r := range c.rings {
		if r.IsOpen() {
			return true
		}
	}
	return false
}

func (c *Consumer) closeAllRings() {
	for _, r := range c.rings {
		r.Close()
	}
}

// --- Control-plane state accessors (spec.md §4.5) ---

func (c *Consumer) SetDroppingMode(ratio int32) {
	c.droppingMode.Store(true)
	c.samplingRatio.Store(ratio)
	c.samplingInterval.Store(nsPerSecond / int64(ratio))
}

// ClearDroppingMode implements DISABLE_DROPPING_MODE. The interval is
// reset to 10^9 (ratio=1) for symmetry with the enable path even though
// it is moot while dropping_mode is false (spec.md §9, second open
// question; retained as-is).
func (c *Consumer) ClearDroppingMode() {
	c.droppingMode.Store(false)
	c.samplingInterval.Store(nsPerSecond)
}

func (c *Consumer) DroppingMode() bool   { return c.droppingMode.Load() }
func (c *Consumer) SamplingRatio() int32 { return c.samplingRatio.Load() }

func (c *Consumer) SetSnaplen(n int32)         { c.snaplen.Store(n) }
func (c *Consumer) Snaplen() int32             { return c.snaplen.Load() }
func (c *Consumer) SetDynamicSnaplen(v bool)   { c.doDynamicSnaplen.Store(v) }
func (c *Consumer) DynamicSnaplen() bool       { return c.doDynamicSnaplen.Load() }
func (c *Consumer) SetSignalDeliver(v bool)    { c.signalDeliver.Store(v) }
func (c *Consumer) SignalDeliverEnabled() bool { return c.signalDeliver.Load() }

// ShouldDrop implements the sampling drop policy (spec.md §4.5). It
// returns whether the current event should be dropped by policy, and may
// arm a deferred drop marker (retrieved by TakeDeferredDropMarker) on a
// duty-cycle phase transition.
func (c *Consumer) ShouldDrop(flags event.DropFlags, tsNs int64) bool {
	if flags.Has(event.NeverDrop) {
		return false
	}
	if !c.droppingMode.Load() {
		return false
	}
	if flags.Has(event.AlwaysDrop) {
		return true
	}

	interval := c.samplingInterval.Load()
	nsecComponent := tsNs % nsPerSecond
	if nsecComponent >= interval {
		// Off phase of the duty cycle.
		if !c.isDropping.Swap(true) {
			c.needDropE.Store(true)
		}
		return true
	}
	// On phase.
	if c.isDropping.Swap(false) {
		c.needDropX.Store(true)
	}
	return false
}

// TakeDeferredDropMarker returns and clears a pending drop marker, if
// any, consumed once by the event recorder before it re-consults
// ShouldDrop for the current event (spec.md §4.3 step 2).
func (c *Consumer) TakeDeferredDropMarker() (t event.Type, ok bool) {
	if c.needDropE.CompareAndSwap(true, false) {
		return event.TypeDropE, true
	}
	if c.needDropX.CompareAndSwap(true, false) {
		return event.TypeDropX, true
	}
	return 0, false
}
