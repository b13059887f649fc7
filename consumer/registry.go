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

package consumer

import (
	"sync"
	"sync/atomic"

	"github.com/ringcap/ringcap/rcerr"
	"github.com/ringcap/ringcap/ring"
)

// ProbeHooks lets the probe dispatch layer (C4) register and unregister
// itself as the registry's consumer population transitions between empty
// and non-empty (spec.md §4.2 open/close paths). Registering probes is
// explicitly out of this package's scope; it only calls through.
type ProbeHooks interface {
	RegisterProbes() error
	UnregisterProbes() error
}

// Registry is the concurrent-read-safe set of active consumers keyed by
// owner_id (spec.md §4.2). Lookups never block or allocate; mutations
// take mu and publish a new, wholly-replaced snapshot map so concurrent
// readers never observe a torn map (the read-copy-update discipline
// spec.md §9 calls for).
type Registry struct {
	mu           sync.Mutex
	snapshot     atomic.Pointer[map[OwnerID]*Consumer]
	maxConsumers int
	numCPU       int
	ringOpts     ring.Options
	hooks        ProbeHooks

	probesRegistered bool
}

// NewRegistry builds an empty registry. maxConsumers bounds concurrent
// owners (spec.md §6 "max_consumers"); it has no default here, every
// caller passes it explicitly. numCPU and ringOpts
// size every consumer's per-CPU ring array identically.
func NewRegistry(maxConsumers, numCPU int, ringOpts ring.Options, hooks ProbeHooks) *Registry {
	reg := &Registry{maxConsumers: maxConsumers, numCPU: numCPU, ringOpts: ringOpts, hooks: hooks}
	empty := map[OwnerID]*Consumer{}
	reg.snapshot.Store(&empty)
	return reg
}

func (reg *Registry) load() map[OwnerID]*Consumer { return *reg.snapshot.Load() }

// Lookup finds a consumer by owner id without taking mu.
func (reg *Registry) Lookup(owner OwnerID) (*Consumer, bool) {
	c, ok := reg.load()[owner]
	return c, ok
}

// Count returns the number of currently registered consumers.
func (reg *Registry) Count() int { return len(reg.load()) }

// publish installs m as the new snapshot. Callers must hold mu.
func (reg *Registry) publish(m map[OwnerID]*Consumer) { reg.snapshot.Store(&m) }

// clone returns a shallow copy of the current snapshot for a mutation to
// build its replacement from. Callers must hold mu.
func (reg *Registry) clone() map[OwnerID]*Consumer {
	cur := reg.load()
	next := make(map[OwnerID]*Consumer, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	return next
}

// openConsumer implements spec.md §4.2's open path for (owner, ringNo).
// It allocates a Consumer on first open by owner, rejects a repeat open
// of an already-open ring with ErrBusy, and registers probes on the
// registry's empty→non-empty transition. The public entry point is
// Open, which wraps the result in a Handle.
func (reg *Registry) openConsumer(owner OwnerID, ringNo int) (*Consumer, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	c, ok := reg.load()[owner]
	if !ok {
		if reg.Count() >= reg.maxConsumers {
			return nil, rcerr.ErrBusy
		}
		var err error
		c, err = newConsumer(owner, reg.numCPU, reg.ringOpts)
		if err != nil {
			return nil, rcerr.ErrNoMem
		}
		wasEmpty := reg.Count() == 0
		next := reg.clone()
		next[owner] = c
		reg.publish(next)
		if wasEmpty && reg.hooks != nil && !reg.probesRegistered {
			if err := reg.hooks.RegisterProbes(); err != nil {
				// Unwind: remove the consumer we just inserted.
				undo := reg.clone()
				delete(undo, owner)
				reg.publish(undo)
				c.closeAllRings()
				return nil, err
			}
			reg.probesRegistered = true
		}
	}

	r := c.Ring(ringNo)
	if r == nil {
		return nil, rcerr.ErrInvalid
	}
	if r.IsOpen() {
		return nil, rcerr.ErrBusy
	}
	c.resetDefaults()
	r.Open()
	return c, nil
}

// Close implements spec.md §4.2's close path for (owner, ringNo): marks
// the ring closed, garbage-collects the consumer once every ring is
// closed, and unregisters probes once the registry is empty again.
func (reg *Registry) Close(owner OwnerID, ringNo int) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	c, ok := reg.load()[owner]
	if !ok {
		return rcerr.ErrNoEnt
	}
	r := c.Ring(ringNo)
	if r == nil {
		return rcerr.ErrInvalid
	}
	r.CloseDevice()

	if c.anyRingOpen() {
		return nil
	}

	next := reg.clone()
	delete(next, owner)
	reg.publish(next)
	c.closeAllRings()

	if len(next) == 0 && reg.hooks != nil && reg.probesRegistered {
		if err := reg.hooks.UnregisterProbes(); err != nil {
			return err
		}
		reg.probesRegistered = false
	}
	return nil
}

// InjectWriteOnly implements the write-only events-injection device at
// minor NCPU (spec.md §6): writes are accepted and discarded. The byte
// count returned is len(b); nothing is recorded.
func (reg *Registry) InjectWriteOnly(b []byte) (int, error) { return len(b), nil }

// Range calls fn for every currently registered consumer, reading the
// snapshot once up front (lock-free, matching spec.md §5's "read-side
// critical section is lock-free and does not block" requirement for
// probe-dispatch fan-out).
func (reg *Registry) Range(fn func(*Consumer)) {
	for _, c := range reg.load() {
		fn(c)
	}
}
