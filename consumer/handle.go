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
	"fmt"

	"github.com/ringcap/ringcap/rcerr"
	"github.com/ringcap/ringcap/shm"
)

// Handle is the external device-open handle a CLI/daemon holds for one
// (owner, ring) pair: the user-space side of spec.md §6's device surface.
type Handle struct {
	registry *Registry
	owner    OwnerID
	ringNo   int
	consumer *Consumer
}

// Open opens data device ringNo for owner, implementing spec.md §4.2's
// open path end to end and handing back the device-open handle described
// in §6.
func (reg *Registry) Open(owner OwnerID, ringNo int) (*Handle, error) {
	c, err := reg.openConsumer(owner, ringNo)
	if err != nil {
		return nil, err
	}
	return &Handle{registry: reg, owner: owner, ringNo: ringNo, consumer: c}, nil
}

// Close closes the underlying device, per spec.md §4.2's close path.
func (h *Handle) Close() error { return h.registry.Close(h.owner, h.ringNo) }

// Consumer returns the owning Consumer, for callers (the event recorder,
// probe dispatch) that need the control-plane state directly.
func (h *Handle) Consumer() *Consumer { return h.consumer }

// Mmap implements spec.md §4.6: stats-page and mirrored-data-buffer
// mappings are the only two shapes supported; req.Validate rejects any
// other combination before a syscall is attempted.
func (h *Handle) Mmap(req shm.MapRequest, pageSize, ringBufSize int) ([]byte, error) {
	if err := req.Validate(pageSize, ringBufSize); err != nil {
		return nil, fmt.Errorf("%w: %v", rcerr.ErrInvalid, err)
	}
	r := h.consumer.Ring(h.ringNo)
	if r == nil {
		return nil, rcerr.ErrInvalid
	}
	switch req.Kind {
	case shm.MapKindStats:
		return r.StatsMmap()
	case shm.MapKindRing:
		return r.DataMmap()
	default:
		return nil, rcerr.ErrInvalid
	}
}

// Control runs one control-plane command against this handle's ring.
func (h *Handle) Control(cmd Command, arg int64, pids PidResolver) (int64, error) {
	return h.consumer.Control(h.ringNo, cmd, arg, pids)
}
