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

// Package shm is ringcap's C6: it backs one ring with real OS shared
// memory (a memfd) and exposes it through the two mmap shapes
// spec.md §4.6 allows — a read-write stats page, and a mirrored
// data-buffer mapping twice the ring's size so a reader never has to
// special-case wraparound (spec.md §4.1 "Mmap mirror", §9).
//
// The mirroring technique — mapping the same physical pages at two
// consecutive virtual ranges via MAP_FIXED — is grounded in the
// double-mmap construction used by disk/shared-memory ring buffers in
// the wild (see DESIGN.md); the teacher library's own internal/iouring
// does the single-mmap-for-two-rings variant of the same idea for its
// SQ/CQ pair.
package shm

import "fmt"

// MapKind selects which of the two mmap shapes spec.md §4.6 permits.
type MapKind int

const (
	// MapKindStats maps the one-page stats block, read-write.
	MapKindStats MapKind = iota
	// MapKindRing maps the mirrored 2*RingBufSize data buffer, read-only.
	MapKindRing
)

// MapRequest mirrors the offset/length arguments an mmap(2) call on a
// ringcap data device would carry.
type MapRequest struct {
	Kind     MapKind
	Offset   int64
	Length   int
	Writable bool
}

// Validate enforces the "any other combination is rejected" rule of
// spec.md §4.6.
func (r MapRequest) Validate(pageSize, ringBufSize int) error {
	if r.Offset != 0 {
		return fmt.Errorf("shm: non-zero offset %d not supported", r.Offset)
	}
	switch r.Kind {
	case MapKindStats:
		if r.Length > pageSize {
			return fmt.Errorf("shm: stats mapping length %d exceeds page size %d", r.Length, pageSize)
		}
	case MapKindRing:
		if r.Length != 2*ringBufSize {
			return fmt.Errorf("shm: ring mapping length %d must equal 2*RingBufSize (%d)", r.Length, 2*ringBufSize)
		}
		if r.Writable {
			return fmt.Errorf("shm: ring mapping must be read-only")
		}
	default:
		return fmt.Errorf("shm: unknown map kind %d", r.Kind)
	}
	return nil
}
