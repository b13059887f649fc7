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

//go:build linux

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Region is one ring's shared-memory-backed data buffer: a memfd of
// RingBufSize bytes, plus the producer's own linear view of it with
// the 2*PageSize overflow cushion from spec.md §4.1 glued on immediately
// after.
type Region struct {
	fd          int
	ringBufSize int
	pageSize    int

	// producer is the writer's own mapping: ringBufSize+2*pageSize bytes,
	// where [0,ringBufSize) is backed by fd and [ringBufSize, end) is
	// anonymous scratch memory for the overflow cushion (spec.md §4.1).
	producer []byte
}

// NewRegion creates the memfd and the producer-side mapping. ringBufSize
// must already be validated as a page-size multiple >= 2*pageSize by the
// caller (ring.Options.Validate does this).
func NewRegion(ringBufSize, pageSize int) (*Region, error) {
	fd, err := unix.MemfdCreate("ringcap-ring", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("shm: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(ringBufSize)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm: ftruncate: %w", err)
	}

	total := ringBufSize + 2*pageSize
	// Reserve a contiguous PROT_NONE range so the two MAP_FIXED mappings
	// below land adjacently, same trick used by mirrored ring buffers
	// elsewhere in the pack (diskring.NewWithOptions) to guarantee the
	// kernel won't split the range.
	base, err := unix.Mmap(-1, 0, total, unix.PROT_NONE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm: reserve: %w", err)
	}

	ringView, err := mapFixed(fd, 0, ringBufSize, uintptrOf(base))
	if err != nil {
		unix.Munmap(base)
		unix.Close(fd)
		return nil, fmt.Errorf("shm: map ring view: %w", err)
	}
	if &ringView[0] != &base[0] {
		unix.Munmap(base)
		unix.Close(fd)
		return nil, fmt.Errorf("shm: MAP_FIXED landed at an unexpected address")
	}

	cushion, err := mapFixedAnon(2*pageSize, uintptrOf(base)+uintptr(ringBufSize))
	if err != nil {
		unix.Munmap(base)
		unix.Close(fd)
		return nil, fmt.Errorf("shm: map overflow cushion: %w", err)
	}
	_ = cushion

	return &Region{
		fd:          fd,
		ringBufSize: ringBufSize,
		pageSize:    pageSize,
		producer:    base[:total:total],
	}, nil
}

// ProducerBuffer returns the writer's linear view: RingBufSize+2*PageSize
// bytes. Only the owning CPU's writer goroutine may write into it
// (spec.md §5 single-writer-per-CPU).
func (r *Region) ProducerBuffer() []byte { return r.producer }

// MapMirror creates a new, independent mapping of the same underlying
// memfd, twice in a row, giving a reader 2*RingBufSize contiguous bytes
// where any offset o and length l<=RingBufSize reads as the wrap-aware
// bytes [o mod RBS, (o+l) mod RBS) (spec.md §4.1 P6). The mapping is
// read-only: spec.md §4.6 rejects write permission requests for it.
func (r *Region) MapMirror() ([]byte, error) {
	size := r.ringBufSize
	base, err := unix.Mmap(-1, 0, 2*size, unix.PROT_NONE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("shm: reserve mirror: %w", err)
	}
	if _, err := mapFixedRO(r.fd, 0, size, uintptrOf(base)); err != nil {
		unix.Munmap(base)
		return nil, fmt.Errorf("shm: map mirror half 1: %w", err)
	}
	if _, err := mapFixedRO(r.fd, 0, size, uintptrOf(base)+uintptr(size)); err != nil {
		unix.Munmap(base)
		return nil, fmt.Errorf("shm: map mirror half 2: %w", err)
	}
	return base[: 2*size : 2*size], nil
}

// Close unmaps the producer view and closes the memfd. Mirror mappings
// returned by MapMirror must be unmapped by their caller (UnmapMirror).
func (r *Region) Close() error {
	var err error
	if r.producer != nil {
		err = unix.Munmap(r.producer)
		r.producer = nil
	}
	if r.fd >= 0 {
		if cerr := unix.Close(r.fd); err == nil {
			err = cerr
		}
		r.fd = -1
	}
	return err
}

// UnmapMirror releases a mapping obtained from MapMirror.
func UnmapMirror(b []byte) error {
	if b == nil {
		return nil
	}
	return unix.Munmap(b)
}
