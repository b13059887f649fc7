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

// StatsRegion is one ring's stats page (spec.md §3, §4.6): a single
// page, memfd-backed so it can be mapped read-write into the owning
// consumer's address space independently of the data-buffer mapping.
type StatsRegion struct {
	fd       int
	pageSize int
	producer []byte
}

// NewStatsRegion creates the memfd-backed stats page and the producer
// (writer-side) mapping.
func NewStatsRegion(pageSize int) (*StatsRegion, error) {
	fd, err := unix.MemfdCreate("ringcap-stats", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("shm: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(pageSize)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm: ftruncate: %w", err)
	}
	b, err := unix.Mmap(fd, 0, pageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm: map stats: %w", err)
	}
	return &StatsRegion{fd: fd, pageSize: pageSize, producer: b}, nil
}

// ProducerPage returns the writer's own view of the stats page.
func (s *StatsRegion) ProducerPage() []byte { return s.producer }

// MapStats returns an independent read-write mapping of the same page,
// modeling the consumer-side mmap(offset=0, length<=PAGE_SIZE) case of
// spec.md §4.6.
func (s *StatsRegion) MapStats() ([]byte, error) {
	b, err := unix.Mmap(s.fd, 0, s.pageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: map stats: %w", err)
	}
	return b, nil
}

// Close unmaps the producer view and closes the memfd.
func (s *StatsRegion) Close() error {
	var err error
	if s.producer != nil {
		err = unix.Munmap(s.producer)
		s.producer = nil
	}
	if s.fd >= 0 {
		if cerr := unix.Close(s.fd); err == nil {
			err = cerr
		}
		s.fd = -1
	}
	return err
}

// UnmapStats releases a mapping obtained from MapStats.
func UnmapStats(b []byte) error {
	if b == nil {
		return nil
	}
	return unix.Munmap(b)
}
