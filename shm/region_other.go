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

//go:build !linux

package shm

import "errors"

// ringcap's memfd+MAP_FIXED mirroring (spec.md §4.1, §9) is a Linux
// mechanism; on other platforms the ring/consumer packages still build,
// but NewRegion and NewStatsRegion fail with errUnsupported, so ring.New
// cannot create a ring there.

var errUnsupported = errors.New("shm: shared-memory ring not supported on this platform")

type Region struct{}

func NewRegion(ringBufSize, pageSize int) (*Region, error) { return nil, errUnsupported }

func (r *Region) ProducerBuffer() []byte { return nil }

func (r *Region) MapMirror() ([]byte, error) { return nil, errUnsupported }

func (r *Region) Close() error { return nil }

func UnmapMirror(b []byte) error { return nil }

type StatsRegion struct{}

func NewStatsRegion(pageSize int) (*StatsRegion, error) { return nil, errUnsupported }

func (s *StatsRegion) ProducerPage() []byte { return nil }

func (s *StatsRegion) MapStats() ([]byte, error) { return nil, errUnsupported }

func (s *StatsRegion) Close() error { return nil }

func UnmapStats(b []byte) error { return nil }
