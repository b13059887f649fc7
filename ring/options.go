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

package ring

import (
	"fmt"
	"os"
)

// Options configures one per-CPU ring, mirroring the teacher library's
// Option-struct-plus-DefaultOption idiom (concurrency/gopool.Option).
type Options struct {
	// RingBufSize is the logical ring size in bytes. Must be a multiple
	// of PageSize and at least 2*PageSize (spec.md §3).
	RingBufSize int
	// PageSize is the host page size; the overflow cushion is
	// 2*PageSize (spec.md §4.1).
	PageSize int
	// Snaplen is a payload cap (RW_SNAPLEN) that Validate checks against
	// MaxSnaplen. The consumer package does not read it: consumer
	// snaplen defaults to consumer.RWSnaplen.
	Snaplen int
	// MaxSnaplen is the upper bound Validate applies to Snaplen
	// (RW_MAX_SNAPLEN). SET_SNAPLEN requests are bounded by
	// consumer.RWMaxSnaplen, not by this field.
	MaxSnaplen int
}

const (
	defaultRingBufSize = 8 * 1024 * 1024
	defaultSnaplen     = 80
	defaultMaxSnaplen  = 4096
)

// DefaultOptions returns sysdig-compatible defaults sized against the
// host's page size.
func DefaultOptions() Options {
	return Options{
		RingBufSize: defaultRingBufSize,
		PageSize:    os.Getpagesize(),
		Snaplen:     defaultSnaplen,
		MaxSnaplen:  defaultMaxSnaplen,
	}
}

// Validate enforces the invariants spec.md §3 states for Ring: RingBufSize
// is a multiple of PageSize and at least 2*PageSize.
func (o Options) Validate() error {
	if o.PageSize <= 0 {
		return fmt.Errorf("ring: page size must be positive")
	}
	if o.RingBufSize <= 0 || o.RingBufSize%o.PageSize != 0 {
		return fmt.Errorf("ring: RingBufSize (%d) must be a positive multiple of PageSize (%d)", o.RingBufSize, o.PageSize)
	}
	if o.RingBufSize < 2*o.PageSize {
		return fmt.Errorf("ring: RingBufSize (%d) must be >= 2*PageSize (%d)", o.RingBufSize, 2*o.PageSize)
	}
	if o.Snaplen <= 0 || o.Snaplen > o.MaxSnaplen {
		return fmt.Errorf("ring: Snaplen (%d) must be in (0, MaxSnaplen=%d]", o.Snaplen, o.MaxSnaplen)
	}
	return nil
}
