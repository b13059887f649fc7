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
	"sync/atomic"
	"unsafe"

	"github.com/ringcap/ringcap/event"
)

// statsView overlays event.Stats' wire layout directly onto the mapped
// stats page, the same unsafe.Pointer-into-mmap'd-bytes trick the
// teacher's io_uring wrapper uses for its submission/completion queue
// head and tail (internal/iouring.IoUring).
type statsView struct {
	head             *uint32
	tail             *uint32
	nEvts            *uint64
	nDropsBuffer     *uint64
	nDropsPf         *uint64
	nPreemptions     *uint64
	nContextSwitches *uint64
}

func newStatsView(page []byte) statsView {
	if len(page) < event.StatsSize {
		panic("ring: stats page smaller than event.StatsSize")
	}
	base := unsafe.Pointer(&page[0])
	return statsView{
		head:             (*uint32)(unsafe.Add(base, 0)),
		tail:             (*uint32)(unsafe.Add(base, 4)),
		nEvts:            (*uint64)(unsafe.Add(base, 8)),
		nDropsBuffer:     (*uint64)(unsafe.Add(base, 16)),
		nDropsPf:         (*uint64)(unsafe.Add(base, 24)),
		nPreemptions:     (*uint64)(unsafe.Add(base, 32)),
		nContextSwitches: (*uint64)(unsafe.Add(base, 40)),
	}
}

func (s statsView) loadHead() uint32 { return atomic.LoadUint32(s.head) }
func (s statsView) loadTail() uint32 { return atomic.LoadUint32(s.tail) }

// storeHead publishes head with a store-release: everything the writer put
// into the ring before this call must become visible to a consumer that
// observes the new head (spec.md §4.3 step 12, §5).
func (s statsView) storeHead(v uint32) { atomic.StoreUint32(s.head, v) }
func (s statsView) storeTail(v uint32) { atomic.StoreUint32(s.tail, v) }

func (s statsView) addEvts(n uint64)            { atomic.AddUint64(s.nEvts, n) }
func (s statsView) addDropsBuffer(n uint64)     { atomic.AddUint64(s.nDropsBuffer, n) }
func (s statsView) addDropsPf(n uint64)         { atomic.AddUint64(s.nDropsPf, n) }
func (s statsView) addPreemptions(n uint64)     { atomic.AddUint64(s.nPreemptions, n) }
func (s statsView) addContextSwitches(n uint64) { atomic.AddUint64(s.nContextSwitches, n) }

func (s statsView) snapshot() event.Stats {
	return event.Stats{
		Head:             atomic.LoadUint32(s.head),
		Tail:             atomic.LoadUint32(s.tail),
		NEvts:            atomic.LoadUint64(s.nEvts),
		NDropsBuffer:     atomic.LoadUint64(s.nDropsBuffer),
		NDropsPf:         atomic.LoadUint64(s.nDropsPf),
		NPreemptions:     atomic.LoadUint64(s.nPreemptions),
		NContextSwitches: atomic.LoadUint64(s.nContextSwitches),
	}
}

func (s statsView) reset() {
	atomic.StoreUint32(s.head, 0)
	atomic.StoreUint32(s.tail, 0)
	atomic.StoreUint64(s.nEvts, 0)
	atomic.StoreUint64(s.nDropsBuffer, 0)
	atomic.StoreUint64(s.nDropsPf, 0)
	atomic.StoreUint64(s.nPreemptions, 0)
	atomic.StoreUint64(s.nContextSwitches, 0)
}
