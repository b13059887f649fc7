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

package event

import "encoding/binary"

// le is the byte order for every field ringcap puts on the wire. spec.md
// §6 pins the user/kernel boundary to LittleEndian explicitly.
var le = binary.LittleEndian

// PutParamLen writes one 16-bit parameter-length prefix at b[0:2].
func PutParamLen(b []byte, n uint16) {
	_ = b[1]
	le.PutUint16(b, n)
}

// ParamLen reads one 16-bit parameter-length prefix from b[0:2].
func ParamLen(b []byte) uint16 {
	_ = b[1]
	return le.Uint16(b)
}

// StatsSize is the packed size of Stats (spec.md §3, §6): two u32 indices
// and five u64 counters.
const StatsSize = 4 + 4 + 8*5

// Stats is the per-ring control block shared with user space through the
// stats-page mapping (spec.md §4.6). Producer (the writer on the owning
// CPU) writes Head and the counters; consumer (user space) writes Tail.
type Stats struct {
	Head             uint32
	Tail             uint32
	NEvts            uint64
	NDropsBuffer     uint64
	NDropsPf         uint64
	NPreemptions     uint64
	NContextSwitches uint64
}

// Marshal packs Stats into b, which must have length >= StatsSize.
func (s Stats) Marshal(b []byte) {
	_ = b[StatsSize-1]
	le.PutUint32(b[0:4], s.Head)
	le.PutUint32(b[4:8], s.Tail)
	le.PutUint64(b[8:16], s.NEvts)
	le.PutUint64(b[16:24], s.NDropsBuffer)
	le.PutUint64(b[24:32], s.NDropsPf)
	le.PutUint64(b[32:40], s.NPreemptions)
	le.PutUint64(b[40:48], s.NContextSwitches)
}

// UnmarshalStats reads Stats from b, which must have length >= StatsSize.
func UnmarshalStats(b []byte) Stats {
	_ = b[StatsSize-1]
	return Stats{
		Head:             le.Uint32(b[0:4]),
		Tail:             le.Uint32(b[4:8]),
		NEvts:            le.Uint64(b[8:16]),
		NDropsBuffer:     le.Uint64(b[16:24]),
		NDropsPf:         le.Uint64(b[24:32]),
		NPreemptions:     le.Uint64(b[32:40]),
		NContextSwitches: le.Uint64(b[40:48]),
	}
}
