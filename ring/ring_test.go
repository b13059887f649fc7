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
	"encoding/binary"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfUnsupported(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("memfd-backed rings are only supported on linux")
	}
}

func testOptions() Options {
	o := DefaultOptions()
	o.RingBufSize = 4 * o.PageSize
	return o
}

// writeFakeRecord commits a minimal well-framed record: an 8-byte
// length-prefix header whose len field covers itself plus the payload.
func writeFakeRecord(t *testing.T, r *Ring, payload byte, payloadLen int) {
	t.Helper()
	_, window := r.Space()
	need := 8 + payloadLen
	require.GreaterOrEqual(t, window, need)
	buf, _ := r.Reserve()
	binary.LittleEndian.PutUint32(buf[0:4], uint32(need))
	for i := 0; i < payloadLen; i++ {
		buf[8+i] = payload
	}
	r.IncEvts()
	r.Commit(need)
}

func TestRingFraming(t *testing.T) {
	skipIfUnsupported(t)
	r, err := New(testOptions())
	require.NoError(t, err)
	defer r.Close()
	r.Open()

	writeFakeRecord(t, r, 0xAA, 16)
	writeFakeRecord(t, r, 0xBB, 32)

	stats := r.Stats()
	// P1: walking records by len from tail reaches exactly head.
	pos := stats.Tail
	for i := 0; i < 2; i++ {
		hdrLen := binary.LittleEndian.Uint32(r.buf[pos : pos+4])
		pos += hdrLen
	}
	assert.Equal(t, stats.Head, pos)
	assert.EqualValues(t, 2, stats.NEvts)
}

func TestRingOneFreeByteInvariant(t *testing.T) {
	skipIfUnsupported(t)
	r, err := New(testOptions())
	require.NoError(t, err)
	defer r.Close()
	r.Open()

	for i := 0; i < 50; i++ {
		free, window := r.Space()
		if window < 24 {
			break
		}
		writeFakeRecord(t, r, byte(i), 16)
		_ = free
	}

	free, _ := r.Space()
	assert.GreaterOrEqual(t, free, 1)

	stats := r.Stats()
	var used uint32
	if stats.Head >= stats.Tail {
		used = stats.Head - stats.Tail
	} else {
		used = uint32(r.RingBufSize()) + stats.Head - stats.Tail
	}
	assert.EqualValues(t, r.RingBufSize(), int(used)+free+1)
}

func TestRingOverflowCushionWrap(t *testing.T) {
	skipIfUnsupported(t)
	opts := testOptions()
	r, err := New(opts)
	require.NoError(t, err)
	defer r.Close()
	r.Open()

	// Fill close to the end of RingBufSize so the next record spills
	// into the overflow cushion and must be copied back on wrap.
	fill := opts.RingBufSize - 8 - 4
	buf, window := r.Reserve()
	require.GreaterOrEqual(t, window, 8+fill)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(8+fill))
	r.Commit(8 + fill)

	stats := r.Stats()
	require.EqualValues(t, opts.RingBufSize-4, stats.Head)

	// Simulate the consumer having nearly caught up, so free is large
	// even though head sits right at the end of RingBufSize: the next
	// record must spill into the overflow cushion and get copied back.
	r.stats.storeTail(uint32(opts.RingBufSize - 8))

	writeFakeRecord(t, r, 0xCC, 12)

	stats = r.Stats()
	assert.EqualValues(t, 16, stats.Head)
	assert.Equal(t, byte(0xCC), r.buf[stats.Head-12])
}

func TestRingPreemptGateExclusive(t *testing.T) {
	skipIfUnsupported(t)
	r, err := New(testOptions())
	require.NoError(t, err)
	defer r.Close()
	r.Open()

	require.True(t, r.AcquirePreemptGate())
	// A nested/re-entrant attempt on the same ring must lose.
	assert.False(t, r.AcquirePreemptGate())
	assert.EqualValues(t, 1, r.Stats().NPreemptions)
	r.ReleasePreemptGate()
	assert.True(t, r.AcquirePreemptGate())
	r.ReleasePreemptGate()
}

func TestRingPreemptGateConcurrent(t *testing.T) {
	skipIfUnsupported(t)
	r, err := New(testOptions())
	require.NoError(t, err)
	defer r.Close()
	r.Open()

	const n = 200
	var wg sync.WaitGroup
	var wins, losses int32
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.AcquirePreemptGate() {
				mu.Lock()
				wins++
				mu.Unlock()
				r.ReleasePreemptGate()
			} else {
				mu.Lock()
				losses++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, n, wins+losses)
}

func TestRingMirrorEquivalence(t *testing.T) {
	skipIfUnsupported(t)
	opts := testOptions()
	r, err := New(opts)
	require.NoError(t, err)
	defer r.Close()
	r.Open()

	for i := 0; i < len(r.buf[:opts.RingBufSize]); i++ {
		r.buf[i] = byte(i)
	}

	mirror, err := r.DataMmap()
	require.NoError(t, err)
	defer func() {
		_ = mirror
	}()
	require.Len(t, mirror, 2*opts.RingBufSize)

	for _, o := range []int{0, opts.RingBufSize / 2, opts.RingBufSize - 1} {
		assert.Equal(t, r.buf[o], mirror[o])
		assert.Equal(t, r.buf[o], mirror[o+opts.RingBufSize])
	}
}
