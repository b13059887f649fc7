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

package shm

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfUnsupported(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("memfd-backed regions are only supported on linux")
	}
}

func TestMapRequestValidate(t *testing.T) {
	const pageSize = 4096
	const ringBufSize = 16 * pageSize

	assert.NoError(t, MapRequest{Kind: MapKindStats, Length: pageSize}.Validate(pageSize, ringBufSize))
	assert.Error(t, MapRequest{Kind: MapKindStats, Length: pageSize + 1}.Validate(pageSize, ringBufSize))
	assert.Error(t, MapRequest{Kind: MapKindStats, Offset: 1, Length: pageSize}.Validate(pageSize, ringBufSize))

	assert.NoError(t, MapRequest{Kind: MapKindRing, Length: 2 * ringBufSize}.Validate(pageSize, ringBufSize))
	assert.Error(t, MapRequest{Kind: MapKindRing, Length: ringBufSize}.Validate(pageSize, ringBufSize))
	assert.Error(t, MapRequest{Kind: MapKindRing, Length: 2 * ringBufSize, Writable: true}.Validate(pageSize, ringBufSize))
}

func TestRegionProducerBufferLayout(t *testing.T) {
	skipIfUnsupported(t)
	const pageSize = 4096
	const ringBufSize = 4 * pageSize

	r, err := NewRegion(ringBufSize, pageSize)
	require.NoError(t, err)
	defer r.Close()

	buf := r.ProducerBuffer()
	require.Len(t, buf, ringBufSize+2*pageSize)

	buf[0] = 0xAB
	buf[ringBufSize-1] = 0xCD
	assert.Equal(t, byte(0xAB), buf[0])
	assert.Equal(t, byte(0xCD), buf[ringBufSize-1])

	// The overflow cushion is writable scratch, distinct memory from the
	// memfd-backed logical ring.
	buf[ringBufSize] = 0xEF
	assert.Equal(t, byte(0xEF), buf[ringBufSize])
}

func TestRegionMirrorReadsWrappedBytes(t *testing.T) {
	skipIfUnsupported(t)
	const pageSize = 4096
	const ringBufSize = 4 * pageSize

	r, err := NewRegion(ringBufSize, pageSize)
	require.NoError(t, err)
	defer r.Close()

	producer := r.ProducerBuffer()
	producer[ringBufSize-2] = 1
	producer[ringBufSize-1] = 2
	producer[0] = 3
	producer[1] = 4

	mirror, err := r.MapMirror()
	require.NoError(t, err)
	defer UnmapMirror(mirror)

	require.Len(t, mirror, 2*ringBufSize)
	assert.Equal(t, []byte{1, 2, 3, 4}, mirror[ringBufSize-2:ringBufSize+2])
	// The second half is the same memfd mapped again, not a copy: writes
	// to the underlying pages via the producer view show up in both
	// halves of the mirror.
	assert.Equal(t, mirror[0:pageSize], mirror[ringBufSize:ringBufSize+pageSize])
}

func TestNewStatsRegion(t *testing.T) {
	skipIfUnsupported(t)
	const pageSize = 4096

	sr, err := NewStatsRegion(pageSize)
	require.NoError(t, err)
	defer sr.Close()

	page := sr.ProducerPage()
	require.Len(t, page, pageSize)

	mapped, err := sr.MapStats()
	require.NoError(t, err)
	defer UnmapStats(mapped)

	page[0] = 0x7F
	assert.Equal(t, byte(0x7F), mapped[0])
}
