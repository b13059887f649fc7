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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{TimestampNs: 123456789, ThreadID: 42, EventType: TypeSocketConnectE, Len: 37}
	b := make([]byte, HeaderSize)
	h.Marshal(b)
	got := UnmarshalHeader(b)
	assert.Equal(t, h, got)
}

func TestStatsRoundTrip(t *testing.T) {
	s := Stats{Head: 10, Tail: 3, NEvts: 100, NDropsBuffer: 5, NDropsPf: 1, NPreemptions: 2, NContextSwitches: 7}
	b := make([]byte, StatsSize)
	s.Marshal(b)
	assert.Equal(t, s, UnmarshalStats(b))
}

func TestParamLenRoundTrip(t *testing.T) {
	b := make([]byte, 2)
	PutParamLen(b, 65000)
	assert.EqualValues(t, 65000, ParamLen(b))
}

func TestMaskForcesDropBitsOn(t *testing.T) {
	m := NewMask()
	assert.True(t, m.Test(TypeDropE))
	assert.True(t, m.Test(TypeDropX))
	assert.False(t, m.Test(TypeGenericE))
}

func TestMaskSetUnset(t *testing.T) {
	m := NewMask()
	m.Set(TypeGenericE)
	assert.True(t, m.Test(TypeGenericE))
	m.Unset(TypeGenericE)
	assert.False(t, m.Test(TypeGenericE))
}

func TestMaskZeroKeepsDropBits(t *testing.T) {
	m := NewMask()
	m.Set(TypeGenericE)
	m.Set(TypeGenericX)
	m.Zero()
	assert.False(t, m.Test(TypeGenericE))
	assert.False(t, m.Test(TypeGenericX))
	assert.True(t, m.Test(TypeDropE))
	assert.True(t, m.Test(TypeDropX))
}

func TestMaskGrowBeyondMaxType(t *testing.T) {
	m := NewMask()
	beyond := Type(MaxType + 200)
	m.Grow(beyond)
	m.Set(beyond)
	assert.True(t, m.Test(beyond))
	// Existing bits survive the grow.
	assert.True(t, m.Test(TypeDropE))
}

func TestDropFlagsHas(t *testing.T) {
	f := Used | NeverDrop
	assert.True(t, f.Has(Used))
	assert.True(t, f.Has(NeverDrop))
	assert.False(t, f.Has(AlwaysDrop))
	assert.True(t, f.Has(Used|NeverDrop))
}
