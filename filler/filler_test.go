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

package filler

import (
	"errors"
	"testing"

	"github.com/ringcap/ringcap/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemuxTypeConnect(t *testing.T) {
	enterT, ok := DemuxType(SysConnect, false)
	require.True(t, ok)
	assert.Equal(t, event.TypeSocketConnectE, enterT)

	exitT, ok := DemuxType(SysConnect, true)
	require.True(t, ok)
	assert.Equal(t, event.TypeSocketConnectX, exitT)
}

func TestDemuxTypeOutOfRange(t *testing.T) {
	_, ok := DemuxType(0, false)
	assert.False(t, ok)
	_, ok = DemuxType(999, false)
	assert.False(t, ok)
}

func TestNArgsTable(t *testing.T) {
	n, ok := NArgs(SysListen)
	require.True(t, ok)
	assert.Equal(t, 2, n)

	n, ok = NArgs(SysSendto)
	require.True(t, ok)
	assert.Equal(t, 6, n)
}

type fakeReader struct {
	words map[uintptr][]int64
	err   error
}

func (f *fakeReader) ReadUserWords(addr uintptr, n int) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	w, ok := f.words[addr]
	if !ok || len(w) < n {
		return nil, errors.New("short read")
	}
	return w[:n], nil
}

func TestDemuxSocketcall(t *testing.T) {
	reader := &fakeReader{
		words: map[uintptr][]int64{
			0x1000: {SysConnect, 0x2000},
			0x2000: {3, 0xdead, 16},
		},
	}
	var args Args
	ty, ok := DemuxSocketcall(reader, 0x1000, false, &args)
	require.True(t, ok)
	assert.Equal(t, event.TypeSocketConnectE, ty)
	assert.Equal(t, 3, args.SocketcallNArgs)
	assert.Equal(t, int64(3), args.SocketcallArgs[0])
	assert.Equal(t, int64(0xdead), args.SocketcallArgs[1])
}

func TestDemuxSocketcallBadRead(t *testing.T) {
	reader := &fakeReader{err: errors.New("fault")}
	var args Args
	_, ok := DemuxSocketcall(reader, 0x1000, false, &args)
	assert.False(t, ok)
}

func TestDeriveSpid(t *testing.T) {
	assert.Equal(t, int32(42), DeriveSpid(sigKILL, event.SignalInfo{KillPid: 42}))
	assert.Equal(t, int32(7), DeriveSpid(sigTERM, event.SignalInfo{Code: siUser, Pid: 7}))
	assert.Equal(t, int32(0), DeriveSpid(sigTERM, event.SignalInfo{Code: 5, Pid: 7}))
	assert.Equal(t, int32(9), DeriveSpid(sigCHLD, event.SignalInfo{ChldPid: 9}))
	assert.Equal(t, int32(3), DeriveSpid(40, event.SignalInfo{RtPid: 3}))
	assert.Equal(t, int32(0), DeriveSpid(sigINT, event.SignalInfo{Code: 5, Pid: 99}))
}
