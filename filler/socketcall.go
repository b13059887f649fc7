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

import "github.com/ringcap/ringcap/event"

// Sub-call ids for the aggregated socketcall syscall (linux/net.h), 1-20.
// Index 0 of nas below is unused, giving the 21-entry table spec.md §4.7
// describes.
const (
	SysSocket = iota + 1
	SysBind
	SysConnect
	SysListen
	SysAccept
	SysGetsockname
	SysGetpeername
	SysSocketpair
	SysSend
	SysRecv
	SysSendto
	SysRecvfrom
	SysShutdown
	SysSetsockopt
	SysGetsockopt
	SysSendmsg
	SysRecvmsg
	SysAccept4
	SysRecvmmsg
	SysSendmmsg

	maxSyscallSub
)

// MaxSocketcallArgs is the widest sub-call argument count below.
const MaxSocketcallArgs = 6

// nas holds, per sub-call id, how many argument words the kernel's
// sys_socketcall copies from the user-space argument array before
// dispatching; index 0 is unused.
var nas = [maxSyscallSub]int{
	SysSocket:      3,
	SysBind:        3,
	SysConnect:     3,
	SysListen:      2,
	SysAccept:      3,
	SysGetsockname: 3,
	SysGetpeername: 3,
	SysSocketpair:  4,
	SysSend:        4,
	SysRecv:        4,
	SysSendto:      6,
	SysRecvfrom:    6,
	SysShutdown:    2,
	SysSetsockopt:  5,
	SysGetsockopt:  5,
	SysSendmsg:     3,
	SysRecvmsg:     3,
	SysAccept4:     4,
	SysRecvmmsg:    5,
	SysSendmmsg:    4,
}

// enterTypes maps a sub-call id to its enter-side event.Type; the exit
// type is always enter+1 (spec.md §4.4, §4.7).
var enterTypes = [maxSyscallSub]event.Type{
	SysSocket:      event.TypeSocketSocketE,
	SysBind:        event.TypeSocketBindE,
	SysConnect:     event.TypeSocketConnectE,
	SysListen:      event.TypeSocketListenE,
	SysAccept:      event.TypeSocketAcceptE,
	SysGetsockname: event.TypeSocketGetsocknameE,
	SysGetpeername: event.TypeSocketGetpeernameE,
	SysSocketpair:  event.TypeSocketSocketpairE,
	SysSend:        event.TypeSocketSendE,
	SysRecv:        event.TypeSocketRecvE,
	SysSendto:      event.TypeSocketSendtoE,
	SysRecvfrom:    event.TypeSocketRecvfromE,
	SysShutdown:    event.TypeSocketShutdownE,
	SysSetsockopt:  event.TypeSocketSetsockoptE,
	SysGetsockopt:  event.TypeSocketGetsockoptE,
	SysSendmsg:     event.TypeSocketSendmsgE,
	SysRecvmsg:     event.TypeSocketRecvmsgE,
	SysAccept4:     event.TypeSocketAccept4E,
	SysRecvmmsg:    event.TypeSocketRecvmmsgE,
	SysSendmmsg:    event.TypeSocketSendmmsgE,
}

// NArgs returns the number of user-space argument words sub-call id
// carries, or ok=false if id is out of the known range.
func NArgs(subCallID int64) (n int, ok bool) {
	if subCallID <= 0 || subCallID >= int64(maxSyscallSub) {
		return 0, false
	}
	return nas[subCallID], true
}

// DemuxType resolves a socketcall sub-call id to its enter event.Type;
// pass exit=true for the corresponding exit type (enter+1), matching the
// kernel source's "+1 for exit" convention (spec.md §4.7).
func DemuxType(subCallID int64, exit bool) (t event.Type, ok bool) {
	if subCallID <= 0 || subCallID >= int64(maxSyscallSub) {
		return 0, false
	}
	t = enterTypes[subCallID]
	if t == 0 {
		return 0, false
	}
	if exit {
		t++
	}
	return t, true
}

// UserWordReader copies n long (8-byte on 64-bit) words starting at a
// user-space pointer, as the recorder needs to read the socketcall
// sub-call id and its argument-array pointer from user registers. It is
// an external collaborator, same status as RegSource (spec.md §1).
type UserWordReader interface {
	ReadUserWords(addr uintptr, n int) ([]int64, error)
}

// DemuxSocketcall implements spec.md §4.7's socketcall demultiplex: reads
// args[0] (the sub-call id) and args[1] (a user pointer to the sub-call's
// own argument array) via reader, resolves the sub-call's argument count
// from nas, copies that many words into args.SocketcallArgs, and
// resolves the enter event type.
func DemuxSocketcall(reader UserWordReader, socketcallArgsPtr uintptr, exit bool, args *Args) (t event.Type, ok bool) {
	header, err := reader.ReadUserWords(socketcallArgsPtr, 2)
	if err != nil || len(header) < 2 {
		return 0, false
	}
	subCallID := header[0]
	subArgsPtr := uintptr(header[1])

	n, ok := NArgs(subCallID)
	if !ok {
		return 0, false
	}
	t, ok = DemuxType(subCallID, exit)
	if !ok {
		return 0, false
	}
	words, err := reader.ReadUserWords(subArgsPtr, n)
	if err != nil {
		return 0, false
	}
	copy(args.SocketcallArgs[:], words)
	args.SocketcallNArgs = n
	return t, true
}
