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

// Package event defines ringcap's wire data model: the fixed event header,
// the closed event-type enumeration, the process-wide event mask and the
// transient probe-site descriptors. None of this package touches the ring
// buffer itself (see package ring); it only describes the bytes the ring
// carries.
package event

// Type identifies one kind of event in the closed enumeration. The table
// that maps a syscall id to a Type (g_syscall_table in spec.md) and the
// table of per-type parameter counts (g_event_info) are both external
// collaborators the core only consults through the InfoTable and
// SyscallTable interfaces (tables.go).
type Type uint16

// The subset of the enumeration the core itself emits or reasons about.
// Syscall-specific enter/exit pairs beyond GENERIC and the SOCKET_* demux
// targets are supplied by the external syscall table (SyscallTable); the
// core never hard-codes them.
const (
	TypeGenericE Type = iota + 1
	TypeGenericX

	TypeProcexit1E
	TypeSchedswitch6E
	TypeSignalDeliverE

	TypeSysdigEventE // synthetic marker, e.g. DISABLE_DROPPING_MODE notice

	TypeDropE
	TypeDropX

	// Socketcall demux targets (spec.md §4.4, §4.7). Exit types are always
	// Enter+1, matching the kernel source's "+1 for exit" convention.
	TypeSocketSocketE
	TypeSocketSocketX
	TypeSocketBindE
	TypeSocketBindX
	TypeSocketConnectE
	TypeSocketConnectX
	TypeSocketListenE
	TypeSocketListenX
	TypeSocketAcceptE
	TypeSocketAcceptX
	TypeSocketGetsocknameE
	TypeSocketGetsocknameX
	TypeSocketGetpeernameE
	TypeSocketGetpeernameX
	TypeSocketSocketpairE
	TypeSocketSocketpairX
	TypeSocketSendE
	TypeSocketSendX
	TypeSocketSendtoE
	TypeSocketSendtoX
	TypeSocketRecvE
	TypeSocketRecvX
	TypeSocketRecvfromE
	TypeSocketRecvfromX
	TypeSocketShutdownE
	TypeSocketShutdownX
	TypeSocketSetsockoptE
	TypeSocketSetsockoptX
	TypeSocketGetsockoptE
	TypeSocketGetsockoptX
	TypeSocketSendmsgE
	TypeSocketSendmsgX
	TypeSocketSendmmsgE
	TypeSocketSendmmsgX
	TypeSocketRecvmsgE
	TypeSocketRecvmsgX
	TypeSocketRecvmmsgE
	TypeSocketRecvmmsgX
	TypeSocketAccept4E
	TypeSocketAccept4X

	// maxBuiltinType marks the end of the range the core itself names;
	// a syscall table may hand back Types beyond this value.
	maxBuiltinType
)

// MaxType is the highest Type the core's own EventMask must be able to
// address at minimum; a filler/syscall-table implementation is free to use
// higher values and the mask simply grows to cover them (see Mask.Grow).
const MaxType = int(maxBuiltinType)

// HeaderSize is sizeof(struct ppm_evt_hdr) in spec.md §3/§4.3: 8+4+2+4 bytes,
// LittleEndian, no padding when packed explicitly (see Header.Marshal).
const HeaderSize = 8 + 4 + 2 + 4

// Header is the fixed prefix of every record in the ring (spec.md §3).
// It is immediately followed by nparams 16-bit length prefixes and then
// the concatenated parameter payloads; Header.Len covers all of it.
type Header struct {
	TimestampNs uint64
	ThreadID    uint32
	EventType   Type
	Len         uint32 // header + length-prefixes + payloads, spec.md §3
}

// Marshal writes the header in the fixed wire layout into b, which must
// have length >= HeaderSize. It does not allocate.
func (h Header) Marshal(b []byte) {
	_ = b[HeaderSize-1]
	le.PutUint64(b[0:8], h.TimestampNs)
	le.PutUint32(b[8:12], h.ThreadID)
	le.PutUint16(b[12:14], uint16(h.EventType))
	le.PutUint32(b[14:18], h.Len)
}

// UnmarshalHeader reads a header from b, which must have length >= HeaderSize.
func UnmarshalHeader(b []byte) Header {
	_ = b[HeaderSize-1]
	return Header{
		TimestampNs: le.Uint64(b[0:8]),
		ThreadID:    le.Uint32(b[8:12]),
		EventType:   Type(le.Uint16(b[12:14])),
		Len:         le.Uint32(b[14:18]),
	}
}
