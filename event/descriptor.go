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

// Kind tags which probe site produced a Descriptor.
type Kind uint8

const (
	KindSyscall Kind = iota
	KindContextSwitch
	KindSignal
)

// RegSource is the arch-specific register-state accessor a syscall probe
// hands the core. The core never reads through it directly — it is opaque,
// passed straight to the filler contract (spec.md §1, §6 "out of scope").
type RegSource any

// SyscallData is the SYSCALL(regs, id) descriptor variant of spec.md §3.
type SyscallData struct {
	Regs RegSource
	ID   int64
}

// ContextSwitchData is the CONTEXT_SWITCH(prev, next) descriptor variant.
// Prev/Next are opaque task handles; the core only forwards them to the
// filler, same as Regs above.
type ContextSwitchData struct {
	Prev any
	Next any
}

// SignalInfo carries the union members of siginfo_t the core needs to
// resolve spid per spec.md §4.7, without requiring the core to know the
// full layout of siginfo_t.
type SignalInfo struct {
	Code    int32 // si_code
	Pid     int32 // si_pid, valid for most signals
	KillPid int32 // _kill._pid, valid for SIGKILL
	ChldPid int32 // _sigchld._pid, valid for SIGCHLD
	RtPid   int32 // _rt._pid, valid for SIGRTMIN..SIGRTMAX
}

// SignalData is the SIGNAL(sig, info, ka) descriptor variant.
type SignalData struct {
	Signo int32
	Info  SignalInfo
	Ka    any // sigaction, opaque
}

// Descriptor is the transient, stack-resident value built at a probe site
// (spec.md §3). Exactly one of the three payload fields is meaningful,
// selected by Kind; it is a value type, not an interface, so building one
// at a probe call site does not allocate.
type Descriptor struct {
	Kind          Kind
	Syscall       SyscallData
	ContextSwitch ContextSwitchData
	Signal        SignalData
}
