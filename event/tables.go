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

// InfoTable is the read-only interface to g_event_info from spec.md §1/§4.3:
// per-type parameter counts and whether a type is filled by the generic
// autofill path rather than an event-specific filler. The core only ever
// reads through this; building and owning the table is explicitly out of
// scope (spec.md §1).
type InfoTable interface {
	// NParams returns g_event_info[t].nparams.
	NParams(t Type) int
	// AutoFill reports whether t is marked AUTOFILL (spec.md §4.3 step 8).
	AutoFill(t Type) bool
}

// SyscallTable is the read-only interface to g_syscall_table from
// spec.md §1/§4.4: the syscall id → event-type mapping, plus whether a
// syscall id is "used" (delivered) or should be force-dropped.
type SyscallTable interface {
	// EnterType returns the enter-side Type for syscall id, and whether
	// the syscall table marks it used. An id out of the table's range is
	// reported via ok=false and the probe ignores it (spec.md §4.4).
	EnterType(id int64) (t Type, used, ok bool)
	// ExitType is the exit-side counterpart of EnterType.
	ExitType(id int64) (t Type, used, ok bool)
	// IsSocketcall reports whether id is the architecture's aggregated
	// socketcall syscall, which is always forced used/NEVER_DROP and
	// demultiplexed by the recorder (spec.md §4.4, §4.7).
	IsSocketcall(id int64) bool
}
