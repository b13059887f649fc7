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

// Package filler defines the external contract the event recorder (C3)
// calls through to encode one event's parameters: the arguments block
// handed to a filler, the Func signature and its result codes, and the
// socketcall demultiplexing table (spec.md §1, §4.7). Actual fillers —
// the per-syscall parameter encoders — are deliberately out of the
// core's scope; this package only describes the boundary.
package filler

import "github.com/ringcap/ringcap/event"

// Result is returned by a Func after it has attempted to encode one
// event's parameters.
type Result int

const (
	// Success means all nargs length prefixes and payloads were written.
	Success Result = iota
	// BufferFull means the filler ran out of the window it was given;
	// counted as a buffer drop, never retried (spec.md §4.7).
	BufferFull
	// InvalidUserMemory means a user-memory copy faulted; counted as a
	// page-fault drop (spec.md §4.7).
	InvalidUserMemory
)

// Args is the arguments block passed to a Func (spec.md §4.7). Buffer is
// the writer's reserved window starting at the record's parameter
// length-prefix area (i.e. just past the fixed header); the filler must
// write exactly NArgs 16-bit length prefixes there followed by that many
// payloads, and report how many bytes it used via ArgDataOffset.
type Args struct {
	Buffer     []byte
	BufferSize int
	NArgs      int
	// ArgDataOffset is set by the filler to the number of bytes written
	// into Buffer (length prefixes + payloads together).
	ArgDataOffset int

	Descriptor event.Descriptor

	// Spid is derived by the core from signal_data.info before the
	// filler runs (DeriveSpid below); Dpid is left for the filler/runtime
	// collaborator to resolve (destination pid, e.g. sched_switch's
	// next task), outside the core's scope.
	Spid int32
	Dpid int32

	Snaplen        int
	EnforceSnaplen bool
	DynamicSnaplen bool

	// StrStorage is the ring's scratch page (Ring.StrStorage), exclusive
	// to the writing CPU for the duration of one record call.
	StrStorage []byte

	// SocketcallArgs holds the sub-call argument words copied during
	// socketcall demultiplexing (DemuxSocketcall), sized to at most
	// MaxSocketcallArgs longs.
	SocketcallArgs [MaxSocketcallArgs]int64
	SocketcallNArgs int
}

// Func is the per-event-type parameter encoder the core invokes. AutoFill
// types (event.InfoTable.AutoFill) use the single generic Func the
// recorder's FillerLookup.Generic returns instead of a type-specific one.
type Func func(args *Args) Result
