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

// Package capture implements the event recorder (C3) and probe dispatch
// (C4): the per-event record algorithm that writes one event into one
// consumer's ring, and the five kernel probe sites that build an
// event.Descriptor and fan it out to every registered consumer
// (spec.md §4.3, §4.4).
package capture

import (
	"github.com/ringcap/ringcap/consumer"
	"github.com/ringcap/ringcap/event"
	"github.com/ringcap/ringcap/filler"
)

// FillerLookup resolves the filler.Func that encodes one event type's
// parameters (spec.md §1, §4.3 step 8). Fillers themselves are out of
// the core's scope; the recorder only calls through this interface.
type FillerLookup interface {
	// Specific returns the event-specific filler for t.
	Specific(t event.Type) (filler.Func, bool)
	// Generic returns the single autofill filler used for every type
	// event.InfoTable.AutoFill marks AUTOFILL.
	Generic() (filler.Func, bool)
}

// Outcome reports what happened to one Record call (spec.md §4.3's
// conceptual {committed, dropped_buffer, dropped_policy} return).
type Outcome struct {
	Committed     bool
	DroppedBuffer bool
	DroppedPf     bool
	DroppedPolicy bool
	EventType     event.Type
}

// Recorder ties the read-only collaborator tables (spec.md §1) to the
// ring/consumer packages to implement the per-event record algorithm.
type Recorder struct {
	Info     event.InfoTable
	Syscalls event.SyscallTable
	Fillers  FillerLookup
	Words    filler.UserWordReader // optional: only needed for socketcall demux
}

// Record implements spec.md §4.3's algorithm end to end for one
// (consumer, ring) pair. tid is the current thread id for the header;
// isExit distinguishes the enter/exit side of a SYSCALL descriptor for
// socketcall demultiplexing.
func (rec *Recorder) Record(c *consumer.Consumer, ringNo int, tid uint32, eventType event.Type, flags event.DropFlags, tsNs uint64, desc event.Descriptor, isExit bool) Outcome {
	out := Outcome{EventType: eventType}

	// Step 1: global mask.
	if !c.Mask().Test(eventType) {
		out.DroppedPolicy = true
		return out
	}

	isDropMarker := eventType == event.TypeDropE || eventType == event.TypeDropX
	if !isDropMarker {
		// Step 2: emit any deferred marker first, then consult policy.
		if markerType, ok := c.TakeDeferredDropMarker(); ok {
			rec.Record(c, ringNo, tid, markerType, event.NeverDrop, tsNs, event.Descriptor{}, false)
		}
		if c.ShouldDrop(flags, int64(tsNs)) {
			out.DroppedPolicy = true
			return out
		}
	}

	// Step 3: bind to this CPU's ring; must be capture-enabled.
	r := c.Ring(ringNo)
	if r == nil || !r.CaptureEnabled() {
		return out
	}

	// Step 4: unconditional n_evts bump, ahead of the preempt gate.
	r.IncEvts()
	if desc.Kind == event.KindContextSwitch && eventType != event.TypeSysdigEventE {
		r.IncContextSwitches()
	}

	// Step 5: preempt gate.
	if !r.AcquirePreemptGate() {
		return out
	}
	defer r.ReleasePreemptGate()

	// Step 6: socketcall demultiplex.
	var sockArgs filler.Args
	if desc.Kind == event.KindSyscall && rec.Syscalls != nil && rec.Syscalls.IsSocketcall(desc.Syscall.ID) && rec.Words != nil {
		if regs, ok := desc.Syscall.Regs.(socketcallRegs); ok {
			if t, ok := filler.DemuxSocketcall(rec.Words, regs.ArgsPtr(), isExit, &sockArgs); ok {
				eventType = t
				out.EventType = t
			}
		}
	}

	// Step 7: space + nargs check.
	free, window := r.Space()
	nargs := rec.Info.NParams(eventType)
	need := event.HeaderSize + 2*nargs
	if free < need {
		r.IncDropsBuffer()
		out.DroppedBuffer = true
		return out
	}

	buf, _ := r.Reserve()
	if window < need {
		r.IncDropsBuffer()
		out.DroppedBuffer = true
		return out
	}

	// Step 8: header + filler invocation.
	var fn filler.Func
	var ok bool
	if rec.Info.AutoFill(eventType) {
		fn, ok = rec.Fillers.Generic()
	} else {
		fn, ok = rec.Fillers.Specific(eventType)
	}
	if !ok {
		// Corrupt/missing filler: spec.md §7 treats this as a
		// programming bug in the external filler, never a protocol
		// error — debug-assert and drop without committing.
		r.IncDropsBuffer()
		out.DroppedBuffer = true
		return out
	}

	fargs := filler.Args{
		Buffer:         buf[event.HeaderSize:window],
		BufferSize:     window - event.HeaderSize,
		NArgs:          nargs,
		Descriptor:     desc,
		Snaplen:        int(c.Snaplen()),
		EnforceSnaplen: true,
		DynamicSnaplen: c.DynamicSnaplen(),
		StrStorage:     r.StrStorage(),

		SocketcallArgs:  sockArgs.SocketcallArgs,
		SocketcallNArgs: sockArgs.SocketcallNArgs,
	}
	if desc.Kind == event.KindSignal {
		fargs.Spid = filler.DeriveSpid(desc.Signal.Signo, desc.Signal.Info)
	}

	result := fn(&fargs)

	// Step 9.
	switch result {
	case filler.Success:
		hdr := event.Header{TimestampNs: tsNs, ThreadID: tid, EventType: eventType, Len: uint32(event.HeaderSize + fargs.ArgDataOffset)}
		hdr.Marshal(buf)
	case filler.BufferFull:
		r.IncDropsBuffer()
		out.DroppedBuffer = true
		return out
	case filler.InvalidUserMemory:
		r.IncDropsPf()
		out.DroppedPf = true
		return out
	default:
		r.IncDropsBuffer()
		out.DroppedBuffer = true
		return out
	}

	// Step 10: commit.
	r.Commit(event.HeaderSize + fargs.ArgDataOffset)
	out.Committed = true
	return out
}

// socketcallRegs is the minimal shape a SyscallData.Regs value must
// implement for socketcall demultiplexing; arch-specific register
// accessors are an external collaborator (spec.md §1), same as RegSource
// itself.
type socketcallRegs interface {
	ArgsPtr() uintptr
}
