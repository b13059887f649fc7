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

package capture

import (
	"github.com/ringcap/ringcap/consumer"
	"github.com/ringcap/ringcap/event"
)

// Dispatcher hooks the kernel probe points described in spec.md §4.4:
// each probe-site method builds an event.Descriptor and fans it out to
// every registered consumer's ring for the firing CPU.
type Dispatcher struct {
	Registry *consumer.Registry
	Recorder *Recorder
}

// recordAllConsumers reads the consumer set under the registry's
// lock-free read barrier and invokes the recorder once per consumer
// (spec.md §4.4).
func (d *Dispatcher) recordAllConsumers(cpu int, tid uint32, eventType event.Type, flags event.DropFlags, tsNs uint64, desc event.Descriptor, isExit bool) {
	d.Registry.Range(func(c *consumer.Consumer) {
		d.Recorder.Record(c, cpu, tid, eventType, flags, tsNs, desc, isExit)
	})
}

// SyscallEnter is the syscall_enter probe site (spec.md §4.4). Skipping
// 32-bit-task-on-64-bit-kernel compat syscalls is an arch-specific
// concern the probe-registration layer filters before calling this, out
// of the core's scope (spec.md §1).
func (d *Dispatcher) SyscallEnter(cpu int, tid uint32, tsNs uint64, regs event.RegSource, syscallID int64) {
	t, used, ok := d.Recorder.Syscalls.EnterType(syscallID)
	if !ok {
		return
	}
	flags := event.Used
	switch {
	case d.Recorder.Syscalls.IsSocketcall(syscallID):
		flags = event.NeverDrop
	case !used:
		t = event.TypeGenericE
		flags = event.AlwaysDrop
	}
	desc := event.Descriptor{Kind: event.KindSyscall, Syscall: event.SyscallData{Regs: regs, ID: syscallID}}
	d.recordAllConsumers(cpu, tid, t, flags, tsNs, desc, false)
}

// SyscallExit is the syscall_exit probe site, symmetric with SyscallEnter.
func (d *Dispatcher) SyscallExit(cpu int, tid uint32, tsNs uint64, regs event.RegSource, syscallID int64) {
	t, used, ok := d.Recorder.Syscalls.ExitType(syscallID)
	if !ok {
		return
	}
	flags := event.Used
	switch {
	case d.Recorder.Syscalls.IsSocketcall(syscallID):
		flags = event.NeverDrop
	case !used:
		t = event.TypeGenericX
		flags = event.AlwaysDrop
	}
	desc := event.Descriptor{Kind: event.KindSyscall, Syscall: event.SyscallData{Regs: regs, ID: syscallID}}
	d.recordAllConsumers(cpu, tid, t, flags, tsNs, desc, true)
}

// SchedProcessExit is the sched_process_exit probe site. Kernel threads
// are filtered by the caller, which alone knows how to read the task's
// PF_KTHREAD flag (spec.md §4.4, out of core scope per §1).
func (d *Dispatcher) SchedProcessExit(cpu int, tid uint32, tsNs uint64) {
	d.recordAllConsumers(cpu, tid, event.TypeProcexit1E, event.NeverDrop, tsNs, event.Descriptor{}, false)
}

// SchedSwitch is the sched_switch probe site.
func (d *Dispatcher) SchedSwitch(cpu int, tid uint32, tsNs uint64, prev, next any) {
	desc := event.Descriptor{Kind: event.KindContextSwitch, ContextSwitch: event.ContextSwitchData{Prev: prev, Next: next}}
	d.recordAllConsumers(cpu, tid, event.TypeSchedswitch6E, event.Used, tsNs, desc, false)
}

// SignalDeliver is the signal_deliver probe site. It records for every
// consumer, same as every other probe site (spec.md §4.4). ENABLE/
// DISABLE_SIGNAL_DELIVER only set a per-consumer flag
// (Consumer.SignalDeliverEnabled); they register or unregister no probe,
// and this method does not consult the flag.
func (d *Dispatcher) SignalDeliver(cpu int, tid uint32, tsNs uint64, signo int32, info event.SignalInfo, ka any) {
	desc := event.Descriptor{Kind: event.KindSignal, Signal: event.SignalData{Signo: signo, Info: info, Ka: ka}}
	d.recordAllConsumers(cpu, tid, event.TypeSignalDeliverE, event.Used|event.AlwaysDrop, tsNs, desc, false)
}

// InjectSysdigEventFor emits the synthetic SYSDIGEVENT_E marker spec.md
// §4.5 requires on DISABLE_DROPPING_MODE, scoped to the one consumer
// whose control command triggered it so only that reader observes the
// state-change notice.
func (d *Dispatcher) InjectSysdigEventFor(c *consumer.Consumer, cpu int, tid uint32, tsNs uint64) {
	d.Recorder.Record(c, cpu, tid, event.TypeSysdigEventE, event.NeverDrop, tsNs, event.Descriptor{}, false)
}

// Control runs a control-plane command and performs any side effect the
// core (rather than the consumer package) owns: DISABLE_DROPPING_MODE's
// synthetic marker (spec.md §4.5).
func (d *Dispatcher) Control(h *consumer.Handle, cpu int, tid uint32, tsNs uint64, cmd consumer.Command, arg int64, pids consumer.PidResolver) (int64, error) {
	res, err := h.Control(cmd, arg, pids)
	if err == nil && cmd == consumer.DisableDroppingMode {
		d.InjectSysdigEventFor(h.Consumer(), cpu, tid, tsNs)
	}
	return res, err
}
