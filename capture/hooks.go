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

// ProbeAttacher is the OS/architecture-specific mechanism that actually
// hooks syscall_enter, syscall_exit, sched_process_exit and (optionally)
// sched_switch/signal_deliver — an external collaborator, same status as
// the filler callbacks (spec.md §1). The registry only calls through it,
// via ProbeHooks.
type ProbeAttacher interface {
	Attach() error
	Detach() error
}

// ProbeHooks adapts a ProbeAttacher to consumer.ProbeHooks, letting the
// registry register/unregister probes on the empty↔non-empty transition
// (spec.md §4.2).
type ProbeHooks struct {
	Attacher ProbeAttacher
}

func (h ProbeHooks) RegisterProbes() error   { return h.Attacher.Attach() }
func (h ProbeHooks) UnregisterProbes() error { return h.Attacher.Detach() }
