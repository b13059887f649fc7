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

// DropFlags are the per-call flags a probe site (C4) attaches to an
// event before handing it to the recorder, consulted by the sampling
// drop policy (spec.md §4.4, §4.5).
type DropFlags uint8

const (
	// Used marks a plain, otherwise-unremarkable event.
	Used DropFlags = 1 << iota
	// NeverDrop means the sampling policy must never drop this event,
	// regardless of dropping_mode (e.g. PROCEXIT_1_E, SOCKETCALL).
	NeverDrop
	// AlwaysDrop means the event is dropped whenever dropping_mode is
	// on, unconditionally (e.g. an unused syscall's GENERIC_E).
	AlwaysDrop
)

// Has reports whether all bits of other are set in f.
func (f DropFlags) Has(other DropFlags) bool { return f&other == other }
