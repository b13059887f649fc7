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

// Package rclog is ringcap's one piece of operational logging. It follows
// gopool's approach of leaning on the standard library logger rather than
// injecting a structured-logging dependency: the core never logs on the
// record hot path (that would defeat the "never blocks, never allocates"
// rule in spec.md §5), it only emits the once-per-second-per-ring summary
// of transient drops that spec.md §7 calls for.
package rclog

import (
	"log"
	"os"
)

var std = log.New(os.Stderr, "ringcap: ", log.LstdFlags)

// SetOutput redirects ringcap's logger. Tests and embedding applications
// can point it at a buffer or io.Discard.
func SetOutput(l *log.Logger) {
	if l != nil {
		std = l
	}
}

// Verbosef logs only when verbose is true. Its one caller is the per-ring
// drop summary (capture.SummaryReporter), which always passes true; the
// control plane does not log, and no registry-level verbose setting
// exists.
func Verbosef(verbose bool, format string, args ...interface{}) {
	if !verbose {
		return
	}
	std.Printf(format, args...)
}
