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

// Linux signal numbers spid derivation cares about (spec.md §4.7).
const (
	sigHUP  = 1
	sigINT  = 2
	sigQUIT = 3
	sigKILL = 9
	sigTERM = 15
	sigCHLD = 17
	sigTSTP = 20

	sigRtmin = 34
	sigRtmax = 64
)

// si_code values relevant to the USER/QUEUE check below (linux/siginfo.h).
const (
	siUser  = 0
	siQueue = -1
)

// DeriveSpid populates Args.Spid from a signal descriptor's info, per the
// per-signal table in spec.md §4.7.
func DeriveSpid(signo int32, info event.SignalInfo) int32 {
	switch signo {
	case sigKILL:
		return info.KillPid
	case sigTERM, sigHUP, sigINT, sigTSTP, sigQUIT:
		if info.Code == siUser || info.Code == siQueue || info.Code <= 0 {
			return info.Pid
		}
		return 0
	case sigCHLD:
		return info.ChldPid
	default:
		if signo >= sigRtmin && signo <= sigRtmax {
			return info.RtPid
		}
		return 0
	}
}
