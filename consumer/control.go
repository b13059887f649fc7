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

package consumer

import (
	"github.com/ringcap/ringcap/event"
	"github.com/ringcap/ringcap/rcerr"
)

// Command identifies one control-plane operation (spec.md §4.5).
type Command int

const (
	EnableCapture Command = iota
	DisableCapture
	EnableDroppingMode
	DisableDroppingMode
	SetSnaplen
	MaskZeroEvents
	MaskSetEvent
	MaskUnsetEvent
	EnableDynamicSnaplen
	DisableDynamicSnaplen
	EnableSignalDeliver
	DisableSignalDeliver
	GetVtid
	GetVpid
	GetCurrentTid
	GetCurrentPid
)

// PidResolver resolves system-wide pids to their namespace-local view, an
// OS-specific external collaborator (spec.md §4.5 GET_VTID/GET_VPID).
type PidResolver interface {
	Vtid(systemWidePid int64) (int64, bool)
	Vpid(systemWidePid int64) (int64, bool)
	CurrentTid() int64
	CurrentPid() int64
}

// Control dispatches one command against a specific ring (for
// ENABLE/DISABLE_CAPTURE, which are per-ring per spec.md's command
// table) or against the consumer as a whole. arg carries the command's
// single integer argument where applicable; result carries the command's
// single integer result (pid queries).
func (c *Consumer) Control(ringNo int, cmd Command, arg int64, pids PidResolver) (result int64, err error) {
	switch cmd {
	case EnableCapture, DisableCapture:
		r := c.Ring(ringNo)
		if r == nil {
			return 0, rcerr.ErrInvalid
		}
		r.SetCaptureEnabled(cmd == EnableCapture)
		return 0, nil

	case EnableDroppingMode:
		if !isValidRatio(arg) {
			return 0, rcerr.ErrInvalid
		}
		c.SetDroppingMode(int32(arg))
		return 0, nil

	case DisableDroppingMode:
		c.ClearDroppingMode()
		// A SYSDIGEVENT_E marker is injected by the caller (capture),
		// which has access to the recorder/descriptor machinery this
		// package intentionally does not depend on.
		return 0, nil

	case SetSnaplen:
		if arg <= 0 || arg > RWMaxSnaplen {
			return 0, rcerr.ErrInvalid
		}
		c.SetSnaplen(int32(arg))
		return 0, nil

	case MaskZeroEvents:
		c.mask.Zero()
		return 0, nil

	case MaskSetEvent:
		if arg < 0 || arg >= int64(event.MaxType) {
			return 0, rcerr.ErrInvalid
		}
		c.mask.Set(event.Type(arg))
		return 0, nil

	case MaskUnsetEvent:
		if arg < 0 || arg >= int64(event.MaxType) {
			return 0, rcerr.ErrInvalid
		}
		c.mask.Unset(event.Type(arg))
		return 0, nil

	case EnableDynamicSnaplen:
		c.SetDynamicSnaplen(true)
		return 0, nil
	case DisableDynamicSnaplen:
		c.SetDynamicSnaplen(false)
		return 0, nil

	case EnableSignalDeliver:
		c.SetSignalDeliver(true)
		return 0, nil
	case DisableSignalDeliver:
		c.SetSignalDeliver(false)
		return 0, nil

	case GetVtid:
		if pids == nil {
			return 0, rcerr.ErrInvalid
		}
		tid, ok := pids.Vtid(arg)
		if !ok {
			return 0, rcerr.ErrInvalid
		}
		return tid, nil

	case GetVpid:
		if pids == nil {
			return 0, rcerr.ErrInvalid
		}
		pid, ok := pids.Vpid(arg)
		if !ok {
			return 0, rcerr.ErrInvalid
		}
		return pid, nil

	case GetCurrentTid:
		if pids == nil {
			return 0, rcerr.ErrInvalid
		}
		return pids.CurrentTid(), nil

	case GetCurrentPid:
		if pids == nil {
			return 0, rcerr.ErrInvalid
		}
		return pids.CurrentPid(), nil

	default:
		return 0, rcerr.ErrNotTTY
	}
}

func isValidRatio(r int64) bool {
	switch r {
	case 1, 2, 4, 8, 16, 32, 64, 128:
		return true
	default:
		return false
	}
}
