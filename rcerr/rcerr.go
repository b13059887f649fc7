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

// Package rcerr defines the sentinel errors ringcap's control and data
// planes return. They mirror the exit-code taxonomy of a char-device
// driver (NOMEM, BUSY, EINVAL, EIO, ENOENT, ENOTTY) without pulling in
// an errno package, since callers here are Go, not ioctl(2).
package rcerr

import "errors"

var (
	// ErrNoMem is returned when a registry or ring allocation fails.
	ErrNoMem = errors.New("ringcap: no memory")
	// ErrBusy is returned when a ring or consumer slot is already open,
	// or when the registry is at its configured consumer capacity.
	ErrBusy = errors.New("ringcap: device busy")
	// ErrInvalid is returned for a bad argument: out-of-range event index,
	// oversize snaplen, bad sampling ratio, malformed mmap request.
	ErrInvalid = errors.New("ringcap: invalid argument")
	// ErrIO stands for EIO in the taxonomy. No function in this module
	// returns it: user-memory copy faults are counted in the stats page,
	// and shared-memory mapping failures surface as the shm error itself.
	ErrIO = errors.New("ringcap: i/o error")
	// ErrNoEnt is returned when an owner is not found. An out-of-range
	// ring number gets ErrInvalid instead.
	ErrNoEnt = errors.New("ringcap: no such device")
	// ErrNotTTY is returned for an unrecognized control command.
	ErrNotTTY = errors.New("ringcap: inappropriate ioctl")
)
