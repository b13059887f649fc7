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

//go:build linux

package shm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// golang.org/x/sys/unix.Mmap never takes a target address, so it cannot
// express MAP_FIXED. Building the mirrored ring (spec.md §4.1, §9) needs
// that, so these thin wrappers call mmap(2) directly the way other
// raw-syscall ring buffers in the ecosystem do.

func mapFixed(fd int, offset int64, length int, addr uintptr) ([]byte, error) {
	return rawMmap(addr, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_FIXED|unix.MAP_SHARED, fd, offset)
}

func mapFixedRO(fd int, offset int64, length int, addr uintptr) ([]byte, error) {
	return rawMmap(addr, length, unix.PROT_READ, unix.MAP_FIXED|unix.MAP_SHARED, fd, offset)
}

func mapFixedAnon(length int, addr uintptr) ([]byte, error) {
	return rawMmap(addr, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_FIXED|unix.MAP_ANONYMOUS|unix.MAP_PRIVATE, -1, 0)
}

func rawMmap(addr uintptr, length, prot, flags, fd int, offset int64) ([]byte, error) {
	ptr, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, uintptr(length), uintptr(prot), uintptr(flags), uintptr(fd), uintptr(offset))
	if errno != 0 {
		return nil, errno
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), length)
	return b, nil
}

func uintptrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
