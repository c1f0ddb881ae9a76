// Copyright 2024 The SoC Monitor authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build tamago && arm

package rk3328

import (
	"sync/atomic"
	"unsafe"
)

// MMIO implements Bus through direct physical memory access.
type MMIO struct{}

func (MMIO) Read32(addr uint32) uint32 {
	reg := (*uint32)(unsafe.Pointer(uintptr(addr)))
	return atomic.LoadUint32(reg)
}

func (MMIO) Write32(addr uint32, val uint32) {
	reg := (*uint32)(unsafe.Pointer(uintptr(addr)))
	atomic.StoreUint32(reg, val)
}

// Native returns the SoC peripherals on the running hardware.
func Native() (*SoC, *GIC, *UART) {
	bus := MMIO{}

	return &SoC{Bus: bus},
		&GIC{Bus: bus, Base: GIC_BASE},
		&UART{Bus: bus, Base: UART2_BASE}
}
