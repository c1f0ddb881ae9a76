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

// Package sim provides an emulated RK3328 register file, generic timer and
// interrupt dispatch for tests and host tools.
package sim

// ReadHook is called in place of a register read.
type ReadHook func(b *Bus, addr uint32) uint32

// WriteHook is called in place of a register write.
type WriteHook func(b *Bus, addr uint32, val uint32)

// Bus is a map backed register file, registers without hooks behave as
// plain memory.
type Bus struct {
	Regs map[uint32]uint32

	reads  map[uint32]ReadHook
	writes map[uint32]WriteHook

	// Writes counts register writes by address.
	Writes map[uint32]int
}

// NewBus returns an empty register file.
func NewBus() *Bus {
	return &Bus{
		Regs:   make(map[uint32]uint32),
		reads:  make(map[uint32]ReadHook),
		writes: make(map[uint32]WriteHook),
		Writes: make(map[uint32]int),
	}
}

// OnRead installs a read hook for addr.
func (b *Bus) OnRead(addr uint32, h ReadHook) {
	b.reads[addr] = h
}

// OnWrite installs a write hook for addr.
func (b *Bus) OnWrite(addr uint32, h WriteHook) {
	b.writes[addr] = h
}

func (b *Bus) Read32(addr uint32) uint32 {
	if h, ok := b.reads[addr]; ok {
		return h(b, addr)
	}

	return b.Regs[addr]
}

func (b *Bus) Write32(addr uint32, val uint32) {
	b.Writes[addr]++

	if h, ok := b.writes[addr]; ok {
		h(b, addr, val)
		return
	}

	b.Regs[addr] = val
}

// Masked is a WriteHook for Rockchip registers where the upper half word
// holds write enables for the lower half.
func Masked(b *Bus, addr uint32, val uint32) {
	mask := val >> 16
	b.Regs[addr] = b.Regs[addr]&^mask | val&mask
}

// SetBits is a WriteHook for write 1 to set registers.
func SetBits(b *Bus, addr uint32, val uint32) {
	b.Regs[addr] |= val
}

// ClearBits returns a WriteHook for write 1 to clear registers, the bits are
// cleared in the register at target.
func ClearBits(target uint32) WriteHook {
	return func(b *Bus, _ uint32, val uint32) {
		b.Regs[target] &^= val
	}
}
