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

// Package rk3328 implements access to the Rockchip RK3328/RK322XH registers
// used by the SoC monitor: clock and reset unit (CRU), general register file
// (GRF), power management unit (PMU), eFuse controller, GIC-400 distributor,
// UART and secure generic timer.
//
// Register access goes through a Bus, the MMIO implementation is only
// available with `GOOS=tamago GOARCH=arm` as supported by the TamaGo
// framework for bare metal Go on ARM SoCs, see
// https://github.com/usbarmory/tamago.
package rk3328

// Peripheral base addresses
const (
	GRF_BASE   = 0xff100000
	UART2_BASE = 0xff130000
	PMU_BASE   = 0xff140000
	EFUSE_BASE = 0xff260000
	CRU_BASE   = 0xff440000
	GIC_BASE   = 0xff810000
)

// Bus represents 32-bit register access.
type Bus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, val uint32)
}

// SoC represents the RK3328 peripherals consulted and driven by the SoC
// monitor.
type SoC struct {
	Bus Bus
}

// writeMask returns a value for Rockchip registers which only latch the lower
// half bits whose write enable, in the upper half, is set.
func writeMask(mask uint32, val uint32) uint32 {
	return mask<<16 | val&mask
}
