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

package rk3328

import (
	"github.com/usbarmory/tamago/bits"
)

// GIC-400 distributor registers
const (
	GICD_OFF = 0x1000

	GICD_CTLR        = 0x000
	CTLR_ENABLE_GRP0 = 0
	CTLR_ENABLE_GRP1 = 1

	GICD_IGROUPR   = 0x080
	GICD_ISENABLER = 0x100
	GICD_ICENABLER = 0x180
	GICD_ITARGETSR = 0x800

	// secure physical timer PPI
	SEC_PHY_TIMER_IRQ = 29
)

// GIC-400 CPU interface registers
const (
	GICC_OFF = 0x2000

	GICC_CTLR  = 0x00
	CTLR_FIQEN = 3

	GICC_PMR  = 0x04
	GICC_IAR  = 0x0c
	GICC_EOIR = 0x10

	IAR_ID_MASK = 0x3ff

	SPURIOUS_IRQ = 1023
)

// GIC represents the GIC-400 interrupt controller, it only covers routing of
// secure interrupts as FIQs.
type GIC struct {
	Bus  Bus
	Base uint32
}

func (hw *GIC) dist(reg uint32, id int, width int) (addr uint32, pos int) {
	perWord := 32 / width
	addr = hw.Base + GICD_OFF + reg + uint32(id/perWord)*4
	pos = (id % perWord) * width
	return
}

// EnableInterrupt configures interrupt id as Group 0 (secure, signalled as
// FIQ), targeted at the cpu mask, and enables its forwarding.
//
// Targets of SGIs and PPIs are fixed by hardware, their ITARGETSR bytes
// ignore writes.
func (hw *GIC) EnableInterrupt(id int, cpu uint32) {
	addr, pos := hw.dist(GICD_IGROUPR, id, 1)
	group := hw.Bus.Read32(addr)
	bits.Clear(&group, pos)
	hw.Bus.Write32(addr, group)

	addr, pos = hw.dist(GICD_ITARGETSR, id, 8)
	target := hw.Bus.Read32(addr)
	bits.SetN(&target, pos, 0xff, cpu)
	hw.Bus.Write32(addr, target)

	addr, pos = hw.dist(GICD_ISENABLER, id, 1)
	hw.Bus.Write32(addr, 1<<pos)
}

// DisableInterrupt disables forwarding of interrupt id.
func (hw *GIC) DisableInterrupt(id int) {
	addr, pos := hw.dist(GICD_ICENABLER, id, 1)
	hw.Bus.Write32(addr, 1<<pos)
}

// Enabled returns whether forwarding of interrupt id is enabled.
func (hw *GIC) Enabled(id int) bool {
	addr, pos := hw.dist(GICD_ISENABLER, id, 1)
	val := hw.Bus.Read32(addr)
	return bits.Get(&val, pos, 1) == 1
}

// EnableFIQ enables Group 0 forwarding on the distributor and its signalling
// as FIQ on the CPU interface, Group 1 configuration is left untouched.
func (hw *GIC) EnableFIQ() {
	addr := hw.Base + GICD_OFF + GICD_CTLR
	ctlr := hw.Bus.Read32(addr)
	bits.Set(&ctlr, CTLR_ENABLE_GRP0)
	hw.Bus.Write32(addr, ctlr)

	addr = hw.Base + GICC_OFF + GICC_CTLR
	ctlr = hw.Bus.Read32(addr)
	bits.Set(&ctlr, CTLR_ENABLE_GRP0)
	bits.Set(&ctlr, CTLR_FIQEN)
	hw.Bus.Write32(addr, ctlr)

	// lowest priority mask, all interrupts are signalled
	hw.Bus.Write32(hw.Base+GICC_OFF+GICC_PMR, 0xff)
}

// GetInterrupt acknowledges the highest priority pending interrupt and
// signals its completion, it returns the interrupt id or SPURIOUS_IRQ.
func (hw *GIC) GetInterrupt() (id int) {
	iar := hw.Bus.Read32(hw.Base + GICC_OFF + GICC_IAR)
	id = int(iar & IAR_ID_MASK)

	if id != SPURIOUS_IRQ {
		hw.Bus.Write32(hw.Base+GICC_OFF+GICC_EOIR, iar)
	}

	return
}
