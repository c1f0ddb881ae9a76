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

package sim

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/transparency-dev/soc-monitor/soc/rockchip/rk3328"
)

// Reset values
const (
	// all PLLs in normal mode
	ResetMode = 0x1111
	// DPLL 792 MHz: fbdiv 66, postdiv1 2, refdiv 1, postdiv2 1
	ResetDPLLCon0 = 66 | 2<<rk3328.PLL_POSTDIV1
	ResetDPLLCon1 = 1 | 1<<rk3328.PLL_POSTDIV2
	// pclk_grf gated
	ResetGate17 = 0x0001
	// cores 1-3 powered down
	ResetPwrdn = 0x0e
)

// Board emulates the RK3328 peripherals used by the SoC monitor.
type Board struct {
	Bus   *Bus
	SoC   *rk3328.SoC
	GIC   *rk3328.GIC
	UART  *rk3328.UART
	Timer *Timer

	// TimerIRQ is the interrupt raised on timer expiry.
	TimerIRQ int

	// GatedReads counts claim register reads performed with the GRF bus
	// clock gated.
	GatedReads int

	// FuseFault prevents eFuse reads from completing.
	FuseFault bool

	// Console collects UART output.
	Console bytes.Buffer

	fuses    [rk3328.EFUSE_WORDS]uint32
	handlers map[int]func()
}

// NewRK3328 returns an emulated board with the given Non-secure eFuse image.
func NewRK3328(fuses []byte) *Board {
	bus := NewBus()

	b := &Board{
		Bus:      bus,
		SoC:      &rk3328.SoC{Bus: bus},
		GIC:      &rk3328.GIC{Bus: bus, Base: rk3328.GIC_BASE},
		UART:     &rk3328.UART{Bus: bus, Base: rk3328.UART2_BASE},
		Timer:    &Timer{},
		TimerIRQ: rk3328.SEC_PHY_TIMER_IRQ,
		handlers: make(map[int]func()),
	}

	img := make([]byte, rk3328.NS_EFUSE_WORDS*4)
	copy(img, fuses)

	for i := 0; i < rk3328.NS_EFUSE_WORDS; i++ {
		b.fuses[rk3328.NS_EFUSE_START+i] = binary.LittleEndian.Uint32(img[i*4:])
	}

	b.reset()

	return b
}

func (b *Board) reset() {
	cru := func(off uint32) uint32 { return rk3328.CRU_BASE + off }

	for _, addr := range []uint32{
		cru(rk3328.CRU_MODE),
		cru(rk3328.PLL_CON(rk3328.DPLL, 0)),
		cru(rk3328.PLL_CON(rk3328.DPLL, 1)),
		cru(rk3328.CRU_CLKGATE_CON(rk3328.GRF_CLKGATE)),
	} {
		b.Bus.OnWrite(addr, Masked)
	}

	b.Bus.Regs[cru(rk3328.CRU_MODE)] = ResetMode
	b.Bus.Regs[cru(rk3328.PLL_CON(rk3328.DPLL, 0))] = ResetDPLLCon0
	b.Bus.Regs[cru(rk3328.PLL_CON(rk3328.DPLL, 1))] = ResetDPLLCon1
	b.Bus.Regs[cru(rk3328.CRU_CLKGATE_CON(rk3328.GRF_CLKGATE))] = ResetGate17
	b.Bus.Regs[rk3328.PMU_BASE+rk3328.PMU_PWRDN_ST] = ResetPwrdn

	b.Bus.OnRead(rk3328.GRF_BASE+rk3328.GRF_OS_REG4, b.readClaim)

	status := uint32(rk3328.EFUSE_BASE + rk3328.EFUSE_INT_STATUS)
	b.Bus.OnWrite(rk3328.EFUSE_BASE+rk3328.EFUSE_AUTO_CTRL, b.readFuse)
	b.Bus.OnWrite(status, ClearBits(status))

	dist := uint32(rk3328.GIC_BASE + rk3328.GICD_OFF)

	for i := uint32(0); i < 8; i++ {
		set := dist + rk3328.GICD_ISENABLER + i*4
		b.Bus.OnWrite(set, SetBits)
		b.Bus.OnWrite(dist+rk3328.GICD_ICENABLER+i*4, ClearBits(set))
	}

	b.Bus.OnRead(rk3328.UART2_BASE+rk3328.UART_LSR, func(_ *Bus, _ uint32) uint32 {
		return 1 << rk3328.LSR_THRE
	})

	b.Bus.OnWrite(rk3328.UART2_BASE+rk3328.UART_THR, func(_ *Bus, _ uint32, val uint32) {
		b.Console.WriteByte(byte(val))
	})
}

func (b *Board) readClaim(bus *Bus, addr uint32) uint32 {
	gate := bus.Regs[rk3328.CRU_BASE+rk3328.CRU_CLKGATE_CON(rk3328.GRF_CLKGATE)]

	if gate&(1<<rk3328.GRF_CLKGATE_BIT) != 0 {
		b.GatedReads++
		return 0xffffffff
	}

	return bus.Regs[addr]
}

func (b *Board) readFuse(bus *Bus, addr uint32, val uint32) {
	bus.Regs[addr] = val

	if b.FuseFault || val&(1<<rk3328.AUTO_CTRL_RD) == 0 {
		return
	}

	word := (val >> rk3328.AUTO_CTRL_ADDR) & (rk3328.EFUSE_WORDS - 1)

	bus.Regs[rk3328.EFUSE_BASE+rk3328.EFUSE_DOUT] = b.fuses[word]
	bus.Regs[rk3328.EFUSE_BASE+rk3328.EFUSE_INT_STATUS] |= 1 << rk3328.INT_STATUS_DONE
}

// SetClaim writes the claim register, as done by earlier boot stages.
func (b *Board) SetClaim(val uint32) {
	b.Bus.Regs[rk3328.GRF_BASE+rk3328.GRF_OS_REG4] = val
}

// SetCoresOnline updates the PMU power down status to reflect the mask of
// running cores.
func (b *Board) SetCoresOnline(mask uint32) {
	b.Bus.Regs[rk3328.PMU_BASE+rk3328.PMU_PWRDN_ST] = ^mask & rk3328.PWRDN_CPU_MASK
}

// Gate17 returns the clock gating register holding the GRF bus clock gate.
func (b *Board) Gate17() uint32 {
	return b.Bus.Regs[rk3328.CRU_BASE+rk3328.CRU_CLKGATE_CON(rk3328.GRF_CLKGATE)]
}

// Register installs the handler for interrupt id.
func (b *Board) Register(id int, handler func()) error {
	if _, ok := b.handlers[id]; ok {
		return fmt.Errorf("interrupt %d already registered", id)
	}

	b.handlers[id] = handler

	return nil
}

// Registered returns whether a handler is installed for interrupt id.
func (b *Board) Registered(id int) bool {
	_, ok := b.handlers[id]
	return ok
}

func (b *Board) EnableInterrupt(id int, cpu uint32) {
	b.GIC.EnableInterrupt(id, cpu)
}

func (b *Board) DisableInterrupt(id int) {
	b.GIC.DisableInterrupt(id)
}

// Tick expires the timer and delivers its interrupt, it returns whether the
// interrupt handler ran.
func (b *Board) Tick() bool {
	if !b.Timer.Expire() || !b.GIC.Enabled(b.TimerIRQ) {
		return false
	}

	handler, ok := b.handlers[b.TimerIRQ]

	if !ok {
		return false
	}

	handler()

	return true
}
