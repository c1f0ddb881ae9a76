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

// CRU registers
const (
	CRU_MODE         = 0x80
	CRU_CLKGATE_CON0 = 0x200

	// PLL_CON0
	PLL_FBDIV    = 0
	PLL_POSTDIV1 = 12
	// PLL_CON1
	PLL_REFDIV   = 0
	PLL_POSTDIV2 = 6

	// pclk_grf gate
	GRF_CLKGATE     = 17
	GRF_CLKGATE_BIT = 0

	// 24 MHz oscillator
	OSC_FREQ = 24000000
)

// PLL identifiers
const (
	APLL = iota
	DPLL
	CPLL
	GPLL
	NPLL
)

// PLL_CON returns the offset of PLL configuration register i.
func PLL_CON(pll int, i int) uint32 {
	return uint32(pll*0x20 + i*4)
}

// CRU_CLKGATE_CON returns the offset of clock gating register i.
func CRU_CLKGATE_CON(i int) uint32 {
	return uint32(CRU_CLKGATE_CON0 + i*4)
}

func (hw *SoC) cru(off uint32) uint32 {
	return CRU_BASE + off
}

// UngateClaim enables the GRF bus clock, required to access the claim
// register, and returns a function which restores the gate configuration
// found before the call.
func (hw *SoC) UngateClaim() (restore func()) {
	addr := hw.cru(CRU_CLKGATE_CON(GRF_CLKGATE))
	gate := hw.Bus.Read32(addr)

	hw.Bus.Write32(addr, writeMask(1<<GRF_CLKGATE_BIT, 0))

	return func() {
		hw.Bus.Write32(addr, 0xffff0000|gate)
	}
}

// AdjustPLL adds n to the feedback divider of the DPLL.
func (hw *SoC) AdjustPLL(n uint32) {
	addr := hw.cru(PLL_CON(DPLL, 0))
	con0 := hw.Bus.Read32(addr)

	fbdiv := bits.Get(&con0, PLL_FBDIV, 0xfff)
	bits.SetN(&con0, PLL_FBDIV, 0xfff, fbdiv+n)

	hw.Bus.Write32(addr, writeMask(0xfff<<PLL_FBDIV, con0))
}

// SlowPLL switches the DPLL to slow mode, clocking its consumers directly
// from the 24 MHz oscillator.
func (hw *SoC) SlowPLL() {
	hw.Bus.Write32(hw.cru(CRU_MODE), writeMask(1<<(DPLL*4), 0))
}

// SlowMode returns whether the DPLL is in slow mode.
func (hw *SoC) SlowMode() bool {
	mode := hw.Bus.Read32(hw.cru(CRU_MODE))
	return bits.Get(&mode, DPLL*4, 1) == 0
}

// Feedback returns the DPLL feedback divider.
func (hw *SoC) Feedback() uint32 {
	con0 := hw.Bus.Read32(hw.cru(PLL_CON(DPLL, 0)))
	return bits.Get(&con0, PLL_FBDIV, 0xfff)
}

// DPLLRate returns the DPLL output frequency in Hz, integer mode is assumed.
func (hw *SoC) DPLLRate() uint64 {
	if hw.SlowMode() {
		return OSC_FREQ
	}

	con0 := hw.Bus.Read32(hw.cru(PLL_CON(DPLL, 0)))
	con1 := hw.Bus.Read32(hw.cru(PLL_CON(DPLL, 1)))

	fbdiv := uint64(bits.Get(&con0, PLL_FBDIV, 0xfff))
	postdiv1 := uint64(bits.Get(&con0, PLL_POSTDIV1, 0x7))
	refdiv := uint64(bits.Get(&con1, PLL_REFDIV, 0x3f))
	postdiv2 := uint64(bits.Get(&con1, PLL_POSTDIV2, 0x7))

	div := refdiv * postdiv1 * postdiv2

	if div == 0 {
		return 0
	}

	return OSC_FREQ * fbdiv / div
}
