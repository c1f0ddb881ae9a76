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

// UART registers (16550 compatible, 32-bit stride)
const (
	UART_THR = 0x00
	UART_LSR = 0x14

	LSR_THRE = 5
)

// UART represents a serial port, already configured by earlier boot stages.
type UART struct {
	Bus  Bus
	Base uint32
}

// Tx transmits a single character.
func (hw *UART) Tx(c byte) {
	for {
		lsr := hw.Bus.Read32(hw.Base + UART_LSR)

		if bits.Get(&lsr, LSR_THRE, 1) == 1 {
			break
		}
	}

	hw.Bus.Write32(hw.Base+UART_THR, uint32(c))
}

// Write transmits buf, it implements io.Writer.
func (hw *UART) Write(buf []byte) (n int, _ error) {
	for _, c := range buf {
		hw.Tx(c)
	}

	return len(buf), nil
}
