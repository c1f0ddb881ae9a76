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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/usbarmory/tamago/bits"
)

// eFuse registers
const (
	EFUSE_INT_STATUS = 0x18
	INT_STATUS_DONE  = 0

	EFUSE_DOUT = 0x20

	EFUSE_AUTO_CTRL = 0x24
	AUTO_CTRL_ADDR  = 16
	AUTO_CTRL_RD    = 1
	AUTO_CTRL_ENB   = 0

	// number of addressable 32-bit words
	EFUSE_WORDS = 0x400

	// the secure area occupies the first 96 bytes
	NS_EFUSE_START = 96 / 4
	NS_EFUSE_WORDS = 8
)

// completion polling attempts for each word
const efuseTimeout = 1000

// FuseError is returned when the eFuse controller fails to complete a word
// read.
type FuseError struct {
	Word int
}

func (e *FuseError) Error() string {
	return fmt.Sprintf("eFuse read timeout (word %d)", e.Word)
}

// ReadFuseWords reads n 32-bit words from the eFuse array, starting at word
// offset off, in auto read mode.
func (hw *SoC) ReadFuseWords(off int, n int) (words []uint32, err error) {
	if off < 0 || n < 0 || off+n > EFUSE_WORDS {
		return nil, errors.New("invalid eFuse range")
	}

	for i := off; i < off+n; i++ {
		var ctrl uint32

		bits.Set(&ctrl, AUTO_CTRL_ENB)
		bits.Set(&ctrl, AUTO_CTRL_RD)
		bits.SetN(&ctrl, AUTO_CTRL_ADDR, EFUSE_WORDS-1, uint32(i))

		hw.Bus.Write32(EFUSE_BASE+EFUSE_AUTO_CTRL, ctrl)

		if !hw.waitFuse() {
			return nil, &FuseError{Word: i}
		}

		words = append(words, hw.Bus.Read32(EFUSE_BASE+EFUSE_DOUT))

		// write 1 to clear
		hw.Bus.Write32(EFUSE_BASE+EFUSE_INT_STATUS, 1<<INT_STATUS_DONE)
	}

	return
}

func (hw *SoC) waitFuse() bool {
	for i := 0; i < efuseTimeout; i++ {
		status := hw.Bus.Read32(EFUSE_BASE + EFUSE_INT_STATUS)

		if bits.Get(&status, INT_STATUS_DONE, 1) == 1 {
			return true
		}
	}

	return false
}

// ReadFuses returns the Non-secure eFuse area in byte format.
func (hw *SoC) ReadFuses() ([]byte, error) {
	words, err := hw.ReadFuseWords(NS_EFUSE_START, NS_EFUSE_WORDS)

	if err != nil {
		return nil, err
	}

	buf := make([]byte, len(words)*4)

	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}

	return buf, nil
}
