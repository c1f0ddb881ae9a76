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

package main

import (
	"encoding/binary"
	_ "unsafe"

	"github.com/usbarmory/tamago/arm"

	"github.com/transparency-dev/soc-monitor/soc/rockchip/rk3328"
)

// ARM processor instance
var ARM = &arm.CPU{}

//go:linkname ramStackOffset runtime.ramStackOffset
var ramStackOffset uint32 = 0x100

// rngState is only used to seed the Go runtime (map hashing, scheduling),
// the monitor has no consumer of cryptographic randomness.
var rngState uint64

//go:linkname hwinit runtime.hwinit
func hwinit() {
	ARM.Init(ramStart)
	ARM.EnableVFP()

	// MMU initialization is required to take advantage of data cache
	ARM.InitMMU()
	ARM.EnableCache()

	ARM.InitGenericTimers(0, rk3328.OSC_FREQ)
}

//go:linkname nanotime1 runtime.nanotime1
func nanotime1() int64 {
	return int64(ARM.TimerFn()*ARM.TimerMultiplier) + ARM.TimerOffset
}

//go:linkname initRNG runtime.initRNG
func initRNG() {
	rngState = rk3328.SecureTimer{}.Counter() | 1
}

//go:linkname getRandomData runtime.getRandomData
func getRandomData(b []byte) {
	var buf [8]byte

	for i := 0; i < len(b); i += 8 {
		// xorshift64
		rngState ^= rngState << 13
		rngState ^= rngState >> 7
		rngState ^= rngState << 17

		binary.LittleEndian.PutUint64(buf[:], rngState)
		copy(b[i:], buf[:])
	}
}
