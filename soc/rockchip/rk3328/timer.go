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

// CNTP_CTL bits
const (
	CNTP_CTL_ENABLE = 0
	CNTP_CTL_IMASK  = 1
)

// defined in timer_arm.s
func read_cntpct() uint64
func write_cntp_tval(val uint32)
func write_cntp_ctl(val uint32)

// SecureTimer represents the secure physical generic timer (CNTPS), its
// expiry is signalled on SEC_PHY_TIMER_IRQ.
type SecureTimer struct{}

// Counter returns the physical count, it is sampled after an instruction
// barrier.
func (SecureTimer) Counter() uint64 {
	return read_cntpct()
}

// SetTimeout programs the timer to expire after the given number of ticks.
func (SecureTimer) SetTimeout(ticks uint32) {
	write_cntp_tval(ticks)
}

// Enable enables the timer with its interrupt unmasked.
func (SecureTimer) Enable() {
	write_cntp_ctl(1<<CNTP_CTL_ENABLE | 0<<CNTP_CTL_IMASK)
}

// Disable disables the timer.
func (SecureTimer) Disable() {
	write_cntp_ctl(0)
}
