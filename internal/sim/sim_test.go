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
	"testing"
)

func TestMasked(t *testing.T) {
	b := NewBus()
	b.OnWrite(0x10, Masked)
	b.Regs[0x10] = 0xaaaa

	b.Write32(0x10, 0x00ff0055)

	if got, want := b.Read32(0x10), uint32(0xaa55); got != want {
		t.Errorf("got %#x, want %#x", got, want)
	}

	if got := b.Writes[0x10]; got != 1 {
		t.Errorf("got %d writes, want 1", got)
	}
}

func TestTimer(t *testing.T) {
	tm := &Timer{Latency: 3}

	if tm.Expire() {
		t.Fatalf("disabled timer expired")
	}

	tm.SetTimeout(100)
	tm.Enable()

	if tm.Pending() {
		t.Errorf("timer pending before expiry")
	}

	if !tm.Expire() {
		t.Fatalf("enabled timer did not expire")
	}

	if tm.Counter() != 103 {
		t.Errorf("got count %d, want 103", tm.Counter())
	}

	if !tm.Pending() || tm.Remaining() != 0 {
		t.Errorf("expired timer not pending")
	}

	tm.SetTimeout(10)

	if tm.Remaining() != 10 {
		t.Errorf("got %d remaining ticks, want 10", tm.Remaining())
	}

	tm.Disable()

	if tm.Enabled() || tm.Pending() {
		t.Errorf("disabled timer reported active")
	}
}

func TestTick(t *testing.T) {
	b := NewRK3328(nil)
	n := 0

	if err := b.Register(b.TimerIRQ, func() { n++ }); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := b.Register(b.TimerIRQ, func() {}); err == nil {
		t.Errorf("duplicate registration succeeded")
	}

	b.Timer.SetTimeout(1)
	b.Timer.Enable()

	// interrupt not forwarded by the distributor
	if b.Tick() || n != 0 {
		t.Fatalf("interrupt delivered while disabled")
	}

	b.EnableInterrupt(b.TimerIRQ, 0x1)

	if !b.Tick() || n != 1 {
		t.Fatalf("interrupt not delivered")
	}

	b.DisableInterrupt(b.TimerIRQ)

	if b.Tick() || n != 1 {
		t.Errorf("interrupt delivered after disable")
	}
}
