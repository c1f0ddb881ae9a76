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

package monitor_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/transparency-dev/soc-monitor/identity"
	"github.com/transparency-dev/soc-monitor/internal/sim"
	"github.com/transparency-dev/soc-monitor/monitor"
	"github.com/transparency-dev/soc-monitor/soc/rockchip/rk3328"
)

var (
	fusesRK3328  = []byte{0x00, 0x00, 0x33, 0x82, 0x00, 0x00, 0x01, 0x00}
	fusesRK322XH = []byte{0x00, 0x00, 0x23, 0x82, 0x00, 0x00, 0x08, 0x00}
	fusesBlank   = []byte{}
	fusesUnknown = []byte{0x00, 0x00, 0x11, 0x22, 0x00, 0x00, 0x01, 0x00}
)

// 10s at 24 MHz
const pollTicks = 240000000

func newMonitor(t *testing.T, fuses []byte) (*sim.Board, *monitor.Monitor) {
	t.Helper()

	b := sim.NewRK3328(fuses)

	m, err := monitor.New(monitor.DefaultConfig(), monitor.Hardware{
		SoC:        b.SoC,
		Fuses:      b.SoC,
		Timer:      b.Timer,
		Interrupts: b,
	})

	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return b, m
}

func mustInit(t *testing.T, m *monitor.Monitor) {
	t.Helper()

	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
}

// hardPanics returns the number of writes to the CRU mode register, only
// performed when switching the DPLL to slow mode.
func hardPanics(b *sim.Board) int {
	return b.Bus.Writes[rk3328.CRU_BASE+rk3328.CRU_MODE]
}

// tick delivers one timer interrupt and checks that the handler left the
// timer either re-armed for a full poll interval or disabled.
func tick(t *testing.T, b *sim.Board) {
	t.Helper()

	if !b.Tick() {
		t.Fatalf("timer interrupt not delivered")
	}

	if b.Timer.Enabled() {
		if got := b.Timer.Remaining(); got != pollTicks {
			t.Fatalf("timer re-armed with %d ticks, want %d", got, pollTicks)
		}
	}

	if b.GatedReads != 0 {
		t.Fatalf("claim read with gated clock %d times", b.GatedReads)
	}

	if got := b.Gate17(); got != sim.ResetGate17 {
		t.Fatalf("clock gate not restored, got %#x want %#x", got, sim.ResetGate17)
	}
}

func TestInit(t *testing.T) {
	for _, test := range []struct {
		name       string
		fuses      []byte
		wantErr    error
		wantStatus monitor.Status
		wantFused  identity.ID
		wantArmed  bool
		wantSlow   bool
	}{
		{
			name:       "RK3328",
			fuses:      fusesRK3328,
			wantStatus: monitor.Armed,
			wantFused:  identity.RK3328,
			wantArmed:  true,
		},
		{
			name:       "RK322XH",
			fuses:      fusesRK322XH,
			wantStatus: monitor.Armed,
			wantFused:  identity.RK322XH,
			wantArmed:  true,
		},
		{
			name:       "blank",
			fuses:      fusesBlank,
			wantStatus: monitor.Unarmed,
			wantFused:  identity.Root,
		},
		{
			name:       "unknown",
			fuses:      fusesUnknown,
			wantErr:    monitor.ErrUnknownSoC,
			wantStatus: monitor.HardPanicked,
			wantFused:  identity.Unknown,
			wantSlow:   true,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			b, m := newMonitor(t, test.fuses)

			if err := m.Init(); !errors.Is(err, test.wantErr) {
				t.Fatalf("Init: got err %v, want %v", err, test.wantErr)
			}

			if got := m.Status(); got != test.wantStatus {
				t.Errorf("got status %v, want %v", got, test.wantStatus)
			}

			if got := m.Fused(); got != test.wantFused {
				t.Errorf("got fused %v, want %v", got, test.wantFused)
			}

			if got := b.Registered(b.TimerIRQ); got != test.wantArmed {
				t.Errorf("got registered %v, want %v", got, test.wantArmed)
			}

			if got := b.Timer.Enabled(); got != test.wantArmed {
				t.Errorf("got timer enabled %v, want %v", got, test.wantArmed)
			}

			if got := b.GIC.Enabled(b.TimerIRQ); got != test.wantArmed {
				t.Errorf("got interrupt enabled %v, want %v", got, test.wantArmed)
			}

			if got := b.SoC.SlowMode(); got != test.wantSlow {
				t.Errorf("got slow mode %v, want %v", got, test.wantSlow)
			}

			want := 0

			if test.wantSlow {
				want = 1
			}

			if got := hardPanics(b); got != want {
				t.Errorf("got %d hard panics, want %d", got, want)
			}

			if test.wantArmed {
				if got := b.Timer.Remaining(); got != pollTicks {
					t.Errorf("got timeout %d, want %d", got, pollTicks)
				}

				if got := m.Claimed(); got != identity.Root {
					t.Errorf("got claim %v, want %v", got, identity.Root)
				}
			}
		})
	}
}

func TestInitFuseFault(t *testing.T) {
	b, m := newMonitor(t, fusesRK3328)
	b.FuseFault = true

	err := m.Init()

	if !errors.Is(err, monitor.ErrFuseRead) {
		t.Fatalf("got err %v, want %v", err, monitor.ErrFuseRead)
	}

	if got := m.Status(); got != monitor.Failed {
		t.Errorf("got status %v, want %v", got, monitor.Failed)
	}

	if b.Registered(b.TimerIRQ) || b.Timer.Enabled() {
		t.Errorf("monitor armed after fuse fault")
	}
}

func TestInitTwice(t *testing.T) {
	_, m := newMonitor(t, fusesRK3328)
	mustInit(t, m)

	if err := m.Init(); err == nil {
		t.Fatalf("second Init succeeded")
	}

	if got := m.Status(); got != monitor.Armed {
		t.Errorf("got status %v, want %v", got, monitor.Armed)
	}
}

func TestNew(t *testing.T) {
	b := sim.NewRK3328(fusesRK3328)

	hw := monitor.Hardware{
		SoC:        b.SoC,
		Fuses:      b.SoC,
		Timer:      b.Timer,
		Interrupts: b,
	}

	cfg := monitor.DefaultConfig()
	cfg.PollInterval = 0

	if _, err := monitor.New(cfg, hw); err == nil {
		t.Errorf("New succeeded with zero poll interval")
	}

	if _, err := monitor.New(monitor.DefaultConfig(), monitor.Hardware{SoC: b.SoC}); err == nil {
		t.Errorf("New succeeded with missing hardware")
	}
}

func TestMatch(t *testing.T) {
	for _, test := range []struct {
		name  string
		fuses []byte
		claim uint32
	}{
		{
			name:  "RK3328",
			fuses: fusesRK3328,
			claim: identity.ClaimRK3328,
		},
		{
			name:  "RK322XH",
			fuses: fusesRK322XH,
			claim: identity.ClaimRK322XH,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			b, m := newMonitor(t, test.fuses)
			b.SetClaim(test.claim)
			mustInit(t, m)

			tick(t, b)

			if got := m.Status(); got != monitor.Matched {
				t.Fatalf("got status %v, want %v", got, monitor.Matched)
			}

			if diff := cmp.Diff(monitor.State{}, m.State()); diff != "" {
				t.Errorf("state not reset, diff (-want +got):\n%s", diff)
			}

			if b.Timer.Enabled() || b.GIC.Enabled(b.TimerIRQ) {
				t.Errorf("timer still armed after match")
			}

			if b.Tick() {
				t.Errorf("interrupt delivered after match")
			}

			if b.SoC.Feedback() != 66 || b.SoC.SlowMode() {
				t.Errorf("DPLL perturbed on match")
			}
		})
	}
}

func TestLateClaim(t *testing.T) {
	b, m := newMonitor(t, fusesRK3328)
	mustInit(t, m)

	for i := 0; i < 5; i++ {
		tick(t, b)
	}

	if got := m.Status(); got != monitor.Armed {
		t.Fatalf("got status %v, want %v", got, monitor.Armed)
	}

	// secondary cores are still down
	if diff := cmp.Diff(monitor.State{CoresOnline: 0x1}, m.State()); diff != "" {
		t.Errorf("unexpected state, diff (-want +got):\n%s", diff)
	}

	b.SetCoresOnline(0xf)
	tick(t, b)

	if diff := cmp.Diff(monitor.State{Waits: 1, CoresOnline: 0xf}, m.State()); diff != "" {
		t.Errorf("unexpected state, diff (-want +got):\n%s", diff)
	}

	// the cached mask is not refreshed once two cores are seen
	b.SetCoresOnline(0x1)
	b.SetClaim(identity.ClaimRK3328)
	tick(t, b)

	if got := m.Status(); got != monitor.Matched {
		t.Fatalf("got status %v, want %v", got, monitor.Matched)
	}
}

func TestSoftPanicEscalation(t *testing.T) {
	for _, test := range []struct {
		name  string
		fuses []byte
		claim uint32
	}{
		{
			name:  "unknown claim",
			fuses: fusesRK3328,
			claim: 0x12345678,
		},
		{
			name:  "mismatch",
			fuses: fusesRK322XH,
			claim: identity.ClaimRK3328,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			b, m := newMonitor(t, test.fuses)
			b.SetClaim(test.claim)
			b.Timer.Latency = 7
			mustInit(t, m)

			fbdiv := b.SoC.Feedback()

			for i := 1; i <= 12; i++ {
				tick(t, b)
				fbdiv += monitor.Perturbation(b.Timer.Count)

				if got := m.Status(); got != monitor.Armed {
					t.Fatalf("interrupt %d: got status %v, want %v", i, got, monitor.Armed)
				}

				if got := m.State().SoftPanics; got != uint32(i) {
					t.Fatalf("interrupt %d: got %d soft panics, want %d", i, got, i)
				}

				if got := b.SoC.Feedback(); got != fbdiv {
					t.Fatalf("interrupt %d: got fbdiv %d, want %d", i, got, fbdiv)
				}
			}

			if b.SoC.SlowMode() || hardPanics(b) != 0 {
				t.Fatalf("hard panic before threshold")
			}

			tick(t, b)

			if got := m.Status(); got != monitor.HardPanicked {
				t.Fatalf("got status %v, want %v", got, monitor.HardPanicked)
			}

			if !b.SoC.SlowMode() {
				t.Errorf("DPLL not in slow mode after hard panic")
			}

			if b.Timer.Enabled() || b.GIC.Enabled(b.TimerIRQ) {
				t.Errorf("timer still armed after hard panic")
			}

			// a late interrupt must not escalate again
			m.HandleInterrupt()

			if got := hardPanics(b); got != 1 {
				t.Errorf("got %d hard panics, want 1", got)
			}
		})
	}
}

func TestWaitTimeout(t *testing.T) {
	b, m := newMonitor(t, fusesRK3328)
	b.SetCoresOnline(0x3)
	mustInit(t, m)

	for i := 0; i < 120; i++ {
		tick(t, b)
	}

	if diff := cmp.Diff(monitor.State{Waits: 120, CoresOnline: 0x3}, m.State()); diff != "" {
		t.Fatalf("unexpected state, diff (-want +got):\n%s", diff)
	}

	tick(t, b)

	if diff := cmp.Diff(monitor.State{SoftPanics: 1, Waits: 121, CoresOnline: 0x3}, m.State()); diff != "" {
		t.Fatalf("unexpected state, diff (-want +got):\n%s", diff)
	}

	n := 0

	for m.Status() == monitor.Armed {
		tick(t, b)
		n++
	}

	if n != 12 {
		t.Errorf("hard panic after %d further interrupts, want 12", n)
	}

	if got := m.Status(); got != monitor.HardPanicked {
		t.Errorf("got status %v, want %v", got, monitor.HardPanicked)
	}
	if got := hardPanics(b); got != 1 {
		t.Errorf("got %d hard panics, want 1", got)
	}
}

func TestStaleInterrupt(t *testing.T) {
	b, m := newMonitor(t, fusesRK3328)
	b.SetClaim(identity.ClaimRK3328)
	mustInit(t, m)
	tick(t, b)

	b.SetClaim(0x12345678)
	m.HandleInterrupt()

	if got := m.Status(); got != monitor.Matched {
		t.Errorf("got status %v, want %v", got, monitor.Matched)
	}

	if diff := cmp.Diff(monitor.State{}, m.State()); diff != "" {
		t.Errorf("state changed, diff (-want +got):\n%s", diff)
	}

	if b.Timer.Enabled() {
		t.Errorf("timer re-enabled by stale interrupt")
	}

	if _, ok := b.Bus.Regs[rk3328.CRU_BASE+rk3328.PLL_CON(rk3328.DPLL, 0)]; !ok || b.SoC.Feedback() != 66 {
		t.Errorf("DPLL perturbed by stale interrupt")
	}
}
