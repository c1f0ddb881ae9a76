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

// Package monitor implements the SoC identity monitor, which periodically
// verifies that the SoC identity claimed by earlier boot stages matches the
// one established by fuses.
//
// Verification failures are not reported, instead the DPLL is perturbed by a
// small amount each time (soft panic) making the system unreliable, and
// permanently forced into slow mode (hard panic) if soft panics persist.
//
// The monitor is driven by a secure timer interrupt and is not safe for
// concurrent use, its handler must only be invoked from the interrupt
// context it registers.
package monitor

import (
	"errors"
	"fmt"
	"math/bits"
	"time"

	"k8s.io/klog/v2"

	"github.com/transparency-dev/soc-monitor/identity"
)

var (
	// ErrFuseRead is returned when the fuse image cannot be read.
	ErrFuseRead = errors.New("could not read fuses")
	// ErrUnknownSoC is returned when the fuse image identifies an
	// unsupported part, a hard panic has already been triggered.
	ErrUnknownSoC = errors.New("unknown SoC")
)

// SoC represents the platform registers consulted and perturbed by the
// monitor.
type SoC interface {
	identity.ClaimSource

	// CoresOnline returns the mask of processor cores not powered down.
	CoresOnline() uint32
	// AdjustPLL adds n to the feedback divider of the monitored PLL.
	AdjustPLL(n uint32)
	// SlowPLL forces the monitored PLL in slow mode, this can only be
	// reverted by a reset.
	SlowPLL()
}

// Fuses represents the one-time programmable storage holding the SoC
// identity.
type Fuses interface {
	ReadFuses() ([]byte, error)
}

// Timer represents the secure timer driving the monitor.
type Timer interface {
	// Counter returns the current tick count.
	Counter() uint64
	// SetTimeout programs expiry after the given number of ticks.
	SetTimeout(ticks uint32)
	// Enable enables the timer and its interrupt.
	Enable()
	// Disable disables the timer.
	Disable()
}

// Interrupts represents the interrupt controller.
type Interrupts interface {
	// Register installs the handler for interrupt id.
	Register(id int, handler func()) error
	// EnableInterrupt routes interrupt id to the cpu mask and enables it.
	EnableInterrupt(id int, cpu uint32)
	// DisableInterrupt disables interrupt id.
	DisableInterrupt(id int)
}

// Hardware groups the monitor collaborators.
type Hardware struct {
	SoC        SoC
	Fuses      Fuses
	Timer      Timer
	Interrupts Interrupts
}

// Status represents the monitor life cycle.
type Status int

const (
	Uninitialized Status = iota
	// Unarmed monitors never run as there is no identity to verify.
	Unarmed
	Armed
	Matched
	HardPanicked
	Failed
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Unarmed:
		return "unarmed"
	case Armed:
		return "armed"
	case Matched:
		return "matched"
	case HardPanicked:
		return "hard panicked"
	case Failed:
		return "failed"
	}

	return fmt.Sprintf("Status(%d)", int(s))
}

// State represents the monitor counters, persisted across interrupts.
type State struct {
	// SoftPanics counts the soft panics taken.
	SoftPanics uint32
	// Waits counts the polls with an unset claim and secondary cores
	// online.
	Waits uint32
	// CoresOnline caches the online cores mask, it is refreshed until at
	// least two cores are seen.
	CoresOnline uint32
}

// Monitor represents a SoC identity monitor instance.
type Monitor struct {
	cfg Config
	hw  Hardware

	status  Status
	state   State
	fused   identity.ID
	claimed identity.ID
}

// New returns a monitor for the given configuration and hardware, Init must
// be called to start it.
func New(cfg Config, hw Hardware) (*Monitor, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration, %v", err)
	}

	if hw.SoC == nil || hw.Fuses == nil || hw.Timer == nil || hw.Interrupts == nil {
		return nil, errors.New("missing hardware")
	}

	return &Monitor{
		cfg:     cfg,
		hw:      hw,
		fused:   identity.Unknown,
		claimed: identity.Unknown,
	}, nil
}

// Init reads the fused identity and, if it requires verification, arms the
// monitor.
//
// Unknown parts are hard panicked right away and ErrUnknownSoC is returned,
// blank parts leave the monitor unarmed.
func (m *Monitor) Init() (err error) {
	if m.status != Uninitialized {
		return fmt.Errorf("monitor already initialized (%v)", m.status)
	}

	fuses, err := m.hw.Fuses.ReadFuses()

	if err != nil {
		klog.Errorf("monitor: fuse read failed, %v", err)
		m.status = Failed
		return fmt.Errorf("%w, %v", ErrFuseRead, err)
	}

	if klog.V(2).Enabled() {
		for i, b := range fuses {
			klog.Infof("monitor: efuse[%d]=%#x", i, b)
		}
	}

	m.fused = identity.Fused(fuses)

	switch m.fused {
	case identity.Unknown:
		klog.V(1).Info("monitor: unknown SoC")
		m.hardPanic()
		return ErrUnknownSoC
	case identity.Root:
		klog.V(1).Info("monitor: root SoC")
		m.status = Unarmed
		return
	}

	m.claimed = identity.Root

	if err = m.hw.Interrupts.Register(m.cfg.IRQ, m.HandleInterrupt); err != nil {
		m.status = Failed
		return fmt.Errorf("could not register interrupt %d, %v", m.cfg.IRQ, err)
	}

	m.hw.Interrupts.EnableInterrupt(m.cfg.IRQ, m.cfg.TargetCPU)

	m.hw.Timer.SetTimeout(m.cfg.pollTicks())
	m.hw.Timer.Enable()

	m.status = Armed

	klog.V(1).Infof("monitor: init done, soc:%v", m.fused)

	return
}

// HandleInterrupt evaluates the claimed identity against the fused one and
// escalates on mismatches. Each invocation leaves the timer either re-armed
// for the next poll or disabled.
func (m *Monitor) HandleInterrupt() {
	if m.status != Armed {
		m.disarm()
		return
	}

	var panics uint32

	// the claim is re-read until set as it is written asynchronously
	if m.claimed == identity.Root {
		m.claimed = identity.Read(m.hw.SoC)
	}

	switch {
	case m.claimed == identity.Unknown:
		klog.V(1).Info("monitor: unknown sw id")
		panics = m.softPanic()
	case m.mismatch():
		klog.V(1).Info("monitor: can't match")
		panics = m.softPanic()
	}

	if bits.OnesCount32(m.state.CoresOnline) < 2 {
		m.state.CoresOnline = m.hw.SoC.CoresOnline()
	}

	// secondary cores are online and the claim is still unset
	if m.claimed == identity.Root && bits.OnesCount32(m.state.CoresOnline) >= 2 {
		m.state.Waits++

		if m.state.Waits > m.cfg.waitLimit() {
			klog.V(1).Info("monitor: sw wait timeout")
			panics = m.softPanic()
		}
	}

	if panics > m.cfg.panicLimit() {
		klog.V(1).Info("monitor: panic wait timeout")
		m.hardPanic()
		return
	}

	if m.match() {
		m.state = State{}
		m.disarm()
		m.status = Matched
		klog.V(1).Info("monitor: match, disable fiq timer")
		return
	}

	m.hw.Timer.SetTimeout(m.cfg.pollTicks())

	klog.V(2).Infof("monitor: soc:%v sw:%v timeout:%v panic:%v cpu:%#x",
		m.fused, m.claimed,
		time.Duration(m.state.Waits)*m.cfg.PollInterval,
		time.Duration(panics)*m.cfg.PollInterval,
		m.state.CoresOnline)
}

// match returns whether both identities are set and equal.
func (m *Monitor) match() bool {
	return m.fused == m.claimed && m.fused != identity.Root
}

// mismatch returns whether both identities are set and differ.
func (m *Monitor) mismatch() bool {
	return m.fused != m.claimed && m.fused != identity.Root && m.claimed != identity.Root
}

func (m *Monitor) disarm() {
	m.hw.Timer.Disable()
	m.hw.Interrupts.DisableInterrupt(m.cfg.IRQ)
}

// Status returns the monitor life cycle status.
func (m *Monitor) Status() Status {
	return m.status
}

// State returns a copy of the monitor counters.
func (m *Monitor) State() State {
	return m.state
}

// Fused returns the identity established by fuses.
func (m *Monitor) Fused() identity.ID {
	return m.fused
}

// Claimed returns the identity last claimed by earlier boot stages.
func (m *Monitor) Claimed() identity.ID {
	return m.claimed
}
