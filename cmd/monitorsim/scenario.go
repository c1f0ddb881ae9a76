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

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/transparency-dev/soc-monitor/identity"
	"github.com/transparency-dev/soc-monitor/internal/sim"
	"github.com/transparency-dev/soc-monitor/monitor"
)

// Scenario describes a simulated boot, events are applied before the timer
// interrupt of the poll interval they refer to, interval 0 is applied before
// monitor initialization.
type Scenario struct {
	// Fuses is the Non-secure eFuse image in hex format.
	Fuses string `yaml:"fuses"`
	// Intervals is the number of poll intervals to simulate.
	Intervals int `yaml:"intervals"`
	// Latency is the interrupt entry delay in timer ticks.
	Latency uint64 `yaml:"latency"`

	Cores  []Event `yaml:"cores"`
	Claims []Event `yaml:"claims"`

	Config struct {
		PollInterval time.Duration `yaml:"poll_interval"`
		MaxWait      time.Duration `yaml:"max_wait"`
		MaxPanic     time.Duration `yaml:"max_panic"`
	} `yaml:"config"`
}

// Event represents a register update performed by software outside the
// monitor control.
type Event struct {
	At    int    `yaml:"at"`
	Value uint32 `yaml:"value"`
}

// Step represents the monitor state after a poll interval.
type Step struct {
	Interval int
	Status   monitor.Status
	State    monitor.State
	Claimed  identity.ID
	Feedback uint32
}

// Report represents the outcome of a scenario.
type Report struct {
	Fused identity.ID
	// InitErr holds the monitor initialization error, if any.
	InitErr error
	// Steps holds the intervals where the monitor state changed.
	Steps []Step
	// Final is the monitor state at the end of the simulation.
	Final Step
	// Slow reports whether the DPLL was left in slow mode.
	Slow bool
	// Rate is the final DPLL rate in Hz.
	Rate uint64
}

// LoadScenario parses a YAML scenario.
func LoadScenario(r io.Reader) (s *Scenario, err error) {
	s = &Scenario{}

	if err = yaml.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("invalid scenario, %v", err)
	}

	if s.Intervals <= 0 {
		return nil, errors.New("invalid scenario, intervals must be positive")
	}

	return
}

func (s *Scenario) config() monitor.Config {
	cfg := monitor.DefaultConfig()

	if s.Config.PollInterval != 0 {
		cfg.PollInterval = s.Config.PollInterval
	}

	if s.Config.MaxWait != 0 {
		cfg.MaxWait = s.Config.MaxWait
	}

	if s.Config.MaxPanic != 0 {
		cfg.MaxPanic = s.Config.MaxPanic
	}

	return cfg
}

func (s *Scenario) apply(b *sim.Board, interval int) {
	for _, ev := range s.Cores {
		if ev.At == interval {
			klog.V(1).Infof("interval %d: cores online %#x", interval, ev.Value)
			b.SetCoresOnline(ev.Value)
		}
	}

	for _, ev := range s.Claims {
		if ev.At == interval {
			klog.V(1).Infof("interval %d: claim %#x (%v)", interval, ev.Value, identity.Claim(ev.Value))
			b.SetClaim(ev.Value)
		}
	}
}

// Run simulates the scenario, progress is invoked after each interval.
func (s *Scenario) Run(progress func()) (r *Report, err error) {
	fuses, err := hex.DecodeString(s.Fuses)

	if err != nil {
		return nil, fmt.Errorf("invalid fuses, %v", err)
	}

	b := sim.NewRK3328(fuses)
	b.Timer.Latency = s.Latency

	mon, err := monitor.New(s.config(), monitor.Hardware{
		SoC:        b.SoC,
		Fuses:      b.SoC,
		Timer:      b.Timer,
		Interrupts: b,
	})

	if err != nil {
		return
	}

	r = &Report{}

	step := func(i int) Step {
		return Step{
			Interval: i,
			Status:   mon.Status(),
			State:    mon.State(),
			Claimed:  mon.Claimed(),
			Feedback: b.SoC.Feedback(),
		}
	}

	s.apply(b, 0)

	r.InitErr = mon.Init()
	r.Fused = mon.Fused()

	prev := step(0)
	r.Steps = append(r.Steps, prev)

	for i := 1; i <= s.Intervals; i++ {
		s.apply(b, i)

		if b.Tick() {
			if cur := step(i); cur.Status != prev.Status || cur.State != prev.State || cur.Claimed != prev.Claimed || cur.Feedback != prev.Feedback {
				r.Steps = append(r.Steps, cur)
				prev = cur
			}
		}

		if progress != nil {
			progress()
		}
	}

	r.Final = step(s.Intervals)
	r.Slow = b.SoC.SlowMode()
	r.Rate = b.SoC.DPLLRate()

	return
}
