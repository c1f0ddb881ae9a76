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

package monitor

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Defaults
const (
	PollInterval   = 10 * time.Second
	MaxWait        = 20 * time.Minute
	MaxPanic       = 120 * time.Second
	TimerFrequency = 24000000

	// secure physical timer PPI
	TimerIRQ = 29
	// CPU0
	TargetCPU = 0x1
)

// Config represents the monitor timing and interrupt routing.
type Config struct {
	// PollInterval is the time between two identity evaluations.
	PollInterval time.Duration
	// MaxWait is how long the claim can stay unset, once secondary cores
	// are online, before escalating.
	MaxWait time.Duration
	// MaxPanic is how long soft panics can go on before a hard panic.
	MaxPanic time.Duration
	// TimerFrequency is the generic timer frequency in Hz.
	TimerFrequency uint64
	// IRQ is the timer interrupt line.
	IRQ int
	// TargetCPU is the CPU mask the timer interrupt is routed to.
	TargetCPU uint32
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:   PollInterval,
		MaxWait:        MaxWait,
		MaxPanic:       MaxPanic,
		TimerFrequency: TimerFrequency,
		IRQ:            TimerIRQ,
		TargetCPU:      TargetCPU,
	}
}

func (c Config) validate() error {
	switch {
	case c.PollInterval < time.Second:
		return errors.New("poll interval must be at least one second")
	case c.TimerFrequency == 0:
		return errors.New("missing timer frequency")
	case c.MaxWait < c.PollInterval || c.MaxPanic < c.PollInterval:
		return errors.New("limits must not be shorter than the poll interval")
	case c.TargetCPU == 0:
		return errors.New("missing target CPU")
	}

	if ticks := c.TimerFrequency * uint64(c.PollInterval/time.Second); ticks > math.MaxUint32 {
		return fmt.Errorf("poll interval exceeds timer range (%d ticks)", ticks)
	}

	return nil
}

// pollTicks returns the poll interval in timer ticks, whole seconds only.
func (c Config) pollTicks() uint32 {
	return uint32(c.TimerFrequency * uint64(c.PollInterval/time.Second))
}

// waitLimit returns the number of polls the claim can stay unset once
// secondary cores are online.
func (c Config) waitLimit() uint32 {
	return uint32(c.MaxWait / c.PollInterval)
}

// panicLimit returns the number of soft panics tolerated before a hard panic.
func (c Config) panicLimit() uint32 {
	return uint32(c.MaxPanic / c.PollInterval)
}
