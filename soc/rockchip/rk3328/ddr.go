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
	"k8s.io/klog/v2"
)

// DDR represents the DRAM subsystem as seen by Non-secure SIP callers.
//
// DRAM frequency scaling requires controller retraining, which is performed
// by earlier boot stages only, therefore rate changes are not applied and
// report the current rate.
type DDR struct {
	SoC *SoC

	// Timing holds the location of the DRAM timing parameters passed by
	// the Non-secure OS.
	Timing struct {
		Addr uint64
		Size uint64
	}
}

// Init initializes the DRAM subsystem.
func (d *DDR) Init() {
	klog.V(1).Infof("ddr: init rate:%d", d.SoC.DPLLRate())
}

// SetRate requests a DRAM frequency change and returns the resulting rate.
func (d *DDR) SetRate(hz uint64) int64 {
	rate := d.GetRate()
	klog.V(1).Infof("ddr: set rate %d, keeping %d", hz, rate)
	return rate
}

// RoundRate returns the rate which would be applied by SetRate.
func (d *DDR) RoundRate(_ uint64) int64 {
	return d.GetRate()
}

// GetRate returns the current DRAM clock rate in Hz.
func (d *DDR) GetRate() int64 {
	return int64(d.SoC.DPLLRate())
}

// ClearIRQ acknowledges DDR frequency change interrupts.
func (d *DDR) ClearIRQ() {}

// SetParam records the location of DRAM timing parameters.
func (d *DDR) SetParam(addr uint64, size uint64) {
	d.Timing.Addr = addr
	d.Timing.Size = size
}
