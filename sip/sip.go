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

// Package sip implements the Silicon Provider service calls served by the
// secure monitor on behalf of the Non-secure OS.
package sip

import (
	"k8s.io/klog/v2"

	"github.com/transparency-dev/soc-monitor/api"
)

// DRAM represents the DRAM driver routines reachable through SIP_DDR_CFG.
type DRAM interface {
	// Init initializes the DRAM subsystem.
	Init()
	// SetRate requests a frequency change, returning the applied rate.
	SetRate(hz uint64) int64
	// RoundRate returns the rate SetRate would apply.
	RoundRate(hz uint64) int64
	// GetRate returns the current rate.
	GetRate() int64
	// ClearIRQ acknowledges frequency change interrupts.
	ClearIRQ()
	// SetParam passes the location of DRAM timing parameters.
	SetParam(addr uint64, size uint64)
}

// Dispatcher routes SiP service calls.
type Dispatcher struct {
	DRAM DRAM
}

// DDR performs the SIP_DDR_CFG operation op, arg0 and arg1 are passed to the
// driver routine as required by the operation.
func (d *Dispatcher) DDR(arg0 uint64, arg1 uint64, op uint64) int64 {
	klog.V(2).Infof("sip: ddr %s arg0:%#x arg1:%#x", api.OpName(op), arg0, arg1)

	if d.DRAM == nil {
		return api.SIP_RET_NOT_SUPPORTED
	}

	switch op {
	case api.CONFIG_DRAM_INIT:
		d.DRAM.Init()
	case api.CONFIG_DRAM_SET_RATE:
		return d.DRAM.SetRate(arg0)
	case api.CONFIG_DRAM_ROUND_RATE:
		return d.DRAM.RoundRate(arg0)
	case api.CONFIG_DRAM_GET_RATE:
		return d.DRAM.GetRate()
	case api.CONFIG_DRAM_CLR_IRQ:
		d.DRAM.ClearIRQ()
	case api.CONFIG_DRAM_SET_PARAM:
		d.DRAM.SetParam(arg0, arg1)
	default:
		return api.SIP_RET_INVALID_PARAMS
	}

	return api.SIP_RET_SUCCESS
}

// Call serves the SiP function fid with arguments x1-x3 and returns the
// result registers x0-x3.
func (d *Dispatcher) Call(fid uint64, x1 uint64, x2 uint64, x3 uint64) (res [4]uint64) {
	switch uint32(fid) {
	case api.SIP_SVC_CALL_COUNT:
		res[0] = uint64(len(api.Calls))
	case api.SIP_SVC_UID:
		for i, w := range api.UIDWords() {
			res[i] = uint64(w)
		}
	case api.SIP_SVC_VERSION:
		res[0] = uint64(api.Version.Major)
		res[1] = uint64(api.Version.Minor)
	case api.SIP_DDR_CFG:
		res[0] = uint64(d.DDR(x1, x2, x3))
	default:
		klog.V(1).Infof("sip: unimplemented call %#x", fid)
		res[0] = api.SMC_UNK
	}

	return
}
