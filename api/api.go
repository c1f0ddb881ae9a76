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

// Package api defines the Silicon Provider (SiP) service interface exposed by
// the secure monitor to the Non-secure OS through SMC calls.
package api

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/coreos/go-semver/semver"
	"github.com/google/uuid"
)

// SiP service function identifiers (SMC32 fast calls)
const (
	SIP_SVC_CALL_COUNT = 0x8200ff00
	SIP_SVC_UID        = 0x8200ff01
	SIP_SVC_VERSION    = 0x8200ff03

	SIP_DDR_CFG = 0x82000008
)

// Return codes
const (
	SIP_RET_SUCCESS        = 0
	SIP_RET_NOT_SUPPORTED  = -1
	SIP_RET_INVALID_PARAMS = -2

	// SMC_UNK is returned for unknown function identifiers.
	SMC_UNK = 0xffffffff
)

// SiP service call range, SMC32 and SMC64 fast calls with owning entity 2
const (
	SIP_FID_MASK  = 0xbf000000
	SIP_FID_RANGE = 0x82000000
)

// SIP_DDR_CFG operations, passed in the third argument
const (
	CONFIG_DRAM_INIT = iota
	CONFIG_DRAM_SET_RATE
	CONFIG_DRAM_ROUND_RATE
	CONFIG_DRAM_SET_AT_SR
	CONFIG_DRAM_GET_BW
	CONFIG_DRAM_GET_RATE
	CONFIG_DRAM_CLR_IRQ
	CONFIG_DRAM_SET_PARAM
)

// SiP service identification
var (
	UID     = uuid.MustParse("e86fc7e2-313e-11e6-b70d-8f88ee747b72")
	Version = semver.New("0.1.0")
)

// Calls lists the function identifiers handled by the SiP service.
var Calls = []uint32{
	SIP_SVC_CALL_COUNT,
	SIP_SVC_UID,
	SIP_SVC_VERSION,
	SIP_DDR_CFG,
}

// IsSiP returns whether fid belongs to the SiP service call range.
func IsSiP(fid uint32) bool {
	return fid&SIP_FID_MASK == SIP_FID_RANGE
}

// UIDWords returns the service UID as returned in registers w0-w3, each word
// holding 4 UID bytes in little endian order.
func UIDWords() (w [4]uint32) {
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(UID[i*4:])
	}

	return
}

// OpName returns the name of a SIP_DDR_CFG operation.
func OpName(op uint64) string {
	switch op {
	case CONFIG_DRAM_INIT:
		return "INIT"
	case CONFIG_DRAM_SET_RATE:
		return "SET_RATE"
	case CONFIG_DRAM_ROUND_RATE:
		return "ROUND_RATE"
	case CONFIG_DRAM_SET_AT_SR:
		return "SET_AT_SR"
	case CONFIG_DRAM_GET_BW:
		return "GET_BW"
	case CONFIG_DRAM_GET_RATE:
		return "GET_RATE"
	case CONFIG_DRAM_CLR_IRQ:
		return "CLR_IRQ"
	case CONFIG_DRAM_SET_PARAM:
		return "SET_PARAM"
	}

	return fmt.Sprintf("OP(%d)", op)
}

// Status represents the SoC identity status of a board.
type Status struct {
	Fused       string
	Claimed     string
	Monitor     string
	CoresOnline uint32
	DPLLRate    uint64
	SlowMode    bool
	Revision    string
	Build       string
}

// Print returns the status in textual format.
func (p *Status) Print() string {
	var status bytes.Buffer

	status.WriteString("------------------------------------------------------------ SoC ID ----\n")
	status.WriteString(fmt.Sprintf("Fused ..................: %s\n", p.Fused))
	status.WriteString(fmt.Sprintf("Claimed ................: %s\n", p.Claimed))

	if len(p.Monitor) > 0 {
		status.WriteString(fmt.Sprintf("Monitor ................: %s\n", p.Monitor))
	}

	status.WriteString(fmt.Sprintf("Cores online ...........: %#x\n", p.CoresOnline))
	status.WriteString(fmt.Sprintf("DPLL ...................: %d Hz (slow mode: %v)\n", p.DPLLRate, p.SlowMode))

	if len(p.Revision) > 0 {
		status.WriteString(fmt.Sprintf("Revision ...............: %s\n", p.Revision))
	}

	if len(p.Build) > 0 {
		status.WriteString(fmt.Sprintf("Build ..................: %s\n", p.Build))
	}

	status.WriteString(fmt.Sprintf("SiP service ............: %s v%s", UID, Version))

	return status.String()
}
