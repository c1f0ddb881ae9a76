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

// GRF registers
const (
	// OS_REG4 carries the SoC identity claimed by the boot loader.
	GRF_OS_REG4 = 0x05d8
)

// PMU registers
const (
	PMU_PWRDN_ST = 0x10

	// cores 0-3 power down status
	PWRDN_CPU_MASK = 0x0f
)

// ReadClaim returns the value of the GRF claim register, the GRF bus clock
// must be ungated (see UngateClaim).
func (hw *SoC) ReadClaim() uint32 {
	return hw.Bus.Read32(GRF_BASE + GRF_OS_REG4)
}

// CoresOnline returns the mask of processor cores which are not powered
// down.
func (hw *SoC) CoresOnline() uint32 {
	return ^hw.Bus.Read32(PMU_BASE+PMU_PWRDN_ST) & PWRDN_CPU_MASK
}
