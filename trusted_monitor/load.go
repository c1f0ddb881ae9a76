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

package main

import (
	"log"

	"github.com/usbarmory/tamago/arm"

	"github.com/transparency-dev/soc-monitor/internal/tz"
)

// Linux boot protocol, device tree in place of a machine type
const machineDT = 0xffffffff

// loadNonSecure prepares the execution context of the Non-secure OS kernel,
// already placed in memory by earlier boot stages.
func loadNonSecure() (ns *tz.ExecCtx) {
	entry := uint(nonSecureStart + kernelOffset)
	ns = tz.Load(ARM, entry, nonSecureRegion)

	log.Printf("SM Non-secure OS loaded addr:%#x entry:%#x", ns.Memory.Start(), ns.R15)

	ns.R0 = 0
	ns.R1 = machineDT
	ns.R2 = nonSecureStart + dtbOffset

	// serve secure interrupts and SiP calls
	ns.Handler = handler

	return
}

func run(ctx *tz.ExecCtx) (err error) {
	mode := arm.ModeName(int(ctx.SPSR) & 0x1f)

	log.Printf("SM Non-secure OS started mode:%s pc:%#.8x dtb:%#.8x", mode, ctx.R15, ctx.R2)

	err = ctx.Run(ARM)

	log.Printf("SM Non-secure OS stopped mode:%s sp:%#.8x lr:%#.8x pc:%#.8x err:%v", mode, ctx.R13, ctx.R14, ctx.R15, err)

	return
}
