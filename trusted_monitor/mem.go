// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm

package main

import (
	_ "unsafe"

	"github.com/usbarmory/tamago/dma"
)

const (
	// Secure Monitor
	secureStart = 0x00400000
	secureSize  = 0x01800000 // 24MB

	// Secure Monitor DMA
	secureDMAStart = 0x01c00000
	secureDMASize  = 0x00400000 // 4MB

	// Non-secure OS
	nonSecureStart = 0x02000000
	nonSecureSize  = 0x3e000000 // 992MB

	// kernel and device tree, placed by earlier boot stages
	kernelOffset = 0x00008000
	dtbOffset    = 0x01f00000
)

//go:linkname ramStart runtime.ramStart
var ramStart uint32 = secureStart

//go:linkname ramSize runtime.ramSize
var ramSize uint32 = secureSize

var nonSecureRegion *dma.Region

func init() {
	nonSecureRegion, _ = dma.NewRegion(nonSecureStart, nonSecureSize, false)
	nonSecureRegion.Reserve(nonSecureSize, 0)

	dma.Init(secureDMAStart, secureDMASize)
}
