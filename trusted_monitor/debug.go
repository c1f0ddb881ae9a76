// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm && debug

package main

import (
	"flag"
	_ "unsafe"

	"k8s.io/klog/v2"

	"github.com/transparency-dev/soc-monitor/soc/rockchip/rk3328"
)

// UART2 is configured by earlier boot stages
var console = &rk3328.UART{
	Bus:  rk3328.MMIO{},
	Base: rk3328.UART2_BASE,
}

//go:linkname printk runtime.printk
func printk(c byte) {
	console.Tx(c)
}

func init() {
	// SoC monitor and SiP tracing
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)

	_ = fs.Set("logtostderr", "true")
	_ = fs.Set("v", "2")
}
