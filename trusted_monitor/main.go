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
	"os"
	"runtime"

	"github.com/transparency-dev/soc-monitor/monitor"
	"github.com/transparency-dev/soc-monitor/sip"
	"github.com/transparency-dev/soc-monitor/soc/rockchip/rk3328"
)

// initialized at compile time (-ldflags -X)
var (
	Build    string
	Revision string
	Version  string
)

var (
	SoC, GIC, UART = rk3328.Native()

	SIP = &sip.Dispatcher{
		DRAM: &rk3328.DDR{SoC: SoC},
	}
)

func init() {
	log.SetFlags(log.Ltime)
	log.SetOutput(os.Stdout)

	log.Printf("%s/%s (%s) • SoC monitor (Secure World monitor) • %s %s",
		runtime.GOOS, runtime.GOARCH, runtime.Version(),
		Revision, Build)
}

func main() {
	hw := monitor.Hardware{
		SoC:        SoC,
		Fuses:      SoC,
		Timer:      rk3328.SecureTimer{},
		Interrupts: &fiqController{GIC: GIC},
	}

	mon, err := monitor.New(monitor.DefaultConfig(), hw)

	if err != nil {
		log.Fatalf("SM could not create SoC monitor, %v", err)
	}

	// A failed identity check is never fatal, the monitor escalation
	// takes care of leaving the system unreliable.
	if err = mon.Init(); err != nil {
		log.Printf("SM SoC monitor error, %v", err)
	}

	log.Printf("SM SoC monitor status:%v soc:%v", mon.Status(), mon.Fused())

	GIC.EnableFIQ()

	err = run(loadNonSecure())

	log.Fatalf("SM Non-secure OS stopped, %v", err)
}
