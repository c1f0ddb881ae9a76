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
	"fmt"
	"log"

	"github.com/usbarmory/tamago/arm"

	"github.com/transparency-dev/soc-monitor/api"
	"github.com/transparency-dev/soc-monitor/internal/tz"
	"github.com/transparency-dev/soc-monitor/soc/rockchip/rk3328"
)

var irqHandler = make(map[int]func())

// fiqController routes secure interrupts as FIQs, served by the monitor
// exception handler while the Non-secure OS runs.
type fiqController struct {
	GIC *rk3328.GIC
}

func (c *fiqController) Register(id int, handler func()) error {
	if _, ok := irqHandler[id]; ok {
		return fmt.Errorf("handler already registered for IRQ %d", id)
	}

	irqHandler[id] = handler

	return nil
}

func (c *fiqController) EnableInterrupt(id int, cpu uint32) {
	c.GIC.EnableInterrupt(id, cpu)
}

func (c *fiqController) DisableInterrupt(id int) {
	c.GIC.DisableInterrupt(id)
}

func isr() {
	irq := GIC.GetInterrupt()

	if irq == rk3328.SPURIOUS_IRQ {
		return
	}

	if handle, ok := irqHandler[irq]; ok {
		handle()
		return
	}

	log.Printf("SM unexpected FIQ %d", irq)
}

func sipHandler(ctx *tz.ExecCtx) {
	if !api.IsSiP(ctx.A0()) {
		ctx.R0 = api.SMC_UNK
		return
	}

	ctx.Ret(SIP.Call(uint64(ctx.A0()), uint64(ctx.A1()), uint64(ctx.A2()), uint64(ctx.A3())))
}

// The exception handler is responsible for the following tasks:
//   - serve secure interrupts (SoC monitor timer) raised as FIQs
//   - serve SiP service calls (SMC) from the Non-secure OS
//
// Any other exception stops the Non-secure OS.
func handler(ctx *tz.ExecCtx) (err error) {
	switch ctx.ExceptionVector {
	case tz.FIQ:
		isr()
	case tz.SUPERVISOR:
		sipHandler(ctx)
	default:
		ctx.Print()
		err = fmt.Errorf("unhandled exception %s", arm.VectorName(ctx.ExceptionVector))
	}

	return
}
