// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm

package tz

import (
	"errors"
	"log"
	"runtime"
	"sync"

	"github.com/usbarmory/tamago/arm"
	"github.com/usbarmory/tamago/dma"
)

// defined in exec_arm.s
func Exec(ctx *ExecCtx)
func resetMonitor()
func undefinedMonitor()
func supervisorMonitor()
func prefetchAbortMonitor()
func dataAbortMonitor()
func irqMonitor()
func fiqMonitor()

var (
	systemVectorTable = arm.SystemVectorTable()

	monitorVectorTable = arm.VectorTable{
		Reset:         resetMonitor,
		Undefined:     undefinedMonitor,
		Supervisor:    supervisorMonitor,
		PrefetchAbort: prefetchAbortMonitor,
		DataAbort:     dataAbortMonitor,
		IRQ:           irqMonitor,
		FIQ:           fiqMonitor,
	}
)

var mux sync.Mutex

// Print logs the execution context registers.
func (ctx *ExecCtx) Print() {
	cpsr, spsr := ctx.Mode()

	log.Printf("   r0:%.8x  r1:%.8x  r2:%.8x  r3:%.8x", ctx.R0, ctx.R1, ctx.R2, ctx.R3)
	log.Printf("   r4:%.8x  r5:%.8x  r6:%.8x  r7:%.8x", ctx.R4, ctx.R5, ctx.R6, ctx.R7)
	log.Printf("   r8:%.8x  r9:%.8x r10:%.8x r11:%.8x cpsr:%.8x (%s)", ctx.R8, ctx.R9, ctx.R10, ctx.R11, ctx.CPSR, arm.ModeName(cpsr))
	log.Printf("  r12:%.8x  sp:%.8x  lr:%.8x  pc:%.8x spsr:%.8x (%s)", ctx.R12, ctx.R13, ctx.R14, ctx.R15, ctx.SPSR, arm.ModeName(spsr))
}

// Mode returns the processor mode.
func (ctx *ExecCtx) Mode() (current int, saved int) {
	current = int(ctx.CPSR & 0x1f)
	saved = int(ctx.SPSR & 0x1f)
	return
}

func (ctx *ExecCtx) schedule() (err error) {
	mux.Lock()
	defer mux.Unlock()

	arm.SetVectorTable(monitorVectorTable)
	Exec(ctx)
	arm.SetVectorTable(systemVectorTable)

	switch mode, _ := ctx.Mode(); mode {
	case arm.IRQ_MODE, arm.FIQ_MODE, arm.SVC_MODE, arm.MON_MODE:
		return
	default:
		ctx.Print()
		return errors.New(arm.ModeName(mode))
	}
}

// Run executes the Non-secure OS and serves the exceptions it raises
// through the context Handler, it returns when an unhandled exception, or
// any other error, is raised.
func (ctx *ExecCtx) Run(cpu *arm.CPU) (err error) {
	ctx.run = true
	ctx.stopped = make(chan struct{})
	defer close(ctx.stopped)

	cpu.SetAccessPermissions(
		uint32(ctx.Memory.Start()), uint32(ctx.Memory.End()),
		arm.TTE_AP_001, 0,
	)

	for ctx.run {
		if err = ctx.schedule(); err != nil {
			break
		}

		if err = ctx.handle(); err != nil {
			break
		}

		runtime.Gosched()
	}

	return
}

// Load returns a Non-secure System mode execution context for the argument
// entry point and memory region, which is flagged as Non-secure in the MMU
// translation tables to keep cache lines of the two worlds separate.
//
// The caller is responsible for any memory controller restriction.
func Load(cpu *arm.CPU, entry uint, mem *dma.Region) (ctx *ExecCtx) {
	ctx = &ExecCtx{
		R15:    uint32(entry),
		VFP:    make([]uint64, 32),
		Memory: mem,
		// AIF masked, System mode
		SPSR: (0b111 << 6) | arm.SYS_MODE,
	}

	cpu.SetAttributes(uint32(mem.Start()), uint32(mem.End()), arm.MemoryRegion|arm.TTE_NS)

	return
}
