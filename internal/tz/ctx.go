// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package tz provides TrustZone world switching to execute a Non-secure OS
// from the Secure World monitor, serving the exceptions it raises towards
// monitor mode.
package tz

import (
	"github.com/usbarmory/tamago/dma"
)

// Exception vector offsets, as recorded in ExecCtx.ExceptionVector
// (Table 11-1, ARM® Cortex™ -A Series Programmer’s Guide).
const (
	RESET          = 0x00
	UNDEFINED      = 0x04
	SUPERVISOR     = 0x08
	PREFETCH_ABORT = 0x0c
	DATA_ABORT     = 0x10
	IRQ            = 0x18
	FIQ            = 0x1c
)

// ExecCtx represents the Non-secure execution context at initialization or
// on return to the monitor. The register layout is shared with exec_arm.s.
type ExecCtx struct {
	R0  uint32
	R1  uint32
	R2  uint32
	R3  uint32
	R4  uint32
	R5  uint32
	R6  uint32
	R7  uint32
	R8  uint32
	R9  uint32
	R10 uint32
	R11 uint32
	R12 uint32
	R13 uint32 // SP
	R14 uint32 // LR
	R15 uint32 // PC

	// CPSR is the Current Program Status Register of the handler which
	// caught the exception raised by the execution context.
	CPSR uint32

	// SPSR (Saved Program Status Register) is the CPSR of the execution
	// context as it raised the exception.
	SPSR uint32

	ExceptionVector int

	VFP   []uint64 // d0-d31
	FPSCR uint32
	FPEXC uint32

	// Memory is the Non-secure OS RAM
	Memory *dma.Region

	// Handler, if not nil, serves exceptions raised by the execution
	// context, a non-nil error stops execution.
	Handler func(ctx *ExecCtx) error

	// execution state
	run bool
	// stopped will be closed once the context has stopped running.
	stopped chan struct{}
	// executing g stack pointer
	g_sp uint32
}

// A0 returns the register holding the first SMC argument.
func (ctx *ExecCtx) A0() uint32 {
	return ctx.R0
}

// A1 returns the register holding the second SMC argument.
func (ctx *ExecCtx) A1() uint32 {
	return ctx.R1
}

// A2 returns the register holding the third SMC argument.
func (ctx *ExecCtx) A2() uint32 {
	return ctx.R2
}

// A3 returns the register holding the fourth SMC argument.
func (ctx *ExecCtx) A3() uint32 {
	return ctx.R3
}

// Ret sets the SMC return registers.
func (ctx *ExecCtx) Ret(res [4]uint64) {
	ctx.R0 = uint32(res[0])
	ctx.R1 = uint32(res[1])
	ctx.R2 = uint32(res[2])
	ctx.R3 = uint32(res[3])
}

// Stop stops the execution context.
func (ctx *ExecCtx) Stop() {
	ctx.run = false
}

// Done returns a channel which will be closed once execution context has
// stopped.
func (ctx *ExecCtx) Done() chan struct{} {
	return ctx.stopped
}

// handle serves an exception taken from the execution context and prepares
// its return address.
func (ctx *ExecCtx) handle() (err error) {
	if ctx.Handler != nil {
		if err = ctx.Handler(ctx); err != nil {
			return
		}
	}

	// Return to the interrupted instruction, which was not executed
	// (Table 11-3, ARM® Cortex™ -A Series Programmer’s Guide).
	switch ctx.ExceptionVector {
	case IRQ, FIQ:
		ctx.R15 -= 4
	}

	return
}
