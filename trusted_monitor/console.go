// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm && !debug

package main

import (
	"io"
	"log"
	_ "unsafe"
)

// The SoC monitor does not log any sensitive information to the serial
// console, however it is desirable to silence any potential stack trace or
// runtime errors to avoid unwanted information leaks.
//
// To this end the runtime printk function, responsible for all console logging
// operations (i.e. stdout/stderr), is a NOP and logging is discarded.

func init() {
	// silence logging
	log.SetOutput(io.Discard)
}

//go:linkname printk runtime.printk
func printk(c byte) {
	// ensure that any serial output is supressed
}
