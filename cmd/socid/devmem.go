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

//go:build linux

package main

import (
	"github.com/u-root/u-root/pkg/memio"
	"k8s.io/klog/v2"
)

// devMem implements rk3328.Bus through /dev/mem, access errors are fatal.
type devMem struct{}

func (d *devMem) Read32(addr uint32) uint32 {
	var val memio.Uint32

	if err := memio.Read(int64(addr), &val); err != nil {
		klog.Exitf("could not read %#x, %v", addr, err)
	}

	klog.V(2).Infof("read  %#.8x = %#.8x", addr, uint32(val))

	return uint32(val)
}

func (d *devMem) Write32(addr uint32, val uint32) {
	klog.V(2).Infof("write %#.8x = %#.8x", addr, val)

	v := memio.Uint32(val)

	if err := memio.Write(int64(addr), &v); err != nil {
		klog.Exitf("could not write %#x, %v", addr, err)
	}
}
