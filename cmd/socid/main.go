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

// socid reports the fused and claimed SoC identity of a running RK3328
// board, it requires access to /dev/mem.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"k8s.io/klog/v2"

	"github.com/transparency-dev/soc-monitor/api"
	"github.com/transparency-dev/soc-monitor/identity"
	"github.com/transparency-dev/soc-monitor/soc/rockchip/rk3328"
)

type Config struct {
	fuses bool
	claim bool
}

var conf *Config

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stdout)

	conf = &Config{}

	klog.InitFlags(nil)

	flag.BoolVar(&conf.fuses, "f", false, "dump Non-secure eFuse area")
	flag.BoolVar(&conf.claim, "c", false, "only read the claim register (no eFuse access)")
}

// status returns the identity status, the eFuse image is read unless
// claimOnly is set.
func status(soc *rk3328.SoC, claimOnly bool) (s *api.Status, fuses []byte, err error) {
	s = &api.Status{
		Fused:       "n/a",
		Claimed:     identity.Read(soc).String(),
		CoresOnline: soc.CoresOnline(),
		DPLLRate:    soc.DPLLRate(),
		SlowMode:    soc.SlowMode(),
	}

	if claimOnly {
		return
	}

	if fuses, err = soc.ReadFuses(); err != nil {
		return nil, nil, fmt.Errorf("could not read fuses, %w", err)
	}

	s.Fused = identity.Fused(fuses).String()

	return
}

func main() {
	var err error

	defer func() {
		if err != nil {
			log.Fatalf("fatal error, %s", err)
		}
	}()

	flag.Parse()

	soc := &rk3328.SoC{Bus: &devMem{}}

	s, fuses, err := status(soc, conf.claim)

	if err != nil {
		return
	}

	log.Print(s.Print())

	if conf.fuses && len(fuses) > 0 {
		log.Printf("\n%s", hex.Dump(fuses))
	}
}
