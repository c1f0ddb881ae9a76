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

//go:build !tamago

// monitorsim runs the SoC monitor against an emulated RK3328 for a boot
// scenario and prints its escalation timeline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cheggaaa/pb/v3"
	"k8s.io/klog/v2"

	"github.com/transparency-dev/soc-monitor/api"
)

type Config struct {
	scenario string
	progress bool
	metrics  string
}

var conf *Config

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stdout)

	conf = &Config{}

	klog.InitFlags(nil)

	flag.StringVar(&conf.scenario, "s", "", "scenario file (YAML)")
	flag.BoolVar(&conf.progress, "p", false, "show progress bar")
	flag.StringVar(&conf.metrics, "m", "", "serve final metrics on address (e.g. localhost:8080)")
}

func main() {
	var err error

	defer func() {
		if err != nil {
			log.Fatalf("fatal error, %s", err)
		}
	}()

	flag.Parse()

	if len(conf.scenario) == 0 {
		flag.PrintDefaults()
		return
	}

	f, err := os.Open(conf.scenario)

	if err != nil {
		return
	}
	defer f.Close()

	s, err := LoadScenario(f)

	if err != nil {
		return
	}

	var progress func()

	if conf.progress {
		bar := pb.StartNew(s.Intervals)
		progress = func() { bar.Increment() }
		defer bar.Finish()
	}

	r, err := s.Run(progress)

	if err != nil {
		return
	}

	log.Print(timeline(r))

	status := &api.Status{
		Fused:    r.Fused.String(),
		Claimed:  r.Final.Claimed.String(),
		Monitor:  r.Final.Status.String(),
		DPLLRate: r.Rate,
		SlowMode: r.Slow,
	}

	log.Print(status.Print())

	if len(conf.metrics) > 0 {
		m := newMetrics()
		m.update(r)
		err = m.serve(conf.metrics)
	}
}

func timeline(r *Report) (s string) {
	if r.InitErr != nil {
		s += fmt.Sprintf("init error: %v\n", r.InitErr)
	}

	for _, step := range r.Steps {
		s += fmt.Sprintf("%6d %-13v sw:%-8v panics:%-3d waits:%-4d cpu:%#x fbdiv:%d\n",
			step.Interval, step.Status, step.Claimed,
			step.State.SoftPanics, step.State.Waits, step.State.CoresOnline,
			step.Feedback)
	}

	return
}
