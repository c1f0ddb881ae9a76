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

package main

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

// metrics exports the final monitor state of a simulation.
type metrics struct {
	reg *prom.Registry

	softPanics prom.Gauge
	waits      prom.Gauge
	status     *prom.GaugeVec
	changes    prom.Counter
	dpllRate   prom.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		reg: prom.NewRegistry(),
		softPanics: prom.NewGauge(prom.GaugeOpts{
			Name: "socmonitor_soft_panics",
			Help: "Number of soft panics taken.",
		}),
		waits: prom.NewGauge(prom.GaugeOpts{
			Name: "socmonitor_waits",
			Help: "Number of polls with an unset claim and secondary cores online.",
		}),
		status: prom.NewGaugeVec(prom.GaugeOpts{
			Name: "socmonitor_status",
			Help: "Monitor status, set to 1 for the current one.",
		}, []string{"status"}),
		changes: prom.NewCounter(prom.CounterOpts{
			Name: "socmonitor_state_changes_total",
			Help: "Number of poll intervals which changed the monitor state.",
		}),
		dpllRate: prom.NewGauge(prom.GaugeOpts{
			Name: "socmonitor_dpll_rate_hz",
			Help: "DPLL output frequency.",
		}),
	}

	m.reg.MustRegister(m.softPanics, m.waits, m.status, m.changes, m.dpllRate)

	return m
}

func (m *metrics) update(r *Report) {
	m.softPanics.Set(float64(r.Final.State.SoftPanics))
	m.waits.Set(float64(r.Final.State.Waits))
	m.status.Reset()
	m.status.WithLabelValues(r.Final.Status.String()).Set(1)
	m.changes.Add(float64(len(r.Steps)))
	m.dpllRate.Set(float64(r.Rate))
}

// serve exposes the metrics on addr, it only returns on error.
func (m *metrics) serve(addr string) error {
	srvMux := http.NewServeMux()
	srvMux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))

	klog.Infof("serving metrics on %s/metrics", addr)

	return http.ListenAndServe(addr, srvMux)
}
