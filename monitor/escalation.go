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

package monitor

import (
	"k8s.io/klog/v2"
)

// perturbation holds the feedback divider increments, selected by the low
// bits of the timer count.
var perturbation = [32]uint32{
	0, 0, 1, 0, 0, 0, 1, 0, 1, 0, 0, 1, 0, 0, 1, 0,
	1, 0, 0, 1, 0, 0, 1, 0, 1, 0, 0, 0, 1, 0, 1, 0,
}

// Perturbation returns the feedback divider increment applied by a soft
// panic taken at the given timer count.
func Perturbation(count uint64) uint32 {
	return perturbation[count&0x1f]
}

// softPanic nudges the monitored PLL and returns the accumulated number of
// soft panics.
func (m *Monitor) softPanic() uint32 {
	klog.V(1).Infof("monitor: soft panic, soc:%v sw:%v", m.fused, m.claimed)

	m.hw.SoC.AdjustPLL(Perturbation(m.hw.Timer.Counter()))
	m.state.SoftPanics++

	return m.state.SoftPanics
}

// hardPanic forces the monitored PLL in slow mode and stops monitoring.
func (m *Monitor) hardPanic() {
	klog.V(1).Infof("monitor: hard panic, soc:%v sw:%v", m.fused, m.claimed)

	m.hw.SoC.SlowPLL()
	m.disarm()
	m.status = HardPanicked
}
