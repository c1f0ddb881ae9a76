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

package sim

// Timer emulates a generic timer programmed through TVAL, the count only
// advances on expiry.
type Timer struct {
	Count uint64

	// Latency is added to the count on each expiry, modelling interrupt
	// entry delay.
	Latency uint64

	deadline uint64
	enabled  bool
}

func (t *Timer) Counter() uint64 {
	return t.Count
}

func (t *Timer) SetTimeout(ticks uint32) {
	t.deadline = t.Count + uint64(ticks)
}

func (t *Timer) Enable() {
	t.enabled = true
}

func (t *Timer) Disable() {
	t.enabled = false
}

// Enabled returns whether the timer is enabled.
func (t *Timer) Enabled() bool {
	return t.enabled
}

// Pending returns whether the timer condition is met, as it happens when an
// expired timer is left enabled without being reprogrammed.
func (t *Timer) Pending() bool {
	return t.enabled && t.Count >= t.deadline
}

// Remaining returns the number of ticks before expiry.
func (t *Timer) Remaining() uint64 {
	if t.Count >= t.deadline {
		return 0
	}

	return t.deadline - t.Count
}

// Expire advances the count to the programmed deadline, it returns false if
// the timer is disabled.
func (t *Timer) Expire() bool {
	if !t.enabled {
		return false
	}

	if t.Count < t.deadline {
		t.Count = t.deadline
	}

	t.Count += t.Latency

	return true
}
