// Copyright 2025 The Weft Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package logbudget bounds how often a repeating error condition may be
logged. Each error class gets an independent allowance of log events per
window; once the allowance is spent, further events in the same window are
counted but not allowed. The state is owned by whoever creates the
[Budget], so tests and long-lived callers can reset it at will.
*/
package logbudget

import (
	"sync"
	"time"
)

// Budget tracks per-class log allowances. A class is any caller-chosen
// integer key, typically an errno value. Budget is safe for concurrent use.
type Budget struct {
	burst  int
	window time.Duration

	mu      sync.Mutex
	classes map[int]*classState
}

type classState struct {
	windowStart time.Time
	used        int
	suppressed  uint64
}

// New creates a Budget that allows burst events per class in each window.
// A non-positive window makes the budget a one-time allowance: the first
// burst events per class are allowed, ever, until [Budget.Reset].
func New(burst int, window time.Duration) *Budget {
	return &Budget{
		burst:   burst,
		window:  window,
		classes: make(map[int]*classState),
	}
}

// Allow reports whether an event of the given class may be logged at time
// now, and charges the class's budget if so. Denied events are counted and
// retrievable via [Budget.Suppressed].
func (b *Budget) Allow(class int, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.classes[class]
	if st == nil {
		st = &classState{windowStart: now}
		b.classes[class] = st
	}
	if b.window > 0 && now.Sub(st.windowStart) >= b.window {
		st.windowStart = now
		st.used = 0
	}
	if st.used < b.burst {
		st.used++
		return true
	}
	st.suppressed++
	return false
}

// Suppressed returns how many events of the given class have been denied
// since creation or the last Reset. Useful for a summary line when a
// burst of errors ends.
func (b *Budget) Suppressed(class int) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.classes[class]; st != nil {
		return st.suppressed
	}
	return 0
}

// Reset forgets all classes, restoring every budget to its full allowance.
func (b *Budget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.classes = make(map[int]*classState)
}
