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

package logbudget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBudget_CapsPerClass(t *testing.T) {
	b := New(2, time.Minute)
	now := time.Now()

	require.True(t, b.Allow(11, now))
	require.True(t, b.Allow(11, now))
	require.False(t, b.Allow(11, now))
	require.EqualValues(t, 1, b.Suppressed(11))
}

// Make sure classes do not share an allowance: exhausting one leaves the
// others untouched.
func TestBudget_ClassesIndependent(t *testing.T) {
	b := New(1, time.Minute)
	now := time.Now()

	require.True(t, b.Allow(11, now))
	require.False(t, b.Allow(11, now))
	require.True(t, b.Allow(22, now))
	require.EqualValues(t, 0, b.Suppressed(22))
}

func TestBudget_WindowRefills(t *testing.T) {
	b := New(1, time.Minute)
	now := time.Now()

	require.True(t, b.Allow(11, now))
	require.False(t, b.Allow(11, now.Add(59*time.Second)))
	require.True(t, b.Allow(11, now.Add(time.Minute)))
}

// Make sure a non-positive window means the allowance never refills on
// its own.
func TestBudget_ZeroWindowNeverRefills(t *testing.T) {
	b := New(1, 0)
	now := time.Now()

	require.True(t, b.Allow(11, now))
	require.False(t, b.Allow(11, now.Add(24*time.Hour)))
	require.EqualValues(t, 1, b.Suppressed(11))
}

func TestBudget_Reset(t *testing.T) {
	b := New(1, 0)
	now := time.Now()

	require.True(t, b.Allow(11, now))
	require.False(t, b.Allow(11, now))

	b.Reset()
	require.True(t, b.Allow(11, now))
	require.EqualValues(t, 0, b.Suppressed(11))
}
