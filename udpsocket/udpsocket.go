// Copyright 2024 The Weft Authors
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

package udpsocket

import (
	"log/slog"
	"time"

	"github.com/weftnet/weft-sdk/internal/logbudget"
)

// Read errors other than would-block are logged, at most readLogBurst
// lines per errno per readLogWindow per IO instance.
const (
	readLogBurst  = 8
	readLogWindow = time.Minute
)

// IO performs non-blocking packet I/O on caller-owned UDP descriptors. It
// holds no per-descriptor state, so one IO can drive any number of
// sockets concurrently. The zero value is not usable; create one with
// [NewIO].
type IO struct {
	logger   *slog.Logger
	readLogs *logbudget.Budget
}

// NewIO creates an IO that logs through the given logger. A nil logger
// means [slog.Default].
func NewIO(logger *slog.Logger) *IO {
	if logger == nil {
		logger = slog.Default()
	}
	return &IO{
		logger:   logger,
		readLogs: logbudget.New(readLogBurst, readLogWindow),
	}
}

// ResetLogBudget restores the full read-error log allowance. Mostly for
// tests and for callers that rotate log sinks.
func (s *IO) ResetLogBudget() {
	s.readLogs.Reset()
}
