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

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weftnet/weft-sdk/udpsocket"
)

// ErrIdleTimeout reports that a pump stopped because nothing arrived
// within the idle window.
var ErrIdleTimeout = errors.New("session idle timeout")

// pollSlice bounds how long one kernel wait lasts, so cancellation is
// noticed promptly even on a silent socket.
const pollSlice = 250 * time.Millisecond

// pumpBatchLen is how many datagrams one wakeup drains at most.
const pumpBatchLen = 8

// Pump feeds the network side of a session from a UDP descriptor: every
// datagram payload is delivered through [Base.OnNetworkPacket]. The
// descriptor stays owned by the caller; one pump per descriptor.
type Pump struct {
	io          *udpsocket.IO
	fd          int
	base        *Base
	idleTimeout time.Duration
}

// NewPump creates a pump for the descriptor. An idleTimeout > 0 makes
// [Pump.Run] stop with [ErrIdleTimeout] after that long without a single
// packet; zero disables the idle stop.
func NewPump(io *udpsocket.IO, fd int, base *Base, idleTimeout time.Duration) *Pump {
	return &Pump{io: io, fd: fd, base: base, idleTimeout: idleTimeout}
}

// Run drives the pump until the context is canceled, the idle timeout
// expires, or the descriptor fails; the returned error says which. Work
// per wakeup is bounded by the batch size, so one loud socket cannot
// monopolize the goroutine forever.
func (p *Pump) Run(ctx context.Context) error {
	results := make([]udpsocket.ReadResult, pumpBatchLen)
	for i := range results {
		results[i].Payload = make([]byte, MaxPacketLen)
	}

	lastPacket := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		timeout := pollSlice
		if p.idleTimeout > 0 {
			remaining := p.idleTimeout - time.Since(lastPacket)
			if remaining <= 0 {
				return ErrIdleTimeout
			}
			if remaining < timeout {
				timeout = remaining
			}
		}
		readable, err := p.io.WaitUntilReadable(p.fd, timeout)
		if err != nil {
			return fmt.Errorf("waiting for packets: %w", err)
		}
		if !readable {
			continue
		}

		n := p.io.ReadBatch(p.fd, 0, results)
		for i := range results[:n] {
			p.base.OnNetworkPacket(results[i].Payload[:results[i].N])
		}
		if n > 0 {
			lastPacket = time.Now()
		}
		if n < len(results) {
			if err := results[n].Err; err != nil && !errors.Is(err, udpsocket.ErrWouldBlock) {
				return fmt.Errorf("reading packets: %w", err)
			}
		}
	}
}
