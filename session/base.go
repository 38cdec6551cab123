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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/weftnet/weft-sdk/internal/slicepool"
)

// PacketProcessor is the forwarding logic a session variant implements.
// [Base] classifies incoming packets by direction and hands them over;
// what happens to them next (routing, rewriting, dropping) is the
// variant's business.
type PacketProcessor interface {
	// ProcessPacketFromNetwork handles a packet that arrived from the
	// local network side of the session.
	ProcessPacketFromNetwork(pkt []byte)
	// ProcessPacketFromPeer handles a packet the remote peer sent us,
	// already authenticated and decrypted.
	ProcessPacketFromPeer(pkt []byte)
}

// MaxPacketLen is the largest packet a session will carry in either
// direction.
const MaxPacketLen = 1500

// sendBufPool holds staging buffers for sealed packets on their way to
// the peer. Sized for MaxPacketLen plus channel overhead.
var sendBufPool = slicepool.MakePool(2048)

// Base carries the bookkeeping every session variant needs: one-time
// arming of the packet-protection channel, direction counters, sealing
// toward the peer and authentication back. Variants hold a Base and give
// it their [PacketProcessor]; the network side is typically fed by a
// [Pump].
//
// Base is safe for concurrent use. The processor and send hook may be
// called from multiple goroutines if the caller uses Base from multiple
// goroutines.
type Base struct {
	processor  PacketProcessor
	send       func(pkt []byte) error
	newChannel func() (*SecureChannel, error)

	initOnce sync.Once
	initErr  error
	channel  *SecureChannel

	messagePackets atomic.Uint64
	networkPackets atomic.Uint64
	sentPackets    atomic.Uint64
}

// NewBase creates session plumbing around the given processor. send
// delivers sealed packets toward the peer (over whatever transport the
// caller runs). newChannel, if non-nil, is invoked exactly once to arm
// the packet-protection channel; a nil newChannel leaves the session in
// the clear.
func NewBase(processor PacketProcessor, send func(pkt []byte) error, newChannel func() (*SecureChannel, error)) (*Base, error) {
	if processor == nil {
		return nil, errors.New("processor must not be nil")
	}
	if send == nil {
		return nil, errors.New("send hook must not be nil")
	}
	return &Base{processor: processor, send: send, newChannel: newChannel}, nil
}

// Initialize arms the session. The channel hook runs on the first call
// only; every later call (and the lazy calls from [Base.OnMessage] and
// [Base.SendToPeer]) returns the first outcome.
func (b *Base) Initialize() error {
	b.initOnce.Do(func() {
		if b.newChannel == nil {
			return
		}
		channel, err := b.newChannel()
		if err != nil {
			b.initErr = fmt.Errorf("arming packet protection: %w", err)
			return
		}
		b.channel = channel
	})
	return b.initErr
}

// OnMessage accepts one packet from the peer transport. When the channel
// is armed the packet must authenticate; packets that do not are dropped
// with an error and never reach the processor. Delivered packets are
// counted in [Base.MessagePackets].
func (b *Base) OnMessage(pkt []byte) error {
	if err := b.Initialize(); err != nil {
		return err
	}
	payload := pkt
	if b.channel != nil {
		opened, err := b.channel.Open(nil, pkt)
		if err != nil {
			return fmt.Errorf("dropping peer packet: %w", err)
		}
		payload = opened
	}
	b.messagePackets.Add(1)
	b.processor.ProcessPacketFromPeer(payload)
	return nil
}

// OnNetworkPacket accepts one packet from the local network side, counts
// it in [Base.NetworkPackets], and hands it to the processor.
func (b *Base) OnNetworkPacket(pkt []byte) {
	b.networkPackets.Add(1)
	b.processor.ProcessPacketFromNetwork(pkt)
}

// SendToPeer seals pkt when the channel is armed and hands the result to
// the send hook. The sealed copy lives in a pooled buffer that is reused
// once the hook returns, so the hook must not retain it. Sent packets
// are counted in [Base.SentPackets].
func (b *Base) SendToPeer(pkt []byte) error {
	if err := b.Initialize(); err != nil {
		return err
	}
	if len(pkt) > MaxPacketLen {
		return fmt.Errorf("packet of %v bytes exceeds the %v-byte limit", len(pkt), MaxPacketLen)
	}
	out := pkt
	if b.channel != nil {
		slice := sendBufPool.LazySlice()
		defer slice.Release()
		sealed, err := b.channel.Seal(slice.Acquire(), pkt)
		if err != nil {
			return fmt.Errorf("sealing packet: %w", err)
		}
		out = sealed
	}
	if err := b.send(out); err != nil {
		return err
	}
	b.sentPackets.Add(1)
	return nil
}

// MessagePackets returns how many peer packets have been delivered to the
// processor.
func (b *Base) MessagePackets() uint64 {
	return b.messagePackets.Load()
}

// NetworkPackets returns how many network-side packets have been
// delivered to the processor.
func (b *Base) NetworkPackets() uint64 {
	return b.networkPackets.Load()
}

// SentPackets returns how many packets have been handed to the send hook.
func (b *Base) SentPackets() uint64 {
	return b.sentPackets.Load()
}
