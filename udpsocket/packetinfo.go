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
	"net/netip"
	"time"
)

// MetadataFlags selects which per-packet metadata to decode on reads, and
// marks which [PacketInfo] fields are populated. The same values serve both
// roles: pass a mask of interest to [IO.ReadPacket], and check
// PacketInfo.Flags to see what actually arrived.
type MetadataFlags uint32

const (
	// FlagPeerAddr selects the remote address the packet came from, or on
	// writes marks the required destination address.
	FlagPeerAddr MetadataFlags = 1 << iota
	// FlagSelfIPv4 selects the IPv4 address the packet was received on, or
	// on writes supplies an IPv4 source-address hint.
	FlagSelfIPv4
	// FlagSelfIPv6 selects the IPv6 address the packet was received on, or
	// on writes supplies an IPv6 source-address hint.
	FlagSelfIPv6
	// FlagHopLimit selects the received TTL (IPv4) or hop limit (IPv6).
	// Delivery must be enabled first with [IO.EnableRxHopLimit].
	FlagHopLimit
	// FlagRxTimestamp selects the kernel receive timestamp. Linux only;
	// delivery must be enabled first with [IO.EnableRxTimestamps].
	FlagRxTimestamp

	// AllMetadata requests everything this package knows how to decode.
	AllMetadata = FlagPeerAddr | FlagSelfIPv4 | FlagSelfIPv6 | FlagHopLimit | FlagRxTimestamp
)

// Has reports whether all bits of mask are set in f.
func (f MetadataFlags) Has(mask MetadataFlags) bool {
	return f&mask == mask
}

// PacketInfo carries the metadata attached to one datagram. A field is
// meaningful only when the matching flag is set in Flags; everything else
// is leftover zero values.
type PacketInfo struct {
	Flags MetadataFlags

	// Peer is the remote address: the sender on reads, the destination on
	// writes.
	Peer netip.AddrPort
	// SelfIPv4 and SelfIPv6 are the local address the packet was addressed
	// to. On writes, at most one is used as the source-address hint; if
	// both flags are set, the IPv4 hint wins.
	SelfIPv4 netip.Addr
	SelfIPv6 netip.Addr
	// HopLimit is the TTL (IPv4) or hop limit (IPv6) the packet arrived
	// with.
	HopLimit int
	// RxTime is the kernel's receive timestamp.
	RxTime time.Time
}

// Has reports whether all bits of mask are populated in the info.
func (i *PacketInfo) Has(mask MetadataFlags) bool {
	return i.Flags.Has(mask)
}

// ReadResult is one [IO.ReadPacket] outcome. Payload and Control are
// supplied by the caller before the read and keep pointing at the caller's
// buffers afterwards; N tells how many payload bytes the datagram filled.
type ReadResult struct {
	// Payload receives the datagram. A datagram longer than the buffer is
	// silently truncated to fit, as usual for UDP.
	Payload []byte
	// Control is scratch space for ancillary data. It may be nil when no
	// metadata beyond the peer address is requested; otherwise size it
	// with at least [MinControlLen] bytes ([DefaultControlLen] is a safe
	// choice).
	Control []byte

	// N is the payload length of the received datagram. Valid only when
	// Err is nil.
	N int
	// Info holds the decoded metadata for this datagram.
	Info PacketInfo
	// Err is nil for a delivered datagram, [ErrWouldBlock] when the socket
	// had nothing queued, or the failure reported by the OS.
	Err error
}

// DefaultControlLen is a control buffer size large enough for all the
// metadata this package can request at once, with room to spare for
// records it skips.
const DefaultControlLen = 512
