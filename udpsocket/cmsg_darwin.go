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

//go:build darwin

package udpsocket

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	// Option that turns on IPv4 packet-info delivery, and the record type
	// the TTL arrives with. Both differ from Linux.
	pktInfoV4RecvOpt = unix.IP_RECVPKTINFO
	ttlCmsgType      = unix.IP_RECVTTL
)

// sourceHintPktInfoV4 builds the in_pktinfo for a send. Darwin takes the
// source address from ipi_addr.
func sourceHintPktInfoV4(addr [4]byte) unix.Inet4Pktinfo {
	return unix.Inet4Pktinfo{Addr: addr}
}

// parseTTL decodes the IP_RECVTTL record, a single byte on Darwin.
func parseTTL(data []byte) (int, bool) {
	if len(data) < 1 {
		return 0, false
	}
	return int(data[0]), true
}

// decodePlatformControl is a no-op on Darwin; there are no record kinds
// beyond the portable set.
func decodePlatformControl(level, typ int32, data []byte, interest MetadataFlags, info *PacketInfo) {
}

// EnableRxTimestamps reports that kernel receive timestamping is not
// available on this platform.
func (s *IO) EnableRxTimestamps(fd int) error {
	return fmt.Errorf("receive timestamps: %w", errors.ErrUnsupported)
}
