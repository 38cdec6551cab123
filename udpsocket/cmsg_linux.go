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

//go:build linux

package udpsocket

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// Option that turns on IPv4 packet-info delivery, and the record type
	// the TTL arrives with. Both differ from the BSDs.
	pktInfoV4RecvOpt = unix.IP_PKTINFO
	ttlCmsgType      = unix.IP_TTL
)

// sourceHintPktInfoV4 builds the in_pktinfo for a send. Linux takes the
// source address from ipi_spec_dst.
func sourceHintPktInfoV4(addr [4]byte) unix.Inet4Pktinfo {
	return unix.Inet4Pktinfo{Spec_dst: addr}
}

// parseTTL decodes the IP_TTL record, a native-endian int on Linux.
func parseTTL(data []byte) (int, bool) {
	if len(data) < 4 {
		return 0, false
	}
	return int(int32(binary.NativeEndian.Uint32(data))), true
}

// decodePlatformControl handles the record kinds only Linux delivers:
// SCM_TIMESTAMPNS receive timestamps.
func decodePlatformControl(level, typ int32, data []byte, interest MetadataFlags, info *PacketInfo) {
	if level != unix.SOL_SOCKET || typ != unix.SCM_TIMESTAMPNS {
		return
	}
	if !interest.Has(FlagRxTimestamp) {
		return
	}
	var ts unix.Timespec
	if _, err := binary.Decode(data, binary.NativeEndian, &ts); err != nil {
		return
	}
	info.RxTime = time.Unix(ts.Unix())
	info.Flags |= FlagRxTimestamp
}

// EnableRxTimestamps turns on kernel receive timestamping for the
// descriptor. Timestamps then arrive with reads that request
// [FlagRxTimestamp].
func (s *IO) EnableRxTimestamps(fd int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TIMESTAMPNS, 1); err != nil {
		return fmt.Errorf("enabling receive timestamps: %w", err)
	}
	return nil
}
