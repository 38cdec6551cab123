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

//go:build linux || darwin

package udpsocket

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

// MinControlLen is the smallest Control buffer that can hold both
// self-address records at once. The value is platform dependent because
// control records carry platform headers and alignment padding.
var MinControlLen = unix.CmsgSpace(unix.SizeofInet4Pktinfo) + unix.CmsgSpace(unix.SizeofInet6Pktinfo)

// writeControlCap is the stack staging capacity for the single
// source-address hint a write can attach. Large enough for either pktinfo
// record on every supported platform; appendCmsg still checks.
const writeControlCap = 64

// appendCmsg encodes one control record (header, then data, padding
// zeroed) at the start of dst and returns the record's full aligned size.
// The capacity check happens before anything is written, so a failed
// append leaves no partial record behind.
func appendCmsg(dst []byte, level, typ int32, data any, dataLen int) (int, error) {
	space := unix.CmsgSpace(dataLen)
	if space > len(dst) {
		return 0, fmt.Errorf("%v-byte control record needs %v bytes, have %v: %w",
			dataLen, space, len(dst), ErrControlSpace)
	}
	clear(dst[:space])
	hdr := unix.Cmsghdr{Level: level, Type: typ}
	hdr.SetLen(unix.CmsgLen(dataLen))
	if _, err := binary.Encode(dst, binary.NativeEndian, &hdr); err != nil {
		return 0, fmt.Errorf("encoding cmsg header: %w", err)
	}
	if _, err := binary.Encode(dst[unix.CmsgLen(0):], binary.NativeEndian, data); err != nil {
		return 0, fmt.Errorf("encoding cmsg data: %w", err)
	}
	return space, nil
}

// appendPktInfoV4 encodes an IP_PKTINFO record carrying an IPv4
// source-address hint.
func appendPktInfoV4(dst []byte, addr netip.Addr) (int, error) {
	if !addr.Is4() {
		return 0, fmt.Errorf("source hint %v is not an IPv4 address", addr)
	}
	info := sourceHintPktInfoV4(addr.As4())
	return appendCmsg(dst, unix.IPPROTO_IP, unix.IP_PKTINFO, &info, unix.SizeofInet4Pktinfo)
}

// appendPktInfoV6 encodes an IPV6_PKTINFO record carrying an IPv6
// source-address hint.
func appendPktInfoV6(dst []byte, addr netip.Addr) (int, error) {
	if !addr.Is6() {
		return 0, fmt.Errorf("source hint %v is not an IPv6 address", addr)
	}
	info := unix.Inet6Pktinfo{Addr: addr.As16()}
	return appendCmsg(dst, unix.IPPROTO_IPV6, unix.IPV6_PKTINFO, &info, unix.SizeofInet6Pktinfo)
}

// decodeControl walks the received control records and fills in the
// PacketInfo fields selected by the interest mask. Records the caller did
// not ask for, and records of kinds this package does not know, are
// skipped, so the socket can carry unrelated options at the same time.
func decodeControl(control []byte, interest MetadataFlags, info *PacketInfo) error {
	msgs, err := unix.ParseSocketControlMessage(control)
	if err != nil {
		return fmt.Errorf("parsing control messages: %w", err)
	}
	for _, m := range msgs {
		level, typ := m.Header.Level, m.Header.Type
		switch {
		case level == unix.IPPROTO_IP && typ == unix.IP_PKTINFO:
			if !interest.Has(FlagSelfIPv4) || len(m.Data) < unix.SizeofInet4Pktinfo {
				continue
			}
			var pi unix.Inet4Pktinfo
			if _, err := binary.Decode(m.Data, binary.NativeEndian, &pi); err != nil {
				continue
			}
			info.SelfIPv4 = netip.AddrFrom4(pi.Addr)
			info.Flags |= FlagSelfIPv4
		case level == unix.IPPROTO_IPV6 && typ == unix.IPV6_PKTINFO:
			if !interest.Has(FlagSelfIPv6) || len(m.Data) < unix.SizeofInet6Pktinfo {
				continue
			}
			var pi unix.Inet6Pktinfo
			if _, err := binary.Decode(m.Data, binary.NativeEndian, &pi); err != nil {
				continue
			}
			info.SelfIPv6 = netip.AddrFrom16(pi.Addr)
			info.Flags |= FlagSelfIPv6
		case level == unix.IPPROTO_IP && typ == ttlCmsgType:
			if !interest.Has(FlagHopLimit) {
				continue
			}
			if ttl, ok := parseTTL(m.Data); ok {
				info.HopLimit = ttl
				info.Flags |= FlagHopLimit
			}
		case level == unix.IPPROTO_IPV6 && typ == unix.IPV6_HOPLIMIT:
			if !interest.Has(FlagHopLimit) || len(m.Data) < 4 {
				continue
			}
			info.HopLimit = int(int32(binary.NativeEndian.Uint32(m.Data)))
			info.Flags |= FlagHopLimit
		default:
			decodePlatformControl(level, typ, m.Data, interest, info)
		}
	}
	return nil
}
