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

//go:build !linux && !darwin

package udpsocket

import (
	"errors"
	"fmt"
	"net/netip"
	"time"
)

// MinControlLen is zero here; no platform codec is available.
var MinControlLen = 0

func errNotImplemented() error {
	return fmt.Errorf("%w: UDP packet metadata I/O is not implemented on this platform", errors.ErrUnsupported)
}

func (s *IO) Configure(fd int, network string, recvBufSize, sendBufSize int) error {
	return errNotImplemented()
}

func (s *IO) Create(network string, recvBufSize, sendBufSize int) (int, error) {
	return -1, errNotImplemented()
}

func (s *IO) Bind(fd int, local netip.AddrPort) error {
	return errNotImplemented()
}

func (s *IO) Close(fd int) error {
	return errNotImplemented()
}

func (s *IO) LocalAddrPort(fd int) (netip.AddrPort, error) {
	return netip.AddrPort{}, errNotImplemented()
}

func (s *IO) EnableRxHopLimit(fd int, network string) error {
	return errNotImplemented()
}

func (s *IO) EnableRxTimestamps(fd int) error {
	return errNotImplemented()
}

func (s *IO) ReadPacket(fd int, interest MetadataFlags, result *ReadResult) {
	result.N = 0
	result.Info = PacketInfo{}
	result.Err = errNotImplemented()
}

func (s *IO) ReadBatch(fd int, interest MetadataFlags, results []ReadResult) int {
	if len(results) > 0 {
		s.ReadPacket(fd, interest, &results[0])
	}
	return 0
}

func (s *IO) WritePacket(fd int, payload []byte, info *PacketInfo) (int, error) {
	return 0, errNotImplemented()
}

func (s *IO) WaitUntilReadable(fd int, timeout time.Duration) (bool, error) {
	return false, errNotImplemented()
}
