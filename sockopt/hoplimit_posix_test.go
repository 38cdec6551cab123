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

package sockopt

import (
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/weftnet/weft-sdk/udpsocket"
)

// Make sure the hop limit set here is the one a udpsocket receiver reads
// back: on loopback there are no hops in between to decrement it.
func TestUDPOptions_HopLimitReachesReceiver(t *testing.T) {
	s := udpsocket.NewIO(nil)
	fd, err := s.Create("udp4", 0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { unix.Close(fd) })
	require.NoError(t, s.Bind(fd, netip.MustParseAddrPort("127.0.0.1:0")))
	require.NoError(t, s.EnableRxHopLimit(fd, "udp4"))
	receiverAddr, err := s.LocalAddrPort(fd)
	require.NoError(t, err)

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	opts, err := NewUDPOptions(conn)
	require.NoError(t, err)
	require.NoError(t, opts.SetHopLimit(7))

	_, err = conn.WriteToUDPAddrPort([]byte("ttl probe"), receiverAddr)
	require.NoError(t, err)

	readable, err := s.WaitUntilReadable(fd, 2*time.Second)
	require.NoError(t, err)
	require.True(t, readable)

	result := udpsocket.ReadResult{
		Payload: make([]byte, 64),
		Control: make([]byte, udpsocket.DefaultControlLen),
	}
	s.ReadPacket(fd, udpsocket.FlagHopLimit, &result)
	require.NoError(t, result.Err)
	require.True(t, result.Info.Has(udpsocket.FlagHopLimit))
	require.Equal(t, 7, result.Info.HopLimit)
}
