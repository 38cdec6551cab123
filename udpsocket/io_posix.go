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
	"errors"
	"fmt"
	"net/netip"
	"time"

	"golang.org/x/sys/unix"
)

// ancillaryFlags are the metadata kinds that travel in control records,
// as opposed to the peer address, which recvmsg reports on its own.
const ancillaryFlags = FlagSelfIPv4 | FlagSelfIPv6 | FlagHopLimit | FlagRxTimestamp

// Configure prepares an existing UDP descriptor for use with this
// package: applies the buffer sizes (zero keeps the OS default) and turns
// on packet-info delivery for the descriptor's address family. network
// must be "udp4" or "udp6". The first failing step aborts the rest.
func (s *IO) Configure(fd int, network string, recvBufSize, sendBufSize int) error {
	if recvBufSize > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, recvBufSize); err != nil {
			return fmt.Errorf("setting receive buffer to %v: %w", recvBufSize, err)
		}
	}
	if sendBufSize > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, sendBufSize); err != nil {
			return fmt.Errorf("setting send buffer to %v: %w", sendBufSize, err)
		}
	}
	switch network {
	case "udp4":
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, pktInfoV4RecvOpt, 1); err != nil {
			return fmt.Errorf("enabling IPv4 packet info: %w", err)
		}
	case "udp6":
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_RECVPKTINFO, 1); err != nil {
			return fmt.Errorf("enabling IPv6 packet info: %w", err)
		}
	default:
		return fmt.Errorf("network must be udp4 or udp6, got %q", network)
	}
	return nil
}

// Create makes a non-blocking UDP socket and runs [IO.Configure] on it.
// The caller owns the returned descriptor and must close it with
// [IO.Close]. Returns -1 on failure.
func (s *IO) Create(network string, recvBufSize, sendBufSize int) (int, error) {
	var family int
	switch network {
	case "udp4":
		family = unix.AF_INET
	case "udp6":
		family = unix.AF_INET6
	default:
		return -1, fmt.Errorf("network must be udp4 or udp6, got %q", network)
	}
	fd, err := unix.Socket(family, unix.SOCK_DGRAM, 0)
	if err != nil {
		return -1, fmt.Errorf("creating UDP socket: %w", err)
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("setting non-blocking mode: %w", err)
	}
	if err := s.Configure(fd, network, recvBufSize, sendBufSize); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// Bind assigns the local address. Use a zero port to let the OS pick one,
// then read it back with [IO.LocalAddrPort].
func (s *IO) Bind(fd int, local netip.AddrPort) error {
	sa, err := addrPortToSockaddr(local)
	if err != nil {
		return err
	}
	if err := unix.Bind(fd, sa); err != nil {
		return fmt.Errorf("binding to %v: %w", local, err)
	}
	return nil
}

// Close releases a descriptor obtained from [IO.Create]. Descriptors are
// caller-owned; nothing else in this package closes them.
func (s *IO) Close(fd int) error {
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// LocalAddrPort returns the descriptor's bound address.
func (s *IO) LocalAddrPort(fd int) (netip.AddrPort, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("getsockname: %w", err)
	}
	local, ok := sockaddrToAddrPort(sa)
	if !ok {
		return netip.AddrPort{}, errors.New("descriptor is not an IP socket")
	}
	return local, nil
}

// EnableRxHopLimit turns on delivery of the received TTL (udp4) or hop
// limit (udp6), which reads then surface under [FlagHopLimit].
func (s *IO) EnableRxHopLimit(fd int, network string) error {
	switch network {
	case "udp4":
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_RECVTTL, 1); err != nil {
			return fmt.Errorf("enabling TTL delivery: %w", err)
		}
	case "udp6":
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_RECVHOPLIMIT, 1); err != nil {
			return fmt.Errorf("enabling hop limit delivery: %w", err)
		}
	default:
		return fmt.Errorf("network must be udp4 or udp6, got %q", network)
	}
	return nil
}

// ReadPacket receives one datagram into result.Payload and decodes the
// metadata selected by interest into result.Info. The outcome lands in
// result rather than a return value so a slot can be reused across calls
// without garbage: result.Err is nil on delivery, [ErrWouldBlock] when
// nothing is queued, [ErrControlSpace] when ancillary data was requested
// but result.Control was too small for what the kernel attached, or the
// OS failure otherwise. OS failures other than would-block are logged,
// within this IO's log budget.
func (s *IO) ReadPacket(fd int, interest MetadataFlags, result *ReadResult) {
	result.N = 0
	result.Info = PacketInfo{}
	result.Err = nil

	var (
		n, oobn, recvflags int
		from               unix.Sockaddr
		err                error
	)
	for {
		n, oobn, recvflags, from, err = unix.Recvmsg(fd, result.Payload, result.Control, 0)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			result.Err = ErrWouldBlock
			return
		}
		result.Err = fmt.Errorf("recvmsg: %w", err)
		s.logReadError(fd, result.Err)
		return
	}
	if recvflags&unix.MSG_CTRUNC != 0 && interest&ancillaryFlags != 0 {
		result.Err = fmt.Errorf("kernel truncated ancillary data (%v-byte buffer supplied): %w",
			len(result.Control), ErrControlSpace)
		return
	}
	if interest.Has(FlagPeerAddr) {
		// A connected socket reports no source address; the flag stays
		// clear then.
		if peer, ok := sockaddrToAddrPort(from); ok {
			result.Info.Peer = peer
			result.Info.Flags |= FlagPeerAddr
		}
	}
	if oobn > 0 && interest&ancillaryFlags != 0 {
		if err := decodeControl(result.Control[:oobn], interest, &result.Info); err != nil {
			result.Err = err
			return
		}
	}
	result.N = n
}

// ReadBatch receives successive datagrams into results until a slot fails
// (would-block included) or every slot is filled. Returns the number of
// delivered datagrams; when it is less than len(results), results[n].Err
// says why the batch stopped. Slots past the failed one are untouched.
// The amount of work per call is bounded by len(results).
func (s *IO) ReadBatch(fd int, interest MetadataFlags, results []ReadResult) int {
	for i := range results {
		s.ReadPacket(fd, interest, &results[i])
		if results[i].Err != nil {
			return i
		}
	}
	return len(results)
}

// WritePacket sends payload as one datagram to info.Peer, which must be
// populated (flag set), or the call fails with [ErrNoPeerAddr] before
// reaching the OS. A populated self address is passed to the kernel as
// the source-address hint; if both families are set, IPv4 wins. Returns
// the byte count on success, [ErrWouldBlock] when the send buffer is
// full, or the OS failure with its errno intact.
func (s *IO) WritePacket(fd int, payload []byte, info *PacketInfo) (int, error) {
	if info == nil || !info.Has(FlagPeerAddr) {
		return 0, fmt.Errorf("writing %v-byte packet: %w", len(payload), ErrNoPeerAddr)
	}
	to, err := addrPortToSockaddr(info.Peer)
	if err != nil {
		return 0, fmt.Errorf("peer address: %w", err)
	}

	var control [writeControlCap]byte
	ctrlLen := 0
	switch {
	case info.Has(FlagSelfIPv4):
		ctrlLen, err = appendPktInfoV4(control[:], info.SelfIPv4)
	case info.Has(FlagSelfIPv6):
		ctrlLen, err = appendPktInfoV6(control[:], info.SelfIPv6)
	}
	if err != nil {
		return 0, err
	}
	var oob []byte
	if ctrlLen > 0 {
		oob = control[:ctrlLen]
	}

	for {
		n, err := unix.SendmsgN(fd, payload, oob, to, 0)
		switch {
		case err == nil:
			return n, nil
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return 0, ErrWouldBlock
		default:
			return 0, fmt.Errorf("sendmsg: %w", err)
		}
	}
}

// WaitUntilReadable blocks until the descriptor has a datagram queued or
// the timeout elapses, and reports which happened. This is the package's
// only blocking call. A zero or negative timeout checks readiness without
// blocking. Interrupted waits resume with the remaining time.
func (s *IO) WaitUntilReadable(fd int, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		ms := 0
		if timeout > 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return false, nil
			}
			ms = int(remaining.Milliseconds())
			if ms == 0 {
				ms = 1
			}
		}
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			if timeout > 0 && time.Now().Before(deadline) {
				continue
			}
			return false, nil
		}
		if fds[0].Revents&unix.POLLNVAL != 0 {
			return false, fmt.Errorf("poll: %w", unix.EBADF)
		}
		// POLLERR and POLLHUP count as readable: the next read surfaces
		// whatever the socket has to say.
		return true, nil
	}
}

func (s *IO) logReadError(fd int, err error) {
	var errno unix.Errno
	errors.As(err, &errno)
	class := int(errno)
	if !s.readLogs.Allow(class, time.Now()) {
		return
	}
	attrs := []any{"fd", fd, "err", err}
	if suppressed := s.readLogs.Suppressed(class); suppressed > 0 {
		attrs = append(attrs, "suppressed", suppressed)
	}
	s.logger.Warn("UDP read failed", attrs...)
}
