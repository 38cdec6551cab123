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

// Package sockopt manipulates socket options on UDP connections created
// with the net package, complementing the descriptor-level control in
// package udpsocket. The hop limit set here is what a receiver observes
// under udpsocket.FlagHopLimit, minus the hops in between.
package sockopt

import (
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// HasHopLimit enables manipulation of the hop limit option.
type HasHopLimit interface {
	// HopLimit returns the hop limit field value for outgoing packets.
	HopLimit() (int, error)
	// SetHopLimit sets the hop limit field value for future outgoing packets.
	SetHopLimit(hoplim int) error
}

// hopLimitOption implements HasHopLimit on top of the TTL accessors of
// golang.org/x/net, picked by address family.
type hopLimitOption struct {
	hopLimit    func() (int, error)
	setHopLimit func(hoplim int) error
}

var _ HasHopLimit = (*hopLimitOption)(nil)

func (o *hopLimitOption) HopLimit() (int, error) {
	return o.hopLimit()
}

func (o *hopLimitOption) SetHopLimit(hoplim int) error {
	return o.setHopLimit(hoplim)
}

// UDPOptions represents options for UDP connections.
type UDPOptions interface {
	HasHopLimit
}

type udpOptions struct {
	hopLimitOption
}

var _ UDPOptions = (*udpOptions)(nil)

// newHopLimit creates a hopLimitOption for a [net.Conn], wiring the IPv4
// TTL or the IPv6 hop limit depending on the connection's local address.
func newHopLimit(conn net.Conn) (*hopLimitOption, error) {
	addr, err := netip.ParseAddrPort(conn.LocalAddr().String())
	if err != nil {
		return nil, err
	}
	opt := &hopLimitOption{}
	switch {
	case addr.Addr().Is4():
		ipConn := ipv4.NewConn(conn)
		opt.hopLimit = ipConn.TTL
		opt.setHopLimit = ipConn.SetTTL
	case addr.Addr().Is6():
		ipConn := ipv6.NewConn(conn)
		opt.hopLimit = ipConn.HopLimit
		opt.setHopLimit = ipConn.SetHopLimit
	default:
		return nil, fmt.Errorf("address is not IPv4 or IPv6 (%v)", addr.Addr())
	}
	return opt, nil
}

// NewUDPOptions creates a [UDPOptions] for the given [net.UDPConn].
func NewUDPOptions(conn *net.UDPConn) (UDPOptions, error) {
	hopLimit, err := newHopLimit(conn)
	if err != nil {
		return nil, err
	}
	return &udpOptions{hopLimitOption: *hopLimit}, nil
}
