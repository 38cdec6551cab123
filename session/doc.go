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

/*
Package session provides the plumbing shared by session variants that
shuttle packets between a local network side and a remote peer.

A session variant implements [PacketProcessor] with its forwarding logic
and embeds or holds a [Base], which takes care of the bookkeeping every
variant needs: one-time arming of the packet-protection channel, packet
counters for both directions, sealing on the way to the peer and
authentication on the way back. [Pump] feeds the network side of a
session from a UDP descriptor using package udpsocket.

The session layer above this package (handshakes, streams, congestion
control) is deliberately absent; these are the pieces such a layer would
stand on.
*/
package session
