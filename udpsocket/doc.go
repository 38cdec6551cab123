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

/*
Package udpsocket reads and writes UDP datagrams together with the
per-packet network metadata that the OS exposes through ancillary data:
the address the packet was sent to (useful on multihomed hosts), the peer
address, the remaining TTL or hop limit, and on Linux a kernel receive
timestamp.

# Descriptors

The package operates on caller-owned file descriptors and keeps no
per-socket state. [IO.Configure] prepares an existing descriptor (buffer
sizes, ancillary delivery); [IO.Create] is a convenience that creates a
non-blocking UDP socket and configures it. Either way the caller closes
the descriptor. One [IO] can serve any number of descriptors, but each
descriptor is meant to be driven by a single event loop.

# Reading and writing

All operations are non-blocking. A read or write on a socket with nothing
to deliver (or no room to send) fails with [ErrWouldBlock]; callers park
in [IO.WaitUntilReadable], the package's only blocking call, and then
drain the socket with [IO.ReadPacket] or [IO.ReadBatch]. Payload and
ancillary buffers are supplied by the caller and are never retained.

Which metadata gets decoded is controlled by a [MetadataFlags] interest
mask; a [PacketInfo] field is only meaningful when the corresponding flag
is set in PacketInfo.Flags. On the write side the same struct carries the
required peer address and the optional self-address hint that tells the
kernel which source address to use.

Ancillary decoding is platform specific. Linux and macOS are supported;
on other platforms every operation fails with [errors.ErrUnsupported].
*/
package udpsocket
