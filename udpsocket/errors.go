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
	"errors"
)

// Portable analogs of the error conditions of non-blocking packet I/O.
//
// Errors returned from this package can be tested against these errors using [errors.Is].
var (
	// ErrWouldBlock is the error reported when a non-blocking read finds no
	// packet queued, or a non-blocking write finds no room in the send
	// buffer. It is transient: wait with [IO.WaitUntilReadable] (or retry
	// the write) and try again. Test with errors.Is(err, ErrWouldBlock).
	ErrWouldBlock = errors.New("socket operation would block")

	// ErrControlSpace is the error reported when an ancillary-data buffer
	// is too small: on write, when the requested self-address hint does not
	// fit the control buffer; on read, when the kernel truncated the
	// ancillary data because the supplied Control slice was undersized.
	// Size read buffers with at least [MinControlLen] bytes.
	ErrControlSpace = errors.New("control buffer too small for packet metadata")

	// ErrNoPeerAddr is the error reported by [IO.WritePacket] when the
	// packet info does not carry a peer address. No packet is sent.
	ErrNoPeerAddr = errors.New("packet info carries no peer address")
)
