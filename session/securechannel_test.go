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

package session

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecureChannel_RoundTrip(t *testing.T) {
	sender, err := NewSecureChannel([]byte("shared secret"), []byte("salt"))
	require.NoError(t, err)
	receiver, err := NewSecureChannel([]byte("shared secret"), []byte("salt"))
	require.NoError(t, err)

	pkt := []byte("a packet worth protecting")
	sealed, err := sender.Seal(make([]byte, 2048), pkt)
	require.NoError(t, err)
	require.Len(t, sealed, len(pkt)+sender.Overhead())
	require.NotContains(t, string(sealed), string(pkt))

	opened, err := receiver.Open(nil, sealed)
	require.NoError(t, err)
	require.Equal(t, pkt, opened)
}

func TestSecureChannel_EmptySecret(t *testing.T) {
	_, err := NewSecureChannel(nil, []byte("salt"))
	require.Error(t, err)
}

// Make sure every sealed packet is unique even for identical plaintext,
// since datagrams may be captured and compared.
func TestSecureChannel_SealsDiffer(t *testing.T) {
	c, err := NewSecureChannel([]byte("shared secret"), nil)
	require.NoError(t, err)

	first, err := c.Seal(make([]byte, 256), []byte("same"))
	require.NoError(t, err)
	second, err := c.Seal(make([]byte, 256), []byte("same"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// Both still open.
	_, err = c.Open(nil, first)
	require.NoError(t, err)
	_, err = c.Open(nil, second)
	require.NoError(t, err)
}

func TestSecureChannel_RejectsTampering(t *testing.T) {
	c, err := NewSecureChannel([]byte("shared secret"), []byte("salt"))
	require.NoError(t, err)

	sealed, err := c.Seal(make([]byte, 256), []byte("original"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0x01

	_, err = c.Open(nil, sealed)
	require.Error(t, err)
}

func TestSecureChannel_RejectsWrongKey(t *testing.T) {
	sender, err := NewSecureChannel([]byte("secret A"), []byte("salt"))
	require.NoError(t, err)
	receiver, err := NewSecureChannel([]byte("secret B"), []byte("salt"))
	require.NoError(t, err)

	sealed, err := sender.Seal(make([]byte, 256), []byte("for A only"))
	require.NoError(t, err)
	_, err = receiver.Open(nil, sealed)
	require.Error(t, err)
}

// Make sure the salt matters too: same secret, different salt, no
// interoperability.
func TestSecureChannel_RejectsWrongSalt(t *testing.T) {
	sender, err := NewSecureChannel([]byte("shared secret"), []byte("salt A"))
	require.NoError(t, err)
	receiver, err := NewSecureChannel([]byte("shared secret"), []byte("salt B"))
	require.NoError(t, err)

	sealed, err := sender.Seal(make([]byte, 256), []byte("hello"))
	require.NoError(t, err)
	_, err = receiver.Open(nil, sealed)
	require.Error(t, err)
}

func TestSecureChannel_ShortPacket(t *testing.T) {
	c, err := NewSecureChannel([]byte("shared secret"), nil)
	require.NoError(t, err)

	_, err = c.Open(nil, []byte("tiny"))
	require.ErrorIs(t, err, ErrShortPacket)
}

func TestSecureChannel_ShortDst(t *testing.T) {
	c, err := NewSecureChannel([]byte("shared secret"), nil)
	require.NoError(t, err)

	pkt := []byte("does not fit")
	_, err = c.Seal(make([]byte, len(pkt)), pkt)
	require.ErrorIs(t, err, io.ErrShortBuffer)
}

// Make sure Open into a caller buffer leaves the sealed packet intact,
// for callers that need to keep the ciphertext around.
func TestSecureChannel_OpenIntoBuffer(t *testing.T) {
	c, err := NewSecureChannel([]byte("shared secret"), nil)
	require.NoError(t, err)

	pkt := []byte("keep the ciphertext")
	sealed, err := c.Seal(make([]byte, 256), pkt)
	require.NoError(t, err)
	sealedCopy := append([]byte(nil), sealed...)

	opened, err := c.Open(make([]byte, 256), sealed)
	require.NoError(t, err)
	require.Equal(t, pkt, opened)
	require.Equal(t, sealedCopy, sealed)
}
