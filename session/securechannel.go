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
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrShortPacket reports a peer packet too short to carry a nonce and tag.
var ErrShortPacket = errors.New("short packet")

// channelInfo separates the packet-protection key from any other key
// derived from the same secret.
const channelInfo = "weft session packet protection"

// SecureChannel seals and opens the packets a session exchanges with its
// peer. Each sealed packet carries its own random nonce, so packets can
// be lost or reordered freely. Both ends derive the same key from the
// shared secret and salt.
type SecureChannel struct {
	aead cipher.AEAD
}

// NewSecureChannel derives the packet-protection key from the shared
// secret and salt (HKDF-SHA256) and arms an XChaCha20-Poly1305 AEAD with
// it.
func NewSecureChannel(secret, salt []byte) (*SecureChannel, error) {
	if len(secret) == 0 {
		return nil, errors.New("shared secret must not be empty")
	}
	kdf := hkdf.New(sha256.New, secret, salt, []byte(channelInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("deriving packet key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating AEAD: %w", err)
	}
	return &SecureChannel{aead: aead}, nil
}

// Overhead is the number of bytes Seal adds to a packet: the nonce in
// front and the authentication tag behind.
func (c *SecureChannel) Overhead() int {
	return chacha20poly1305.NonceSizeX + c.aead.Overhead()
}

// Seal encrypts pkt into dst and returns the slice holding the sealed
// packet. dst must be big enough to hold len(pkt) plus [SecureChannel.Overhead],
// or io.ErrShortBuffer is returned.
func (c *SecureChannel) Seal(dst, pkt []byte) ([]byte, error) {
	if len(dst) < len(pkt)+c.Overhead() {
		return nil, io.ErrShortBuffer
	}
	nonce := dst[:chacha20poly1305.NonceSizeX]
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, pkt, nil), nil
}

// Open authenticates and decrypts a sealed packet and returns the
// plaintext. If dst is present it receives the plaintext and must have
// enough capacity; if dst is nil, decryption happens in place, consuming
// pkt.
func (c *SecureChannel) Open(dst, pkt []byte) ([]byte, error) {
	if len(pkt) < c.Overhead() {
		return nil, ErrShortPacket
	}
	nonce := pkt[:chacha20poly1305.NonceSizeX]
	msg := pkt[chacha20poly1305.NonceSizeX:]
	if dst == nil {
		dst = msg
	}
	return c.aead.Open(dst[:0], nonce, msg, nil)
}
