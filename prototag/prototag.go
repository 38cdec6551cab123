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
Package prototag implements the compact protocol tags used during handshake
negotiation. A [Tag] packs four bytes into a 32-bit value so that version and
option identifiers can be compared with a single integer comparison, while
still reading as a short mnemonic ("W001", "AESG") in logs and configuration.

Tags are exchanged in preference-ordered lists. [FindMutual] selects the
first tag both endpoints support, honoring the caller's preference order
rather than the peer's.
*/
package prototag

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// A Tag is a four-byte handshake identifier packed into a uint32. The first
// byte of the mnemonic occupies the least significant byte, so a Tag has the
// same in-memory representation as its four characters on a little-endian
// machine.
type Tag uint32

// A List is a slice of tags in preference order, most preferred first.
type List []Tag

// Make packs four bytes into a [Tag]. The first byte lands in the least
// significant position.
func Make(a, b, c, d byte) Tag {
	return Tag(a) | Tag(b)<<8 | Tag(c)<<16 | Tag(d)<<24
}

// String renders the tag for logs and error messages. The zero tag renders
// as "0". A trailing zero or 0xFF byte is shown as a space, so three-letter
// mnemonics stay readable. If any byte is not printable ASCII, the tag is
// rendered as eight hex digits of its little-endian byte order instead,
// which [Parse] accepts back.
func (t Tag) String() string {
	if t == 0 {
		return "0"
	}
	var chars [4]byte
	v := t
	ascii := true
	for i := range chars {
		chars[i] = byte(v)
		if i == len(chars)-1 && (chars[i] == 0x00 || chars[i] == 0xFF) {
			chars[i] = ' '
		}
		if chars[i] < 0x20 || chars[i] > 0x7E {
			ascii = false
			break
		}
		v >>= 8
	}
	if ascii {
		return string(chars[:])
	}
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], uint32(t))
	return hex.EncodeToString(le[:])
}

// Parse converts text back into a [Tag]. Surrounding whitespace is ignored.
// An 8-character input is treated as the hex form produced by [Tag.String];
// anything else is taken as raw mnemonic bytes, with the first character
// in the least significant position. Inputs longer than four bytes keep
// only the first four. Parse never fails; unparseable input yields whatever
// tag its bytes accumulate to.
func Parse(text string) Tag {
	text = strings.TrimSpace(text)
	b := []byte(text)
	if len(b) == 8 {
		if decoded, err := hex.DecodeString(text); err == nil {
			b = decoded
		}
	}
	var t Tag
	for i := len(b) - 1; i >= 0; i-- {
		t <<= 8
		t |= Tag(b[i])
	}
	return t
}

// ParseList converts a comma-separated list of tags into a [List],
// preserving order and duplicates. Whitespace around the whole input is
// trimmed first; an empty or all-whitespace input yields an empty list.
// Empty elements between commas parse as the zero tag.
func ParseList(text string) List {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return List{}
	}
	parts := strings.Split(text, ",")
	tags := make(List, 0, len(parts))
	for _, part := range parts {
		tags = append(tags, Parse(part))
	}
	return tags
}

// String renders the list as comma-separated tags, in order.
func (l List) String() string {
	var sb strings.Builder
	for i, t := range l {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Contains reports whether tag appears anywhere in the list.
func (l List) Contains(tag Tag) bool {
	for _, t := range l {
		if t == tag {
			return true
		}
	}
	return false
}

// FindMutual returns the first tag from ours that also appears in theirs,
// along with the tag's index in theirs. Scanning order follows ours, so the
// local preference order decides which mutual tag wins. The returned index
// tells the caller how far down the peer's list the choice was, which some
// handshakes report back. Returns ok == false when the lists share no tag.
func FindMutual(ours, theirs List) (mutual Tag, theirIndex int, ok bool) {
	for _, t := range ours {
		for j, their := range theirs {
			if t == their {
				return t, j, true
			}
		}
	}
	return 0, 0, false
}
