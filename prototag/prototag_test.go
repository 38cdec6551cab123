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

package prototag

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMake_PacksLittleEndian(t *testing.T) {
	require.Equal(t, Tag(0x30303251), Make('Q', '2', '0', '0'))
	require.Equal(t, Tag('W'), Make('W', 0, 0, 0))
}

func TestString_Mnemonic(t *testing.T) {
	require.Equal(t, "Q200", Make('Q', '2', '0', '0').String())
	require.Equal(t, "W001", Make('W', '0', '0', '1').String())
	require.Equal(t, "AESG", Make('A', 'E', 'S', 'G').String())
}

// Make sure three-letter tags render with a trailing space instead of a NUL
// or a 0xFF pad byte.
func TestString_TrailingPad(t *testing.T) {
	require.Equal(t, "EXP ", Make('E', 'X', 'P', 0x00).String())
	require.Equal(t, "EXP ", Make('E', 'X', 'P', 0xFF).String())
}

func TestString_Zero(t *testing.T) {
	require.Equal(t, "0", Tag(0).String())
}

// Make sure tags with unprintable bytes fall back to hex in the tag's
// little-endian byte order, so the text matches how the bytes appear on
// the wire.
func TestString_HexFallback(t *testing.T) {
	require.Equal(t, "01020304", Make(1, 2, 3, 4).String())
	// A NUL that is not in the last position is unprintable, not a pad.
	require.Equal(t, "45005000", Make('E', 0x00, 'P', 0x00).String())
}

func TestParse_Mnemonic(t *testing.T) {
	require.Equal(t, Make('W', '0', '0', '1'), Parse("W001"))
	require.Equal(t, Make('E', 'X', 'P', 0x00), Parse("EXP"))
	require.Equal(t, Make('E', 'X', 'P', 0x00), Parse("  EXP "))
}

func TestParse_Hex(t *testing.T) {
	require.Equal(t, Make(1, 2, 3, 4), Parse("01020304"))
	// 8 characters that are not valid hex parse as raw bytes; only the
	// first four survive the 32-bit accumulation.
	require.Equal(t, Make('T', 'A', 'G', 'S'), Parse("TAGSTAGS"))
}

func TestParse_Empty(t *testing.T) {
	require.Equal(t, Tag(0), Parse(""))
	require.Equal(t, Tag(0), Parse("   "))
}

// Make sure "0" is the byte '0', not the zero tag. Tag(0).String() is the
// one rendering that does not parse back.
func TestParse_ZeroStringIsNotZeroTag(t *testing.T) {
	require.Equal(t, Tag('0'), Parse("0"))
}

func TestParse_RoundTripsString(t *testing.T) {
	tags := []Tag{
		Make('Q', '2', '0', '0'),
		Make('W', '0', '0', '1'),
		Make('E', 'X', 'P', 0x00),
		Make(1, 2, 3, 4),
		Make(0xDE, 0xAD, 0xBE, 0xEF),
	}
	for _, tag := range tags {
		require.Equal(t, tag, Parse(tag.String()), "tag %q", tag.String())
	}

	// The 0xFF pad renders the same as the 0x00 pad, so parsing maps it
	// to the 0x00 form. This is the one lossy rendering besides spaces.
	require.Equal(t, Make('E', 'X', 'P', 0x00), Parse(Make('E', 'X', 'P', 0xFF).String()))

	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		// All bytes printable and not space: renders as a four-character
		// mnemonic that survives trimming.
		var b [4]byte
		for j := range b {
			b[j] = byte(0x21 + rnd.Intn(0x7E-0x21+1))
		}
		tag := Make(b[0], b[1], b[2], b[3])
		require.Equal(t, tag, Parse(tag.String()), "tag %q", tag.String())

		// An unprintable first byte forces the hex rendering.
		tag = Make(byte(rnd.Intn(0x20)), b[1], b[2], b[3])
		require.Equal(t, tag, Parse(tag.String()), "tag %q", tag.String())
	}
}

func TestParseList_Order(t *testing.T) {
	list := ParseList("W002,W001,AESG")
	require.Equal(t, List{Make('W', '0', '0', '2'), Make('W', '0', '0', '1'), Make('A', 'E', 'S', 'G')}, list)
}

func TestParseList_KeepsDuplicates(t *testing.T) {
	list := ParseList("W001,W001")
	require.Equal(t, List{Make('W', '0', '0', '1'), Make('W', '0', '0', '1')}, list)
}

func TestParseList_Empty(t *testing.T) {
	require.Empty(t, ParseList(""))
	require.Empty(t, ParseList("  \t "))
}

// Make sure an empty element between commas yields the zero tag rather
// than being dropped, so positions in the list stay meaningful.
func TestParseList_EmptyElement(t *testing.T) {
	list := ParseList("A,,B")
	require.Equal(t, List{Tag('A'), Tag(0), Tag('B')}, list)
}

func TestParseList_TrimsElements(t *testing.T) {
	list := ParseList(" W001 , AESG ")
	require.Equal(t, List{Make('W', '0', '0', '1'), Make('A', 'E', 'S', 'G')}, list)
}

func TestList_String(t *testing.T) {
	list := List{Make('W', '0', '0', '1'), Make('A', 'E', 'S', 'G')}
	require.Equal(t, "W001,AESG", list.String())
	require.Equal(t, "", List{}.String())
}

func TestList_Contains(t *testing.T) {
	list := ParseList("W001,AESG,W001")
	require.True(t, list.Contains(Make('W', '0', '0', '1')))
	require.True(t, list.Contains(Make('A', 'E', 'S', 'G')))
	require.False(t, list.Contains(Make('W', '0', '0', '2')))
	require.False(t, List{}.Contains(Make('W', '0', '0', '1')))
}

// Make sure negotiation honors the caller's preference order, not the
// peer's: with ours = [A B C] and theirs = [C B], B wins because it comes
// before C in ours, even though the peer prefers C.
func TestFindMutual_PrefersOurs(t *testing.T) {
	a, b, c := Tag('A'), Tag('B'), Tag('C')

	mutual, theirIndex, ok := FindMutual(List{a, b, c}, List{c, b})
	require.True(t, ok)
	require.Equal(t, b, mutual)
	require.Equal(t, 1, theirIndex)

	// Swapping the roles flips the winner.
	mutual, theirIndex, ok = FindMutual(List{c, b}, List{a, b, c})
	require.True(t, ok)
	require.Equal(t, c, mutual)
	require.Equal(t, 2, theirIndex)
}

func TestFindMutual_NoOverlap(t *testing.T) {
	_, _, ok := FindMutual(ParseList("W001"), ParseList("W002"))
	require.False(t, ok)

	_, _, ok = FindMutual(List{}, ParseList("W001"))
	require.False(t, ok)

	_, _, ok = FindMutual(ParseList("W001"), List{})
	require.False(t, ok)
}
