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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataFlags_Has(t *testing.T) {
	flags := FlagPeerAddr | FlagHopLimit
	require.True(t, flags.Has(FlagPeerAddr))
	require.True(t, flags.Has(FlagHopLimit))
	require.True(t, flags.Has(FlagPeerAddr|FlagHopLimit))
	require.False(t, flags.Has(FlagSelfIPv4))
	require.False(t, flags.Has(FlagPeerAddr|FlagSelfIPv4))
}

func TestAllMetadata_CoversEveryFlag(t *testing.T) {
	for _, flag := range []MetadataFlags{
		FlagPeerAddr, FlagSelfIPv4, FlagSelfIPv6, FlagHopLimit, FlagRxTimestamp,
	} {
		require.True(t, AllMetadata.Has(flag))
	}
}

func TestPacketInfo_Has(t *testing.T) {
	var info PacketInfo
	require.False(t, info.Has(FlagPeerAddr))
	info.Flags |= FlagPeerAddr
	require.True(t, info.Has(FlagPeerAddr))
}
