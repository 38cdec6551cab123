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

// tagtool inspects protocol tag lists in their text form. It prints each
// tag's canonical text and numeric value, and with -peer it negotiates a
// mutual tag between the two lists, preferring the order of <tags>.
//
// Examples:
//
//	tagtool "WFT1,WFT0,01020304"
//	tagtool -peer "WFT0,WFT1" "WFT1,WFT0"
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"github.com/weftnet/weft-sdk/prototag"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags...] <tags>\n", path.Base(os.Args[0]))
		flag.PrintDefaults()
	}
}

func main() {
	verboseFlag := flag.Bool("v", false, "Enable debug output")
	peerFlag := flag.String("peer", "", "Peer tag list to negotiate against")

	flag.Parse()

	logLevel := slog.LevelInfo
	if *verboseFlag {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(
		os.Stderr,
		&tint.Options{NoColor: !term.IsTerminal(int(os.Stderr.Fd())), Level: logLevel},
	)))

	text := flag.Arg(0)
	if text == "" {
		slog.Error("Need to pass a tag list in the command-line")
		flag.Usage()
		os.Exit(1)
	}
	tags := prototag.ParseList(text)
	slog.Debug("Parsed tag list", "input", text, "canonical", tags.String())

	if *peerFlag == "" {
		for _, tag := range tags {
			fmt.Printf("%-8s  0x%08x\n", tag, uint32(tag))
		}
		return
	}

	peerTags := prototag.ParseList(*peerFlag)
	slog.Debug("Parsed peer tag list", "input", *peerFlag, "canonical", peerTags.String())
	mutual, peerIndex, ok := prototag.FindMutual(tags, peerTags)
	if !ok {
		slog.Error("No mutual tag", "ours", tags.String(), "peer", peerTags.String())
		os.Exit(1)
	}
	fmt.Printf("%v (peer offer #%d)\n", mutual, peerIndex)
}
