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

// udpecho is a metadata-aware UDP echo pair. The server reads with the
// full metadata mask and answers from the address each probe arrived at;
// the client negotiates a protocol tag and then measures ping round
// trips.
//
// Wire text protocol, one datagram per line:
//
//	tags?<list>  ->  tags=<tag>  (or tags! when nothing matches)
//	ping <text>  ->  pong <text> peer=<addr> [ttl=<n>] [self=<addr>]
//
// Anything else is echoed back verbatim.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"github.com/weftnet/weft-sdk/prototag"
	"github.com/weftnet/weft-sdk/sockopt"
	"github.com/weftnet/weft-sdk/udpsocket"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags...] serve|ping <address>\n", path.Base(os.Args[0]))
		flag.PrintDefaults()
	}
}

type Config struct {
	Network     string `yaml:"network,omitempty"`
	Listen      string `yaml:"listen,omitempty"`
	Tags        string `yaml:"tags,omitempty"`
	HopLimit    int    `yaml:"hop_limit,omitempty"`
	Count       int    `yaml:"count,omitempty"`
	TimeoutSec  int    `yaml:"timeout_sec,omitempty"`
	RecvBufSize int    `yaml:"recv_buf_size,omitempty"`
	SendBufSize int    `yaml:"send_buf_size,omitempty"`
}

var defaultConfig = Config{
	Network:    "udp4",
	Listen:     "127.0.0.1:7777",
	Tags:       "WFT1,WFT0",
	Count:      3,
	TimeoutSec: 5,
}

func main() {
	verboseFlag := flag.Bool("v", false, "Enable debug output")
	configFlag := flag.String("config", "", "YAML config file to load")
	networkFlag := flag.String("network", defaultConfig.Network, "udp4 or udp6")
	listenFlag := flag.String("listen", defaultConfig.Listen, "Server listen address")
	tagsFlag := flag.String("tags", defaultConfig.Tags, "Protocol tags in preference order")
	hopLimitFlag := flag.Int("hop-limit", defaultConfig.HopLimit, "Outgoing TTL or hop limit (0 keeps the OS default)")
	countFlag := flag.Int("count", defaultConfig.Count, "Number of pings to send")
	timeoutSecFlag := flag.Int("timeout", defaultConfig.TimeoutSec, "Reply timeout in seconds")

	flag.Parse()

	logLevel := slog.LevelInfo
	if *verboseFlag {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(
		os.Stderr,
		&tint.Options{NoColor: !term.IsTerminal(int(os.Stderr.Fd())), Level: logLevel},
	)))

	cfg := defaultConfig
	if *configFlag != "" {
		configData, err := os.ReadFile(*configFlag)
		if err != nil {
			slog.Error("Failed to read config", "error", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(configData, &cfg); err != nil {
			slog.Error("Failed to parse config", "error", err)
			os.Exit(1)
		}
	}
	// Explicit flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "network":
			cfg.Network = *networkFlag
		case "listen":
			cfg.Listen = *listenFlag
		case "tags":
			cfg.Tags = *tagsFlag
		case "hop-limit":
			cfg.HopLimit = *hopLimitFlag
		case "count":
			cfg.Count = *countFlag
		case "timeout":
			cfg.TimeoutSec = *timeoutSecFlag
		}
	})

	var err error
	switch flag.Arg(0) {
	case "serve":
		err = runServe(cfg)
	case "ping":
		target := flag.Arg(1)
		if target == "" {
			slog.Error("Need to pass the server address after ping")
			flag.Usage()
			os.Exit(1)
		}
		err = runPing(cfg, target)
	default:
		slog.Error("Need a mode: serve or ping")
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func runServe(cfg Config) error {
	tags := prototag.ParseList(cfg.Tags)
	listen, err := netip.ParseAddrPort(cfg.Listen)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", cfg.Listen, err)
	}

	sio := udpsocket.NewIO(nil)
	fd, err := sio.Create(cfg.Network, cfg.RecvBufSize, cfg.SendBufSize)
	if err != nil {
		return fmt.Errorf("creating socket: %w", err)
	}
	defer sio.Close(fd)
	if err := sio.Bind(fd, listen); err != nil {
		return err
	}
	local, err := sio.LocalAddrPort(fd)
	if err != nil {
		return err
	}
	if err := sio.EnableRxHopLimit(fd, cfg.Network); err != nil {
		slog.Warn("Hop limit delivery unavailable", "error", err)
	}
	if err := sio.EnableRxTimestamps(fd); err != nil {
		slog.Debug("Receive timestamps unavailable", "error", err)
	}
	slog.Info("Echoing", "address", local, "tags", tags.String())

	result := udpsocket.ReadResult{
		Payload: make([]byte, 2048),
		Control: make([]byte, udpsocket.DefaultControlLen),
	}
	for {
		readable, err := sio.WaitUntilReadable(fd, time.Second)
		if err != nil {
			return fmt.Errorf("waiting for packets: %w", err)
		}
		if !readable {
			continue
		}
		sio.ReadPacket(fd, udpsocket.AllMetadata, &result)
		if result.Err != nil {
			if errors.Is(result.Err, udpsocket.ErrWouldBlock) {
				continue
			}
			return fmt.Errorf("reading packets: %w", result.Err)
		}
		if !result.Info.Has(udpsocket.FlagPeerAddr) {
			continue
		}
		logPacket(&result)

		reply := buildReply(tags, result.Payload[:result.N], &result.Info)
		info := replyInfo(&result.Info)
		if _, err := sio.WritePacket(fd, reply, &info); err != nil && !errors.Is(err, udpsocket.ErrWouldBlock) {
			slog.Warn("Echo reply failed", "peer", result.Info.Peer, "error", err)
		}
	}
}

func logPacket(result *udpsocket.ReadResult) {
	attrs := []any{"peer", result.Info.Peer, "len", result.N}
	if result.Info.Has(udpsocket.FlagHopLimit) {
		attrs = append(attrs, "ttl", result.Info.HopLimit)
	}
	if result.Info.Has(udpsocket.FlagRxTimestamp) {
		attrs = append(attrs, "rxtime", result.Info.RxTime)
	}
	slog.Debug("Packet", attrs...)
}

// buildReply keeps the wire text protocol from the package comment.
func buildReply(tags prototag.List, payload []byte, info *udpsocket.PacketInfo) []byte {
	text := string(payload)
	switch {
	case strings.HasPrefix(text, "tags?"):
		theirs := prototag.ParseList(strings.TrimPrefix(text, "tags?"))
		mutual, peerIndex, ok := prototag.FindMutual(tags, theirs)
		if !ok {
			slog.Info("No mutual tag", "peer", info.Peer, "offered", theirs.String())
			return []byte("tags!")
		}
		slog.Info("Negotiated tag", "peer", info.Peer, "tag", mutual, "offer", peerIndex)
		return fmt.Appendf(nil, "tags=%v", mutual)
	case strings.HasPrefix(text, "ping"):
		reply := fmt.Appendf(nil, "pong%s peer=%v", strings.TrimPrefix(text, "ping"), info.Peer)
		if info.Has(udpsocket.FlagHopLimit) {
			reply = fmt.Appendf(reply, " ttl=%d", info.HopLimit)
		}
		if info.Has(udpsocket.FlagSelfIPv4) {
			reply = fmt.Appendf(reply, " self=%v", info.SelfIPv4)
		} else if info.Has(udpsocket.FlagSelfIPv6) {
			reply = fmt.Appendf(reply, " self=%v", info.SelfIPv6)
		}
		return reply
	default:
		return payload
	}
}

// replyInfo answers from the address the probe arrived at, so replies
// stay consistent on multihomed hosts.
func replyInfo(received *udpsocket.PacketInfo) udpsocket.PacketInfo {
	info := udpsocket.PacketInfo{Flags: udpsocket.FlagPeerAddr, Peer: received.Peer}
	if received.Has(udpsocket.FlagSelfIPv4) {
		info.Flags |= udpsocket.FlagSelfIPv4
		info.SelfIPv4 = received.SelfIPv4
	}
	if received.Has(udpsocket.FlagSelfIPv6) {
		info.Flags |= udpsocket.FlagSelfIPv6
		info.SelfIPv6 = received.SelfIPv6
	}
	return info
}

func runPing(cfg Config, target string) error {
	server, err := net.ResolveUDPAddr(cfg.Network, target)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", target, err)
	}
	conn, err := net.ListenUDP(cfg.Network, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	opts, err := sockopt.NewUDPOptions(conn)
	if err != nil {
		return fmt.Errorf("reading socket options: %w", err)
	}
	if cfg.HopLimit > 0 {
		if err := opts.SetHopLimit(cfg.HopLimit); err != nil {
			return fmt.Errorf("setting hop limit: %w", err)
		}
	}
	if hopLimit, err := opts.HopLimit(); err == nil {
		slog.Debug("Sending with hop limit", "ttl", hopLimit)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	buf := make([]byte, 2048)
	exchange := func(request string) (string, error) {
		if _, err := conn.WriteToUDPAddrPort([]byte(request), server.AddrPort()); err != nil {
			return "", err
		}
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return "", err
		}
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return "", err
		}
		return string(buf[:n]), nil
	}

	offer := prototag.ParseList(cfg.Tags)
	reply, err := exchange("tags?" + offer.String())
	if err != nil {
		return fmt.Errorf("negotiating: %w", err)
	}
	switch {
	case strings.HasPrefix(reply, "tags="):
		slog.Info("Negotiated tag", "tag", prototag.Parse(strings.TrimPrefix(reply, "tags=")))
	case reply == "tags!":
		return fmt.Errorf("no mutual tag for %q", offer.String())
	default:
		return fmt.Errorf("unexpected negotiation reply %q", reply)
	}

	for i := 1; i <= cfg.Count; i++ {
		start := time.Now()
		reply, err := exchange(fmt.Sprintf("ping %d", i))
		if err != nil {
			return fmt.Errorf("ping %d: %w", i, err)
		}
		fmt.Printf("%s  rtt=%v\n", reply, time.Since(start).Round(time.Microsecond))
	}
	return nil
}
