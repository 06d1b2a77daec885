// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

// Package discovery finds controllers on the local network and listens
// for their change broadcasts. Both run over UDP: discovery is a
// broadcast probe answered by every bridge, change notification is a
// broadcast the bridge sends whenever its state moves.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// ProbePayload is the discovery datagram body.
	ProbePayload = "IASD"

	// DiscoveryPort answers the probe.
	DiscoveryPort = 12107

	// NotifyPort carries change broadcasts.
	NotifyPort = 7005

	notifyPrefix = "iZoneChanged_"
)

// ErrBadAnnouncement rejects a discovery reply that does not carry the
// expected field layout.
var ErrBadAnnouncement = errors.New("malformed discovery announcement")

// Device is one discovered controller bridge.
type Device struct {
	UID      string
	IP       net.IP
	Port     int
	Services []string
}

func (d Device) String() string {
	return fmt.Sprintf("%s at %s:%d (%s)", d.UID, d.IP, d.Port, strings.Join(d.Services, ","))
}

// ParseAnnouncement decodes a discovery reply of the form
// "ASPort_12107,UID_000003039,IP_192.168.1.9,iZone,iLight". Unknown
// trailing fields become service names.
func ParseAnnouncement(s string) (*Device, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: %d fields", ErrBadAnnouncement, len(parts))
	}

	d := &Device{}
	for _, part := range parts {
		switch {
		case strings.HasPrefix(part, "ASPort_"):
			p, err := strconv.Atoi(strings.TrimPrefix(part, "ASPort_"))
			if err != nil {
				return nil, fmt.Errorf("%w: port %q", ErrBadAnnouncement, part)
			}
			d.Port = p
		case strings.HasPrefix(part, "UID_"):
			d.UID = strings.TrimPrefix(part, "UID_")
		case strings.HasPrefix(part, "IP_"):
			ip := net.ParseIP(strings.TrimPrefix(part, "IP_"))
			if ip == nil {
				return nil, fmt.Errorf("%w: address %q", ErrBadAnnouncement, part)
			}
			d.IP = ip
		case part != "":
			d.Services = append(d.Services, part)
		}
	}
	if d.UID == "" || d.IP == nil || d.Port == 0 {
		return nil, fmt.Errorf("%w: missing UID, IP or port in %q", ErrBadAnnouncement, s)
	}
	return d, nil
}

// ParseNotification decodes a change broadcast such as
// "iZoneChanged_Zones" into its block name.
func ParseNotification(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, notifyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(s, notifyPrefix), true
}

// Discoverer broadcasts probes and collects announcements.
type Discoverer struct {
	log zerolog.Logger

	// BroadcastAddr overrides the probe destination, mainly for tests.
	BroadcastAddr string

	// Timeout bounds one Discover call when the context carries no
	// deadline of its own.
	Timeout time.Duration
}

// NewDiscoverer creates a discoverer with the default broadcast target.
func NewDiscoverer(log zerolog.Logger) *Discoverer {
	return &Discoverer{
		log:           log.With().Str("component", "discovery").Logger(),
		BroadcastAddr: fmt.Sprintf("255.255.255.255:%d", DiscoveryPort),
		Timeout:       3 * time.Second,
	}
}

// Discover probes the network and returns every bridge that answered
// before the deadline, deduplicated by UID.
func (d *Discoverer) Discover(ctx context.Context) ([]Device, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(d.Timeout)
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("discovery socket: %w", err)
	}
	defer conn.Close()

	dst, err := net.ResolveUDPAddr("udp4", d.BroadcastAddr)
	if err != nil {
		return nil, fmt.Errorf("discovery target: %w", err)
	}
	if _, err := conn.WriteTo([]byte(ProbePayload), dst); err != nil {
		return nil, fmt.Errorf("discovery probe: %w", err)
	}
	d.log.Debug().Str("target", d.BroadcastAddr).Msg("probe sent")

	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var devices []Device
	buf := make([]byte, 1024)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return devices, nil
			}
			return devices, err
		}
		dev, perr := ParseAnnouncement(string(buf[:n]))
		if perr != nil {
			d.log.Warn().Err(perr).Stringer("from", from).Msg("announcement ignored")
			continue
		}
		if seen[dev.UID] {
			continue
		}
		seen[dev.UID] = true
		devices = append(devices, *dev)
		d.log.Info().Str("uid", dev.UID).IPAddr("ip", dev.IP).Msg("bridge found")
	}
}

// Listener receives change broadcasts and hands the block names to a
// handler. Run blocks until the context ends.
type Listener struct {
	log  zerolog.Logger
	addr string
}

// NewListener creates a change-broadcast listener on the standard port.
func NewListener(log zerolog.Logger) *Listener {
	return &Listener{
		log:  log.With().Str("component", "notify").Logger(),
		addr: fmt.Sprintf(":%d", NotifyPort),
	}
}

// Run listens for broadcasts until ctx ends. Every decoded block name is
// passed to handler on the listener goroutine; slow handlers delay
// subsequent notifications, which is harmless since a re-query coalesces
// any backlog.
func (l *Listener) Run(ctx context.Context, handler func(block string)) error {
	conn, err := net.ListenPacket("udp4", l.addr)
	if err != nil {
		return fmt.Errorf("notify socket: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	l.log.Info().Str("addr", l.addr).Msg("listening for change broadcasts")
	buf := make([]byte, 256)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		block, ok := ParseNotification(string(buf[:n]))
		if !ok {
			l.log.Debug().Stringer("from", from).Msg("ignoring unrelated datagram")
			continue
		}
		l.log.Debug().Str("block", block).Msg("change broadcast")
		handler(block)
	}
}
