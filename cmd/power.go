// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/airstream/izonectl/pkg/izone"
	"github.com/airstream/izonectl/pkg/session"
)

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Power monitoring",
}

var powerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show live power readings",
	RunE:  runPowerStatus,
}

var powerChannelCmd = &cobra.Command{
	Use:   "channel <device> <channel>",
	Short: "Configure a power channel",
}

var powerChannelNameCmd = &cobra.Command{
	Use:   "name <device> <channel> <name>",
	Short: "Rename a power channel",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, ch, err := parseDevChannel(args)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewPowerChannelNameCommand(s.Validator(), dev, ch, args[2])
		})
	},
}

var powerChannelEnableCmd = &cobra.Command{
	Use:   "enable <device> <channel> on|off",
	Short: "Enable or disable a power channel",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, ch, err := parseDevChannel(args)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewPowerChannelEnableCommand(s.Validator(), dev, ch, args[2] == "on")
		})
	},
}

var powerChannelTotalCmd = &cobra.Command{
	Use:   "total <device> <channel> on|off",
	Short: "Include or exclude a channel from the consumption total",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, ch, err := parseDevChannel(args)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewPowerChannelAddToTotalCommand(s.Validator(), dev, ch, args[2] == "on")
		})
	},
}

func parseDevChannel(args []string) (int, int, error) {
	dev, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("device %q: %w", args[0], err)
	}
	ch, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("channel %q: %w", args[1], err)
	}
	return dev, ch, nil
}

func init() {
	powerChannelCmd.AddCommand(powerChannelNameCmd, powerChannelEnableCmd, powerChannelTotalCmd)
	powerCmd.AddCommand(powerStatusCmd, powerChannelCmd)
	rootCmd.AddCommand(powerCmd)
}

func runPowerStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	conf, err := s.RequestPowerConfig(ctx)
	if err != nil {
		return err
	}
	stat, err := s.RequestPowerStatus(ctx)
	if err != nil {
		return err
	}
	if stat == nil {
		fmt.Println("No power readings.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tCHANNEL\tNAME\tPOWER\tBATTERY")
	total := 0
	for d := range stat.Dev {
		dev := &stat.Dev[d]
		batt := "-"
		if dev.Batt != nil {
			batt = dev.Batt.String()
		}
		for c := range dev.Ch {
			if dev.Ch[c].Pwr == nil {
				continue
			}
			pwr := *dev.Ch[c].Pwr
			name := channelName(conf, d, c)
			if name == "" {
				continue
			}
			total += pwr
			fmt.Fprintf(w, "%d\t%d\t%s\t%d W\t%s\n", d, c, name, pwr, batt)
		}
	}
	w.Flush()
	fmt.Printf("\nTotal: %d W\n", total)
	return nil
}

// channelName resolves the configured name, empty for disabled channels.
func channelName(conf *izone.PowerMonitorConf, dev, ch int) string {
	if conf == nil || dev >= len(conf.Devices) || ch >= len(conf.Devices[dev].Channels) {
		return fmt.Sprintf("dev%d/ch%d", dev, ch)
	}
	c := conf.Devices[dev].Channels[ch]
	if c.Enabled != nil && *c.Enabled == 0 {
		return ""
	}
	if c.Name != nil && *c.Name != "" {
		return *c.Name
	}
	return fmt.Sprintf("dev%d/ch%d", dev, ch)
}
