// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/airstream/izonectl/pkg/discovery"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find iZone controllers on the local network",
	Long: `Broadcast a discovery probe and list every controller that
answers.

Controllers respond with their UID, IP address and supported services.
Use the reported IP as --host for the other commands.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 3*time.Second, "How long to wait for answers")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), discoverTimeout)
	defer cancel()

	d := discovery.NewDiscoverer(log)
	devices, err := d.Discover(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No controllers found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tADDRESS\tSERVICES")
	for _, dev := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\n", dev.UID, dev.IP, strings.Join(dev.Services, ","))
	}
	return w.Flush()
}
