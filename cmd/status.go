// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/airstream/izonectl/pkg/izone"
	"github.com/airstream/izonectl/pkg/session"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system, zone and schedule state",
	Long: `Fetch the controller's full state and print it.

With --json the raw snapshot is printed as JSON for scripting.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the snapshot as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Refresh(ctx); err != nil {
		return err
	}
	if _, err := s.RequestFaultHistory(ctx); err != nil {
		log.Debug().Err(err).Msg("fault history unavailable")
	}

	snap := s.Snapshot()
	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	printSystem(snap)
	printZones(snap.Zones)
	printSchedules(snap.Schedules)
	printFaults(snap.Faults)
	return nil
}

func onOff(v *int) string {
	if v == nil {
		return "-"
	}
	if *v != 0 {
		return "on"
	}
	return "off"
}

func tempOrDash(t *izone.Temperature) string {
	if t == nil {
		return "-"
	}
	return t.String()
}

func printSystem(snap session.Snapshot) {
	sys := snap.System
	if sys == nil {
		fmt.Println("No system state.")
		return
	}
	fmt.Printf("Controller %s", snap.UID)
	if snap.Firmware != "" {
		fmt.Printf(" (firmware %s)", snap.Firmware)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  Power:\t%s\n", onOff(sys.SysOn))
	if sys.SysMode != nil {
		fmt.Fprintf(w, "  Mode:\t%s\n", sys.SysMode)
	}
	if sys.SysFan != nil {
		fmt.Fprintf(w, "  Fan:\t%s\n", sys.SysFan)
	}
	fmt.Fprintf(w, "  Setpoint:\t%s\n", tempOrDash(sys.Setpoint))
	fmt.Fprintf(w, "  Return air:\t%s\n", tempOrDash(sys.Temp))
	fmt.Fprintf(w, "  Supply air:\t%s\n", tempOrDash(sys.Supply))
	if sys.EcoLock != nil && *sys.EcoLock != 0 {
		fmt.Fprintf(w, "  Economy lock:\t%s to %s\n", tempOrDash(sys.EcoMin), tempOrDash(sys.EcoMax))
	}
	if sys.SleepTimer != nil && *sys.SleepTimer > 0 {
		fmt.Fprintf(w, "  Sleep timer:\t%d min\n", *sys.SleepTimer)
	}
	if sys.ACError != nil && *sys.ACError != "" {
		fmt.Fprintf(w, "  AC error:\t%s\n", *sys.ACError)
	}
	w.Flush()
	fmt.Println()
}

func printZones(zones []izone.ZoneStatus) {
	if len(zones) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ZONE\tNAME\tMODE\tTEMP\tSETPOINT\tAIRFLOW")
	for i := range zones {
		z := &zones[i]
		idx, name, mode := "-", "-", "-"
		if z.Index != nil {
			idx = fmt.Sprintf("%d", *z.Index)
		}
		if z.Name != nil {
			name = *z.Name
		}
		if z.Mode != nil {
			mode = z.Mode.String()
		}
		airflow := "-"
		if z.MinAir != nil && z.MaxAir != nil {
			airflow = fmt.Sprintf("%d-%d%%", *z.MinAir, *z.MaxAir)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			idx, name, mode, tempOrDash(z.Temp), tempOrDash(z.Setpoint), airflow)
	}
	w.Flush()
	fmt.Println()
}

func printSchedules(scheds []izone.ScheduleStatus) {
	if len(scheds) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEDULE\tNAME\tACTIVE\tSTART\tSTOP\tDAYS")
	for i := range scheds {
		sc := &scheds[i]
		idx, name := "-", "-"
		if sc.Index != nil {
			idx = fmt.Sprintf("%d", *sc.Index)
		}
		if sc.Name != nil {
			name = *sc.Name
		}
		start, stop := "--:--", "--:--"
		if sc.Start != nil {
			start = sc.Start.String()
		}
		if sc.Stop != nil {
			stop = sc.Stop.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			idx, name, onOff(sc.Active), start, stop, scheduleDays(sc))
	}
	w.Flush()
	fmt.Println()
}

func scheduleDays(sc *izone.ScheduleStatus) string {
	days := ""
	add := func(v *int, label string) {
		if v != nil && *v != 0 {
			days += label
		}
	}
	add(sc.Mon, "M")
	add(sc.Tue, "Tu")
	add(sc.Wed, "W")
	add(sc.Thu, "Th")
	add(sc.Fri, "F")
	add(sc.Sat, "Sa")
	add(sc.Sun, "Su")
	if days == "" {
		return "-"
	}
	return days
}

func printFaults(faults []izone.FaultStatus) {
	if len(faults) == 0 {
		return
	}
	fmt.Println("Fault history:")
	for _, f := range faults {
		fmt.Printf("  %s\n", f)
	}
}
