// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/airstream/izonectl/pkg/izone"
	"github.com/airstream/izonectl/pkg/session"
)

var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	Aliases: []string{"sched"},
	Short:   "Manage favourite schedules",
}

var scheduleEnableCmd = &cobra.Command{
	Use:   "enable <index>",
	Short: "Enable a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  scheduleToggle(true),
}

var scheduleDisableCmd = &cobra.Command{
	Use:   "disable <index>",
	Short: "Disable a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  scheduleToggle(false),
}

func scheduleToggle(on bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("schedule %q: %w", args[0], err)
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewScheduleEnableCommand(s.Validator(), index, on)
		})
	}
}

var (
	schedStart string
	schedStop  string
	schedDays  string
)

var scheduleTimesCmd = &cobra.Command{
	Use:   "times <index>",
	Short: "Set a schedule's start and stop time",
	Long: `Set when a schedule runs.

Times are HH:MM in 24 hour form. Leave --start or --stop empty to
disable that edge. Days are a comma separated list of mon,tue,wed,
thu,fri,sat,sun.`,
	Args: cobra.ExactArgs(1),
	RunE: runScheduleTimes,
}

func init() {
	scheduleTimesCmd.Flags().StringVar(&schedStart, "start", "", "Start time (HH:MM, empty disables)")
	scheduleTimesCmd.Flags().StringVar(&schedStop, "stop", "", "Stop time (HH:MM, empty disables)")
	scheduleTimesCmd.Flags().StringVar(&schedDays, "days", "", "Active days, comma separated")
	scheduleCmd.AddCommand(scheduleEnableCmd, scheduleDisableCmd, scheduleTimesCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func parseClock(s string) (izone.ClockTime, error) {
	if s == "" {
		return izone.ClockTimeDisabled, nil
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("time %q: want HH:MM", s)
	}
	return izone.NewClockTime(h, m)
}

func runScheduleTimes(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("schedule %q: %w", args[0], err)
	}
	start, err := parseClock(schedStart)
	if err != nil {
		return err
	}
	stop, err := parseClock(schedStop)
	if err != nil {
		return err
	}

	settings := izone.ScheduleSettings{
		StartHour:   start.Hour(),
		StartMinute: start.Minute(),
		StopHour:    stop.Hour(),
		StopMinute:  stop.Minute(),
	}
	for _, day := range strings.Split(schedDays, ",") {
		switch strings.TrimSpace(strings.ToLower(day)) {
		case "":
		case "mon":
			settings.Mon = true
		case "tue":
			settings.Tue = true
		case "wed":
			settings.Wed = true
		case "thu":
			settings.Thu = true
		case "fri":
			settings.Fri = true
		case "sat":
			settings.Sat = true
		case "sun":
			settings.Sun = true
		default:
			return fmt.Errorf("unknown day %q", day)
		}
	}

	return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
		return izone.NewScheduleSettingsCommand(s.Validator(), index, settings)
	})
}
