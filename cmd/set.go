// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/airstream/izonectl/pkg/izone"
	"github.com/airstream/izonectl/pkg/session"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change system and zone settings",
}

var setPowerCmd = &cobra.Command{
	Use:       "power on|off",
	Short:     "Turn the system on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewSysOnCommand(s.Validator(), args[0] == "on")
		})
	},
}

var setModeCmd = &cobra.Command{
	Use:       "mode cool|heat|vent|dry|auto",
	Short:     "Change the system mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"cool", "heat", "vent", "dry", "auto"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := izone.ParseSysMode(args[0])
		if !ok {
			return fmt.Errorf("unknown mode %q", args[0])
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewSysModeCommand(s.Validator(), mode)
		})
	},
}

var setFanCmd = &cobra.Command{
	Use:       "fan low|medium|high|auto",
	Short:     "Change the fan speed",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"low", "medium", "high", "auto"},
	RunE: func(cmd *cobra.Command, args []string) error {
		fan, ok := izone.ParseSysFan(args[0])
		if !ok {
			return fmt.Errorf("unknown fan speed %q", args[0])
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewSysFanCommand(s.Validator(), fan)
		})
	},
}

var setSetpointCmd = &cobra.Command{
	Use:   "setpoint <celsius>",
	Short: "Change the system setpoint",
	Long: `Change the unit setpoint in degrees Celsius.

The value must land on the half-degree grid between 15 and 30; it is
rejected, not rounded, otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("setpoint %q: %w", args[0], err)
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewSysSetpointCommand(s.Validator(), izone.TempFromCelsius(c))
		})
	},
}

var setSleepCmd = &cobra.Command{
	Use:   "sleep <minutes>",
	Short: "Set the sleep timer (0 disables, steps of 30)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("minutes %q: %w", args[0], err)
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewSleepTimerCommand(s.Validator(), minutes)
		})
	},
}

var zoneCmd = &cobra.Command{
	Use:   "zone <index>",
	Short: "Change a zone's settings",
}

var zoneModeCmd = &cobra.Command{
	Use:   "mode <index> open|close|auto|override|constant",
	Short: "Change a zone's damper mode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		zone, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("zone %q: %w", args[0], err)
		}
		mode, ok := izone.ParseZoneMode(args[1])
		if !ok {
			return fmt.Errorf("unknown zone mode %q", args[1])
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewZoneModeCommand(s.Validator(), zone, mode)
		})
	},
}

var zoneSetpointCmd = &cobra.Command{
	Use:   "setpoint <index> <celsius>",
	Short: "Change a zone's setpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		zone, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("zone %q: %w", args[0], err)
		}
		c, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("setpoint %q: %w", args[1], err)
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewZoneSetpointCommand(s.Validator(), zone, izone.TempFromCelsius(c))
		})
	},
}

var zoneNameCmd = &cobra.Command{
	Use:   "name <index> <name>",
	Short: "Rename a zone (15 bytes max)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		zone, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("zone %q: %w", args[0], err)
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewZoneNameCommand(s.Validator(), zone, args[1])
		})
	},
}

var zoneAirflowCmd = &cobra.Command{
	Use:   "airflow <index> <min%> <max%>",
	Short: "Change a zone's airflow limits (steps of 5)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		zone, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("zone %q: %w", args[0], err)
		}
		min, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("min %q: %w", args[1], err)
		}
		max, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("max %q: %w", args[2], err)
		}
		// Two writes against the same zone; the session serializes them.
		return withSessionMany(cmd.Context(), func(ctx context.Context, s *session.Session) ([]*izone.Command, error) {
			minCmd, err := izone.NewZoneMinAirCommand(s.Validator(), zone, min)
			if err != nil {
				return nil, err
			}
			maxCmd, err := izone.NewZoneMaxAirCommand(s.Validator(), zone, max)
			if err != nil {
				return nil, err
			}
			return []*izone.Command{minCmd, maxCmd}, nil
		})
	},
}

func init() {
	setCmd.AddCommand(setPowerCmd, setModeCmd, setFanCmd, setSetpointCmd, setSleepCmd)
	zoneCmd.AddCommand(zoneModeCmd, zoneSetpointCmd, zoneNameCmd, zoneAirflowCmd)
	rootCmd.AddCommand(setCmd, zoneCmd)
}

// withSession opens a session, refreshes enough state for cross-field
// validation, builds one command and executes it.
func withSession(ctx context.Context, buildCmd func(context.Context, *session.Session) (*izone.Command, error)) error {
	return withSessionMany(ctx, func(ctx context.Context, s *session.Session) ([]*izone.Command, error) {
		cmd, err := buildCmd(ctx, s)
		if err != nil {
			return nil, err
		}
		return []*izone.Command{cmd}, nil
	})
}

func withSessionMany(ctx context.Context, buildCmds func(context.Context, *session.Session) ([]*izone.Command, error)) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	// Commands validate against live state (zone count, economy band,
	// fan capability), so fetch the system block first.
	if _, err := s.RequestSystem(ctx); err != nil {
		return err
	}

	cmds, err := buildCmds(ctx, s)
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		if err := s.Execute(ctx, cmd); err != nil {
			return err
		}
		log.Info().Str("command", cmd.Name).Msg("confirmed")
	}
	return nil
}
