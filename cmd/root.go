// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagHost    string
	flagConfig  string
	flagVerbose bool
	flagJSONLog bool

	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	cfg *FileConfig
)

var rootCmd = &cobra.Command{
	Use:   "izonectl",
	Short: "iZone air conditioning controller client",
	Long: `izonectl talks to iZone zone controllers over their HTTP JSON
protocol.

Provides commands for discovering controllers on the local network,
reading system and zone state, changing modes and setpoints, managing
schedules, monitoring power usage, and bridging the controller onto
MQTT for home automation.

The controller address comes from --host, the config file, or UDP
discovery when neither is set.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.InfoLevel
		if flagVerbose {
			level = zerolog.DebugLevel
		}
		if flagJSONLog {
			log = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
		} else {
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
		}

		var err error
		cfg, err = LoadConfig(flagConfig)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagHost, "host", "H", "", "Controller address (host or host:port)")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default ~/.config/izonectl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLog, "json-log", false, "Log as JSON instead of console format")
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		log.Error().Err(err).Msg("command failed")
	}
	return err
}
