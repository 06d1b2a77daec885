// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/airstream/izonectl/pkg/bridge"
	"github.com/airstream/izonectl/pkg/discovery"
)

var (
	bridgeServer      string
	bridgeClientID    string
	bridgeUsername    string
	bridgePassword    string
	bridgeTopicPrefix string
	bridgeHassPrefix  string
	bridgeModuleName  string
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Bridge the controller onto MQTT for Home Assistant",
	Long: `Connect the controller to an MQTT broker.

Each zone is announced as a Home Assistant climate entity. Zone and
system state is published retained; setpoint and mode changes arrive
on the matching /set topics and are validated before being sent to the
controller. Power readings are published with a short moving average.

Broker settings come from flags or the mqtt section of the config
file.`,
	RunE: runBridge,
}

func init() {
	bridgeCmd.Flags().StringVar(&bridgeServer, "server", "", "MQTT broker URL (tcp://host:1883)")
	bridgeCmd.Flags().StringVar(&bridgeClientID, "client-id", "", "MQTT client ID (default izonectl)")
	bridgeCmd.Flags().StringVar(&bridgeUsername, "username", "", "MQTT username")
	bridgeCmd.Flags().StringVar(&bridgePassword, "password", "", "MQTT password")
	bridgeCmd.Flags().StringVar(&bridgeTopicPrefix, "topic-prefix", "", "State topic prefix (default izone)")
	bridgeCmd.Flags().StringVar(&bridgeHassPrefix, "hass-prefix", "", "Home Assistant discovery prefix (default homeassistant)")
	bridgeCmd.Flags().StringVar(&bridgeModuleName, "module-name", "", "Name of this controller in topics (default izone)")
	rootCmd.AddCommand(bridgeCmd)
}

// pick returns the flag value, falling back to the config file.
func pick(flag, fromConfig string) string {
	if flag != "" {
		return flag
	}
	return fromConfig
}

func runBridge(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	server := pick(bridgeServer, cfg.MQTT.Server)
	if server == "" {
		return fmt.Errorf("no MQTT broker; set --server or mqtt.server in the config file")
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	clientID := pick(bridgeClientID, cfg.MQTT.ClientID)
	if clientID == "" {
		clientID = "izonectl"
	}
	mqttClient := bridge.NewMQTTClient(&bridge.MQTTConfig{
		Server:      server,
		ClientID:    clientID,
		Username:    pick(bridgeUsername, cfg.MQTT.Username),
		Password:    pick(bridgePassword, cfg.MQTT.Password),
		InsecureTLS: cfg.MQTT.InsecureTLS,
	}, log)
	defer mqttClient.Close()

	// Change broadcasts keep the mirror fresh between MQTT commands.
	listener := discovery.NewListener(log)
	go func() {
		err := listener.Run(ctx, func(block string) {
			if err := s.HandleNotification(ctx, block); err != nil {
				log.Warn().Err(err).Str("block", block).Msg("notification re-query failed")
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("notify listener stopped")
		}
	}()

	b := bridge.New(bridge.Config{
		ModuleName:  pick(bridgeModuleName, cfg.MQTT.ModuleName),
		TopicPrefix: pick(bridgeTopicPrefix, cfg.MQTT.TopicPrefix),
		HassPrefix:  pick(bridgeHassPrefix, cfg.MQTT.HassPrefix),
		Publish:     mqttClient.Publish,
		Subscribe:   mqttClient.Subscribe,
		Controller:  s,
		Logger:      log,
	})
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
