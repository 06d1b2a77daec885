// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package bridge

import (
	"crypto/tls"
	"errors"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// MQTTConfig carries broker connection settings.
type MQTTConfig struct {
	Server   string
	ClientID string
	Username string
	Password string

	// InsecureTLS skips certificate verification for brokers with
	// self-signed certificates.
	InsecureTLS bool
}

// ErrNotConnected is returned when publishing before the broker link is
// up.
var ErrNotConnected = errors.New("mqtt client not connected")

// MQTTClient is a thin wrapper that reconnects on a fixed cadence and
// exposes the two operations the bridge needs.
type MQTTClient struct {
	log    zerolog.Logger
	client MQTT.Client
	closed chan struct{}
}

// NewMQTTClient connects to the broker and keeps the link alive until
// Close.
func NewMQTTClient(cfg *MQTTConfig, log zerolog.Logger) *MQTTClient {
	m := &MQTTClient{
		log:    log.With().Str("component", "mqtt").Logger(),
		closed: make(chan struct{}),
	}

	opts := MQTT.NewClientOptions().
		AddBroker(cfg.Server).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(false)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.InsecureTLS {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.OnConnectionLost = func(_ MQTT.Client, err error) {
		m.log.Warn().Err(err).Msg("broker connection lost")
	}

	connect := func() {
		client := MQTT.NewClient(opts)
		token := client.Connect()
		token.Wait()
		if token.Error() != nil {
			m.log.Warn().Err(token.Error()).Str("server", cfg.Server).Msg("broker connect failed")
			return
		}
		m.client = client
		m.log.Info().Str("server", cfg.Server).Msg("connected to broker")
	}

	connect()
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if m.client == nil || !m.client.IsConnectionOpen() {
					connect()
				}
			case <-m.closed:
				if m.client != nil {
					m.client.Disconnect(100)
				}
				return
			}
		}
	}()
	return m
}

// Publish sends one message and waits for the broker acknowledgement.
func (m *MQTTClient) Publish(topic string, qos byte, retained bool, payload string) error {
	if m.client == nil {
		return ErrNotConnected
	}
	token := m.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// Subscribe registers a handler for a topic.
func (m *MQTTClient) Subscribe(topic string, callback func(message string)) error {
	if m.client == nil {
		return ErrNotConnected
	}
	token := m.client.Subscribe(topic, 0, func(_ MQTT.Client, msg MQTT.Message) {
		callback(string(msg.Payload()))
	})
	token.Wait()
	return token.Error()
}

// Close tears down the broker link.
func (m *MQTTClient) Close() {
	close(m.closed)
}
