// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// duration accepts Go duration strings ("500ms", "10s") in YAML.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("duration %q: %w", node.Value, err)
	}
	*d = duration(v)
	return nil
}

// FileConfig is the optional YAML config file. Flags override it.
type FileConfig struct {
	Host string `yaml:"host"`

	// Endpoints override the controller's HTTP paths. Empty entries
	// keep the defaults.
	Endpoints struct {
		ACCommand    string `yaml:"acCommand"`
		ACRequest    string `yaml:"acRequest"`
		PowerCommand string `yaml:"powerCommand"`
		PowerRequest string `yaml:"powerRequest"`
	} `yaml:"endpoints"`

	RequestTimeout duration `yaml:"requestTimeout"`
	WriteTimeout   duration `yaml:"writeTimeout"`
	ReadRetries    int      `yaml:"readRetries"`
	RetryBackoff   duration `yaml:"retryBackoff"`

	// Listen is the event feed's HTTP address, overridden by --listen.
	Listen string `yaml:"listen"`

	MQTT struct {
		Server      string `yaml:"server"`
		ClientID    string `yaml:"clientId"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		TopicPrefix string `yaml:"topicPrefix"`
		HassPrefix  string `yaml:"hassPrefix"`
		ModuleName  string `yaml:"moduleName"`
		InsecureTLS bool   `yaml:"insecureTls"`
	} `yaml:"mqtt"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "izonectl", "config.yaml")
}

// LoadConfig reads the config file. A missing default file is fine; a
// missing explicitly requested file is an error.
func LoadConfig(path string) (*FileConfig, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}

	c := &FileConfig{}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}
