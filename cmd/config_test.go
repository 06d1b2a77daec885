// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/airstream/izonectl/pkg/izone"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigTransportFields(t *testing.T) {
	path := writeConfig(t, `
host: 192.168.1.50
requestTimeout: 4s
writeTimeout: 20s
readRetries: 5
retryBackoff: 250ms
listen: 127.0.0.1:9000
endpoints:
  acCommand: customCommand
  powerRequest: customPowerReq
`)
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := time.Duration(c.RequestTimeout); got != 4*time.Second {
		t.Errorf("requestTimeout = %v, want 4s", got)
	}
	if got := time.Duration(c.WriteTimeout); got != 20*time.Second {
		t.Errorf("writeTimeout = %v, want 20s", got)
	}
	if c.ReadRetries != 5 {
		t.Errorf("readRetries = %d, want 5", c.ReadRetries)
	}
	if got := time.Duration(c.RetryBackoff); got != 250*time.Millisecond {
		t.Errorf("retryBackoff = %v, want 250ms", got)
	}
	if c.Listen != "127.0.0.1:9000" {
		t.Errorf("listen = %q", c.Listen)
	}

	paths := configEndpointPaths(c)
	if paths.acCommand != "customCommand" {
		t.Errorf("acCommand = %q, override lost", paths.acCommand)
	}
	if paths.powerRequest != "customPowerReq" {
		t.Errorf("powerRequest = %q, override lost", paths.powerRequest)
	}
	// Paths the file does not set keep the controller defaults.
	if paths.acRequest != izone.EndpointACRequest {
		t.Errorf("acRequest = %q, want default", paths.acRequest)
	}
	if paths.powerCommand != izone.EndpointPowerCommand {
		t.Errorf("powerCommand = %q, want default", paths.powerCommand)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := writeConfig(t, "requestTimeout: soon\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("unparsable duration accepted")
	}
}

func TestEndpointPathSelection(t *testing.T) {
	p := defaultEndpointPaths()
	cases := []struct {
		endpoint izone.Endpoint
		kind     izone.MessageKind
		want     string
	}{
		{izone.TargetAC, izone.KindCommand, izone.EndpointACCommand},
		{izone.TargetAC, izone.KindRequest, izone.EndpointACRequest},
		{izone.TargetPower, izone.KindCommand, izone.EndpointPowerCommand},
		{izone.TargetPower, izone.KindRequest, izone.EndpointPowerRequest},
	}
	for _, c := range cases {
		if got := p.pick(c.endpoint, c.kind); got != c.want {
			t.Errorf("pick(%v, %v) = %q, want %q", c.endpoint, c.kind, got, c.want)
		}
	}
}
