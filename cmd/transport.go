// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/airstream/izonectl/pkg/discovery"
	"github.com/airstream/izonectl/pkg/izone"
	"github.com/airstream/izonectl/pkg/session"
)

// endpointPaths maps each message target to its HTTP path.
type endpointPaths struct {
	acCommand    string
	acRequest    string
	powerCommand string
	powerRequest string
}

func defaultEndpointPaths() endpointPaths {
	return endpointPaths{
		acCommand:    izone.EndpointACCommand,
		acRequest:    izone.EndpointACRequest,
		powerCommand: izone.EndpointPowerCommand,
		powerRequest: izone.EndpointPowerRequest,
	}
}

// configEndpointPaths applies the config file's overrides on the defaults.
func configEndpointPaths(c *FileConfig) endpointPaths {
	p := defaultEndpointPaths()
	if c.Endpoints.ACCommand != "" {
		p.acCommand = c.Endpoints.ACCommand
	}
	if c.Endpoints.ACRequest != "" {
		p.acRequest = c.Endpoints.ACRequest
	}
	if c.Endpoints.PowerCommand != "" {
		p.powerCommand = c.Endpoints.PowerCommand
	}
	if c.Endpoints.PowerRequest != "" {
		p.powerRequest = c.Endpoints.PowerRequest
	}
	return p
}

func (p endpointPaths) pick(endpoint izone.Endpoint, kind izone.MessageKind) string {
	switch {
	case endpoint == izone.TargetPower && kind == izone.KindRequest:
		return p.powerRequest
	case endpoint == izone.TargetPower:
		return p.powerCommand
	case kind == izone.KindRequest:
		return p.acRequest
	default:
		return p.acCommand
	}
}

// httpTransport posts frames to the controller's HTTP endpoints.
type httpTransport struct {
	base   string
	paths  endpointPaths
	client *http.Client
}

func newHTTPTransport(host string, paths endpointPaths, timeout time.Duration) *httpTransport {
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "80")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpTransport{
		base:   "http://" + host,
		paths:  paths,
		client: &http.Client{Timeout: timeout},
	}
}

func (t *httpTransport) Send(ctx context.Context, endpoint izone.Endpoint, kind izone.MessageKind, frame []byte) ([]byte, error) {
	url := t.base + "/" + t.paths.pick(endpoint, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: HTTP %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// resolveHost picks the controller address from the flag, the config
// file, or a discovery sweep, in that order.
func resolveHost(ctx context.Context) (string, error) {
	if flagHost != "" {
		return flagHost, nil
	}
	if cfg.Host != "" {
		return cfg.Host, nil
	}

	log.Info().Msg("no host configured, discovering")
	d := discovery.NewDiscoverer(log)
	devices, err := d.Discover(ctx)
	if err != nil {
		return "", err
	}
	switch len(devices) {
	case 0:
		return "", fmt.Errorf("no controller found; set --host")
	case 1:
		log.Info().Str("uid", devices[0].UID).Str("ip", devices[0].IP.String()).Msg("controller discovered")
		// The announced port is the UDP discovery port; the HTTP API
		// listens on the default port.
		return devices[0].IP.String(), nil
	default:
		return "", fmt.Errorf("%d controllers found; set --host to pick one", len(devices))
	}
}

// openSession resolves the controller and opens a session against it.
// The caller owns the returned session and must Close it.
func openSession(ctx context.Context) (*session.Session, error) {
	host, err := resolveHost(ctx)
	if err != nil {
		return nil, err
	}
	transport := newHTTPTransport(host, configEndpointPaths(cfg), time.Duration(cfg.RequestTimeout))
	return session.New(session.Config{
		Transport:      transport,
		Logger:         log,
		RequestTimeout: time.Duration(cfg.RequestTimeout),
		WriteTimeout:   time.Duration(cfg.WriteTimeout),
		ReadRetries:    cfg.ReadRetries,
		RetryBackoff:   time.Duration(cfg.RetryBackoff),
	}), nil
}
