// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/airstream/izonectl/pkg/discovery"
	"github.com/airstream/izonectl/pkg/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the controller state as a WebSocket event feed",
	Long: `Run a small HTTP server in front of the controller.

GET /snapshot returns the current state as JSON. GET /events upgrades
to a WebSocket that first sends a full snapshot, then one JSON message
per change event as zone and system state moves.

The server also listens for the controller's UDP change broadcasts and
re-queries the changed block, so the feed stays current without
polling.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "listen", "", "HTTP listen address (default \":8089\")")
	rootCmd.AddCommand(serveCmd)
}

// eventMessage is one WebSocket frame on the /events feed.
type eventMessage struct {
	Type     string               `json:"type"` // "snapshot" or "change"
	Snapshot *session.Snapshot    `json:"snapshot,omitempty"`
	Change   *session.ChangeEvent `json:"change,omitempty"`
	Kind     string               `json:"kind,omitempty"`
}

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	// The feed is read-only state, same trust level as the controller's
	// own unauthenticated HTTP API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Listen
	}
	if addr == "" {
		addr = ":8089"
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Refresh(ctx); err != nil {
		return err
	}

	// Change broadcasts tell us which block to re-query.
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

	mux := http.NewServeMux()
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		snap := s.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			log.Warn().Err(err).Msg("snapshot write failed")
		}
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		serveEvents(ctx, s, w, r)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Info().Str("addr", addr).Msg("serving event feed")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func serveEvents(ctx context.Context, s *session.Session, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	log.Info().Str("remote", remote).Msg("feed client connected")

	// Subscribe before the snapshot so nothing falls between them. The
	// client may see a change it already holds, which merges cleanly.
	events := s.Subscribe()
	snap := s.Snapshot()
	if err := conn.WriteJSON(eventMessage{Type: "snapshot", Snapshot: &snap}); err != nil {
		return
	}

	// Drain client frames so pings and close frames are processed.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-clientGone:
			log.Info().Str("remote", remote).Msg("feed client disconnected")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			msg := eventMessage{Type: "change", Change: &ev, Kind: ev.Kind.String()}
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("remote", remote).Msg("feed write failed")
				return
			}
		}
	}
}
