// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airstream/izonectl/pkg/izone"
)

// Config carries the session's collaborators and tuning knobs. Zero
// values get sensible defaults except Transport, which is required.
type Config struct {
	Transport Transport
	Logger    zerolog.Logger

	// RequestTimeout bounds a single read request including retries.
	RequestTimeout time.Duration

	// WriteTimeout bounds one command's delivery and confirmation.
	WriteTimeout time.Duration

	// ReadRetries is the attempt count for read requests (default 3).
	ReadRetries int

	// RetryBackoff is the first retry delay; it doubles per attempt.
	RetryBackoff time.Duration

	// RetryWrites re-sends idempotent commands on transport failure.
	// Off by default: a command like RfPair must never be duplicated,
	// and even absolute commands are only re-sent when the caller
	// accepts that.
	RetryWrites bool

	// EventBuffer is the per-subscriber channel depth (default 64).
	EventBuffer int
}

// Session owns the state mirror of one controller and all traffic to it.
type Session struct {
	cfg Config
	log zerolog.Logger

	store     *Store
	validator *izone.Validator

	qmu    sync.Mutex
	queues map[string]*targetQueue
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once

	smu  sync.Mutex
	subs []chan ChangeEvent
}

// New creates a session over the given transport. Call Close when done.
func New(cfg Config) *Session {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.ReadRetries == 0 {
		cfg.ReadRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.EventBuffer == 0 {
		cfg.EventBuffer = 64
	}
	store := NewStore()
	return &Session{
		cfg:       cfg,
		log:       cfg.Logger.With().Str("component", "session").Logger(),
		store:     store,
		validator: izone.NewValidator(store),
		queues:    make(map[string]*targetQueue),
		closed:    make(chan struct{}),
	}
}

// Close stops the write queues. Queued commands fail with
// ErrSessionClosed.
func (s *Session) Close() {
	s.once.Do(func() { close(s.closed) })
	s.wg.Wait()

	s.smu.Lock()
	defer s.smu.Unlock()
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

// Store exposes the state mirror.
func (s *Session) Store() *Store { return s.store }

// Validator returns a validator backed by the live state, for building
// commands that respect the current topology and lock bands.
func (s *Session) Validator() *izone.Validator { return s.validator }

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot { return s.store.Snapshot() }

// Subscribe returns a channel of change events. The channel is closed by
// Close. A slow consumer loses events rather than stalling the session.
func (s *Session) Subscribe() <-chan ChangeEvent {
	ch := make(chan ChangeEvent, s.cfg.EventBuffer)
	s.smu.Lock()
	s.subs = append(s.subs, ch)
	s.smu.Unlock()
	return ch
}

func (s *Session) publish(events []ChangeEvent) {
	if len(events) == 0 {
		return
	}
	s.smu.Lock()
	defer s.smu.Unlock()
	for _, ev := range events {
		for _, ch := range s.subs {
			select {
			case ch <- ev:
			default:
				s.log.Warn().
					Str("kind", ev.Kind.String()).
					Uint64("seq", ev.Seq).
					Msg("subscriber full, event dropped")
			}
		}
	}
}

// HandleFrame decodes one status frame, merges it into the mirror and
// publishes the resulting events. Responses to requests and unsolicited
// frames take the same path, so delivery order alone decides which value
// wins.
func (s *Session) HandleFrame(data []byte) (*izone.StatusEnvelope, error) {
	env, ferrs, err := izone.DecodeStatus(data)
	if err != nil {
		s.log.Error().Err(err).Int("bytes", len(data)).Msg("frame rejected")
		return nil, err
	}
	for i := range ferrs {
		s.log.Warn().
			Str("message", ferrs[i].Message).
			Str("field", ferrs[i].Field).
			Err(ferrs[i].Err).
			Msg("field skipped during decode")
	}
	s.publish(s.store.Apply(env))
	return env, nil
}

func (s *Session) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.RequestTimeout)
}

// RequestSystem fetches the SystemV2 block.
func (s *Session) RequestSystem(ctx context.Context) (*izone.SystemStatus, error) {
	ctx, cancel := s.requestCtx(ctx)
	defer cancel()
	req, err := izone.NewSystemRequest(s.validator)
	if err != nil {
		return nil, err
	}
	env, err := s.read(ctx, req)
	if err != nil {
		return nil, err
	}
	return env.System, nil
}

// RequestZone fetches one zone's status by index.
func (s *Session) RequestZone(ctx context.Context, index int) (*izone.ZoneStatus, error) {
	ctx, cancel := s.requestCtx(ctx)
	defer cancel()
	req, err := izone.NewZonesRequest(s.validator, index)
	if err != nil {
		return nil, err
	}
	env, err := s.read(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(env.Zones) == 0 {
		return nil, ErrUnexpectedResponse
	}
	return &env.Zones[0], nil
}

// RequestZones fetches every configured zone. The zone count comes from
// the system block, which is fetched first when not yet known.
func (s *Session) RequestZones(ctx context.Context) ([]izone.ZoneStatus, error) {
	count := s.store.ZoneCount()
	if count == 0 {
		if _, err := s.RequestSystem(ctx); err != nil {
			return nil, err
		}
		count = s.store.ZoneCount()
	}
	zones := make([]izone.ZoneStatus, 0, count)
	for i := 0; i < count; i++ {
		z, err := s.RequestZone(ctx, i)
		if err != nil {
			return nil, err
		}
		zones = append(zones, *z)
	}
	return zones, nil
}

// RequestSchedule fetches one schedule by index.
func (s *Session) RequestSchedule(ctx context.Context, index int) (*izone.ScheduleStatus, error) {
	ctx, cancel := s.requestCtx(ctx)
	defer cancel()
	req, err := izone.NewSchedulesRequest(s.validator, index)
	if err != nil {
		return nil, err
	}
	env, err := s.read(ctx, req)
	if err != nil {
		return nil, err
	}
	return env.Schedule, nil
}

// RequestSchedules fetches all schedule slots.
func (s *Session) RequestSchedules(ctx context.Context) ([]izone.ScheduleStatus, error) {
	scheds := make([]izone.ScheduleStatus, 0, izone.MaxSchedules)
	for i := 0; i < izone.MaxSchedules; i++ {
		sc, err := s.RequestSchedule(ctx, i)
		if err != nil {
			return nil, err
		}
		if sc != nil {
			scheds = append(scheds, *sc)
		}
	}
	return scheds, nil
}

// RequestFaultHistory fetches the AC unit fault records.
func (s *Session) RequestFaultHistory(ctx context.Context) ([]izone.FaultStatus, error) {
	ctx, cancel := s.requestCtx(ctx)
	defer cancel()
	req, err := izone.NewFaultHistoryRequest(s.validator)
	if err != nil {
		return nil, err
	}
	env, err := s.read(ctx, req)
	if err != nil {
		return nil, err
	}
	if env.FaultHist == nil {
		return nil, nil
	}
	return env.FaultHist.Faults, nil
}

// RequestFirmware fetches the firmware version list.
func (s *Session) RequestFirmware(ctx context.Context) (string, error) {
	ctx, cancel := s.requestCtx(ctx)
	defer cancel()
	req, err := izone.NewFirmwareRequest(s.validator)
	if err != nil {
		return "", err
	}
	env, err := s.read(ctx, req)
	if err != nil {
		return "", err
	}
	if env.Firmware == nil {
		return "", nil
	}
	return *env.Firmware, nil
}

// RequestTemperzoneInfo fetches the Temperzone diagnostic block.
func (s *Session) RequestTemperzoneInfo(ctx context.Context) (*izone.TemperzoneInfo, error) {
	ctx, cancel := s.requestCtx(ctx)
	defer cancel()
	req, err := izone.NewTemperzoneInfoRequest(s.validator)
	if err != nil {
		return nil, err
	}
	env, err := s.read(ctx, req)
	if err != nil {
		return nil, err
	}
	return env.Temperzone, nil
}

// RequestPowerStatus fetches the live power monitor readings.
func (s *Session) RequestPowerStatus(ctx context.Context) (*izone.PowerMonitorStat, error) {
	ctx, cancel := s.requestCtx(ctx)
	defer cancel()
	req, err := izone.NewPowerStatusRequest(s.validator)
	if err != nil {
		return nil, err
	}
	env, err := s.read(ctx, req)
	if err != nil {
		return nil, err
	}
	return env.PowerStat, nil
}

// RequestPowerConfig fetches the power monitor configuration.
func (s *Session) RequestPowerConfig(ctx context.Context) (*izone.PowerMonitorConf, error) {
	ctx, cancel := s.requestCtx(ctx)
	defer cancel()
	req, err := izone.NewPowerConfigRequest(s.validator)
	if err != nil {
		return nil, err
	}
	env, err := s.read(ctx, req)
	if err != nil {
		return nil, err
	}
	return env.PowerConf, nil
}

// Refresh fetches the full AC picture: system, all zones, all schedules.
func (s *Session) Refresh(ctx context.Context) error {
	if _, err := s.RequestSystem(ctx); err != nil {
		return err
	}
	if _, err := s.RequestZones(ctx); err != nil {
		return err
	}
	if _, err := s.RequestSchedules(ctx); err != nil {
		return err
	}
	return nil
}

// HandleNotification reacts to a controller change broadcast by
// re-querying the named block. The broadcast carries no payload, only
// which block changed.
func (s *Session) HandleNotification(ctx context.Context, block string) error {
	switch block {
	case "System":
		_, err := s.RequestSystem(ctx)
		return err
	case "Zones":
		_, err := s.RequestZones(ctx)
		return err
	case "Schedules":
		_, err := s.RequestSchedules(ctx)
		return err
	}
	s.log.Debug().Str("block", block).Msg("ignoring unknown change notification")
	return nil
}
