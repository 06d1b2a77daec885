// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airstream/izonectl/pkg/izone"
)

// fakeTransport answers frames from a programmable handler and records
// every send.
type fakeTransport struct {
	mu     sync.Mutex
	sent   []string
	handle func(call int, kind izone.MessageKind, frame []byte) ([]byte, error)
	calls  int
}

func (f *fakeTransport) Send(ctx context.Context, _ izone.Endpoint, kind izone.MessageKind, frame []byte) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.sent = append(f.sent, string(frame))
	handle := f.handle
	f.mu.Unlock()
	return handle(call, kind, frame)
}

func (f *fakeTransport) frames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

const systemReply = `{"AirStreamDeviceUId": "000009", "SystemV2": {"SysOn": 1, "SysMode": 1, "SysFan": 1, "Setpoint": 2200, "NoOfZones": 4}}`

func zoneReply(index int) string {
	return fmt.Sprintf(`{"ZonesV2": {"Index": %d, "Setpoint": 2200}}`, index)
}

func okTransport() *fakeTransport {
	ft := &fakeTransport{}
	ft.handle = func(_ int, kind izone.MessageKind, frame []byte) ([]byte, error) {
		if kind == izone.KindCommand {
			return []byte(`{}`), nil
		}
		s := string(frame)
		switch {
		case strings.Contains(s, `"Type":2`) && strings.Contains(s, "iZoneV2Request"):
			return []byte(zoneReply(0)), nil
		default:
			return []byte(systemReply), nil
		}
	}
	return ft
}

func newTestSession(ft *fakeTransport) *Session {
	return New(Config{
		Transport:      ft,
		Logger:         zerolog.Nop(),
		RequestTimeout: 2 * time.Second,
		WriteTimeout:   2 * time.Second,
		RetryBackoff:   time.Millisecond,
	})
}

func TestSessionRequestSystem(t *testing.T) {
	ft := okTransport()
	s := newTestSession(ft)
	defer s.Close()

	sys, err := s.RequestSystem(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sys)
	assert.Equal(t, izone.Temperature(2200), *sys.Setpoint)
	assert.Equal(t, "000009", s.Store().UID())
	assert.Equal(t, 4, s.Store().ZoneCount())
}

func TestSessionReadRetries(t *testing.T) {
	ft := &fakeTransport{}
	ft.handle = func(call int, _ izone.MessageKind, _ []byte) ([]byte, error) {
		if call < 3 {
			return nil, errors.New("connection refused")
		}
		return []byte(systemReply), nil
	}
	s := newTestSession(ft)
	defer s.Close()

	_, err := s.RequestSystem(context.Background())
	require.NoError(t, err, "third attempt should succeed")
	assert.Equal(t, 3, len(ft.frames()))
}

func TestSessionReadGivesUp(t *testing.T) {
	ft := &fakeTransport{}
	ft.handle = func(int, izone.MessageKind, []byte) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	s := newTestSession(ft)
	defer s.Close()

	_, err := s.RequestSystem(context.Background())
	require.Error(t, err)
	assert.Len(t, ft.frames(), 3, "default is three attempts")
}

func TestSessionReadRejectsWrongPayload(t *testing.T) {
	ft := &fakeTransport{}
	ft.handle = func(int, izone.MessageKind, []byte) ([]byte, error) {
		// Firmware answers a system request with a zone payload.
		return []byte(zoneReply(0)), nil
	}
	s := newTestSession(ft)
	defer s.Close()

	_, err := s.RequestSystem(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestSessionExecuteConfirms(t *testing.T) {
	ft := okTransport()
	s := newTestSession(ft)
	defer s.Close()

	cmd, err := izone.NewSysSetpointCommand(s.Validator(), 2200)
	require.NoError(t, err)
	require.NoError(t, s.Execute(context.Background(), cmd))

	frames := ft.frames()
	require.Len(t, frames, 2, "command then covering read")
	assert.Contains(t, frames[0], "SysSetpoint")
	assert.Contains(t, frames[1], "iZoneV2Request")
}

func TestSessionExecuteUnconfirmed(t *testing.T) {
	ft := &fakeTransport{}
	ft.handle = func(_ int, kind izone.MessageKind, _ []byte) ([]byte, error) {
		if kind == izone.KindCommand {
			return []byte(`{}`), nil
		}
		return nil, errors.New("connection refused")
	}
	s := newTestSession(ft)
	defer s.Close()

	cmd, err := izone.NewSysOnCommand(s.Validator(), true)
	require.NoError(t, err)
	err = s.Execute(context.Background(), cmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnconfirmed)
}

func TestSessionExecuteSerializesPerTarget(t *testing.T) {
	var inFlight, peak int32
	ft := &fakeTransport{}
	ft.handle = func(_ int, kind izone.MessageKind, _ []byte) ([]byte, error) {
		if kind == izone.KindCommand {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return []byte(`{}`), nil
		}
		return []byte(zoneReply(3)), nil
	}
	s := newTestSession(ft)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(sp izone.Temperature) {
			defer wg.Done()
			cmd, err := izone.NewZoneSetpointCommand(nil, 3, sp)
			require.NoError(t, err)
			assert.NoError(t, s.Execute(context.Background(), cmd))
		}(2000 + izone.Temperature(50*i))
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&peak),
		"writes to one zone must never overlap")
}

func TestSessionExecuteDetachOnCancel(t *testing.T) {
	release := make(chan struct{})
	var commands int32
	ft := &fakeTransport{}
	ft.handle = func(_ int, kind izone.MessageKind, _ []byte) ([]byte, error) {
		if kind == izone.KindCommand {
			atomic.AddInt32(&commands, 1)
			<-release
			return []byte(`{}`), nil
		}
		return []byte(systemReply), nil
	}
	s := newTestSession(ft)
	defer s.Close()

	cmd, err := izone.NewSysOnCommand(s.Validator(), true)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = s.Execute(ctx, cmd)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "caller detaches when ctx expires")

	// The command still resolves on the queue; the next write must not
	// deadlock behind an orphaned slot.
	close(release)

	cmd2, err := izone.NewSysOnCommand(s.Validator(), false)
	require.NoError(t, err)
	require.NoError(t, s.Execute(context.Background(), cmd2))
	assert.EqualValues(t, 2, atomic.LoadInt32(&commands))
}

func TestSessionWriteRetryOptIn(t *testing.T) {
	fail := int32(1)
	ft := &fakeTransport{}
	ft.handle = func(_ int, kind izone.MessageKind, _ []byte) ([]byte, error) {
		if kind == izone.KindCommand && atomic.CompareAndSwapInt32(&fail, 1, 0) {
			return nil, errors.New("connection reset")
		}
		if kind == izone.KindCommand {
			return []byte(`{}`), nil
		}
		return []byte(systemReply), nil
	}

	// Default: a failed write is not retried even for idempotent commands.
	s := newTestSession(ft)
	cmd, err := izone.NewSysSetpointCommand(nil, 2100)
	require.NoError(t, err)
	assert.Error(t, s.Execute(context.Background(), cmd))
	s.Close()

	// Opted in: the idempotent command is re-sent.
	atomic.StoreInt32(&fail, 1)
	s = New(Config{
		Transport:    ft,
		Logger:       zerolog.Nop(),
		WriteTimeout: 2 * time.Second,
		RetryBackoff: time.Millisecond,
		RetryWrites:  true,
	})
	defer s.Close()
	cmd, err = izone.NewSysSetpointCommand(nil, 2100)
	require.NoError(t, err)
	assert.NoError(t, s.Execute(context.Background(), cmd))
}

func TestSessionWriteRetryNeverForNonIdempotent(t *testing.T) {
	ft := &fakeTransport{}
	var commandSends int32
	ft.handle = func(_ int, kind izone.MessageKind, _ []byte) ([]byte, error) {
		if kind == izone.KindCommand {
			atomic.AddInt32(&commandSends, 1)
			return nil, errors.New("connection reset")
		}
		return []byte(systemReply), nil
	}
	s := New(Config{
		Transport:    ft,
		Logger:       zerolog.Nop(),
		WriteTimeout: time.Second,
		RetryBackoff: time.Millisecond,
		RetryWrites:  true,
	})
	defer s.Close()

	cmd, err := izone.NewRfPairCommand(nil, true)
	require.NoError(t, err)
	assert.Error(t, s.Execute(context.Background(), cmd))
	assert.EqualValues(t, 1, atomic.LoadInt32(&commandSends),
		"pairing must be sent exactly once even with retries enabled")
}

func TestSessionSubscribe(t *testing.T) {
	ft := okTransport()
	s := newTestSession(ft)

	events := s.Subscribe()
	_, err := s.RequestSystem(context.Background())
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, ChangeSystem, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}

	s.Close()
	_, open := <-events
	assert.False(t, open, "Close must close subscriber channels")
}

func TestSessionClosedExecute(t *testing.T) {
	s := newTestSession(okTransport())
	s.Close()

	cmd, err := izone.NewSysOnCommand(nil, true)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Execute(context.Background(), cmd), ErrSessionClosed)
}

func TestSessionHandleNotification(t *testing.T) {
	ft := okTransport()
	s := newTestSession(ft)
	defer s.Close()

	require.NoError(t, s.HandleNotification(context.Background(), "System"))
	frames := ft.frames()
	require.NotEmpty(t, frames)
	assert.Contains(t, frames[0], `"Type":1`)
}
