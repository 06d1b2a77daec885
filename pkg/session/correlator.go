// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airstream/izonectl/pkg/izone"
)

// Transport delivers one encoded frame to the controller and returns the
// raw response body. Implementations decide the carrier; the session only
// cares that responses come back as status JSON.
type Transport interface {
	Send(ctx context.Context, endpoint izone.Endpoint, kind izone.MessageKind, frame []byte) ([]byte, error)
}

var (
	// ErrUnexpectedResponse means the controller answered a request with
	// a different status payload than the request type asks for.
	ErrUnexpectedResponse = errors.New("unexpected response payload")

	// ErrUnconfirmed means a command was delivered but the follow-up read
	// failed, so the write may or may not have applied. The caller
	// should re-query before retrying.
	ErrUnconfirmed = errors.New("write unconfirmed")

	// ErrSessionClosed is returned for operations on a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// read sends a request and returns the decoded, applied response.
// Transport failures and mismatched responses are retried with
// exponential backoff; read requests are idempotent so re-sending is
// always safe.
func (s *Session) read(ctx context.Context, req *izone.Command) (*izone.StatusEnvelope, error) {
	frame, err := req.Encode()
	if err != nil {
		return nil, err
	}
	expect := req.ExpectedStatus()

	var lastErr error
	backoff := s.cfg.RetryBackoff
	for attempt := 0; attempt < s.cfg.ReadRetries; attempt++ {
		if attempt > 0 {
			s.log.Debug().
				Str("request", req.Name).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("retrying read")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		resp, err := s.cfg.Transport.Send(ctx, req.Endpoint, req.Kind, frame)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		env, err := s.HandleFrame(resp)
		if err != nil {
			lastErr = err
			continue
		}
		if expect != "" && env.MessageName() != expect {
			lastErr = fmt.Errorf("%w: got %q, want %q",
				ErrUnexpectedResponse, env.MessageName(), expect)
			continue
		}
		return env, nil
	}
	return nil, fmt.Errorf("%s failed after %d attempts: %w", req.Name, s.cfg.ReadRetries, lastErr)
}

// writeOp is one queued command with its completion future.
type writeOp struct {
	cmd  *izone.Command
	done chan error // buffered; the worker never blocks on it
}

// targetQueue serializes writes addressed to the same target key. The
// controller applies commands in arrival order per entity; overlapping
// writes to one zone would otherwise race on the wire.
type targetQueue struct {
	ops chan *writeOp
}

func (s *Session) queueFor(key string) *targetQueue {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	q, ok := s.queues[key]
	if !ok {
		q = &targetQueue{ops: make(chan *writeOp, 16)}
		s.queues[key] = q
		s.wg.Add(1)
		go s.runQueue(key, q)
	}
	return q
}

func (s *Session) runQueue(key string, q *targetQueue) {
	defer s.wg.Done()
	for {
		select {
		case op := <-q.ops:
			op.done <- s.perform(op.cmd)
		case <-s.closed:
			// Fail anything still queued rather than dropping silently.
			for {
				select {
				case op := <-q.ops:
					op.done <- ErrSessionClosed
				default:
					return
				}
			}
		}
	}
}

// perform delivers one command and confirms it with the covering read.
// It runs on the queue worker with its own deadline: a caller that gave
// up waiting detaches, but the command still resolves so the queue's
// order stays meaningful.
func (s *Session) perform(cmd *izone.Command) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	frame, err := cmd.Encode()
	if err != nil {
		return err
	}

	attempts := 1
	if s.cfg.RetryWrites && cmd.Idempotent {
		attempts = s.cfg.ReadRetries
	}

	var lastErr error
	backoff := s.cfg.RetryBackoff
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			s.log.Debug().
				Str("command", cmd.Name).
				Int("attempt", attempt+1).
				Msg("retrying idempotent write")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
		if _, lastErr = s.cfg.Transport.Send(ctx, cmd.Endpoint, cmd.Kind, frame); lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return fmt.Errorf("%s: %w", cmd.Name, lastErr)
	}

	cover, err := cmd.CoveringRequest()
	if err != nil {
		return nil
	}
	if _, err := s.read(ctx, cover); err != nil {
		s.log.Warn().Str("command", cmd.Name).Err(err).Msg("delivered but unconfirmed")
		return fmt.Errorf("%s: %w: %v", cmd.Name, ErrUnconfirmed, err)
	}
	return nil
}

// Execute queues a validated command and waits for its resolution. If ctx
// expires first the caller detaches; the command itself still runs to
// resolution on the queue.
func (s *Session) Execute(ctx context.Context, cmd *izone.Command) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}

	op := &writeOp{cmd: cmd, done: make(chan error, 1)}
	q := s.queueFor(cmd.TargetKey)

	select {
	case q.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closed:
		return ErrSessionClosed
	}

	select {
	case err := <-op.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
