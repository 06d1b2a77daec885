// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package izone

import (
	"errors"
	"fmt"
)

// Sentinel errors for the protocol engine. Validation and encode errors
// are returned to the caller before anything reaches the transport; decode
// problems on status payloads are reported as FieldError values and never
// abort the rest of the payload.
var (
	ErrSchemaNotFound      = errors.New("message schema not found")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrFieldTooLong        = errors.New("string field too long")
	ErrArrayLengthMismatch = errors.New("array length mismatch")
	ErrBadClockTime        = errors.New("invalid time of day")
	ErrNotACommand         = errors.New("message is not a command")
	ErrDecode              = errors.New("malformed wire value")
)

// ValidationError rejects one candidate field of a command.
type ValidationError struct {
	Message string // message name
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field %q: %s", e.Message, e.Field, e.Reason)
}

// CrossFieldError rejects a command whose fields are individually valid
// but violate a relationship, such as BalanceMin >= BalanceMax.
type CrossFieldError struct {
	Message string
	Fields  []string
	Reason  string
}

func (e *CrossFieldError) Error() string {
	return fmt.Sprintf("%s: fields %v: %s", e.Message, e.Fields, e.Reason)
}

// FieldError records a single malformed field found while decoding a
// status payload. The surrounding payload still decodes; callers surface
// these as partial-decode events.
type FieldError struct {
	Message string
	Field   string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: field %q: %v", e.Message, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
