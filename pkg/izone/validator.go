// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package izone

import (
	"fmt"
	"reflect"
)

// Values holds candidate field values for a command, keyed by wire field
// name. Scalar commands use the message name itself as the key.
type Values map[string]interface{}

// StateView exposes the parts of the current snapshot the validator needs
// for topology and cross-field checks. A nil view falls back to the
// static topology limits, so validation stays possible before the first
// status fetch.
type StateView interface {
	// ZoneCount returns the system's configured NoOfZones, or 0 when not
	// yet known.
	ZoneCount() int

	// ZoneBalance returns the last known balance band of a zone.
	ZoneBalance(index int) (min, max int, ok bool)

	// ZoneAirLimits returns the last known min/max airflow of a zone.
	ZoneAirLimits(index int) (min, max int, ok bool)

	// EcoBounds returns the economy lock band. locked is false when the
	// lock is off or state is unknown.
	EcoBounds() (min, max Temperature, locked bool)

	// FanCapability classifies which fan speeds the unit accepts.
	FanCapability() FanCapability
}

// Validator checks candidate commands against the schema registry and the
// current device state before anything is transmitted. Violations are
// rejected, never silently corrected: rounding a setpoint would apply a
// different temperature than the caller asked for.
type Validator struct {
	view StateView
}

// NewValidator creates a validator over the given state view. The view
// may be nil.
func NewValidator(view StateView) *Validator {
	return &Validator{view: view}
}

// Validate checks the candidate values for the named command or request
// and returns the encodable Command.
func (v *Validator) Validate(name string, values Values) (*Command, error) {
	schema, err := Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	if schema.Kind == KindStatus {
		return nil, fmt.Errorf("%q: %w", name, ErrNotACommand)
	}

	for key := range values {
		if schema.field(key) == nil {
			return nil, &ValidationError{Message: name, Field: key, Reason: "unknown field"}
		}
	}

	for i := range schema.Fields {
		spec := &schema.Fields[i]
		raw, ok := values[spec.Name]
		if !ok {
			if spec.Required {
				return nil, &ValidationError{Message: name, Field: spec.Name, Reason: "required field missing"}
			}
			continue
		}
		if err := v.validateField(name, spec, raw); err != nil {
			return nil, err
		}
	}

	if err := v.crossCheck(name, values); err != nil {
		return nil, err
	}

	return newCommand(schema, values), nil
}

func (s *MessageSchema) field(name string) *FieldSpec {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

func (v *Validator) validateField(msg string, spec *FieldSpec, raw interface{}) error {
	switch spec.Kind {
	case KindInt, KindTemp, KindClock:
		n, ok := toInt(raw)
		if !ok {
			return &ValidationError{Message: msg, Field: spec.Name, Reason: "not an integer"}
		}
		if spec.Index != IndexNone {
			return v.checkIndex(msg, spec, n)
		}
		if spec.Kind == KindClock {
			return checkClock(msg, spec.Name, n)
		}
		return v.checkNumeric(msg, spec, n)

	case KindEnum:
		n, ok := toInt(raw)
		if !ok {
			return &ValidationError{Message: msg, Field: spec.Name, Reason: "not an integer"}
		}
		if !spec.Enum.contains(n) {
			return &ValidationError{
				Message: msg,
				Field:   spec.Name,
				Reason:  fmt.Sprintf("%d is not a declared %s value", n, spec.Enum.name),
			}
		}
		return nil

	case KindFlag:
		switch val := raw.(type) {
		case bool:
			return nil
		case int:
			if val == 0 || val == 1 {
				return nil
			}
		}
		return &ValidationError{Message: msg, Field: spec.Name, Reason: "must be a 0/1 flag"}

	case KindString:
		s, ok := raw.(string)
		if !ok {
			return &ValidationError{Message: msg, Field: spec.Name, Reason: "not a string"}
		}
		if _, err := EncodeString(s, spec.MaxBytes); err != nil {
			return &ValidationError{
				Message: msg,
				Field:   spec.Name,
				Reason:  fmt.Sprintf("%d bytes exceeds limit of %d including terminator", len(s), spec.MaxBytes),
			}
		}
		return nil

	case KindObject:
		nested, ok := raw.(Values)
		if !ok {
			return &ValidationError{Message: msg, Field: spec.Name, Reason: "not an object"}
		}
		for i := range spec.Fields {
			sub := &spec.Fields[i]
			subRaw, present := nested[sub.Name]
			if !present {
				if sub.Required {
					return &ValidationError{Message: msg, Field: spec.Name + "." + sub.Name, Reason: "required field missing"}
				}
				continue
			}
			if err := v.validateField(msg, sub, subRaw); err != nil {
				return err
			}
		}
		return nil

	case KindArray:
		items, ok := raw.([]Values)
		if !ok {
			return &ValidationError{Message: msg, Field: spec.Name, Reason: "not an array"}
		}
		if spec.Len > 0 && len(items) != spec.Len && !spec.PartialOK {
			return fmt.Errorf("%s: field %q: %w: %d entries (want %d)",
				msg, spec.Name, ErrArrayLengthMismatch, len(items), spec.Len)
		}
		if spec.Elem != nil {
			for i, item := range items {
				elem := *spec.Elem
				elem.Name = fmt.Sprintf("%s[%d]", spec.Name, i)
				if err := v.validateField(msg, &elem, item); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return &ValidationError{Message: msg, Field: spec.Name, Reason: "unsupported field kind"}
}

// checkNumeric enforces range, step and discrete-value constraints. Steps
// are checked as (value-min)%step == 0.
func (v *Validator) checkNumeric(msg string, spec *FieldSpec, n int) error {
	for _, allowed := range spec.Values {
		if n == allowed {
			return nil
		}
	}
	if !spec.ranged() {
		if len(spec.Values) > 0 {
			return &ValidationError{
				Message: msg, Field: spec.Name,
				Reason: fmt.Sprintf("%d is not one of %v", n, spec.Values),
			}
		}
		return nil
	}
	if n < spec.Min || n > spec.Max {
		return &ValidationError{
			Message: msg, Field: spec.Name,
			Reason: fmt.Sprintf("%d outside [%d,%d]", n, spec.Min, spec.Max),
		}
	}
	if spec.Step > 0 && (n-spec.Min)%spec.Step != 0 {
		return &ValidationError{
			Message: msg, Field: spec.Name,
			Reason: fmt.Sprintf("%d not aligned to step %d from %d", n, spec.Step, spec.Min),
		}
	}
	return nil
}

// checkIndex validates an index field against the live topology. The
// device silently ignores out-of-range indices, which would otherwise
// surface as a confusing no-op. Discrete Values list sentinels such as
// the unit-setpoint control zone.
func (v *Validator) checkIndex(msg string, spec *FieldSpec, n int) error {
	for _, allowed := range spec.Values {
		if n == allowed {
			return nil
		}
	}
	limit := 0
	switch spec.Index {
	case IndexZone:
		limit = MaxZones
		if v.view != nil {
			if zc := v.view.ZoneCount(); zc > 0 {
				limit = zc
			}
		}
	case IndexSchedule:
		limit = MaxSchedules
	case IndexPowerDevice:
		limit = PowerDevices
	case IndexPowerChannel:
		limit = PowerChannels
	}
	if n < 0 || n >= limit {
		return fmt.Errorf("%s: field %q: %w: %d (limit %d)", msg, spec.Name, ErrIndexOutOfRange, n, limit)
	}
	return nil
}

func checkClock(msg, field string, n int) error {
	c := ClockTime(n)
	if c.Disabled() {
		if c.Hour() == SchedHourDisabled && c.Minute() == SchedMinuteDisabled {
			return nil
		}
		return &ValidationError{Message: msg, Field: field, Reason: "disable sentinel must set both hour 31 and minute 63"}
	}
	if c.Hour() > 23 || c.Minute() > 59 || n < 0 {
		return &ValidationError{Message: msg, Field: field, Reason: fmt.Sprintf("%d is not a valid hhmm time", n)}
	}
	return nil
}

// crossCheck enforces relationships between fields, including against the
// last known device state. Checked together rather than per field so a
// pair that is individually in range still rejects.
func (v *Validator) crossCheck(name string, values Values) error {
	switch name {
	case "BalanceMin":
		min, _ := toInt(values["Min"])
		idx, _ := toInt(values["Index"])
		if v.view != nil {
			if _, curMax, ok := v.view.ZoneBalance(idx); ok && min >= curMax {
				return &CrossFieldError{
					Message: name, Fields: []string{"Min"},
					Reason: fmt.Sprintf("min %d must stay below zone %d balance max %d", min, idx, curMax),
				}
			}
		}
	case "BalanceMax":
		max, _ := toInt(values["Max"])
		idx, _ := toInt(values["Index"])
		if v.view != nil {
			if curMin, _, ok := v.view.ZoneBalance(idx); ok && max <= curMin {
				return &CrossFieldError{
					Message: name, Fields: []string{"Max"},
					Reason: fmt.Sprintf("max %d must stay above zone %d balance min %d", max, idx, curMin),
				}
			}
		}
	case "ZoneMinAir":
		min, _ := toInt(values["MinAir"])
		idx, _ := toInt(values["Index"])
		if v.view != nil {
			if _, curMax, ok := v.view.ZoneAirLimits(idx); ok && min >= curMax {
				return &CrossFieldError{
					Message: name, Fields: []string{"MinAir"},
					Reason: fmt.Sprintf("min air %d must stay below zone %d max air %d", min, idx, curMax),
				}
			}
		}
	case "ZoneMaxAir":
		max, _ := toInt(values["MaxAir"])
		idx, _ := toInt(values["Index"])
		if v.view != nil {
			if curMin, _, ok := v.view.ZoneAirLimits(idx); ok && max <= curMin {
				return &CrossFieldError{
					Message: name, Fields: []string{"MaxAir"},
					Reason: fmt.Sprintf("max air %d must stay above zone %d min air %d", max, idx, curMin),
				}
			}
		}
	case "EconomyMin":
		n, _ := toInt(values[name])
		if v.view != nil {
			if _, max, locked := v.view.EcoBounds(); locked && Temperature(n) > max {
				return &CrossFieldError{
					Message: name, Fields: []string{name},
					Reason: fmt.Sprintf("economy min %s above economy max %s", Temperature(n), max),
				}
			}
		}
	case "EconomyMax":
		n, _ := toInt(values[name])
		if v.view != nil {
			if min, _, locked := v.view.EcoBounds(); locked && Temperature(n) < min {
				return &CrossFieldError{
					Message: name, Fields: []string{name},
					Reason: fmt.Sprintf("economy max %s below economy min %s", Temperature(n), min),
				}
			}
		}
	case "SysSetpoint", "ZoneSetpoint":
		field := name
		if name == "ZoneSetpoint" {
			field = "Setpoint"
		}
		n, _ := toInt(values[field])
		if v.view != nil {
			if min, max, locked := v.view.EcoBounds(); locked && (Temperature(n) < min || Temperature(n) > max) {
				return &CrossFieldError{
					Message: name, Fields: []string{field},
					Reason: fmt.Sprintf("setpoint %s outside economy lock band [%s,%s]", Temperature(n), min, max),
				}
			}
		}
	case "SchedSettings":
		for _, pair := range [][2]string{{"StartH", "StartM"}, {"StopH", "StopM"}} {
			h, _ := toInt(values[pair[0]])
			m, _ := toInt(values[pair[1]])
			if (h == SchedHourDisabled) != (m == SchedMinuteDisabled) {
				return &CrossFieldError{
					Message: name, Fields: []string{pair[0], pair[1]},
					Reason: "disable sentinel must set both hour 31 and minute 63",
				}
			}
		}
	case "SysFan":
		n, _ := toInt(values[name])
		if v.view != nil {
			cap := v.view.FanCapability()
			if cap != FanCapUnknown && cap != "" {
				for _, f := range cap.AllowedFans() {
					if SysFan(n) == f {
						return nil
					}
				}
				return &CrossFieldError{
					Message: name, Fields: []string{name},
					Reason: fmt.Sprintf("fan %s not available on a %s unit", SysFan(n), cap),
				}
			}
		}
	}
	return nil
}

// toInt accepts plain ints, the package's named integer types and whole
// floats (JSON round-trips).
func toInt(raw interface{}) (int, bool) {
	switch n := raw.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	}
	rv := reflect.ValueOf(raw)
	if rv.IsValid() && rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Int64 {
		return int(rv.Int()), true
	}
	return 0, false
}
