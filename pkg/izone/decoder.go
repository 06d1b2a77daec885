// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package izone

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// DecodeStatus decodes one incoming status frame. Decoding is tolerant:
// a malformed field is reported in the returned FieldError slice and the
// rest of the payload still decodes, and unknown enum discriminants are
// kept as raw values. The only hard failures are unparseable JSON and a
// fixed-size array arriving with the wrong length.
func DecodeStatus(data []byte) (*StatusEnvelope, []FieldError, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	env := &StatusEnvelope{}
	var errs []FieldError

	if v, ok := raw["AirStreamDeviceUId"]; ok {
		if err := json.Unmarshal(v, &env.DeviceUID); err != nil {
			errs = append(errs, FieldError{Message: "envelope", Field: "AirStreamDeviceUId", Err: err})
		}
	}
	if v, ok := raw["DeviceType"]; ok {
		if err := json.Unmarshal(v, &env.DeviceType); err != nil {
			errs = append(errs, FieldError{Message: "envelope", Field: "DeviceType", Err: err})
		}
	}

	for name, decode := range payloadDecoders {
		body, ok := raw[name]
		if !ok {
			continue
		}
		ferrs, err := decode(env, body)
		if err != nil {
			return nil, errs, err
		}
		errs = append(errs, ferrs...)
	}

	errs = append(errs, sanityCheck(env)...)
	return env, errs, nil
}

var payloadDecoders = map[string]func(*StatusEnvelope, json.RawMessage) ([]FieldError, error){
	"SystemV2": func(e *StatusEnvelope, b json.RawMessage) ([]FieldError, error) {
		e.System = &SystemStatus{}
		return tolerantUnmarshal("SystemV2", b, e.System), nil
	},
	"ZonesV2": func(e *StatusEnvelope, b json.RawMessage) ([]FieldError, error) {
		if err := json.Unmarshal(b, &e.Zones); err != nil {
			return []FieldError{{Message: "ZonesV2", Field: "", Err: err}}, nil
		}
		// Full-array form must carry exactly MaxZones entries; shorter
		// arrays are allowed because zones arrive one at a time when
		// requested by index.
		if n := len(e.Zones); n > MaxZones {
			e.Zones = nil
			return nil, fmt.Errorf("%w: ZonesV2 carried %d entries (max %d)",
				ErrArrayLengthMismatch, n, MaxZones)
		}
		return nil, nil
	},
	"SchedulesV2": func(e *StatusEnvelope, b json.RawMessage) ([]FieldError, error) {
		e.Schedule = &ScheduleStatus{}
		errs := tolerantUnmarshal("SchedulesV2", b, e.Schedule)
		if n := len(e.Schedule.Zones); n != 0 && n != ScheduleZoneSlots {
			e.Schedule = nil
			return errs, fmt.Errorf("%w: SchedulesV2 zone array carried %d entries (want %d)",
				ErrArrayLengthMismatch, n, ScheduleZoneSlots)
		}
		return errs, nil
	},
	"AcUnitFaultHistV2": func(e *StatusEnvelope, b json.RawMessage) ([]FieldError, error) {
		e.FaultHist = &FaultHistStatus{}
		errs := tolerantUnmarshal("AcUnitFaultHistV2", b, e.FaultHist)
		if len(e.FaultHist.Faults) > MaxFaults {
			// Device truncation policy caps retained faults; keep the
			// newest entries rather than rejecting the payload.
			e.FaultHist.Faults = e.FaultHist.Faults[:MaxFaults]
		}
		return errs, nil
	},
	"TemperzoneInfoV2": func(e *StatusEnvelope, b json.RawMessage) ([]FieldError, error) {
		e.Temperzone = &TemperzoneInfo{}
		return tolerantUnmarshal("TemperzoneInfoV2", b, e.Temperzone), nil
	},
	"Fmw": func(e *StatusEnvelope, b json.RawMessage) ([]FieldError, error) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return []FieldError{{Message: "Fmw", Field: "Fmw", Err: err}}, nil
		}
		e.Firmware = &s
		return nil, nil
	},
	"PowerMonitorStatus": func(e *StatusEnvelope, b json.RawMessage) ([]FieldError, error) {
		e.PowerStat = &PowerMonitorStat{}
		errs := tolerantUnmarshal("PowerMonitorStatus", b, e.PowerStat)
		if n := len(e.PowerStat.Dev); n != PowerDevices {
			e.PowerStat = nil
			return errs, fmt.Errorf("%w: PowerMonitorStatus carried %d devices (want %d)",
				ErrArrayLengthMismatch, n, PowerDevices)
		}
		for i := range e.PowerStat.Dev {
			if n := len(e.PowerStat.Dev[i].Ch); n != PowerChannels {
				e.PowerStat = nil
				return errs, fmt.Errorf("%w: power device %d carried %d channels (want %d)",
					ErrArrayLengthMismatch, i, n, PowerChannels)
			}
		}
		return errs, nil
	},
	"PowerMonitorConfig": func(e *StatusEnvelope, b json.RawMessage) ([]FieldError, error) {
		e.PowerConf = &PowerMonitorConf{}
		errs := tolerantUnmarshal("PowerMonitorConfig", b, e.PowerConf)
		if n := len(e.PowerConf.Devices); n != PowerDevices {
			e.PowerConf = nil
			return errs, fmt.Errorf("%w: PowerMonitorConfig carried %d devices (want %d)",
				ErrArrayLengthMismatch, n, PowerDevices)
		}
		for i := range e.PowerConf.Devices {
			if n := len(e.PowerConf.Devices[i].Channels); n != PowerChannels {
				e.PowerConf = nil
				return errs, fmt.Errorf("%w: power device %d carried %d channels (want %d)",
					ErrArrayLengthMismatch, i, n, PowerChannels)
			}
		}
		return errs, nil
	},
}

// tolerantUnmarshal decodes a JSON object into dst field by field so a
// single malformed value does not lose the rest of the payload. dst must
// be a pointer to a struct with json tags.
func tolerantUnmarshal(msgName string, data []byte, dst interface{}) []FieldError {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []FieldError{{Message: msgName, Field: "", Err: err}}
	}

	var errs []FieldError
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name := strings.Split(tag, ",")[0]
		if name == "" || name == "-" {
			continue
		}
		body, ok := raw[name]
		if !ok {
			continue
		}
		// Decode into a scratch value first. Unmarshalling straight into
		// the field's address lets encoding/json allocate a pointer
		// field's inner value before the decode fails, leaving a non-nil
		// pointer to zero where "absent" is required.
		scratch := reflect.New(t.Field(i).Type)
		if err := json.Unmarshal(body, scratch.Interface()); err != nil {
			errs = append(errs, FieldError{Message: msgName, Field: name, Err: err})
			continue
		}
		v.Field(i).Set(scratch.Elem())
	}
	return errs
}

// sanityCheck flags decoded values outside their documented ranges.
// Firmware quirks are reported, never fatal; the reconciler still merges
// the payload.
func sanityCheck(env *StatusEnvelope) []FieldError {
	var errs []FieldError

	check := func(msg, field string, present bool, value int) {
		if !present {
			return
		}
		spec := fieldBounds(msg, field)
		if spec == nil || !spec.ranged() {
			return
		}
		if value < spec.Min || value > spec.Max {
			errs = append(errs, FieldError{
				Message: msg,
				Field:   field,
				Err:     fmt.Errorf("%w: %d outside [%d,%d]", ErrDecode, value, spec.Min, spec.Max),
			})
		}
	}

	if s := env.System; s != nil {
		check("SystemV2", "Supply", s.Supply != nil, iv((*int)(s.Supply)))
		check("SystemV2", "Temp", s.Temp != nil, iv((*int)(s.Temp)))
		check("SystemV2", "CtrlZone", s.CtrlZone != nil, iv(s.CtrlZone))
		check("SystemV2", "NoOfZones", s.NoOfZones != nil, iv(s.NoOfZones))
		check("SystemV2", "NoOfConst", s.NoOfConst != nil, iv(s.NoOfConst))
		check("SystemV2", "RfCh", s.RfCh != nil, iv(s.RfCh))
		check("SystemV2", "SleepTimer", s.SleepTimer != nil, iv(s.SleepTimer))
	}
	for i := range env.Zones {
		z := &env.Zones[i]
		check("ZonesV2", "MaxAir", z.MaxAir != nil, iv(z.MaxAir))
		check("ZonesV2", "MinAir", z.MinAir != nil, iv(z.MinAir))
		check("ZonesV2", "BalanceMax", z.BalanceMax != nil, iv(z.BalanceMax))
		check("ZonesV2", "BalanceMin", z.BalanceMin != nil, iv(z.BalanceMin))
	}
	if c := env.PowerConf; c != nil {
		check("PowerMonitorConfig", "Voltage", c.Voltage != nil, iv(c.Voltage))
		check("PowerMonitorConfig", "PF", c.PF != nil, iv(c.PF))
	}
	return errs
}

func iv(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func fieldBounds(msgName, fieldName string) *FieldSpec {
	s, err := Lookup(msgName)
	if err != nil {
		return nil
	}
	for i := range s.Fields {
		if s.Fields[i].Name == fieldName {
			return &s.Fields[i]
		}
	}
	return nil
}
