// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package izone

import (
	"fmt"
	"math"
)

// Temperature is a fixed-point temperature in hundredths of a degree
// Celsius, the controller's native representation. A wire value of 2350
// is 23.50 degrees.
type Temperature int

// TempFromCelsius converts a decimal temperature to its wire value,
// rounding to the nearest hundredth.
func TempFromCelsius(c float64) Temperature {
	return Temperature(math.Round(c * 100))
}

// Celsius returns the decoded decimal temperature.
func (t Temperature) Celsius() float64 {
	return float64(t) / 100
}

func (t Temperature) String() string {
	return fmt.Sprintf("%.2f°C", t.Celsius())
}

// ClockTime is a schedule time of day encoded as hours*100+minutes.
// The controller marks an unset time with hour 31 and minute 63.
type ClockTime int

// ClockTimeDisabled is the wire value of an unset schedule time.
const ClockTimeDisabled ClockTime = SchedHourDisabled*100 + SchedMinuteDisabled

// NewClockTime builds a time-of-day wire value.
func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: hour %d", ErrBadClockTime, hour)
	}
	if minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: minute %d", ErrBadClockTime, minute)
	}
	return ClockTime(hour*100 + minute), nil
}

// Disabled reports whether this time carries the 31/63 disable sentinel
// in either position.
func (c ClockTime) Disabled() bool {
	return c.Hour() == SchedHourDisabled || c.Minute() == SchedMinuteDisabled
}

// Hour returns the encoded hour, 31 when disabled.
func (c ClockTime) Hour() int {
	return int(c) / 100
}

// Minute returns the encoded minute, 63 when disabled.
func (c ClockTime) Minute() int {
	return int(c) % 100
}

func (c ClockTime) String() string {
	if c.Disabled() {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// ScheduleSetpoint is the per-zone entry of a schedule's 14-slot zone
// array. The wire value is either a ZoneMode sentinel (open/close) or
// value*50 giving the setpoint in hundredths.
type ScheduleSetpoint int

// IsMode reports whether the entry encodes a damper mode rather than a
// setpoint.
func (s ScheduleSetpoint) IsMode() bool {
	return s == ScheduleSetpoint(ZoneModeOpen) || s == ScheduleSetpoint(ZoneModeClose)
}

// Mode returns the encoded damper mode; only meaningful when IsMode.
func (s ScheduleSetpoint) Mode() ZoneMode {
	return ZoneMode(s)
}

// Setpoint returns the encoded setpoint temperature; only meaningful when
// !IsMode.
func (s ScheduleSetpoint) Setpoint() Temperature {
	return Temperature(int(s) * 50)
}

// EncodeString checks a bounded wire string. maxBytes includes the
// implicit terminator, so the longest accepted value is maxBytes-1 bytes
// of UTF-8.
func EncodeString(s string, maxBytes int) (string, error) {
	if len(s)+1 > maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d including terminator)",
			ErrFieldTooLong, len(s), maxBytes)
	}
	return s, nil
}

// DecodeString normalizes an incoming bounded string, truncating anything
// past the declared limit. Status decoding never hard-fails on an
// oversized string.
func DecodeString(s string, maxBytes int) string {
	if len(s)+1 > maxBytes {
		return s[:maxBytes-1]
	}
	return s
}

// flag converts the protocol's 0/1 integers to bool. Any non-zero value
// reads as set, matching firmware behavior.
func flag(v int) bool {
	return v != 0
}

func flagInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unknownString(raw int) string {
	return fmt.Sprintf("unknown(%d)", raw)
}

// enumSet is the declared discriminant list of one protocol enumeration.
// Unknown values are preserved when decoding status payloads and rejected
// when validating commands.
type enumSet struct {
	name   string
	values []int
}

func (e *enumSet) contains(v int) bool {
	for _, d := range e.values {
		if d == v {
			return true
		}
	}
	return false
}

func span(lo, hi int) []int {
	vs := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		vs = append(vs, v)
	}
	return vs
}

var (
	enumOnOff      = &enumSet{name: "SysOn_e", values: []int{0, 1}}
	enumSysMode    = &enumSet{name: "SysMode_e", values: span(1, 5)}
	enumSysFan     = &enumSet{name: "SysFan_e", values: append(span(1, 5), int(SysFanNonGasHeat))}
	enumRAS        = &enumSet{name: "ReturnAirSensor_e", values: span(1, 3)}
	enumUnitBrand  = &enumSet{name: "UnitBrand_e", values: span(1, 18)}
	enumGasHeat    = &enumSet{name: "GasHeatType_e", values: span(0, 11)}
	enumFanAuto    = &enumSet{name: "FanAutoType_e", values: span(0, 3)}
	enumTzMode     = &enumSet{name: "TemperzoneModeType_t", values: span(0, 3)}
	enumTzFan      = &enumSet{name: "TemperzoneFanType_t", values: []int{0, 1}}
	enumOemMake    = &enumSet{name: "OemMake_e", values: span(0, 2)}
	enumZoneType   = &enumSet{name: "ZoneType_e", values: span(1, 3)}
	enumZoneMode   = &enumSet{name: "ZoneMode_e", values: span(1, 5)}
	enumRfSignal   = &enumSet{name: "RfSignalLevel_e", values: span(0, 3)}
	enumSensorBatt = &enumSet{name: "BatteryLevel_e", values: span(0, 2)}
	enumRoomSensor = &enumSet{name: "RoomSensorType_t", values: append(span(0, 4), int(SensorNone))}
	enumPowerBatt  = &enumSet{name: "CpmBatt_e", values: span(0, 3)}
)

// Known reports whether the value is a declared discriminant. Values
// decoded from newer firmware may be unknown; they keep their raw value
// and String renders them as unknown(n).
func (m SysMode) Known() bool            { return enumSysMode.contains(int(m)) }
func (f SysFan) Known() bool             { return enumSysFan.contains(int(f)) }
func (r RASMode) Known() bool            { return enumRAS.contains(int(r)) }
func (b UnitBrand) Known() bool          { return enumUnitBrand.contains(int(b)) }
func (g GasHeatType) Known() bool        { return enumGasHeat.contains(int(g)) }
func (f FanAutoType) Known() bool        { return enumFanAuto.contains(int(f)) }
func (m TemperzoneModeType) Known() bool { return enumTzMode.contains(int(m)) }
func (f TemperzoneFanType) Known() bool  { return enumTzFan.contains(int(f)) }
func (o OemMake) Known() bool            { return enumOemMake.contains(int(o)) }
func (t ZoneType) Known() bool           { return enumZoneType.contains(int(t)) }
func (m ZoneMode) Known() bool           { return enumZoneMode.contains(int(m)) }
func (s RfSignal) Known() bool           { return enumRfSignal.contains(int(s)) }
func (b SensorBattery) Known() bool      { return enumSensorBatt.contains(int(b)) }
func (t RoomSensorType) Known() bool     { return enumRoomSensor.contains(int(t)) }
func (b PowerBattery) Known() bool       { return enumPowerBatt.contains(int(b)) }
