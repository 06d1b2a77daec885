// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

// Package izone implements the iZone V2 JSON device-control protocol.
//
// iZone is a zoned HVAC control system with an optional power-monitoring
// subsystem. Controllers on the local network accept JSON commands and
// answer JSON status payloads. This package provides the protocol engine:
// typed enumerations, a field codec for the fixed-point and bounded wire
// values, a declarative schema registry for every documented message,
// strict command validation, and a tolerant status decoder.
//
// The package performs no I/O. Transport and per-controller state live in
// pkg/session.
package izone

// Fixed topology limits. The zone count is configurable per system up to
// MaxZones; the power monitor topology is always 5 devices of 3 channels.
const (
	MaxZones          = 14
	MaxSchedules      = 9
	MaxFaults         = 11
	PowerDevices      = 5
	PowerChannels     = 3
	ScheduleZoneSlots = 14
)

// String byte limits, terminator included.
const (
	MaxTagBytes      = 32
	MaxNameBytes     = 16
	MaxPassBytes     = 16
	MaxLockCodeBytes = 7 // 6 digits plus terminator
)

// CtrlZoneUnitSetpoint is the CtrlZone sentinel meaning the AC unit's own
// setpoint is in control rather than a zone sensor.
const CtrlZoneUnitSetpoint = 15

// Schedule time-of-day disable sentinels: hour 31 / minute 63 mean the
// start or stop time is not set.
const (
	SchedHourDisabled   = 31
	SchedMinuteDisabled = 63
)

// Default endpoint paths. Configurable per session; these match the
// controller firmware's documented routes.
const (
	EndpointACCommand    = "iZoneCommandV2"
	EndpointACRequest    = "iZoneRequestV2"
	EndpointPowerCommand = "PowerCommand"
	EndpointPowerRequest = "PowerRequest"
)

// Request type discriminants for iZoneV2Request.
const (
	RequestSystem     = 1
	RequestZone       = 2
	RequestSchedule   = 3
	RequestFaultHist  = 4
	RequestTemperzone = 5
	RequestFirmware   = 6
)

// Request type discriminants for PowerRequest.
const (
	RequestPowerConfig = 1
	RequestPowerStatus = 2
)

// SysMode represents the AC unit operating mode (SysMode_e).
type SysMode int

const (
	SysModeCool SysMode = 1
	SysModeHeat SysMode = 2
	SysModeVent SysMode = 3
	SysModeDry  SysMode = 4
	SysModeAuto SysMode = 5
)

// SysFan represents the AC unit fan speed (SysFan_e).
type SysFan int

const (
	SysFanLow  SysFan = 1
	SysFanMed  SysFan = 2
	SysFanHigh SysFan = 3
	SysFanAuto SysFan = 4
	SysFanTop  SysFan = 5

	// SysFanNonGasHeat is reported by universal (gas heat) units that have
	// no controllable fan speed.
	SysFanNonGasHeat SysFan = 99
)

// RASMode represents the return air sensor selection (ReturnAirSensor_e).
type RASMode int

const (
	RASModeRAS    RASMode = 1
	RASModeMaster RASMode = 2
	RASModeZones  RASMode = 3
)

// UnitBrand identifies the connected AC unit make (UnitBrand_e).
type UnitBrand int

const (
	BrandPanasonicToshiba UnitBrand = 1
	BrandDaikin           UnitBrand = 2
	BrandMitsubishiElec   UnitBrand = 3
	BrandLG301            UnitBrand = 4
	BrandLG310            UnitBrand = 5
	BrandFujitsu          UnitBrand = 6
	BrandSamsung          UnitBrand = 7
	BrandTemperzone       UnitBrand = 8
	BrandMitsubishiHeavy  UnitBrand = 9
	BrandGasHeatAddOnCool UnitBrand = 10
	BrandGeneric          UnitBrand = 11
	BrandUnknownUnit      UnitBrand = 12
	BrandHitachi          UnitBrand = 13
	BrandAAGenIII         UnitBrand = 14
	BrandFujitsuIntesis   UnitBrand = 15
	BrandLG485            UnitBrand = 16
	BrandYork             UnitBrand = 17
	BrandHaier            UnitBrand = 18
)

// GasHeatType identifies the universal controller unit type (GasHeatType_e).
type GasHeatType int

const (
	GasHeatHeatOnly1Fan      GasHeatType = 0
	GasHeatCoolOnly1Fan      GasHeatType = 1
	GasHeat1Heat1Cool1Fan    GasHeatType = 2
	GasHeat2Heat1Cool1Fan    GasHeatType = 3
	GasHeat1HeatPump1Fan     GasHeatType = 4
	GasHeat1HeatPump3Fan     GasHeatType = 5
	GasHeat1HeatPump1Heat    GasHeatType = 6
	GasHeat2HeatPump1Heat    GasHeatType = 7
	GasHeat1GasHeat          GasHeatType = 8
	GasHeat2GasHeat2Cool1Fan GasHeatType = 9
	GasHeatRemoteOnOff       GasHeatType = 10
	GasHeatAAGenIII          GasHeatType = 11
)

// FanAutoType identifies the fan type used by the fan auto function.
type FanAutoType int

const (
	FanAuto2Speed   FanAutoType = 0
	FanAuto3Speed   FanAutoType = 1
	FanAutoVarSpeed FanAutoType = 2
	FanAuto4Speed   FanAutoType = 3
)

// TemperzoneModeType identifies the expansion valve mode of a Temperzone unit.
type TemperzoneModeType int

const (
	TzModeNoExpansion     TemperzoneModeType = 0
	TzModeSingleExpansion TemperzoneModeType = 1
	TzModeSeriesExpansion TemperzoneModeType = 2
	TzModeDry             TemperzoneModeType = 3
)

// TemperzoneFanType identifies the fan type of a Temperzone unit.
type TemperzoneFanType int

const (
	TzFanVariableSpeed TemperzoneFanType = 0
	TzFan3Speed        TemperzoneFanType = 1
)

// OemMake identifies the system manufacturer (OemMake_e).
type OemMake int

const (
	OemAirstream OemMake = 0
	OemMetalflex OemMake = 1
	OemWestaflex OemMake = 2
)

// ZoneType represents a zone's configured control type (ZoneType_e).
type ZoneType int

const (
	ZoneTypeOpenClose ZoneType = 1
	ZoneTypeConstant  ZoneType = 2
	ZoneTypeAuto      ZoneType = 3
)

// ZoneMode represents a zone's current damper mode (ZoneMode_e).
type ZoneMode int

const (
	ZoneModeOpen     ZoneMode = 1
	ZoneModeClose    ZoneMode = 2
	ZoneModeAuto     ZoneMode = 3
	ZoneModeOverride ZoneMode = 4
	ZoneModeConstant ZoneMode = 5
)

// RfSignal represents a wireless sensor's signal level (RfSignalLevel_e).
type RfSignal int

const (
	RfSignalFull    RfSignal = 0
	RfSignalHalf    RfSignal = 1
	RfSignalQuarter RfSignal = 2
	RfSignalNone    RfSignal = 3
)

// SensorBattery represents a zone sensor battery level (BatteryLevel_e).
type SensorBattery int

const (
	SensorBattFull  SensorBattery = 0
	SensorBattHalf  SensorBattery = 1
	SensorBattEmpty SensorBattery = 2
)

// RoomSensorType identifies a zone's sensor hardware (RoomSensorType_t).
type RoomSensorType int

const (
	SensorCCTS RoomSensorType = 0
	SensorCSM  RoomSensorType = 1
	SensorCZCO RoomSensorType = 2
	SensorCRFS RoomSensorType = 3
	SensorCS   RoomSensorType = 4

	SensorNone RoomSensorType = 255
)

// PowerBattery represents a power monitor device battery level (CpmBatt_e).
type PowerBattery int

const (
	PowerBattCritical PowerBattery = 0 // reading < 600
	PowerBattLow      PowerBattery = 1 // 600-700
	PowerBattNormal   PowerBattery = 2 // 700-800
	PowerBattFull     PowerBattery = 3 // > 800
)

// UngroupedChannel is the GrNo value marking a power channel that belongs
// to no group.
const UngroupedChannel = 255

// FanCapability classifies which fan speeds the connected unit accepts,
// derived from the system's FanAutoEn/FanAutoType settings.
type FanCapability string

const (
	FanCapDisabled FanCapability = "disabled"
	FanCap2Speed   FanCapability = "2-speed"
	FanCap3Speed   FanCapability = "3-speed"
	FanCapVar      FanCapability = "var-speed"
	FanCapUnknown  FanCapability = "unknown"
)

// AllowedFans returns the SysFan values a unit with this capability accepts.
func (c FanCapability) AllowedFans() []SysFan {
	switch c {
	case FanCapDisabled:
		return []SysFan{SysFanLow, SysFanMed, SysFanHigh}
	case FanCap2Speed:
		return []SysFan{SysFanLow, SysFanHigh, SysFanAuto}
	case FanCap3Speed, FanCapVar:
		return []SysFan{SysFanLow, SysFanMed, SysFanHigh, SysFanAuto}
	default:
		return []SysFan{SysFanLow, SysFanMed, SysFanHigh, SysFanAuto, SysFanTop}
	}
}

func (m SysMode) String() string {
	switch m {
	case SysModeCool:
		return "cool"
	case SysModeHeat:
		return "heat"
	case SysModeVent:
		return "vent"
	case SysModeDry:
		return "dry"
	case SysModeAuto:
		return "auto"
	default:
		return unknownString(int(m))
	}
}

func (f SysFan) String() string {
	switch f {
	case SysFanLow:
		return "low"
	case SysFanMed:
		return "medium"
	case SysFanHigh:
		return "high"
	case SysFanAuto:
		return "auto"
	case SysFanTop:
		return "top"
	case SysFanNonGasHeat:
		return "none"
	default:
		return unknownString(int(f))
	}
}

func (r RASMode) String() string {
	switch r {
	case RASModeRAS:
		return "RAS"
	case RASModeMaster:
		return "master"
	case RASModeZones:
		return "zones"
	default:
		return unknownString(int(r))
	}
}

func (t ZoneType) String() string {
	switch t {
	case ZoneTypeOpenClose:
		return "opcl"
	case ZoneTypeConstant:
		return "const"
	case ZoneTypeAuto:
		return "auto"
	default:
		return unknownString(int(t))
	}
}

func (m ZoneMode) String() string {
	switch m {
	case ZoneModeOpen:
		return "open"
	case ZoneModeClose:
		return "close"
	case ZoneModeAuto:
		return "auto"
	case ZoneModeOverride:
		return "override"
	case ZoneModeConstant:
		return "constant"
	default:
		return unknownString(int(m))
	}
}

func (b PowerBattery) String() string {
	switch b {
	case PowerBattCritical:
		return "critical"
	case PowerBattLow:
		return "low"
	case PowerBattNormal:
		return "normal"
	case PowerBattFull:
		return "full"
	default:
		return unknownString(int(b))
	}
}

// ParseSysMode maps a mode name back to its discriminant. The inverse of
// SysMode.String for the known values.
func ParseSysMode(s string) (SysMode, bool) {
	for m := SysModeCool; m <= SysModeAuto; m++ {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}

// ParseSysFan maps a fan name back to its discriminant.
func ParseSysFan(s string) (SysFan, bool) {
	for _, f := range []SysFan{SysFanLow, SysFanMed, SysFanHigh, SysFanAuto, SysFanTop} {
		if f.String() == s {
			return f, true
		}
	}
	return 0, false
}

// ParseZoneMode maps a zone mode name back to its discriminant.
func ParseZoneMode(s string) (ZoneMode, bool) {
	for m := ZoneModeOpen; m <= ZoneModeConstant; m++ {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}
