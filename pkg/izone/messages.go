// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package izone

import (
	"encoding/json"
	"fmt"
)

// Status payload models. Fields are pointers because the controller may
// send any subset; the reconciler merges only the fields present. Enum
// typed fields keep unknown discriminants as-is (see Known on each type).

// StatusEnvelope is the outer object of every status payload. Exactly one
// of the payload members is set per message.
type StatusEnvelope struct {
	DeviceUID  string `json:"AirStreamDeviceUId"`
	DeviceType string `json:"DeviceType"`

	System     *SystemStatus      `json:"SystemV2,omitempty"`
	Zones      ZoneStatusList     `json:"ZonesV2,omitempty"`
	Schedule   *ScheduleStatus    `json:"SchedulesV2,omitempty"`
	FaultHist  *FaultHistStatus   `json:"AcUnitFaultHistV2,omitempty"`
	Temperzone *TemperzoneInfo    `json:"TemperzoneInfoV2,omitempty"`
	Firmware   *string            `json:"Fmw,omitempty"`
	PowerStat  *PowerMonitorStat  `json:"PowerMonitorStatus,omitempty"`
	PowerConf  *PowerMonitorConf  `json:"PowerMonitorConfig,omitempty"`
}

// MessageName returns the name of the payload member carried by the
// envelope, or "" when the envelope is empty.
func (e *StatusEnvelope) MessageName() string {
	switch {
	case e.System != nil:
		return "SystemV2"
	case e.Zones != nil:
		return "ZonesV2"
	case e.Schedule != nil:
		return "SchedulesV2"
	case e.FaultHist != nil:
		return "AcUnitFaultHistV2"
	case e.Temperzone != nil:
		return "TemperzoneInfoV2"
	case e.Firmware != nil:
		return "Fmw"
	case e.PowerStat != nil:
		return "PowerMonitorStatus"
	case e.PowerConf != nil:
		return "PowerMonitorConfig"
	}
	return ""
}

// SystemStatus is the SystemV2 payload.
type SystemStatus struct {
	SysOn      *int         `json:"SysOn,omitempty"`
	SysMode    *SysMode     `json:"SysMode,omitempty"`
	SysFan     *SysFan      `json:"SysFan,omitempty"`
	SleepTimer *int         `json:"SleepTimer,omitempty"`
	Supply     *Temperature `json:"Supply,omitempty"`
	Setpoint   *Temperature `json:"Setpoint,omitempty"`
	Temp       *Temperature `json:"Temp,omitempty"`
	RAS        *RASMode     `json:"RAS,omitempty"`
	CtrlZone   *int         `json:"CtrlZone,omitempty"`
	Tag1       *string      `json:"Tag1,omitempty"`
	Tag2       *string      `json:"Tag2,omitempty"`
	Warnings   *string      `json:"Warnings,omitempty"`
	ACError    *string      `json:"ACError,omitempty"`
	EcoLock    *int         `json:"EcoLock,omitempty"`
	EcoMax     *Temperature `json:"EcoMax,omitempty"`
	EcoMin     *Temperature `json:"EcoMin,omitempty"`
	NoOfConst  *int         `json:"NoOfConst,omitempty"`
	NoOfZones  *int         `json:"NoOfZones,omitempty"`
	SysType    *int         `json:"SysType,omitempty"`

	ISaveEnable        *int         `json:"iSaveEnable,omitempty"`
	ISaveOn            *int         `json:"iSaveOn,omitempty"`
	LockStatus         *int         `json:"LockStatus,omitempty"`
	LockOn             *int         `json:"LockOn,omitempty"`
	FanAutoEn          *int         `json:"FanAutoEn,omitempty"`
	FanAutoType        *FanAutoType `json:"FanAutoType,omitempty"`
	FanCapacity        *int         `json:"FanCapacity,omitempty"`
	FanUnitCap         *int         `json:"FanUnitCapacity,omitempty"`
	FilterWarn         *int         `json:"FilterWarn,omitempty"`
	IZoneOnOff         *int         `json:"iZoneOnOff,omitempty"`
	IZoneMode          *int         `json:"iZoneMode,omitempty"`
	IZoneFan           *int         `json:"iZoneFan,omitempty"`
	IZoneSetp          *int         `json:"iZoneSetpoint,omitempty"`
	ExtOnOff           *int         `json:"ExtOnOff,omitempty"`
	ExtMode            *int         `json:"ExtMode,omitempty"`
	ExtFan             *int         `json:"ExtFan,omitempty"`
	ExtSetpoint        *int         `json:"ExtSetpoint,omitempty"`
	DamperTime         *int         `json:"DamperTime,omitempty"`
	AutoOff            *int         `json:"AutoOff,omitempty"`
	RoomTempDisp       *int         `json:"RoomTempDisp,omitempty"`
	RfCh               *int         `json:"RfCh,omitempty"`
	AutoModeDeadB      *int         `json:"AutoModeDeadB,omitempty"`
	WiredLeds          *int         `json:"WiredLeds,omitempty"`
	AirflowLock        *int         `json:"AirflowLock,omitempty"`
	AirflowMinLock     *int         `json:"AirflowMinLock,omitempty"`
	OutOfViewRAS       *int         `json:"OutOfViewRAS,omitempty"`
	AcUnitBrand        *UnitBrand   `json:"AcUnitBrand,omitempty"`
	OemMake            *OemMake     `json:"OemMake,omitempty"`
	HideInduct         *int         `json:"HideInduct,omitempty"`
	ReverseDampers     *int         `json:"ReverseDampers,omitempty"`
	Scrooge            *int         `json:"Scrooge,omitempty"`
	Pass               *string      `json:"Pass,omitempty"`
	CnstCtrlAreaEn     *int         `json:"CnstCtrlAreaEn,omitempty"`
	CnstCtrlArea       *int         `json:"CnstCtrlArea,omitempty"`
	StaticP            *int         `json:"StaticP,omitempty"`
	OpenDampersWhenOff *int         `json:"OpenDampersWhenOff,omitempty"`
	ShowActTemps       *int         `json:"ShowActTemps,omitempty"`
	FanAuto            *string      `json:"FanAuto,omitempty"`

	UnitOpt    *UnitOptStatus    `json:"UnitOpt,omitempty"`
	Temperzone *TemperzoneStatus `json:"Temperzone,omitempty"`
	GasHeat    *GasHeatStatus    `json:"GasHeat,omitempty"`
}

// UnitOptStatus is the SystemV2 UnitOpt sub-object: which sensor and
// history options the installer UI should expose.
type UnitOptStatus struct {
	RA       *int `json:"RA,omitempty"`
	Master   *int `json:"Master,omitempty"`
	Zones    *int `json:"Zones,omitempty"`
	History  *int `json:"History,omitempty"`
	SlaveOpt *int `json:"SlaveOpt,omitempty"`
}

// TemperzoneStatus is the SystemV2 Temperzone sub-object.
type TemperzoneStatus struct {
	HeatSetpoint *Temperature        `json:"HeatSetpoint,omitempty"`
	CoolSetpoint *Temperature        `json:"CoolSetpoint,omitempty"`
	FanType      *TemperzoneFanType  `json:"FanType,omitempty"`
	ModeType     *TemperzoneModeType `json:"ModeType,omitempty"`
	Quiet        *int                `json:"Quiet,omitempty"`
}

// GasHeatStatus is the SystemV2 GasHeat sub-object.
type GasHeatStatus struct {
	Type          *GasHeatType `json:"Type,omitempty"`
	MinRunTime    *int         `json:"MinRunTime,omitempty"`
	AnticycleTime *int         `json:"AnticycleTime,omitempty"`
	StageOffset   *int         `json:"StageOffset,omitempty"`
	StageDelay    *int         `json:"StageDelay,omitempty"`
	CycleFanCool  *int         `json:"CycleFanCool,omitempty"`
	CycleFanHeat  *int         `json:"CycleFanHeat,omitempty"`
}

// ZoneStatus is one zone's ZonesV2 payload.
type ZoneStatus struct {
	Index       *int            `json:"Index,omitempty"`
	Name        *string         `json:"Name,omitempty"`
	ZoneType    *ZoneType       `json:"ZoneType,omitempty"`
	SensType    *RoomSensorType `json:"SensType,omitempty"`
	Mode        *ZoneMode       `json:"Mode,omitempty"`
	Setpoint    *Temperature    `json:"Setpoint,omitempty"`
	Temp        *Temperature    `json:"Temp,omitempty"`
	MaxAir      *int            `json:"MaxAir,omitempty"`
	MinAir      *int            `json:"MinAir,omitempty"`
	Const       *int            `json:"Const,omitempty"`
	ConstActive *int            `json:"ConstA,omitempty"`
	Master      *int            `json:"Master,omitempty"`
	DamperFault *int            `json:"DmpFlt,omitempty"`
	ISense      *int            `json:"iSense,omitempty"`
	Area        *int            `json:"Area,omitempty"`
	Calibration *int            `json:"Calibration,omitempty"`
	Bypass      *int            `json:"Bypass,omitempty"`
	DamperPos   *int            `json:"DmpPos,omitempty"`
	RfSignal    *RfSignal       `json:"RfSignal,omitempty"`
	BattVolt    *SensorBattery  `json:"BattVolt,omitempty"`
	SensorFault *int            `json:"SensorFault,omitempty"`
	BalanceMax  *int            `json:"BalanceMax,omitempty"`
	BalanceMin  *int            `json:"BalanceMin,omitempty"`
	DamperSkip  *int            `json:"DamperSkip,omitempty"`
}

// ZoneStatusList accepts both forms the firmware emits: a bare object for
// a single zone and an array when several zones arrive together.
type ZoneStatusList []ZoneStatus

// UnmarshalJSON implements the object-or-array tolerance.
func (l *ZoneStatusList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var zs []ZoneStatus
		if err := json.Unmarshal(data, &zs); err != nil {
			return err
		}
		*l = zs
		return nil
	}
	var z ZoneStatus
	if err := json.Unmarshal(data, &z); err != nil {
		return err
	}
	*l = ZoneStatusList{z}
	return nil
}

// ScheduleStatus is the SchedulesV2 payload for one favourite.
type ScheduleStatus struct {
	Index   *int       `json:"Index,omitempty"`
	Name    *string    `json:"Name,omitempty"`
	Active  *int       `json:"Active,omitempty"`
	Exists  *string    `json:"Exists,omitempty"`
	Execute *string    `json:"Execute,omitempty"`
	Start   *ClockTime `json:"Start,omitempty"`
	Stop    *ClockTime `json:"Stop,omitempty"`
	Mon     *int       `json:"M,omitempty"`
	Tue     *int       `json:"Tu,omitempty"`
	Wed     *int       `json:"W,omitempty"`
	Thu     *int       `json:"Th,omitempty"`
	Fri     *int       `json:"F,omitempty"`
	Sat     *int       `json:"Sa,omitempty"`
	Sun     *int       `json:"Su,omitempty"`

	Zones []ScheduleZoneStatus `json:"Zones,omitempty"`
}

// ScheduleZoneStatus is one of the 14 per-zone slots of a schedule.
type ScheduleZoneStatus struct {
	Sp ScheduleSetpoint `json:"Sp"`
}

// FaultHistStatus is the AcUnitFaultHistV2 payload. The device retains
// the 11 most recent faults.
type FaultHistStatus struct {
	Faults []FaultStatus `json:"Faults"`
}

// FaultStatus is one fault record. The device splits the timestamp into
// calendar fields; Min carries the minute because "M" is already taken by
// the month.
type FaultStatus struct {
	Code   string `json:"Code"`
	Day    int    `json:"D"`
	Month  int    `json:"M"`
	Year   int    `json:"Y"`
	Hour   int    `json:"H"`
	Minute int    `json:"Min"`
}

func (f FaultStatus) String() string {
	return fmt.Sprintf("%s at %04d-%02d-%02d %02d:%02d",
		f.Code, f.Year, f.Month, f.Day, f.Hour, f.Minute)
}

// TemperzoneInfo is the TemperzoneInfoV2 payload. The sub-objects are
// large diagnostic maps; they are carried through without field-level
// typing since they are read-only display data.
type TemperzoneInfo struct {
	Temps        map[string]int `json:"Temps,omitempty"`
	Outputs      map[string]int `json:"Outputs,omitempty"`
	Thermostats  map[string]int `json:"Thermostats,omitempty"`
	UC8          map[string]int `json:"UC8,omitempty"`
	History8     map[string]int `json:"History8,omitempty"`
	InputStatus  map[string]int `json:"InputStatus,omitempty"`
	OutputStatus map[string]int `json:"OutputStatus,omitempty"`
	Timers       map[string]int `json:"Timers,omitempty"`
}

// PowerMonitorStat is the PowerMonitorStatus payload.
type PowerMonitorStat struct {
	LastReadingNo *int              `json:"LastReadingNo,omitempty"`
	Dev           []PowerDeviceStat `json:"Dev"`
}

// PowerDeviceStat is one power device's live readings.
type PowerDeviceStat struct {
	Ok   *int               `json:"Ok,omitempty"`
	Batt *PowerBattery      `json:"Batt,omitempty"`
	Ch   []PowerChannelStat `json:"Ch"`
}

// PowerChannelStat is one channel's live power reading in watts. Signed:
// generating channels read negative under export.
type PowerChannelStat struct {
	Pwr *int `json:"Pwr,omitempty"`
}

// PowerMonitorConf is the PowerMonitorConfig payload.
type PowerMonitorConf struct {
	Enabled     *int              `json:"Enabled,omitempty"`
	Tag1        *string           `json:"Tag1,omitempty"`
	Tag2        *string           `json:"Tag2,omitempty"`
	Voltage     *int              `json:"Voltage,omitempty"`
	PF          *int              `json:"PF,omitempty"`
	CostOfPower *int              `json:"CostOfPower,omitempty"`
	Emissions   *int              `json:"Emissions,omitempty"`
	Devices     []PowerDeviceConf `json:"Devices"`
}

// PowerDeviceConf is one power device's configuration.
type PowerDeviceConf struct {
	Enabled  *int               `json:"Enabled,omitempty"`
	Channels []PowerChannelConf `json:"Channels"`
}

// PowerChannelConf is one channel's configuration.
type PowerChannelConf struct {
	Name       *string `json:"Name,omitempty"`
	GrNo       *int    `json:"GrNo,omitempty"`
	Generate   *int    `json:"Generate,omitempty"`
	Consum     *int    `json:"Consum,omitempty"`
	Enabled    *int    `json:"Enabled,omitempty"`
	AddToTotal *int    `json:"AddToTotal,omitempty"`
}
