// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package izone

// The schema registry is a static table mirroring every message in the
// iZone V2 and iPower protocol documents: field names, numeric ranges and
// steps, enumeration membership, string byte limits, and array shapes.
// It is built once at init and never mutated, so lookups need no locking.

// FieldKind is the semantic type of one wire field.
type FieldKind int

const (
	KindInt FieldKind = iota
	KindTemp
	KindEnum
	KindFlag
	KindString
	KindClock
	KindObject
	KindArray
)

// IndexSpace names the topology an index field addresses. Index values
// are validated against the current topology, not just a static range.
type IndexSpace int

const (
	IndexNone IndexSpace = iota
	IndexZone
	IndexSchedule
	IndexPowerDevice
	IndexPowerChannel
)

// MessageKind distinguishes commands, read requests and status payloads.
type MessageKind int

const (
	KindCommand MessageKind = iota
	KindRequest
	KindStatus
)

// Endpoint selects which controller endpoint a message is sent to.
type Endpoint int

const (
	TargetAC Endpoint = iota
	TargetPower
)

// FieldSpec declares the constraints of one field.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool

	// Numeric constraints. A range applies when Max > Min; Step of 0
	// means any integer within the range.
	Min, Max, Step int

	// Discrete allowed values, for fields like FilterWarn whose legal
	// settings are not a contiguous range.
	Values []int

	Enum     *enumSet
	MaxBytes int
	Index    IndexSpace

	// Shape of nested objects and arrays.
	Fields    []FieldSpec
	Elem      *FieldSpec
	Len       int
	PartialOK bool
}

func (f *FieldSpec) ranged() bool {
	return f.Max > f.Min
}

// MessageSchema declares one documented message.
type MessageSchema struct {
	Name     string
	Kind     MessageKind
	Endpoint Endpoint
	Fields   []FieldSpec

	// Scalar commands are encoded as {Name: value} with a single field
	// spec named after the message itself.
	Scalar bool

	// TargetFields identify the sub-entity a command addresses; the
	// correlator serializes writes per distinct target value.
	TargetFields []string

	// Idempotent marks commands that set absolute values and are safe to
	// re-send. The correlator only retries these when the caller opts in.
	Idempotent bool
}

// Lookup finds a message schema by name.
func Lookup(name string) (*MessageSchema, error) {
	s, ok := registry[name]
	if !ok {
		return nil, ErrSchemaNotFound
	}
	return s, nil
}

// Messages returns the names of every registered message of a kind,
// in no particular order.
func Messages(kind MessageKind) []string {
	var names []string
	for name, s := range registry {
		if s.Kind == kind {
			names = append(names, name)
		}
	}
	return names
}

// Field spec constructors keep the table below readable.

func intf(name string, min, max, step int) FieldSpec {
	return FieldSpec{Name: name, Kind: KindInt, Required: true, Min: min, Max: max, Step: step}
}

func anyint(name string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindInt, Required: true}
}

func tempf(name string, min, max, step Temperature) FieldSpec {
	return FieldSpec{Name: name, Kind: KindTemp, Required: true, Min: int(min), Max: int(max), Step: int(step)}
}

func enumf(name string, set *enumSet) FieldSpec {
	return FieldSpec{Name: name, Kind: KindEnum, Required: true, Enum: set}
}

func flagf(name string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindFlag, Required: true}
}

func strf(name string, maxBytes int) FieldSpec {
	return FieldSpec{Name: name, Kind: KindString, Required: true, MaxBytes: maxBytes}
}

func idxf(name string, space IndexSpace) FieldSpec {
	return FieldSpec{Name: name, Kind: KindInt, Required: true, Index: space}
}

func opt(f FieldSpec) FieldSpec {
	f.Required = false
	return f
}

// Setpoint limits shared by the unit, zones and schedules: 15.00-30.00 in
// half-degree steps.
const (
	SetpointMin  Temperature = 1500
	SetpointMax  Temperature = 3000
	SetpointStep Temperature = 50
)

func scalarCommand(name string, endpoint Endpoint, idempotent bool, value FieldSpec) *MessageSchema {
	value.Name = name
	return &MessageSchema{
		Name:       name,
		Kind:       KindCommand,
		Endpoint:   endpoint,
		Scalar:     true,
		Idempotent: idempotent,
		Fields:     []FieldSpec{value},
	}
}

func objCommand(name string, endpoint Endpoint, idempotent bool, targets []string, fields ...FieldSpec) *MessageSchema {
	return &MessageSchema{
		Name:         name,
		Kind:         KindCommand,
		Endpoint:     endpoint,
		Idempotent:   idempotent,
		TargetFields: targets,
		Fields:       fields,
	}
}

var registry = map[string]*MessageSchema{}

func register(s *MessageSchema) {
	registry[s.Name] = s
}

func init() {
	// AC unit operation commands.
	register(scalarCommand("SysOn", TargetAC, true, enumf("", enumOnOff)))
	register(scalarCommand("SysMode", TargetAC, true, enumf("", enumSysMode)))
	register(scalarCommand("SysFan", TargetAC, true, enumf("", enumSysFan)))
	register(scalarCommand("SysSetpoint", TargetAC, true, tempf("", SetpointMin, SetpointMax, SetpointStep)))
	register(scalarCommand("SysSleepTimer", TargetAC, true, intf("", 0, 120, 30)))
	register(scalarCommand("iSaveOn", TargetAC, true, enumf("", enumOnOff)))

	// AC unit configuration commands.
	register(scalarCommand("EconomyLock", TargetAC, true, flagf("")))
	register(scalarCommand("EconomyMax", TargetAC, true, tempf("", SetpointMin, SetpointMax, SetpointStep)))
	register(scalarCommand("EconomyMin", TargetAC, true, tempf("", SetpointMin, SetpointMax, SetpointStep)))
	register(scalarCommand("MasterZone", TargetAC, true,
		FieldSpec{Kind: KindInt, Required: true, Index: IndexZone, Values: []int{CtrlZoneUnitSetpoint}}))
	register(scalarCommand("RASSet", TargetAC, true, enumf("", enumRAS)))
	register(scalarCommand("SysTag1", TargetAC, true, strf("", MaxTagBytes)))
	register(scalarCommand("SysTag2", TargetAC, true, strf("", MaxTagBytes)))
	register(scalarCommand("ChangeRfCh", TargetAC, false, intf("", 1, 8, 0)))
	register(scalarCommand("ChangePass", TargetAC, false, strf("", MaxPassBytes)))
	register(scalarCommand("RfPair", TargetAC, false, flagf("")))
	register(scalarCommand("NoOfZones", TargetAC, false, intf("", 1, MaxZones, 0)))
	register(scalarCommand("NoOfConstants", TargetAC, false, intf("", 0, MaxZones, 0)))
	register(scalarCommand("EnableiSave", TargetAC, true, flagf("")))
	register(scalarCommand("FilterWarn", TargetAC, true,
		FieldSpec{Kind: KindInt, Required: true, Values: []int{0, 3, 6, 12}}))
	register(scalarCommand("AutoModeDeadB", TargetAC, true, intf("", 75, 500, 0)))
	register(scalarCommand("DamperTime", TargetAC, true, intf("", 0, 600, 0)))
	register(scalarCommand("FanAutoEn", TargetAC, true, flagf("")))
	register(scalarCommand("FanAutoType", TargetAC, true, enumf("", enumFanAuto)))
	register(scalarCommand("FanCapacity", TargetAC, true, anyint("")))
	register(scalarCommand("FanUnitCapacity", TargetAC, true, anyint("")))
	register(scalarCommand("AutoOff", TargetAC, true, flagf("")))
	register(scalarCommand("RoomTempDisp", TargetAC, true, flagf("")))
	register(scalarCommand("SetWiredLeds", TargetAC, true, flagf("")))
	register(scalarCommand("AirflowLock", TargetAC, true, flagf("")))
	register(scalarCommand("AirflowMinLock", TargetAC, true, flagf("")))
	register(scalarCommand("HideInduct", TargetAC, true, flagf("")))
	register(scalarCommand("ReverseDampers", TargetAC, true, flagf("")))
	register(scalarCommand("ScroogeMode", TargetAC, true, flagf("")))
	register(scalarCommand("CnstCtrlAreaEn", TargetAC, true, flagf("")))
	register(scalarCommand("CnstCtrlArea", TargetAC, true, intf("", 0, 255, 0)))
	register(scalarCommand("StaticP", TargetAC, true, intf("", 0, 4, 0)))
	register(scalarCommand("OpenDampersWhenOff", TargetAC, true, flagf("")))
	register(scalarCommand("ShowActTemps", TargetAC, true, flagf("")))
	register(scalarCommand("TemperzoneQuietMode", TargetAC, true, flagf("")))

	register(objCommand("LockSystem", TargetAC, false, nil,
		flagf("Lock"),
		strf("LockCode", MaxLockCodeBytes),
		opt(intf("LockDays", 0, 30, 0))))

	// Zone commands.
	register(objCommand("ZoneMode", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		enumf("Mode", enumZoneMode)))
	register(objCommand("ZoneSetpoint", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		tempf("Setpoint", SetpointMin, SetpointMax, SetpointStep)))
	register(objCommand("ZoneMaxAir", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		intf("MaxAir", 0, 100, 5)))
	register(objCommand("ZoneMinAir", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		intf("MinAir", 0, 100, 5)))
	register(objCommand("ZoneName", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		strf("Name", MaxNameBytes)))
	register(objCommand("BalanceMax", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		intf("Max", 0, 100, 5)))
	register(objCommand("BalanceMin", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		intf("Min", 0, 100, 5)))
	register(objCommand("DamperSkip", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		flagf("Skip")))
	register(objCommand("ZoneSetting", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		enumf("Sensor", enumRoomSensor),
		enumf("Zone", enumZoneType),
		opt(intf("ConstNo", 1, MaxZones, 0))))
	register(objCommand("SensorCalib", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		intf("Calibrate", -50, 50, 0)))
	register(objCommand("ZoneBypass", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		flagf("Bypass")))
	register(objCommand("ZoneArea", TargetAC, true, []string{"Index"},
		idxf("Index", IndexZone),
		intf("Area", 1, 255, 0)))

	// Schedule (favourite) commands.
	register(objCommand("SchedName", TargetAC, true, []string{"Index"},
		idxf("Index", IndexSchedule),
		strf("Name", MaxNameBytes)))
	register(objCommand("SchedEnable", TargetAC, true, []string{"Index"},
		idxf("Index", IndexSchedule),
		flagf("Enabled")))
	register(objCommand("SchedSettings", TargetAC, true, []string{"Index"},
		idxf("Index", IndexSchedule),
		FieldSpec{Name: "StartH", Kind: KindInt, Required: true, Min: 0, Max: 23, Values: []int{SchedHourDisabled}},
		FieldSpec{Name: "StartM", Kind: KindInt, Required: true, Min: 0, Max: 59, Values: []int{SchedMinuteDisabled}},
		FieldSpec{Name: "StopH", Kind: KindInt, Required: true, Min: 0, Max: 23, Values: []int{SchedHourDisabled}},
		FieldSpec{Name: "StopM", Kind: KindInt, Required: true, Min: 0, Max: 59, Values: []int{SchedMinuteDisabled}},
		FieldSpec{Name: "DaysEnabled", Kind: KindObject, Required: true, Fields: []FieldSpec{
			flagf("M"), flagf("Tu"), flagf("W"), flagf("Th"), flagf("F"), flagf("Sa"), flagf("Su"),
		}}))
	register(objCommand("SchedZones", TargetAC, true, []string{"Index"},
		idxf("Index", IndexSchedule),
		FieldSpec{Name: "Zones", Kind: KindArray, Required: true, Len: ScheduleZoneSlots,
			Elem: &FieldSpec{Kind: KindObject, Fields: []FieldSpec{
				enumf("Mode", enumZoneMode),
				tempf("Setpoint", SetpointMin, SetpointMax, SetpointStep),
			}}}))

	// Universal (gas heat) and Temperzone unit settings.
	register(objCommand("GasHeatSettings", TargetAC, true, nil,
		enumf("Type", enumGasHeat),
		intf("MinRunTime", 2, 10, 0),
		intf("AnticycleTime", 2, 10, 0),
		intf("StageOffset", 20, 50, 0),
		intf("StageDelay", 5, 15, 0),
		flagf("CycleFanCool"),
		flagf("CycleFanHeat")))
	register(objCommand("TemperzoneSettingsSetpoints", TargetAC, true, nil,
		tempf("HeatSetpoint", 3000, 4000, 0),
		tempf("CoolSetpoint", 500, 1500, 0)))
	register(objCommand("TemperzoneSettingsUnit", TargetAC, true, nil,
		enumf("FanType", enumTzFan),
		enumf("ModeType", enumTzMode)))

	// Power monitor commands.
	register(objCommand("DeviceEnable", TargetPower, true, []string{"Device"},
		idxf("Device", IndexPowerDevice),
		flagf("Enable")))
	register(objCommand("ChannelEnable", TargetPower, true, []string{"Device", "Channel"},
		idxf("Device", IndexPowerDevice),
		idxf("Channel", IndexPowerChannel),
		flagf("Enable")))
	register(objCommand("ChannelGroup", TargetPower, true, []string{"Device", "Channel"},
		idxf("Device", IndexPowerDevice),
		idxf("Channel", IndexPowerChannel),
		intf("Group", 0, 255, 0)))
	register(objCommand("ChannelGenerate", TargetPower, true, []string{"Device", "Channel"},
		idxf("Device", IndexPowerDevice),
		idxf("Channel", IndexPowerChannel),
		flagf("Generate")))
	register(objCommand("ChannelName", TargetPower, true, []string{"Device", "Channel"},
		idxf("Device", IndexPowerDevice),
		idxf("Channel", IndexPowerChannel),
		strf("String", MaxNameBytes)))
	register(objCommand("ChannelAddToTotal", TargetPower, true, []string{"Device", "Channel"},
		idxf("Device", IndexPowerDevice),
		idxf("Channel", IndexPowerChannel),
		flagf("AddToTotal")))
	register(scalarCommand("PowerFactor", TargetPower, true, intf("", 1, 100, 0)))
	register(scalarCommand("PowerCostOfPower", TargetPower, true, intf("", 0, 1<<30, 0)))
	register(scalarCommand("PowerEmissions", TargetPower, true, intf("", 0, 1<<30, 0)))
	register(scalarCommand("SystemVoltage", TargetPower, true, intf("", 100, 300, 0)))
	register(scalarCommand("Tag1", TargetPower, true, strf("", MaxTagBytes)))
	register(scalarCommand("Tag2", TargetPower, true, strf("", MaxTagBytes)))

	// Read requests.
	register(&MessageSchema{
		Name: "iZoneV2Request", Kind: KindRequest, Endpoint: TargetAC, Idempotent: true,
		Fields: []FieldSpec{
			intf("Type", RequestSystem, RequestFirmware, 0),
			opt(anyint("No")),
			opt(anyint("No1")),
		},
	})
	register(&MessageSchema{
		Name: "PowerRequest", Kind: KindRequest, Endpoint: TargetPower, Idempotent: true,
		Fields: []FieldSpec{
			intf("Type", RequestPowerConfig, RequestPowerStatus, 0),
			opt(anyint("No")),
			opt(anyint("No1")),
		},
	})

	// Status payloads. Shapes only; the tolerant decoder uses these for
	// array length checks and range sanity reporting.
	register(&MessageSchema{
		Name: "SystemV2", Kind: KindStatus, Endpoint: TargetAC,
		Fields: []FieldSpec{
			enumf("SysOn", enumOnOff),
			enumf("SysMode", enumSysMode),
			enumf("SysFan", enumSysFan),
			opt(intf("SleepTimer", 0, 120, 0)),
			opt(tempf("Supply", -2000, 8000, 0)),
			opt(tempf("Setpoint", SetpointMin, SetpointMax, 0)),
			opt(tempf("Temp", -2000, 8000, 0)),
			opt(enumf("RAS", enumRAS)),
			opt(intf("CtrlZone", 0, CtrlZoneUnitSetpoint, 0)),
			opt(strf("Tag1", MaxTagBytes)),
			opt(strf("Tag2", MaxTagBytes)),
			opt(flagf("EcoLock")),
			opt(tempf("EcoMax", SetpointMin, SetpointMax, 0)),
			opt(tempf("EcoMin", SetpointMin, SetpointMax, 0)),
			opt(intf("NoOfConst", 0, MaxZones, 0)),
			opt(intf("NoOfZones", 1, MaxZones, 0)),
			opt(intf("RfCh", 1, 8, 0)),
			opt(enumf("AcUnitBrand", enumUnitBrand)),
			opt(enumf("OemMake", enumOemMake)),
		},
	})
	register(&MessageSchema{
		Name: "ZonesV2", Kind: KindStatus, Endpoint: TargetAC,
		Fields: []FieldSpec{
			idxf("Index", IndexZone),
			opt(strf("Name", MaxNameBytes)),
			opt(enumf("ZoneType", enumZoneType)),
			opt(enumf("SensType", enumRoomSensor)),
			opt(enumf("Mode", enumZoneMode)),
			opt(tempf("Setpoint", SetpointMin, SetpointMax, 0)),
			opt(tempf("Temp", -2000, 8000, 0)),
			opt(intf("MaxAir", 0, 100, 0)),
			opt(intf("MinAir", 0, 100, 0)),
			opt(intf("BalanceMax", 0, 100, 0)),
			opt(intf("BalanceMin", 0, 100, 0)),
			opt(enumf("RfSignal", enumRfSignal)),
			opt(enumf("BattVolt", enumSensorBatt)),
		},
	})
	register(&MessageSchema{
		Name: "SchedulesV2", Kind: KindStatus, Endpoint: TargetAC,
		Fields: []FieldSpec{
			idxf("Index", IndexSchedule),
			opt(strf("Name", MaxNameBytes)),
			FieldSpec{Name: "Zones", Kind: KindArray, Len: ScheduleZoneSlots},
		},
	})
	register(&MessageSchema{
		Name: "AcUnitFaultHistV2", Kind: KindStatus, Endpoint: TargetAC,
		Fields: []FieldSpec{
			FieldSpec{Name: "Faults", Kind: KindArray, Len: MaxFaults, PartialOK: true},
		},
	})
	register(&MessageSchema{Name: "TemperzoneInfoV2", Kind: KindStatus, Endpoint: TargetAC})
	register(&MessageSchema{Name: "Fmw", Kind: KindStatus, Endpoint: TargetAC})
	register(&MessageSchema{
		Name: "PowerMonitorStatus", Kind: KindStatus, Endpoint: TargetPower,
		Fields: []FieldSpec{
			FieldSpec{Name: "Dev", Kind: KindArray, Len: PowerDevices},
		},
	})
	register(&MessageSchema{
		Name: "PowerMonitorConfig", Kind: KindStatus, Endpoint: TargetPower,
		Fields: []FieldSpec{
			opt(flagf("Enabled")),
			opt(strf("Tag1", MaxTagBytes)),
			opt(strf("Tag2", MaxTagBytes)),
			opt(intf("Voltage", 100, 300, 0)),
			opt(intf("PF", 1, 100, 0)),
			FieldSpec{Name: "Devices", Kind: KindArray, Len: PowerDevices},
		},
	})
}
