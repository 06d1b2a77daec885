// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package izone

// Command builder functions create validated Command values ready for
// encoding. These are convenience wrappers around Validator.Validate that
// ensure correct wire field naming per message. Every builder checks its
// arguments against the documented constraints and the validator's state
// view; a nil *Validator skips only the state-dependent checks.

func build(v *Validator, name string, values Values) (*Command, error) {
	if v == nil {
		v = NewValidator(nil)
	}
	return v.Validate(name, values)
}

// NewSysOnCommand turns the whole system on or off.
func NewSysOnCommand(v *Validator, on bool) (*Command, error) {
	return build(v, "SysOn", Values{"SysOn": flagInt(on)})
}

// NewSysModeCommand selects the operating mode.
func NewSysModeCommand(v *Validator, mode SysMode) (*Command, error) {
	return build(v, "SysMode", Values{"SysMode": int(mode)})
}

// NewSysFanCommand selects the fan speed. When the unit's fan capability
// is known the speed is checked against it.
func NewSysFanCommand(v *Validator, fan SysFan) (*Command, error) {
	return build(v, "SysFan", Values{"SysFan": int(fan)})
}

// NewSysSetpointCommand sets the unit setpoint in hundredths of a degree.
// Valid values run 1500 to 3000 in steps of 50.
func NewSysSetpointCommand(v *Validator, t Temperature) (*Command, error) {
	return build(v, "SysSetpoint", Values{"SysSetpoint": int(t)})
}

// NewSleepTimerCommand sets the sleep timer in minutes, 0 to 120 in steps
// of 30. Zero cancels the timer.
func NewSleepTimerCommand(v *Validator, minutes int) (*Command, error) {
	return build(v, "SysSleepTimer", Values{"SysSleepTimer": minutes})
}

// NewISaveCommand enters or leaves iSave mode.
func NewISaveCommand(v *Validator, on bool) (*Command, error) {
	return build(v, "iSaveOn", Values{"iSaveOn": flagInt(on)})
}

// NewEconomyLockCommand enables or disables the economy setpoint lock.
func NewEconomyLockCommand(v *Validator, on bool) (*Command, error) {
	return build(v, "EconomyLock", Values{"EconomyLock": flagInt(on)})
}

// NewEconomyMinCommand sets the economy lock lower bound.
func NewEconomyMinCommand(v *Validator, t Temperature) (*Command, error) {
	return build(v, "EconomyMin", Values{"EconomyMin": int(t)})
}

// NewEconomyMaxCommand sets the economy lock upper bound.
func NewEconomyMaxCommand(v *Validator, t Temperature) (*Command, error) {
	return build(v, "EconomyMax", Values{"EconomyMax": int(t)})
}

// NewMasterZoneCommand selects which zone's sensor controls the unit.
// Pass CtrlZoneUnitSetpoint to control from the unit's own setpoint.
func NewMasterZoneCommand(v *Validator, zone int) (*Command, error) {
	return build(v, "MasterZone", Values{"MasterZone": zone})
}

// NewRASCommand selects the return air sensor mode.
func NewRASCommand(v *Validator, mode RASMode) (*Command, error) {
	return build(v, "RASSet", Values{"RASSet": int(mode)})
}

// NewSysTagCommand sets one of the two system description lines. Line is
// 1 or 2; the tag must fit 32 bytes including the terminator.
func NewSysTagCommand(v *Validator, line int, tag string) (*Command, error) {
	switch line {
	case 1:
		return build(v, "SysTag1", Values{"SysTag1": tag})
	case 2:
		return build(v, "SysTag2", Values{"SysTag2": tag})
	}
	return nil, &ValidationError{Message: "SysTag", Field: "line", Reason: "must be 1 or 2"}
}

// NewChangeRfChannelCommand moves the RF network to another channel,
// 1 to 8. Every paired device must re-pair afterwards, so this is never
// re-sent automatically.
func NewChangeRfChannelCommand(v *Validator, channel int) (*Command, error) {
	return build(v, "ChangeRfCh", Values{"ChangeRfCh": channel})
}

// NewChangePassCommand sets the system password, at most 16 bytes
// including the terminator.
func NewChangePassCommand(v *Validator, pass string) (*Command, error) {
	return build(v, "ChangePass", Values{"ChangePass": pass})
}

// NewRfPairCommand puts the bridge into pairing mode.
func NewRfPairCommand(v *Validator, on bool) (*Command, error) {
	return build(v, "RfPair", Values{"RfPair": flagInt(on)})
}

// NewFilterWarnCommand sets the filter warning interval in months.
// Allowed values are 0 (off), 3, 6 and 12.
func NewFilterWarnCommand(v *Validator, months int) (*Command, error) {
	return build(v, "FilterWarn", Values{"FilterWarn": months})
}

// NewAutoModeDeadbandCommand sets the auto mode deadband in hundredths of
// a degree, 75 to 500.
func NewAutoModeDeadbandCommand(v *Validator, deadband int) (*Command, error) {
	return build(v, "AutoModeDeadB", Values{"AutoModeDeadB": deadband})
}

// NewLockSystemCommand locks or unlocks the controller. The code must be
// exactly six digits. Days of 0 locks indefinitely.
func NewLockSystemCommand(v *Validator, lock bool, code string, days int) (*Command, error) {
	if !validLockCode(code) {
		return nil, &ValidationError{Message: "LockSystem", Field: "LockCode", Reason: "lock code must be six digits"}
	}
	return build(v, "LockSystem", Values{
		"Lock":     flagInt(lock),
		"LockCode": code,
		"LockDays": days,
	})
}

func validLockCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NewZoneModeCommand sets a zone's operating mode.
func NewZoneModeCommand(v *Validator, zone int, mode ZoneMode) (*Command, error) {
	return build(v, "ZoneMode", Values{"Index": zone, "Mode": int(mode)})
}

// NewZoneSetpointCommand sets a zone's temperature setpoint.
func NewZoneSetpointCommand(v *Validator, zone int, t Temperature) (*Command, error) {
	return build(v, "ZoneSetpoint", Values{"Index": zone, "Setpoint": int(t)})
}

// NewZoneMaxAirCommand sets a zone's maximum airflow percentage, 0 to 100
// in steps of 5. Must stay above the zone's minimum airflow.
func NewZoneMaxAirCommand(v *Validator, zone, maxAir int) (*Command, error) {
	return build(v, "ZoneMaxAir", Values{"Index": zone, "MaxAir": maxAir})
}

// NewZoneMinAirCommand sets a zone's minimum airflow percentage.
func NewZoneMinAirCommand(v *Validator, zone, minAir int) (*Command, error) {
	return build(v, "ZoneMinAir", Values{"Index": zone, "MinAir": minAir})
}

// NewZoneNameCommand renames a zone, at most 16 bytes including the
// terminator.
func NewZoneNameCommand(v *Validator, zone int, name string) (*Command, error) {
	return build(v, "ZoneName", Values{"Index": zone, "Name": name})
}

// NewBalanceMaxCommand sets a zone's balance maximum. Must stay above the
// zone's current balance minimum.
func NewBalanceMaxCommand(v *Validator, zone, max int) (*Command, error) {
	return build(v, "BalanceMax", Values{"Index": zone, "Max": max})
}

// NewBalanceMinCommand sets a zone's balance minimum. Must stay below the
// zone's current balance maximum.
func NewBalanceMinCommand(v *Validator, zone, min int) (*Command, error) {
	return build(v, "BalanceMin", Values{"Index": zone, "Min": min})
}

// NewSensorCalibrationCommand offsets a zone sensor reading by -50 to 50
// hundredths of a degree.
func NewSensorCalibrationCommand(v *Validator, zone, offset int) (*Command, error) {
	return build(v, "SensorCalib", Values{"Index": zone, "Calibrate": offset})
}

// NewZoneBypassCommand routes a zone's damper to bypass.
func NewZoneBypassCommand(v *Validator, zone int, bypass bool) (*Command, error) {
	return build(v, "ZoneBypass", Values{"Index": zone, "Bypass": flagInt(bypass)})
}

// NewZoneAreaCommand records a zone's floor area, 1 to 255 square meters.
func NewZoneAreaCommand(v *Validator, zone, area int) (*Command, error) {
	return build(v, "ZoneArea", Values{"Index": zone, "Area": area})
}

// NewScheduleNameCommand renames a schedule.
func NewScheduleNameCommand(v *Validator, schedule int, name string) (*Command, error) {
	return build(v, "SchedName", Values{"Index": schedule, "Name": name})
}

// NewScheduleEnableCommand enables or disables a schedule.
func NewScheduleEnableCommand(v *Validator, schedule int, on bool) (*Command, error) {
	return build(v, "SchedEnable", Values{"Index": schedule, "Enabled": flagInt(on)})
}

// ScheduleSettings carries one schedule's timing and day selection.
// Disable a start or stop time by passing hour 31 and minute 63 together.
type ScheduleSettings struct {
	StartHour, StartMinute int
	StopHour, StopMinute   int
	Mon, Tue, Wed, Thu     bool
	Fri, Sat, Sun          bool
}

// NewScheduleSettingsCommand writes a schedule's times and active days.
func NewScheduleSettingsCommand(v *Validator, schedule int, s ScheduleSettings) (*Command, error) {
	return build(v, "SchedSettings", Values{
		"Index":  schedule,
		"StartH": s.StartHour,
		"StartM": s.StartMinute,
		"StopH":  s.StopHour,
		"StopM":  s.StopMinute,
		"DaysEnabled": Values{
			"M":  flagInt(s.Mon),
			"Tu": flagInt(s.Tue),
			"W":  flagInt(s.Wed),
			"Th": flagInt(s.Thu),
			"F":  flagInt(s.Fri),
			"Sa": flagInt(s.Sat),
			"Su": flagInt(s.Sun),
		},
	})
}

// ScheduleZoneSetting is one zone slot inside a SchedZones command. The
// setpoint is in hundredths of a degree; open and close slots still carry
// one, the controller ignores it for those modes.
type ScheduleZoneSetting struct {
	Mode     ZoneMode
	Setpoint Temperature
}

// NewScheduleZonesCommand writes the per-zone actions of a schedule. All
// fourteen slots must be supplied; repeat a zone's current mode for slots
// the schedule should leave alone.
func NewScheduleZonesCommand(v *Validator, schedule int, zones []ScheduleZoneSetting) (*Command, error) {
	slots := make([]Values, len(zones))
	for i, z := range zones {
		slots[i] = Values{"Mode": int(z.Mode), "Setpoint": int(z.Setpoint)}
	}
	return build(v, "SchedZones", Values{"Index": schedule, "Zones": slots})
}

// GasHeaterSettings carries the gas heater staging parameters.
type GasHeaterSettings struct {
	Type          GasHeatType
	MinRunTime    int // minutes, 2 to 10
	AnticycleTime int // minutes, 2 to 10
	StageOffset   int // hundredths of a degree, 20 to 50
	StageDelay    int // minutes, 5 to 15
	CycleFanCool  bool
	CycleFanHeat  bool
}

// NewGasHeatSettingsCommand writes the gas heater staging parameters.
func NewGasHeatSettingsCommand(v *Validator, s GasHeaterSettings) (*Command, error) {
	return build(v, "GasHeatSettings", Values{
		"Type":          int(s.Type),
		"MinRunTime":    s.MinRunTime,
		"AnticycleTime": s.AnticycleTime,
		"StageOffset":   s.StageOffset,
		"StageDelay":    s.StageDelay,
		"CycleFanCool":  flagInt(s.CycleFanCool),
		"CycleFanHeat":  flagInt(s.CycleFanHeat),
	})
}

// NewTemperzoneSetpointsCommand writes the Temperzone compressor target
// bands. Heat runs 3000 to 4000, cool 500 to 1500, both in hundredths.
func NewTemperzoneSetpointsCommand(v *Validator, heat, cool Temperature) (*Command, error) {
	return build(v, "TemperzoneSettingsSetpoints", Values{
		"HeatSetpoint": int(heat),
		"CoolSetpoint": int(cool),
	})
}

// NewTemperzoneUnitCommand writes the Temperzone fan and mode wiring.
func NewTemperzoneUnitCommand(v *Validator, fan TemperzoneFanType, mode TemperzoneModeType) (*Command, error) {
	return build(v, "TemperzoneSettingsUnit", Values{
		"FanType":  int(fan),
		"ModeType": int(mode),
	})
}

// NewPowerDeviceEnableCommand enables or disables a power monitor device.
func NewPowerDeviceEnableCommand(v *Validator, device int, on bool) (*Command, error) {
	return build(v, "DeviceEnable", Values{"Device": device, "Enable": flagInt(on)})
}

// NewPowerChannelEnableCommand enables or disables one CT channel.
func NewPowerChannelEnableCommand(v *Validator, device, channel int, on bool) (*Command, error) {
	return build(v, "ChannelEnable", Values{"Device": device, "Channel": channel, "Enable": flagInt(on)})
}

// NewPowerChannelGroupCommand assigns a channel to a display group.
// Pass UngroupedChannel to remove the assignment.
func NewPowerChannelGroupCommand(v *Validator, device, channel, group int) (*Command, error) {
	return build(v, "ChannelGroup", Values{"Device": device, "Channel": channel, "Group": group})
}

// NewPowerChannelNameCommand names a CT channel.
func NewPowerChannelNameCommand(v *Validator, device, channel int, name string) (*Command, error) {
	return build(v, "ChannelName", Values{"Device": device, "Channel": channel, "String": name})
}

// NewPowerChannelGenerateCommand marks a channel as measuring generation
// rather than consumption.
func NewPowerChannelGenerateCommand(v *Validator, device, channel int, generate bool) (*Command, error) {
	return build(v, "ChannelGenerate", Values{"Device": device, "Channel": channel, "Generate": flagInt(generate)})
}

// NewPowerChannelAddToTotalCommand includes or excludes a channel from
// the consumption total.
func NewPowerChannelAddToTotalCommand(v *Validator, device, channel int, add bool) (*Command, error) {
	return build(v, "ChannelAddToTotal", Values{"Device": device, "Channel": channel, "AddToTotal": flagInt(add)})
}

// NewSystemVoltageCommand sets the mains voltage used for power
// calculations, 100 to 300 volts.
func NewSystemVoltageCommand(v *Validator, volts int) (*Command, error) {
	return build(v, "SystemVoltage", Values{"SystemVoltage": volts})
}

// NewPowerFactorCommand sets the power factor percentage, 1 to 100.
func NewPowerFactorCommand(v *Validator, percent int) (*Command, error) {
	return build(v, "PowerFactor", Values{"PowerFactor": percent})
}

// NewSystemRequest asks for the SystemV2 status block.
func NewSystemRequest(v *Validator) (*Command, error) {
	return build(v, "iZoneV2Request", Values{"Type": RequestSystem, "No": 0, "No1": 0})
}

// NewZonesRequest asks for a ZonesV2 page starting at the given zone.
func NewZonesRequest(v *Validator, firstZone int) (*Command, error) {
	return build(v, "iZoneV2Request", Values{"Type": RequestZone, "No": firstZone, "No1": 0})
}

// NewSchedulesRequest asks for a SchedulesV2 page starting at the given
// schedule.
func NewSchedulesRequest(v *Validator, firstSchedule int) (*Command, error) {
	return build(v, "iZoneV2Request", Values{"Type": RequestSchedule, "No": firstSchedule, "No1": 0})
}

// NewFaultHistoryRequest asks for the AC unit fault history.
func NewFaultHistoryRequest(v *Validator) (*Command, error) {
	return build(v, "iZoneV2Request", Values{"Type": RequestFaultHist, "No": 0, "No1": 0})
}

// NewTemperzoneInfoRequest asks for the Temperzone diagnostic block.
func NewTemperzoneInfoRequest(v *Validator) (*Command, error) {
	return build(v, "iZoneV2Request", Values{"Type": RequestTemperzone, "No": 0, "No1": 0})
}

// NewFirmwareRequest asks for the firmware version list.
func NewFirmwareRequest(v *Validator) (*Command, error) {
	return build(v, "iZoneV2Request", Values{"Type": RequestFirmware, "No": 0, "No1": 0})
}

// NewPowerStatusRequest asks for the live power monitor readings.
func NewPowerStatusRequest(v *Validator) (*Command, error) {
	return build(v, "PowerRequest", Values{"Type": RequestPowerStatus, "No": 0})
}

// NewPowerConfigRequest asks for the power monitor configuration.
func NewPowerConfigRequest(v *Validator) (*Command, error) {
	return build(v, "PowerRequest", Values{"Type": RequestPowerConfig, "No": 0})
}
