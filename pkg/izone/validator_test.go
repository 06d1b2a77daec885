// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package izone

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// fakeView is a canned state snapshot for cross-field checks.
type fakeView struct {
	zones      int
	balMin     int
	balMax     int
	airMin     int
	airMax     int
	ecoMin     Temperature
	ecoMax     Temperature
	ecoLocked  bool
	capability FanCapability
}

func (f *fakeView) ZoneCount() int { return f.zones }

func (f *fakeView) ZoneBalance(int) (int, int, bool) {
	if f.balMax == 0 {
		return 0, 0, false
	}
	return f.balMin, f.balMax, true
}

func (f *fakeView) ZoneAirLimits(int) (int, int, bool) {
	if f.airMax == 0 {
		return 0, 0, false
	}
	return f.airMin, f.airMax, true
}

func (f *fakeView) EcoBounds() (Temperature, Temperature, bool) {
	return f.ecoMin, f.ecoMax, f.ecoLocked
}

func (f *fakeView) FanCapability() FanCapability { return f.capability }

func TestValidateSetpointRange(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{name: "minimum", value: 1500},
		{name: "maximum", value: 3000},
		{name: "half degree step", value: 2350},
		{name: "below range", value: 1450, wantErr: true},
		{name: "above range", value: 3050, wantErr: true},
		{name: "off step", value: 2325, wantErr: true},
	}

	v := NewValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate("SysSetpoint", Values{"SysSetpoint": tt.value})
			if tt.wantErr != (err != nil) {
				t.Errorf("Validate(SysSetpoint=%d) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("error = %T, want *ValidationError", err)
				}
			}
		})
	}
}

func TestValidateRejectsRounding(t *testing.T) {
	// 23.25 degrees is between two legal steps. It must be rejected, not
	// silently rounded to 23.00 or 23.50.
	v := NewValidator(nil)
	if _, err := v.Validate("SysSetpoint", Values{"SysSetpoint": 2325}); err == nil {
		t.Fatal("off-step setpoint accepted")
	}
}

func TestValidateDiscreteValues(t *testing.T) {
	tests := []struct {
		name    string
		months  int
		wantErr bool
	}{
		{name: "off", months: 0},
		{name: "three months", months: 3},
		{name: "six months", months: 6},
		{name: "twelve months", months: 12},
		{name: "nine months rejected", months: 9, wantErr: true},
	}
	v := NewValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate("FilterWarn", Values{"FilterWarn": tt.months})
			if tt.wantErr != (err != nil) {
				t.Errorf("Validate(FilterWarn=%d) error = %v, wantErr %v", tt.months, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnumMembership(t *testing.T) {
	v := NewValidator(nil)
	if _, err := v.Validate("SysMode", Values{"SysMode": int(SysModeDry)}); err != nil {
		t.Errorf("known mode rejected: %v", err)
	}
	if _, err := v.Validate("SysMode", Values{"SysMode": 42}); err == nil {
		t.Error("unknown mode 42 accepted")
	}
	if _, err := v.Validate("SysFan", Values{"SysFan": int(SysFanNonGasHeat)}); err != nil {
		t.Errorf("fan sentinel 99 rejected: %v", err)
	}
}

func TestValidateZoneIndex(t *testing.T) {
	tests := []struct {
		name    string
		view    *fakeView
		index   int
		wantErr bool
	}{
		{name: "within static limit without view", view: nil, index: 13},
		{name: "beyond static limit", view: nil, index: 14, wantErr: true},
		{name: "within configured count", view: &fakeView{zones: 6}, index: 5},
		{name: "beyond configured count", view: &fakeView{zones: 6}, index: 6, wantErr: true},
		{name: "negative", view: nil, index: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(nil)
			if tt.view != nil {
				v = NewValidator(tt.view)
			}
			_, err := v.Validate("ZoneSetpoint", Values{"Index": tt.index, "Setpoint": 2200})
			if tt.wantErr != (err != nil) {
				t.Errorf("zone %d error = %v, wantErr %v", tt.index, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("error = %v, want ErrIndexOutOfRange", err)
			}
		})
	}
}

func TestValidateMasterZoneSentinel(t *testing.T) {
	v := NewValidator(&fakeView{zones: 4})
	if _, err := v.Validate("MasterZone", Values{"MasterZone": CtrlZoneUnitSetpoint}); err != nil {
		t.Errorf("unit-setpoint sentinel rejected: %v", err)
	}
	if _, err := v.Validate("MasterZone", Values{"MasterZone": 9}); err == nil {
		t.Error("zone 9 accepted on a 4-zone system")
	}
}

func TestValidateStringLengths(t *testing.T) {
	v := NewValidator(nil)
	if _, err := v.Validate("ZoneName", Values{"Index": 0, "Name": "Living Room"}); err != nil {
		t.Errorf("legal name rejected: %v", err)
	}
	// 16 bytes plus terminator exceeds the 16-byte limit.
	if _, err := v.Validate("ZoneName", Values{"Index": 0, "Name": "1234567890123456"}); err == nil {
		t.Error("oversized name accepted")
	}
	if _, err := v.Validate("SysTag1", Values{"SysTag1": "1234567890123456789012345678901"}); err != nil {
		t.Errorf("31-byte tag rejected: %v", err)
	}
}

func TestValidateRequiredAndUnknownFields(t *testing.T) {
	v := NewValidator(nil)
	if _, err := v.Validate("ZoneSetpoint", Values{"Index": 0}); err == nil {
		t.Error("missing Setpoint accepted")
	}
	if _, err := v.Validate("ZoneSetpoint", Values{"Index": 0, "Setpoint": 2200, "Bogus": 1}); err == nil {
		t.Error("unknown field accepted")
	}
	if _, err := v.Validate("NoSuchMessage", Values{}); !errors.Is(err, ErrSchemaNotFound) {
		t.Errorf("error = %v, want ErrSchemaNotFound", err)
	}
	if _, err := v.Validate("SystemV2", Values{}); !errors.Is(err, ErrNotACommand) {
		t.Errorf("error = %v, want ErrNotACommand", err)
	}
}

func TestValidateBalanceCrossField(t *testing.T) {
	view := &fakeView{zones: 8, balMin: 20, balMax: 80}
	v := NewValidator(view)

	if _, err := v.Validate("BalanceMin", Values{"Index": 2, "Min": 50}); err != nil {
		t.Errorf("min below current max rejected: %v", err)
	}
	_, err := v.Validate("BalanceMin", Values{"Index": 2, "Min": 80})
	var cerr *CrossFieldError
	if !errors.As(err, &cerr) {
		t.Fatalf("min at current max: error = %v, want *CrossFieldError", err)
	}

	if _, err := v.Validate("BalanceMax", Values{"Index": 2, "Max": 25}); err != nil {
		t.Errorf("max above current min rejected: %v", err)
	}
	if _, err := v.Validate("BalanceMax", Values{"Index": 2, "Max": 20}); err == nil {
		t.Error("max at current min accepted")
	}
}

func TestValidateAirflowCrossField(t *testing.T) {
	view := &fakeView{zones: 8, airMin: 10, airMax: 90}
	v := NewValidator(view)

	if _, err := v.Validate("ZoneMinAir", Values{"Index": 1, "MinAir": 45}); err != nil {
		t.Errorf("legal min air rejected: %v", err)
	}
	if _, err := v.Validate("ZoneMinAir", Values{"Index": 1, "MinAir": 90}); err == nil {
		t.Error("min air at current max accepted")
	}
	if _, err := v.Validate("ZoneMaxAir", Values{"Index": 1, "MaxAir": 10}); err == nil {
		t.Error("max air at current min accepted")
	}
}

func TestValidateEconomyLockBand(t *testing.T) {
	view := &fakeView{zones: 8, ecoMin: 2000, ecoMax: 2500, ecoLocked: true}
	v := NewValidator(view)

	if _, err := v.Validate("SysSetpoint", Values{"SysSetpoint": 2250}); err != nil {
		t.Errorf("setpoint inside lock band rejected: %v", err)
	}
	if _, err := v.Validate("SysSetpoint", Values{"SysSetpoint": 2900}); err == nil {
		t.Error("setpoint above lock band accepted")
	}
	if _, err := v.Validate("ZoneSetpoint", Values{"Index": 0, "Setpoint": 1800}); err == nil {
		t.Error("zone setpoint below lock band accepted")
	}

	// Unlocked systems place no band on the setpoint.
	view.ecoLocked = false
	if _, err := v.Validate("SysSetpoint", Values{"SysSetpoint": 2900}); err != nil {
		t.Errorf("setpoint rejected with lock off: %v", err)
	}
}

func TestValidateFanAgainstCapability(t *testing.T) {
	v := NewValidator(&fakeView{zones: 8, capability: FanCap2Speed})
	if _, err := v.Validate("SysFan", Values{"SysFan": int(SysFanHigh)}); err != nil {
		t.Errorf("high rejected on 2-speed unit: %v", err)
	}
	if _, err := v.Validate("SysFan", Values{"SysFan": int(SysFanMed)}); err == nil {
		t.Error("medium accepted on 2-speed unit")
	}
}

func TestValidateScheduleSentinelPairing(t *testing.T) {
	base := func() Values {
		return Values{
			"Index": 0, "StartH": 7, "StartM": 30, "StopH": 22, "StopM": 0,
			"DaysEnabled": Values{"M": 1, "Tu": 1, "W": 1, "Th": 1, "F": 1, "Sa": 0, "Su": 0},
		}
	}
	v := NewValidator(nil)

	if _, err := v.Validate("SchedSettings", base()); err != nil {
		t.Errorf("legal settings rejected: %v", err)
	}

	disabled := base()
	disabled["StartH"] = SchedHourDisabled
	disabled["StartM"] = SchedMinuteDisabled
	if _, err := v.Validate("SchedSettings", disabled); err != nil {
		t.Errorf("paired disable sentinel rejected: %v", err)
	}

	half := base()
	half["StartH"] = SchedHourDisabled
	if _, err := v.Validate("SchedSettings", half); err == nil {
		t.Error("half-set disable sentinel accepted")
	}
}

func TestValidateGasHeatSettings(t *testing.T) {
	legal := GasHeaterSettings{
		Type: GasHeat1Heat1Cool1Fan, MinRunTime: 5, AnticycleTime: 3,
		StageOffset: 30, StageDelay: 10,
	}
	if _, err := NewGasHeatSettingsCommand(nil, legal); err != nil {
		t.Errorf("legal settings rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*GasHeaterSettings)
	}{
		{name: "run time too short", mutate: func(s *GasHeaterSettings) { s.MinRunTime = 1 }},
		{name: "anticycle too long", mutate: func(s *GasHeaterSettings) { s.AnticycleTime = 11 }},
		{name: "stage offset too small", mutate: func(s *GasHeaterSettings) { s.StageOffset = 19 }},
		{name: "stage delay too long", mutate: func(s *GasHeaterSettings) { s.StageDelay = 16 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := legal
			tt.mutate(&s)
			if _, err := NewGasHeatSettingsCommand(nil, s); err == nil {
				t.Error("illegal settings accepted")
			}
		})
	}
}

func TestValidateTemperzoneSetpoints(t *testing.T) {
	if _, err := NewTemperzoneSetpointsCommand(nil, 3500, 1000); err != nil {
		t.Errorf("legal targets rejected: %v", err)
	}
	if _, err := NewTemperzoneSetpointsCommand(nil, 2500, 1000); err == nil {
		t.Error("heat target below 3000 accepted")
	}
	if _, err := NewTemperzoneSetpointsCommand(nil, 3500, 2000); err == nil {
		t.Error("cool target above 1500 accepted")
	}
}

func TestCommandEncoding(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Command, error)
		want  string
	}{
		{
			name:  "scalar on",
			build: func() (*Command, error) { return NewSysOnCommand(nil, true) },
			want:  `{"SysOn":1}`,
		},
		{
			name:  "scalar setpoint",
			build: func() (*Command, error) { return NewSysSetpointCommand(nil, 2350) },
			want:  `{"SysSetpoint":2350}`,
		},
		{
			name:  "zone object",
			build: func() (*Command, error) { return NewZoneSetpointCommand(nil, 3, 2200) },
			want:  `{"ZoneSetpoint":{"Index":3,"Setpoint":2200}}`,
		},
		{
			name:  "system request",
			build: func() (*Command, error) { return NewSystemRequest(nil) },
			want:  `{"iZoneV2Request":{"No":0,"No1":0,"Type":1}}`,
		},
		{
			name:  "power status request",
			build: func() (*Command, error) { return NewPowerStatusRequest(nil) },
			want:  `{"PowerRequest":{"No":0,"Type":2}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.build()
			if err != nil {
				t.Fatalf("build error: %v", err)
			}
			got, err := c.Encode()
			if err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			var a, b interface{}
			if err := json.Unmarshal(got, &a); err != nil {
				t.Fatalf("encoded frame is not JSON: %v", err)
			}
			if err := json.Unmarshal([]byte(tt.want), &b); err != nil {
				t.Fatalf("bad want literal: %v", err)
			}
			if !jsonEqual(a, b) {
				t.Errorf("Encode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func jsonEqual(a, b interface{}) bool {
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ab) == string(bb)
}

func TestCommandTargetKeys(t *testing.T) {
	z3, err := NewZoneSetpointCommand(nil, 3, 2200)
	if err != nil {
		t.Fatal(err)
	}
	z5, err := NewZoneSetpointCommand(nil, 5, 2200)
	if err != nil {
		t.Fatal(err)
	}
	if z3.TargetKey == z5.TargetKey {
		t.Errorf("distinct zones share target key %q", z3.TargetKey)
	}

	ch, err := NewPowerChannelGroupCommand(nil, 1, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if ch.TargetKey != "ChannelGroup/1/2" {
		t.Errorf("TargetKey = %q, want ChannelGroup/1/2", ch.TargetKey)
	}
}

func TestCommandIdempotenceMarking(t *testing.T) {
	set, err := NewSysSetpointCommand(nil, 2200)
	if err != nil {
		t.Fatal(err)
	}
	if !set.Idempotent {
		t.Error("absolute setpoint not marked idempotent")
	}

	rf, err := NewChangeRfChannelCommand(nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if rf.Idempotent {
		t.Error("RF channel change marked idempotent")
	}
}

func TestLockSystemCommand(t *testing.T) {
	if _, err := NewLockSystemCommand(nil, true, "123456", 7); err != nil {
		t.Errorf("legal lock rejected: %v", err)
	}
	if _, err := NewLockSystemCommand(nil, true, "12345", 0); err == nil {
		t.Error("five-digit code accepted")
	}
	if _, err := NewLockSystemCommand(nil, true, "12345a", 0); err == nil {
		t.Error("non-digit code accepted")
	}
}

func TestScheduleZonesCommand(t *testing.T) {
	slots := make([]ScheduleZoneSetting, ScheduleZoneSlots)
	for i := range slots {
		slots[i] = ScheduleZoneSetting{Mode: ZoneModeOpen, Setpoint: SetpointMin}
	}
	slots[0] = ScheduleZoneSetting{Mode: ZoneModeAuto, Setpoint: 2200}

	cmd, err := NewScheduleZonesCommand(nil, 1, slots)
	if err != nil {
		t.Fatalf("full slot set rejected: %v", err)
	}
	frame := cmd.String()
	if !strings.Contains(frame, `"Setpoint":2200`) {
		t.Errorf("slot setpoint not encoded in hundredths: %s", frame)
	}
	if strings.Contains(frame, `"Sp"`) {
		t.Errorf("command carries the status-side Sp field: %s", frame)
	}

	if _, err := NewScheduleZonesCommand(nil, 1, slots[:5]); err == nil {
		t.Error("short slot set accepted")
	}

	slots[3].Setpoint = 2225 // off the 0.50 degree grid
	if _, err := NewScheduleZonesCommand(nil, 1, slots); err == nil {
		t.Error("off-step slot setpoint accepted")
	}
	slots[3].Setpoint = 1000 // below the low bound
	if _, err := NewScheduleZonesCommand(nil, 1, slots); err == nil {
		t.Error("out-of-range slot setpoint accepted")
	}
}
