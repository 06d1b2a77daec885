// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

// Package session maintains a live mirror of one controller's state and
// runs the request/response traffic that keeps it current. Incoming
// status payloads are merged field by field in reception order; callers
// observe the mirror through snapshots and a change event stream.
package session

import (
	"reflect"
	"sync"

	"github.com/airstream/izonectl/pkg/izone"
)

// ChangeKind classifies a change event.
type ChangeKind int

const (
	ChangeSystem ChangeKind = iota
	ChangeZone
	ChangeSchedule
	ChangeFaults
	ChangeFirmware
	ChangeTemperzone
	ChangePowerStatus
	ChangePowerConfig

	// ChangeIdentity means the frames started arriving from a different
	// controller. All prior state has been dropped.
	ChangeIdentity
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSystem:
		return "system"
	case ChangeZone:
		return "zone"
	case ChangeSchedule:
		return "schedule"
	case ChangeFaults:
		return "faults"
	case ChangeFirmware:
		return "firmware"
	case ChangeTemperzone:
		return "temperzone"
	case ChangePowerStatus:
		return "power-status"
	case ChangePowerConfig:
		return "power-config"
	case ChangeIdentity:
		return "identity"
	}
	return "unknown"
}

// ChangeEvent reports one observed state change. Seq increases with every
// applied payload, so consumers can order events from a buffered channel.
type ChangeEvent struct {
	Seq    uint64
	Kind   ChangeKind
	Index  int // zone or schedule index, -1 otherwise
	Fields []string
}

// Store is the merged state of one controller. All methods are safe for
// concurrent use.
type Store struct {
	mu  sync.RWMutex
	seq uint64

	uid        string
	deviceType string

	system    *izone.SystemStatus
	zones     map[int]*izone.ZoneStatus
	schedules map[int]*izone.ScheduleStatus
	faults    []izone.FaultStatus
	firmware  string

	temperzone  *izone.TemperzoneInfo
	powerStat   *izone.PowerMonitorStat
	powerConf   *izone.PowerMonitorConf
	lastReading int
}

// NewStore creates an empty state mirror.
func NewStore() *Store {
	return &Store{
		zones:       make(map[int]*izone.ZoneStatus),
		schedules:   make(map[int]*izone.ScheduleStatus),
		lastReading: -1,
	}
}

// UID returns the controller identity the store is currently tracking.
func (s *Store) UID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uid
}

func (s *Store) reset() {
	s.system = nil
	s.zones = make(map[int]*izone.ZoneStatus)
	s.schedules = make(map[int]*izone.ScheduleStatus)
	s.faults = nil
	s.firmware = ""
	s.temperzone = nil
	s.powerStat = nil
	s.powerConf = nil
	s.lastReading = -1
}

// Apply merges one decoded status payload and returns the change events
// it produced. A payload that changes nothing produces no events, so
// re-deliveries and periodic re-queries are silent.
func (s *Store) Apply(env *izone.StatusEnvelope) []ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []ChangeEvent

	if env.DeviceUID != "" {
		if s.uid != "" && env.DeviceUID != s.uid {
			s.reset()
			s.seq++
			events = append(events, ChangeEvent{Seq: s.seq, Kind: ChangeIdentity, Index: -1})
		}
		s.uid = env.DeviceUID
	}
	if env.DeviceType != "" {
		s.deviceType = env.DeviceType
	}

	if env.System != nil {
		if s.system == nil {
			s.system = &izone.SystemStatus{}
		}
		if changed := mergeStatus(s.system, env.System); len(changed) > 0 {
			s.seq++
			events = append(events, ChangeEvent{Seq: s.seq, Kind: ChangeSystem, Index: -1, Fields: changed})
		}
	}

	for i := range env.Zones {
		z := &env.Zones[i]
		if z.Index == nil {
			continue
		}
		idx := *z.Index
		dst, ok := s.zones[idx]
		if !ok {
			dst = &izone.ZoneStatus{}
			s.zones[idx] = dst
		}
		if changed := mergeStatus(dst, z); len(changed) > 0 {
			s.seq++
			events = append(events, ChangeEvent{Seq: s.seq, Kind: ChangeZone, Index: idx, Fields: changed})
		}
	}

	if env.Schedule != nil && env.Schedule.Index != nil {
		idx := *env.Schedule.Index
		dst, ok := s.schedules[idx]
		if !ok {
			dst = &izone.ScheduleStatus{}
			s.schedules[idx] = dst
		}
		changed := mergeStatus(dst, env.Schedule)
		if len(env.Schedule.Zones) > 0 && !reflect.DeepEqual(dst.Zones, env.Schedule.Zones) {
			dst.Zones = append([]izone.ScheduleZoneStatus(nil), env.Schedule.Zones...)
			changed = append(changed, "Zones")
		}
		if len(changed) > 0 {
			s.seq++
			events = append(events, ChangeEvent{Seq: s.seq, Kind: ChangeSchedule, Index: idx, Fields: changed})
		}
	}

	if env.FaultHist != nil {
		if !reflect.DeepEqual(s.faults, env.FaultHist.Faults) {
			s.faults = append([]izone.FaultStatus(nil), env.FaultHist.Faults...)
			s.seq++
			events = append(events, ChangeEvent{Seq: s.seq, Kind: ChangeFaults, Index: -1})
		}
	}

	if env.Firmware != nil && *env.Firmware != s.firmware {
		s.firmware = *env.Firmware
		s.seq++
		events = append(events, ChangeEvent{Seq: s.seq, Kind: ChangeFirmware, Index: -1})
	}

	if env.Temperzone != nil {
		if !reflect.DeepEqual(s.temperzone, env.Temperzone) {
			s.temperzone = env.Temperzone
			s.seq++
			events = append(events, ChangeEvent{Seq: s.seq, Kind: ChangeTemperzone, Index: -1})
		}
	}

	if env.PowerStat != nil {
		// The monitor re-sends the last readings until the next sample
		// interval; LastReadingNo deduplicates them.
		no := -1
		if env.PowerStat.LastReadingNo != nil {
			no = *env.PowerStat.LastReadingNo
		}
		if no < 0 || no != s.lastReading {
			s.powerStat = env.PowerStat
			s.lastReading = no
			s.seq++
			events = append(events, ChangeEvent{Seq: s.seq, Kind: ChangePowerStatus, Index: -1})
		}
	}

	if env.PowerConf != nil {
		if !reflect.DeepEqual(s.powerConf, env.PowerConf) {
			s.powerConf = env.PowerConf
			s.seq++
			events = append(events, ChangeEvent{Seq: s.seq, Kind: ChangePowerConfig, Index: -1})
		}
	}

	return events
}

// mergeStatus copies every non-nil pointer field of src over dst and
// returns the json names of fields whose value actually changed. Both
// arguments must point to the same struct type.
func mergeStatus(dst, src interface{}) []string {
	var changed []string
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src).Elem()
	t := sv.Type()

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() != reflect.Ptr {
			continue
		}
		sf := sv.Field(i)
		if sf.IsNil() {
			continue
		}
		df := dv.Field(i)
		if !df.IsNil() && reflect.DeepEqual(df.Elem().Interface(), sf.Elem().Interface()) {
			continue
		}
		// Copy the value, not the pointer, so later envelope reuse cannot
		// mutate the store.
		nv := reflect.New(f.Type.Elem())
		nv.Elem().Set(sf.Elem())
		df.Set(nv)
		changed = append(changed, jsonName(f))
	}
	return changed
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			return tag[:i]
		}
	}
	if tag == "" {
		return f.Name
	}
	return tag
}
