// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package session

import (
	"sort"

	"github.com/airstream/izonectl/pkg/izone"
)

// The Store implements izone.StateView so a validator can check commands
// against the live topology and lock bands.

// ZoneCount returns the configured number of zones, 0 when unknown.
func (s *Store) ZoneCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.system == nil || s.system.NoOfZones == nil {
		return 0
	}
	return *s.system.NoOfZones
}

// ZoneBalance returns the last known balance band of a zone.
func (s *Store) ZoneBalance(index int) (min, max int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	z := s.zones[index]
	if z == nil || z.BalanceMin == nil || z.BalanceMax == nil {
		return 0, 0, false
	}
	return *z.BalanceMin, *z.BalanceMax, true
}

// ZoneAirLimits returns the last known airflow band of a zone.
func (s *Store) ZoneAirLimits(index int) (min, max int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	z := s.zones[index]
	if z == nil || z.MinAir == nil || z.MaxAir == nil {
		return 0, 0, false
	}
	return *z.MinAir, *z.MaxAir, true
}

// EcoBounds returns the economy lock band.
func (s *Store) EcoBounds() (min, max izone.Temperature, locked bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sys := s.system
	if sys == nil || sys.EcoLock == nil || *sys.EcoLock == 0 {
		return 0, 0, false
	}
	if sys.EcoMin == nil || sys.EcoMax == nil {
		return 0, 0, false
	}
	return *sys.EcoMin, *sys.EcoMax, true
}

// FanCapability classifies the unit's fan control from the FanAuto
// settings.
func (s *Store) FanCapability() izone.FanCapability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sys := s.system
	if sys == nil || sys.FanAutoEn == nil {
		return izone.FanCapUnknown
	}
	if *sys.FanAutoEn == 0 {
		return izone.FanCapDisabled
	}
	if sys.FanAutoType == nil {
		return izone.FanCapUnknown
	}
	switch *sys.FanAutoType {
	case izone.FanAuto2Speed:
		return izone.FanCap2Speed
	case izone.FanAuto3Speed, izone.FanAuto4Speed:
		return izone.FanCap3Speed
	case izone.FanAutoVarSpeed:
		return izone.FanCapVar
	}
	return izone.FanCapUnknown
}

// Snapshot is a point-in-time copy of the mirror for display. The
// contained structs are private copies; mutating them cannot affect the
// store.
type Snapshot struct {
	UID        string
	DeviceType string
	Firmware   string

	System    *izone.SystemStatus
	Zones     []izone.ZoneStatus
	Schedules []izone.ScheduleStatus
	Faults    []izone.FaultStatus

	PowerStat *izone.PowerMonitorStat
	PowerConf *izone.PowerMonitorConf
}

// Snapshot copies the current state. Zones and schedules come out sorted
// by index.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		UID:        s.uid,
		DeviceType: s.deviceType,
		Firmware:   s.firmware,
		Faults:     append([]izone.FaultStatus(nil), s.faults...),
		PowerStat:  clonePowerStat(s.powerStat),
		PowerConf:  clonePowerConf(s.powerConf),
	}
	if s.system != nil {
		sys := &izone.SystemStatus{}
		mergeStatus(sys, s.system)
		snap.System = sys
	}

	idx := make([]int, 0, len(s.zones))
	for i := range s.zones {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		z := izone.ZoneStatus{}
		mergeStatus(&z, s.zones[i])
		snap.Zones = append(snap.Zones, z)
	}

	idx = idx[:0]
	for i := range s.schedules {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		sc := izone.ScheduleStatus{}
		mergeStatus(&sc, s.schedules[i])
		sc.Zones = append([]izone.ScheduleZoneStatus(nil), s.schedules[i].Zones...)
		snap.Schedules = append(snap.Schedules, sc)
	}

	return snap
}

// clonePowerStat copies the power readings tree. mergeStatus handles the
// pointer scalars of each level; the device and channel slices are
// rebuilt by hand.
func clonePowerStat(src *izone.PowerMonitorStat) *izone.PowerMonitorStat {
	if src == nil {
		return nil
	}
	dst := &izone.PowerMonitorStat{}
	mergeStatus(dst, src)
	dst.Dev = make([]izone.PowerDeviceStat, len(src.Dev))
	for i := range src.Dev {
		mergeStatus(&dst.Dev[i], &src.Dev[i])
		dst.Dev[i].Ch = make([]izone.PowerChannelStat, len(src.Dev[i].Ch))
		for j := range src.Dev[i].Ch {
			mergeStatus(&dst.Dev[i].Ch[j], &src.Dev[i].Ch[j])
		}
	}
	return dst
}

func clonePowerConf(src *izone.PowerMonitorConf) *izone.PowerMonitorConf {
	if src == nil {
		return nil
	}
	dst := &izone.PowerMonitorConf{}
	mergeStatus(dst, src)
	dst.Devices = make([]izone.PowerDeviceConf, len(src.Devices))
	for i := range src.Devices {
		mergeStatus(&dst.Devices[i], &src.Devices[i])
		dst.Devices[i].Channels = make([]izone.PowerChannelConf, len(src.Devices[i].Channels))
		for j := range src.Devices[i].Channels {
			mergeStatus(&dst.Devices[i].Channels[j], &src.Devices[i].Channels[j])
		}
	}
	return dst
}
