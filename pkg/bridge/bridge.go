// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

// Package bridge republishes controller state over MQTT in the Home
// Assistant discovery convention and turns command topics back into
// validated controller writes.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	average "github.com/RobinUS2/golang-moving-average"
	"github.com/rs/zerolog"

	"github.com/airstream/izonectl/pkg/izone"
	"github.com/airstream/izonectl/pkg/session"
)

// Publish sends one MQTT message.
type Publish func(topic string, qos byte, retained bool, payload string) error

// Subscribe registers a handler for an MQTT topic.
type Subscribe func(topic string, callback func(message string)) error

// Controller is the slice of the session API the bridge consumes.
type Controller interface {
	Snapshot() session.Snapshot
	Subscribe() <-chan session.ChangeEvent
	Validator() *izone.Validator
	Execute(ctx context.Context, cmd *izone.Command) error
	Refresh(ctx context.Context) error
}

// Config wires the bridge to a broker and a controller session.
type Config struct {
	ModuleName  string // default "izone"
	TopicPrefix string // default "izone"
	HassPrefix  string // default "homeassistant"

	Publish    Publish
	Subscribe  Subscribe
	Controller Controller
	Logger     zerolog.Logger

	// TempWindow is the moving-average window applied to reported zone
	// temperatures before publication (default 5 samples). Wireless
	// sensors report in coarse steps; the average keeps graphs usable.
	TempWindow int

	// PowerWindow smooths the published total power (default 5).
	PowerWindow int
}

// Bridge republished one controller on one broker.
type Bridge struct {
	cfg Config
	log zerolog.Logger

	zoneTemps map[int]*average.MovingAverage
	power     *average.MovingAverage
}

// New creates a bridge. Call Run to start it.
func New(cfg Config) *Bridge {
	if cfg.ModuleName == "" {
		cfg.ModuleName = "izone"
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "izone"
	}
	if cfg.HassPrefix == "" {
		cfg.HassPrefix = "homeassistant"
	}
	if cfg.TempWindow == 0 {
		cfg.TempWindow = 5
	}
	if cfg.PowerWindow == 0 {
		cfg.PowerWindow = 5
	}
	return &Bridge{
		cfg:       cfg,
		log:       cfg.Logger.With().Str("component", "bridge").Logger(),
		zoneTemps: make(map[int]*average.MovingAverage),
		power:     average.New(cfg.PowerWindow),
	}
}

func (b *Bridge) zoneTopic(zone int, sub string) string {
	return fmt.Sprintf("%s/%s/zone%d/%s", b.cfg.TopicPrefix, b.cfg.ModuleName, zone, sub)
}

func (b *Bridge) sysTopic(sub string) string {
	return fmt.Sprintf("%s/%s/sys/%s", b.cfg.TopicPrefix, b.cfg.ModuleName, sub)
}

func (b *Bridge) powerTopic(sub string) string {
	return fmt.Sprintf("%s/%s/power/%s", b.cfg.TopicPrefix, b.cfg.ModuleName, sub)
}

// Run fetches the initial state, announces every zone to Home Assistant,
// subscribes the command topics and then republishes change events until
// ctx ends.
func (b *Bridge) Run(ctx context.Context) error {
	events := b.cfg.Controller.Subscribe()

	if err := b.cfg.Controller.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}

	snap := b.cfg.Controller.Snapshot()
	if err := b.announce(snap); err != nil {
		return err
	}
	if err := b.subscribeCommands(ctx, snap); err != nil {
		return err
	}
	b.publishSystem(snap.System)
	for i := range snap.Zones {
		b.publishZone(&snap.Zones[i])
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			b.handleEvent(ev)
		}
	}
}

func (b *Bridge) handleEvent(ev session.ChangeEvent) {
	snap := b.cfg.Controller.Snapshot()
	switch ev.Kind {
	case session.ChangeSystem:
		b.publishSystem(snap.System)
	case session.ChangeZone:
		for i := range snap.Zones {
			if snap.Zones[i].Index != nil && *snap.Zones[i].Index == ev.Index {
				b.publishZone(&snap.Zones[i])
			}
		}
	case session.ChangePowerStatus:
		b.publishPower(snap.PowerStat, snap.PowerConf)
	case session.ChangeIdentity:
		b.log.Warn().Msg("controller identity changed, republishing everything")
		b.publishSystem(snap.System)
		for i := range snap.Zones {
			b.publishZone(&snap.Zones[i])
		}
	}
}

// hvacMode maps the controller state to a Home Assistant climate mode.
func hvacMode(sys *izone.SystemStatus) string {
	if sys == nil || sys.SysOn == nil || *sys.SysOn == 0 {
		return "off"
	}
	if sys.SysMode == nil {
		return "off"
	}
	switch *sys.SysMode {
	case izone.SysModeCool:
		return "cool"
	case izone.SysModeHeat:
		return "heat"
	case izone.SysModeVent:
		return "fan_only"
	case izone.SysModeDry:
		return "dry"
	case izone.SysModeAuto:
		return "heat_cool"
	}
	return "off"
}

func parseHvacMode(s string) (on bool, mode izone.SysMode, ok bool) {
	switch s {
	case "off":
		return false, 0, true
	case "cool":
		return true, izone.SysModeCool, true
	case "heat":
		return true, izone.SysModeHeat, true
	case "fan_only":
		return true, izone.SysModeVent, true
	case "dry":
		return true, izone.SysModeDry, true
	case "heat_cool":
		return true, izone.SysModeAuto, true
	}
	return false, 0, false
}

func (b *Bridge) publishSystem(sys *izone.SystemStatus) {
	if sys == nil {
		return
	}
	b.pub(b.sysTopic("mode"), hvacMode(sys))
	if sys.SysFan != nil {
		b.pub(b.sysTopic("fan"), sys.SysFan.String())
	}
	if sys.Setpoint != nil {
		b.pub(b.sysTopic("targetTemp"), formatTemp(*sys.Setpoint))
	}
	if sys.Temp != nil {
		b.pub(b.sysTopic("currentTemp"), formatTemp(*sys.Temp))
	}
}

func (b *Bridge) publishZone(z *izone.ZoneStatus) {
	if z.Index == nil {
		return
	}
	idx := *z.Index
	if z.Temp != nil {
		avg, ok := b.zoneTemps[idx]
		if !ok {
			avg = average.New(b.cfg.TempWindow)
			b.zoneTemps[idx] = avg
		}
		avg.Add(z.Temp.Celsius())
		b.pub(b.zoneTopic(idx, "currentTemp"), fmt.Sprintf("%.2f", avg.Avg()))
	}
	if z.Setpoint != nil {
		b.pub(b.zoneTopic(idx, "targetTemp"), formatTemp(*z.Setpoint))
	}
	if z.Mode != nil {
		b.pub(b.zoneTopic(idx, "mode"), z.Mode.String())
	}
}

func (b *Bridge) publishPower(stat *izone.PowerMonitorStat, conf *izone.PowerMonitorConf) {
	if stat == nil {
		return
	}
	total := 0
	for d := range stat.Dev {
		for c := range stat.Dev[d].Ch {
			ch := stat.Dev[d].Ch[c]
			if ch.Pwr == nil {
				continue
			}
			if conf != nil && !channelCounts(conf, d, c) {
				continue
			}
			total += *ch.Pwr
			b.pub(b.powerTopic(fmt.Sprintf("dev%d/ch%d", d, c)), strconv.Itoa(*ch.Pwr))
		}
	}
	b.power.Add(float64(total))
	b.pub(b.powerTopic("total"), fmt.Sprintf("%.0f", b.power.Avg()))
}

func channelCounts(conf *izone.PowerMonitorConf, dev, ch int) bool {
	if dev >= len(conf.Devices) || ch >= len(conf.Devices[dev].Channels) {
		return true
	}
	c := conf.Devices[dev].Channels[ch]
	if c.Enabled != nil && *c.Enabled == 0 {
		return false
	}
	if c.AddToTotal != nil && *c.AddToTotal == 0 {
		return false
	}
	return true
}

// announce publishes Home Assistant discovery configs, one climate
// entity per zone.
func (b *Bridge) announce(snap session.Snapshot) error {
	for i := range snap.Zones {
		z := &snap.Zones[i]
		if z.Index == nil {
			continue
		}
		idx := *z.Index
		name := fmt.Sprintf("%s_zone%d", b.cfg.ModuleName, idx)
		if z.Name != nil {
			name = *z.Name
		}
		config := map[string]interface{}{
			"name":                      name,
			"unique_id":                 fmt.Sprintf("%s_%s_zone%d", b.cfg.ModuleName, snap.UID, idx),
			"current_temperature_topic": b.zoneTopic(idx, "currentTemp"),
			"temperature_state_topic":   b.zoneTopic(idx, "targetTemp"),
			"temperature_command_topic": b.zoneTopic(idx, "targetTemp") + "/set",
			"mode_state_topic":          b.sysTopic("mode"),
			"mode_command_topic":        b.sysTopic("mode") + "/set",
			"modes":                     []string{"off", "cool", "heat", "dry", "fan_only", "heat_cool"},
			"temperature_unit":          "C",
			"precision":                 0.5,
			"temp_step":                 0.5,
			"min_temp":                  izone.SetpointMin.Celsius(),
			"max_temp":                  izone.SetpointMax.Celsius(),
		}
		payload, err := json.Marshal(config)
		if err != nil {
			return err
		}
		topic := fmt.Sprintf("%s/climate/%s/zone%d/config", b.cfg.HassPrefix, b.cfg.ModuleName, idx)
		if err := b.cfg.Publish(topic, 0, true, string(payload)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) subscribeCommands(ctx context.Context, snap session.Snapshot) error {
	if err := b.cfg.Subscribe(b.sysTopic("mode")+"/set", func(msg string) {
		b.setSystemMode(ctx, msg)
	}); err != nil {
		return err
	}

	for i := range snap.Zones {
		z := snap.Zones[i]
		if z.Index == nil {
			continue
		}
		idx := *z.Index
		if err := b.cfg.Subscribe(b.zoneTopic(idx, "targetTemp")+"/set", func(msg string) {
			b.setZoneSetpoint(ctx, idx, msg)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) setSystemMode(ctx context.Context, msg string) {
	on, mode, ok := parseHvacMode(strings.TrimSpace(msg))
	if !ok {
		b.log.Warn().Str("mode", msg).Msg("unknown hvac mode")
		return
	}
	v := b.cfg.Controller.Validator()
	if !on {
		cmd, err := izone.NewSysOnCommand(v, false)
		if err == nil {
			err = b.cfg.Controller.Execute(ctx, cmd)
		}
		if err != nil {
			b.log.Error().Err(err).Msg("system off failed")
		}
		return
	}
	cmd, err := izone.NewSysOnCommand(v, true)
	if err == nil {
		err = b.cfg.Controller.Execute(ctx, cmd)
	}
	if err != nil {
		b.log.Error().Err(err).Msg("system on failed")
		return
	}
	cmd, err = izone.NewSysModeCommand(v, mode)
	if err == nil {
		err = b.cfg.Controller.Execute(ctx, cmd)
	}
	if err != nil {
		b.log.Error().Err(err).Stringer("mode", mode).Msg("mode change failed")
	}
}

func (b *Bridge) setZoneSetpoint(ctx context.Context, zone int, msg string) {
	c, err := strconv.ParseFloat(strings.TrimSpace(msg), 64)
	if err != nil {
		b.log.Warn().Str("payload", msg).Int("zone", zone).Msg("unparseable setpoint")
		return
	}
	cmd, err := izone.NewZoneSetpointCommand(b.cfg.Controller.Validator(), zone, izone.TempFromCelsius(c))
	if err != nil {
		b.log.Warn().Err(err).Int("zone", zone).Msg("setpoint rejected")
		return
	}
	if err := b.cfg.Controller.Execute(ctx, cmd); err != nil {
		b.log.Error().Err(err).Int("zone", zone).Msg("setpoint write failed")
	}
}

func (b *Bridge) pub(topic, payload string) {
	if err := b.cfg.Publish(topic, 0, true, payload); err != nil {
		b.log.Warn().Err(err).Str("topic", topic).Msg("publish failed")
	}
}

func formatTemp(t izone.Temperature) string {
	return strconv.FormatFloat(t.Celsius(), 'f', -1, 64)
}
