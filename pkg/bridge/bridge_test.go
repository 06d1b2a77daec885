// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package bridge

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airstream/izonectl/pkg/izone"
	"github.com/airstream/izonectl/pkg/session"
)

type fakeBroker struct {
	mu       sync.Mutex
	messages map[string][]string
	retained map[string]bool
	handlers map[string]func(string)
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		messages: make(map[string][]string),
		retained: make(map[string]bool),
		handlers: make(map[string]func(string)),
	}
}

func (f *fakeBroker) publish(topic string, qos byte, retained bool, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[topic] = append(f.messages[topic], payload)
	f.retained[topic] = retained
	return nil
}

func (f *fakeBroker) subscribe(topic string, callback func(string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = callback
	return nil
}

func (f *fakeBroker) last(topic string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[topic]
	if len(msgs) == 0 {
		return "", false
	}
	return msgs[len(msgs)-1], true
}

func (f *fakeBroker) inject(topic, payload string) bool {
	f.mu.Lock()
	h := f.handlers[topic]
	f.mu.Unlock()
	if h == nil {
		return false
	}
	h(payload)
	return true
}

type fakeController struct {
	mu       sync.Mutex
	snap     session.Snapshot
	commands []*izone.Command
	events   chan session.ChangeEvent
}

func newFakeController(snap session.Snapshot) *fakeController {
	return &fakeController{snap: snap, events: make(chan session.ChangeEvent, 16)}
}

func (f *fakeController) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeController) Subscribe() <-chan session.ChangeEvent { return f.events }

func (f *fakeController) Validator() *izone.Validator { return izone.NewValidator(nil) }

func (f *fakeController) Execute(ctx context.Context, cmd *izone.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *fakeController) Refresh(ctx context.Context) error { return nil }

func (f *fakeController) sent() []*izone.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*izone.Command(nil), f.commands...)
}

func intp(v int) *int                              { return &v }
func strp(v string) *string                        { return &v }
func tempp(v izone.Temperature) *izone.Temperature { return &v }
func modep(v izone.SysMode) *izone.SysMode         { return &v }
func zmodep(v izone.ZoneMode) *izone.ZoneMode      { return &v }

func testSnapshot() session.Snapshot {
	return session.Snapshot{
		UID: "000000555",
		System: &izone.SystemStatus{
			SysOn:    intp(1),
			SysMode:  modep(izone.SysModeCool),
			Setpoint: tempp(2300),
			Temp:     tempp(2410),
		},
		Zones: []izone.ZoneStatus{
			{Index: intp(0), Name: strp("Lounge"), Mode: zmodep(izone.ZoneModeAuto),
				Temp: tempp(2250), Setpoint: tempp(2200)},
			{Index: intp(1), Name: strp("Bedroom"), Mode: zmodep(izone.ZoneModeClose),
				Temp: tempp(2100), Setpoint: tempp(2050)},
		},
	}
}

func startBridge(t *testing.T, broker *fakeBroker, ctrl *fakeController) context.CancelFunc {
	t.Helper()
	b := New(Config{
		Publish:    broker.publish,
		Subscribe:  broker.subscribe,
		Controller: ctrl,
		Logger:     zerolog.Nop(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("bridge did not stop")
		}
	})

	// Run publishes the initial state synchronously before entering its
	// event loop, so the lounge temperature is the readiness marker.
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := broker.last("izone/izone/zone0/currentTemp"); ok {
			return cancel
		}
		if time.Now().After(deadline) {
			t.Fatal("bridge never published initial state")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAnnouncePublishesDiscoveryConfigs(t *testing.T) {
	broker := newFakeBroker()
	ctrl := newFakeController(testSnapshot())
	startBridge(t, broker, ctrl)

	payload, ok := broker.last("homeassistant/climate/izone/zone0/config")
	require.True(t, ok)
	assert.True(t, broker.retained["homeassistant/climate/izone/zone0/config"])

	var config map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &config))
	assert.Equal(t, "Lounge", config["name"])
	assert.Equal(t, "izone/izone/zone0/currentTemp", config["current_temperature_topic"])
	assert.Equal(t, "izone/izone/zone0/targetTemp/set", config["temperature_command_topic"])
	assert.Equal(t, 15.0, config["min_temp"])
	assert.Equal(t, 30.0, config["max_temp"])

	_, ok = broker.last("homeassistant/climate/izone/zone1/config")
	assert.True(t, ok)
}

func TestInitialStatePublished(t *testing.T) {
	broker := newFakeBroker()
	ctrl := newFakeController(testSnapshot())
	startBridge(t, broker, ctrl)

	mode, _ := broker.last("izone/izone/sys/mode")
	assert.Equal(t, "cool", mode)
	target, _ := broker.last("izone/izone/sys/targetTemp")
	assert.Equal(t, "23", target)
	temp, _ := broker.last("izone/izone/zone0/currentTemp")
	assert.Equal(t, "22.50", temp)
	zt, _ := broker.last("izone/izone/zone1/targetTemp")
	assert.Equal(t, "20.5", zt)
}

func TestSetpointCommandTopic(t *testing.T) {
	broker := newFakeBroker()
	ctrl := newFakeController(testSnapshot())
	startBridge(t, broker, ctrl)

	require.True(t, broker.inject("izone/izone/zone1/targetTemp/set", "21.5"))

	cmds := ctrl.sent()
	require.Len(t, cmds, 1)
	assert.Equal(t, "ZoneSetpoint", cmds[0].Name)
	wire := cmds[0].String()
	assert.Contains(t, wire, `"Setpoint":2150`)
	assert.Contains(t, wire, `"Index":1`)
}

func TestSetpointRejectsOffGrid(t *testing.T) {
	broker := newFakeBroker()
	ctrl := newFakeController(testSnapshot())
	startBridge(t, broker, ctrl)

	// 21.3 is not on the half-degree grid, nothing should be sent.
	require.True(t, broker.inject("izone/izone/zone1/targetTemp/set", "21.3"))
	assert.Empty(t, ctrl.sent())

	require.True(t, broker.inject("izone/izone/zone1/targetTemp/set", "not a number"))
	assert.Empty(t, ctrl.sent())
}

func TestModeCommandTopic(t *testing.T) {
	broker := newFakeBroker()
	ctrl := newFakeController(testSnapshot())
	startBridge(t, broker, ctrl)

	require.True(t, broker.inject("izone/izone/sys/mode/set", "heat"))

	cmds := ctrl.sent()
	require.Len(t, cmds, 2)
	assert.Equal(t, "SysOn", cmds[0].Name)
	assert.Equal(t, "SysMode", cmds[1].Name)

	require.True(t, broker.inject("izone/izone/sys/mode/set", "off"))
	cmds = ctrl.sent()
	require.Len(t, cmds, 3)
	assert.Equal(t, "SysOn", cmds[2].Name)
	assert.Equal(t, `{"SysOn":0}`, cmds[2].String())
}

func TestEventRepublishesZone(t *testing.T) {
	broker := newFakeBroker()
	snap := testSnapshot()
	ctrl := newFakeController(snap)
	startBridge(t, broker, ctrl)

	ctrl.mu.Lock()
	ctrl.snap.Zones[0].Setpoint = tempp(2400)
	ctrl.mu.Unlock()
	ctrl.events <- session.ChangeEvent{Kind: session.ChangeZone, Index: 0}

	deadline := time.Now().Add(time.Second)
	for {
		if v, _ := broker.last("izone/izone/zone0/targetTemp"); v == "24" {
			break
		}
		if time.Now().After(deadline) {
			v, _ := broker.last("izone/izone/zone0/targetTemp")
			t.Fatalf("zone0 targetTemp never updated, last %q", v)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPowerTotalsSkipExcludedChannels(t *testing.T) {
	broker := newFakeBroker()
	snap := testSnapshot()
	snap.PowerStat = &izone.PowerMonitorStat{
		LastReadingNo: intp(1),
		Dev: []izone.PowerDeviceStat{
			{Ok: intp(1), Ch: []izone.PowerChannelStat{
				{Pwr: intp(600)}, {Pwr: intp(400)}, {Pwr: intp(250)},
			}},
		},
	}
	snap.PowerConf = &izone.PowerMonitorConf{
		Devices: []izone.PowerDeviceConf{
			{Enabled: intp(1), Channels: []izone.PowerChannelConf{
				{Enabled: intp(1), AddToTotal: intp(1)},
				{Enabled: intp(1), AddToTotal: intp(0)},
				{Enabled: intp(0), AddToTotal: intp(1)},
			}},
		},
	}
	ctrl := newFakeController(snap)
	startBridge(t, broker, ctrl)

	ctrl.events <- session.ChangeEvent{Kind: session.ChangePowerStatus, Index: -1}

	deadline := time.Now().Add(time.Second)
	for {
		if v, ok := broker.last("izone/izone/power/total"); ok {
			assert.Equal(t, "600", v)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("power total never published")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestZoneTemperatureSmoothing(t *testing.T) {
	broker := newFakeBroker()
	ctrl := newFakeController(testSnapshot())
	startBridge(t, broker, ctrl)

	// Two readings 22.50 then 23.50 average to 23.00 with the default
	// five sample window.
	ctrl.mu.Lock()
	ctrl.snap.Zones[0].Temp = tempp(2350)
	ctrl.mu.Unlock()
	ctrl.events <- session.ChangeEvent{Kind: session.ChangeZone, Index: 0}

	deadline := time.Now().Add(time.Second)
	for {
		if v, _ := broker.last("izone/izone/zone0/currentTemp"); v == "23.00" {
			break
		}
		if time.Now().After(deadline) {
			v, _ := broker.last("izone/izone/zone0/currentTemp")
			t.Fatalf("smoothed temp never arrived, last %q", v)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestUnknownModePayloadIgnored(t *testing.T) {
	broker := newFakeBroker()
	ctrl := newFakeController(testSnapshot())
	startBridge(t, broker, ctrl)

	require.True(t, broker.inject("izone/izone/sys/mode/set", "turbo"))
	assert.Empty(t, ctrl.sent())
}

func TestTopicLayout(t *testing.T) {
	b := New(Config{ModuleName: "house", TopicPrefix: "ac", HassPrefix: "ha", Logger: zerolog.Nop()})
	assert.Equal(t, "ac/house/zone3/currentTemp", b.zoneTopic(3, "currentTemp"))
	assert.Equal(t, "ac/house/sys/mode", b.sysTopic("mode"))
	assert.True(t, strings.HasPrefix(b.powerTopic("total"), "ac/house/power/"))
}
