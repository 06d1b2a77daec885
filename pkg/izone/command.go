// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package izone

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Command is a validated, encodable command or request. Commands are only
// produced by the validator, so an encoded frame always satisfies the
// documented constraints.
type Command struct {
	// Name is the wire message name, e.g. "SysSetpoint".
	Name string

	// Endpoint selects which device endpoint the frame goes to.
	Endpoint Endpoint

	// Kind distinguishes state-changing commands from read requests.
	Kind MessageKind

	// Idempotent marks absolute-value commands safe to re-send.
	Idempotent bool

	// TargetKey identifies the sub-entity the command addresses. Writes
	// to the same key are serialized; distinct keys may overlap.
	TargetKey string

	payload interface{}
}

func newCommand(schema *MessageSchema, values Values) *Command {
	c := &Command{
		Name:       schema.Name,
		Endpoint:   schema.Endpoint,
		Kind:       schema.Kind,
		Idempotent: schema.Idempotent,
		TargetKey:  targetKey(schema, values),
	}
	if schema.Scalar {
		c.payload = wireValue(&schema.Fields[0], values[schema.Name])
	} else {
		c.payload = wireObject(schema.Fields, values)
	}
	return c
}

// targetKey is the message name plus any addressing field values, so
// ZoneSetpoint on zone 2 and zone 5 never queue behind each other.
func targetKey(schema *MessageSchema, values Values) string {
	if len(schema.TargetFields) == 0 {
		return schema.Name
	}
	parts := make([]string, 0, len(schema.TargetFields)+1)
	parts = append(parts, schema.Name)
	for _, f := range schema.TargetFields {
		n, _ := toInt(values[f])
		parts = append(parts, fmt.Sprintf("%d", n))
	}
	return strings.Join(parts, "/")
}

func wireObject(specs []FieldSpec, values Values) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for i := range specs {
		spec := &specs[i]
		raw, ok := values[spec.Name]
		if !ok {
			continue
		}
		out[spec.Name] = wireValue(spec, raw)
	}
	return out
}

// wireValue converts a validated value to its wire representation. Flags
// travel as 0/1 integers and named integer types collapse to plain ints.
func wireValue(spec *FieldSpec, raw interface{}) interface{} {
	switch spec.Kind {
	case KindFlag:
		if b, ok := raw.(bool); ok {
			return flagInt(b)
		}
		n, _ := toInt(raw)
		return n
	case KindString:
		return raw
	case KindObject:
		nested, _ := raw.(Values)
		return wireObject(spec.Fields, nested)
	case KindArray:
		items, _ := raw.([]Values)
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = wireValue(spec.Elem, item)
		}
		return out
	default:
		n, _ := toInt(raw)
		return n
	}
}

// ExpectedStatus returns the status message name a read request is
// answered with, or "" for commands.
func (c *Command) ExpectedStatus() string {
	if c.Kind != KindRequest {
		return ""
	}
	body, ok := c.payload.(map[string]interface{})
	if !ok {
		return ""
	}
	typ, _ := toInt(body["Type"])
	if c.Name == "PowerRequest" {
		switch typ {
		case RequestPowerConfig:
			return "PowerMonitorConfig"
		case RequestPowerStatus:
			return "PowerMonitorStatus"
		}
		return ""
	}
	switch typ {
	case RequestSystem:
		return "SystemV2"
	case RequestZone:
		return "ZonesV2"
	case RequestSchedule:
		return "SchedulesV2"
	case RequestFaultHist:
		return "AcUnitFaultHistV2"
	case RequestTemperzone:
		return "TemperzoneInfoV2"
	case RequestFirmware:
		return "Fmw"
	}
	return ""
}

// CoveringRequest returns the read request whose response reports the
// state this command modifies. The write path re-queries it after every
// send, both to confirm delivery and to keep the state mirror current.
func (c *Command) CoveringRequest() (*Command, error) {
	if c.Kind == KindRequest {
		return c, nil
	}
	if c.Endpoint == TargetPower {
		return NewPowerConfigRequest(nil)
	}
	schema, err := Lookup(c.Name)
	if err != nil {
		return nil, err
	}
	if len(schema.TargetFields) > 0 {
		idx := c.targetIndex()
		switch schema.Fields[0].Index {
		case IndexZone:
			return NewZonesRequest(nil, idx)
		case IndexSchedule:
			return NewSchedulesRequest(nil, idx)
		}
	}
	return NewSystemRequest(nil)
}

// targetIndex recovers the leading addressing value from the target key.
func (c *Command) targetIndex() int {
	parts := strings.Split(c.TargetKey, "/")
	if len(parts) < 2 {
		return 0
	}
	n := 0
	fmt.Sscanf(parts[1], "%d", &n)
	return n
}

// Encode renders the frame body sent to the device.
func (c *Command) Encode() ([]byte, error) {
	return json.Marshal(map[string]interface{}{c.Name: c.payload})
}

// Body returns the inner payload, mainly for tests and logging.
func (c *Command) Body() interface{} { return c.payload }

func (c *Command) String() string {
	b, err := c.Encode()
	if err != nil {
		return c.Name
	}
	return string(b)
}
