// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package izone

import (
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

var fuzzPayloadNames = []string{
	"SystemV2", "ZonesV2", "SchedulesV2", "AcUnitFaultHistV2",
	"TemperzoneInfoV2", "Fmw", "PowerMonitorStatus", "PowerMonitorConfig",
}

var fuzzFieldNames = []string{
	"SysOn", "SysMode", "SysFan", "Setpoint", "Temp", "Index", "Name",
	"MaxAir", "MinAir", "Dev", "Ch", "Pwr", "Zones", "Faults", "Start",
	"Stop", "LastReadingNo", "Voltage", "PF",
}

func randomJSONValue(rng *rand.Rand, depth int) interface{} {
	if depth > 2 {
		return rng.Intn(5000) - 1000
	}
	switch rng.Intn(6) {
	case 0:
		return rng.Intn(5000) - 1000
	case 1:
		return rng.Float64() * 100
	case 2:
		return rng.Intn(2) == 1
	case 3:
		return "str" + strconv.Itoa(rng.Intn(1000))
	case 4:
		n := rng.Intn(4)
		arr := make([]interface{}, n)
		for i := range arr {
			arr[i] = randomJSONValue(rng, depth+1)
		}
		return arr
	default:
		n := rng.Intn(4)
		obj := make(map[string]interface{}, n)
		for i := 0; i < n; i++ {
			obj[fuzzFieldNames[rng.Intn(len(fuzzFieldNames))]] = randomJSONValue(rng, depth+1)
		}
		return obj
	}
}

// TestDecodeStatusFuzz feeds random but structurally plausible status
// frames to the decoder. The decoder must never panic, and a hard error
// must always be one of the declared failure classes.
func TestDecodeStatusFuzz(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		frame := map[string]interface{}{
			"AirStreamDeviceUId": "00000" + strconv.Itoa(rng.Intn(10000)),
		}
		name := fuzzPayloadNames[rng.Intn(len(fuzzPayloadNames))]
		frame[name] = randomJSONValue(rng, 0)

		data, err := json.Marshal(frame)
		if err != nil {
			t.Fatalf("round %d: marshal: %v", i, err)
		}

		env, _, err := DecodeStatus(data)
		if err != nil {
			if !errors.Is(err, ErrDecode) && !errors.Is(err, ErrArrayLengthMismatch) {
				t.Fatalf("round %d: undeclared error class %v for %s", i, err, data)
			}
			continue
		}
		if env == nil {
			t.Fatalf("round %d: nil envelope without error for %s", i, data)
		}
	}
}

// TestDecodeStatusFuzzGarbage feeds raw random bytes: anything that is
// not valid JSON must fail with ErrDecode and never panic.
func TestDecodeStatusFuzzGarbage(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		buf := make([]byte, rng.Intn(64))
		rng.Read(buf)
		env, _, err := DecodeStatus(buf)
		if err == nil {
			// Random bytes occasionally form a valid JSON object.
			if env == nil {
				t.Fatalf("round %d: nil envelope without error", i)
			}
			continue
		}
		if !errors.Is(err, ErrDecode) && !errors.Is(err, ErrArrayLengthMismatch) {
			t.Fatalf("round %d: undeclared error class %v", i, err)
		}
	}
}
