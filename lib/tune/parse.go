// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tune

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Configuration keys of a state object.
const (
	KeyCPUFreq  = "CPU_Freq"
	KeyGPUFreq  = "GPU_Freq"
	KeyFanSpeed = "Fan_Speed"
	KeyTime     = "Time"
)

// ParseState decodes a state object such as
//
//	{"GPU_Freq": 585, "Time": 5}
//
// Every known key must hold a non-negative integer; Time is in
// milliseconds. Fan_Speed must be within 0-100. Unknown keys are
// ignored. Any violation is returned as a *ConfigError.
func ParseState(raw json.RawMessage) (State, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var object map[string]any
	if err := decoder.Decode(&object); err != nil || object == nil {
		return State{}, &ConfigError{Reason: "state must be a JSON object", Err: err}
	}

	var state State
	for _, key := range []string{KeyCPUFreq, KeyGPUFreq, KeyFanSpeed, KeyTime} {
		value, ok := object[key]
		if !ok {
			continue
		}
		number, err := nonNegativeInteger(value)
		if err != nil {
			return State{}, &ConfigError{Reason: fmt.Sprintf("%s: %v", key, err)}
		}
		switch key {
		case KeyCPUFreq:
			state = state.WithCPUFreq(number)
		case KeyGPUFreq:
			state = state.WithGPUFreq(number)
		case KeyFanSpeed:
			if number > 100 {
				return State{}, &ConfigError{Reason: fmt.Sprintf("%s: %d is outside 0-100", key, number)}
			}
			state = state.WithFanSpeed(number)
		case KeyTime:
			state = state.WithDwell(time.Duration(number) * time.Millisecond)
		}
	}
	return state, nil
}

func nonNegativeInteger(value any) (int, error) {
	number, ok := value.(json.Number)
	if !ok {
		return 0, fmt.Errorf("need a number, got %T", value)
	}
	parsed, err := strconv.ParseUint(number.String(), 10, 31)
	if err != nil {
		return 0, fmt.Errorf("need a non-negative integer, got %s", number)
	}
	return int(parsed), nil
}
