// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hint

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/powerlaunch/lib/tune"
)

// Action is one rule of a strategy: when Hint is seen, apply States in
// order. Actions are immutable once parsed.
type Action struct {
	Hint   Hint
	States []tune.State
}

// String renders the action as "(hint: POL, action_set: [State{...}, ...])".
func (a Action) String() string {
	states := make([]string, len(a.States))
	for i, state := range a.States {
		states[i] = state.String()
	}
	return fmt.Sprintf("(hint: %s, action_set: [%s])", a.Hint, strings.Join(states, ", "))
}

// ParseActions decodes a strategy: a JSON array of objects, each with
// a string "hint", an "action" array of state objects, and an
// optional "mode" ("regex" or "literal") overriding defaultMode.
//
//	[
//	  {"hint": "POL", "action": [{"GPU_Freq": 585, "Time": 5}, {"GPU_Freq": 675, "Time": 5}]},
//	  {"hint": "Prog= 80\\.\\d{2}%", "action": [{"GPU_Freq": 810}]}
//	]
//
// Any malformed entry fails the whole strategy with a *tune.ConfigError
// naming the entry's index.
func ParseActions(raw json.RawMessage, defaultMode Mode) ([]Action, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		return nil, &tune.ConfigError{Reason: "strategy must be an array of actions", Err: err}
	}

	actions := make([]Action, 0, len(entries))
	for index, entry := range entries {
		action, err := parseAction(entry, defaultMode)
		if err != nil {
			return nil, &tune.ConfigError{Reason: fmt.Sprintf("action %d: %s", index, err)}
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func parseAction(raw json.RawMessage, defaultMode Mode) (Action, error) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil || object == nil {
		return Action{}, fmt.Errorf("must be an object")
	}

	rawHint, ok := object["hint"]
	if !ok {
		return Action{}, fmt.Errorf("missing \"hint\"")
	}
	var pattern string
	if err := json.Unmarshal(rawHint, &pattern); err != nil {
		return Action{}, fmt.Errorf("\"hint\" must be a string")
	}

	mode := defaultMode
	if rawMode, ok := object["mode"]; ok {
		var name string
		if err := json.Unmarshal(rawMode, &name); err != nil {
			return Action{}, fmt.Errorf("\"mode\" must be a string")
		}
		parsed, err := ParseMode(name)
		if err != nil {
			return Action{}, err
		}
		mode = parsed
	}

	hint, err := NewHint(pattern, mode)
	if err != nil {
		return Action{}, err
	}

	rawStates, ok := object["action"]
	if !ok {
		return Action{}, fmt.Errorf("missing \"action\"")
	}
	var stateEntries []json.RawMessage
	if err := json.Unmarshal(rawStates, &stateEntries); err != nil || stateEntries == nil {
		return Action{}, fmt.Errorf("\"action\" must be an array of states")
	}

	states := make([]tune.State, 0, len(stateEntries))
	for index, entry := range stateEntries {
		state, err := tune.ParseState(entry)
		if err != nil {
			var configError *tune.ConfigError
			if errors.As(err, &configError) {
				return Action{}, fmt.Errorf("state %d: %s", index, configError.Reason)
			}
			return Action{}, fmt.Errorf("state %d: %w", index, err)
		}
		states = append(states, state)
	}
	return Action{Hint: hint, States: states}, nil
}
