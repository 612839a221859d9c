// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package appdef loads application files: the description of one
// workload and the strategy for tuning the node while it runs.
//
// Application files are JSONC (JSON with // and /* */ comments and
// trailing commas):
//
//	{
//	  "application_path": "/opt/hpl/xhpl",
//	  "args": ["HPL.dat"],
//	  // Full configuration restored after the heat purge.
//	  "start_state": {"CPU_Freq": 2000, "GPU_Freq": 765, "Fan_Speed": 40},
//	  "hint_mode": "regex",
//	  "strategy": [
//	    {"hint": "POL", "action": [{"GPU_Freq": 585, "Time": 5}, {"GPU_Freq": 675, "Time": 5}]},
//	  ],
//	}
//
// Every error from Parse and ReadFile is a *tune.ConfigError.
package appdef

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/powerlaunch/lib/hint"
	"github.com/bureau-foundation/powerlaunch/lib/tune"
)

// Application is a parsed application file.
type Application struct {
	// Executable is the workload to launch. A name without a slash is
	// looked up in PATH.
	Executable string

	Args []string

	// Directory is the workload's working directory. Empty means the
	// launcher's own.
	Directory string

	// StartState is the configuration the node is reset to before the
	// workload starts. It may be incomplete; Reset then fails.
	StartState tune.State

	HintMode    hint.Mode
	Strategy    []hint.Action
	MergeStderr bool
}

type document struct {
	ApplicationPath  string          `json:"application_path"`
	Args             []string        `json:"args"`
	WorkingDirectory string          `json:"working_directory"`
	StartState       json.RawMessage `json:"start_state"`
	HintMode         string          `json:"hint_mode"`
	Strategy         json.RawMessage `json:"strategy"`
	MergeStderr      bool            `json:"merge_stderr"`
}

// Parse decodes JSONC application data.
func Parse(data []byte) (*Application, error) {
	var content document
	if err := json.Unmarshal(jsonc.ToJSON(data), &content); err != nil {
		return nil, &tune.ConfigError{Reason: "application file is not valid JSON", Err: err}
	}
	if content.ApplicationPath == "" {
		return nil, &tune.ConfigError{Reason: `missing "application_path"`}
	}

	mode, err := hint.ParseMode(content.HintMode)
	if err != nil {
		return nil, &tune.ConfigError{Reason: "hint_mode", Err: err}
	}

	application := &Application{
		Executable:  content.ApplicationPath,
		Args:        content.Args,
		Directory:   content.WorkingDirectory,
		HintMode:    mode,
		MergeStderr: content.MergeStderr,
	}

	if len(content.StartState) > 0 && string(content.StartState) != "null" {
		state, err := tune.ParseState(content.StartState)
		if err != nil {
			return nil, prefixed("start_state", err)
		}
		application.StartState = state
	}

	if len(content.Strategy) == 0 {
		return nil, &tune.ConfigError{Reason: `missing "strategy"`}
	}
	actions, err := hint.ParseActions(content.Strategy, mode)
	if err != nil {
		return nil, prefixed("strategy", err)
	}
	application.Strategy = actions
	return application, nil
}

// ReadFile reads and parses the application file at path.
func ReadFile(path string) (*Application, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &tune.ConfigError{Reason: "reading application file " + path, Err: err}
	}
	application, err := Parse(data)
	if err != nil {
		return nil, prefixed(path, err)
	}
	return application, nil
}

// prefixed returns a ConfigError whose reason is the inner reason
// prefixed with context.
func prefixed(context string, err error) error {
	var configError *tune.ConfigError
	if errors.As(err, &configError) {
		return &tune.ConfigError{Reason: fmt.Sprintf("%s: %s", context, configError.Reason), Err: configError.Err}
	}
	return &tune.ConfigError{Reason: context, Err: err}
}
