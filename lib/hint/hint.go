// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hint

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode selects how a hint pattern is interpreted.
type Mode string

const (
	// Regex treats the pattern as an RE2 regular expression that may
	// match anywhere in the line.
	Regex Mode = "regex"
	// Literal treats the pattern as a plain substring.
	Literal Mode = "literal"
)

// ParseMode validates a mode name. The empty string selects Regex.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case "", Regex:
		return Regex, nil
	case Literal:
		return Literal, nil
	default:
		return "", fmt.Errorf("unknown hint mode %q (want %q or %q)", name, Regex, Literal)
	}
}

// Hint is a compiled line pattern.
type Hint struct {
	pattern string
	mode    Mode
	re      *regexp.Regexp
}

// NewHint compiles pattern under mode.
func NewHint(pattern string, mode Mode) (Hint, error) {
	if pattern == "" {
		return Hint{}, fmt.Errorf("empty hint pattern")
	}
	hint := Hint{pattern: pattern, mode: mode}
	switch mode {
	case Regex:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Hint{}, fmt.Errorf("compiling hint %q: %w", pattern, err)
		}
		hint.re = re
	case Literal:
	default:
		return Hint{}, fmt.Errorf("unknown hint mode %q", mode)
	}
	return hint, nil
}

// Match reports whether line contains the hint.
func (h Hint) Match(line string) bool {
	if h.re != nil {
		return h.re.MatchString(line)
	}
	return strings.Contains(line, h.pattern)
}

// Mode returns how the pattern is interpreted.
func (h Hint) Mode() Mode { return h.mode }

// String returns the pattern as configured.
func (h Hint) String() string { return h.pattern }
