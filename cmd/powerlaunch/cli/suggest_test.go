// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"ab", "abc", 1},
		{"abc", "bac", 2},
		{"kitten", "sitting", 3},
		{"status", "statsu", 2},
		{"prepare", "prepar", 1},
	}

	for _, test := range tests {
		t.Run(test.a+"/"+test.b, func(t *testing.T) {
			if got := levenshtein(test.a, test.b); got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
			if got := levenshtein(test.b, test.a); got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.b, test.a, got, test.want)
			}
		})
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "run"},
		{Name: "prepare"},
		{Name: "reset"},
		{Name: "status"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"rn", "run"},
		{"prepar", "prepare"},
		{"rest", "reset"},
		{"stauts", "status"},
		{"completely-different", ""},
	}
	for _, test := range tests {
		if got := suggestCommand(test.input, commands); got != test.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	newFlagSet := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
		flagSet.Bool("skip-prepare", false, "")
		flagSet.String("power-log", "", "")
		flagSet.BoolP("debug", "d", false, "")
		return flagSet
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"typo", []string{"--skip-prepar"}, "--skip-prepare"},
		{"with value", []string{"--powr-log=/tmp/x"}, "--power-log"},
		{"known flags skipped", []string{"--debug", "--power-lg", "x"}, "--power-log"},
		{"shorthand known", []string{"-d", "--debgu"}, "--debug"},
		{"positional ignored", []string{"app.jsonc", "--skip-prepare"}, ""},
		{"after terminator", []string{"--", "--skip-prepar"}, ""},
		{"too distant", []string{"--zzzzzzzz"}, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := suggestFlag(test.args, newFlagSet()); got != test.want {
				t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
			}
		})
	}
}
