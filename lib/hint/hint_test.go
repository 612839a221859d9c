// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hint

import "testing"

func TestHintMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		mode    Mode
		line    string
		want    bool
	}{
		{"regex substring", "POL", Regex, "POL detected", true},
		{"regex class", `Prog= 80\.\d{2}%`, Regex, "Prog= 80.22%", true},
		{"regex miss", `Prog= 80\.\d{2}%`, Regex, "Prog= 81.22%", false},
		{"literal keeps metacharacters", "a.b", Literal, "axb", false},
		{"literal substring", "a.b", Literal, "see a.b here", true},
		{"regex dot is wildcard", "a.b", Regex, "axb", true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			hint, err := NewHint(test.pattern, test.mode)
			if err != nil {
				t.Fatalf("NewHint: %v", err)
			}
			if got := hint.Match(test.line); got != test.want {
				t.Errorf("Match(%q) = %v, want %v", test.line, got, test.want)
			}
		})
	}
}

func TestNewHintErrors(t *testing.T) {
	if _, err := NewHint("", Regex); err == nil {
		t.Error("empty pattern should fail")
	}
	if _, err := NewHint("(unclosed", Regex); err == nil {
		t.Error("invalid regexp should fail")
	}
	if _, err := NewHint("(unclosed", Literal); err != nil {
		t.Errorf("literal mode should accept any text: %v", err)
	}
	if _, err := NewHint("x", Mode("glob")); err == nil {
		t.Error("unknown mode should fail")
	}
}

func TestParseMode(t *testing.T) {
	for name, want := range map[string]Mode{"": Regex, "regex": Regex, "literal": Literal} {
		got, err := ParseMode(name)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v, want %q", name, got, err, want)
		}
	}
	if _, err := ParseMode("fuzzy"); err == nil {
		t.Error("ParseMode(fuzzy) should fail")
	}
}
