// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hint

import "testing"

func TestExtractProgress(t *testing.T) {
	tests := []struct {
		line  string
		want  float64
		found bool
	}{
		{"Prog= 80.22% extra text", 80.22, true},
		{"Prog=80.22%", 0, false},
		{"Prog= 8.22%", 0, false},
		{"Prog= 100.00%", 100.00, true},
		{"HPL  Prog= 12.22% aaaaa", 12.22, true},
		{"Prog= 80.2%", 0, false},
		{"Prog= 80,22%", 0, false},
		{"Prog= 80.22", 0, false},
		{"no marker", 0, false},
	}
	for _, test := range tests {
		t.Run(test.line, func(t *testing.T) {
			got, found := ExtractProgress(test.line)
			if found != test.found || got != test.want {
				t.Errorf("ExtractProgress(%q) = %v, %v, want %v, %v", test.line, got, found, test.want, test.found)
			}
		})
	}
}
