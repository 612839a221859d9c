// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hint

import (
	"regexp"
	"strconv"
)

// progressPattern matches the workload progress marker: "Prog= "
// followed by a 2-3 digit integer part, a dot, two fractional digits,
// and "%".
var progressPattern = regexp.MustCompile(`Prog= (\d{2,3}\.\d{2})%`)

// ExtractProgress returns the completion percentage carried by a
// "Prog= DD.DD%" marker in line.
func ExtractProgress(line string) (float64, bool) {
	match := progressPattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
