// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes every metric in gatherer to path in the text
// exposition format. The file is replaced atomically, so a collector
// scraping the directory never reads a partial file. Path should end
// in ".prom" for the node_exporter textfile collector to pick it up.
func WriteTextfile(path string, gatherer prom.Gatherer) error {
	if err := prom.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
