// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package powerlog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateTraceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "power.trace")
	header := TraceHeader{
		Executable:  "/opt/hpl/xhpl",
		Fingerprint: "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
		StartedAt:   1767225600000,
		Threshold:   1450,
	}
	writer, err := CreateTrace(path, header)
	if err != nil {
		t.Fatalf("CreateTrace: %v", err)
	}
	for index := range 100 {
		sample := Sample{At: int64(index), Power: 1000 + index, Progress: float64(index) / 2}
		if err := writer.Write(sample); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()
	gotHeader, samples, err := ReadTrace(file)
	if err != nil {
		t.Fatalf("ReadTrace: %v", err)
	}
	header.Version = TraceVersion
	if gotHeader != header {
		t.Errorf("header = %+v, want %+v", gotHeader, header)
	}
	if len(samples) != 100 || samples[99].Power != 1099 || samples[99].Progress != 49.5 {
		t.Errorf("read %d samples, last %+v", len(samples), samples[len(samples)-1])
	}
}

func TestReadTraceRejectsGarbage(t *testing.T) {
	if _, _, err := ReadTrace(bytes.NewReader([]byte("not a trace"))); err == nil {
		t.Error("expected an error for non-zstd input")
	}
}

func TestReadTraceRejectsUnknownVersion(t *testing.T) {
	var buffer bytes.Buffer
	writer, err := NewTraceWriter(&buffer, TraceHeader{Version: 99})
	if err != nil {
		t.Fatalf("NewTraceWriter: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, _, err := ReadTrace(&buffer); err == nil {
		t.Error("expected an error for an unknown version")
	}
}
