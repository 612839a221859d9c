// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package powerlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/bureau-foundation/powerlaunch/lib/codec"
)

// TraceVersion is the format version written in every trace header.
const TraceVersion = 1

// TraceHeader opens a power trace.
type TraceHeader struct {
	Version     int    `cbor:"version"`
	Executable  string `cbor:"executable"`
	Fingerprint string `cbor:"fingerprint,omitempty"`
	StartedAt   int64  `cbor:"started_at"`
	Threshold   int    `cbor:"threshold"`
	Node        int    `cbor:"node"`
}

// Sample is one power reading in a trace. At is Unix milliseconds.
type Sample struct {
	At       int64   `cbor:"at"`
	Power    int     `cbor:"power"`
	Progress float64 `cbor:"progress"`
	Alert    bool    `cbor:"alert,omitempty"`
}

// TraceWriter writes a header followed by a sequence of samples as
// back-to-back CBOR items inside one zstd frame stream. It is used by
// a single goroutine.
type TraceWriter struct {
	file       *os.File
	compressor *zstd.Encoder
	encoder    *codec.Encoder
}

// CreateTrace creates (or truncates) path and writes header.
func CreateTrace(path string, header TraceHeader) (*TraceWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating power trace: %w", err)
	}
	writer, err := NewTraceWriter(file, header)
	if err != nil {
		file.Close()
		return nil, err
	}
	writer.file = file
	return writer, nil
}

// NewTraceWriter writes header to w and returns a writer for samples.
// Close does not close w.
func NewTraceWriter(w io.Writer, header TraceHeader) (*TraceWriter, error) {
	compressor, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("creating trace compressor: %w", err)
	}
	writer := &TraceWriter{
		compressor: compressor,
		encoder:    codec.NewEncoder(compressor),
	}
	if header.Version == 0 {
		header.Version = TraceVersion
	}
	if err := writer.encoder.Encode(header); err != nil {
		compressor.Close()
		return nil, fmt.Errorf("writing trace header: %w", err)
	}
	return writer, nil
}

// Write appends one sample.
func (t *TraceWriter) Write(sample Sample) error {
	if err := t.encoder.Encode(sample); err != nil {
		return fmt.Errorf("writing trace sample: %w", err)
	}
	return nil
}

// Close flushes the compressed stream and closes the file if the
// writer created it.
func (t *TraceWriter) Close() error {
	err := t.compressor.Close()
	if t.file != nil {
		err = errors.Join(err, t.file.Close())
	}
	return err
}

// ReadTrace decodes a trace written by TraceWriter. A stream cut off
// after the last complete sample, as left by a killed launcher, yields
// the samples read so far together with the error.
func ReadTrace(r io.Reader) (TraceHeader, []Sample, error) {
	decompressor, err := zstd.NewReader(bufio.NewReader(r))
	if err != nil {
		return TraceHeader{}, nil, fmt.Errorf("opening trace: %w", err)
	}
	defer decompressor.Close()

	decoder := codec.NewDecoder(decompressor)
	var header TraceHeader
	if err := decoder.Decode(&header); err != nil {
		return TraceHeader{}, nil, fmt.Errorf("reading trace header: %w", err)
	}
	if header.Version != TraceVersion {
		return header, nil, fmt.Errorf("unsupported trace version %d", header.Version)
	}

	var samples []Sample
	for {
		var sample Sample
		err := decoder.Decode(&sample)
		if errors.Is(err, io.EOF) {
			return header, samples, nil
		}
		if err != nil {
			return header, samples, fmt.Errorf("reading trace sample %d: %w", len(samples), err)
		}
		samples = append(samples, sample)
	}
}
