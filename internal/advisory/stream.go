// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisory

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// =============================================================================
// STREAM READER
// =============================================================================

// streamReader aggregates the line-delimited JSON fragments of a streaming
// /api/generate response into one final string. Streaming is a transport
// detail: callers of the client always receive the complete text.
type streamReader struct {
	reader      *bufio.Reader
	accumulator strings.Builder
	fragments   int
}

func newStreamReader(r io.Reader) *streamReader {
	return &streamReader{reader: bufio.NewReader(r)}
}

// aggregate consumes the stream until the done fragment or EOF, returning
// the concatenated response text.
func (s *streamReader) aggregate(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		line, err := s.reader.ReadBytes('\n')
		if len(line) > 0 {
			done := s.consumeLine(line)
			if done {
				return s.accumulator.String(), nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return s.accumulator.String(), nil
			}
			return "", err
		}
	}
}

// consumeLine parses one fragment, appending any response text. Malformed
// lines are skipped; Ollama occasionally interleaves keep-alive noise.
func (s *streamReader) consumeLine(line []byte) (done bool) {
	var fragment GenerateResponse
	if err := json.Unmarshal(line, &fragment); err != nil {
		return false
	}
	if fragment.Response != "" {
		s.accumulator.WriteString(fragment.Response)
		s.fragments++
	}
	return fragment.Done
}

// Fragments returns the number of non-empty fragments received.
func (s *streamReader) Fragments() int {
	return s.fragments
}
