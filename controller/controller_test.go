// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package controller

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/streamreader/common"
	"github.com/packetd/streamreader/confengine"
	"github.com/packetd/streamreader/exporter"
	"github.com/packetd/streamreader/internal/json"
)

const configTemplate = `
logger:
  stderr: true
  level: error
server:
  enabled: %v
  address: "127.0.0.1:0"
source:
  type: file
  path: %s
  follow: %v
  pollInterval: 10ms
reader:
  bufferSize: 4
  bufferSizeIncrement: 4
splitter:
  name: %s
  options:
    delimiters: [";"]
exporter:
  filename: %s
  maxRecordSize: 3
`

func newTestController(t *testing.T, input, splitterName string, follow, serverEnabled bool) (*Controller, string, string) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.log")
	output := filepath.Join(dir, "records.log")
	require.NoError(t, os.WriteFile(inputPath, []byte(input), 0o644))

	conf, err := confengine.LoadContent([]byte(fmt.Sprintf(configTemplate, serverEnabled, inputPath, follow, splitterName, output)))
	require.NoError(t, err)

	ctr, err := New(conf, common.GetBuildInfo())
	require.NoError(t, err)
	return ctr, inputPath, output
}

func readEntries(t *testing.T, path string) []exporter.Entry {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []exporter.Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry exporter.Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestControllerSplitFile(t *testing.T) {
	ctr, _, output := newTestController(t, "ab;cdefg;h", "delimiter", false, false)
	require.NoError(t, ctr.Start())

	select {
	case <-ctr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not finish")
	}
	assert.NoError(t, ctr.Err())
	require.NoError(t, ctr.Stop())

	stats := ctr.Stats()
	assert.Equal(t, int64(3), stats.Records)
	assert.Equal(t, 10, stats.ReadPosition)
	assert.True(t, stats.EOF)

	entries := readEntries(t, output)
	require.Len(t, entries, 3)
	assert.Equal(t, exporter.Entry{Offset: 0, Size: 2, Data: "ab", Delimiter: ";"}, entries[0])
	assert.Equal(t, exporter.Entry{Offset: 3, Size: 5, Data: "cde", Delimiter: ";", Truncated: 2}, entries[1])
	assert.Equal(t, exporter.Entry{Offset: 9, Size: 1, Data: "h"}, entries[2])
}

func TestControllerFollow(t *testing.T) {
	ctr, input, output := newTestController(t, "a;b", "delimiter", true, false)
	require.NoError(t, ctr.Start())

	assert.Eventually(t, func() bool {
		return ctr.Stats().Records == 1 && ctr.Stats().EOF
	}, 5*time.Second, 10*time.Millisecond)

	f, err := os.OpenFile(input, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("c;d;")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Eventually(t, func() bool {
		return ctr.Stats().Records == 3
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, ctr.Stop())
	<-ctr.Done()

	entries := readEntries(t, output)
	require.Len(t, entries, 3)
	assert.Equal(t, "bc", entries[1].Data)
	assert.Equal(t, "d", entries[2].Data)
}

func TestControllerSplitError(t *testing.T) {
	ctr, _, _ := newTestController(t, "\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\x01", "varint", false, false)
	require.NoError(t, ctr.Start())
	<-ctr.Done()

	assert.Error(t, ctr.Err())
	assert.Equal(t, int64(1), ctr.Stats().Errors)
	assert.NoError(t, ctr.Stop())
}

func TestNewFailed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "UnknownSplitter", content: "splitter:\n  name: unknown\n"},
		{name: "MissingPath", content: "source:\n  type: file\n"},
		{name: "InvalidReader", content: "source:\n  path: /dev/null\nreader:\n  bufferSize: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, err := confengine.LoadContent([]byte(tt.content))
			require.NoError(t, err)
			_, err = New(conf, common.GetBuildInfo())
			assert.Error(t, err)
		})
	}
}

func TestControllerRoutes(t *testing.T) {
	ctr, _, _ := newTestController(t, "ab;cd;", "delimiter", false, true)
	require.NotNil(t, ctr.svr)
	ctr.setupServer()
	defer ctr.Stop()

	handler := ctr.svr.Handler()
	do := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	t.Run("Stats", func(t *testing.T) {
		rec := do(http.MethodGet, "/stats")
		assert.Equal(t, http.StatusOK, rec.Code)

		var stats Stats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, "delimiter", stats.Splitter)
		assert.Equal(t, 4, stats.BufferCap)
	})

	t.Run("Metrics", func(t *testing.T) {
		rec := do(http.MethodGet, "/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "streamreader_reader_buffer_capacity_bytes 4")
	})

	t.Run("Logger", func(t *testing.T) {
		rec := do(http.MethodPost, "/-/logger?level=warn")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "warn")
	})

	t.Run("Watch", func(t *testing.T) {
		rec := httptest.NewRecorder()
		done := make(chan struct{})
		go func() {
			defer close(done)
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/watch?max_message=1&timeout=5s", nil))
		}()

		assert.Eventually(t, func() bool {
			return ctr.bus.Num() == 1
		}, 5*time.Second, 10*time.Millisecond)
		ctr.bus.Publish([]byte("{\"data\":\"x\"}\n"))
		<-done

		assert.True(t, strings.HasPrefix(rec.Body.String(), `{"data":"x"}`))
		assert.Equal(t, 0, ctr.bus.Num())
	})
}
