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

package line

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/streamreader/source"
	"github.com/packetd/streamreader/splitter"
	"github.com/packetd/streamreader/streamreader"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name  string
		conf  map[string]any
		input string
		lines []string
		seps  []string
	}{
		{
			name:  "Default",
			conf:  nil,
			input: "a\r\nb\nc\rd",
			lines: []string{"a", "b", "c\rd"},
			seps:  []string{"\r\n", "\n", ""},
		},
		{
			name:  "AllStyles",
			conf:  map[string]any{"unix": true, "legacyMacOS": true, "windows": true},
			input: "a\r\nb\nc\rd\n\n",
			lines: []string{"a", "b", "c", "d", ""},
			seps:  []string{"\r\n", "\n", "\r", "\n", "\n"},
		},
		{
			name:  "UnixOnly",
			conf:  map[string]any{"unix": "true"},
			input: "a\r\nb",
			lines: []string{"a\r", "b"},
			seps:  []string{"\n", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.conf)
			require.NoError(t, err)

			r, err := streamreader.New(source.Bytes([]byte(tt.input)), streamreader.Config{
				BufferSize:              1,
				BufferSizeIncrement:     1,
				ReadSizeLimit:           streamreader.NoLimit,
				UnderlyingReadSizeLimit: streamreader.NoLimit,
			})
			require.NoError(t, err)

			var lines, seps []string
			for {
				rec, err := s.Next(r)
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				lines = append(lines, string(rec.Data))
				seps = append(seps, string(rec.Delimiter))
			}
			assert.Equal(t, tt.lines, lines)
			assert.Equal(t, tt.seps, seps)
		})
	}
}

func TestSplitterOffset(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	r := streamreader.NewBytesReader([]byte("ab\r\ncd\nef"), streamreader.NoLimit)
	var offsets []int
	for {
		rec, err := s.Next(r)
		if err != nil {
			break
		}
		offsets = append(offsets, rec.Offset)
	}
	assert.Equal(t, []int{0, 4, 7}, offsets)
}

func TestSplitterFollow(t *testing.T) {
	s, err := New(map[string]any{"unix": true})
	require.NoError(t, err)
	s.(splitter.Follower).SetFollow(true)

	src := source.Bytes([]byte("ab\ncd"))
	r, err := streamreader.New(src, streamreader.DefaultConfig())
	require.NoError(t, err)

	rec, err := s.Next(r)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(rec.Data))

	_, err = s.Next(r)
	assert.ErrorIs(t, err, splitter.ErrIncomplete)
	assert.Equal(t, 3, r.CurrentReadPosition())

	src.Append([]byte("e\n"))
	r.ClearStreamHasReachedEOF()
	rec, err = s.Next(r)
	require.NoError(t, err)
	assert.Equal(t, "cde", string(rec.Data))
	assert.Equal(t, 3, rec.Offset)

	_, err = s.Next(r)
	assert.ErrorIs(t, err, io.EOF)
}
