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

package fixed

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/streamreader/streamreader"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name    string
		conf    map[string]any
		input   string
		want    []string
		wantErr error
	}{
		{
			name:  "Exact",
			conf:  map[string]any{"size": 3},
			input: "abcdef",
			want:  []string{"abc", "def"},
		},
		{
			name:  "Partial",
			conf:  map[string]any{"size": "4", "allowPartial": "true"},
			input: "abcdef",
			want:  []string{"abcd", "ef"},
		},
		{
			name:    "Truncated",
			conf:    map[string]any{"size": 4},
			input:   "abcdef",
			want:    []string{"abcd"},
			wantErr: streamreader.ErrNotEnoughData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.conf)
			require.NoError(t, err)

			r := streamreader.NewBytesReader([]byte(tt.input), streamreader.NoLimit)
			var got []string
			for {
				rec, err := s.Next(r)
				if err == io.EOF {
					break
				}
				if tt.wantErr != nil && err != nil {
					assert.ErrorIs(t, err, tt.wantErr)
					break
				}
				require.NoError(t, err)
				got = append(got, string(rec.Data))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFailed(t *testing.T) {
	for _, conf := range []map[string]any{
		nil,
		{"size": 0},
		{"size": "abc"},
		{"size": 4, "allowPartial": "maybe"},
	} {
		_, err := New(conf)
		assert.Error(t, err)
	}
}
