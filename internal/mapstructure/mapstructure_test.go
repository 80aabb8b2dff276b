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

package mapstructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	type Config struct {
		Size     int           `config:"size"`
		Enabled  bool          `config:"enabled"`
		Timeout  time.Duration `config:"timeout"`
		Names    []string      `config:"names"`
		Untagged string
	}

	tests := []struct {
		name  string
		input map[string]any
		want  Config
	}{
		{
			name: "Typed",
			input: map[string]any{
				"size":    10,
				"enabled": true,
				"timeout": time.Second,
				"names":   []string{"a", "b"},
			},
			want: Config{Size: 10, Enabled: true, Timeout: time.Second, Names: []string{"a", "b"}},
		},
		{
			name: "WeaklyTyped",
			input: map[string]any{
				"size":    "10",
				"enabled": "true",
				"timeout": "1m",
				"names":   "a,b",
			},
			want: Config{Size: 10, Enabled: true, Timeout: time.Minute, Names: []string{"a", "b"}},
		},
		{
			name:  "Empty",
			input: nil,
			want:  Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Config
			assert.NoError(t, Decode(tt.input, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFailed(t *testing.T) {
	var got struct {
		Size int `config:"size"`
	}
	assert.Error(t, Decode(map[string]any{"size": "ten"}, &got))
}
