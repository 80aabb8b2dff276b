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

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	opts := NewOptions()
	opts.Merge("size", "16")
	opts.Merge("follow", "true")
	opts.Merge("names", []any{"a", "b"})
	opts.Merge("path", 12)

	size, err := opts.GetInt("size")
	assert.NoError(t, err)
	assert.Equal(t, 16, size)

	follow, err := opts.GetBool("follow")
	assert.NoError(t, err)
	assert.True(t, follow)

	names, err := opts.GetStringSlice("names")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	path, err := opts.GetString("path")
	assert.NoError(t, err)
	assert.Equal(t, "12", path)

	assert.True(t, opts.Has("size"))
	assert.False(t, opts.Has("missing"))

	opts.Merge("bad", "yes please")
	_, err = opts.GetBool("bad")
	assert.Error(t, err)
}

func TestBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.Equal(t, Version, info.Version)
	assert.Contains(t, info.String(), App)
	assert.GreaterOrEqual(t, Uptime(), int64(0))
}
