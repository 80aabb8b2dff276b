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
	"time"

	"github.com/packetd/streamreader/source"
)

// SourceConfig 数据源配置
type SourceConfig struct {
	source.Config `config:",inline"`

	// Follow 读到数据源末尾后不退出 每隔 PollInterval 重新尝试读取
	// 适用于持续追加的文件
	Follow       bool          `config:"follow"`
	PollInterval time.Duration `config:"pollInterval"`
}

func (c SourceConfig) GetPollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return time.Second
	}
	return c.PollInterval
}
