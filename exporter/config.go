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

package exporter

const (
	FormatJSON = "json"
	FormatText = "text"
)

type Config struct {
	// Console 输出到标准输出 否则写入 Filename 并按照配置滚动
	Console    bool   `config:"console"`
	Filename   string `config:"filename"`
	MaxSize    int    `config:"maxSize"` // unit: MB
	MaxBackups int    `config:"maxBackups"`
	MaxAge     int    `config:"maxAge"` // unit: days

	// Format 输出格式 json (每行一条记录) 或者 text (仅输出记录内容)
	Format string `config:"format"`

	// MaxRecordSize 单条记录输出的最大字节数 超出部分被截断 <= 0 表示不限制
	MaxRecordSize int `config:"maxRecordSize"`
}

func (c *Config) Validate() {
	if c.Filename == "" {
		c.Filename = "records.log"
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 100
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 7
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 10
	}
	if c.Format != FormatText {
		c.Format = FormatJSON
	}
}
