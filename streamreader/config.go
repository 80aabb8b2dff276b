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

package streamreader

import (
	"github.com/hashicorp/go-multierror"

	"github.com/packetd/streamreader/common"
)

// Config BufferedReader 配置
type Config struct {
	// BufferSize 常驻缓冲区大小 单次较大的读取可能临时分配更大的缓冲区
	BufferSize int `config:"bufferSize"`

	// BufferSizeIncrement 查找分隔符时缓冲区已满的扩容步长
	BufferSizeIncrement int `config:"bufferSizeIncrement"`

	// ReadSizeLimit 允许从数据源读取的总字节数 NoLimit 表示无上限
	ReadSizeLimit int `config:"readSizeLimit"`

	// UnderlyingReadSizeLimit 单次调用数据源读取的最大字节数 NoLimit 表示无上限
	// 设置为 0 表示禁止读取数据源
	UnderlyingReadSizeLimit int `config:"underlyingReadSizeLimit"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BufferSize:              common.ReadWriteBlockSize,
		BufferSizeIncrement:     common.ReadWriteBlockSize,
		ReadSizeLimit:           NoLimit,
		UnderlyingReadSizeLimit: NoLimit,
	}
}

// Validate 校验配置 返回所有不合法的字段
func (c Config) Validate() error {
	var errs *multierror.Error
	if c.BufferSize <= 0 {
		errs = multierror.Append(errs, newError("bufferSize must be positive, got %d", c.BufferSize))
	}
	if c.BufferSizeIncrement <= 0 {
		errs = multierror.Append(errs, newError("bufferSizeIncrement must be positive, got %d", c.BufferSizeIncrement))
	}
	if c.ReadSizeLimit < NoLimit {
		errs = multierror.Append(errs, newError("invalid readSizeLimit %d", c.ReadSizeLimit))
	}
	if c.UnderlyingReadSizeLimit < NoLimit {
		errs = multierror.Append(errs, newError("invalid underlyingReadSizeLimit %d", c.UnderlyingReadSizeLimit))
	}
	return errs.ErrorOrNil()
}
