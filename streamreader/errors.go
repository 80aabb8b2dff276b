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
	"github.com/pkg/errors"
)

func newError(format string, args ...any) error {
	format = "streamreader: " + format
	return errors.Errorf(format, args...)
}

var (
	// ErrNotEnoughData 严格读取无法满足请求的长度 具体原因见 *NotEnoughDataError
	ErrNotEnoughData = newError("not enough data")

	// ErrDelimitersNotFound 数据源读完仍未找到任何分隔符
	ErrDelimitersNotFound = newError("delimiters not found")

	// ErrStreamReadForbidden 需要从数据源读取 但单次读取上限被设置为 0
	ErrStreamReadForbidden = newError("stream read forbidden")

	// ErrNegativeSize 读取长度为负数
	ErrNegativeSize = newError("negative size")
)

// NotEnoughDataError 严格读取无法满足请求的长度
//
// WouldReachReadSizeLimit 为 true 表示受限于 ReadSizeLimit 数据源中可能还有数据
// 为 false 表示数据源本身已经读完
type NotEnoughDataError struct {
	WouldReachReadSizeLimit bool
}

func (e *NotEnoughDataError) Error() string {
	if e.WouldReachReadSizeLimit {
		return ErrNotEnoughData.Error() + " (would reach read size limit)"
	}
	return ErrNotEnoughData.Error()
}

// Is 支持 errors.Is(err, ErrNotEnoughData)
func (e *NotEnoughDataError) Is(target error) bool {
	return target == ErrNotEnoughData
}

// StreamReadError 数据源返回的错误 Reader 不做任何重试
type StreamReadError struct {
	Err error
}

func (e *StreamReadError) Error() string {
	return "streamreader: stream read: " + e.Err.Error()
}

func (e *StreamReadError) Unwrap() error {
	return e.Err
}

// Cause 兼容 errors.Cause
func (e *StreamReadError) Cause() error {
	return e.Err
}

func notEnoughData(wouldReachReadSizeLimit bool) error {
	return &NotEnoughDataError{WouldReachReadSizeLimit: wouldReachReadSizeLimit}
}
