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
	"math"

	"github.com/packetd/streamreader/internal/matcher"
)

// NoLimit 表示未设置上限
const NoLimit = -1

// MatchingMode 多个分隔符同时可能命中时的裁决策略
type MatchingMode = matcher.Mode

const (
	AnyMatchWins               = matcher.AnyMatchWins
	ShortestDataWins           = matcher.ShortestDataWins
	LongestDataWins            = matcher.LongestDataWins
	FirstMatchingDelimiterWins = matcher.FirstMatchingDelimiterWins
)

// ParseMatchingMode 解析 MatchingMode 名称 如 shortestDataWins
func ParseMatchingMode(s string) (MatchingMode, error) {
	return matcher.ParseMode(s)
}

// Reader 增量读取器
//
// 所有返回的切片均引用 Reader 内部内存 在下一次调用 Reader 的任意方法之前有效
// 调用方不允许修改返回的字节 需要持有数据时应自行拷贝
//
// Reader 不是并发安全的 单个实例只能由一个 goroutine 使用
type Reader interface {
	// ReadData 读取 size 个字节
	//
	// allowReadingLess 为 false 时数据不足会返回 *NotEnoughDataError
	// updateReadPosition 为 false 时不移动读取位置 (即 peek)
	// 读取 0 个字节总是成功
	ReadData(size int, allowReadingLess, updateReadPosition bool) ([]byte, error)

	// ReadDataUpTo 读取数据直到命中任意一个分隔符
	//
	// 返回数据以及命中的分隔符 分隔符列表为空时读取至数据末尾 空分隔符永远不会命中
	// 未命中时 failIfNotFound 为 true 返回 ErrDelimitersNotFound 否则返回剩余全部数据以及空分隔符
	ReadDataUpTo(delimiters [][]byte, mode MatchingMode, failIfNotFound, includeDelimiter, updateReadPosition bool) ([]byte, []byte, error)

	// StreamHasReachedEOF 数据源是否已经读完 (真实结束或者到达 ReadSizeLimit)
	StreamHasReachedEOF() bool

	// ClearStreamHasReachedEOF 清除 EOF 标记 下一次读取会重新探测数据源
	ClearStreamHasReachedEOF()

	// CurrentReadPosition 下一次读取返回的首个字节在数据流中的偏移
	CurrentReadPosition() int

	// CurrentStreamReadPosition 已经从数据源读取的字节数
	CurrentStreamReadPosition() int

	// ReadSizeLimit 返回读取总量上限 NoLimit 表示无上限
	ReadSizeLimit() int

	// SetReadSizeLimit 设置读取总量上限
	//
	// 调大上限会清除 EOF 标记 调小上限不会改变 EOF 标记
	SetReadSizeLimit(limit int)
}

// effectiveLimit 将 NoLimit 转换为可以比较的数值
func effectiveLimit(limit int) int {
	if limit < 0 {
		return math.MaxInt
	}
	return limit
}

// readsToEnd 判断请求是否等价于读取至数据末尾
func readsToEnd(delimiters [][]byte, failIfNotFound bool) bool {
	if len(delimiters) == 0 {
		return true
	}
	return !failIfNotFound && len(delimiters) == 1 && len(delimiters[0]) == 0
}
