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
	"github.com/packetd/streamreader/internal/matcher"
	"github.com/packetd/streamreader/internal/zerocopy"
)

// BytesReader 内存数据读取器
//
// 全部数据均在内存中 所以数据源总是处于 EOF 状态 CurrentStreamReadPosition 即数据长度
// 返回的切片直接引用传入的内存 不发生任何拷贝
type BytesReader struct {
	cursor        *zerocopy.Cursor
	readSizeLimit int
}

var _ Reader = (*BytesReader)(nil)

// NewBytesReader 创建并返回 *BytesReader 实例 readSizeLimit 为 NoLimit 表示无上限
func NewBytesReader(p []byte, readSizeLimit int) *BytesReader {
	if readSizeLimit < 0 {
		readSizeLimit = NoLimit
	}
	return &BytesReader{
		cursor:        zerocopy.NewCursor(p),
		readSizeLimit: readSizeLimit,
	}
}

func (r *BytesReader) StreamHasReachedEOF() bool {
	return true
}

// ClearStreamHasReachedEOF 全部数据都在内存中 无需操作
func (r *BytesReader) ClearStreamHasReachedEOF() {}

func (r *BytesReader) CurrentReadPosition() int {
	return r.cursor.Offset()
}

func (r *BytesReader) CurrentStreamReadPosition() int {
	return r.cursor.Size()
}

func (r *BytesReader) ReadSizeLimit() int {
	return r.readSizeLimit
}

func (r *BytesReader) SetReadSizeLimit(limit int) {
	if limit < 0 {
		limit = NoLimit
	}
	r.readSizeLimit = limit
}

// allowedToEnd 返回 ReadSizeLimit 约束下剩余可读的字节数
func (r *BytesReader) allowedToEnd() int {
	n := r.cursor.Len()
	if r.readSizeLimit != NoLimit {
		n = min(n, max(0, r.readSizeLimit-r.cursor.Offset()))
	}
	return n
}

func (r *BytesReader) take(n int, updateReadPosition bool) []byte {
	if updateReadPosition {
		b, _ := r.cursor.Read(n)
		return b
	}
	return r.cursor.Peek(n)
}

func (r *BytesReader) ReadData(size int, allowReadingLess, updateReadPosition bool) ([]byte, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	if size == 0 {
		return nil, nil
	}

	if !allowReadingLess {
		if r.readSizeLimit != NoLimit && r.cursor.Offset()+size > r.readSizeLimit {
			return nil, notEnoughData(true)
		}
		if r.cursor.Len() < size {
			return nil, notEnoughData(false)
		}
	}
	return r.take(min(size, r.allowedToEnd()), updateReadPosition), nil
}

func (r *BytesReader) ReadDataUpTo(delimiters [][]byte, mode MatchingMode, failIfNotFound, includeDelimiter, updateReadPosition bool) ([]byte, []byte, error) {
	size := r.allowedToEnd()
	delimiters = matcher.Cleanup(delimiters, mode, includeDelimiter)
	if readsToEnd(delimiters, failIfNotFound) {
		return r.take(size, updateReadPosition), nil, nil
	}

	// 全部数据已经可见 一次扫描即可关闭搜索空间
	m := matcher.New(delimiters, mode, includeDelimiter)
	match, ok := m.Scan(r.cursor.Peek(size), 0)
	if !ok {
		match, ok = m.Best()
	}
	if ok {
		return r.take(match.Length, updateReadPosition), delimiters[match.DelimiterIndex], nil
	}

	if failIfNotFound {
		return nil, nil, ErrDelimitersNotFound
	}
	return r.take(size, updateReadPosition), nil, nil
}
