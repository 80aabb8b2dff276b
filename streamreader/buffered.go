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
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/packetd/streamreader/internal/growbuf"
	"github.com/packetd/streamreader/internal/matcher"
	"github.com/packetd/streamreader/logger"
	"github.com/packetd/streamreader/source"
)

type fillMode uint8

const (
	// fillExact 必须读取到目标长度 否则返回 *NotEnoughDataError
	fillExact fillMode = iota

	// fillUntilSizeOrEnd 读取到目标长度或者数据源结束
	fillUntilSizeOrEnd

	// fillOnce 最多调用一次数据源
	fillOnce
)

// Stats BufferedReader 运行统计
type Stats struct {
	SourceReads   int64
	BytesRead     int64
	Reallocations int
	Compactions   int
	BufferCap     int
	Buffered      int
}

// BufferedReader 带缓冲区的增量读取器
//
// 缓冲区中的有效数据即 [CurrentReadPosition, CurrentStreamReadPosition) 区间
// 已经从数据源读出但尚未交付给调用方
type BufferedReader struct {
	src source.Source
	buf *growbuf.Buffer

	bufferSizeIncrement     int
	readSizeLimit           int
	underlyingReadSizeLimit int

	readPos   int
	streamPos int
	eof       bool

	sourceReads int64
}

var _ Reader = (*BufferedReader)(nil)

// New 创建并返回 *BufferedReader 实例
func New(src source.Source, conf Config) (*BufferedReader, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &BufferedReader{
		src:                     src,
		buf:                     growbuf.New(conf.BufferSize),
		bufferSizeIncrement:     conf.BufferSizeIncrement,
		readSizeLimit:           conf.ReadSizeLimit,
		underlyingReadSizeLimit: conf.UnderlyingReadSizeLimit,
	}, nil
}

func (r *BufferedReader) StreamHasReachedEOF() bool {
	return r.eof
}

func (r *BufferedReader) ClearStreamHasReachedEOF() {
	r.eof = false
}

func (r *BufferedReader) CurrentReadPosition() int {
	return r.readPos
}

func (r *BufferedReader) CurrentStreamReadPosition() int {
	return r.streamPos
}

func (r *BufferedReader) ReadSizeLimit() int {
	return r.readSizeLimit
}

func (r *BufferedReader) SetReadSizeLimit(limit int) {
	if limit < 0 {
		limit = NoLimit
	}
	if effectiveLimit(limit) > effectiveLimit(r.readSizeLimit) {
		r.eof = false
	}
	r.readSizeLimit = limit
}

// UnderlyingReadSizeLimit 返回单次调用数据源读取的最大字节数
func (r *BufferedReader) UnderlyingReadSizeLimit() int {
	return r.underlyingReadSizeLimit
}

// SetUnderlyingReadSizeLimit 设置单次调用数据源读取的最大字节数
//
// 对于会阻塞直至填满请求长度的数据源 (如管道或者终端) 设置较小的值可以尽早返回数据
func (r *BufferedReader) SetUnderlyingReadSizeLimit(limit int) {
	if limit < 0 {
		limit = NoLimit
	}
	r.underlyingReadSizeLimit = limit
}

// SetBufferSizeIncrement 设置扩容步长 非正数会被忽略
func (r *BufferedReader) SetBufferSizeIncrement(n int) {
	if n > 0 {
		r.bufferSizeIncrement = n
	}
}

// Stats 返回运行统计
func (r *BufferedReader) Stats() Stats {
	bs := r.buf.Stats()
	return Stats{
		SourceReads:   r.sourceReads,
		BytesRead:     int64(r.streamPos),
		Reallocations: bs.Reallocations,
		Compactions:   bs.Compactions,
		BufferCap:     r.buf.Cap(),
		Buffered:      r.buf.Len(),
	}
}

// ReadSourceIntoBuffer 从数据源读取 size 个字节到缓冲区 返回实际读取的字节数
//
// 缓冲区空间足够时可能读取多于 size 的数据 数据源结束或者只允许读取一次时可能读取更少
// bypassUnderlyingLimit 为 true 时本次读取忽略 UnderlyingReadSizeLimit
func (r *BufferedReader) ReadSourceIntoBuffer(size int, allowMoreThanOneRead, bypassUnderlyingLimit bool) (int, error) {
	if size < 0 {
		return 0, ErrNegativeSize
	}

	if bypassUnderlyingLimit {
		prev := r.underlyingReadSizeLimit
		r.underlyingReadSizeLimit = NoLimit
		defer func() { r.underlyingReadSizeLimit = prev }()
	}

	mode := fillOnce
	if allowMoreThanOneRead {
		mode = fillUntilSizeOrEnd
	}

	before := r.buf.Len()
	_, err := r.load(before+size, mode)
	return r.buf.Len() - before, err
}

func (r *BufferedReader) ReadData(size int, allowReadingLess, updateReadPosition bool) ([]byte, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}

	mode := fillExact
	if allowReadingLess {
		mode = fillUntilSizeOrEnd
	}

	b, err := r.load(size, mode)
	if err != nil {
		return nil, err
	}
	if updateReadPosition {
		r.consume(len(b))
	}
	return b, nil
}

func (r *BufferedReader) ReadDataUpTo(delimiters [][]byte, mode MatchingMode, failIfNotFound, includeDelimiter, updateReadPosition bool) ([]byte, []byte, error) {
	delimiters = matcher.Cleanup(delimiters, mode, includeDelimiter)
	if readsToEnd(delimiters, failIfNotFound) {
		b, err := r.readToEnd(updateReadPosition)
		return b, nil, err
	}

	m := matcher.New(delimiters, mode, includeDelimiter)
	allowed := r.allowed()

	from := 0
	for {
		window := r.buf.Bytes()
		if len(window) > allowed {
			window = window[:allowed]
		}
		if match, ok := m.Scan(window, from); ok {
			return r.take(match.Length, updateReadPosition), delimiters[match.DelimiterIndex], nil
		}
		from = m.ResumeOffset(len(window))

		// 数据源已经结束 搜索空间关闭
		if r.eof {
			break
		}
		before := r.buf.Len()
		if _, err := r.load(before+r.growth(), fillOnce); err != nil {
			return nil, nil, err
		}
		if r.buf.Len() == before {
			break
		}
	}

	if match, ok := m.Best(); ok {
		return r.take(match.Length, updateReadPosition), delimiters[match.DelimiterIndex], nil
	}
	if failIfNotFound {
		return nil, nil, ErrDelimitersNotFound
	}
	return r.take(min(r.buf.Len(), allowed), updateReadPosition), nil, nil
}

// readToEnd 持续读取直至数据源结束或者到达 ReadSizeLimit
func (r *BufferedReader) readToEnd(updateReadPosition bool) ([]byte, error) {
	for !r.eof {
		before := r.buf.Len()
		if _, err := r.load(before+r.growth(), fillUntilSizeOrEnd); err != nil {
			return nil, err
		}
		if r.buf.Len() == before {
			break
		}
	}
	return r.take(min(r.buf.Len(), r.allowed()), updateReadPosition), nil
}

// growth 返回查找分隔符时下一轮需要新增读取的字节数
//
// 优先填满缓冲区尾部的空闲空间 没有空闲空间时按照步长扩容
func (r *BufferedReader) growth() int {
	if free := len(r.buf.Free()); free > 0 {
		return free
	}
	return r.bufferSizeIncrement
}

// allowed 返回 ReadSizeLimit 约束下还允许交付给调用方的字节数
func (r *BufferedReader) allowed() int {
	if r.readSizeLimit == NoLimit {
		return math.MaxInt
	}
	return max(0, r.readSizeLimit-r.readPos)
}

func (r *BufferedReader) limitReached() bool {
	return r.readSizeLimit != NoLimit && r.streamPos >= r.readSizeLimit
}

func (r *BufferedReader) take(n int, updateReadPosition bool) []byte {
	b := r.buf.Bytes()[:n]
	if updateReadPosition {
		r.consume(n)
	}
	return b
}

func (r *BufferedReader) consume(n int) {
	r.buf.Consume(n)
	r.readPos += n
}

// load 保证缓冲区中至少有 size 个字节 (受限于 mode) 并返回窗口的前 size 个字节
//
// 不移动读取位置
func (r *BufferedReader) load(size int, mode fillMode) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}

	if allowed := r.allowed(); allowed < size {
		if mode == fillExact {
			return nil, notEnoughData(true)
		}
		if allowed <= 0 {
			r.eof = true
		}
		size = allowed
	}
	if size == 0 {
		return nil, nil
	}

	if r.eof && r.buf.Len() == 0 {
		if mode == fillExact {
			return nil, notEnoughData(r.limitReached())
		}
		return nil, nil
	}

	r.reserve(size)
	if err := r.fill(size, mode); err != nil {
		return nil, err
	}

	b := r.buf.Bytes()
	if len(b) > size {
		b = b[:size]
	}
	return b, nil
}

func (r *BufferedReader) reserve(size int) {
	before := r.buf.Stats().Reallocations
	r.buf.Reserve(size)
	if r.buf.Stats().Reallocations != before {
		logger.Debugf("streamreader: buffer reallocated, request=%d capacity=%d buffered=%d", size, r.buf.Cap(), r.buf.Len())
	}
}

// fill 调用数据源直至缓冲区中有 target 个字节
//
// 单次读取的长度为 min(空闲空间, ReadSizeLimit 剩余额度, UnderlyingReadSizeLimit)
// 一旦标记了 EOF 便不再调用数据源 直到调用方清除标记
func (r *BufferedReader) fill(target int, mode fillMode) error {
	for r.buf.Len() < target {
		if r.eof {
			break
		}

		free := r.buf.Free()
		toRead := len(free)
		if r.readSizeLimit != NoLimit {
			toRead = min(toRead, max(0, r.readSizeLimit-r.streamPos))
		}
		if r.underlyingReadSizeLimit != NoLimit {
			toRead = min(toRead, r.underlyingReadSizeLimit)
		}
		if toRead <= 0 {
			if r.underlyingReadSizeLimit == 0 {
				return ErrStreamReadForbidden
			}
			r.eof = true
			break
		}

		n, err := r.readSource(free[:toRead])
		if err != nil {
			return err
		}
		if mode == fillOnce || n == 0 {
			break
		}
	}

	if mode == fillExact && r.buf.Len() < target {
		return notEnoughData(r.limitReached())
	}
	return nil
}

func (r *BufferedReader) readSource(p []byte) (int, error) {
	n, err := r.src.Read(p)
	r.sourceReads++
	if n < 0 || n > len(p) {
		return 0, &StreamReadError{Err: newError("invalid read count %d for %d bytes", n, len(p))}
	}

	r.buf.Commit(n)
	r.streamPos += n
	if r.limitReached() {
		r.eof = true
	}

	// 出错时已经读取的数据依然有效 但不能据此推断数据源已经结束
	if err != nil && !errors.Is(err, io.EOF) {
		return n, &StreamReadError{Err: err}
	}
	if n == 0 || err != nil {
		r.eof = true
	}
	return n, nil
}
