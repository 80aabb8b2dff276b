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

package source

import (
	"io"

	"github.com/pkg/errors"
)

func newError(format string, args ...any) error {
	format = "source: " + format
	return errors.Errorf(format, args...)
}

// Source 字节数据源
//
// Read 最多向 p 中写入 len(p) 个字节 并返回实际写入的字节数
// 返回 0 (伴随 nil 或者 io.EOF) 表示数据源已经没有更多数据
// 其余错误会被 Reader 原样透传 不会重试
type Source interface {
	Read(p []byte) (int, error)
}

// ReadCloser 需要释放资源的数据源
type ReadCloser interface {
	Source
	io.Closer
}

// Func 函数形式的 Source
type Func func(p []byte) (int, error)

// Read 实现 Source 接口
func (f Func) Read(p []byte) (int, error) {
	return f(p)
}

// maxConsecutiveEmptyReads 连续空读的最大次数
//
// 与 bufio 保持一致 超过次数后返回 io.ErrNoProgress
const maxConsecutiveEmptyReads = 100

type readerSource struct {
	r io.Reader
}

// FromReader 将 io.Reader 适配为 Source
//
// io.Reader 允许返回 (0, nil) 而 Source 的 0 代表数据结束 所以需要重试
// 读取到数据的同时返回 io.EOF 的情况会被拆分为两次调用
func FromReader(r io.Reader) Source {
	if s, ok := r.(*readerSource); ok {
		return s
	}
	return &readerSource{r: r}
}

// Read 实现 Source 接口
func (s *readerSource) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for i := 0; i < maxConsecutiveEmptyReads; i++ {
		n, err := s.r.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, io.ErrNoProgress
}

type nopCloser struct {
	Source
}

func (nopCloser) Close() error { return nil }

// NopCloser 为 Source 附加一个空的 Close 方法
func NopCloser(s Source) ReadCloser {
	return nopCloser{Source: s}
}
