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

	"github.com/packetd/streamreader/internal/zerocopy"
)

// BytesSource 内存数据源
type BytesSource struct {
	cursor *zerocopy.Cursor
}

// Bytes 创建并返回 *BytesSource 实例
//
// 每次 Read 从游标处拷贝数据 游标到达末尾后返回 io.EOF
func Bytes(p []byte) *BytesSource {
	return &BytesSource{cursor: zerocopy.NewCursor(p)}
}

// Read 实现 Source 接口
func (s *BytesSource) Read(p []byte) (int, error) {
	b, err := s.cursor.Read(len(p))
	if err != nil {
		return 0, io.EOF
	}
	return copy(p, b), nil
}

// Len 返回尚未被读取的字节数
func (s *BytesSource) Len() int {
	return s.cursor.Len()
}

// Append 在数据末尾追加内容 已读部分会被丢弃
//
// 主要用于模拟持续增长的数据源 (如被追加写入的文件)
func (s *BytesSource) Append(p []byte) {
	remaining := s.cursor.Remaining()
	b := make([]byte, 0, len(remaining)+len(p))
	b = append(b, remaining...)
	b = append(b, p...)
	s.cursor.Reset(b)
}
