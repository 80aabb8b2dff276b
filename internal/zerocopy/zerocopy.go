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

package zerocopy

import (
	"io"
)

// Cursor ZeroCopy-API
//
// Cursor 在一块内存上移动的读游标 所有返回的切片均引用原始内存
// 前提条件是使用此接口的调用方 `不修改任何字节数据`
type Cursor struct {
	r int
	b []byte
}

// NewCursor 创建并返回 *Cursor 实例
func NewCursor(p []byte) *Cursor {
	return &Cursor{b: p}
}

// Len 返回剩余未读的字节数
func (c *Cursor) Len() int {
	return len(c.b) - c.r
}

// Offset 返回已经读取的字节数
func (c *Cursor) Offset() int {
	return c.r
}

// Size 返回整块内存的大小
func (c *Cursor) Size() int {
	return len(c.b)
}

// Remaining 返回剩余未读的数据 不移动游标
func (c *Cursor) Remaining() []byte {
	return c.b[c.r:]
}

// Peek 返回至多 n 字节数据 不移动游标
func (c *Cursor) Peek(n int) []byte {
	if n > c.Len() {
		n = c.Len()
	}
	if n < 0 {
		n = 0
	}
	return c.b[c.r : c.r+n]
}

// Read 零拷贝方式读取至多 n 字节数据
//
// 游标已经位于末尾时返回 io.EOF
func (c *Cursor) Read(n int) ([]byte, error) {
	if c.r == len(c.b) {
		return nil, io.EOF
	}

	b := c.Peek(n)
	c.r += len(b)
	return b, nil
}

// Skip 跳过至多 n 个字节 返回实际跳过的字节数
func (c *Cursor) Skip(n int) int {
	b := c.Peek(n)
	c.r += len(b)
	return len(b)
}

// Reset 替换底层内存并将游标归零
func (c *Cursor) Reset(p []byte) {
	c.b = p
	c.r = 0
}

// Close 将游标置于末尾 之后的 Read 均返回 io.EOF
func (c *Cursor) Close() {
	c.r = len(c.b)
}
