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

package bufbytes

import (
	"unicode/utf8"
)

// Bytes 有容量上限的字节累加器 超出上限的部分被丢弃并记录
//
// 用于导出记录时截断过长的内容
type Bytes struct {
	size      int
	buf       []byte
	truncated int
}

// New 创建并返回 *Bytes 实例 size <= 0 表示不限制
func New(size int) *Bytes {
	return &Bytes{
		size: size,
	}
}

func (b *Bytes) Write(p []byte) {
	if b.size <= 0 {
		b.buf = append(b.buf, p...)
		return
	}

	l := b.size - len(b.buf)
	if l >= len(p) {
		b.buf = append(b.buf, p...)
		return
	}
	if l > 0 {
		b.buf = append(b.buf, p[:l]...)
		p = p[l:]
	}
	b.truncated += len(p)
}

func (b *Bytes) Len() int {
	return len(b.buf)
}

// Truncated 返回被丢弃的字节数
func (b *Bytes) Truncated() int {
	return b.truncated
}

func (b *Bytes) Text() string {
	return string(b.buf)
}

// ValidText 返回文本 截断导致的尾部不完整 UTF-8 字符会被去除
func (b *Bytes) ValidText() string {
	buf := b.buf
	if b.truncated == 0 {
		return string(buf)
	}
	for i := 0; i < utf8.UTFMax && len(buf) > 0; i++ {
		r, size := utf8.DecodeLastRune(buf)
		if r != utf8.RuneError || size != 1 {
			break
		}
		buf = buf[:len(buf)-1]
	}
	return string(buf)
}

func (b *Bytes) Clone() []byte {
	if b.buf == nil {
		return nil
	}
	return append([]byte{}, b.buf...)
}

func (b *Bytes) Reset() {
	b.buf = b.buf[:0]
	b.truncated = 0
}
