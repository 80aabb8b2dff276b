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

package growbuf

// Stats Buffer 内存搬迁统计
type Stats struct {
	Reallocations int
	Compactions   int
}

// Buffer 可增长的字节缓冲区
//
// 有效数据位于 [start, start+n) 区间 即已经从数据源读出但尚未交付给调用方的字节
// Buffer 只负责内存布局 不关心数据从何而来
//
// +------------+----------------------+-----------------+
// |  consumed  |   valid (unconsumed) |    free tail    |
// +------------+----------------------+-----------------+
// 0          start               start+n              cap
//
// 单个 Buffer 由一个 Reader 独占 不允许并发操作
type Buffer struct {
	defaultSize int
	start, n    int
	b           []byte
	stats       Stats
}

// New 创建并返回 *Buffer 实例 初始容量为 defaultSize
func New(defaultSize int) *Buffer {
	if defaultSize <= 0 {
		defaultSize = 1
	}
	return &Buffer{
		defaultSize: defaultSize,
		b:           make([]byte, defaultSize),
	}
}

// DefaultSize 返回期望的常驻容量
func (buf *Buffer) DefaultSize() int {
	return buf.defaultSize
}

// Cap 返回当前分配的容量
func (buf *Buffer) Cap() int {
	return len(buf.b)
}

// Len 返回未消费的字节数
func (buf *Buffer) Len() int {
	return buf.n
}

// Start 返回首个未消费字节的下标
func (buf *Buffer) Start() int {
	return buf.start
}

// Stats 返回内存搬迁统计
func (buf *Buffer) Stats() Stats {
	return buf.stats
}

// Bytes 返回未消费的数据窗口
//
// 返回的切片引用内部内存 在下一次 Reserve/Commit 之前有效 调用方不允许修改
func (buf *Buffer) Bytes() []byte {
	return buf.b[buf.start : buf.start+buf.n]
}

// Free 返回窗口之后的空闲区间 供数据源直接写入
func (buf *Buffer) Free() []byte {
	return buf.b[buf.start+buf.n:]
}

// Commit 将 Free 中新写入的 n 个字节纳入有效窗口
func (buf *Buffer) Commit(n int) {
	if n < 0 || buf.start+buf.n+n > len(buf.b) {
		panic("growbuf: commit out of range")
	}
	buf.n += n
}

// Consume 从窗口头部消费 n 个字节
func (buf *Buffer) Consume(n int) {
	if n < 0 || n > buf.n {
		panic("growbuf: consume out of range")
	}
	buf.start += n
	buf.n -= n
}

// Reserve 保证从 start 开始能够容纳 size 个字节
//
// 根据 size 与当前状态选择搬迁策略
// 1) size <= cap-start: 原地读取 不搬迁
// 2) size <= defaultSize: 将有效数据拷贝至默认大小缓冲区的起始位置 如果当前使用的是超大缓冲区则释放之
// 3) size <= cap: 超大缓冲区仍然够用 原地压缩至起始位置
// 4) 其余情况: 分配恰好 size 大小的缓冲区 拷贝有效数据并丢弃旧缓冲区
//
// 以此避免一次性的大读取造成缓冲区无限增长 同时常规路径保持零分配
func (buf *Buffer) Reserve(size int) {
	switch {
	case size <= len(buf.b)-buf.start:
		return

	case size <= buf.defaultSize:
		if len(buf.b) != buf.defaultSize {
			b := make([]byte, buf.defaultSize)
			copy(b, buf.Bytes())
			buf.b = b
			buf.stats.Reallocations++
		} else {
			copy(buf.b, buf.Bytes())
			buf.stats.Compactions++
		}

	case size <= len(buf.b):
		copy(buf.b, buf.Bytes())
		buf.stats.Compactions++

	default:
		b := make([]byte, size)
		copy(b, buf.Bytes())
		buf.b = b
		buf.stats.Reallocations++
	}
	buf.start = 0
}
