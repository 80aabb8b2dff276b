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

package matcher

import (
	"bytes"
)

// Match 一次分隔符命中记录
type Match struct {
	// Length 返回数据的长度 即命中位置加上 (如果包含分隔符) 分隔符长度
	Length int

	// DelimiterIndex 命中的分隔符在整理后列表中的下标
	DelimiterIndex int
}

// better 判断 a 是否优于 b
func better(mode Mode, a, b Match) bool {
	switch mode {
	case ShortestDataWins:
		return a.Length < b.Length
	case LongestDataWins:
		return a.Length > b.Length
	case FirstMatchingDelimiterWins:
		return a.DelimiterIndex < b.DelimiterIndex
	}
	return false
}

// FindBestMatch 在搜索空间关闭后 (数据源已经读完) 从所有命中记录中裁决最终结果
//
// AnyMatchWins 总是在首次命中时立即返回 这里只是兜底返回首个记录
func FindBestMatch(matches []Match, mode Mode) (Match, bool) {
	if len(matches) == 0 {
		return Match{}, false
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if better(mode, m, best) {
			best = m
		}
	}
	return best, true
}

type delimiter struct {
	index int
	value []byte
}

// Matcher 增量式多分隔符匹配器
//
// 单个 Matcher 只服务于一次读取请求 调用方持续扩大数据窗口并调用 Scan
// 已经被完整检验过的前缀不会被重复扫描 (参见 ResumeOffset)
type Matcher struct {
	mode             Mode
	includeDelimiter bool

	unmatched      []delimiter
	minLen, maxLen int

	matches []Match
	best    Match
	hasBest bool
}

// New 创建并返回 *Matcher 实例
//
// delimiters 需要已经经过 Cleanup 整理 空分隔符永远不会命中 因此直接跳过
func New(delimiters [][]byte, mode Mode, includeDelimiter bool) *Matcher {
	m := &Matcher{
		mode:             mode,
		includeDelimiter: includeDelimiter,
	}
	for i, d := range delimiters {
		if len(d) == 0 {
			continue
		}
		if len(m.unmatched) == 0 || len(d) < m.minLen {
			m.minLen = len(d)
		}
		if len(d) > m.maxLen {
			m.maxLen = len(d)
		}
		m.unmatched = append(m.unmatched, delimiter{index: i, value: d})
	}
	return m
}

// Best 返回目前为止按照 mode 裁决的最佳命中
func (m *Matcher) Best() (Match, bool) {
	return FindBestMatch(m.matches, m.mode)
}

// Unresolved 返回尚未命中且未被排除的分隔符数量
func (m *Matcher) Unresolved() int {
	return len(m.unmatched)
}

// ResumeOffset 返回窗口扩大后下一次 Scan 的起始位置
//
// 对于 pos < windowLen-maxLen+1 的位置 所有分隔符都已经被完整检验过
func (m *Matcher) ResumeOffset(windowLen int) int {
	off := windowLen - m.maxLen + 1
	if off < 0 {
		return 0
	}
	if off > windowLen {
		return windowLen
	}
	return off
}

func (m *Matcher) record(match Match) {
	m.matches = append(m.matches, match)
	if !m.hasBest || better(m.mode, match, m.best) {
		m.best = match
		m.hasBest = true
	}
}

// prune 剔除不可能再胜出的分隔符
//
// pos 为刚刚扫描完成的位置 windowLen 为当前窗口长度
func (m *Matcher) prune(pos, windowLen int) {
	if !m.hasBest {
		return
	}

	dst := m.unmatched[:0]
	for _, d := range m.unmatched {
		switch m.mode {
		case ShortestDataWins:
			// 分隔符尚未被检验的最早位置
			// 要么是下一个位置 要么是之前因为窗口不足而没能比较的位置
			earliest := pos + 1
			if tail := windowLen - len(d.value) + 1; tail < earliest {
				earliest = tail
			}
			if earliest < 0 {
				earliest = 0
			}
			length := earliest
			if m.includeDelimiter {
				length += len(d.value)
			}
			if length >= m.best.Length {
				continue
			}

		case FirstMatchingDelimiterWins:
			if d.index > m.best.DelimiterIndex {
				continue
			}
		}
		dst = append(dst, d)
	}
	m.unmatched = dst
}

// Scan 在 window[from:] 上逐字节扫描所有未命中的分隔符
//
// window 总是从本次读取的起始位置开始 from 之前的位置已经在之前的 Scan 中被检验
// 返回 (match, true) 表示已经得到确定的结果
// 返回 false 表示需要更多的数据 调用方扩大窗口后需再次调用 Scan
// 如果数据源已经读完 调用方应使用 Best 获取最终结果
func (m *Matcher) Scan(window []byte, from int) (Match, bool) {
	if len(m.unmatched) == 0 {
		return m.best, m.hasBest
	}

	last := len(window) - m.minLen
	for pos := from; pos <= last; pos++ {
		remaining := len(window) - pos
		for i := 0; i < len(m.unmatched); {
			d := m.unmatched[i]
			if len(d.value) > remaining || !bytes.Equal(window[pos:pos+len(d.value)], d.value) {
				i++
				continue
			}

			match := Match{Length: pos, DelimiterIndex: d.index}
			if m.includeDelimiter {
				match.Length += len(d.value)
			}
			m.unmatched = append(m.unmatched[:i], m.unmatched[i+1:]...)
			m.record(match)

			if m.mode == AnyMatchWins {
				return match, true
			}
		}

		switch m.mode {
		case ShortestDataWins:
			if m.hasBest && m.best.Length == 0 {
				return m.best, true
			}
			m.prune(pos, len(window))
		case FirstMatchingDelimiterWins:
			m.prune(pos, len(window))
		}

		if len(m.unmatched) == 0 {
			return m.best, m.hasBest
		}
	}

	// 只有所有分隔符都已确定 才能给出结果
	if len(m.unmatched) == 0 {
		return m.best, m.hasBest
	}
	return Match{}, false
}
