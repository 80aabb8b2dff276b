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

	"github.com/cespare/xxhash/v2"
)

// dedup 去除重复的分隔符 保留首次出现的顺序
//
// [1,2,3,2,1] -> [1,2,3]
func dedup(delimiters [][]byte) [][]byte {
	seen := make(map[uint64][][]byte, len(delimiters))
	dst := make([][]byte, 0, len(delimiters))

outer:
	for _, d := range delimiters {
		h := xxhash.Sum64(d)
		for _, prev := range seen[h] {
			if bytes.Equal(prev, d) {
				continue outer
			}
		}
		seen[h] = append(seen[h], d)
		dst = append(dst, d)
	}
	return dst
}

// Cleanup 整理分隔符列表
//
// 首先去重 然后根据 mode 剔除不可能胜出的分隔符
// - ShortestDataWins 且不包含分隔符: 以另一个分隔符为前缀的分隔符不可能产生更短的数据
// - LongestDataWins 且包含分隔符: 以另一个分隔符为后缀的分隔符不可能产生更长的数据
//
// 空分隔符不会淘汰其他分隔符 其余组合没有已知的安全剔除规则 原样返回
func Cleanup(delimiters [][]byte, mode Mode, includeDelimiter bool) [][]byte {
	delimiters = dedup(delimiters)

	var dominated func(d, other []byte) bool
	switch {
	case mode == ShortestDataWins && !includeDelimiter:
		dominated = bytes.HasPrefix
	case mode == LongestDataWins && includeDelimiter:
		dominated = bytes.HasSuffix
	default:
		return delimiters
	}

	dst := make([][]byte, 0, len(delimiters))
	for i, d := range delimiters {
		keep := true
		for j, other := range delimiters {
			if i == j || len(other) == 0 {
				continue
			}
			if dominated(d, other) {
				keep = false
				break
			}
		}
		if keep {
			dst = append(dst, d)
		}
	}
	return dst
}
