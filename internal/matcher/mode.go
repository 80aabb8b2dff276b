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
	"strings"

	"github.com/pkg/errors"
)

// Mode 多个分隔符同时可能命中时的裁决策略
//
// 以如下场景为例说明各策略的差异
// - 分隔符依次为 "45" "67" "234" "12345"
// - 数据流完整内容为 "0123456789"
// - 缓冲区中当前只有 "01234"
type Mode uint8

const (
	// AnyMatchWins 最快返回 优先使用缓冲区中已有的数据进行匹配
	// 示例中命中 "234"
	AnyMatchWins Mode = iota

	// ShortestDataWins 返回数据最短的匹配
	// 示例中命中 "12345" 返回 "0"
	ShortestDataWins

	// LongestDataWins 返回数据最长的匹配
	// 示例中命中 "67" 返回 "012345"
	//
	// 除非所有分隔符都已命中 否则需要读完整个数据流才能确定结果
	LongestDataWins

	// FirstMatchingDelimiterWins 分隔符列表中排序最靠前的命中者胜出
	// 示例中命中 "45"
	//
	// 除非第一个分隔符命中 否则可能需要读完整个数据流才能确定结果
	FirstMatchingDelimiterWins
)

var modeNames = map[Mode]string{
	AnyMatchWins:               "anyMatchWins",
	ShortestDataWins:           "shortestDataWins",
	LongestDataWins:            "longestDataWins",
	FirstMatchingDelimiterWins: "firstMatchingDelimiterWins",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMode 解析 Mode 名称 大小写不敏感
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	for m, name := range modeNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return 0, errors.Errorf("matcher: unknown matching mode %q", s)
}
