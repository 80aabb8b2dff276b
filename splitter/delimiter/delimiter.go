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

package delimiter

import (
	"encoding/hex"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/packetd/streamreader/internal/mapstructure"
	"github.com/packetd/streamreader/splitter"
	"github.com/packetd/streamreader/streamreader"
)

const Name = "delimiter"

func init() {
	splitter.Register(Name, New)
}

type Config struct {
	// Delimiters 支持转义字符 如 "\r\n" "\x00"
	Delimiters []string `config:"delimiters"`

	// HexDelimiters 十六进制表示的分隔符 如 "0d0a"
	HexDelimiters []string `config:"hexDelimiters"`

	Mode             string `config:"mode"`
	IncludeDelimiter bool   `config:"includeDelimiter"`
	FailIfNotFound   bool   `config:"failIfNotFound"`

	// MaxSize 单条记录的最大长度 <= 0 表示不限制
	MaxSize int `config:"maxSize"`
}

// unescape 仅在包含反斜杠时按照 Go 字符串字面量的规则转义
func unescape(s string) ([]byte, error) {
	if !strings.Contains(s, `\`) {
		return []byte(s), nil
	}
	v, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return nil, errors.Wrapf(err, "unescape delimiter %q", s)
	}
	return []byte(v), nil
}

// parseDelimiters 解析配置中的所有分隔符 转义形式在前 十六进制形式在后
func (c Config) parseDelimiters() ([][]byte, error) {
	var errs error
	var delimiters [][]byte
	for _, s := range c.Delimiters {
		d, err := unescape(s)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		delimiters = append(delimiters, d)
	}
	for _, s := range c.HexDelimiters {
		d, err := hex.DecodeString(s)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "decode hex delimiter %q", s))
			continue
		}
		delimiters = append(delimiters, d)
	}
	if errs == nil && len(delimiters) == 0 {
		errs = errors.New("delimiter: no delimiters configured")
	}
	return delimiters, errs
}

type Splitter struct {
	cfg        Config
	delimiters [][]byte
	mode       streamreader.MatchingMode
	follow     bool
}

func New(conf map[string]any) (splitter.Splitter, error) {
	cfg := Config{}
	if err := mapstructure.Decode(conf, &cfg); err != nil {
		return nil, err
	}

	var errs error
	delimiters, err := cfg.parseDelimiters()
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	mode := streamreader.AnyMatchWins
	if cfg.Mode != "" {
		if mode, err = streamreader.ParseMatchingMode(cfg.Mode); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}

	return &Splitter{
		cfg:        cfg,
		delimiters: delimiters,
		mode:       mode,
	}, nil
}

func (s *Splitter) Name() string {
	return Name
}

func (s *Splitter) SetFollow(follow bool) {
	s.follow = follow
}

// Next 读取到下一个分隔符为止
//
// 不包含分隔符时 读取位置同样会越过分隔符
func (s *Splitter) Next(r streamreader.Reader) (splitter.Record, error) {
	eof, err := streamreader.CheckForEOF(r)
	if err != nil {
		return splitter.Record{}, err
	}
	if eof {
		return splitter.Record{}, io.EOF
	}

	offset := r.CurrentReadPosition()
	restore := splitter.LimitRecord(r, s.cfg.MaxSize)
	data, delim, err := streamreader.PeekUpTo(r, s.delimiters, s.mode, s.cfg.FailIfNotFound, s.cfg.IncludeDelimiter)
	if err != nil {
		tooLarge := s.cfg.MaxSize > 0 && r.CurrentStreamReadPosition()-offset >= s.cfg.MaxSize
		restore()
		if errors.Is(err, streamreader.ErrDelimitersNotFound) {
			switch {
			case tooLarge:
				return splitter.Record{}, errors.Wrapf(splitter.ErrRecordTooLarge, "offset (%d)", offset)
			case s.follow:
				return splitter.Record{}, splitter.ErrIncomplete
			}
		}
		return splitter.Record{}, err
	}

	// 末尾的记录可能尚未写完 截断到 MaxSize 的记录除外
	if s.follow && len(delim) == 0 && r.StreamHasReachedEOF() {
		if s.cfg.MaxSize <= 0 || r.CurrentStreamReadPosition()-offset < s.cfg.MaxSize {
			restore()
			return splitter.Record{}, splitter.ErrIncomplete
		}
	}

	n := len(data)
	size := n
	if !s.cfg.IncludeDelimiter {
		size += len(delim)
	}

	// 数据已经全部在缓冲区中 这次读取不会搬迁内存
	b, err := streamreader.Read(r, size, false)
	restore()
	if err != nil {
		return splitter.Record{}, err
	}

	record := splitter.Record{Offset: offset, Data: b[:n]}
	switch {
	case len(delim) == 0:
	case s.cfg.IncludeDelimiter:
		record.Delimiter = b[n-len(delim) : n]
	default:
		record.Delimiter = b[n:]
	}
	return record, nil
}
