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

package varint

import (
	"io"

	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"

	"github.com/packetd/streamreader/internal/mapstructure"
	"github.com/packetd/streamreader/splitter"
	"github.com/packetd/streamreader/streamreader"
)

const (
	Name = "varint"

	// maxVarintLen uint64 varint 编码的最大长度
	maxVarintLen = 10

	defaultMaxSize = 4 << 20
)

func init() {
	splitter.Register(Name, New)
}

type Config struct {
	// MaxSize 单条记录 (不含长度前缀) 的最大长度
	MaxSize int `config:"maxSize"`
}

// Splitter 切分 protobuf 风格的 varint 长度前缀帧 (如 protobuf delimited 消息流)
type Splitter struct {
	maxSize int
}

func New(conf map[string]any) (splitter.Splitter, error) {
	cfg := Config{}
	if err := mapstructure.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMaxSize
	}
	return &Splitter{maxSize: cfg.MaxSize}, nil
}

func (s *Splitter) Name() string {
	return Name
}

func (s *Splitter) Next(r streamreader.Reader) (splitter.Record, error) {
	eof, err := streamreader.CheckForEOF(r)
	if err != nil {
		return splitter.Record{}, err
	}
	if eof {
		return splitter.Record{}, io.EOF
	}

	offset := r.CurrentReadPosition()
	header, err := streamreader.Peek(r, maxVarintLen, true)
	if err != nil {
		return splitter.Record{}, err
	}

	size, n := proto.DecodeVarint(header)
	if n == 0 {
		if len(header) < maxVarintLen {
			return splitter.Record{}, errors.Wrapf(io.ErrUnexpectedEOF, "varint: truncated header at offset (%d)", offset)
		}
		return splitter.Record{}, errors.Wrapf(splitter.ErrInvalidHeader, "varint: offset (%d)", offset)
	}
	if size > uint64(s.maxSize) {
		return splitter.Record{}, errors.Wrapf(splitter.ErrRecordTooLarge, "varint: size (%d) exceeds (%d)", size, s.maxSize)
	}

	b, err := streamreader.Read(r, n+int(size), false)
	if err != nil {
		return splitter.Record{}, err
	}
	return splitter.Record{
		Offset: offset,
		Header: b[:n],
		Data:   b[n:],
	}, nil
}
