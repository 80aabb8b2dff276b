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

package bson

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/packetd/streamreader/internal/mapstructure"
	"github.com/packetd/streamreader/splitter"
	"github.com/packetd/streamreader/streamreader"
)

const (
	Name = "bson"

	// minDocumentSize 空文档 int32 长度 + 0x00 结束符
	minDocumentSize = 5

	// defaultMaxSize MongoDB 单文档最大 16MB
	defaultMaxSize = 16 << 20
)

func init() {
	splitter.Register(Name, New)
}

type Config struct {
	MaxSize int `config:"maxSize"`

	// Validate 是否校验文档结构
	Validate bool `config:"validate"`
}

// Splitter 切分连续存放的 BSON 文档 (如 mongodump 产生的 .bson 文件)
type Splitter struct {
	cfg Config
}

func New(conf map[string]any) (splitter.Splitter, error) {
	cfg := Config{Validate: true}
	if err := mapstructure.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMaxSize
	}
	return &Splitter{cfg: cfg}, nil
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
	header, err := streamreader.Peek(r, 4, false)
	if err != nil {
		return splitter.Record{}, err
	}

	size := int(int32(binary.LittleEndian.Uint32(header)))
	if size < minDocumentSize {
		return splitter.Record{}, errors.Wrapf(splitter.ErrInvalidHeader, "bson: document size (%d) at offset (%d)", size, offset)
	}
	if size > s.cfg.MaxSize {
		return splitter.Record{}, errors.Wrapf(splitter.ErrRecordTooLarge, "bson: size (%d) exceeds (%d)", size, s.cfg.MaxSize)
	}

	b, err := streamreader.Read(r, size, false)
	if err != nil {
		return splitter.Record{}, err
	}
	if s.cfg.Validate {
		if err := bson.Raw(b).Validate(); err != nil {
			return splitter.Record{}, errors.Wrapf(err, "bson: invalid document at offset (%d)", offset)
		}
	}
	return splitter.Record{Offset: offset, Data: b}, nil
}

// Format 以 Extended JSON 的形式展示文档
func (s *Splitter) Format(record splitter.Record) string {
	return bson.Raw(record.Data).String()
}
