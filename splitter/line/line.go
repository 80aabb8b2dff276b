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

package line

import (
	"io"

	"github.com/packetd/streamreader/internal/mapstructure"
	"github.com/packetd/streamreader/splitter"
	"github.com/packetd/streamreader/streamreader"
)

const Name = "line"

func init() {
	splitter.Register(Name, New)
}

type Config struct {
	Unix        bool `config:"unix"`
	LegacyMacOS bool `config:"legacyMacOS"`
	Windows     bool `config:"windows"`
}

type Splitter struct {
	cfg        Config
	separators [][]byte
	follow     bool
}

// New 创建按行切分的 Splitter
//
// 未开启任何换行风格时默认同时支持 Unix 与 Windows
func New(conf map[string]any) (splitter.Splitter, error) {
	cfg := Config{}
	if err := mapstructure.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	if !cfg.Unix && !cfg.LegacyMacOS && !cfg.Windows {
		cfg.Unix = true
		cfg.Windows = true
	}

	var separators [][]byte
	if cfg.Unix {
		separators = append(separators, []byte{'\n'})
	}
	if cfg.LegacyMacOS {
		separators = append(separators, []byte{'\r'})
	}
	if cfg.Windows {
		separators = append(separators, []byte{'\r', '\n'})
	}
	return &Splitter{cfg: cfg, separators: separators}, nil
}

func (s *Splitter) Name() string {
	return Name
}

func (s *Splitter) SetFollow(follow bool) {
	s.follow = follow
}

// complete 判断缓冲区中是否已经有完整的一行
func (s *Splitter) complete(r streamreader.Reader) (bool, error) {
	_, sep, err := streamreader.PeekUpTo(r, s.separators, streamreader.ShortestDataWins, false, false)
	if err != nil {
		return false, err
	}
	return len(sep) > 0 || !r.StreamHasReachedEOF(), nil
}

func (s *Splitter) Next(r streamreader.Reader) (splitter.Record, error) {
	if s.follow {
		eof, err := streamreader.CheckForEOF(r)
		if err != nil {
			return splitter.Record{}, err
		}
		if eof {
			return splitter.Record{}, io.EOF
		}
		ok, err := s.complete(r)
		if err != nil {
			return splitter.Record{}, err
		}
		if !ok {
			return splitter.Record{}, splitter.ErrIncomplete
		}
	}

	offset := r.CurrentReadPosition()
	line, sep, err := streamreader.ReadLine(r, s.cfg.Unix, s.cfg.LegacyMacOS, s.cfg.Windows)
	if err != nil {
		return splitter.Record{}, err
	}

	record := splitter.Record{Offset: offset, Data: line}
	if len(sep) > 0 {
		record.Delimiter = sep
	}
	return record, nil
}
