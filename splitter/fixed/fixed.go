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

package fixed

import (
	"io"

	"github.com/pkg/errors"

	"github.com/packetd/streamreader/common"
	"github.com/packetd/streamreader/splitter"
	"github.com/packetd/streamreader/streamreader"
)

const Name = "fixed"

func init() {
	splitter.Register(Name, New)
}

// Splitter 按照固定长度切分记录
type Splitter struct {
	size int

	// allowPartial 允许最后一条记录不足 size
	allowPartial bool
}

func New(conf map[string]any) (splitter.Splitter, error) {
	opts := common.Options(conf)
	size, err := opts.GetInt("size")
	if err != nil {
		return nil, errors.Wrap(err, "fixed: parse size")
	}
	if size <= 0 {
		return nil, errors.Errorf("fixed: size must be positive, got %d", size)
	}

	var allowPartial bool
	if _, ok := opts["allowPartial"]; ok {
		if allowPartial, err = opts.GetBool("allowPartial"); err != nil {
			return nil, errors.Wrap(err, "fixed: parse allowPartial")
		}
	}

	return &Splitter{
		size:         size,
		allowPartial: allowPartial,
	}, nil
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
	b, err := streamreader.Read(r, s.size, s.allowPartial)
	if err != nil {
		return splitter.Record{}, err
	}
	return splitter.Record{Offset: offset, Data: b}, nil
}
