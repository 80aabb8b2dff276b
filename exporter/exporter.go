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

package exporter

import (
	"io"
	"os"
	"sync"

	"github.com/valyala/bytebufferpool"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/packetd/streamreader/confengine"
	"github.com/packetd/streamreader/internal/bufbytes"
	"github.com/packetd/streamreader/internal/json"
	"github.com/packetd/streamreader/splitter"
)

// Entry 导出的记录
type Entry struct {
	Offset    int    `json:"offset"`
	Size      int    `json:"size"`
	Header    string `json:"header,omitempty"`
	Data      string `json:"data"`
	Delimiter string `json:"delimiter,omitempty"`
	Truncated int    `json:"truncated,omitempty"`
}

// NewEntry 将 splitter.Record 转换为 Entry
//
// formatter 不为空时由其决定记录内容的展示形式 内容超过 maxSize 时被截断
func NewEntry(record splitter.Record, formatter splitter.Formatter, maxSize int) Entry {
	buf := bufbytes.New(maxSize)
	if formatter != nil {
		buf.Write([]byte(formatter.Format(record)))
	} else {
		buf.Write(record.Data)
	}

	return Entry{
		Offset:    record.Offset,
		Size:      len(record.Data),
		Header:    string(record.Header),
		Data:      buf.ValidText(),
		Delimiter: string(record.Delimiter),
		Truncated: buf.Truncated(),
	}
}

// Exporter 负责将记录写入控制台或者滚动文件
type Exporter struct {
	mut sync.Mutex
	cfg Config
	wr  io.WriteCloser
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func New(conf *confengine.Config) (*Exporter, error) {
	var cfg Config
	if err := conf.UnpackChild("exporter", &cfg); err != nil {
		return nil, err
	}
	cfg.Validate()

	var wr io.WriteCloser
	switch {
	case cfg.Console:
		wr = nopCloser{Writer: os.Stdout}
	default:
		wr = &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			LocalTime:  true,
		}
	}
	return NewWithWriter(cfg, wr), nil
}

// NewWithWriter 使用指定的 io.WriteCloser 创建 Exporter
func NewWithWriter(cfg Config, wr io.WriteCloser) *Exporter {
	cfg.Validate()
	return &Exporter{cfg: cfg, wr: wr}
}

func (e *Exporter) Config() Config {
	return e.cfg
}

// Encode 按照配置的格式编码 Entry 结果以换行符结尾
func (e *Exporter) Encode(entry Entry) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	switch e.cfg.Format {
	case FormatText:
		buf.WriteString(entry.Data)
	default:
		b, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('\n')
	return append([]byte{}, buf.B...), nil
}

// Export 写入一条已经编码的记录
func (e *Exporter) Export(b []byte) error {
	e.mut.Lock()
	defer e.mut.Unlock()

	_, err := e.wr.Write(b)
	return err
}

func (e *Exporter) Close() error {
	e.mut.Lock()
	defer e.mut.Unlock()

	return e.wr.Close()
}
