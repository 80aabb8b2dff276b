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

package source

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

const (
	TypeFile  = "file"
	TypeStdin = "stdin"
	TypeFD    = "fd"
	TypeTCP   = "tcp"
	TypePcap  = "pcap"
)

// Config 数据源配置
type Config struct {
	Type    string        `config:"type"`
	Path    string        `config:"path"`
	FD      int           `config:"fd"`
	Address string        `config:"address"`
	Timeout time.Duration `config:"timeout"`
	Port    uint16        `config:"port"`
	Snappy  bool          `config:"snappy"`
}

type wrapped struct {
	Source
	closer io.Closer
}

func (w wrapped) Close() error {
	return w.closer.Close()
}

// Open 根据配置打开数据源
//
// Snappy 开启时在原始数据源之上解压 对 pcap 而言解压的是抓包文件本身
func Open(conf Config) (ReadCloser, error) {
	var rc ReadCloser
	switch conf.Type {
	case TypeFile, "":
		if conf.Path == "" {
			return nil, newError("file source requires path")
		}
		f, err := OpenFile(conf.Path)
		if err != nil {
			return nil, err
		}
		rc = f

	case TypeStdin:
		rc = NopCloser(FD(os.Stdin.Fd()))

	case TypeFD:
		if conf.FD < 0 {
			return nil, newError("invalid fd (%d)", conf.FD)
		}
		rc = FD(conf.FD)

	case TypeTCP:
		conn, err := Dial(conf.Address, conf.Timeout)
		if err != nil {
			return nil, err
		}
		rc = conn

	case TypePcap:
		f, err := OpenFile(conf.Path)
		if err != nil {
			return nil, err
		}
		var r io.Reader = f
		if conf.Snappy {
			r = Snappy(f)
		}
		p, err := NewPcap(r, conf.Port)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return wrapped{Source: p, closer: f}, nil

	default:
		return nil, errors.Wrapf(errUnknownType, "type (%s)", conf.Type)
	}

	if conf.Snappy {
		return wrapped{Source: Snappy(rc), closer: rc}, nil
	}
	return rc, nil
}

var errUnknownType = newError("unknown source type")
