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
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// File 文件数据源
type File struct {
	f *os.File
}

// OpenFile 以只读方式打开文件
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open file (%s)", path)
	}
	return &File{f: f}, nil
}

// Name 返回文件路径
func (f *File) Name() string {
	return f.f.Name()
}

// Read 实现 Source 接口 文件末尾返回 (0, io.EOF)
func (f *File) Read(p []byte) (int, error) {
	return f.f.Read(p)
}

// Close 关闭文件
func (f *File) Close() error {
	return f.f.Close()
}

// FD 文件描述符数据源
//
// 直接调用 read(2) 不经过 Go 运行时的 poller 适用于继承而来的 fd (如 stdin 或者管道)
type FD int

// Read 实现 Source 接口 被信号中断时重试
func (fd FD) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(int(fd), p)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, errors.Wrapf(err, "read fd (%d)", int(fd))
		}
		return n, nil
	}
}

// Close 关闭文件描述符
func (fd FD) Close() error {
	return unix.Close(int(fd))
}
