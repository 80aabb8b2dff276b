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

package splitter

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/packetd/streamreader/streamreader"
)

// Config 单个 Splitter 的配置
type Config struct {
	Name    string         `config:"name"`
	Options map[string]any `config:"options"`
}

// Record 切分得到的一条记录
//
// Header Data 以及 Delimiter 均引用 Reader 内部的内存 下一次调用 Next 之前有效
// 如需保留请自行拷贝
type Record struct {
	// Offset 记录在数据流中的起始位置
	Offset int

	// Header 长度前缀等帧头 不属于记录内容
	Header []byte

	// Data 记录内容
	Data []byte

	// Delimiter 命中的分隔符 包含分隔符时与 Data 的尾部重叠
	Delimiter []byte
}

// Clone 返回不再引用 Reader 内存的拷贝
func (r Record) Clone() Record {
	return Record{
		Offset:    r.Offset,
		Header:    clone(r.Header),
		Data:      clone(r.Data),
		Delimiter: clone(r.Delimiter),
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

// Splitter 从 streamreader.Reader 中切分出一条条记录
type Splitter interface {
	// Name 返回 Splitter 名称
	Name() string

	// Next 读取下一条记录 数据流结束时返回 io.EOF
	Next(r streamreader.Reader) (Record, error)
}

// Formatter 可选接口 由 Splitter 决定记录内容的展示形式
//
// 未实现时记录内容按照文本输出
type Formatter interface {
	Format(record Record) string
}

// Follower 可选接口 用于持续追加的数据源
//
// 开启 follow 后 数据源末尾缺少分隔符的记录被视为尚未写完
// Next 返回 ErrIncomplete 且不移动读取位置 调用方等待更多数据后重试即可
type Follower interface {
	SetFollow(follow bool)
}

type CreateFunc func(conf map[string]any) (Splitter, error)

var splitterFactory = map[string]CreateFunc{}

func Register(name string, f CreateFunc) {
	splitterFactory[name] = f
}

func Get(name string) (CreateFunc, error) {
	f, ok := splitterFactory[name]
	if !ok {
		return nil, errors.Errorf("splitter factory (%s) not found", name)
	}
	return f, nil
}

// Names 返回所有已注册的 Splitter 名称
func Names() []string {
	names := make([]string, 0, len(splitterFactory))
	for name := range splitterFactory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New 根据名称以及配置创建 Splitter
func New(conf Config) (Splitter, error) {
	f, err := Get(conf.Name)
	if err != nil {
		return nil, err
	}
	return f(conf.Options)
}

var (
	// ErrRecordTooLarge 记录长度超过配置的上限
	ErrRecordTooLarge = errors.New("splitter: record too large")

	// ErrInvalidHeader 帧头无法解析
	ErrInvalidHeader = errors.New("splitter: invalid header")

	// ErrIncomplete 数据源末尾的记录尚未写完
	ErrIncomplete = errors.New("splitter: incomplete record")
)

// LimitRecord 在读取单条记录期间将 ReadSizeLimit 收紧到 offset+maxSize
//
// 返回的函数用于恢复原有的限制 maxSize <= 0 时不做任何调整
func LimitRecord(r streamreader.Reader, maxSize int) func() {
	if maxSize <= 0 {
		return func() {}
	}

	prev := r.ReadSizeLimit()
	limit := r.CurrentReadPosition() + maxSize
	if prev != streamreader.NoLimit && prev < limit {
		return func() {}
	}
	r.SetReadSizeLimit(limit)
	return func() {
		r.SetReadSizeLimit(prev)
	}
}
