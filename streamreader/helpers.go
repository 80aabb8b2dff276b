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

package streamreader

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Read 读取 size 个字节并移动读取位置
func Read(r Reader, size int, allowReadingLess bool) ([]byte, error) {
	return r.ReadData(size, allowReadingLess, true)
}

// Peek 读取 size 个字节 不移动读取位置
func Peek(r Reader, size int, allowReadingLess bool) ([]byte, error) {
	return r.ReadData(size, allowReadingLess, false)
}

// ReadUpTo 读取数据直到命中分隔符并移动读取位置
func ReadUpTo(r Reader, delimiters [][]byte, mode MatchingMode, failIfNotFound, includeDelimiter bool) ([]byte, []byte, error) {
	return r.ReadDataUpTo(delimiters, mode, failIfNotFound, includeDelimiter, true)
}

// PeekUpTo 读取数据直到命中分隔符 不移动读取位置
func PeekUpTo(r Reader, delimiters [][]byte, mode MatchingMode, failIfNotFound, includeDelimiter bool) ([]byte, []byte, error) {
	return r.ReadDataUpTo(delimiters, mode, failIfNotFound, includeDelimiter, false)
}

// ReadToEnd 读取剩余的全部数据 (受限于 ReadSizeLimit)
func ReadToEnd(r Reader) ([]byte, error) {
	b, _, err := r.ReadDataUpTo(nil, AnyMatchWins, true, true, true)
	return b, err
}

// HasReachedEOF 数据源已经结束且缓冲区中没有未读数据
func HasReachedEOF(r Reader) bool {
	return r.StreamHasReachedEOF() && r.CurrentReadPosition() >= r.CurrentStreamReadPosition()
}

// CheckForEOF 主动探测是否已经读完
//
// 尚未确定 EOF 时可能会从数据源读取 1 个字节到缓冲区 但不会移动读取位置
func CheckForEOF(r Reader) (bool, error) {
	if HasReachedEOF(r) {
		return true, nil
	}
	b, err := Peek(r, 1, true)
	if err != nil {
		return false, err
	}
	return len(b) == 0, nil
}

// ReadUint16 按照 order 字节序读取 uint16
func ReadUint16(r Reader, order binary.ByteOrder) (uint16, error) {
	b, err := Read(r, 2, false)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

// ReadUint32 按照 order 字节序读取 uint32
func ReadUint32(r Reader, order binary.ByteOrder) (uint32, error) {
	b, err := Read(r, 4, false)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

// ReadUint64 按照 order 字节序读取 uint64
func ReadUint64(r Reader, order binary.ByteOrder) (uint64, error) {
	b, err := Read(r, 8, false)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

var (
	lf   = []byte{'\n'}
	cr   = []byte{'\r'}
	crlf = []byte{'\r', '\n'}
)

// lineSeparators 根据换行风格组装分隔符
//
// 同时允许 CR 与 CRLF 时只使用 CR 作为分隔符 命中后再通过下一个字节区分两者
func lineSeparators(allowUnix, allowLegacyMacOS, allowWindows bool) [][]byte {
	var separators [][]byte
	if allowUnix {
		separators = append(separators, lf)
	}
	if allowLegacyMacOS {
		separators = append(separators, cr)
	}
	if allowWindows && !allowLegacyMacOS {
		separators = append(separators, crlf)
	}
	return separators
}

// ReadLine 读取一行数据
//
// 支持 Unix (LF) 旧版 MacOS (CR) 以及 Windows (CRLF) 三种换行风格
// 返回的行不包含换行符 读取位置会越过换行符 换行符单独返回
// 最后一行没有换行符时返回空的分隔符 数据流结束时返回 io.EOF
func ReadLine(r Reader, allowUnix, allowLegacyMacOS, allowWindows bool) ([]byte, []byte, error) {
	line, sep, err := r.ReadDataUpTo(lineSeparators(allowUnix, allowLegacyMacOS, allowWindows), ShortestDataWins, false, false, false)
	if err != nil {
		return nil, nil, err
	}
	if len(line) == 0 && len(sep) == 0 {
		return nil, nil, io.EOF
	}

	n := len(line)
	size := n + len(sep)
	if allowWindows && allowLegacyMacOS && bytes.Equal(sep, cr) {
		next, err := Peek(r, size+1, true)
		if err != nil {
			return nil, nil, err
		}
		if len(next) > size && next[size] == '\n' {
			size++
		}
	}

	// 行与换行符已经全部在缓冲区中 这次读取不会搬迁内存
	b, err := Read(r, size, false)
	if err != nil {
		return nil, nil, err
	}
	return b[:n], b[n:], nil
}
