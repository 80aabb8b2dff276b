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
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/streamreader/source"
)

func newBuffered(t *testing.T, data []byte, conf Config) *BufferedReader {
	r, err := New(source.FromReader(bytes.NewReader(data)), conf)
	require.NoError(t, err)
	return r
}

func bufferedConf(size, inc int) Config {
	conf := DefaultConfig()
	conf.BufferSize = size
	conf.BufferSizeIncrement = inc
	return conf
}

func checkReadLine(t *testing.T, r Reader, wantLine, wantSep string) {
	t.Helper()
	line, sep, err := ReadLine(r, true, true, true)
	require.NoError(t, err)
	assert.Equal(t, wantLine, string(line))
	assert.Equal(t, wantSep, string(sep))
}

func TestReadLine(t *testing.T) {
	data := []byte("Hello World,\r\nHow are you\ntoday?\rHope you’re\n\rokay!")
	runMatrix(t, data, defaultMatrix(), func(t *testing.T, r Reader, _ int) {
		checkReadLine(t, r, "Hello World,", "\r\n")
		checkReadLine(t, r, "How are you", "\n")
		checkReadLine(t, r, "today?", "\r")
		checkReadLine(t, r, "Hope you’re", "\n")
		checkReadLine(t, r, "", "\r")
		checkReadLine(t, r, "okay!", "")

		_, _, err := ReadLine(r, true, true, true)
		assert.Equal(t, io.EOF, err)
		assertEOF(t, r, true)
		assertStreamEOF(t, r, true)
	})
}

func TestReadLineMixedSeparators(t *testing.T) {
	runMatrix(t, []byte("a\r\nb\nc\rd"), smallBufferMatrix(), func(t *testing.T, r Reader, _ int) {
		var lines, seps []string
		for {
			line, sep, err := ReadLine(r, true, true, true)
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			lines = append(lines, string(line))
			seps = append(seps, string(sep))
		}
		assert.Equal(t, []string{"a", "b", "c", "d"}, lines)
		assert.Equal(t, []string{"\r\n", "\n", "\r", ""}, seps)
	})
}

func TestReadLineUnixOnly(t *testing.T) {
	runMatrix(t, []byte("aa\n77y\nd\nd"), smallBufferMatrix(), func(t *testing.T, r Reader, _ int) {
		var lines []string
		for {
			line, _, err := ReadLine(r, true, false, false)
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			lines = append(lines, string(line))
		}
		assert.Equal(t, []string{"aa", "77y", "d", "d"}, lines)
		assertEOF(t, r, true)
		assertStreamEOF(t, r, true)
	})
}

func TestReadLineWindowsOnly(t *testing.T) {
	r := NewBytesReader([]byte("a\rb\r\nc"), NoLimit)
	checkLine := func(want, wantSep string) {
		line, sep, err := ReadLine(r, false, false, true)
		require.NoError(t, err)
		assert.Equal(t, want, string(line))
		assert.Equal(t, wantSep, string(sep))
	}
	checkLine("a\rb", "\r\n")
	checkLine("c", "")
}

func TestReadLineWhenUnderlyingStreamHasEOF(t *testing.T) {
	data := []byte("hello")
	conf := bufferedConf(1024, 1024)
	conf.UnderlyingReadSizeLimit = 0
	r := newBuffered(t, data, conf)

	n, err := r.ReadSourceIntoBuffer(len(data)+1, true, true)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.False(t, HasReachedEOF(r))
	assert.True(t, r.StreamHasReachedEOF())

	line, sep, err := ReadLine(r, true, false, false)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(line))
	assert.Empty(t, sep)
}

func TestReadUpToWhenUnderlyingStreamHasEOF(t *testing.T) {
	data := []byte("hello")
	conf := bufferedConf(1024, 1024)
	conf.UnderlyingReadSizeLimit = 0
	r := newBuffered(t, data, conf)

	_, err := r.ReadSourceIntoBuffer(len(data)+1, true, true)
	require.NoError(t, err)
	assert.False(t, HasReachedEOF(r))
	assert.True(t, r.StreamHasReachedEOF())
	assert.Equal(t, 5, r.CurrentStreamReadPosition())

	b, _, err := ReadUpTo(r, nil, AnyMatchWins, true, false)
	require.NoError(t, err)
	assert.Equal(t, data, b)
}

func TestReadUpToWhenReadSizeLimitReached(t *testing.T) {
	data := []byte("hello!")
	limit := len(data) - 1
	conf := bufferedConf(1024, 1024)
	conf.ReadSizeLimit = limit
	conf.UnderlyingReadSizeLimit = 0
	r := newBuffered(t, data, conf)

	_, err := r.ReadSourceIntoBuffer(limit+1, true, true)
	require.NoError(t, err)
	assert.False(t, HasReachedEOF(r))
	assert.True(t, r.StreamHasReachedEOF())
	assert.Equal(t, 5, r.CurrentStreamReadPosition())

	b, _, err := ReadUpTo(r, nil, AnyMatchWins, true, false)
	require.NoError(t, err)
	assert.Equal(t, data[:limit], b)
}

func TestStreamReadForbidden(t *testing.T) {
	conf := bufferedConf(4, 4)
	conf.UnderlyingReadSizeLimit = 0
	r := newBuffered(t, []byte("abc\ndef"), conf)

	_, err := Read(r, 1, false)
	assert.ErrorIs(t, err, ErrStreamReadForbidden)

	_, _, err = ReadLine(r, true, false, false)
	assert.ErrorIs(t, err, ErrStreamReadForbidden)

	r.SetUnderlyingReadSizeLimit(NoLimit)
	line, _, err := ReadLine(r, true, false, false)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(line))
}

func TestReadSourceIntoBuffer(t *testing.T) {
	data := hexBytes("01 23 45 67 89")
	const (
		readSizeLimit = 3
		underlying    = 2
	)

	for size := 1; size <= 4; size++ {
		for inc := 1; inc <= 5; inc++ {
			for _, allowMoreThanOneRead := range []bool{true, false} {
				r := newBuffered(t, data, Config{
					BufferSize:              size,
					BufferSizeIncrement:     inc,
					ReadSizeLimit:           readSizeLimit,
					UnderlyingReadSizeLimit: underlying,
				})

				n, err := r.ReadSourceIntoBuffer(1, allowMoreThanOneRead, false)
				require.NoError(t, err)
				assert.Equal(t, max(min(underlying, size), 1), n)

				n, err = r.ReadSourceIntoBuffer(2, allowMoreThanOneRead, false)
				require.NoError(t, err)
				assert.Equal(t, readSizeLimit-min(underlying, size), n)
			}
		}
	}
}

func TestStreamHasReachedEOF(t *testing.T) {
	data := hexBytes("01 23 45 67 89")
	r := newBuffered(t, data, bufferedConf(1, 1))

	n, err := r.ReadSourceIntoBuffer(len(data), false, false)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.False(t, r.StreamHasReachedEOF())

	n, err = r.ReadSourceIntoBuffer(1, false, false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.True(t, r.StreamHasReachedEOF())
}

func TestMatchingModesFromCache(t *testing.T) {
	data := []byte("0123456789")
	delimiters := [][]byte{[]byte("45"), []byte("67"), []byte("234"), []byte("12345")}

	tests := []struct {
		mode      MatchingMode
		wantData  string
		wantDelim string
	}{
		{mode: AnyMatchWins, wantData: "01", wantDelim: "234"},
		{mode: ShortestDataWins, wantData: "0", wantDelim: "12345"},
		{mode: LongestDataWins, wantData: "012345", wantDelim: "67"},
		{mode: FirstMatchingDelimiterWins, wantData: "0123", wantDelim: "45"},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			r := newBuffered(t, data, bufferedConf(5, 1))
			n, err := r.ReadSourceIntoBuffer(5, false, false)
			require.NoError(t, err)
			require.Equal(t, 5, n)

			b, delim, err := ReadUpTo(r, delimiters, tt.mode, true, false)
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, string(b))
			assert.Equal(t, tt.wantDelim, string(delim))

			if tt.mode == AnyMatchWins {
				assert.Equal(t, int64(1), r.Stats().SourceReads)
			}
		})
	}
}

func TestSizeLimitScenario(t *testing.T) {
	conf := bufferedConf(8, 8)
	conf.ReadSizeLimit = 3
	r := newBuffered(t, []byte("abcde"), conf)

	_, err := Read(r, 4, false)
	var nerr *NotEnoughDataError
	require.ErrorAs(t, err, &nerr)
	assert.True(t, nerr.WouldReachReadSizeLimit)

	b, err := Read(r, 4, true)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
	assert.True(t, r.StreamHasReachedEOF())

	_, err = Read(r, 1, false)
	assert.ErrorIs(t, err, ErrNotEnoughData)
	assert.Equal(t, 3, r.CurrentStreamReadPosition())
}

func TestSetReadSizeLimit(t *testing.T) {
	conf := bufferedConf(4, 4)
	conf.ReadSizeLimit = 2
	r := newBuffered(t, []byte("abcd"), conf)

	b, err := Read(r, 2, false)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(b))
	assert.True(t, r.StreamHasReachedEOF())

	r.SetReadSizeLimit(1)
	assert.True(t, r.StreamHasReachedEOF())

	r.SetReadSizeLimit(NoLimit)
	assert.False(t, r.StreamHasReachedEOF())
	assert.Equal(t, NoLimit, r.ReadSizeLimit())

	b, err = Read(r, 2, false)
	require.NoError(t, err)
	assert.Equal(t, "cd", string(b))
}

func TestClearStreamHasReachedEOF(t *testing.T) {
	src := source.Bytes([]byte("abc"))
	r, err := New(src, bufferedConf(4, 4))
	require.NoError(t, err)

	b, err := ReadToEnd(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
	assert.True(t, r.StreamHasReachedEOF())
	reads := r.Stats().SourceReads

	// EOF 标记存在时不会再调用数据源
	src.Append([]byte("def"))
	b, err = Read(r, 3, true)
	require.NoError(t, err)
	assert.Empty(t, b)
	assert.Equal(t, reads, r.Stats().SourceReads)

	r.ClearStreamHasReachedEOF()
	b, err = Read(r, 3, false)
	require.NoError(t, err)
	assert.Equal(t, "def", string(b))
	assert.Equal(t, 6, r.CurrentReadPosition())
}

func TestBufferGrowth(t *testing.T) {
	r := newBuffered(t, []byte("0123456789ab"), bufferedConf(4, 4))

	b, err := Read(r, 2, false)
	require.NoError(t, err)
	assert.Equal(t, "01", string(b))

	b, err = Read(r, 10, false)
	require.NoError(t, err)
	assert.Equal(t, "23456789ab", string(b))

	stats := r.Stats()
	assert.Equal(t, 10, stats.BufferCap)
	assert.Equal(t, 1, stats.Reallocations)
	assert.Equal(t, int64(12), stats.BytesRead)

	// 常规大小的读取会回到默认大小的缓冲区
	_, err = Read(r, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Stats().BufferCap)
}

func TestStreamReadError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	src := source.Func(func(p []byte) (int, error) {
		calls++
		if calls == 1 {
			return copy(p, "abc"), boom
		}
		return 0, boom
	})

	r, err := New(src, bufferedConf(8, 8))
	require.NoError(t, err)

	_, err = Read(r, 4, false)
	var serr *StreamReadError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, boom, errors.Cause(err))
	assert.False(t, r.StreamHasReachedEOF())

	// 出错前读取的数据依然可用
	b, err := Read(r, 3, false)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
}

func TestNegativeSize(t *testing.T) {
	readers := []Reader{
		NewBytesReader([]byte("abc"), NoLimit),
		newBuffered(t, []byte("abc"), DefaultConfig()),
	}
	for _, r := range readers {
		_, err := Read(r, -1, true)
		assert.ErrorIs(t, err, ErrNegativeSize)
	}

	r := newBuffered(t, []byte("abc"), DefaultConfig())
	_, err := r.ReadSourceIntoBuffer(-1, false, false)
	assert.ErrorIs(t, err, ErrNegativeSize)
}

func TestReadUint(t *testing.T) {
	data := hexBytes("01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e")
	r := NewBytesReader(data, NoLimit)

	u16, err := ReadUint16(r, binary.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	u32, err := ReadUint32(r, binary.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x03040506), u32)

	u64, err := ReadUint64(r, binary.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0708090a0b0c0d0e), u64)

	_, err = ReadUint16(r, binary.BigEndian)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		conf Config
		errs int
	}{
		{name: "Default", conf: DefaultConfig()},
		{name: "Zero", conf: Config{}, errs: 2},
		{name: "BadLimits", conf: Config{BufferSize: 1, BufferSizeIncrement: 1, ReadSizeLimit: -2, UnderlyingReadSizeLimit: -3}, errs: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conf.Validate()
			if tt.errs == 0 {
				assert.NoError(t, err)
				return
			}
			var merr *multierror.Error
			require.ErrorAs(t, err, &merr)
			assert.Len(t, merr.Errors, tt.errs)
		})
	}

	_, err := New(source.Bytes(nil), Config{})
	assert.Error(t, err)
}

func TestNotEnoughDataError(t *testing.T) {
	err := notEnoughData(true)
	assert.ErrorIs(t, err, ErrNotEnoughData)
	assert.Contains(t, err.Error(), "read size limit")
	assert.NotErrorIs(t, err, ErrDelimitersNotFound)
	assert.Equal(t, ErrNotEnoughData.Error(), notEnoughData(false).Error())
}

func TestParseMatchingMode(t *testing.T) {
	mode, err := ParseMatchingMode("longestDataWins")
	require.NoError(t, err)
	assert.Equal(t, LongestDataWins, mode)
}
