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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/streamreader/confengine"
	"github.com/packetd/streamreader/controller"
	"github.com/packetd/streamreader/exporter"
	"github.com/packetd/streamreader/source"
	"github.com/packetd/streamreader/splitter"
	"github.com/packetd/streamreader/streamreader"
)

func TestSplitCmdConfigYaml(t *testing.T) {
	c := splitCmdConfig{
		Path:          `/tmp/a "b".log`,
		BufferSize:    16,
		ReadSizeLimit: streamreader.NoLimit,
		Splitter:      "delimiter",
		Delimiters:    []string{`\r\n`, ";"},
		HexDelimiters: []string{"00"},
		Mode:          "longestDataWins",
		MaxSize:       128,
		Format:        exporter.FormatJSON,
		LogLevel:      "warn",
	}

	conf, err := confengine.LoadContent(c.Yaml())
	require.NoError(t, err)

	var src controller.SourceConfig
	require.NoError(t, conf.UnpackChild("source", &src))
	assert.Equal(t, source.TypeFile, src.Type)
	assert.Equal(t, `/tmp/a "b".log`, src.Path)
	assert.False(t, src.Follow)

	readerCfg := streamreader.DefaultConfig()
	require.NoError(t, conf.UnpackChild("reader", &readerCfg))
	assert.Equal(t, 16, readerCfg.BufferSize)
	assert.Equal(t, streamreader.NoLimit, readerCfg.ReadSizeLimit)
	assert.NoError(t, readerCfg.Validate())

	var spCfg splitter.Config
	require.NoError(t, conf.UnpackChild("splitter", &spCfg))
	assert.Equal(t, "delimiter", spCfg.Name)
	sp, err := splitter.New(spCfg)
	require.NoError(t, err)

	r := streamreader.NewBytesReader([]byte("a\r\nb;c\x00d"), streamreader.NoLimit)
	var got []string
	for {
		rec, err := sp.Next(r)
		if err != nil {
			break
		}
		got = append(got, string(rec.Data))
	}
	assert.Equal(t, []string{"a\r\nb;c", "d"}, got)

	var expCfg exporter.Config
	require.NoError(t, conf.UnpackChild("exporter", &expCfg))
	assert.True(t, expCfg.Console)
	assert.Equal(t, exporter.FormatJSON, expCfg.Format)
}

func TestSplitCmdConfigSourceType(t *testing.T) {
	assert.Equal(t, source.TypeStdin, (&splitCmdConfig{}).sourceType())
	assert.Equal(t, source.TypeFile, (&splitCmdConfig{Path: "a.log"}).sourceType())
	assert.Equal(t, source.TypeTCP, (&splitCmdConfig{SourceType: source.TypeTCP, Path: "a.log"}).sourceType())
}

func TestLinesCmdConfigYaml(t *testing.T) {
	c := splitCmdConfig{Splitter: "line", Unix: true, LegacyMacOS: true, Windows: true, BufferSize: 4, ReadSizeLimit: -1, Format: "text", LogLevel: "warn"}
	conf, err := confengine.LoadContent(c.Yaml())
	require.NoError(t, err)

	var spCfg splitter.Config
	require.NoError(t, conf.UnpackChild("splitter", &spCfg))
	assert.Equal(t, true, spCfg.Options["legacyMacOS"])

	sp, err := splitter.New(spCfg)
	require.NoError(t, err)
	rec, err := sp.Next(streamreader.NewBytesReader([]byte("a\rb"), streamreader.NoLimit))
	require.NoError(t, err)
	assert.Equal(t, "a", string(rec.Data))
}
