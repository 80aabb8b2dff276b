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
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/packetd/streamreader/common"
	"github.com/packetd/streamreader/confengine"
	"github.com/packetd/streamreader/controller"
	"github.com/packetd/streamreader/exporter"
	"github.com/packetd/streamreader/internal/sigs"
	"github.com/packetd/streamreader/source"
	"github.com/packetd/streamreader/splitter"
	"github.com/packetd/streamreader/streamreader"
)

type splitCmdConfig struct {
	SourceType string
	Path       string
	FD         int
	Address    string
	Port       int
	Snappy     bool
	Follow     bool

	BufferSize    int
	ReadSizeLimit int

	Splitter         string
	Delimiters       []string
	HexDelimiters    []string
	Mode             string
	IncludeDelimiter bool
	FailIfNotFound   bool
	MaxSize          int
	Size             int
	AllowPartial     bool
	Unix             bool
	LegacyMacOS      bool
	Windows          bool

	Format        string
	MaxRecordSize int
	LogLevel      string
}

func quoteList(ss []string) string {
	quoted := make([]string, 0, len(ss))
	for _, s := range ss {
		quoted = append(quoted, strconv.Quote(s))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// splitterOptions 仅渲染与所选 splitter 相关的参数
func (c *splitCmdConfig) splitterOptions() map[string]string {
	opts := make(map[string]string)
	switch c.Splitter {
	case "delimiter":
		if len(c.Delimiters) > 0 {
			opts["delimiters"] = quoteList(c.Delimiters)
		}
		if len(c.HexDelimiters) > 0 {
			opts["hexDelimiters"] = quoteList(c.HexDelimiters)
		}
		if c.Mode != "" {
			opts["mode"] = strconv.Quote(c.Mode)
		}
		opts["includeDelimiter"] = strconv.FormatBool(c.IncludeDelimiter)
		opts["failIfNotFound"] = strconv.FormatBool(c.FailIfNotFound)
		if c.MaxSize > 0 {
			opts["maxSize"] = strconv.Itoa(c.MaxSize)
		}

	case "line":
		opts["unix"] = strconv.FormatBool(c.Unix)
		opts["legacyMacOS"] = strconv.FormatBool(c.LegacyMacOS)
		opts["windows"] = strconv.FormatBool(c.Windows)

	case "fixed":
		opts["size"] = strconv.Itoa(c.Size)
		opts["allowPartial"] = strconv.FormatBool(c.AllowPartial)

	case "varint", "bson":
		if c.MaxSize > 0 {
			opts["maxSize"] = strconv.Itoa(c.MaxSize)
		}
	}
	return opts
}

func (c *splitCmdConfig) sourceType() string {
	switch {
	case c.SourceType != "":
		return c.SourceType
	case c.Path != "":
		return source.TypeFile
	}
	return source.TypeStdin
}

type option struct {
	Key   string
	Value string
}

func (c *splitCmdConfig) Yaml() []byte {
	text := `
logger:
  stderr: true
  level: {{ .LogLevel }}

server:
  enabled: false

source:
  type: {{ .SourceType }}
  path: {{ quote .Path }}
  fd: {{ .FD }}
  address: {{ quote .Address }}
  port: {{ .Port }}
  snappy: {{ .Snappy }}
  follow: {{ .Follow }}

reader:
  bufferSize: {{ .BufferSize }}
  bufferSizeIncrement: {{ .BufferSize }}
  readSizeLimit: {{ .ReadSizeLimit }}

splitter:
  name: {{ .Splitter }}
  options:
{{- range .Options }}
    {{ .Key }}: {{ .Value }}
{{- end }}

exporter:
  console: true
  format: {{ .Format }}
  maxRecordSize: {{ .MaxRecordSize }}
`
	tpl, err := template.New("Config").Funcs(template.FuncMap{"quote": strconv.Quote}).Parse(text)
	if err != nil {
		return nil
	}

	var options []option
	for k, v := range c.splitterOptions() {
		options = append(options, option{Key: k, Value: v})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Key < options[j].Key })

	var buf bytes.Buffer
	err = tpl.Execute(&buf, map[string]any{
		"LogLevel":      c.LogLevel,
		"SourceType":    c.sourceType(),
		"Path":          c.Path,
		"FD":            c.FD,
		"Address":       c.Address,
		"Port":          c.Port,
		"Snappy":        c.Snappy,
		"Follow":        c.Follow,
		"BufferSize":    c.BufferSize,
		"ReadSizeLimit": c.ReadSizeLimit,
		"Splitter":      c.Splitter,
		"Options":       options,
		"Format":        c.Format,
		"MaxRecordSize": c.MaxRecordSize,
	})
	if err != nil {
		return nil
	}
	return buf.Bytes()
}

// run 切分直至数据源读完 follow 模式下直至收到终止信号
func (c *splitCmdConfig) run(args []string) {
	if len(args) > 0 {
		c.Path = args[0]
	}

	cfg, err := confengine.LoadContent(c.Yaml())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctr, err := controller.New(cfg, common.GetBuildInfo())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create controller: %v\n", err)
		os.Exit(1)
	}
	if err := ctr.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start controller: %v\n", err)
		os.Exit(1)
	}

	select {
	case <-ctr.Done():
	case <-sigs.Terminate():
	}
	stop(ctr)
}

func (c *splitCmdConfig) bindCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.SourceType, "source", "", "Source type [file|stdin|fd|tcp|pcap], defaults to file when a path is given otherwise stdin")
	cmd.Flags().IntVar(&c.FD, "fd", 0, "File descriptor to read from when --source=fd")
	cmd.Flags().StringVar(&c.Address, "address", "", "Address to dial when --source=tcp")
	cmd.Flags().IntVar(&c.Port, "port", 0, "Only keep payloads of this TCP/UDP port when --source=pcap")
	cmd.Flags().BoolVar(&c.Snappy, "snappy", false, "Decompress snappy framed input")
	cmd.Flags().BoolVar(&c.Follow, "follow", false, "Keep waiting for appended data after reaching the end of the source")
	cmd.Flags().IntVar(&c.BufferSize, "buffer-size", common.ReadWriteBlockSize, "Initial buffer size and growth increment in bytes")
	cmd.Flags().IntVar(&c.ReadSizeLimit, "read-size-limit", streamreader.NoLimit, "Stop after reading this many bytes, -1 for no limit")
	cmd.Flags().StringVar(&c.Format, "format", exporter.FormatText, "Output format [text|json]")
	cmd.Flags().IntVar(&c.MaxRecordSize, "max-record-size", 0, "Truncate printed records to this many bytes, 0 for no limit")
	cmd.Flags().StringVar(&c.LogLevel, "log-level", "warn", "Logger level [debug|info|warn|error]")
}

var splitConfig splitCmdConfig

var splitCmd = &cobra.Command{
	Use:   "split [path]",
	Short: "Split a file, stdin or connection into records and print them",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		splitConfig.run(args)
	},
	Example: "# streamreader split access.log --splitter delimiter --delimiter '\\r\\n' --delimiter ';' --format json\n" +
		"# streamreader split dump.bson --splitter bson --format json",
}

var linesConfig = splitCmdConfig{Splitter: "line"}

var linesCmd = &cobra.Command{
	Use:   "lines [path]",
	Short: "Print lines of a file or stdin, accepting LF, CR and CRLF line endings",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		linesConfig.run(args)
	},
	Example: "# tail -c +0 app.log | streamreader lines --windows",
}

func init() {
	splitConfig.bindCommonFlags(splitCmd)
	splitCmd.Flags().StringVar(&splitConfig.Splitter, "splitter", "line", fmt.Sprintf("Splitter name %v", splitter.Names()))
	splitCmd.Flags().StringArrayVar(&splitConfig.Delimiters, "delimiter", nil, "Delimiter with Go escapes (e.g. '\\r\\n'), repeatable")
	splitCmd.Flags().StringArrayVar(&splitConfig.HexDelimiters, "hex-delimiter", nil, "Hex encoded delimiter (e.g. 0d0a), repeatable")
	splitCmd.Flags().StringVar(&splitConfig.Mode, "mode", "", "Matching mode [anyMatchWins|shortestDataWins|longestDataWins|firstMatchingDelimiterWins]")
	splitCmd.Flags().BoolVar(&splitConfig.IncludeDelimiter, "include-delimiter", false, "Keep the delimiter at the end of each record")
	splitCmd.Flags().BoolVar(&splitConfig.FailIfNotFound, "fail-if-not-found", false, "Fail when the last record has no delimiter")
	splitCmd.Flags().IntVar(&splitConfig.MaxSize, "max-size", 0, "Maximum record size for delimiter, varint and bson splitters")
	splitCmd.Flags().IntVar(&splitConfig.Size, "size", 0, "Record size for the fixed splitter")
	splitCmd.Flags().BoolVar(&splitConfig.AllowPartial, "allow-partial", false, "Allow a shorter last record for the fixed splitter")
	splitCmd.Flags().BoolVar(&splitConfig.Unix, "unix", true, "Accept LF line endings for the line splitter")
	splitCmd.Flags().BoolVar(&splitConfig.LegacyMacOS, "mac", false, "Accept CR line endings for the line splitter")
	splitCmd.Flags().BoolVar(&splitConfig.Windows, "windows", true, "Accept CRLF line endings for the line splitter")
	rootCmd.AddCommand(splitCmd)

	linesConfig.bindCommonFlags(linesCmd)
	linesCmd.Flags().BoolVar(&linesConfig.Unix, "unix", true, "Accept LF line endings")
	linesCmd.Flags().BoolVar(&linesConfig.LegacyMacOS, "mac", true, "Accept CR line endings")
	linesCmd.Flags().BoolVar(&linesConfig.Windows, "windows", true, "Accept CRLF line endings")
	rootCmd.AddCommand(linesCmd)
}
