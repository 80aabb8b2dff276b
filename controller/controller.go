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

package controller

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/packetd/streamreader/common"
	"github.com/packetd/streamreader/confengine"
	"github.com/packetd/streamreader/exporter"
	"github.com/packetd/streamreader/internal/pubsub"
	"github.com/packetd/streamreader/internal/rescue"
	"github.com/packetd/streamreader/logger"
	"github.com/packetd/streamreader/server"
	"github.com/packetd/streamreader/source"
	"github.com/packetd/streamreader/splitter"
	"github.com/packetd/streamreader/streamreader"
)

// Controller 负责串联 数据源 -> streamreader -> splitter -> exporter
//
// 读取在单独的协程中进行 Reader 不会被并发访问
// 统计信息以快照的形式对外暴露
type Controller struct {
	ctx       context.Context
	cancel    context.CancelFunc
	buildInfo common.BuildInfo

	srcCfg    SourceConfig
	src       source.ReadCloser
	reader    *streamreader.BufferedReader
	splitter  splitter.Splitter
	formatter splitter.Formatter

	exp *exporter.Exporter
	svr *server.Server
	bus *pubsub.PubSub[[]byte]

	stats   atomic.Pointer[Stats]
	records atomic.Int64
	errs    atomic.Int64

	started  atomic.Bool
	done     chan struct{}
	err      error
	stopOnce sync.Once
}

// Stats Controller 运行统计
type Stats struct {
	Splitter      string `json:"splitter"`
	Records       int64  `json:"records"`
	Errors        int64  `json:"errors"`
	ReadPosition  int    `json:"readPosition"`
	StreamPos     int    `json:"streamPosition"`
	SourceReads   int64  `json:"sourceReads"`
	Reallocations int    `json:"reallocations"`
	Compactions   int    `json:"compactions"`
	BufferCap     int    `json:"bufferCap"`
	Buffered      int    `json:"buffered"`
	EOF           bool   `json:"eof"`
}

func setupLogger(conf *confengine.Config) error {
	opts := logger.Options{Stderr: true, Level: string(logger.LevelInfo)}
	if err := conf.UnpackChild("logger", &opts); err != nil {
		return err
	}
	if !opts.Stdout && !opts.Stderr {
		opts.Validate()
	}

	logger.SetOptions(opts)
	return nil
}

func New(conf *confengine.Config, buildInfo common.BuildInfo) (*Controller, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	var srcCfg SourceConfig
	if err := conf.UnpackChild("source", &srcCfg); err != nil {
		return nil, err
	}

	readerCfg := streamreader.DefaultConfig()
	if err := conf.UnpackChild("reader", &readerCfg); err != nil {
		return nil, err
	}
	if err := readerCfg.Validate(); err != nil {
		return nil, err
	}

	spCfg := splitter.Config{Name: "line"}
	if err := conf.UnpackChild("splitter", &spCfg); err != nil {
		return nil, err
	}
	sp, err := splitter.New(spCfg)
	if err != nil {
		return nil, err
	}
	if f, ok := sp.(splitter.Follower); ok {
		f.SetFollow(srcCfg.Follow)
	}

	exp, err := exporter.New(conf)
	if err != nil {
		return nil, err
	}

	svr, err := server.New(conf)
	if err != nil {
		return nil, err
	}

	src, err := source.Open(srcCfg.Config)
	if err != nil {
		return nil, err
	}
	reader, err := streamreader.New(src, readerCfg)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	return newController(srcCfg, src, reader, sp, exp, svr, buildInfo), nil
}

func newController(srcCfg SourceConfig, src source.ReadCloser, reader *streamreader.BufferedReader, sp splitter.Splitter, exp *exporter.Exporter, svr *server.Server, buildInfo common.BuildInfo) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		ctx:       ctx,
		cancel:    cancel,
		buildInfo: buildInfo,
		srcCfg:    srcCfg,
		src:       src,
		reader:    reader,
		splitter:  sp,
		exp:       exp,
		svr:       svr,
		bus:       pubsub.New[[]byte](),
		done:      make(chan struct{}),
	}
	if f, ok := sp.(splitter.Formatter); ok {
		c.formatter = f
	}
	c.snapshot()
	return c
}

func (c *Controller) Start() error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("controller: already started")
	}
	c.setupServer()

	if c.svr != nil {
		go func() {
			err := c.svr.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("failed to start server: %v", err)
			}
		}()
	}

	logger.Infof("controller started, source=%s splitter=%s follow=%v", c.srcCfg.Type, c.splitter.Name(), c.srcCfg.Follow)
	go func() {
		defer close(c.done)
		defer rescue.HandleCrash()
		c.err = c.loopSplit()
	}()
	return nil
}

// Done 返回读取协程退出时被关闭的 channel
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err 返回读取协程退出的原因 正常读完数据源时为空 需在 Done 之后调用
func (c *Controller) Err() error {
	return c.err
}

// Stats 返回最近一次的统计快照
func (c *Controller) Stats() Stats {
	return *c.stats.Load()
}

func (c *Controller) snapshot() {
	rs := c.reader.Stats()
	c.stats.Store(&Stats{
		Splitter:      c.splitter.Name(),
		Records:       c.records.Load(),
		Errors:        c.errs.Load(),
		ReadPosition:  c.reader.CurrentReadPosition(),
		StreamPos:     c.reader.CurrentStreamReadPosition(),
		SourceReads:   rs.SourceReads,
		Reallocations: rs.Reallocations,
		Compactions:   rs.Compactions,
		BufferCap:     rs.BufferCap,
		Buffered:      rs.Buffered,
		EOF:           c.reader.StreamHasReachedEOF(),
	})
}

// waitable 判断错误是否意味着需要等待数据源追加更多数据
func waitable(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, splitter.ErrIncomplete) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, streamreader.ErrNotEnoughData)
}

func (c *Controller) loopSplit() error {
	name := c.splitter.Name()
	for {
		select {
		case <-c.ctx.Done():
			return nil
		default:
		}

		record, err := c.splitter.Next(c.reader)
		if err == nil {
			c.handleRecord(name, record)
			continue
		}

		c.snapshot()
		if c.srcCfg.Follow && waitable(err) && c.reader.StreamHasReachedEOF() {
			select {
			case <-c.ctx.Done():
				return nil
			case <-time.After(c.srcCfg.GetPollInterval()):
			}
			c.reader.ClearStreamHasReachedEOF()
			continue
		}

		if errors.Is(err, io.EOF) {
			logger.Infof("source reached EOF, records=%d position=%d", c.records.Load(), c.reader.CurrentReadPosition())
			return nil
		}

		// 数据源被关闭导致的读取失败
		if c.ctx.Err() != nil {
			return nil
		}

		c.errs.Add(1)
		c.snapshot()
		splitErrors.WithLabelValues(name).Inc()
		logger.Errorf("failed to split record at position %d: %v", c.reader.CurrentReadPosition(), err)
		return err
	}
}

func (c *Controller) handleRecord(name string, record splitter.Record) {
	c.records.Add(1)
	splitRecords.WithLabelValues(name).Inc()
	splitBytes.WithLabelValues(name).Add(float64(len(record.Header) + len(record.Data)))

	entry := exporter.NewEntry(record, c.formatter, c.exp.Config().MaxRecordSize)
	b, err := c.exp.Encode(entry)
	if err != nil {
		exportErrors.Inc()
		logger.Warnf("failed to encode record at offset %d: %v", record.Offset, err)
		return
	}
	if err := c.exp.Export(b); err != nil {
		exportErrors.Inc()
		logger.Warnf("failed to export record at offset %d: %v", record.Offset, err)
	}
	if c.bus.Num() > 0 {
		c.bus.Publish(b)
	}
	c.snapshot()
}

// Reload 重载配置
//
// 目前仅支持重载日志配置
func (c *Controller) Reload(conf *confengine.Config) error {
	return setupLogger(conf)
}

// Stop 停止读取并释放资源
//
// 关闭数据源可以让阻塞在读取上的协程 (如网络连接) 尽快返回
func (c *Controller) Stop() error {
	var errs error
	c.stopOnce.Do(func() {
		c.cancel()
		if err := c.src.Close(); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "close source"))
		}

		if c.started.Load() {
			select {
			case <-c.done:
			case <-time.After(5 * time.Second):
				logger.Warnf("split loop did not exit in time")
			}
		}

		if c.svr != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := c.svr.Shutdown(ctx); err != nil {
				errs = multierror.Append(errs, errors.Wrap(err, "shutdown server"))
			}
		}
		if err := c.exp.Close(); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "close exporter"))
		}
	})
	return errs
}
