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
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/packetd/streamreader/common"
	"github.com/packetd/streamreader/internal/json"
	"github.com/packetd/streamreader/internal/sigs"
	"github.com/packetd/streamreader/logger"
)

func (c *Controller) setupServer() {
	if c.svr == nil {
		return
	}

	// Admin Routes
	c.svr.RegisterPostRoute("/-/logger", c.routeLogger)
	c.svr.RegisterPostRoute("/-/reload", c.routeReload)

	// Watch Routes
	c.svr.RegisterGetRoute("/watch", c.routeWatch)

	// Metrics Routes
	c.svr.RegisterGetRoute("/metrics", c.routeMetrics)
	c.svr.RegisterGetRoute("/stats", c.routeStats)
}

func (c *Controller) recordMetrics() {
	uptime.Set(float64(common.Uptime()))
	buildInfo.WithLabelValues(c.buildInfo.Version, c.buildInfo.GitHash, c.buildInfo.Time).Set(1)

	stats := c.Stats()
	readerSourceReads.Set(float64(stats.SourceReads))
	readerBytesRead.Set(float64(stats.StreamPos))
	readerReallocations.Set(float64(stats.Reallocations))
	readerCompactions.Set(float64(stats.Compactions))
	readerBufferCap.Set(float64(stats.BufferCap))
	readerBuffered.Set(float64(stats.Buffered))
	readerPosition.Set(float64(stats.ReadPosition))
}

func (c *Controller) routeMetrics(w http.ResponseWriter, r *http.Request) {
	c.recordMetrics()
	promhttp.Handler().ServeHTTP(w, r)
}

func (c *Controller) routeStats(w http.ResponseWriter, _ *http.Request) {
	b, err := json.Marshal(c.Stats())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(b)
}

func (c *Controller) routeLogger(w http.ResponseWriter, r *http.Request) {
	level := r.FormValue("level")
	logger.SetLoggerLevel(level)
	w.Write([]byte(`{"status": "success", "level": "` + logger.LoggerLevel() + `"}`))
}

func (c *Controller) routeReload(w http.ResponseWriter, _ *http.Request) {
	if err := sigs.SelfReload(); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Write([]byte(`{"status": "success"}`))
}

// routeWatch 以流式响应推送最新切分出的记录
//
// 参数 max_message 控制最多推送的记录数 timeout 控制等待单条记录的最长时间
func (c *Controller) routeWatch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	var maxMessage int
	maxMessage, _ = strconv.Atoi(r.URL.Query().Get("max_message"))
	if maxMessage <= 0 {
		maxMessage = 100
	}

	var timeout time.Duration
	timeout, _ = time.ParseDuration(r.URL.Query().Get("timeout"))
	if timeout <= 0 {
		timeout = time.Second * 5
	}

	queue := c.bus.Subscribe(common.Concurrency())
	defer c.bus.Unsubscribe(queue)

	for i := 0; i < maxMessage; i++ {
		data, ok := queue.PopTimeout(timeout)
		if !ok {
			return
		}

		// 编码结果已经以换行符结尾
		w.Write(data)
		flusher.Flush()
	}
}
