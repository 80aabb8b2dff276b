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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/packetd/streamreader/common"
)

var (
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "uptime",
			Help:      "Uptime in seconds",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "git_hash", "build_time"},
	)

	splitRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "split_records_total",
			Help:      "Split records total",
		},
		[]string{"splitter"},
	)

	splitBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "split_bytes_total",
			Help:      "Split record bytes total",
		},
		[]string{"splitter"},
	)

	splitErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "split_errors_total",
			Help:      "Split errors total",
		},
		[]string{"splitter"},
	)

	exportErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "export_errors_total",
			Help:      "Export errors total",
		},
	)

	readerSourceReads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "reader_source_reads_total",
			Help:      "Reader source read calls total",
		},
	)

	readerBytesRead = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "reader_bytes_read_total",
			Help:      "Reader bytes read from source total",
		},
	)

	readerReallocations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "reader_buffer_reallocations_total",
			Help:      "Reader buffer reallocations total",
		},
	)

	readerCompactions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "reader_buffer_compactions_total",
			Help:      "Reader buffer compactions total",
		},
	)

	readerBufferCap = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "reader_buffer_capacity_bytes",
			Help:      "Reader buffer capacity in bytes",
		},
	)

	readerBuffered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "reader_buffered_bytes",
			Help:      "Reader buffered unread bytes",
		},
	)

	readerPosition = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "reader_read_position",
			Help:      "Reader current read position",
		},
	)
)
