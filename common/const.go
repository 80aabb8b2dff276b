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

package common

const (
	// App 应用程序名称
	App = "streamreader"

	// Version 应用程序版本
	Version = "v0.0.1"

	// ReadWriteBlockSize 默认的缓冲区长度以及扩容步长
	//
	// 与文件系统的页大小保持一致 大多数记录 (如日志行) 单次读取即可完整命中分隔符
	// 超出的记录会按照步长扩容 记录读完后缓冲区会收缩回该长度
	ReadWriteBlockSize = 4096

	// RecordQueueSize 读取协程与导出协程之间的队列长度
	RecordQueueSize = 1024
)
