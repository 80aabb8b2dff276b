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
	"net"
	"time"

	"github.com/pkg/errors"
)

// Conn 网络连接数据源
type Conn struct {
	conn    net.Conn
	timeout time.Duration
}

// NewConn 创建并返回 *Conn 实例
//
// timeout 大于 0 时每次 Read 前都会设置读超时 超时以错误的形式返回给调用方
func NewConn(conn net.Conn, timeout time.Duration) *Conn {
	return &Conn{conn: conn, timeout: timeout}
}

// Dial 建立 TCP 连接
func Dial(address string, timeout time.Duration) (*Conn, error) {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "dial (%s)", address)
	}
	return NewConn(conn, timeout), nil
}

// Read 实现 Source 接口
func (c *Conn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.conn.Read(p)
}

// Close 关闭连接
func (c *Conn) Close() error {
	return c.conn.Close()
}
