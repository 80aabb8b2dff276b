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

package confengine

import (
	"fmt"
	"os"

	"github.com/elastic/go-ucfg"
	"github.com/elastic/go-ucfg/yaml"
	"github.com/pkg/errors"
)

var ucfgOpts = []ucfg.Option{ucfg.PathSep("."), ucfg.VarExp, ucfg.ResolveEnv}

// Config 对 *ucfg.Config 的简单封装 字段标签统一使用 `config`
type Config struct {
	conf *ucfg.Config
}

func New(conf *ucfg.Config) *Config {
	return &Config{conf: conf}
}

func (c *Config) Has(s string) bool {
	ok, err := c.conf.Has(s, -1, ucfgOpts...)
	if err != nil {
		return false
	}
	return ok
}

func (c *Config) Child(s string) (*Config, error) {
	content, err := c.conf.Child(s, -1, ucfgOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "confengine: child (%s)", s)
	}
	return &Config{conf: content}, nil
}

func (c *Config) Unpack(to any) error {
	return c.conf.Unpack(to, ucfgOpts...)
}

func (c *Config) Enabled(s string) bool {
	ok, err := c.conf.Bool(fmt.Sprintf("%s.enabled", s), -1, ucfgOpts...)
	if err != nil {
		return false
	}
	return ok
}

// UnpackChild 将 s 节点解析到 to 中
//
// 节点不存在或者为空时保留 to 原有的值 (即默认值)
func (c *Config) UnpackChild(s string, to any) error {
	if !c.Has(s) {
		return nil
	}
	content, err := c.conf.Child(s, -1, ucfgOpts...)
	if err != nil {
		// 空节点 (如 `server:`) 不是 object 类型
		return nil
	}
	if err := content.Unpack(to, ucfgOpts...); err != nil {
		return errors.Wrapf(err, "confengine: unpack (%s)", s)
	}
	return nil
}

func LoadConfigPath(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "confengine: stat config")
	}
	config, err := yaml.NewConfigWithFile(path, ucfgOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "confengine: load (%s)", path)
	}
	return New(config), nil
}

func LoadContent(b []byte) (*Config, error) {
	config, err := yaml.NewConfig(b, ucfgOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "confengine: load content")
	}
	return New(config), nil
}
