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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/packetd/streamreader/common"
	"github.com/packetd/streamreader/confengine"
	"github.com/packetd/streamreader/controller"
	"github.com/packetd/streamreader/internal/sigs"
	"github.com/packetd/streamreader/logger"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run streamreader as a long running splitting agent",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := confengine.LoadConfigPath(configPath)
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

		terminate := sigs.Terminate()
		reload := sigs.Reload()
		for {
			select {
			case <-reload:
				cfg, err := confengine.LoadConfigPath(configPath)
				if err != nil {
					logger.Errorf("failed to load config: %v", err)
					continue
				}
				if err := ctr.Reload(cfg); err != nil {
					logger.Errorf("failed to reload controller: %v", err)
					continue
				}
				logger.Infof("controller reloaded")

			case <-ctr.Done():
				// 非 follow 模式下数据源读完即退出
				stop(ctr)
				return

			case <-terminate:
				stop(ctr)
				return
			}
		}
	},
}

func stop(ctr *controller.Controller) {
	if err := ctr.Stop(); err != nil {
		logger.Errorf("failed to stop controller: %v", err)
	}
	if err := ctr.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "split failed: %v\n", err)
		os.Exit(1)
	}
}

var configPath string

func init() {
	agentCmd.Flags().StringVar(&configPath, "config", "streamreader.yaml", "Configuration file path")
	rootCmd.AddCommand(agentCmd)
}
