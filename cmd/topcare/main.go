// topcare 是服务与调试命令行：serve 启动 HTTP 服务，seed 导入商品，browse 翻页浏览 feed，outfit 组装搭配。
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/config"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "topcare",
	Short:         "Top Care Fashion outfit and feed service",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: $TOPCARE_CONFIG or ./topcare.yaml)")
	rootCmd.AddCommand(serveCmd, seedCmd, browseCmd, outfitCmd)
}

// loadConfig 加载配置并初始化全局日志。
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Logging)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
