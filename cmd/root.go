package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ArtistStudio/config"
	"ArtistStudio/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "ArtistStudio is the creator studio backend.",
	Long:  `ArtistStudio 创作者工作台后端：角色导航、直传上传授权、艺人资料和数据看板。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 默认启动 HTTP 服务
		return runServer(cmd.Context())
	},
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// bootstrap loads configuration and initialises the global logger.
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.InitLogger(logger.Config{
		Level:       logger.LogLevel(cfg.LogLevel),
		OutputPath:  cfg.LogFile,
		MaxSize:     cfg.LogMaxSize,
		MaxBackups:  cfg.LogMaxBackups,
		MaxAge:      cfg.LogMaxAge,
		Compress:    cfg.LogCompress,
		Development: !cfg.IsProduction(),
	})
	return cfg, nil
}
