package cmd

import (
	"context"
	"fmt"

	"ArtistStudio/cache"
	"ArtistStudio/core/auth"
	"ArtistStudio/core/backend"
	"ArtistStudio/core/dashboard"
	"ArtistStudio/core/nav"
	"ArtistStudio/core/notify"
	"ArtistStudio/core/upload"
	"ArtistStudio/db"
	"ArtistStudio/logger"
	"ArtistStudio/metrics"
	"ArtistStudio/model"
	"ArtistStudio/repository"
	"ArtistStudio/server"
	"ArtistStudio/storage"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动工作台 HTTP 服务",
	Long:  `启动工作台的 HTTP API 服务，包括上传授权、导航、艺人资料、数据看板和上传事件 WebSocket。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(ctx context.Context) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.CloseDB()
	if err := db.InitDB(ctx); err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if err := db.ConnectGormDB(cfg); err != nil {
		return fmt.Errorf("connect gorm: %w", err)
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrateModels(&model.UploadRecord{}); err != nil {
		return fmt.Errorf("migrate upload records: %w", err)
	}

	// Connect to Redis
	if err := cache.ConnectRedis(cfg); err != nil {
		return err
	}
	defer cache.CloseRedis()
	logger.Info("[Server] Redis 连接成功", logger.String("addr", cfg.RedisAddr()))

	presigner, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// 导航配置进程启动时加载一次，之后只读；修改后需重启服务
	resolver, err := nav.LoadResolver(cfg.NavConfigPath)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()
	hub := notify.NewHub(cfg.AllowedOrigin)
	go hub.Run()
	defer hub.Stop()

	catalogue := backend.NewClient(cfg.BackendBaseURL, cfg.BackendAPIKey, cfg.BackendTimeout)
	uploads := repository.NewGormUploadRepository(db.GormDB)
	gate := upload.NewGate(presigner, uploads, catalogue, upload.Options{
		MaxBytes:  cfg.UploadMaxBytes,
		URLExpiry: cfg.UploadURLExpiry,
		Notifier:  hub,
		Recorder:  m,
	})
	dash := dashboard.NewService(catalogue, cache.NewJSONCache(cache.RedisClient, "studio:dashboard"), cfg.MetricsTTL, m)

	handler := server.NewAPIHandler(server.Deps{
		Config:    cfg,
		Users:     repository.NewMySQLUserRepository(db.DB),
		Uploads:   uploads,
		Gate:      gate,
		Nav:       resolver,
		Tokens:    auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Sessions:  cache.NewSessionCache(cache.RedisClient),
		Catalogue: catalogue,
		Dashboard: dash,
		Hub:       hub,
		Metrics:   m,
		Ready: func(ctx context.Context) error {
			if err := db.DB.PingContext(ctx); err != nil {
				return fmt.Errorf("mysql: %w", err)
			}
			if err := cache.RedisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
	})

	return server.New(cfg, server.NewRouter(handler)).Run(ctx)
}
