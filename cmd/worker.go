package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"ArtistStudio/config"
	"ArtistStudio/db"
	"ArtistStudio/jobs"
	"ArtistStudio/logger"
	"ArtistStudio/metrics"
	"ArtistStudio/model"
	"ArtistStudio/repository"
	"ArtistStudio/storage"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
)

var (
	workerOnce        bool
	workerEnqueue     bool
	workerMetricsAddr string
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "启动后台任务 worker",
	Long:  `启动 Asynq worker，按计划清理过期未确认的上传记录及其对象。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		redisOpts := asynqRedisOpts(cfg)
		if workerEnqueue {
			client := jobs.NewClient(redisOpts)
			defer client.Close()
			info, err := client.EnqueueSweep(ctx, jobs.SweepPayload{})
			if err != nil {
				return fmt.Errorf("enqueue sweep: %w", err)
			}
			fmt.Printf("已提交清理任务: %s (queue %s)\n", info.ID, info.Queue)
			return nil
		}

		if err := db.ConnectGormDB(cfg); err != nil {
			return fmt.Errorf("connect gorm: %w", err)
		}
		defer db.CloseGormDB()
		if err := db.AutoMigrateModels(&model.UploadRecord{}); err != nil {
			return fmt.Errorf("migrate upload records: %w", err)
		}
		presigner, err := storage.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}

		m := metrics.NewMetrics()
		sweep := jobs.NewSweepJob(repository.NewGormUploadRepository(db.GormDB), presigner, cfg.UploadStaleAfter, m)

		if workerOnce {
			res, err := sweep.Sweep(ctx, cfg.UploadStaleAfter, 0)
			if err != nil {
				return err
			}
			fmt.Printf("清理完成: 删除 %d, 失败 %d, 对象删除失败 %d\n", res.Deleted, res.Failed, res.ObjectsFailed)
			return nil
		}

		if workerMetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			srv := &http.Server{Addr: workerMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("[Worker] metrics 服务异常退出", logger.ErrorField(err))
				}
			}()
			defer srv.Close()
		}

		task, err := jobs.NewSweepTask(jobs.SweepPayload{})
		if err != nil {
			return err
		}
		worker, err := jobs.NewWorker(jobs.WorkerConfig{
			RedisOpts: redisOpts,
			Handlers:  []jobs.TaskHandler{{Type: jobs.TaskUploadsSweep, Handler: sweep.Handle}},
			Cron:      []jobs.CronRegistration{{Spec: cfg.SweepSchedule, Task: task}},
		})
		if err != nil {
			return fmt.Errorf("init worker: %w", err)
		}
		logger.Info("[Worker] 启动", logger.String("schedule", cfg.SweepSchedule), logger.Duration("staleAfter", cfg.UploadStaleAfter))
		if err := worker.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
			return err
		}
		return nil
	},
}

func asynqRedisOpts(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "立即执行一次清理后退出")
	workerCmd.Flags().BoolVar(&workerEnqueue, "enqueue", false, "向队列提交一次清理任务后退出")
	workerCmd.Flags().StringVar(&workerMetricsAddr, "metrics-addr", "", "暴露 /metrics 的监听地址，为空则不启动")
}
