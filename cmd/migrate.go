package cmd

import (
	"fmt"

	"ArtistStudio/db"
	"ArtistStudio/logger"
	"ArtistStudio/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "初始化数据库表结构",
	Long:  `创建 users 表并通过 GORM 迁移 upload_records 表。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if err := db.ConnectDB(cfg); err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.CloseDB()
		if err := db.InitDB(cmd.Context()); err != nil {
			return err
		}

		if err := db.ConnectGormDB(cfg); err != nil {
			return fmt.Errorf("connect gorm: %w", err)
		}
		defer db.CloseGormDB()
		if err := db.AutoMigrateModels(&model.UploadRecord{}); err != nil {
			return err
		}
		fmt.Println("数据库迁移完成")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
