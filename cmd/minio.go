package cmd

import (
	"fmt"

	"ArtistStudio/storage"

	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶检查",
	Long:  `列出存储桶中的上传对象，并按上传类型汇总文件数和大小。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewMinioStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}
		objects, stats, err := store.ListObjects(cmd.Context(), minioPrefix)
		if err != nil {
			return err
		}
		storage.WriteReport(cmd.OutOrStdout(), cfg.MinioBucket, minioPrefix, objects, stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件，例如 track/")

	minioCmd.Example = `  # 汇总所有上传对象
  studio minio

  # 只看音轨
  studio minio -p "track/"`
}
