package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"ArtistStudio/core/nav"
	"ArtistStudio/logger"
	"ArtistStudio/model"

	"github.com/spf13/cobra"
)

var (
	navRole  string
	navFile  string
	navWatch bool
)

var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "查看某个角色可见的导航",
	Long:  `加载导航配置（默认使用内置导航），输出指定角色可见的导航树。使用 --watch 时配置文件变化会重新输出。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := model.ParseRole(navRole)
		if !ok {
			return fmt.Errorf("unknown role %q", navRole)
		}
		resolver, err := nav.LoadResolver(navFile)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := printNav(out, resolver, role); err != nil {
			return err
		}
		if !navWatch {
			return nil
		}
		if navFile == "" {
			return fmt.Errorf("--watch requires --file")
		}
		// 重载失败只记录日志，不需要完整的服务配置
		logger.InitLogger(logger.Config{Level: logger.InfoLevel})
		return nav.Watch(cmd.Context(), navFile, nav.NewHolder(resolver), func(r *nav.Resolver) {
			if err := printNav(out, r, role); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		})
	},
}

func printNav(w io.Writer, r *nav.Resolver, role model.Role) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"role":     role,
		"prefixes": r.Prefixes(role),
		"routes":   r.Resolve(role),
	})
}

func init() {
	rootCmd.AddCommand(navCmd)
	navCmd.Flags().StringVarP(&navRole, "role", "r", "user", "角色: admin, artist, label, user")
	navCmd.Flags().StringVarP(&navFile, "file", "f", "", "导航 YAML 文件，为空则使用内置导航")
	navCmd.Flags().BoolVarP(&navWatch, "watch", "w", false, "监听文件变化并重新输出")

	navCmd.Example = `  # 查看 label 角色的内置导航
  studio nav -r label

  # 编辑导航文件时实时预览
  studio nav -r artist -f nav.yaml -w`
}
