package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
	// ByKind groups size by the first key segment, i.e. the upload kind.
	ByKind map[string]int64
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// ListObjects 列出存储桶中 prefix 下的所有对象
func (s *MinioStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, *BucketStats, error) {
	var objects []ObjectInfo
	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("列出对象时出错: %w", object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}
	return objects, Summarize(objects), nil
}

// Summarize 计算对象列表的统计信息
func Summarize(objects []ObjectInfo) *BucketStats {
	stats := &BucketStats{ByKind: make(map[string]int64)}
	for _, obj := range objects {
		stats.TotalObjects++
		stats.TotalSize += obj.Size
		if obj.LastModified.After(stats.LastModified) {
			stats.LastModified = obj.LastModified
		}
		kind := "other"
		if i := strings.IndexByte(obj.Key, '/'); i > 0 {
			kind = obj.Key[:i]
		}
		stats.ByKind[kind] += obj.Size
	}
	return stats
}

// WriteReport 输出存储桶状态报告
func WriteReport(w io.Writer, bucket, prefix string, objects []ObjectInfo, stats *BucketStats) {
	fmt.Fprintf(w, "存储桶: %s\n", bucket)
	fmt.Fprintf(w, "前缀过滤: %s\n", prefix)
	fmt.Fprintf(w, "总文件数: %d\n", stats.TotalObjects)
	fmt.Fprintf(w, "总存储大小: %s\n", FormatSize(stats.TotalSize))
	if !stats.LastModified.IsZero() {
		fmt.Fprintf(w, "最后更新时间: %s\n", stats.LastModified.Format("2006-01-02 15:04:05"))
	}

	kinds := make([]string, 0, len(stats.ByKind))
	for k := range stats.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintln(w, "\n按类型统计:")
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-14s %s\n", k, FormatSize(stats.ByKind[k]))
	}

	fmt.Fprintln(w, "\n文件列表:")
	for _, obj := range objects {
		fmt.Fprintf(w, "  %s (%s, %s)\n", obj.Key, FormatSize(obj.Size), obj.ContentType)
	}
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
