package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"ArtistStudio/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChecksum = "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU="

func testRequest() PutRequest {
	return PutRequest{
		Key:            "track/0123456789abcdef0123456789abcdef.mp3",
		ContentType:    "audio/mpeg",
		ContentLength:  2 << 20,
		ChecksumSHA256: testChecksum,
		Expires:        5 * time.Minute,
	}
}

func TestMinioPresignPut(t *testing.T) {
	client, err := NewMinioClient(&config.Config{
		MinioEndpoint:  "127.0.0.1:9000",
		MinioAccessKey: "access",
		MinioSecretKey: "secret-key",
		MinioRegion:    "us-east-1",
	})
	require.NoError(t, err)
	store := newMinioStore(client, "studio-media")
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	out, err := store.PresignPut(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, out.Method)
	assert.Equal(t, fixed.Add(5*time.Minute), out.ExpiresAt)
	assert.Equal(t, "audio/mpeg", out.Headers["Content-Type"])
	assert.Equal(t, "2097152", out.Headers["Content-Length"])

	u, err := url.Parse(out.URL)
	require.NoError(t, err)
	assert.Equal(t, "/studio-media/track/0123456789abcdef0123456789abcdef.mp3", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.Equal(t, testChecksum, out.Headers["X-Amz-Checksum-Sha256"])

	// 类型、长度和校验和都必须参与签名
	signed := strings.Split(u.Query().Get("X-Amz-SignedHeaders"), ";")
	assert.Subset(t, signed, []string{"content-type", "content-length", "x-amz-checksum-sha256"})
}

func TestS3PresignPut(t *testing.T) {
	awsCfg := aws.Config{
		Region:      "eu-west-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}
	store := newS3Store(awsCfg, "studio-media", "http://127.0.0.1:4566", true)

	out, err := store.PresignPut(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, out.Method)
	assert.Equal(t, "audio/mpeg", out.Headers["Content-Type"])
	_, hasHost := out.Headers["Host"]
	assert.False(t, hasHost)

	u, err := url.Parse(out.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.Path, "/studio-media/track/"))
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))

	signed := strings.Split(u.Query().Get("X-Amz-SignedHeaders"), ";")
	assert.Subset(t, signed, []string{"content-type", "content-length"})
	assert.Equal(t, testChecksum, u.Query().Get("X-Amz-Checksum-Sha256"))
}

// objectServer answers HEAD requests for one stored object and 404 for anything else.
func objectServer(t *testing.T, key string, size int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead || r.URL.Path != "/studio-media/"+key {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(size))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMinioStatObject(t *testing.T) {
	srv := objectServer(t, "track/a.mp3", 4096)
	client, err := NewMinioClient(&config.Config{
		MinioEndpoint:  strings.TrimPrefix(srv.URL, "http://"),
		MinioAccessKey: "access",
		MinioSecretKey: "secret-key",
		MinioRegion:    "us-east-1",
	})
	require.NoError(t, err)
	store := newMinioStore(client, "studio-media")

	info, err := store.StatObject(context.Background(), "track/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), info.Size)
	assert.Equal(t, "audio/mpeg", info.ContentType)

	_, err = store.StatObject(context.Background(), "track/missing.mp3")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3StatObject(t *testing.T) {
	srv := objectServer(t, "track/a.mp3", 4096)
	awsCfg := aws.Config{
		Region:      "eu-west-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}
	store := newS3Store(awsCfg, "studio-media", srv.URL, true)

	info, err := store.StatObject(context.Background(), "track/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), info.Size)

	_, err = store.StatObject(context.Background(), "track/missing.mp3")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestPresignRejectsIncompleteRequest(t *testing.T) {
	client, err := NewMinioClient(&config.Config{MinioEndpoint: "127.0.0.1:9000", MinioRegion: "us-east-1"})
	require.NoError(t, err)
	store := newMinioStore(client, "b")

	tests := []struct {
		name   string
		mutate func(*PutRequest)
	}{
		{"empty key", func(r *PutRequest) { r.Key = "" }},
		{"empty content type", func(r *PutRequest) { r.ContentType = "" }},
		{"zero length", func(r *PutRequest) { r.ContentLength = 0 }},
		{"zero expiry", func(r *PutRequest) { r.Expires = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			tt.mutate(&req)
			_, err := store.PresignPut(context.Background(), req)
			assert.Error(t, err)
		})
	}
}

func TestSummarizeAndReport(t *testing.T) {
	newest := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	objects := []ObjectInfo{
		{Key: "track/a.mp3", Size: 3 << 20, LastModified: newest.Add(-time.Hour), ContentType: "audio/mpeg"},
		{Key: "track/b.mp3", Size: 1 << 20, LastModified: newest, ContentType: "audio/mpeg"},
		{Key: "coverArt/c.png", Size: 2048, LastModified: newest.Add(-2 * time.Hour), ContentType: "image/png"},
		{Key: "loose.txt", Size: 10},
	}

	stats := Summarize(objects)
	assert.Equal(t, int64(4), stats.TotalObjects)
	assert.Equal(t, int64(4<<20+2048+10), stats.TotalSize)
	assert.Equal(t, newest, stats.LastModified)
	assert.Equal(t, int64(4<<20), stats.ByKind["track"])
	assert.Equal(t, int64(2048), stats.ByKind["coverArt"])
	assert.Equal(t, int64(10), stats.ByKind["other"])

	var buf bytes.Buffer
	WriteReport(&buf, "studio-media", "", objects, stats)
	assert.Contains(t, buf.String(), "总文件数: 4")
	assert.Contains(t, buf.String(), "track/b.mp3 (1.0 MB, audio/mpeg)")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.0 KB", FormatSize(1024))
	assert.Equal(t, "10.0 MB", FormatSize(10<<20))
}
