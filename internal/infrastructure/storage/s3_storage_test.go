package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erp/layaway/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeS3 answers the path-style bucket and object calls the export store makes
type fakeS3 struct {
	mu       sync.Mutex
	buckets  map[string]bool
	objects  map[string][]byte
	declared map[string]int64
	types    map[string]string
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{
		buckets:  map[string]bool{},
		objects:  map[string][]byte{},
		declared: map[string]int64{},
		types:    map[string]string{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")

	switch {
	case key == "" && r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case key == "" && r.Method == http.MethodPut:
		f.buckets[bucket] = true
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		declared := r.ContentLength
		if decoded := r.Header.Get("X-Amz-Decoded-Content-Length"); decoded != "" {
			declared, _ = strconv.ParseInt(decoded, 10, 64)
		}
		f.objects[path] = body
		f.declared[path] = declared
		f.types[path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
	case r.Method == http.MethodHead:
		if _, ok := f.objects[path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func testStorageConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:       "exports",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     endpoint,
		UsePathStyle: true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.StorageConfig
		want string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, "bucket is required"},
		{"missing access key", &config.StorageConfig{Bucket: "b", SecretKey: "s"}, "access key is required"},
		{"missing secret key", &config.StorageConfig{Bucket: "b", AccessKey: "k"}, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3ObjectStorage(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewS3ObjectStorage_EndpointScheme(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
		prefix   string
	}{
		{"default endpoint", "", false, "http://localhost:9000/exports/"},
		{"bare host without ssl", "minio:9000", false, "http://minio:9000/exports/"},
		{"bare host with ssl", "minio:9000", true, "https://minio:9000/exports/"},
		{"explicit scheme kept", "https://s3.example.com", false, "https://s3.example.com/exports/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testStorageConfig(tt.endpoint)
			cfg.UseSSL = tt.useSSL
			s, err := NewS3ObjectStorage(cfg)
			require.NoError(t, err)

			url, _, err := s.GenerateDownloadURL(context.Background(), "audit/store/a.jsonl", time.Minute)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(url, tt.prefix), url)
		})
	}
}

func TestS3ObjectStorage_PresignExpiration(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, s.presignExpiration)
	assert.Equal(t, "exports", s.GetBucket())

	url, expiresAt, err := s.GenerateDownloadURL(context.Background(), "audit/store/a.jsonl", 0)
	require.NoError(t, err)
	assert.Contains(t, url, "X-Amz-Expires=900")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	custom, err := NewS3ObjectStorage(testStorageConfig("http://localhost:9000"), WithPresignExpiration(time.Hour))
	require.NoError(t, err)
	url, _, err = custom.GenerateDownloadURL(context.Background(), "audit/store/a.jsonl", 0)
	require.NoError(t, err)
	assert.Contains(t, url, "X-Amz-Expires=3600")
}

func TestS3ObjectStorage_RequiresKey(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = s.GenerateDownloadURL(ctx, "", time.Minute)
	assert.ErrorContains(t, err, "storage key is required")
	_, err = s.ObjectExists(ctx, "")
	assert.ErrorContains(t, err, "storage key is required")
	assert.ErrorContains(t, s.Upload(ctx, "", []byte("x"), "text/plain"), "storage key is required")
}

func TestS3ObjectStorage_UploadDeclaresLengthAndLogs(t *testing.T) {
	fake, srv := newFakeS3(t)
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := NewS3ObjectStorage(testStorageConfig(srv.URL), WithLogger(zap.New(core)))
	require.NoError(t, err)
	ctx := context.Background()

	key := "audit/store-1/20260301_20260401.jsonl"
	payload := []byte("{\"action\":\"created\"}\n{\"action\":\"payment_applied\"}\n")
	require.NoError(t, s.Upload(ctx, key, payload, "application/x-ndjson"))

	fake.mu.Lock()
	assert.Equal(t, int64(len(payload)), fake.declared["exports/"+key])
	assert.Contains(t, string(fake.objects["exports/"+key]), string(payload))
	assert.Equal(t, "application/x-ndjson", fake.types["exports/"+key])
	fake.mu.Unlock()

	uploaded := logs.FilterMessage("object uploaded").All()
	require.Len(t, uploaded, 1)
	assert.Equal(t, zapcore.DebugLevel, uploaded[0].Level)
	fields := uploaded[0].ContextMap()
	assert.Equal(t, "exports", fields["bucket"])
	assert.Equal(t, key, fields["key"])
	assert.Equal(t, int64(len(payload)), fields["bytes"])

	exists, err := s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	missing, err := s.ObjectExists(ctx, "audit/store-1/missing.jsonl")
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestS3ObjectStorage_EnsureBucketCreatesOnce(t *testing.T) {
	fake, srv := newFakeS3(t)
	core, logs := observer.New(zapcore.InfoLevel)
	s, err := NewS3ObjectStorage(testStorageConfig(srv.URL), WithLogger(zap.New(core)))
	require.NoError(t, err)

	require.NoError(t, s.EnsureBucket(context.Background()))
	require.NoError(t, s.EnsureBucket(context.Background()))

	fake.mu.Lock()
	assert.True(t, fake.buckets["exports"])
	fake.mu.Unlock()
	assert.Equal(t, 1, logs.FilterMessage("storage bucket created").Len())
}

// TestIntegration_UploadAndDownload runs against a real S3-compatible server when
// STORAGE_ENDPOINT is set
func TestIntegration_UploadAndDownload(t *testing.T) {
	endpoint := os.Getenv("STORAGE_ENDPOINT")
	if endpoint == "" {
		t.Skip("STORAGE_ENDPOINT not set")
	}
	cfg := &config.StorageConfig{
		Bucket:       "test-integration",
		AccessKey:    os.Getenv("STORAGE_ACCESS_KEY"),
		SecretKey:    os.Getenv("STORAGE_SECRET_KEY"),
		Endpoint:     endpoint,
		UsePathStyle: true,
	}
	s, err := NewS3ObjectStorage(cfg)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.EnsureBucket(ctx))

	key := "audit/integration/20260301_20260401.jsonl"
	require.NoError(t, s.Upload(ctx, key, []byte("{\"action\":\"created\"}\n"), "application/x-ndjson"))

	exists, err := s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	url, _, err := s.GenerateDownloadURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "20260301_20260401.jsonl")
}
