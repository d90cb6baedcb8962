package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	s := NewMemoryObjectStorage()
	ctx := context.Background()
	key := "audit/store/20260301_20260401.jsonl"

	exists, err := s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	payload := []byte("{\"action\":\"created\"}\n")
	require.NoError(t, s.Upload(ctx, key, payload, "application/x-ndjson"))
	payload[0] = 'X'

	data, contentType, ok := s.Object(key)
	require.True(t, ok)
	assert.Equal(t, "{\"action\":\"created\"}\n", string(data))
	assert.Equal(t, "application/x-ndjson", contentType)

	exists, err = s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	url, expiresAt, err := s.GenerateDownloadURL(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "memory://exports/"+key)
	assert.True(t, expiresAt.After(time.Now()))

	t.Run("empty key", func(t *testing.T) {
		assert.Error(t, s.Upload(ctx, "", nil, ""))
		_, err := s.ObjectExists(ctx, "")
		assert.Error(t, err)
		_, _, err = s.GenerateDownloadURL(ctx, "", time.Minute)
		assert.Error(t, err)
	})
}
