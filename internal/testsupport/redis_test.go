package testsupport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestRedis_CleanDatabase(t *testing.T) {
	client := NewTestRedis(t)
	ctx := context.Background()

	size, err := client.DBSize(ctx).Result()
	require.NoError(t, err)
	assert.Zero(t, size)

	require.NoError(t, client.Set(ctx, "integration-key", "value", 0).Err())

	val, err := client.Get(ctx, "integration-key").Result()
	require.NoError(t, err)
	assert.Equal(t, "value", val)
}
