package connections

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateConsumeOnce(t *testing.T) {
	store := NewStateStore(nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "state-1", "slack"))

	assert.True(t, store.Consume(ctx, "state-1", "slack"))
	assert.False(t, store.Consume(ctx, "state-1", "slack"))
}

func TestStateProviderMismatch(t *testing.T) {
	store := NewStateStore(nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "state-1", "slack"))

	assert.False(t, store.Consume(ctx, "state-1", "zoom"))
}

func TestStateUnknown(t *testing.T) {
	store := NewStateStore(nil, time.Minute)

	assert.False(t, store.Consume(context.Background(), "never-saved", "slack"))
}

func TestStateExpired(t *testing.T) {
	store := NewStateStore(nil, -time.Second)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "state-1", "slack"))

	assert.False(t, store.Consume(ctx, "state-1", "slack"))
}
