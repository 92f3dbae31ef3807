package cache

import (
	"context"
	"testing"
	"time"

	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(config.GetDefaultConfig(), logger.NewNoopLogger())

	key := GenerateKey(PrefixPlan, "tenant_1", "plan_1")
	assert.Equal(t, "plan:v1::tenant_1:plan_1", key)

	c.Set(ctx, key, "value", 0)
	got, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, "value", got)

	c.Set(ctx, GenerateKey(PrefixPlan, "tenant_1", "plan_2"), "other", time.Minute)
	c.Set(ctx, GenerateKey(PrefixPlan, "tenant_2", "plan_1"), "kept", time.Minute)
	c.DeleteByPrefix(ctx, GenerateKey(PrefixPlan, "tenant_1"))

	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixPlan, "tenant_2", "plan_1"))
	assert.True(t, ok)

	c.Delete(ctx, GenerateKey(PrefixPlan, "tenant_2", "plan_1"))
	_, ok = c.Get(ctx, GenerateKey(PrefixPlan, "tenant_2", "plan_1"))
	assert.False(t, ok)
}

func TestInMemoryCache_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = false
	c := NewInMemoryCache(cfg, logger.NewNoopLogger())

	c.Set(ctx, "k", "v", time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
