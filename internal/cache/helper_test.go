package cache

import (
	"context"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSpans(t *testing.T) {
	assert.Nil(t, startSpan(context.Background(), "get", "k"))
	assert.NotPanics(t, func() {
		finishLookup(nil, true)
		finishSpan(nil)
	})

	ctx := sentry.SetHubOnContext(context.Background(), sentry.NewHub(nil, sentry.NewScope()))
	key := GenerateKey(PrefixPlan, "tenant_1", "plan_1")

	span := startSpan(ctx, "get", key)
	require.NotNil(t, span)
	assert.Equal(t, "cache.get", span.Op)
	assert.Equal(t, key, span.Description)

	finishLookup(span, false)
	assert.Equal(t, false, span.Data["cache.hit"])
	assert.Equal(t, key, span.Data["cache.key"])
	assert.Equal(t, sentry.SpanStatusOK, span.Status)
}
