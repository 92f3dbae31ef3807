package cache

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// startSpan opens a cache.<operation> span under the request transaction.
// It returns nil when ctx carries no Sentry hub.
func startSpan(ctx context.Context, operation, key string) *sentry.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		return nil
	}

	span := sentry.StartSpan(ctx, "cache."+operation)
	span.Description = key
	span.SetData("cache.key", key)
	return span
}

// finishLookup records whether a read hit before closing the span
func finishLookup(span *sentry.Span, hit bool) {
	if span == nil {
		return
	}
	span.SetData("cache.hit", hit)
	finishSpan(span)
}

func finishSpan(span *sentry.Span) {
	if span == nil {
		return
	}
	span.Status = sentry.SpanStatusOK
	span.Finish()
}
