package testutil

import (
	"context"
	"time"

	"registrar/pkg/requestcontext"
)

// FixedTime is the clock used by service tests.
var FixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Context returns a background context pinned to FixedTime.
func Context() context.Context {
	return requestcontext.WithTime(context.Background(), FixedTime)
}

// ContextAt returns a background context pinned to t.
func ContextAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}
