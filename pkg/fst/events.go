package fst

import (
	"context"
	"time"
)

// LookupEvent describes one finished lookup for observers.
type LookupEvent struct {
	Direction string
	Input     string
	Results   int
	Steps     int
	Truncated bool
	CacheHit  bool
	Duration  time.Duration
	Err       error
}

// LifecycleHooks lets callers watch lookups without wrapping the engine.
// Nil entries are skipped. Hooks run synchronously on the lookup
// goroutine and should return quickly.
type LifecycleHooks struct {
	OnLookupStart func(ctx context.Context, direction, input string)
	OnLookupDone  func(ctx context.Context, ev LookupEvent)
}

// Merge returns hooks that invoke h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	switch {
	case h.OnLookupStart == nil:
		merged.OnLookupStart = other.OnLookupStart
	case other.OnLookupStart == nil:
		merged.OnLookupStart = h.OnLookupStart
	default:
		first, second := h.OnLookupStart, other.OnLookupStart
		merged.OnLookupStart = func(ctx context.Context, direction, input string) {
			first(ctx, direction, input)
			second(ctx, direction, input)
		}
	}
	switch {
	case h.OnLookupDone == nil:
		merged.OnLookupDone = other.OnLookupDone
	case other.OnLookupDone == nil:
		merged.OnLookupDone = h.OnLookupDone
	default:
		first, second := h.OnLookupDone, other.OnLookupDone
		merged.OnLookupDone = func(ctx context.Context, ev LookupEvent) {
			first(ctx, ev)
			second(ctx, ev)
		}
	}
	return merged
}
