// Package keypool allocates upstream credentials for pool-mode requests. A
// request takes a config snapshot once, then draws candidates from it: the
// fallback credential first when the model calls for it, then the primary
// pool in rotation order.
package keypool

import (
	"context"

	"github.com/Laisky/errors/v2"

	"github.com/fuchsia74/gemini-pool/model"
)

// Snapshot is the pool configuration captured at request admission. Later
// admin updates do not affect an in-flight request.
type Snapshot struct {
	PoolKeys       []string
	FallbackKey    string
	FallbackModels map[string]bool
	RetryBudget    int
}

// TakeSnapshot captures the current pool configuration.
func TakeSnapshot() *Snapshot {
	return &Snapshot{
		PoolKeys:       model.PrimaryPoolKeys(model.GetPrimaryPool()),
		FallbackKey:    model.GetFallbackKey(),
		FallbackModels: model.GetFallbackModelSet(),
		RetryBudget:    model.GetRetryBudget(),
	}
}

// Selector hands out candidate credentials for one request. It is not safe
// for concurrent use; each request owns its own selector.
type Selector struct {
	snapshot     *Snapshot
	useFallback  bool
	fallbackDone bool
	tried        map[string]bool
	poolTried    int
}

// NewSelector builds a selector for one request against the given model.
func NewSelector(snapshot *Snapshot, modelName string) *Selector {
	return &Selector{
		snapshot:    snapshot,
		useFallback: snapshot.FallbackKey != "" && snapshot.FallbackModels[modelName],
		tried:       map[string]bool{},
	}
}

// Next returns the next candidate credential, or ErrExhausted when the
// request has used up its fallback attempt plus the retry budget of distinct
// pool credentials. Context cancellation aborts allocation immediately.
func (s *Selector) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "credential allocation canceled")
	}

	if s.useFallback && !s.fallbackDone {
		s.fallbackDone = true
		s.tried[s.snapshot.FallbackKey] = true
		return s.snapshot.FallbackKey, nil
	}

	poolSize := len(s.snapshot.PoolKeys)
	if poolSize == 0 {
		return "", ErrExhausted
	}

	// allocations may land on already-tried credentials under contention;
	// bound the walk by the pool size so it always terminates
	for attempt := 0; attempt < poolSize; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", errors.Wrap(err, "credential allocation canceled")
		}
		if s.poolTried >= s.snapshot.RetryBudget {
			return "", ErrExhausted
		}
		index, _ := model.RotateCursorAtomic(poolSize)
		key := s.snapshot.PoolKeys[index]
		if s.tried[key] {
			continue
		}
		s.tried[key] = true
		s.poolTried++
		return key, nil
	}
	return "", ErrExhausted
}

// Tried reports how many distinct credentials have been handed out.
func (s *Selector) Tried() int {
	return len(s.tried)
}

// ErrExhausted signals that no further candidate credential is available for
// this request.
var ErrExhausted = errors.New("credential pool exhausted")
