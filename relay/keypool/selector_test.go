package keypool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuchsia74/gemini-pool/model"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		PoolKeys:       []string{"keyA", "keyB", "keyC"},
		FallbackModels: map[string]bool{},
		RetryBudget:    3,
	}
}

func TestSelectorFallbackFirst(t *testing.T) {
	model.ResetRotationCursor(0)
	snapshot := testSnapshot()
	snapshot.FallbackKey = "fallback"
	snapshot.FallbackModels["gemini-exp"] = true

	s := NewSelector(snapshot, "gemini-exp")
	key, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fallback", key)

	// after the fallback attempt the primary pool takes over
	key, err = s.Next(context.Background())
	require.NoError(t, err)
	assert.Contains(t, snapshot.PoolKeys, key)
}

func TestSelectorNoFallbackForOtherModels(t *testing.T) {
	model.ResetRotationCursor(0)
	snapshot := testSnapshot()
	snapshot.FallbackKey = "fallback"
	snapshot.FallbackModels["gemini-exp"] = true

	s := NewSelector(snapshot, "gemini-2.0-flash")
	key, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "fallback", key)
}

func TestSelectorRespectsRetryBudget(t *testing.T) {
	model.ResetRotationCursor(0)
	snapshot := testSnapshot()
	snapshot.RetryBudget = 2

	s := NewSelector(snapshot, "gemini-2.0-flash")
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		key, err := s.Next(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[key], "credential handed out twice")
		seen[key] = true
	}
	_, err := s.Next(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestSelectorNeverRepeatsCredentials(t *testing.T) {
	model.ResetRotationCursor(0)
	snapshot := testSnapshot()
	snapshot.RetryBudget = 10

	s := NewSelector(snapshot, "gemini-2.0-flash")
	seen := map[string]bool{}
	for {
		key, err := s.Next(context.Background())
		if err != nil {
			assert.ErrorIs(t, err, ErrExhausted)
			break
		}
		assert.False(t, seen[key], "credential handed out twice")
		seen[key] = true
	}
	assert.Len(t, seen, len(snapshot.PoolKeys))
}

func TestSelectorRotationAdvancesAcrossRequests(t *testing.T) {
	model.ResetRotationCursor(0)
	snapshot := testSnapshot()

	first := NewSelector(snapshot, "gemini-2.0-flash")
	keyA, err := first.Next(context.Background())
	require.NoError(t, err)

	second := NewSelector(snapshot, "gemini-2.0-flash")
	keyB, err := second.Next(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, keyA, keyB)
}

func TestSelectorEmptyPool(t *testing.T) {
	s := NewSelector(&Snapshot{RetryBudget: 3, FallbackModels: map[string]bool{}}, "gemini-2.0-flash")
	_, err := s.Next(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestSelectorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSelector(testSnapshot(), "gemini-2.0-flash")
	_, err := s.Next(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectorSkipsFallbackDuplicateInPool(t *testing.T) {
	model.ResetRotationCursor(0)
	snapshot := &Snapshot{
		PoolKeys:       []string{"keyA", "keyB"},
		FallbackKey:    "keyA",
		FallbackModels: map[string]bool{"gemini-exp": true},
		RetryBudget:    5,
	}

	s := NewSelector(snapshot, "gemini-exp")
	seen := map[string]bool{}
	for {
		key, err := s.Next(context.Background())
		if err != nil {
			break
		}
		assert.False(t, seen[key], "credential handed out twice")
		seen[key] = true
	}
	assert.Len(t, seen, 2)
}
