package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuchsia74/gemini-pool/common/config"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "gemini-pool-test-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	config.SQLitePath = filepath.Join(dir, "test.db")
	InitDB()
	InitOptionMap()

	code := m.Run()
	_ = CloseDB()
	os.Exit(code)
}

func TestUpdateOptionRoundTrip(t *testing.T) {
	require.NoError(t, UpdateOption("test_key", "test_value"))
	assert.Equal(t, "test_value", getOption("test_key"))

	// persisted rows survive a map reload
	InitOptionMap()
	assert.Equal(t, "test_value", getOption("test_key"))
}

func TestTriggerKey(t *testing.T) {
	require.NoError(t, SetTriggerKey("  sk-pool-secret  "))
	assert.Equal(t, "sk-pool-secret", GetTriggerKey())
	assert.True(t, IsValidTriggerKey("sk-pool-secret"))
	assert.False(t, IsValidTriggerKey("sk-other"))

	// an empty trigger key disables pool mode, it never matches anything
	require.NoError(t, SetTriggerKey(""))
	assert.False(t, IsValidTriggerKey(""))
}

func TestPrimaryPoolCRUD(t *testing.T) {
	require.NoError(t, ClearPrimary())
	require.NoError(t, AddPrimaryEntries(map[string]string{
		"b-key": "credB",
		"a-key": "credA",
		"c-key": "credC",
	}))

	pool := GetPrimaryPool()
	assert.Len(t, pool, 3)

	// rotation correctness depends on a stable identifier order
	keys := PrimaryPoolKeys(pool)
	assert.Equal(t, []string{"credA", "credB", "credC"}, keys)

	require.NoError(t, RemovePrimaryEntry("b-key"))
	assert.Equal(t, []string{"credA", "credC"}, PrimaryPoolKeys(GetPrimaryPool()))
	assert.Error(t, RemovePrimaryEntry("b-key"))

	require.NoError(t, ClearPrimary())
	assert.Empty(t, GetPrimaryPool())
}

func TestPrimaryPoolRejectsEmptyEntries(t *testing.T) {
	assert.Error(t, AddPrimaryEntries(map[string]string{"": "cred"}))
	assert.Error(t, AddPrimaryEntries(map[string]string{"id": "  "}))
}

func TestFallbackModelSet(t *testing.T) {
	require.NoError(t, SetFallbackModelSet([]string{"gemini-exp", "  gemini-exp  ", "gemini-preview"}))
	set := GetFallbackModelSet()
	assert.Len(t, set, 2)
	assert.True(t, set["gemini-exp"])
	assert.True(t, set["gemini-preview"])

	require.NoError(t, AddFallbackModels([]string{"gemini-thinking"}))
	assert.Len(t, GetFallbackModelSet(), 3)

	require.NoError(t, ClearFallbackModels())
	assert.Empty(t, GetFallbackModelSet())
}

func TestRetryBudget(t *testing.T) {
	require.NoError(t, SetRetryBudget(5))
	assert.Equal(t, 5, GetRetryBudget())
	assert.Error(t, SetRetryBudget(0))
	assert.Error(t, SetRetryBudget(-1))
	require.NoError(t, SetRetryBudget(defaultRetryBudget))
}

func TestRotateCursorAtomic(t *testing.T) {
	ResetRotationCursor(0)

	var indices []int
	for i := 0; i < 5; i++ {
		index, _ := RotateCursorAtomic(3)
		indices = append(indices, index)
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1}, indices)

	// the cursor is monotonic, it wraps via modulo instead of resetting
	_, next := RotateCursorAtomic(3)
	assert.Equal(t, int64(6), next)
}

func TestRotateCursorAtomicEmptyPool(t *testing.T) {
	index, _ := RotateCursorAtomic(0)
	assert.Zero(t, index)
}

func TestRotateCursorAtomicConcurrent(t *testing.T) {
	ResetRotationCursor(0)

	const workers = 50
	done := make(chan int, workers)
	for i := 0; i < workers; i++ {
		go func() {
			index, _ := RotateCursorAtomic(4)
			done <- index
		}()
	}
	for i := 0; i < workers; i++ {
		index := <-done
		assert.GreaterOrEqual(t, index, 0)
		assert.Less(t, index, 4)
	}
}
