package model

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"gorm.io/gorm/clause"

	"github.com/fuchsia74/gemini-pool/common"
	"github.com/fuchsia74/gemini-pool/common/config"
	"github.com/fuchsia74/gemini-pool/common/logger"
)

// Option is a single persisted configuration entry. All gateway state the
// admin surface manages lives in this table as short namespaced keys.
type Option struct {
	Key   string `json:"key" gorm:"primaryKey"`
	Value string `json:"value"`
}

const (
	OptionAdminHash      = "AdminPasswordHash"
	OptionTriggerKey     = "TriggerKey"
	OptionPrimaryPool    = "PrimaryPool"
	OptionFallbackKey    = "FallbackKey"
	OptionFallbackModels = "FallbackModels"
	OptionRetryBudget    = "RetryBudget"
	OptionRotationCursor = "RotationCursor"
)

const defaultRetryBudget = 3

var (
	optionMap        = map[string]string{}
	optionMapRWMutex sync.RWMutex

	// rotationCursor is the only cross-request mutable datum on the hot path.
	// The in-memory atomic is authoritative while the process lives; the DB row
	// is refreshed lazily so a restart resumes near the previous position.
	rotationCursor      atomic.Int64
	cursorPersistEvery  = int64(16)
	cursorPersistActive atomic.Bool
)

// InitOptionMap loads all persisted options into the in-memory map and seeds
// first-boot defaults.
func InitOptionMap() {
	var options []Option
	if err := DB.Find(&options).Error; err != nil {
		logger.Logger.Fatal("failed to load options", zap.Error(err))
	}

	optionMapRWMutex.Lock()
	optionMap = make(map[string]string, len(options))
	for _, option := range options {
		optionMap[option.Key] = option.Value
	}
	optionMapRWMutex.Unlock()

	if getOption(OptionRetryBudget) == "" {
		if err := UpdateOption(OptionRetryBudget, strconv.Itoa(defaultRetryBudget)); err != nil {
			logger.Logger.Fatal("failed to seed retry budget", zap.Error(err))
		}
	}
	if getOption(OptionAdminHash) == "" && config.InitialAdminPassword != "" {
		logger.Logger.Info("seeding admin password hash from INITIAL_ADMIN_PASSWORD")
		if err := UpdateOption(OptionAdminHash, common.Password2Hash(config.InitialAdminPassword)); err != nil {
			logger.Logger.Fatal("failed to seed admin password", zap.Error(err))
		}
	}
	if v := getOption(OptionRotationCursor); v != "" {
		if cursor, err := strconv.ParseInt(v, 10, 64); err == nil {
			rotationCursor.Store(cursor)
		}
	}
}

func getOption(key string) string {
	optionMapRWMutex.RLock()
	defer optionMapRWMutex.RUnlock()
	return optionMap[key]
}

// UpdateOption persists a single option and refreshes the in-memory map.
func UpdateOption(key string, value string) error {
	option := Option{Key: key, Value: value}
	err := DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&option).Error
	if err != nil {
		return errors.Wrapf(err, "update option %s", key)
	}
	optionMapRWMutex.Lock()
	optionMap[key] = value
	optionMapRWMutex.Unlock()
	return nil
}

// ---------------------------------------------------------------------------
// Admin password
// ---------------------------------------------------------------------------

func GetAdminHash() string {
	return getOption(OptionAdminHash)
}

func SetAdminHash(hash string) error {
	return UpdateOption(OptionAdminHash, hash)
}

// ---------------------------------------------------------------------------
// Trigger key
// ---------------------------------------------------------------------------

func GetTriggerKey() string {
	return getOption(OptionTriggerKey)
}

// SetTriggerKey stores the shared secret; an empty value clears it, which
// disables pool mode entirely.
func SetTriggerKey(key string) error {
	return UpdateOption(OptionTriggerKey, strings.TrimSpace(key))
}

func IsValidTriggerKey(key string) bool {
	trigger := GetTriggerKey()
	return trigger != "" && key == trigger
}

// ---------------------------------------------------------------------------
// Primary pool
// ---------------------------------------------------------------------------

// GetPrimaryPool returns a copy of the identifier -> credential map.
func GetPrimaryPool() map[string]string {
	pool := map[string]string{}
	raw := getOption(OptionPrimaryPool)
	if raw == "" {
		return pool
	}
	if err := json.Unmarshal([]byte(raw), &pool); err != nil {
		logger.Logger.Error("corrupt primary pool option", zap.Error(err))
		return map[string]string{}
	}
	return pool
}

// PrimaryPoolKeys returns the pool credentials in stable identifier order.
// Rotation correctness depends on every caller observing the same order.
func PrimaryPoolKeys(pool map[string]string) []string {
	ids := make([]string, 0, len(pool))
	for id := range pool {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, pool[id])
	}
	return keys
}

// AddPrimaryEntries merges the given identifier -> credential entries into the
// pool. Values are trimmed; empty identifiers or credentials are rejected.
func AddPrimaryEntries(entries map[string]string) error {
	pool := GetPrimaryPool()
	for id, key := range entries {
		id = strings.TrimSpace(id)
		key = strings.TrimSpace(key)
		if id == "" || key == "" {
			return errors.Errorf("pool entries need both an identifier and a credential")
		}
		pool[id] = key
	}
	return savePrimaryPool(pool)
}

func RemovePrimaryEntry(id string) error {
	pool := GetPrimaryPool()
	if _, ok := pool[id]; !ok {
		return errors.Errorf("no pool entry with id %q", id)
	}
	delete(pool, id)
	return savePrimaryPool(pool)
}

func ClearPrimary() error {
	return savePrimaryPool(map[string]string{})
}

func savePrimaryPool(pool map[string]string) error {
	raw, err := json.Marshal(pool)
	if err != nil {
		return errors.Wrap(err, "marshal primary pool")
	}
	return UpdateOption(OptionPrimaryPool, string(raw))
}

// ---------------------------------------------------------------------------
// Fallback
// ---------------------------------------------------------------------------

func GetFallbackKey() string {
	return getOption(OptionFallbackKey)
}

func SetFallbackKey(key string) error {
	return UpdateOption(OptionFallbackKey, strings.TrimSpace(key))
}

// GetFallbackModelSet returns the models whose requests try the fallback
// credential before the primary pool.
func GetFallbackModelSet() map[string]bool {
	set := map[string]bool{}
	raw := getOption(OptionFallbackModels)
	if raw == "" {
		return set
	}
	var models []string
	if err := json.Unmarshal([]byte(raw), &models); err != nil {
		logger.Logger.Error("corrupt fallback model set option", zap.Error(err))
		return set
	}
	for _, m := range models {
		set[m] = true
	}
	return set
}

func SetFallbackModelSet(models []string) error {
	set := map[string]bool{}
	for _, m := range models {
		if m = strings.TrimSpace(m); m != "" {
			set[m] = true
		}
	}
	return saveFallbackModelSet(set)
}

func AddFallbackModels(models []string) error {
	set := GetFallbackModelSet()
	for _, m := range models {
		if m = strings.TrimSpace(m); m != "" {
			set[m] = true
		}
	}
	return saveFallbackModelSet(set)
}

func ClearFallbackModels() error {
	return saveFallbackModelSet(map[string]bool{})
}

func saveFallbackModelSet(set map[string]bool) error {
	models := make([]string, 0, len(set))
	for m := range set {
		models = append(models, m)
	}
	sort.Strings(models)
	raw, err := json.Marshal(models)
	if err != nil {
		return errors.Wrap(err, "marshal fallback model set")
	}
	return UpdateOption(OptionFallbackModels, string(raw))
}

// ---------------------------------------------------------------------------
// Retry budget
// ---------------------------------------------------------------------------

func GetRetryBudget() int {
	n, err := strconv.Atoi(getOption(OptionRetryBudget))
	if err != nil || n < 1 {
		return defaultRetryBudget
	}
	return n
}

func SetRetryBudget(n int) error {
	if n < 1 {
		return errors.Errorf("retry budget must be at least 1, got %d", n)
	}
	return UpdateOption(OptionRetryBudget, strconv.Itoa(n))
}

// ---------------------------------------------------------------------------
// Rotation cursor
// ---------------------------------------------------------------------------

// RotateCursorAtomic advances the rotation cursor and returns the pool index
// to use for the current allocation. The cursor itself is monotonic; the
// index is the cursor modulo the pool size, so a shrinking pool simply wraps.
// The compare-and-set loop is bounded; under persistent contention it
// degrades to a plain read so allocation keeps making progress instead of
// serializing callers.
func RotateCursorAtomic(poolSize int) (index int, next int64) {
	if poolSize <= 0 {
		return 0, rotationCursor.Load()
	}
	for attempt := 0; attempt < config.RotateCASMaxRetries; attempt++ {
		cursor := rotationCursor.Load()
		if cursor < 0 {
			cursor = 0
		}
		next = cursor + 1
		if rotationCursor.CompareAndSwap(cursor, next) {
			maybePersistCursor(next)
			return int(cursor % int64(poolSize)), next
		}
		time.Sleep(time.Microsecond << attempt)
	}
	// contended: a duplicate allocation is acceptable, a stall is not
	cursor := rotationCursor.Load()
	return int(cursor % int64(poolSize)), cursor
}

func maybePersistCursor(cursor int64) {
	if DB == nil || cursor%cursorPersistEvery != 0 {
		return
	}
	if !cursorPersistActive.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer cursorPersistActive.Store(false)
		if err := UpdateOption(OptionRotationCursor, strconv.FormatInt(cursor, 10)); err != nil {
			logger.Logger.Warn("failed to persist rotation cursor", zap.Error(err))
		}
	}()
}

func persistRotationCursor() {
	if DB == nil {
		return
	}
	if err := UpdateOption(OptionRotationCursor, strconv.FormatInt(rotationCursor.Load(), 10)); err != nil {
		logger.Logger.Warn("failed to persist rotation cursor", zap.Error(err))
	}
}

// ResetRotationCursor is a test hook; production code never rewinds the cursor.
func ResetRotationCursor(v int64) {
	rotationCursor.Store(v)
}
