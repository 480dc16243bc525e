package controller_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/fuchsia74/gemini-pool/common/config"
	"github.com/fuchsia74/gemini-pool/middleware"
	"github.com/fuchsia74/gemini-pool/model"
	"github.com/fuchsia74/gemini-pool/router"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	dir, err := os.MkdirTemp("", "gemini-pool-test-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	config.SQLitePath = filepath.Join(dir, "test.db")
	model.InitDB()
	model.InitOptionMap()

	code := m.Run()
	_ = model.CloseDB()
	os.Exit(code)
}

func newTestServer() *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestId())
	router.SetRouter(engine)
	return engine
}

const upstreamChatResponse = `{
	"candidates": [{
		"content": {"role": "model", "parts": [{"text": "hello"}]},
		"finishReason": "STOP",
		"index": 0
	}],
	"usageMetadata": {"promptTokenCount": 2, "candidatesTokenCount": 1, "totalTokenCount": 3}
}`

func postChat(engine *gin.Engine, key string) *httptest.ResponseRecorder {
	body := `{"model":"gemini-2.0-flash","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest("POST", "/api/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRelayMissingCredential(t *testing.T) {
	engine := newTestServer()
	w := postChat(engine, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHENTICATED")
}

func TestRelayUnknownRoute(t *testing.T) {
	engine := newTestServer()
	req := httptest.NewRequest("POST", "/api/v1/audio/transcriptions", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer sk-whatever")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRelayPassthroughUsesPresentedKey(t *testing.T) {
	var sawKey atomic.Value
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawKey.Store(r.Header.Get("x-goog-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstreamChatResponse))
	}))
	defer upstream.Close()
	config.UpstreamBaseURL = upstream.URL

	require.NoError(t, model.SetTriggerKey("sk-pool-trigger"))

	engine := newTestServer()
	w := postChat(engine, "sk-users-own-key")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "sk-users-own-key", sawKey.Load())
	assert.Equal(t, "chat.completion", gjson.Get(w.Body.String(), "object").String())
	assert.Equal(t, "hello", gjson.Get(w.Body.String(), "choices.0.message.content").String())
	assert.Equal(t, "stop", gjson.Get(w.Body.String(), "choices.0.finish_reason").String())
	assert.Equal(t, int64(3), gjson.Get(w.Body.String(), "usage.total_tokens").Int())
}

func TestRelayPoolRetriesUntilSuccess(t *testing.T) {
	var attempts atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		if r.Header.Get("x-goog-api-key") != "credC" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","status":"INTERNAL"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstreamChatResponse))
	}))
	defer upstream.Close()
	config.UpstreamBaseURL = upstream.URL

	require.NoError(t, model.SetTriggerKey("sk-pool-trigger"))
	require.NoError(t, model.ClearPrimary())
	require.NoError(t, model.AddPrimaryEntries(map[string]string{
		"a": "credA", "b": "credB", "c": "credC",
	}))
	require.NoError(t, model.SetRetryBudget(3))
	model.ResetRotationCursor(0)

	engine := newTestServer()
	w := postChat(engine, "sk-pool-trigger")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(3), attempts.Load())
	assert.Equal(t, "hello", gjson.Get(w.Body.String(), "choices.0.message.content").String())
}

func TestRelayPoolExhaustionReturns503WithLastError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer upstream.Close()
	config.UpstreamBaseURL = upstream.URL

	require.NoError(t, model.SetTriggerKey("sk-pool-trigger"))
	require.NoError(t, model.ClearPrimary())
	require.NoError(t, model.AddPrimaryEntries(map[string]string{"a": "credA", "b": "credB"}))
	require.NoError(t, model.SetRetryBudget(3))
	model.ResetRotationCursor(0)

	engine := newTestServer()
	w := postChat(engine, "sk-pool-trigger")

	// exhaustion answers 503 but keeps the last upstream error body
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "quota exceeded")
}

func TestRelayPoolEmptyReturns503(t *testing.T) {
	require.NoError(t, model.SetTriggerKey("sk-pool-trigger"))
	require.NoError(t, model.ClearPrimary())
	require.NoError(t, model.SetFallbackKey(""))

	engine := newTestServer()
	w := postChat(engine, "sk-pool-trigger")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "no available credentials")
}

func TestRelayFallbackKeyTriedFirst(t *testing.T) {
	var keys []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("x-goog-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstreamChatResponse))
	}))
	defer upstream.Close()
	config.UpstreamBaseURL = upstream.URL

	require.NoError(t, model.SetTriggerKey("sk-pool-trigger"))
	require.NoError(t, model.ClearPrimary())
	require.NoError(t, model.AddPrimaryEntries(map[string]string{"a": "credA"}))
	require.NoError(t, model.SetFallbackKey("fallback-cred"))
	require.NoError(t, model.SetFallbackModelSet([]string{"gemini-exp"}))
	defer func() {
		_ = model.SetFallbackKey("")
		_ = model.ClearFallbackModels()
	}()

	engine := newTestServer()
	body := `{"model":"gemini-exp","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest("POST", "/api/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer sk-pool-trigger")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotEmpty(t, keys)
	assert.Equal(t, "fallback-cred", keys[0])
}

func TestAdminAuthGuardsConfigSurface(t *testing.T) {
	engine := newTestServer()

	req := httptest.NewRequest("GET", "/api/admin/config", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	// no admin password configured yet
	assert.Equal(t, http.StatusForbidden, w.Code)
}
