package controller

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/common"
	"github.com/fuchsia74/gemini-pool/common/ctxkey"
	"github.com/fuchsia74/gemini-pool/common/helper"
	"github.com/fuchsia74/gemini-pool/monitor"
	"github.com/fuchsia74/gemini-pool/relay/adaptor/gemini"
	rcontroller "github.com/fuchsia74/gemini-pool/relay/controller"
	"github.com/fuchsia74/gemini-pool/relay/keypool"
	relaymodel "github.com/fuchsia74/gemini-pool/relay/model"
	"github.com/fuchsia74/gemini-pool/relay/relaymode"
)

func relayHelper(c *gin.Context, relayMode int) *relaymodel.ErrorWithStatusCode {
	switch relayMode {
	case relaymode.ChatCompletions:
		return rcontroller.RelayTextHelper(c)
	case relaymode.Embeddings:
		return rcontroller.RelayEmbeddingsHelper(c)
	case relaymode.ImagesGenerations:
		return rcontroller.RelayImageHelper(c)
	case relaymode.ModelList:
		return rcontroller.RelayModelsHelper(c)
	case relaymode.Native:
		return rcontroller.RelayNativeHelper(c)
	default:
		return gemini.ErrorWrapper(errors.New("route not found"),
			"route_not_found", http.StatusNotFound)
	}
}

// Relay runs the retry loop around per-mode helpers. Passthrough requests get
// exactly one attempt under the caller's own credential; pool requests walk
// the credential pool until one attempt succeeds or the selector is
// exhausted. Exhaustion answers 503 while keeping the last upstream error
// body for diagnosis.
func Relay(c *gin.Context) {
	lg := gmw.GetLogger(c)
	relayMode := c.GetInt(ctxkey.RelayMode)
	startTime := time.Now()
	monitor.RelayStarted()

	lg.Debug("incoming relay request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("relay_mode", relayMode),
		zap.Bool("pool_mode", c.GetBool(ctxkey.PoolMode)),
		zap.String("model", c.GetString(ctxkey.RequestModel)))

	if !c.GetBool(ctxkey.PoolMode) {
		c.Set(ctxkey.UpstreamKey, c.GetString(ctxkey.PresentedKey))
		monitor.RecordAttempt("passthrough")
		bizErr := relayHelper(c, relayMode)
		monitor.RelayFinished(relayMode, startTime, bizErr == nil)
		if bizErr != nil {
			writeRelayError(c, bizErr)
		}
		return
	}

	snapshot, ok := c.MustGet(ctxkey.Snapshot).(*keypool.Snapshot)
	if !ok {
		monitor.RelayFinished(relayMode, startTime, false)
		writeRelayError(c, gemini.ErrorWrapper(errors.New("missing config snapshot"),
			"internal_error", http.StatusInternalServerError))
		return
	}
	selector := keypool.NewSelector(snapshot, c.GetString(ctxkey.RequestModel))

	var lastErr *relaymodel.ErrorWithStatusCode
	exhausted := false
	for {
		key, err := selector.Next(gmw.Ctx(c))
		if err != nil {
			if errors.Is(err, keypool.ErrExhausted) {
				exhausted = true
			} else {
				lg.Warn("credential allocation aborted", zap.Error(err))
			}
			break
		}
		source := "pool"
		if key == snapshot.FallbackKey {
			source = "fallback"
		}
		monitor.RecordAttempt(source)
		c.Set(ctxkey.UpstreamKey, key)
		if err := rewindRequestBody(c); err != nil {
			lastErr = gemini.ErrorWrapper(err, "rewind_request_body_failed", http.StatusInternalServerError)
			break
		}

		bizErr := relayHelper(c, relayMode)
		if bizErr == nil {
			monitor.RelayFinished(relayMode, startTime, true)
			return
		}
		lastErr = bizErr
		lg.Warn("relay attempt failed",
			zap.Int("status_code", bizErr.StatusCode),
			zap.Int("tried", selector.Tried()))
		if !shouldRetry(c, bizErr) {
			break
		}
	}

	monitor.RelayFinished(relayMode, startTime, false)
	switch {
	case lastErr == nil:
		lastErr = gemini.ErrorWrapper(errors.New("no available credentials"),
			"no_available_credentials", http.StatusServiceUnavailable)
	case exhausted:
		// running out of credentials is a pool availability problem, not
		// whatever the last credential happened to answer
		lastErr.StatusCode = http.StatusServiceUnavailable
	}
	writeRelayError(c, lastErr)
}

// shouldRetry reports whether another credential may cure the failure. Local
// request defects and caller cancellation never benefit from a retry.
func shouldRetry(c *gin.Context, bizErr *relaymodel.ErrorWithStatusCode) bool {
	if bizErr.RawError != nil {
		if errors.Is(bizErr.RawError, context.Canceled) || errors.Is(bizErr.RawError, context.DeadlineExceeded) {
			return false
		}
	}
	// errors minted before the upstream call carry the local error type;
	// their 4xx status reflects the request itself, not the credential
	if bizErr.StatusCode == http.StatusBadRequest && bizErr.Error.Type == "gemini_pool_error" {
		return false
	}
	return true
}

func rewindRequestBody(c *gin.Context) error {
	if c.Request.Method == http.MethodGet || c.Request.Body == nil {
		return nil
	}
	requestBody, err := common.GetRequestBody(c)
	if err != nil {
		return errors.Wrap(err, "get cached request body")
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
	return nil
}

func writeRelayError(c *gin.Context, bizErr *relaymodel.ErrorWithStatusCode) {
	requestId := c.GetString(helper.RequestIdKey)
	bizErr.Error.Message = helper.MessageWithRequestId(bizErr.Error.Message, requestId)
	c.JSON(bizErr.StatusCode, gin.H{
		"error": bizErr.Error,
	})
}
