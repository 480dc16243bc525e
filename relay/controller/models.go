package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/fuchsia74/gemini-pool/common"
	"github.com/fuchsia74/gemini-pool/common/config"
	"github.com/fuchsia74/gemini-pool/common/ctxkey"
	"github.com/fuchsia74/gemini-pool/relay/adaptor/gemini"
	relaymodel "github.com/fuchsia74/gemini-pool/relay/model"
)

const modelListCacheKey = "gemini-pool:model-list"

// in-process fallback cache for deployments without Redis, with singleflight
// collapsing concurrent upstream fetches after a cache miss
var (
	modelListCache = gocache.New(gocache.NoExpiration, 10*time.Minute)
	modelListGroup singleflight.Group
)

func cachedModelList() ([]byte, bool) {
	if common.IsRedisEnabled() {
		if value, err := common.RedisGet(modelListCacheKey); err == nil && value != "" {
			return []byte(value), true
		}
		return nil, false
	}
	if value, ok := modelListCache.Get(modelListCacheKey); ok {
		return value.([]byte), true
	}
	return nil, false
}

func storeModelList(c *gin.Context, body []byte) {
	if common.IsRedisEnabled() {
		if err := common.RedisSet(modelListCacheKey, string(body), config.ModelListCacheTTL); err != nil {
			gmw.GetLogger(c).Warn("cache model list in redis failed", zap.Error(err))
		}
		return
	}
	modelListCache.Set(modelListCacheKey, body, config.ModelListCacheTTL)
}

type modelListResult struct {
	body        []byte
	errWithCode *relaymodel.ErrorWithStatusCode
}

// fetchUpstreamModelList returns the raw provider model listing, from cache
// when fresh. The cache key is shared across credentials; the provider
// listing does not vary per key.
func fetchUpstreamModelList(c *gin.Context, apiKey string) ([]byte, *relaymodel.ErrorWithStatusCode) {
	if body, ok := cachedModelList(); ok {
		return body, nil
	}

	v, _, _ := modelListGroup.Do(modelListCacheKey, func() (any, error) {
		if body, ok := cachedModelList(); ok {
			return &modelListResult{body: body}, nil
		}
		resp, err := gemini.UpstreamGet(c, "/"+config.UpstreamAPIVersion+"/models", apiKey)
		if err != nil {
			return &modelListResult{errWithCode: gemini.ErrorWrapper(errors.Wrap(err, "call upstream"),
				"do_request_failed", http.StatusBadGateway)}, nil
		}
		if resp.StatusCode != http.StatusOK {
			return &modelListResult{errWithCode: gemini.RelayErrorHandler(resp)}, nil
		}
		body, errWithCode := readUpstreamBody(resp)
		if errWithCode != nil {
			return &modelListResult{errWithCode: errWithCode}, nil
		}
		storeModelList(c, body)
		return &modelListResult{body: body}, nil
	})
	result := v.(*modelListResult)
	return result.body, result.errWithCode
}

// RelayModelsHelper serves the alt-format model listing.
func RelayModelsHelper(c *gin.Context) *relaymodel.ErrorWithStatusCode {
	body, errWithCode := fetchUpstreamModelList(c, c.GetString(ctxkey.UpstreamKey))
	if errWithCode != nil {
		return errWithCode
	}
	var listing gemini.ModelListResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return gemini.ErrorWrapper(errors.Wrap(err, "unmarshal upstream response"),
			"unmarshal_response_failed", http.StatusInternalServerError)
	}
	return writeJSON(c, gemini.ResponseModels2OpenAI(&listing))
}
