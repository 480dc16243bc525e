package middleware

import (
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/fuchsia74/gemini-pool/common"
	"github.com/fuchsia74/gemini-pool/common/ctxkey"
	"github.com/fuchsia74/gemini-pool/relay/keypool"
	"github.com/fuchsia74/gemini-pool/relay/relaymode"
)

// Distribute classifies the request path, resolves the requested model, and
// snapshots the pool configuration so later admin changes cannot disturb this
// request.
func Distribute() func(c *gin.Context) {
	return func(c *gin.Context) {
		path := strings.TrimPrefix(c.Request.URL.Path, "/api")
		mode := relaymode.GetByPath(path)
		if mode == relaymode.Unknown {
			AbortWithError(c, http.StatusNotFound, errors.Errorf("unknown route: %s", path))
			return
		}
		c.Set(ctxkey.RelayMode, mode)

		switch mode {
		case relaymode.Native:
			c.Set(ctxkey.NativeAction, relaymode.NativeAction(path))
			c.Set(ctxkey.RequestModel, relaymode.ModelFromPath(path))
		case relaymode.ModelList:
			// no model, no body
		default:
			body, err := common.GetRequestBody(c)
			if err != nil {
				AbortWithError(c, http.StatusBadRequest, errors.Wrap(err, "read request body"))
				return
			}
			c.Set(ctxkey.RequestModel, gjson.GetBytes(body, "model").String())
		}

		if c.GetBool(ctxkey.PoolMode) {
			c.Set(ctxkey.Snapshot, keypool.TakeSnapshot())
		}
		c.Next()
	}
}
