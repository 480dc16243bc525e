package meta

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/common/config"
	"github.com/fuchsia74/gemini-pool/common/ctxkey"
	"github.com/fuchsia74/gemini-pool/relay/relaymode"
)

// Meta carries per-request relay state. It is built once per request and the
// credential field is updated per retry attempt; nothing in it is shared
// between requests.
type Meta struct {
	Mode int
	// NativeAction is the provider action suffix for native requests.
	NativeAction string
	// BaseURL is the upstream endpoint for this request.
	BaseURL string
	// APIKey is the credential for the current attempt.
	APIKey   string
	IsStream bool
	// ModelName is the model as requested by the caller.
	ModelName      string
	RequestURLPath string
	StartTime      time.Time
}

func GetByContext(c *gin.Context) *Meta {
	meta := Meta{
		Mode:           c.GetInt(ctxkey.RelayMode),
		NativeAction:   c.GetString(ctxkey.NativeAction),
		BaseURL:        config.UpstreamBaseURL,
		APIKey:         c.GetString(ctxkey.UpstreamKey),
		ModelName:      c.GetString(ctxkey.RequestModel),
		RequestURLPath: c.Request.URL.String(),
		StartTime:      time.Now(),
	}
	if meta.Mode == relaymode.Native {
		meta.IsStream = meta.NativeAction == "streamGenerateContent"
	}
	return &meta
}
