package controller

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/common"
	"github.com/fuchsia74/gemini-pool/common/ctxkey"
	"github.com/fuchsia74/gemini-pool/relay/adaptor/gemini"
	"github.com/fuchsia74/gemini-pool/relay/meta"
	relaymodel "github.com/fuchsia74/gemini-pool/relay/model"
)

// RelayNativeHelper serves one native-format attempt: provider-style requests
// pass through with their body normalized, responses return verbatim. Model
// metadata GETs skip the body pipeline entirely.
func RelayNativeHelper(c *gin.Context) *relaymodel.ErrorWithStatusCode {
	m := meta.GetByContext(c)

	if c.Request.Method == http.MethodGet {
		return relayNativeGet(c, m)
	}

	requestBody, err := common.GetRequestBody(c)
	if err != nil {
		return gemini.ErrorWrapper(errors.Wrap(err, "read request body"),
			"read_request_body_failed", http.StatusBadRequest)
	}
	normalized, errWithCode := gemini.NormalizeNativeBody(requestBody, m.NativeAction)
	if errWithCode != nil {
		return errWithCode
	}

	adaptor := &gemini.Adaptor{}
	resp, err := adaptor.DoRequest(c, m, bytes.NewReader(normalized))
	if err != nil {
		return gemini.ErrorWrapper(errors.Wrap(err, "call upstream"),
			"do_request_failed", http.StatusBadGateway)
	}
	if resp.StatusCode != http.StatusOK {
		return gemini.RelayErrorHandler(resp)
	}

	if m.IsStream {
		return gemini.NativeStreamHandler(c, resp)
	}

	body, errWithCode := readUpstreamBody(resp)
	if errWithCode != nil {
		return errWithCode
	}
	c.Data(http.StatusOK, "application/json", body)
	return nil
}

// relayNativeGet forwards model listing and metadata GETs verbatim.
func relayNativeGet(c *gin.Context, m *meta.Meta) *relaymodel.ErrorWithStatusCode {
	path := strings.TrimPrefix(m.RequestURLPath, "/api")
	resp, err := gemini.UpstreamGet(c, path, c.GetString(ctxkey.UpstreamKey))
	if err != nil {
		return gemini.ErrorWrapper(errors.Wrap(err, "call upstream"),
			"do_request_failed", http.StatusBadGateway)
	}
	if resp.StatusCode != http.StatusOK {
		return gemini.RelayErrorHandler(resp)
	}
	body, errWithCode := readUpstreamBody(resp)
	if errWithCode != nil {
		return errWithCode
	}
	c.Data(http.StatusOK, "application/json", body)
	return nil
}
