package controller

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/common"
	"github.com/fuchsia74/gemini-pool/relay/adaptor/gemini"
	relaymodel "github.com/fuchsia74/gemini-pool/relay/model"
	"github.com/fuchsia74/gemini-pool/relay/relaymode"
)

func getAndValidateTextRequest(c *gin.Context, relayMode int) (*relaymodel.GeneralOpenAIRequest, error) {
	textRequest := &relaymodel.GeneralOpenAIRequest{}
	if err := common.UnmarshalBodyReusable(c, textRequest); err != nil {
		return nil, errors.Wrap(err, "unmarshal request body")
	}
	if textRequest.Model == "" {
		return nil, errors.New("model is required")
	}
	if relayMode == relaymode.ChatCompletions && len(textRequest.Messages) == 0 {
		return nil, errors.New("messages is required")
	}
	return textRequest, nil
}

// writeJSON sends a translated response body with explicit status 200.
func writeJSON(c *gin.Context, payload any) *relaymodel.ErrorWithStatusCode {
	body, err := json.Marshal(payload)
	if err != nil {
		return gemini.ErrorWrapper(errors.Wrap(err, "marshal response"),
			"marshal_response_failed", http.StatusInternalServerError)
	}
	c.Data(http.StatusOK, "application/json", body)
	return nil
}

// readUpstreamBody drains and closes an upstream response body.
func readUpstreamBody(resp *http.Response) ([]byte, *relaymodel.ErrorWithStatusCode) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gemini.ErrorWrapper(errors.Wrap(err, "read upstream response"),
			"read_upstream_response_failed", http.StatusInternalServerError)
	}
	return body, nil
}
