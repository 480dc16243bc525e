package controller

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/relay/adaptor/gemini"
	"github.com/fuchsia74/gemini-pool/relay/meta"
	relaymodel "github.com/fuchsia74/gemini-pool/relay/model"
)

// RelayTextHelper serves one alt-format chat completion attempt under the
// credential currently bound to the context.
func RelayTextHelper(c *gin.Context) *relaymodel.ErrorWithStatusCode {
	m := meta.GetByContext(c)
	lg := gmw.GetLogger(c)

	textRequest, err := getAndValidateTextRequest(c, m.Mode)
	if err != nil {
		return gemini.ErrorWrapper(err, "invalid_text_request", http.StatusBadRequest)
	}
	m.IsStream = textRequest.Stream
	m.ModelName = textRequest.Model

	geminiRequest, err := gemini.ConvertRequest(c, textRequest)
	if err != nil {
		return gemini.ErrorWrapper(err, "convert_request_failed", http.StatusBadRequest)
	}
	requestBody, err := json.Marshal(geminiRequest)
	if err != nil {
		return gemini.ErrorWrapper(errors.Wrap(err, "marshal upstream request"),
			"marshal_request_failed", http.StatusInternalServerError)
	}

	adaptor := &gemini.Adaptor{}
	resp, err := adaptor.DoRequest(c, m, bytes.NewReader(requestBody))
	if err != nil {
		return gemini.ErrorWrapper(errors.Wrap(err, "call upstream"),
			"do_request_failed", http.StatusBadGateway)
	}
	if resp.StatusCode != http.StatusOK {
		return gemini.RelayErrorHandler(resp)
	}

	if m.IsStream {
		// usage is always reported on alt-chat streams, even when the
		// caller left stream_options unset
		errWithCode, usage := gemini.StreamHandler(c, resp, m)
		if errWithCode != nil {
			return errWithCode
		}
		lg.Debug("stream completed",
			zap.String("model", m.ModelName),
			zap.Int("total_tokens", usage.TotalTokens))
		return nil
	}

	body, errWithCode := readUpstreamBody(resp)
	if errWithCode != nil {
		return errWithCode
	}
	var geminiResponse gemini.ChatResponse
	if err = json.Unmarshal(body, &geminiResponse); err != nil {
		return gemini.ErrorWrapper(errors.Wrap(err, "unmarshal upstream response"),
			"unmarshal_response_failed", http.StatusInternalServerError)
	}

	effort := ""
	if textRequest.Reasoning != nil {
		effort = textRequest.Reasoning.Effort
	}
	return writeJSON(c, gemini.ResponseGeminiChat2OpenAI(&geminiResponse, m.ModelName, effort))
}
