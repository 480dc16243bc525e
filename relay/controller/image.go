package controller

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/common"
	"github.com/fuchsia74/gemini-pool/relay/adaptor/gemini"
	"github.com/fuchsia74/gemini-pool/relay/meta"
	relaymodel "github.com/fuchsia74/gemini-pool/relay/model"
)

func getImageRequest(c *gin.Context) (*relaymodel.ImageRequest, error) {
	imageRequest := &relaymodel.ImageRequest{}
	if err := common.UnmarshalBodyReusable(c, imageRequest); err != nil {
		return nil, errors.WithStack(err)
	}
	if imageRequest.Model == "" {
		return nil, errors.New("model is required")
	}
	if imageRequest.Prompt == "" {
		return nil, errors.New("prompt is required")
	}
	if imageRequest.N == 0 {
		imageRequest.N = 1
	}
	return imageRequest, nil
}

// RelayImageHelper serves one alt-format image generation attempt. Only
// base64 payloads can be returned; hosted URLs are not supported.
func RelayImageHelper(c *gin.Context) *relaymodel.ErrorWithStatusCode {
	m := meta.GetByContext(c)

	imageRequest, err := getImageRequest(c)
	if err != nil {
		return gemini.ErrorWrapper(err, "invalid_image_request", http.StatusBadRequest)
	}
	if imageRequest.ResponseFormat == "url" {
		return gemini.ErrorWrapper(errors.New("response_format url is not supported, use b64_json"),
			"unsupported_response_format", http.StatusBadRequest)
	}
	m.ModelName = imageRequest.Model

	converted, err := gemini.ConvertImageRequest(imageRequest)
	if err != nil {
		return gemini.ErrorWrapper(err, "convert_request_failed", http.StatusBadRequest)
	}
	requestBody, err := json.Marshal(converted)
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

	body, errWithCode := readUpstreamBody(resp)
	if errWithCode != nil {
		return errWithCode
	}

	if gemini.IsImagenModel(m.ModelName) {
		var imagenResponse gemini.ImagenResponse
		if err = json.Unmarshal(body, &imagenResponse); err != nil {
			return gemini.ErrorWrapper(errors.Wrap(err, "unmarshal upstream response"),
				"unmarshal_response_failed", http.StatusInternalServerError)
		}
		return writeJSON(c, gemini.ResponseImagen2OpenAI(&imagenResponse))
	}

	var chatResponse gemini.ChatResponse
	if err = json.Unmarshal(body, &chatResponse); err != nil {
		return gemini.ErrorWrapper(errors.Wrap(err, "unmarshal upstream response"),
			"unmarshal_response_failed", http.StatusInternalServerError)
	}
	return writeJSON(c, gemini.ResponseGeminiImage2OpenAI(&chatResponse))
}
