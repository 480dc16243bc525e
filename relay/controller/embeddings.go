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

// RelayEmbeddingsHelper serves one alt-format embeddings attempt. The
// provider embeds one content per call, so a batched input fans out into one
// upstream call per element; an element that fails degrades to an empty
// embedding with an error note instead of failing the batch.
func RelayEmbeddingsHelper(c *gin.Context) *relaymodel.ErrorWithStatusCode {
	m := meta.GetByContext(c)
	lg := gmw.GetLogger(c)

	request, err := getAndValidateTextRequest(c, m.Mode)
	if err != nil {
		return gemini.ErrorWrapper(err, "invalid_embeddings_request", http.StatusBadRequest)
	}
	m.ModelName = request.Model

	inputs := request.ParseInput()
	if len(inputs) == 0 {
		return gemini.ErrorWrapper(errors.New("input is required"),
			"invalid_embeddings_request", http.StatusBadRequest)
	}

	adaptor := &gemini.Adaptor{}
	items := make([]relaymodel.EmbeddingItem, 0, len(inputs))
	failures := 0
	for i, input := range inputs {
		item := relaymodel.EmbeddingItem{Object: "embedding", Index: i, Embedding: []float32{}}
		embedding, embedErr := embedOne(c, adaptor, m, request, input)
		if embedErr != nil {
			failures++
			item.Error = embedErr.Error()
			lg.Warn("embedding input failed",
				zap.Int("index", i),
				zap.Error(embedErr))
		} else {
			item.Embedding = embedding
		}
		items = append(items, item)
	}
	if failures == len(inputs) {
		return gemini.ErrorWrapper(errors.New("all embedding inputs failed"),
			"embeddings_failed", http.StatusBadGateway)
	}

	return writeJSON(c, &relaymodel.EmbeddingResponse{
		Object: "list",
		Data:   items,
		Model:  request.Model,
		Usage:  relaymodel.EmbeddingUsage{},
	})
}

func embedOne(c *gin.Context, adaptor *gemini.Adaptor, m *meta.Meta, request *relaymodel.GeneralOpenAIRequest, input string) ([]float32, error) {
	body, err := json.Marshal(gemini.ConvertEmbedRequest(request, input))
	if err != nil {
		return nil, errors.Wrap(err, "marshal embed request")
	}
	resp, err := adaptor.DoRequest(c, m, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "call upstream")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		errWithCode := gemini.RelayErrorHandler(resp)
		return nil, errors.Errorf("upstream status %d: %v", errWithCode.StatusCode, errWithCode.Error.Message)
	}
	var embedResponse gemini.EmbedResponse
	if err = json.NewDecoder(resp.Body).Decode(&embedResponse); err != nil {
		return nil, errors.Wrap(err, "decode embed response")
	}
	return embedResponse.Embedding.Values, nil
}
