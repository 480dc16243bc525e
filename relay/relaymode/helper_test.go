package relaymode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetByPath(t *testing.T) {
	cases := []struct {
		path string
		want int
	}{
		{"/v1/chat/completions", ChatCompletions},
		{"/v1/embeddings", Embeddings},
		{"/v1/images/generations", ImagesGenerations},
		{"/v1/models", ModelList},
		{"/v1beta/models/gemini-2.0-flash:generateContent", Native},
		{"/v1beta/models/gemini-2.0-flash:streamGenerateContent", Native},
		{"/v1beta/models/text-embedding-004:embedContent", Native},
		{"/v1beta/models/text-embedding-004:batchEmbedContents", Native},
		{"/v1beta/models/gemini-2.0-flash:countTokens", Native},
		{"/v1beta/models/gemini-2.0-flash:generateImageWithGemini", Native},
		{"/v1beta/models/imagen-3.0:generateImageWithImagen", Native},
		{"/v1beta/models", Native},
		{"/v1beta/models/gemini-2.0-flash", Native},
		{"/v1beta/tunedModels/my-tuned-model:generateContent", Native},
		{"/v1beta/models/gemini-2.0-flash:unknownAction", Native},
		{"/v1/completions", Unknown},
		{"/healthz", Unknown},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, GetByPath(tc.path), "path %q", tc.path)
	}
}

func TestNativeAction(t *testing.T) {
	assert.Equal(t, "generateContent", NativeAction("/v1beta/models/gemini-2.0-flash:generateContent"))
	assert.Equal(t, "streamGenerateContent", NativeAction("/v1beta/models/m:streamGenerateContent"))
	assert.Empty(t, NativeAction("/v1beta/models/gemini-2.0-flash"))
	assert.Empty(t, NativeAction("/v1beta/models/gemini-2.0-flash:"))
}

func TestModelFromPath(t *testing.T) {
	assert.Equal(t, "gemini-2.0-flash", ModelFromPath("/v1beta/models/gemini-2.0-flash:generateContent"))
	assert.Equal(t, "gemini-2.0-flash", ModelFromPath("/v1beta/models/gemini-2.0-flash"))
	assert.Equal(t, "my-tuned", ModelFromPath("/v1beta/tunedModels/my-tuned:generateContent"))
	assert.Empty(t, ModelFromPath("/v1/chat/completions"))
}
