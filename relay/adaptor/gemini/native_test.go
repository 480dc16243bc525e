package gemini

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNormalizeGenerationBodyMergePrecedence(t *testing.T) {
	body := []byte(`{
		"contents": [{"role":"user","parts":[{"text":"hi"}]}],
		"config": {"temperature": 0.1, "topK": 5},
		"generationConfig": {"temperature": 0.5},
		"temperature": 0.9
	}`)

	out, errWithCode := NormalizeNativeBody(body, "generateContent")
	require.Nil(t, errWithCode)

	// aliases > generationConfig > config
	assert.InDelta(t, 0.9, gjson.GetBytes(out, "generationConfig.temperature").Float(), 1e-6)
	assert.Equal(t, int64(5), gjson.GetBytes(out, "generationConfig.topK").Int())

	// merged sources are removed from the top level
	assert.False(t, gjson.GetBytes(out, "config").Exists())
	assert.False(t, gjson.GetBytes(out, "temperature").Exists())

	// contents pass through untouched
	assert.Equal(t, "hi", gjson.GetBytes(out, "contents.0.parts.0.text").String())
}

func TestNormalizeGenerationBodySafetyForced(t *testing.T) {
	body := []byte(`{
		"contents": [],
		"safetySettings": [{"category":"HARM_CATEGORY_HARASSMENT","threshold":"BLOCK_LOW_AND_ABOVE"}]
	}`)
	out, errWithCode := NormalizeNativeBody(body, "generateContent")
	require.Nil(t, errWithCode)

	settings := gjson.GetBytes(out, "safetySettings").Array()
	require.Len(t, settings, 5)
	for _, setting := range settings {
		assert.Equal(t, "OFF", setting.Get("threshold").String())
	}
}

func TestNormalizeGenerationBodyThinkingConfig(t *testing.T) {
	// a budget keeps the thinking config
	body := []byte(`{"contents":[],"generationConfig":{"thinkingConfig":{"thinkingBudget":1024}}}`)
	out, errWithCode := NormalizeNativeBody(body, "generateContent")
	require.Nil(t, errWithCode)
	assert.Equal(t, int64(1024), gjson.GetBytes(out, "generationConfig.thinkingConfig.thinkingBudget").Int())

	// no budget drops it entirely
	body = []byte(`{"contents":[],"generationConfig":{"thinkingConfig":{"includeThoughts":true}}}`)
	out, errWithCode = NormalizeNativeBody(body, "generateContent")
	require.Nil(t, errWithCode)
	assert.False(t, gjson.GetBytes(out, "generationConfig.thinkingConfig").Exists())
}

func TestNormalizeGenerationBodySystemInstruction(t *testing.T) {
	body := []byte(`{
		"contents": [],
		"config": {"systemInstruction": {"parts":[{"text":"from config"}]}}
	}`)
	out, errWithCode := NormalizeNativeBody(body, "generateContent")
	require.Nil(t, errWithCode)
	assert.Equal(t, "from config", gjson.GetBytes(out, "systemInstruction.parts.0.text").String())
	assert.False(t, gjson.GetBytes(out, "generationConfig.systemInstruction").Exists())

	// top-level wins over config
	body = []byte(`{
		"contents": [],
		"config": {"systemInstruction": {"parts":[{"text":"from config"}]}},
		"systemInstruction": {"parts":[{"text":"top level"}]}
	}`)
	out, errWithCode = NormalizeNativeBody(body, "generateContent")
	require.Nil(t, errWithCode)
	assert.Equal(t, "top level", gjson.GetBytes(out, "systemInstruction.parts.0.text").String())
}

func TestNormalizeImageWithGeminiRequiresImageModality(t *testing.T) {
	body := []byte(`{"contents":[],"generationConfig":{"responseModalities":["IMAGE","TEXT"]}}`)
	out, errWithCode := NormalizeNativeBody(body, "generateImageWithGemini")
	require.Nil(t, errWithCode)
	assert.NotNil(t, out)

	body = []byte(`{"contents":[],"generationConfig":{"responseModalities":["TEXT"]}}`)
	_, errWithCode = NormalizeNativeBody(body, "generateImageWithGemini")
	require.NotNil(t, errWithCode)
	assert.Equal(t, http.StatusBadRequest, errWithCode.StatusCode)

	body = []byte(`{"contents":[]}`)
	_, errWithCode = NormalizeNativeBody(body, "generateImageWithGemini")
	require.NotNil(t, errWithCode)
	assert.Equal(t, http.StatusBadRequest, errWithCode.StatusCode)
}

func TestNormalizeImagenBody(t *testing.T) {
	body := []byte(`{
		"prompt": "a red fox",
		"config": {"numberOfImages": 2, "aspectRatio": "16:9", "extraneous": true}
	}`)
	out, errWithCode := NormalizeNativeBody(body, "generateImageWithImagen")
	require.Nil(t, errWithCode)
	assert.Equal(t, "a red fox", gjson.GetBytes(out, "instances.0.prompt").String())
	assert.Equal(t, int64(2), gjson.GetBytes(out, "parameters.sampleCount").Int())
	assert.Equal(t, "16:9", gjson.GetBytes(out, "parameters.aspectRatio").String())
	assert.False(t, gjson.GetBytes(out, "parameters.extraneous").Exists())

	_, errWithCode = NormalizeNativeBody([]byte(`{"config":{}}`), "generateImageWithImagen")
	require.NotNil(t, errWithCode)
	assert.Equal(t, http.StatusBadRequest, errWithCode.StatusCode)
}

func TestNormalizePassthroughActions(t *testing.T) {
	body := []byte(`{"contents":[{"parts":[{"text":"count me"}]}]}`)
	out, errWithCode := NormalizeNativeBody(body, "countTokens")
	require.Nil(t, errWithCode)
	assert.Equal(t, string(body), string(out))
}

func TestNormalizeRejectsInvalidJSON(t *testing.T) {
	_, errWithCode := NormalizeNativeBody([]byte(`{`), "generateContent")
	require.NotNil(t, errWithCode)
	assert.Equal(t, http.StatusBadRequest, errWithCode.StatusCode)
}
