package gemini

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestMapFinishReason(t *testing.T) {
	assert.Equal(t, "stop", mapFinishReason(genai.FinishReasonStop, false))
	assert.Equal(t, "length", mapFinishReason(genai.FinishReasonMaxTokens, false))
	assert.Equal(t, "content_filter", mapFinishReason(genai.FinishReasonSafety, false))
	assert.Equal(t, "content_filter", mapFinishReason(genai.FinishReasonRecitation, false))
	assert.Equal(t, "tool_calls", mapFinishReason(genai.FinishReason("FUNCTION_CALL"), false))
	assert.Equal(t, "stop", mapFinishReason(genai.FinishReasonOther, false))
	assert.Equal(t, "stop", mapFinishReason("", false))

	// any function call part wins over the raw reason
	assert.Equal(t, "tool_calls", mapFinishReason(genai.FinishReasonStop, true))
	assert.Equal(t, "tool_calls", mapFinishReason(genai.FinishReasonMaxTokens, true))
}

func TestUsageMetadataToUsage(t *testing.T) {
	usage := usageMetadataToUsage(&genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     10,
		CandidatesTokenCount: 25,
		ThoughtsTokenCount:   5,
		TotalTokenCount:      35,
	})
	assert.Equal(t, 10, usage.PromptTokens)
	// thought tokens are reported separately, not inside completion tokens
	assert.Equal(t, 20, usage.CompletionTokens)
	assert.Equal(t, 35, usage.TotalTokens)
	require.NotNil(t, usage.CompletionTokensDetails)
	assert.Equal(t, 5, usage.CompletionTokensDetails.ReasoningTokens)

	usage = usageMetadataToUsage(&genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     3,
		CandidatesTokenCount: 7,
		TotalTokenCount:      10,
	})
	assert.Equal(t, 7, usage.CompletionTokens)
	assert.Nil(t, usage.CompletionTokensDetails)

	assert.Zero(t, usageMetadataToUsage(nil).TotalTokens)
}

func TestResponseGeminiChat2OpenAI(t *testing.T) {
	response := &ChatResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: "hel"}, {Text: "lo"}},
			},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     4,
			CandidatesTokenCount: 2,
			TotalTokenCount:      6,
		},
	}

	out := ResponseGeminiChat2OpenAI(response, "gemini-2.0-flash", "")
	assert.Equal(t, "chat.completion", out.Object)
	assert.True(t, strings.HasPrefix(out.Id, "chatcmpl-"))
	assert.Equal(t, "gemini-2.0-flash", out.Model)
	require.Len(t, out.Choices, 1)
	assert.Equal(t, 0, out.Choices[0].Index)
	assert.Equal(t, "assistant", out.Choices[0].Message.Role)
	assert.Equal(t, "hello", out.Choices[0].Message.Content)
	assert.Equal(t, "stop", out.Choices[0].FinishReason)
	assert.Equal(t, 4, out.Usage.PromptTokens)
	assert.Equal(t, 6, out.Usage.TotalTokens)
}

func TestResponseGeminiChat2OpenAIToolCalls(t *testing.T) {
	response := &ChatResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{
					Name: "get_weather",
					Args: map[string]any{"city": "SF"},
				}}},
			},
			FinishReason: genai.FinishReasonStop,
		}},
	}

	out := ResponseGeminiChat2OpenAI(response, "gemini-2.0-flash", "")
	require.Len(t, out.Choices, 1)
	choice := out.Choices[0]
	assert.Equal(t, "tool_calls", choice.FinishReason)
	assert.Nil(t, choice.Message.Content)
	require.Len(t, choice.Message.ToolCalls, 1)
	call := choice.Message.ToolCalls[0]
	assert.True(t, strings.HasPrefix(call.Id, "call_"))
	assert.Len(t, call.Id, len("call_")+29)
	assert.Equal(t, "function", call.Type)
	assert.Equal(t, "get_weather", call.Function.Name)
	assert.JSONEq(t, `{"city":"SF"}`, call.Function.Arguments)
}

func TestResponseModels2OpenAI(t *testing.T) {
	out := ResponseModels2OpenAI(&ModelListResponse{Models: []ModelInfo{
		{Name: "models/gemini-2.0-flash"},
		{Name: "models/text-embedding-004"},
	}})
	assert.Equal(t, "list", out.Object)
	require.Len(t, out.Data, 2)
	assert.Equal(t, "gemini-2.0-flash", out.Data[0].Id)
	assert.Equal(t, "model", out.Data[0].Object)
	assert.Equal(t, "google", out.Data[0].OwnedBy)
}

func TestResponseImagen2OpenAI(t *testing.T) {
	out := ResponseImagen2OpenAI(&ImagenResponse{Predictions: []ImagenPrediction{
		{BytesBase64Encoded: "aW1n"},
		{RaiFilteredReason: "blocked"},
	}})
	// filtered predictions carry no payload and are dropped
	require.Len(t, out.Data, 1)
	assert.Equal(t, "aW1n", out.Data[0].B64Json)
}

func TestResponseGeminiImage2OpenAI(t *testing.T) {
	out := ResponseGeminiImage2OpenAI(&ChatResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "a red fox"},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
			}},
		}},
	})
	require.Len(t, out.Data, 1)
	assert.Equal(t, "a red fox", out.Data[0].RevisedPrompt)
	assert.NotEmpty(t, out.Data[0].B64Json)
}
