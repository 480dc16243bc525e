package gemini

import (
	"encoding/base64"
	"strings"

	"google.golang.org/genai"

	"github.com/fuchsia74/gemini-pool/common/helper"
	"github.com/fuchsia74/gemini-pool/common/random"
	relaymodel "github.com/fuchsia74/gemini-pool/relay/model"
)

func newChatCompletionID() string {
	return "chatcmpl-" + random.GetUUID()
}

func newToolCallID() string {
	return "call_" + random.GetRandomString(29)
}

// mapFinishReason translates a provider finish reason into the alternate
// vocabulary. Whenever any part carried a function call the mapped reason is
// tool_calls, regardless of the raw reason.
func mapFinishReason(reason genai.FinishReason, hasFunctionCall bool) string {
	if hasFunctionCall {
		return "tool_calls"
	}
	switch reason {
	case genai.FinishReasonMaxTokens:
		return "length"
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return "content_filter"
	case genai.FinishReason("FUNCTION_CALL"):
		return "tool_calls"
	default:
		// STOP, OTHER, UNKNOWN, and unspecified variants all map to stop
		return "stop"
	}
}

// candidateToChoice translates one provider candidate into an alternate
// choice. Text parts concatenate into message.content; function calls become
// tool_calls with freshly generated ids.
func candidateToChoice(index int, candidate *genai.Candidate) relaymodel.TextResponseChoice {
	var textBuilder strings.Builder
	var toolCalls []relaymodel.Tool
	hasText := false
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" {
				hasText = true
				textBuilder.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				toolCalls = append(toolCalls, relaymodel.Tool{
					Id:   newToolCallID(),
					Type: "function",
					Function: relaymodel.Function{
						Name:      part.FunctionCall.Name,
						Arguments: relaymodel.MarshalArguments(part.FunctionCall.Args),
					},
				})
			}
		}
	}

	message := relaymodel.Message{Role: "assistant"}
	if hasText {
		message.Content = textBuilder.String()
	} else {
		message.Content = nil
	}
	message.ToolCalls = toolCalls

	return relaymodel.TextResponseChoice{
		Index:        index,
		Message:      message,
		FinishReason: mapFinishReason(candidate.FinishReason, len(toolCalls) > 0),
	}
}

// usageMetadataToUsage remaps provider token accounting. Thought tokens are
// reported separately upstream but the alternate format folds them into
// completion tokens, so they are subtracted back out.
func usageMetadataToUsage(metadata *genai.GenerateContentResponseUsageMetadata) relaymodel.Usage {
	if metadata == nil {
		return relaymodel.Usage{}
	}
	thoughts := int(metadata.ThoughtsTokenCount)
	completion := int(metadata.CandidatesTokenCount) - thoughts
	if completion < 0 {
		completion = 0
	}
	usage := relaymodel.Usage{
		PromptTokens:     int(metadata.PromptTokenCount),
		CompletionTokens: completion,
		TotalTokens:      int(metadata.TotalTokenCount),
	}
	if thoughts > 0 {
		usage.CompletionTokensDetails = &relaymodel.UsageCompletionTokensDetails{
			ReasoningTokens: thoughts,
		}
	}
	return usage
}

// ResponseGeminiChat2OpenAI translates a provider generateContent response
// into the alternate chat completion shape. The effort argument echoes the
// caller's reasoning.effort back in the response envelope.
func ResponseGeminiChat2OpenAI(response *ChatResponse, modelName string, effort string) *relaymodel.TextResponse {
	choices := make([]relaymodel.TextResponseChoice, 0, len(response.Candidates))
	for i, candidate := range response.Candidates {
		if candidate == nil {
			continue
		}
		choices = append(choices, candidateToChoice(i, candidate))
	}
	return &relaymodel.TextResponse{
		Id:        newChatCompletionID(),
		Object:    "chat.completion",
		Created:   helper.GetTimestamp(),
		Model:     modelName,
		Choices:   choices,
		Usage:     usageMetadataToUsage(response.UsageMetadata),
		Reasoning: &relaymodel.Reasoning{Effort: effort, Summary: nil},
	}
}

// ResponseImagen2OpenAI translates an Imagen predict response.
func ResponseImagen2OpenAI(response *ImagenResponse) *relaymodel.ImageResponse {
	data := make([]relaymodel.ImageData, 0, len(response.Predictions))
	for _, prediction := range response.Predictions {
		if prediction.BytesBase64Encoded == "" {
			continue
		}
		data = append(data, relaymodel.ImageData{B64Json: prediction.BytesBase64Encoded})
	}
	return &relaymodel.ImageResponse{
		Created: helper.GetTimestamp(),
		Data:    data,
	}
}

// ResponseGeminiImage2OpenAI translates a generateContent response carrying
// inline image parts. Any text parts alongside an image become its
// revised_prompt.
func ResponseGeminiImage2OpenAI(response *ChatResponse) *relaymodel.ImageResponse {
	var data []relaymodel.ImageData
	for _, candidate := range response.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var revised strings.Builder
		var images []string
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" {
				revised.WriteString(part.Text)
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				images = append(images, base64.StdEncoding.EncodeToString(part.InlineData.Data))
			}
		}
		for _, img := range images {
			data = append(data, relaymodel.ImageData{
				B64Json:       img,
				RevisedPrompt: revised.String(),
			})
		}
	}
	out := &relaymodel.ImageResponse{
		Created: helper.GetTimestamp(),
		Data:    data,
	}
	if response.UsageMetadata != nil {
		usage := usageMetadataToUsage(response.UsageMetadata)
		out.Usage = &usage
	}
	return out
}

// ResponseModels2OpenAI translates the provider model listing into the
// alternate list shape.
func ResponseModels2OpenAI(response *ModelListResponse) *relaymodel.ModelList {
	data := make([]relaymodel.ModelInfo, 0, len(response.Models))
	for _, m := range response.Models {
		data = append(data, relaymodel.ModelInfo{
			Id:      strings.TrimPrefix(m.Name, "models/"),
			Object:  "model",
			Created: helper.GetTimestamp(),
			OwnedBy: "google",
		})
	}
	return &relaymodel.ModelList{Object: "list", Data: data}
}
