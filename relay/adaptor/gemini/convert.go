package gemini

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"google.golang.org/genai"

	"github.com/fuchsia74/gemini-pool/common/image"
	relaymodel "github.com/fuchsia74/gemini-pool/relay/model"
)

// thinkingBudgets maps the alternate reasoning.effort levels onto fixed
// provider thinking budgets. Any other effort value drops the thinking config
// entirely; no default budget is synthesized.
var thinkingBudgets = map[string]int32{
	"low":    1024,
	"medium": 4096,
	"high":   16384,
}

// ConvertRequest translates an alternate chat completion request into the
// provider generateContent shape. Safety settings are always forced to the
// all-categories-OFF policy, regardless of caller input.
func ConvertRequest(c *gin.Context, request *relaymodel.GeneralOpenAIRequest) (*ChatRequest, error) {
	contents, systemInstruction, err := convertMessages(c, request.Messages)
	if err != nil {
		return nil, err
	}

	chatRequest := &ChatRequest{
		Contents:          contents,
		SystemInstruction: systemInstruction,
		SafetySettings:    safetySettingsOff(),
		GenerationConfig:  convertGenerationConfig(request),
	}
	chatRequest.Tools = convertTools(request.Tools)
	chatRequest.ToolConfig = convertToolChoice(request)
	return chatRequest, nil
}

func convertGenerationConfig(request *relaymodel.GeneralOpenAIRequest) *genai.GenerationConfig {
	gc := &genai.GenerationConfig{}
	if request.Temperature != nil {
		f := float32(*request.Temperature)
		gc.Temperature = &f
	}
	if request.TopP != nil {
		f := float32(*request.TopP)
		gc.TopP = &f
	}
	if request.TopK != nil {
		f := float32(*request.TopK)
		gc.TopK = &f
	}
	if request.N != nil {
		gc.CandidateCount = int32(*request.N)
	}
	if request.MaxTokens != 0 {
		gc.MaxOutputTokens = int32(request.MaxTokens)
	}
	if stops := request.ParseStop(); len(stops) > 0 {
		gc.StopSequences = stops
	}
	if request.ResponseFormat != nil && request.ResponseFormat.Type == "json_object" {
		gc.ResponseMIMEType = "application/json"
	}
	if request.Reasoning != nil {
		if budget, ok := thinkingBudgets[request.Reasoning.Effort]; ok {
			b := budget
			gc.ThinkingConfig = &genai.GenerationConfigThinkingConfig{ThinkingBudget: &b}
		}
	}
	return gc
}

// convertMessages maps the alternate message list onto provider contents.
// System turns are collected into a single systemInstruction and never
// appended to the contents list.
func convertMessages(c *gin.Context, messages []relaymodel.Message) ([]genai.Content, *genai.Content, error) {
	var contents []genai.Content
	var systemInstruction *genai.Content

	for _, message := range messages {
		switch message.Role {
		case "system", "developer":
			if text := message.StringContent(); text != "" {
				if systemInstruction == nil {
					systemInstruction = &genai.Content{}
				}
				systemInstruction.Parts = append(systemInstruction.Parts, &genai.Part{Text: text})
			}
		case "assistant":
			contents = append(contents, assistantMessageToContent(message))
		case "tool":
			name := message.Name
			if name == "" {
				name = message.ToolCallId
			}
			contents = append(contents, genai.Content{
				Role: "function",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     name,
						Response: map[string]any{"content": message.StringContent()},
					},
				}},
			})
		default:
			parts := userMessageToParts(c, message)
			contents = append(contents, genai.Content{Role: genai.RoleUser, Parts: parts})
		}
	}
	return contents, systemInstruction, nil
}

func assistantMessageToContent(message relaymodel.Message) genai.Content {
	var parts []*genai.Part
	if text := message.StringContent(); text != "" {
		parts = append(parts, &genai.Part{Text: text})
	}
	for _, toolCall := range message.ToolCalls {
		args := map[string]any{}
		if toolCall.Function.Arguments != "" {
			// malformed arguments degrade to an empty object rather than
			// failing the whole request
			_ = json.Unmarshal([]byte(toolCall.Function.Arguments), &args)
		}
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				Name: toolCall.Function.Name,
				Args: args,
			},
		})
	}
	if len(parts) == 0 {
		// the provider rejects empty contents
		parts = []*genai.Part{{Text: ""}}
	}
	return genai.Content{Role: genai.RoleModel, Parts: parts}
}

func userMessageToParts(c *gin.Context, message relaymodel.Message) []*genai.Part {
	lg := gmw.GetLogger(c)
	var parts []*genai.Part
	for _, item := range message.ParseContent() {
		switch item.Type {
		case relaymodel.ContentTypeText:
			parts = append(parts, &genai.Part{Text: item.Text})
		case relaymodel.ContentTypeImageURL:
			mimeType, data, err := image.GetImageFromUrl(item.ImageURL.Url)
			if err != nil {
				// a broken image reference degrades to an inline notice, it
				// never fails the whole request
				lg.Warn("failed to process image URL",
					zap.String("url", item.ImageURL.Url),
					zap.Error(err))
				parts = append(parts, &genai.Part{
					Text: fmt.Sprintf("[Image URL could not be processed: %s]", item.ImageURL.Url),
				})
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(data)
			if err != nil {
				lg.Warn("failed to decode image payload", zap.Error(err))
				parts = append(parts, &genai.Part{
					Text: fmt.Sprintf("[Image URL could not be processed: %s]", item.ImageURL.Url),
				})
				continue
			}
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: mimeType, Data: raw},
			})
		}
	}
	if len(parts) == 0 {
		parts = []*genai.Part{{Text: ""}}
	}
	return parts
}

// convertTools maps alternate function declarations onto provider tools. A
// declaration named googleSearch selects the provider's built-in search tool
// instead; the provider accepts only one tool type per request, so other
// declarations are dropped in that case.
func convertTools(tools []relaymodel.Tool) []genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	var declarations []*genai.FunctionDeclaration
	for _, tool := range tools {
		if tool.Type != "function" {
			continue
		}
		if tool.Function.Name == "googleSearch" {
			return []genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:                 tool.Function.Name,
			Description:          tool.Function.Description,
			ParametersJsonSchema: tool.Function.Parameters,
		})
	}
	if len(declarations) == 0 {
		return nil
	}
	return []genai.Tool{{FunctionDeclarations: declarations}}
}

func convertToolChoice(request *relaymodel.GeneralOpenAIRequest) *genai.ToolConfig {
	if request.ToolChoice == nil {
		return nil
	}
	if choice, ok := request.NamedToolChoice(); ok {
		return &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{choice.Function.Name},
			},
		}
	}
	mode, ok := request.ToolChoice.(string)
	if !ok {
		return nil
	}
	switch mode {
	case "auto":
		return &genai.ToolConfig{FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto}}
	case "any", "required":
		return &genai.ToolConfig{FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAny}}
	case "none":
		return &genai.ToolConfig{FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeNone}}
	default:
		return nil
	}
}

// ConvertEmbedRequest builds one provider embedContent body per input string.
func ConvertEmbedRequest(request *relaymodel.GeneralOpenAIRequest, input string) *EmbedRequest {
	return &EmbedRequest{
		Content:              genai.Content{Parts: []*genai.Part{{Text: input}}},
		OutputDimensionality: request.Dimensions,
	}
}

// ConvertImageRequest builds either an Imagen predict body or a
// generateContent body with image response modalities, depending on the
// model family.
func ConvertImageRequest(request *relaymodel.ImageRequest) (any, error) {
	n := request.N
	if n <= 0 {
		n = 1
	}
	if IsImagenModel(request.Model) {
		return &ImagenRequest{
			Instances:  []ImagenInstance{{Prompt: request.Prompt}},
			Parameters: ImagenParameters{SampleCount: n},
		}, nil
	}
	return &ChatRequest{
		Contents: []genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: request.Prompt}},
		}},
		SafetySettings: safetySettingsOff(),
		GenerationConfig: &genai.GenerationConfig{
			ResponseModalities: []genai.Modality{genai.ModalityImage, genai.ModalityText},
			CandidateCount:     int32(n),
		},
	}, nil
}
