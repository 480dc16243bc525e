package gemini

import "google.golang.org/genai"

// ChatRequest is the provider generateContent request body. Content, part,
// tool, and config shapes come from google.golang.org/genai, whose JSON tags
// match the provider REST surface.
type ChatRequest struct {
	Contents          []genai.Content         `json:"contents"`
	SystemInstruction *genai.Content          `json:"systemInstruction,omitempty"`
	Tools             []genai.Tool            `json:"tools,omitempty"`
	ToolConfig        *genai.ToolConfig       `json:"toolConfig,omitempty"`
	SafetySettings    []*genai.SafetySetting  `json:"safetySettings,omitempty"`
	GenerationConfig  *genai.GenerationConfig `json:"generationConfig,omitempty"`
}

// ChatResponse is the provider generateContent response; one streamed chunk
// has the same shape.
type ChatResponse struct {
	Candidates     []*genai.Candidate                           `json:"candidates,omitempty"`
	PromptFeedback *genai.GenerateContentResponsePromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *genai.GenerateContentResponseUsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string                                       `json:"modelVersion,omitempty"`
}

// EmbedRequest is the provider embedContent request body.
type EmbedRequest struct {
	Model                string        `json:"model,omitempty"`
	Content              genai.Content `json:"content"`
	OutputDimensionality int           `json:"outputDimensionality,omitempty"`
}

type EmbedResponse struct {
	Embedding genai.ContentEmbedding `json:"embedding"`
}

// ImagenRequest is the provider predict request body for the Imagen family.
type ImagenRequest struct {
	Instances  []ImagenInstance `json:"instances"`
	Parameters ImagenParameters `json:"parameters"`
}

type ImagenInstance struct {
	Prompt string `json:"prompt"`
}

type ImagenParameters struct {
	SampleCount      int    `json:"sampleCount,omitempty"`
	AspectRatio      string `json:"aspectRatio,omitempty"`
	PersonGeneration string `json:"personGeneration,omitempty"`
}

type ImagenResponse struct {
	Predictions []ImagenPrediction `json:"predictions"`
}

type ImagenPrediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType,omitempty"`
	RaiFilteredReason  string `json:"raiFilteredReason,omitempty"`
}

// ModelListResponse is the provider models listing.
type ModelListResponse struct {
	Models        []ModelInfo `json:"models"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

type ModelInfo struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName,omitempty"`
	Description                string   `json:"description,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

// safetySettingsOff is the fixed all-categories-OFF policy forced onto every
// generation request, regardless of caller input.
func safetySettingsOff() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryCivicIntegrity,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdOff,
		})
	}
	return settings
}
