package model

import "encoding/json"

type ResponseFormat struct {
	Type string `json:"type,omitempty"`
}

type StreamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"`
}

type Reasoning struct {
	// Effort maps low/medium/high to fixed provider thinking budgets; any
	// other value drops the thinking config entirely.
	Effort  string `json:"effort,omitempty"`
	Summary any    `json:"summary,omitempty"`
}

// GeneralOpenAIRequest is the union of the alternate chat / embeddings /
// image request shapes. Exact field subsets are validated per relay mode.
type GeneralOpenAIRequest struct {
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages,omitempty"`

	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`

	Temperature    *float64        `json:"temperature,omitempty"`
	TopP           *float64        `json:"top_p,omitempty"`
	TopK           *float64        `json:"top_k,omitempty"`
	N              *int            `json:"n,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stop           any             `json:"stop,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Reasoning      *Reasoning      `json:"reasoning,omitempty"`

	Tools      []Tool `json:"tools,omitempty"`
	ToolChoice any    `json:"tool_choice,omitempty"`

	// Embeddings
	Input      any `json:"input,omitempty"`
	Dimensions int `json:"dimensions,omitempty"`

	// Images
	Prompt              string `json:"prompt,omitempty"`
	Size                string `json:"size,omitempty"`
	ImageResponseFormat string `json:"-"`

	User string `json:"user,omitempty"`
}

// ParseInput normalizes the embeddings input field to a list of strings.
func (r GeneralOpenAIRequest) ParseInput() []string {
	if r.Input == nil {
		return nil
	}
	var input []string
	switch r.Input.(type) {
	case string:
		input = []string{r.Input.(string)}
	case []any:
		input = make([]string, 0, len(r.Input.([]any)))
		for _, item := range r.Input.([]any) {
			if str, ok := item.(string); ok {
				input = append(input, str)
			}
		}
	}
	return input
}

// ParseStop normalizes the stop field (string or array of strings) to a list.
func (r GeneralOpenAIRequest) ParseStop() []string {
	switch v := r.Stop.(type) {
	case string:
		return []string{v}
	case []any:
		stops := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				stops = append(stops, str)
			}
		}
		return stops
	default:
		return nil
	}
}

// NamedToolChoice decodes the object form of tool_choice, if present.
func (r GeneralOpenAIRequest) NamedToolChoice() (*NamedToolChoice, bool) {
	obj, ok := r.ToolChoice.(map[string]any)
	if !ok {
		return nil, false
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	var choice NamedToolChoice
	if err := json.Unmarshal(raw, &choice); err != nil {
		return nil, false
	}
	return &choice, choice.Function.Name != ""
}

// ImageRequest is the alternate image generation request.
type ImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
	User           string `json:"user,omitempty"`
}
