package model

// Usage is the token usage block of the alternate API.
type Usage struct {
	// Omitting zero values via 'omitempty' is crucial to avoid emitting empty
	// usage blocks on surfaces that never produce one (e.g. image generation).
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
	// CompletionTokensDetails carries reasoning-token accounting when the
	// upstream reports thought tokens.
	CompletionTokensDetails *UsageCompletionTokensDetails `json:"output_tokens_details,omitempty"`
}

// UsageCompletionTokensDetails contains details about the completion tokens
// used in a request.
type UsageCompletionTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    any    `json:"code"`
	// RawError preserves the original upstream or internal error for diagnostics.
	// Omitted from JSON to avoid leaking provider internals.
	RawError error `json:"-"`
}

type ErrorWithStatusCode struct {
	Error
	StatusCode int `json:"status_code"`
}
