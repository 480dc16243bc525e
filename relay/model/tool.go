package model

// Tool is both a tool declaration on requests (Function.Parameters set) and a
// tool invocation on responses (Function.Arguments set).
type Tool struct {
	Id   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
	// Index identifies the tool call slot in streaming deltas.
	Index    *int     `json:"index,omitempty"`
	Function Function `json:"function"`
}

type Function struct {
	Description string `json:"description,omitempty"`
	Name        string `json:"name,omitempty"`
	// Parameters is the raw JSON schema of a declared function; it is passed
	// through to the provider without translation.
	Parameters any `json:"parameters,omitempty"`
	// Arguments is the JSON-encoded argument object of an invoked function.
	Arguments string `json:"arguments,omitempty"`
}

// NamedToolChoice is the object form of tool_choice.
type NamedToolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}
