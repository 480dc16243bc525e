package relaymode

const (
	Unknown = iota
	// ChatCompletions is the alternate chat surface (/chat/completions).
	ChatCompletions
	// Embeddings is the alternate embeddings surface (/embeddings).
	Embeddings
	// ImagesGenerations is the alternate image surface (/images/generations).
	ImagesGenerations
	// ModelList is the alternate model listing (/models).
	ModelList
	// Native covers every provider-style path; the action suffix selects the
	// upstream operation.
	Native
)
