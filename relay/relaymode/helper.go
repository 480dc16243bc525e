package relaymode

import (
	"regexp"
	"strings"
)

// nativeActions are the provider action suffixes the gateway understands.
var nativeActions = map[string]bool{
	"generateContent":         true,
	"streamGenerateContent":   true,
	"embedContent":            true,
	"batchEmbedContents":      true,
	"countTokens":             true,
	"generateImageWithGemini": true,
	"generateImageWithImagen": true,
}

var nativeModelsPattern = regexp.MustCompile(`^/v[0-9][^/]*/models`)

// GetByPath classifies a request path with the gateway prefix already
// stripped. The classifier never reads the request body.
func GetByPath(path string) int {
	if action := NativeAction(path); action != "" && nativeActions[action] {
		return Native
	}
	// the alt listing lives at /v1/models; it would otherwise match the
	// provider-style models pattern below
	if path == "/v1/models" {
		return ModelList
	}
	switch {
	case nativeModelsPattern.MatchString(path),
		strings.Contains(path, "/tunedModels/"):
		return Native
	case strings.HasSuffix(path, "/chat/completions"):
		return ChatCompletions
	case strings.HasSuffix(path, "/embeddings"):
		return Embeddings
	case strings.HasSuffix(path, "/images/generations"):
		return ImagesGenerations
	case strings.HasSuffix(path, "/models"):
		return ModelList
	default:
		return Unknown
	}
}

// NativeAction returns the provider action suffix (the segment after the last
// colon), or "" when the path carries none.
func NativeAction(path string) string {
	idx := strings.LastIndex(path, ":")
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return path[idx+1:]
}

// ModelFromPath extracts the model identifier from a provider-style path: the
// segment following "models/" or "tunedModels/" up to the colon, if any.
func ModelFromPath(path string) string {
	for _, marker := range []string{"tunedModels/", "models/"} {
		idx := strings.Index(path, marker)
		if idx < 0 {
			continue
		}
		rest := path[idx+len(marker):]
		if end := strings.IndexAny(rest, ":/"); end >= 0 {
			rest = rest[:end]
		}
		return rest
	}
	return ""
}
