package model

import "encoding/json"

const (
	ContentTypeText     = "text"
	ContentTypeImageURL = "image_url"
)

type Message struct {
	Role string `json:"role,omitempty"`
	// Content is a string or a list of content parts; use StringContent or
	// ParseContent to consume it.
	Content    any    `json:"content,omitempty"`
	Name       string `json:"name,omitempty"`
	ToolCalls  []Tool `json:"tool_calls,omitempty"`
	ToolCallId string `json:"tool_call_id,omitempty"`
}

type MessageContent struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	Url    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// StringContent flattens the message content to plain text, concatenating the
// text items of array-form content.
func (m Message) StringContent() string {
	content, ok := m.Content.(string)
	if ok {
		return content
	}
	contentList, ok := m.Content.([]any)
	if !ok {
		return ""
	}
	var contentStr string
	for _, contentItem := range contentList {
		contentMap, ok := contentItem.(map[string]any)
		if !ok {
			continue
		}
		if contentMap["type"] == ContentTypeText {
			if subStr, ok := contentMap["text"].(string); ok {
				contentStr += subStr
			}
		}
	}
	return contentStr
}

// ParseContent normalizes the content field into a list of typed items.
func (m Message) ParseContent() []MessageContent {
	var contentList []MessageContent
	content, ok := m.Content.(string)
	if ok {
		contentList = append(contentList, MessageContent{
			Type: ContentTypeText,
			Text: content,
		})
		return contentList
	}
	anyList, ok := m.Content.([]any)
	if !ok {
		return contentList
	}
	for _, contentItem := range anyList {
		contentMap, ok := contentItem.(map[string]any)
		if !ok {
			continue
		}
		switch contentMap["type"] {
		case ContentTypeText:
			if subStr, ok := contentMap["text"].(string); ok {
				contentList = append(contentList, MessageContent{
					Type: ContentTypeText,
					Text: subStr,
				})
			}
		case ContentTypeImageURL:
			if subObj, ok := contentMap["image_url"].(map[string]any); ok {
				url, _ := subObj["url"].(string)
				contentList = append(contentList, MessageContent{
					Type:     ContentTypeImageURL,
					ImageURL: &ImageURL{Url: url},
				})
			}
		}
	}
	return contentList
}

// IsEmpty reports whether the message carries neither content nor tool calls.
func (m Message) IsEmpty() bool {
	return m.StringContent() == "" && len(m.ToolCalls) == 0
}

// MarshalArguments renders a function-call argument object as the JSON string
// the alternate API expects.
func MarshalArguments(args map[string]any) string {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
