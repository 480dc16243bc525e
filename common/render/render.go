package render

import (
	"encoding/json"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/common"
)

// StringData writes one SSE data line and flushes it immediately.
func StringData(c *gin.Context, str string) {
	str = strings.TrimPrefix(str, "data: ")
	str = strings.TrimSuffix(str, "\r")
	c.Render(-1, common.CustomEvent{Data: "data: " + str})
	c.Writer.Flush()
}

// ObjectData marshals object and writes it as one SSE data line.
func ObjectData(c *gin.Context, object any) error {
	jsonData, err := json.Marshal(object)
	if err != nil {
		return errors.Wrap(err, "marshal event payload")
	}
	StringData(c, string(jsonData))
	return nil
}

// Done writes the stream terminator frame.
func Done(c *gin.Context) {
	StringData(c, "[DONE]")
}
