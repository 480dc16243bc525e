package helper

import (
	"fmt"

	"github.com/fuchsia74/gemini-pool/common/random"
)

const RequestIdKey = "X-Request-Id"

// GenRequestID returns a sortable per-request identifier.
func GenRequestID() string {
	return GetTimeString() + random.GetRandomString(8)
}

// MessageWithRequestId appends the request id to a user-facing error message so
// operators can correlate client reports with server logs.
func MessageWithRequestId(message string, id string) string {
	if id == "" {
		return message
	}
	return fmt.Sprintf("%s (request id: %s)", message, id)
}
