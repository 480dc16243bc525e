package gemini

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"

	relaymodel "github.com/fuchsia74/gemini-pool/relay/model"
)

// ErrorWrapper packages an internal error into the alternate error envelope.
func ErrorWrapper(err error, code string, statusCode int) *relaymodel.ErrorWithStatusCode {
	return &relaymodel.ErrorWithStatusCode{
		Error: relaymodel.Error{
			Message:  err.Error(),
			Type:     "gemini_pool_error",
			Code:     code,
			RawError: err,
		},
		StatusCode: statusCode,
	}
}

// RelayErrorHandler converts a non-2xx upstream response into an error that
// preserves the upstream body, so pool-exhaustion responses can surface the
// last upstream error verbatim.
func RelayErrorHandler(resp *http.Response) *relaymodel.ErrorWithStatusCode {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrorWrapper(errors.Wrap(err, "read upstream error body"), "read_upstream_error", resp.StatusCode)
	}

	errWithCode := &relaymodel.ErrorWithStatusCode{
		StatusCode: resp.StatusCode,
		Error: relaymodel.Error{
			Message: string(body),
			Type:    "upstream_error",
			Code:    resp.StatusCode,
		},
	}
	// upstream errors come as {"error": {...}}; keep the structured form when
	// it parses
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	if jsonErr := json.Unmarshal(body, &wrapped); jsonErr == nil && wrapped.Error.Message != "" {
		errWithCode.Error.Message = wrapped.Error.Message
		if wrapped.Error.Status != "" {
			errWithCode.Error.Type = wrapped.Error.Status
		}
		if wrapped.Error.Code != nil {
			errWithCode.Error.Code = wrapped.Error.Code
		}
	}
	if strings.TrimSpace(errWithCode.Error.Message) == "" {
		errWithCode.Error.Message = fmt.Sprintf("upstream returned status %d", resp.StatusCode)
	}
	return errWithCode
}
