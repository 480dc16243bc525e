package client

import (
	"net/http"
	"time"

	"github.com/fuchsia74/gemini-pool/common/config"
)

// HTTPClient issues relay requests to the upstream provider. Streaming
// responses keep the connection open, so the timeout only applies when
// RELAY_TIMEOUT is set explicitly.
var HTTPClient *http.Client

// UserContentRequestHTTPClient fetches caller-supplied URLs (image parts).
// It carries its own short timeout so a slow third-party host cannot stall a
// relay worker indefinitely.
var UserContentRequestHTTPClient *http.Client

func init() {
	if config.RelayTimeout == 0 {
		HTTPClient = &http.Client{}
	} else {
		HTTPClient = &http.Client{
			Timeout: time.Duration(config.RelayTimeout) * time.Second,
		}
	}

	UserContentRequestHTTPClient = &http.Client{
		Timeout: 30 * time.Second,
	}
}
