package ctxkey

const (
	// RequestId is a per-request unique identifier, also echoed in error payloads.
	// Set in: middleware/request-id. Read in: middleware/utils and controllers.
	RequestId = "X-Request-Id"

	// PresentedKey is the raw credential the caller sent (bearer or x-goog-api-key).
	// Set in: middleware/auth. Read in: relay controllers for passthrough mode.
	PresentedKey = "presented_key"

	// PoolMode is true when the presented key matched the configured trigger key,
	// which authorizes use of the pooled credentials and enables retries.
	// Set in: middleware/auth. Read in: relay dispatch.
	PoolMode = "pool_mode"

	// RequestModel is the model name as requested by the client, taken from the
	// path for native requests and from body.model for alt requests.
	// Never mutate it; it must always reflect the caller's original input.
	// Set in: middleware/distributor. Read in: key selection, logging, responses.
	RequestModel = "request_model"

	// RelayMode records the classification of the request path.
	// Set in: middleware/distributor. Read in: relay dispatch.
	RelayMode = "relay_mode"

	// NativeAction is the provider action suffix (generateContent, countTokens, ...)
	// for native-classified requests.
	// Set in: middleware/distributor. Read in: the native router.
	NativeAction = "native_action"

	// KeyRequestBody caches the request body bytes so the relay pipeline can
	// re-send them across retries.
	// Set in: common.GetRequestBody. Read wherever the body is needed again.
	KeyRequestBody = "key_request_body"

	// Snapshot holds the per-request keypool.Snapshot of the persisted
	// configuration. A config change observed mid-request never disturbs the
	// request that already took its snapshot.
	// Set in: middleware/distributor. Read in: relay dispatch.
	Snapshot = "config_snapshot"

	// UpstreamKey is the credential chosen for the current attempt.
	// Set in: relay dispatch before each attempt. Read in: the gemini adaptor.
	UpstreamKey = "upstream_key"
)
