package gemini

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/gemini-pool/common/client"
	"github.com/fuchsia74/gemini-pool/common/config"
	"github.com/fuchsia74/gemini-pool/relay/meta"
	"github.com/fuchsia74/gemini-pool/relay/relaymode"
)

// Adaptor is the upstream client: it builds provider URLs, signs requests
// with the per-attempt credential, and executes them.
type Adaptor struct{}

func (a *Adaptor) Init(m *meta.Meta) {}

func (a *Adaptor) GetRequestURL(m *meta.Meta) (string, error) {
	version := config.UpstreamAPIVersion
	switch m.Mode {
	case relaymode.Native:
		path := strings.TrimPrefix(m.RequestURLPath, "/api")
		path = rewriteNativeAction(path)
		if m.IsStream && !strings.Contains(path, "alt=sse") {
			sep := "?"
			if strings.Contains(path, "?") {
				sep = "&"
			}
			path += sep + "alt=sse"
		}
		return m.BaseURL + path, nil
	case relaymode.ChatCompletions:
		action := "generateContent"
		if m.IsStream {
			action = "streamGenerateContent?alt=sse"
		}
		return fmt.Sprintf("%s/%s/models/%s:%s", m.BaseURL, version, m.ModelName, action), nil
	case relaymode.Embeddings:
		return fmt.Sprintf("%s/%s/models/%s:embedContent", m.BaseURL, version, m.ModelName), nil
	case relaymode.ImagesGenerations:
		if IsImagenModel(m.ModelName) {
			return fmt.Sprintf("%s/%s/models/%s:predict", m.BaseURL, version, m.ModelName), nil
		}
		return fmt.Sprintf("%s/%s/models/%s:generateContent", m.BaseURL, version, m.ModelName), nil
	case relaymode.ModelList:
		return fmt.Sprintf("%s/%s/models", m.BaseURL, version), nil
	default:
		return "", errors.Errorf("unsupported relay mode %d", m.Mode)
	}
}

// rewriteNativeAction maps the gateway's image action aliases onto the
// provider operations that actually serve them.
func rewriteNativeAction(path string) string {
	switch {
	case strings.HasSuffix(path, ":generateImageWithGemini"):
		return strings.TrimSuffix(path, ":generateImageWithGemini") + ":generateContent"
	case strings.HasSuffix(path, ":generateImageWithImagen"):
		return strings.TrimSuffix(path, ":generateImageWithImagen") + ":predict"
	default:
		return path
	}
}

func (a *Adaptor) SetupRequestHeader(c *gin.Context, req *http.Request, m *meta.Meta) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", m.APIKey)
	if m.IsStream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return nil
}

func (a *Adaptor) DoRequest(c *gin.Context, m *meta.Meta, requestBody io.Reader) (*http.Response, error) {
	fullRequestURL, err := a.GetRequestURL(m)
	if err != nil {
		return nil, errors.Wrap(err, "get request url failed")
	}

	req, err := http.NewRequestWithContext(gmw.Ctx(c), c.Request.Method, fullRequestURL, requestBody)
	if err != nil {
		return nil, errors.Wrap(err, "new request failed")
	}
	if err = a.SetupRequestHeader(c, req, m); err != nil {
		return nil, errors.Wrap(err, "setup request header failed")
	}

	resp, err := client.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request failed")
	}
	return resp, nil
}

// IsImagenModel reports whether a model name belongs to the Imagen family.
func IsImagenModel(modelName string) bool {
	return strings.Contains(strings.ToLower(modelName), "imagen")
}

// UpstreamGet issues a plain GET against the provider REST surface (model
// listing and metadata) under the given credential.
func UpstreamGet(c *gin.Context, path string, apiKey string) (*http.Response, error) {
	u := config.UpstreamBaseURL + path
	if _, err := url.Parse(u); err != nil {
		return nil, errors.Wrapf(err, "invalid upstream url %q", u)
	}
	req, err := http.NewRequestWithContext(gmw.Ctx(c), http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request failed")
	}
	req.Header.Set("x-goog-api-key", apiKey)
	resp, err := client.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request failed")
	}
	return resp, nil
}
