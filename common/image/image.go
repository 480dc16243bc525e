package image

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/Laisky/errors/v2"
	_ "golang.org/x/image/webp"

	"github.com/fuchsia74/gemini-pool/common/client"
	"github.com/fuchsia74/gemini-pool/common/config"
)

// Regex to match data URL pattern. The mime type is group 1 and the payload is
// group 3; group 2 only records whether the ";base64" marker was present.
var dataURLPattern = regexp.MustCompile(`^data:(.*?)(;base64)?,(.*)$`)

// ParseDataURL splits a data: URL into its mime type and base64 payload.
func ParseDataURL(url string) (mimeType string, data string, ok bool) {
	matches := dataURLPattern.FindStringSubmatch(url)
	if matches == nil {
		return "", "", false
	}
	mimeType = matches[1]
	data = matches[3]
	if matches[2] == "" {
		// plain-text data URL, re-encode so callers always receive base64
		data = base64.StdEncoding.EncodeToString([]byte(data))
	}
	return mimeType, data, true
}

// GetImageFromUrl returns the mime type and base64 payload for an image
// reference, which may be a data URL or an HTTP(S) URL.
func GetImageFromUrl(url string) (mimeType string, data string, err error) {
	if mimeType, data, ok := ParseDataURL(url); ok {
		return mimeType, data, nil
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", "", errors.Errorf("unsupported image URL scheme: %s", url)
	}

	resp, err := client.UserContentRequestHTTPClient.Get(url)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to fetch image URL: %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", errors.Errorf("failed to fetch image URL: %s, status code: %d", url, resp.StatusCode)
	}

	maxSize := int64(config.MaxInlineImageSizeMB) * 1024 * 1024
	if resp.ContentLength > maxSize {
		return "", "", errors.Errorf("image size should not exceed %dMB: %s, size: %d",
			config.MaxInlineImageSizeMB, url, resp.ContentLength)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return "", "", errors.Wrap(err, "read image body")
	}
	if int64(len(raw)) > maxSize {
		return "", "", errors.Errorf("image size should not exceed %dMB: %s", config.MaxInlineImageSizeMB, url)
	}

	mimeType = strings.ToLower(strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0]))
	if mimeType == "" || mimeType == "application/octet-stream" {
		// servers that return an opaque content type still often serve images;
		// sniff the registered decoders before giving up
		if _, format, derr := image.DecodeConfig(bytes.NewReader(raw)); derr == nil {
			mimeType = "image/" + format
		} else {
			return "", "", errors.Errorf("invalid content type for image URL: %s", url)
		}
	}

	return mimeType, base64.StdEncoding.EncodeToString(raw), nil
}
