package image_test

import (
	"encoding/base64"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/fuchsia74/gemini-pool/common/image"
)

func TestParseDataURL(t *testing.T) {
	Convey("base64 data URLs split into mime and payload", t, func() {
		mimeType, data, ok := image.ParseDataURL("data:image/png;base64,aW1hZ2U=")
		So(ok, ShouldBeTrue)
		So(mimeType, ShouldEqual, "image/png")
		So(data, ShouldEqual, "aW1hZ2U=")
	})

	Convey("plain-text data URLs are re-encoded to base64", t, func() {
		mimeType, data, ok := image.ParseDataURL("data:text/plain,hello")
		So(ok, ShouldBeTrue)
		So(mimeType, ShouldEqual, "text/plain")
		decoded, err := base64.StdEncoding.DecodeString(data)
		So(err, ShouldBeNil)
		So(string(decoded), ShouldEqual, "hello")
	})

	Convey("non data URLs do not match", t, func() {
		_, _, ok := image.ParseDataURL("https://example.com/cat.png")
		So(ok, ShouldBeFalse)
	})
}

func TestGetImageFromUrlRejectsUnknownSchemes(t *testing.T) {
	Convey("only data and http(s) URLs are accepted", t, func() {
		_, _, err := image.GetImageFromUrl("ftp://example.com/cat.png")
		So(err, ShouldNotBeNil)
	})
}
