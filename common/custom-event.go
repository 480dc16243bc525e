package common

// Adapted from gin-contrib/sse: an SSE render that writes the event payload
// exactly as provided, without re-escaping already framed "data:" lines.

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	eventContentType = []string{"text/event-stream; charset=utf-8"}
	eventNoCache     = []string{"no-cache"}
)

var dataReplacer = strings.NewReplacer(
	"\n", "\ndata:",
	"\r", "\\r")

type CustomEvent struct {
	Event string
	Id    string
	Retry uint
	Data  interface{}
}

type stringWriter interface {
	io.Writer
	WriteString(string) (int, error)
}

type stringWrapper struct {
	io.Writer
}

func (w stringWrapper) WriteString(str string) (int, error) {
	return w.Writer.Write([]byte(str))
}

func checkWriter(writer io.Writer) stringWriter {
	if w, ok := writer.(stringWriter); ok {
		return w
	}
	return stringWrapper{writer}
}

func encode(writer io.Writer, event CustomEvent) error {
	w := checkWriter(writer)
	return writeData(w, event.Data)
}

func writeData(w stringWriter, data interface{}) error {
	if _, err := dataReplacer.WriteString(w, fmt.Sprint(data)); err != nil {
		return err
	}
	if strings.HasPrefix(data.(string), "data") {
		if _, err := w.WriteString("\n\n"); err != nil {
			return err
		}
	}
	return nil
}

func (r CustomEvent) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	return encode(w, r)
}

func (r CustomEvent) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	header["Content-Type"] = eventContentType

	if _, exist := header["Cache-Control"]; !exist {
		header["Cache-Control"] = eventNoCache
	}
}
