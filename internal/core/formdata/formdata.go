// Package formdata splits a multipart/form-data body into its parts.
package formdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
)

var (
	ErrNoBoundary = errors.New("multipart body has no boundary line")
	ErrMalformed  = errors.New("malformed multipart body")
)

// Part 是 multipart 报文中的一个分段
type Part struct {
	Header   textproto.MIMEHeader
	Name     string
	FileName string
	Body     []byte
}

// Boundary returns the boundary marker taken from the first line of body, without
// the leading "--".
func Boundary(body []byte) (string, error) {
	end := bytes.Index(body, []byte("\r\n"))
	if end < 0 {
		return "", ErrNoBoundary
	}
	line := string(body[:end])
	if !strings.HasPrefix(line, "--") || len(line) == 2 {
		return "", fmt.Errorf("%w: first line %q", ErrNoBoundary, line)
	}
	return strings.TrimPrefix(line, "--"), nil
}

// BoundaryFromContentType 从 Content-Type 头中取出 boundary 参数
func BoundaryFromContentType(contentType string) (string, bool) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return "", false
	}
	boundary, ok := params["boundary"]
	return boundary, ok && boundary != ""
}

// Parse reads every part of body. Part bodies are returned byte for byte, with
// no transfer decoding. A body that does not close with the final boundary is
// reported as ErrMalformed.
func Parse(body []byte, boundary string) ([]Part, error) {
	if boundary == "" {
		return nil, ErrNoBoundary
	}
	reader := multipart.NewReader(bytes.NewReader(body), boundary)

	var parts []Part
	for {
		p, err := reader.NextRawPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		data, err := io.ReadAll(p)
		if err != nil {
			return nil, fmt.Errorf("%w: reading part %d: %v", ErrMalformed, len(parts), err)
		}
		parts = append(parts, Part{
			Header:   p.Header,
			Name:     p.FormName(),
			FileName: p.FileName(),
			Body:     data,
		})
		p.Close()
	}
	return parts, nil
}
