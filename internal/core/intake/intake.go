// Package intake decides what a raw request carries and which bytes get persisted.
package intake

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"socketdrop/internal/core/formdata"
	"socketdrop/internal/core/framing"
	"socketdrop/internal/shared/types"
)

const (
	ImageField = "image"
	ImageExt   = ".jpg"
	GenericExt = ".bin"
)

var formDataMarker = []byte("Content-Disposition: form-data")

// ErrMalformedMultipart is returned when a request looks like a form upload but
// cannot be split into parts. Nothing should be persisted for such a request.
var ErrMalformedMultipart = errors.New("malformed multipart request")

// Payload 是需要落盘的一段数据
type Payload struct {
	Ext  string
	Data []byte
}

// Request is the outcome of classifying one raw request.
type Request struct {
	Kind     types.Kind
	Boundary string
	Parts    int // number of multipart parts seen
	Payloads []Payload
	Text     string // decoded text of a generic request, when IsText
	IsText   bool
}

// Classify reports KindMultipart when the form-data disposition marker occurs
// anywhere in raw.
func Classify(raw []byte) types.Kind {
	if len(raw) == 0 {
		return types.KindEmpty
	}
	if bytes.Contains(raw, formDataMarker) {
		return types.KindMultipart
	}
	return types.KindGeneric
}

// Extract classifies raw and isolates the payloads to persist.
func Extract(raw []byte) (*Request, error) {
	kind := Classify(raw)
	switch kind {
	case types.KindEmpty:
		return &Request{Kind: kind}, nil
	case types.KindMultipart:
		return extractMultipart(raw)
	default:
		req := &Request{
			Kind:     kind,
			Payloads: []Payload{{Ext: GenericExt, Data: raw}},
		}
		if utf8.Valid(raw) {
			req.Text = string(raw)
			req.IsText = true
		}
		return req, nil
	}
}

// extractMultipart 定位 multipart 报文体并取出所有名为 image 的分段。
// 报文以请求头开始时，报文体从空行之后开始，boundary 优先取自 Content-Type。
func extractMultipart(raw []byte) (*Request, error) {
	body := raw
	boundary := ""

	if head, ok := framing.ParseHead(raw); ok {
		body = raw[head.Size:]
		boundary, _ = formdata.BoundaryFromContentType(head.ContentType)
	}
	if boundary == "" {
		b, err := formdata.Boundary(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMultipart, err)
		}
		boundary = b
	}

	parts, err := formdata.Parse(body, boundary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMultipart, err)
	}

	req := &Request{
		Kind:     types.KindMultipart,
		Boundary: boundary,
		Parts:    len(parts),
	}
	for _, p := range parts {
		if p.Name == ImageField {
			req.Payloads = append(req.Payloads, Payload{Ext: ImageExt, Data: p.Body})
		}
	}
	return req, nil
}
