package intake

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"socketdrop/internal/shared/types"
)

var jpeg = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\r\n\r\n\x00\xff\xd9")

func multipartBody(boundary string, parts ...string) []byte {
	var b bytes.Buffer
	for _, p := range parts {
		b.WriteString(boundary + "\r\n")
		b.WriteString(p)
		b.WriteString("\r\n")
	}
	b.WriteString(boundary + "--\r\n")
	return b.Bytes()
}

func imagePart(data []byte) string {
	return "Content-Disposition: form-data; name=\"image\"; filename=\"test.jpg\"\r\n" +
		"Content-Type: image/jpeg\r\n\r\n" + string(data)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		raw  string
		want types.Kind
	}{
		{"", types.KindEmpty},
		{"GET /health HTTP/1.1", types.KindGeneric},
		{"x\r\nContent-Disposition: form-data; name=\"a\"\r\n", types.KindMultipart},
		{"content-disposition: form-data", types.KindGeneric},
	}
	for _, c := range cases {
		if got := Classify([]byte(c.raw)); got != c.want {
			t.Errorf("Classify(%q) = %s, want %s", c.raw, got, c.want)
		}
	}
}

func TestExtract_GenericIsVerbatim(t *testing.T) {
	raw := []byte("GET /health HTTP/1.1")
	req, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract() returned an error: %v", err)
	}
	if req.Kind != types.KindGeneric {
		t.Fatalf("Expected generic kind, got %s", req.Kind)
	}
	if len(req.Payloads) != 1 || req.Payloads[0].Ext != GenericExt || !bytes.Equal(req.Payloads[0].Data, raw) {
		t.Fatalf("Expected one .bin payload equal to the input, got %+v", req.Payloads)
	}
	if !req.IsText || req.Text != string(raw) {
		t.Errorf("Expected decoded text %q, got %q (isText=%v)", raw, req.Text, req.IsText)
	}
}

func TestExtract_GenericBinaryStillPersisted(t *testing.T) {
	raw := []byte{0xff, 0xfe, 0x00, 0x80}
	req, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract() returned an error: %v", err)
	}
	if req.IsText {
		t.Error("Expected invalid UTF-8 not to be decoded")
	}
	if len(req.Payloads) != 1 || !bytes.Equal(req.Payloads[0].Data, raw) {
		t.Fatalf("Expected raw bytes to be persisted, got %+v", req.Payloads)
	}
}

func TestExtract_BareMultipartImage(t *testing.T) {
	raw := multipartBody("----X", imagePart(jpeg))
	req, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract() returned an error: %v", err)
	}
	if req.Boundary != "--X" {
		t.Errorf("Expected boundary '--X', got %q", req.Boundary)
	}
	if len(req.Payloads) != 1 {
		t.Fatalf("Expected one payload, got %d", len(req.Payloads))
	}
	if req.Payloads[0].Ext != ImageExt || !bytes.Equal(req.Payloads[0].Data, jpeg) {
		t.Errorf("Expected .jpg payload equal to the image bytes, got %q", req.Payloads[0].Data)
	}
}

func TestExtract_HTTPHeadedMultipart(t *testing.T) {
	body := multipartBody("--abc123",
		"Content-Disposition: form-data; name=\"note\"\r\n\r\nhi",
		imagePart(jpeg),
	)
	raw := []byte(fmt.Sprintf("POST / HTTP/1.1\r\nHost: 127.0.0.1:8000\r\n"+
		"Content-Type: multipart/form-data; boundary=abc123\r\nContent-Length: %d\r\n\r\n%s", len(body), body))

	req, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract() returned an error: %v", err)
	}
	if req.Boundary != "abc123" {
		t.Errorf("Expected boundary from Content-Type, got %q", req.Boundary)
	}
	if req.Parts != 2 {
		t.Errorf("Expected 2 parts, got %d", req.Parts)
	}
	if len(req.Payloads) != 1 || !bytes.Equal(req.Payloads[0].Data, jpeg) {
		t.Fatalf("Expected the image payload only, got %+v", req.Payloads)
	}
}

func TestExtract_MultipleImageParts(t *testing.T) {
	raw := multipartBody("----X", imagePart([]byte("one")), imagePart([]byte("two")))
	req, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract() returned an error: %v", err)
	}
	if len(req.Payloads) != 2 || string(req.Payloads[0].Data) != "one" || string(req.Payloads[1].Data) != "two" {
		t.Fatalf("Expected payloads 'one' and 'two', got %+v", req.Payloads)
	}
}

func TestExtract_NoImagePart(t *testing.T) {
	raw := multipartBody("----X", "Content-Disposition: form-data; name=\"avatar\"\r\n\r\nxyz")
	req, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract() returned an error: %v", err)
	}
	if req.Kind != types.KindMultipart || len(req.Payloads) != 0 {
		t.Fatalf("Expected multipart with no payloads, got %+v", req)
	}
}

func TestExtract_MalformedMultipart(t *testing.T) {
	cases := map[string]string{
		"no boundary line":   "Content-Disposition: form-data; name=\"image\"",
		"boundary not --":    "BOUNDARY\r\nContent-Disposition: form-data; name=\"image\"\r\n\r\nabc\r\nBOUNDARY--\r\n",
		"no closing marker":  "----X\r\nContent-Disposition: form-data; name=\"image\"\r\n\r\nabc",
		"no blank separator": "----X\r\nContent-Disposition: form-data; name=\"image\"\r\nabc\r\n----X--\r\n",
	}
	for name, raw := range cases {
		req, err := Extract([]byte(raw))
		if !errors.Is(err, ErrMalformedMultipart) {
			t.Errorf("[%s] Expected ErrMalformedMultipart, got req=%+v err=%v", name, req, err)
		}
	}
}
