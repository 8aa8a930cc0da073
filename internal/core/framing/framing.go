// Package framing decides where one request ends inside a raw TCP byte stream.
package framing

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultBufferSize is the read chunk size used when none is configured.
const DefaultBufferSize = 8192

// maxHeadSize bounds how far we look for the end of a request head.
const maxHeadSize = 64 << 10

var headTerminator = []byte("\r\n\r\n")

var (
	// ErrUnframed is returned in strict mode when the data carries no request head.
	ErrUnframed = errors.New("request has no head to frame it")
	// ErrTruncated is returned when the peer closes before the declared length arrives.
	ErrTruncated = errors.New("connection closed before declared content length")
)

// Mode selects how the end of a request is detected.
type Mode string

const (
	// ModeAuto reads exactly head+Content-Length when the head declares a length,
	// and falls back to the short-read heuristic otherwise.
	ModeAuto Mode = "auto"
	// ModeLength requires a request head; the body is Content-Length bytes (0 if absent).
	ModeLength Mode = "length"
	// ModeShortRead stops at the first read that returns fewer bytes than the buffer.
	// A request whose size is an exact multiple of the buffer blocks until the peer
	// closes or the read deadline fires.
	ModeShortRead Mode = "short-read"
)

// ParseMode 将配置字符串转换为 Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeLength:
		return ModeLength, nil
	case ModeShortRead:
		return ModeShortRead, nil
	default:
		return "", fmt.Errorf("unknown framing mode %q", s)
	}
}

// Head describes the HTTP-like request head at the start of a raw request.
type Head struct {
	Size          int    // bytes up to and including the blank line
	ContentLength int64  // -1 when no Content-Length header is present
	ContentType   string
}

// ParseHead 尝试从数据开头解析一个完整的请求头。
// 数据中还没有空行，或者开头不是请求行时，返回 false。
func ParseHead(data []byte) (Head, bool) {
	limit := data
	if len(limit) > maxHeadSize {
		limit = limit[:maxHeadSize]
	}
	end := bytes.Index(limit, headTerminator)
	if end < 0 {
		return Head{}, false
	}
	size := end + len(headTerminator)

	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(data[:size])))
	if err != nil {
		return Head{}, false
	}

	head := Head{
		Size:          size,
		ContentLength: -1,
		ContentType:   req.Header.Get("Content-Type"),
	}
	if req.Header.Get("Content-Length") != "" && req.ContentLength >= 0 {
		head.ContentLength = req.ContentLength
	}
	return head, true
}

// Framer reads one complete request from a connection.
type Framer struct {
	BufferSize int
	Mode       Mode
}

// New 创建一个 Framer，bufferSize <= 0 时使用默认值。
func New(bufferSize int, mode Mode) *Framer {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if mode == "" {
		mode = ModeAuto
	}
	return &Framer{BufferSize: bufferSize, Mode: mode}
}

// ReadRequest accumulates reads from r until the request is judged complete.
// An empty result with a nil error means the peer sent nothing.
func (f *Framer) ReadRequest(r io.Reader) ([]byte, error) {
	bufSize := f.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	buf := make([]byte, bufSize)

	var acc bytes.Buffer
	want := -1 // total bytes expected once a head declares them

	for {
		n, err := r.Read(buf)
		acc.Write(buf[:n])

		if want < 0 && f.Mode != ModeShortRead {
			if head, ok := ParseHead(acc.Bytes()); ok {
				switch {
				case head.ContentLength >= 0:
					want = head.Size + int(head.ContentLength)
				case f.Mode == ModeLength:
					want = head.Size
				}
			} else if f.Mode == ModeLength && looksUnframed(acc.Bytes()) {
				return nil, ErrUnframed
			}
		}

		if want >= 0 && acc.Len() >= want {
			return acc.Bytes()[:want], nil
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				if want >= 0 {
					return nil, fmt.Errorf("%w: got %d of %d bytes", ErrTruncated, acc.Len(), want)
				}
				if f.Mode == ModeLength && acc.Len() > 0 {
					return nil, ErrUnframed
				}
				return acc.Bytes(), nil
			}
			return nil, err
		}

		if want < 0 && f.Mode != ModeLength && n < bufSize {
			return acc.Bytes(), nil
		}
	}
}

// looksUnframed reports whether enough data has arrived to know no request head
// can follow: either the first line is complete and is not a request line, or the
// head grew past maxHeadSize.
func looksUnframed(data []byte) bool {
	if len(data) > maxHeadSize {
		return true
	}
	lineEnd := bytes.Index(data, []byte("\r\n"))
	if lineEnd < 0 {
		return false
	}
	return !isRequestLine(string(data[:lineEnd]))
}

func isRequestLine(line string) bool {
	fields := strings.Fields(line)
	return len(fields) == 3 && strings.HasPrefix(fields[2], "HTTP/")
}
