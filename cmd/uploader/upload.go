package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"socketdrop/internal/shared/logger"
)

// Upload posts data as the "image" field of a multipart form and returns the
// response body.
func Upload(url, fileName string, data []byte, timeout time.Duration) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", filepath.Base(fileName))
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	client := &http.Client{Timeout: timeout}
	logger.Debug().Str("url", url).Int("size", body.Len()).Msg("Uploading")
	resp, err := client.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(text), nil
}
