package services

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const defaultImageMIME = "image/jpeg"

// ImageInput is a decoded inline image handed to the generative model.
type ImageInput struct {
	MIMEType string
	Data     []byte
}

// ParseDataURL decodes "data:<mime>;base64,<payload>".
func ParseDataURL(dataURL string) (*ImageInput, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, fmt.Errorf("invalid data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URL")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" {
		return nil, fmt.Errorf("data URL is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return &ImageInput{MIMEType: mime, Data: data}, nil
}

// EncodeDataURL builds an inline data URL; an empty or generic mime is sniffed from the bytes.
func EncodeDataURL(mime string, data []byte) string {
	mime = strings.TrimSpace(mime)
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
		if !strings.HasPrefix(mime, "image/") {
			mime = defaultImageMIME
		}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
