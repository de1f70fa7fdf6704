package core

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// EncodedImage is an encoded raster (PNG, JPEG, WebP...) together with its
// MIME type. It is persisted as a data URL string.
type EncodedImage struct {
	MimeType string
	Data     []byte
}

func NewPNG(data []byte) EncodedImage {
	return EncodedImage{MimeType: "image/png", Data: data}
}

func (e EncodedImage) IsZero() bool {
	return len(e.Data) == 0
}

func (e EncodedImage) Equal(other EncodedImage) bool {
	return e.MimeType == other.MimeType && bytes.Equal(e.Data, other.Data)
}

// DataURL renders the image as "data:<mime>;base64,<payload>".
func (e EncodedImage) DataURL() string {
	if e.IsZero() {
		return ""
	}
	mime := e.MimeType
	if mime == "" {
		mime = http.DetectContentType(e.Data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(e.Data)
}

// ParseDataURL accepts either a base64 data URL or a bare base64 payload.
// For bare payloads the MIME type is sniffed from the decoded bytes.
func ParseDataURL(raw string) (EncodedImage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EncodedImage{}, nil
	}

	mime := ""
	payload := raw
	if strings.HasPrefix(raw, "data:") {
		header, body, ok := strings.Cut(raw, ",")
		if !ok {
			return EncodedImage{}, fmt.Errorf("%w: malformed data URL", ErrValidation)
		}
		header = strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(header, ";base64") {
			return EncodedImage{}, fmt.Errorf("%w: data URL is not base64 encoded", ErrValidation)
		}
		mime = strings.TrimSuffix(header, ";base64")
		payload = body
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("%w: invalid base64 image payload: %v", ErrValidation, err)
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return EncodedImage{MimeType: mime, Data: data}, nil
}

func (e EncodedImage) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.DataURL())
}

func (e *EncodedImage) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDataURL(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
