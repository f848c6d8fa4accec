package gallerd

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// JPEGContentType is the only media type the gallery stores.
const JPEGContentType = "image/jpeg"

// DecodeJPEGDataURL decodes a data-URL-encoded JPEG payload
// ("data:image/jpeg;base64,...") into raw bytes. The scheme prefix is
// optional; a bare base64 string is accepted the same way. The decoded
// bytes must sniff as JPEG or the payload is rejected with ErrInvalidInput.
func DecodeJPEGDataURL(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("decode data url: %w: empty payload", ErrInvalidInput)
	}

	payload := s
	if strings.HasPrefix(s, "data:") {
		header, rest, found := strings.Cut(s, ",")
		if !found {
			return nil, fmt.Errorf("decode data url: %w: missing data separator", ErrInvalidInput)
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("decode data url: %w: payload is not base64 encoded", ErrInvalidInput)
		}
		payload = rest
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w: invalid base64: %v", ErrInvalidInput, err)
	}

	if ct := http.DetectContentType(data); ct != JPEGContentType {
		return nil, fmt.Errorf("decode data url: %w: content is %s, expected %s", ErrInvalidInput, ct, JPEGContentType)
	}

	return data, nil
}
