package clientrt

import (
	"fmt"
	"io"
	"net/http"

	"github.com/segmentio/encoding/json"
)

// MarshalJSON encodes a request body.
func MarshalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return data, nil
}

// UnmarshalJSON decodes a response body into v.
func UnmarshalJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// ReadBody drains and closes the response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return data, nil
}

// SetJSONBody encodes v as the request body.
func SetJSONBody(req *http.Request, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return err
	}
	SetBody(req, data)
	return nil
}
