package clientrt

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"
)

const (
	// APIVersionParam is the query parameter carrying the service API version.
	APIVersionParam = "api-version"
	// PublicCloudEndpoint is the resource manager endpoint of the public cloud.
	PublicCloudEndpoint = "https://management.azure.com"
)

// NewRequest creates a request with an empty body.
func NewRequest(ctx context.Context, method string, u *url.URL) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	SetEmptyBody(req)
	return req, nil
}

// Authorize acquires a token for scopes and stamps the Authorization header.
func Authorize(ctx context.Context, req *http.Request, cred TokenCredential, scopes []string) error {
	tok, err := cred.GetToken(ctx, scopes...)
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	return nil
}

// SetBody replaces the request body with data. The body can be replayed on retry.
func SetBody(req *http.Request, data []byte) {
	if len(data) == 0 {
		SetEmptyBody(req)
		return
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.ContentLength = int64(len(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// SetEmptyBody marks the request as having no body.
func SetEmptyBody(req *http.Request) {
	req.Body = http.NoBody
	req.ContentLength = 0
	req.GetBody = func() (io.ReadCloser, error) { return http.NoBody, nil }
}

// AddQueryParam appends one name=value pair to the request URL.
func AddQueryParam(req *http.Request, name, value string) {
	q := req.URL.Query()
	q.Add(name, value)
	req.URL.RawQuery = q.Encode()
}

// HasQueryParam reports whether u already carries the named query parameter.
func HasQueryParam(u *url.URL, name string) bool {
	_, ok := u.Query()[name]
	return ok
}

// ResolveContinuation turns a next-link value into the URL of the next page.
// The endpoint path is cleared first so that relative links resolve against
// the service host; absolute links replace the endpoint entirely.
func ResolveContinuation(endpoint, token string) (*url.URL, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	base.Path, base.RawPath, base.RawQuery = "", "", ""
	ref, err := url.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("parse continuation %q: %w", token, err)
	}
	return base.ResolveReference(ref), nil
}

// FormatValue renders a non-string parameter value for a query string,
// header, or path segment. Slices are joined with commas.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
		return FormatValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = FormatValue(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
