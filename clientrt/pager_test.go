package clientrt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Items    []string `json:"value"`
	NextLink string   `json:"nextLink"`
}

func (p page) Continuation() string { return p.NextLink }

// pagedFetcher serves pages keyed by request path; "/first" starts the walk.
func pagedFetcher(t *testing.T, pages map[string]string, requested *[]string) PageFetcher[page] {
	t.Helper()
	newReq := func(ctx context.Context, path string) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, "https://svc.example.com"+path, nil)
	}
	return PageFetcher[page]{
		First: func(ctx context.Context) (*http.Request, error) { return newReq(ctx, "/first") },
		Next: func(ctx context.Context, token string) (*http.Request, error) {
			u, err := ResolveContinuation("https://svc.example.com/ignored", token)
			if err != nil {
				return nil, err
			}
			return newReq(ctx, u.Path)
		},
		Do: func(req *http.Request) (*http.Response, error) {
			*requested = append(*requested, req.URL.Path)
			body, ok := pages[req.URL.Path]
			if !ok {
				return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(""))}, nil
			}
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}, nil
		},
		Decode: func(resp *http.Response) (page, error) {
			data, err := ReadBody(resp)
			if err != nil {
				return page{}, err
			}
			if resp.StatusCode != http.StatusOK {
				return page{}, NewHTTPError(resp, data)
			}
			var p page
			if err := UnmarshalJSON(data, &p); err != nil {
				return page{}, err
			}
			return p, nil
		},
		Wrap: func(err error) error { return fmt.Errorf("Things_List: %w", err) },
	}
}

func TestPager_WalksNextLinks(t *testing.T) {
	t.Parallel()

	var requested []string
	pager := NewPager(pagedFetcher(t, map[string]string{
		"/first":  `{"value":["a","b"],"nextLink":"/second?token=1"}`,
		"/second": `{"value":["c"],"nextLink":"https://svc.example.com/third"}`,
		"/third":  `{"value":["d"]}`,
	}, &requested))

	assert.Empty(t, requested, "no request before the first NextPage")

	var items []string
	for pager.More() {
		p, err := pager.NextPage(context.Background())
		require.NoError(t, err)
		items = append(items, p.Items...)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, items)
	assert.Equal(t, []string{"/first", "/second", "/third"}, requested)

	_, err := pager.NextPage(context.Background())
	assert.ErrorIs(t, err, ErrNoMorePages)
}

func TestPager_All(t *testing.T) {
	t.Parallel()

	var requested []string
	pager := NewPager(pagedFetcher(t, map[string]string{
		"/first":  `{"value":["a"],"nextLink":"/second"}`,
		"/second": `{"value":["b"],"nextLink":"/missing"}`,
	}, &requested))

	var (
		items []string
		errs  []error
	)
	for p, err := range pager.All(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, p.Items...)
	}
	assert.Equal(t, []string{"a", "b"}, items)
	require.Len(t, errs, 1)

	var he *HTTPError
	require.True(t, errors.As(errs[0], &he))
	assert.Equal(t, http.StatusNotFound, he.StatusCode)
	assert.True(t, strings.HasPrefix(errs[0].Error(), "Things_List: "))
}

func TestPager_EmptyFirstPage(t *testing.T) {
	t.Parallel()

	var requested []string
	pager := NewPager(pagedFetcher(t, map[string]string{"/first": `{"value":[]}`}, &requested))
	p, err := pager.NextPage(context.Background())
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.False(t, pager.More())
}
