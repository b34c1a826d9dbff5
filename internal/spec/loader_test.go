package spec

import (
    "context"
    "errors"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"
)

func TestLoad_BlocksFileURL(t *testing.T) {
    t.Parallel()
    ctx := context.Background()
    _, err := Load(ctx, "file:///etc/hosts")
    if err == nil {
        t.Fatalf("expected error for file:// URL")
    }
    var se *SpecError
    if !errors.As(err, &se) {
        t.Fatalf("expected SpecError, got %T", err)
    }
    if se.Code != InputError {
        t.Fatalf("expected InputError, got %v", se.Code)
    }
}

func TestLoad_UnsupportedScheme(t *testing.T) {
    t.Parallel()
    ctx := context.Background()
    _, err := Load(ctx, "ftp://example.com/spec.yaml")
    if err == nil {
        t.Fatalf("expected error for unsupported scheme")
    }
    var se *SpecError
    if !errors.As(err, &se) || se.Code != InputError {
        t.Fatalf("expected InputError, got %v (%T)", err, err)
    }
}

func TestLoad_NetworkError(t *testing.T) {
    t.Parallel()
    // Unused port to provoke a quick network failure.
    url := "http://127.0.0.1:1/spec.yaml"
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    _, err := Load(ctx, url, WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2))
    if err == nil {
        t.Fatalf("expected network error")
    }
    var se *SpecError
    if !errors.As(err, &se) || se.Code != NetworkError {
        t.Fatalf("expected NetworkError, got %v (%T)", err, err)
    }
}

func TestLoad_V3_InvalidSpec(t *testing.T) {
    t.Parallel()
    dir := t.TempDir()
    path := filepath.Join(dir, "bad.yaml")
    content := strings.TrimSpace(`openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`) + "\n"
    if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
        t.Fatalf("write: %v", err)
    }

    ctx := context.Background()
    _, err := Load(ctx, path)
    if err == nil {
        t.Fatalf("expected validation error for incomplete responses")
    }
    var se *SpecError
    if !errors.As(err, &se) {
        t.Fatalf("expected SpecError, got %T", err)
    }
    if se.Code != ValidationError && se.Code != ParseError { // parser version differences
        t.Fatalf("expected ValidationError/ParseError, got %v", se.Code)
    }
    if se.Location == "" {
        t.Fatalf("expected location to be set")
    }
}

func TestLoad_V2_KeptNative(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "swagger.yaml")
	content := strings.TrimSpace(`swagger: "2.0"
info:
  title: Sample
  version: "2021-01-01"
host: management.example.com
paths:
  "/things":
    get:
      operationId: Things_List
      x-ms-pageable:
        nextLinkName: nextLink
      parameters:
        - name: tags
          in: query
          type: array
          items:
            type: string
          collectionFormat: multi
      responses:
        "200":
          description: ok
`) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Version() != 2 || doc.V3 != nil {
		t.Fatalf("expected a native Swagger 2.0 document, got version %d", doc.Version())
	}
	if doc.Location != path {
		t.Fatalf("location: got %q, want %q", doc.Location, path)
	}
	op := doc.V2.Paths["/things"].Get
	if op == nil {
		t.Fatalf("missing GET /things")
	}
	if _, ok := op.Extensions["x-ms-pageable"]; !ok {
		t.Fatalf("x-ms-pageable extension dropped: %v", op.Extensions)
	}
	if got := op.Parameters[0].CollectionFormat; got != "multi" {
		t.Fatalf("collectionFormat: got %q", got)
	}
}

func TestLoad_UnknownVersion(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "unknown.yaml")
	if err := os.WriteFile(path, []byte("info:\n  title: Nothing\npaths: {}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(context.Background(), path)
	var se *SpecError
	if !errors.As(err, &se) || se.Code != ParseError {
		t.Fatalf("expected ParseError, got %v (%T)", err, err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoadData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	v3, err := LoadData(ctx, []byte(strings.TrimSpace(`
openapi: 3.0.0
info:
  title: Inline
  version: "1"
paths:
  /hello:
    get:
      responses:
        "200":
          description: ok
`)))
	if err != nil {
		t.Fatalf("load v3: %v", err)
	}
	if v3.Version() != 3 || v3.V3.Info.Title != "Inline" {
		t.Fatalf("unexpected v3 document: %+v", v3)
	}

	v2, err := LoadData(ctx, []byte(`{"swagger":"2.0","info":{"title":"Inline","version":"1"},"paths":{}}`))
	if err != nil {
		t.Fatalf("load v2: %v", err)
	}
	if v2.Version() != 2 || v2.V2.Info.Title != "Inline" {
		t.Fatalf("unexpected v2 document: %+v", v2)
	}

	if _, err := LoadData(ctx, []byte("{not json")); err == nil {
		t.Fatalf("expected parse error")
	}
}
