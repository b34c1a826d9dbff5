package codegen

import (
	"bytes"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2client/internal/naming"
	"github.com/mark3labs/swagger2client/internal/spec"
)

func sampleModel() *spec.ServiceModel {
	next := "nextLink"
	return &spec.ServiceModel{
		Title:    "Things API",
		Version:  "2021-01-01",
		Endpoint: "https://things.example.com",
		Operations: []spec.Operation{
			{
				ID:         "Things_List",
				Method:     spec.GET,
				Path:       "/things",
				APIVersion: "2021-01-01",
				Pageable:   &spec.Pageable{NextLinkName: &next},
				Parameters: []spec.Parameter{
					{Name: "api-version", Location: spec.InQuery, Required: true, Schema: stringSchema},
					{Name: "ids", Location: spec.InQuery, Schema: vectorOf(stringSchema)},
				},
				Responses: []spec.Response{{Status: "200", Schema: modelSchema("ThingList")}},
			},
			{
				ID:          "Things_Create",
				Method:      spec.PUT,
				Path:        "/things/{name}/{version}",
				APIVersion:  "2021-01-01",
				LongRunning: true,
				Parameters: []spec.Parameter{
					{Name: "name", Location: spec.InPath, Required: true, Schema: stringSchema},
					{Name: "body", Location: spec.InBody, Required: true, Schema: modelSchema("Thing")},
				},
				Responses: []spec.Response{{Status: "200", Schema: modelSchema("Thing")}},
			},
			{
				Method:    spec.POST,
				Path:      "/upload",
				Parameters: []spec.Parameter{
					{Name: "file", Location: spec.InFormData, Required: true, Schema: &spec.SchemaRef{Type: "file"}},
				},
				Responses: []spec.Response{{Status: "204"}},
			},
		},
	}
}

func TestGenerate_Files(t *testing.T) {
	t.Parallel()

	res, err := New().Generate(sampleModel())
	require.NoError(t, err)

	assert.Equal(t, "thingsapi", res.PackageName)
	assert.Equal(t, []string{"things"}, res.Modules)

	var names []string
	for _, f := range res.Files {
		names = append(names, f.Name)
		_, perr := parser.ParseFile(token.NewFileSet(), f.Name, f.Content, parser.ParseComments)
		require.NoError(t, perr, "%s does not parse:\n%s", f.Name, f.Content)
		assert.True(t, strings.HasPrefix(string(f.Content), "// "+GeneratedHeader), f.Name)
	}
	assert.Equal(t, []string{"client.go", "errors.go", "operations.go", "things_client.go"}, names)

	var idents []string
	var modes []ExecMode
	for _, u := range res.Operations {
		idents = append(idents, u.Ident)
		modes = append(modes, u.Mode)
	}
	assert.Equal(t, []string{"ThingsList", "ThingsCreate", "PostUpload"}, idents)
	assert.Equal(t, []ExecMode{ExecStream, ExecLongRunning, ExecSingle}, modes)

	client := string(res.Files[0].Content)
	assert.Contains(t, client, `const DefaultEndpoint = "https://things.example.com"`)
	assert.Contains(t, client, "func (c *Client) ThingsClient() *ThingsClient {")

	errs := string(res.Files[1].Content)
	assert.Contains(t, errs, `"Things_List", "Things_Create", "POST /upload"`)

	ops := string(res.Files[2].Content)
	assert.Contains(t, ops, "func (c *Client) PostUpload(file []byte) *PostUploadBuilder {")
	assert.Contains(t, ops, "return nil, clientrt.ErrFormDataNotSupported")
}

func TestGenerate_Issues(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	res, err := New(WithPackageName("things"), WithLogger(zerolog.New(&logs))).Generate(sampleModel())
	require.NoError(t, err)
	assert.Equal(t, "things", res.PackageName)

	var got []string
	for _, is := range res.Issues {
		got = append(got, is.String())
	}
	want := []string{
		`warning: Things_List: query parameter "ids" uses collection format "csv" and is not sent`,
		"warning: Things_Create: path placeholder {version} has no matching parameter",
		"warning: Things_Create: long-running operation; only the initial response is returned",
		`warning: POST /upload: form data parameter "file" is not supported; the operation fails at runtime`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, res.WarningCount())
	assert.Equal(t, 4, strings.Count(logs.String(), `"level":"warn"`))
}

func TestGenerate_FirstPageOnlyIssue(t *testing.T) {
	t.Parallel()

	next := "nextLink"
	res, err := New().Generate(&spec.ServiceModel{
		Title: "Things",
		Operations: []spec.Operation{{
			ID:        "Things_List",
			Method:    spec.GET,
			Path:      "/things",
			Pageable:  &spec.Pageable{NextLinkName: &next},
			Responses: []spec.Response{{Status: "200", Schema: vectorOf(modelSchema("Thing"))}},
		}},
	})
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, `next link "nextLink" is not reachable from the response type; only the first page is fetched`, res.Issues[0].Message)
}

func TestGenerate_FailFast(t *testing.T) {
	t.Parallel()

	sm := sampleModel()
	sm.Operations[1].ID = "Things_Forbidden"
	gen := New(WithSanitizer(naming.SanitizerFunc(func(raw string) (string, error) {
		if raw == "forbidden" {
			return "", naming.ErrInvalidIdentifier
		}
		return naming.GoSanitizer{}.Sanitize(raw)
	})))
	res, err := gen.Generate(sm)
	require.Error(t, err)
	assert.Nil(t, res)
	var ne *NamingError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "Things_Forbidden", ne.Operation)
	assert.True(t, errors.Is(err, naming.ErrInvalidIdentifier))

	sm = sampleModel()
	sm.Operations[0].Responses[0].Schema = &spec.SchemaRef{Ref: "#/definitions/"}
	res, err = New().Generate(sm)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrTypeResolution))
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	first, err := New().Generate(sampleModel())
	require.NoError(t, err)
	second, err := New().Generate(sampleModel())
	require.NoError(t, err)
	require.Len(t, second.Files, len(first.Files))
	for i := range first.Files {
		assert.Equal(t, string(first.Files[i].Content), string(second.Files[i].Content), first.Files[i].Name)
	}
}

func TestGenerate_DuplicateIdentifiers(t *testing.T) {
	t.Parallel()

	res, err := New().Generate(&spec.ServiceModel{
		Title: "Things",
		Operations: []spec.Operation{
			{ID: "Things_Get", Method: spec.GET, Path: "/a", Responses: []spec.Response{{Status: "204"}}},
			{ID: "ThingsGet", Method: spec.GET, Path: "/b", Responses: []spec.Response{{Status: "204"}}},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Operations, 2)
	assert.Equal(t, "ThingsGet", res.Operations[0].Ident)
	assert.Equal(t, "ThingsGet2", res.Operations[1].Ident)
}

// declarations parses every generated file and returns the declared type
// names and the methods as "Receiver.Method", in file order.
func declarations(t *testing.T, res *Result) (types map[string]bool, methods []string) {
	t.Helper()
	types = map[string]bool{}
	fset := token.NewFileSet()
	for _, f := range res.Files {
		file, err := parser.ParseFile(fset, f.Name, f.Content, 0)
		require.NoError(t, err, "%s does not parse:\n%s", f.Name, f.Content)
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				for _, sp := range d.Specs {
					if ts, ok := sp.(*ast.TypeSpec); ok {
						require.False(t, types[ts.Name.Name], "type %s declared twice", ts.Name.Name)
						types[ts.Name.Name] = true
					}
				}
			case *ast.FuncDecl:
				if d.Recv == nil {
					continue
				}
				recv := d.Recv.List[0].Type
				if star, ok := recv.(*ast.StarExpr); ok {
					recv = star.X
				}
				methods = append(methods, recv.(*ast.Ident).Name+"."+d.Name.Name)
			}
		}
	}
	return types, methods
}

func TestGenerate_MethodNamesUniquePerReceiver(t *testing.T) {
	t.Parallel()

	noContent := []spec.Response{{Status: "204"}}
	res, err := New().Generate(&spec.ServiceModel{
		Title: "Things",
		Operations: []spec.Operation{
			{ID: "Things_List", Method: spec.GET, Path: "/things", Responses: noContent},
			{ID: "ThingsClient", Method: spec.GET, Path: "/client", Responses: noContent},
			{ID: "Things_Get", Method: spec.GET, Path: "/things/a", Responses: noContent},
			{ID: "Things_get", Method: spec.GET, Path: "/things/b", Responses: noContent},
		},
	})
	require.NoError(t, err)

	_, methods := declarations(t, res)
	seen := map[string]bool{}
	for _, m := range methods {
		assert.False(t, seen[m], "method %s declared twice", m)
		seen[m] = true
	}
	for _, m := range []string{
		"Client.ThingsClient",
		"Client.ThingsClient2",
		"ThingsClient.List",
		"ThingsClient.Get",
		"ThingsClient.Get2",
	} {
		assert.True(t, seen[m], "missing method %s in %v", m, methods)
	}

	var messages []string
	for _, is := range res.Issues {
		messages = append(messages, is.Message)
	}
	assert.Equal(t, []string{
		"method ThingsClient is already declared on Client; the entry point is ThingsClient2",
		"method Get is already declared on ThingsClient; the entry point is Get2",
	}, messages)
}

func TestGenerate_ModuleClientUsesSanitizedModule(t *testing.T) {
	t.Parallel()

	res, err := New().Generate(&spec.ServiceModel{
		Title: "Vault",
		Operations: []spec.Operation{
			{ID: "1Password_Get", Method: spec.GET, Path: "/items", Responses: []spec.Response{{Status: "204"}}},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Operations, 1)
	assert.Equal(t, "n1Password", res.Operations[0].ModuleIdent)

	types, methods := declarations(t, res)
	assert.True(t, types["N1PasswordClient"], "group client type missing: %v", types)
	assert.Contains(t, methods, "Client.N1PasswordClient")
	assert.Contains(t, methods, "N1PasswordClient.Get")
	for _, f := range res.Files {
		assert.NotContains(t, f.Name, "/")
	}
}

func TestPackageNameFor(t *testing.T) {
	t.Parallel()

	for title, want := range map[string]string{
		"Things API":  "thingsapi",
		"AVS-Client":  "avsclient",
		"":            "client",
		"123 Service": "client",
		"Überdienst":  "berdienst",
	} {
		assert.Equal(t, want, PackageNameFor(title), title)
	}
}
