package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()

	server := newMCPServer(zerolog.Nop())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})
	return session
}

func TestMCP_ListTools(t *testing.T) {
	session := startTestSession(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "generate_client", result.Tools[0].Name)
}

func TestMCP_GenerateClient_DryRun(t *testing.T) {
	handler := generateClientHandler(zerolog.Nop())
	res, out, err := handler(context.Background(), &mcp.CallToolRequest{}, generateClientInput{
		Spec:        minimalSpecYAML,
		PackageName: "greet",
	})
	require.NoError(t, err)
	require.Nil(t, res)

	assert.Equal(t, "greet", out.PackageName)
	assert.False(t, out.Written)
	assert.Equal(t, []string{"greetings"}, out.Modules)
	assert.Equal(t, 1, out.Operations)
	names := make([]string, 0, len(out.Files))
	for _, f := range out.Files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"client.go", "doc.go", "errors.go", "greetings_client.go"}, names)
}

func TestMCP_GenerateClient_Writes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "greet")
	handler := generateClientHandler(zerolog.Nop())
	res, out, err := handler(context.Background(), &mcp.CallToolRequest{}, generateClientInput{
		Spec:      minimalSpecYAML,
		OutputDir: dir,
	})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.True(t, out.Written)
	assert.Equal(t, dir, out.OutputDir)

	_, statErr := os.Stat(filepath.Join(dir, "greetings_client.go"))
	assert.NoError(t, statErr)
}

func TestMCP_GenerateClient_InputErrors(t *testing.T) {
	handler := generateClientHandler(zerolog.Nop())
	for name, in := range map[string]generateClientInput{
		"nothing": {},
		"both":    {Spec: minimalSpecYAML, Input: "spec.yaml"},
		"garbage": {Spec: "not: [a, spec"},
	} {
		t.Run(name, func(t *testing.T) {
			res, _, err := handler(context.Background(), &mcp.CallToolRequest{}, in)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.True(t, res.IsError)
		})
	}
}
