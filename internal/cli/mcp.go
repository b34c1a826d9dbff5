package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	goemitter "github.com/mark3labs/swagger2client/internal/emitter/goemitter"
	genspec "github.com/mark3labs/swagger2client/internal/spec"
)

// Version is reported to MCP clients.
var Version = "dev"

const mcpInstructions = `swagger2client MCP server: generates Go API client packages from Swagger 2.0 / OpenAPI 3 documents.

Pass the document inline ("spec") or by path/URL ("input"). Without "output_dir" the tool only plans the files and returns them with the generation issues.`

type generateClientInput struct {
	Spec          string   `json:"spec,omitempty"           jsonschema:"Inline Swagger/OpenAPI document (JSON or YAML)"`
	Input         string   `json:"input,omitempty"          jsonschema:"Path or http(s) URL of the document"`
	PackageName   string   `json:"package_name,omitempty"   jsonschema:"Go package name of the client (derived from the title when omitted)"`
	ModelsPackage string   `json:"models_package,omitempty" jsonschema:"Import path of the package holding the model types"`
	IncludeTags   []string `json:"include_tags,omitempty"   jsonschema:"Only include operations with these tags"`
	ExcludeTags   []string `json:"exclude_tags,omitempty"   jsonschema:"Exclude operations with these tags"`
	OutputDir     string   `json:"output_dir,omitempty"     jsonschema:"Directory to write the package to; omit for a dry run"`
	Force         bool     `json:"force,omitempty"          jsonschema:"Overwrite a non-empty output directory"`
}

type generatedFileInfo struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type generateClientOutput struct {
	PackageName  string              `json:"package_name"`
	OutputDir    string              `json:"output_dir,omitempty"`
	Written      bool                `json:"written"`
	Files        []generatedFileInfo `json:"files"`
	Modules      []string            `json:"modules"`
	Operations   int                 `json:"operations"`
	WarningCount int                 `json:"warning_count"`
	Issues       []string            `json:"issues,omitempty"`
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve client generation as an MCP tool over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs go to stderr.
			log := newLogger(os.Stderr, verbose)
			return newMCPServer(log).Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

func newMCPServer(log zerolog.Logger) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "swagger2client", Version: Version},
		&mcp.ServerOptions{Instructions: mcpInstructions},
	)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_client",
		Description: "Generate a Go client package from a Swagger/OpenAPI document",
	}, generateClientHandler(log))
	return server
}

func generateClientHandler(log zerolog.Logger) func(context.Context, *mcp.CallToolRequest, generateClientInput) (*mcp.CallToolResult, generateClientOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input generateClientInput) (*mcp.CallToolResult, generateClientOutput, error) {
		doc, err := loadToolInput(ctx, input)
		if err != nil {
			return errResult(err), generateClientOutput{}, nil
		}
		cfg := &GenerateConfig{
			PackageName:   strings.TrimSpace(input.PackageName),
			ModelsPackage: strings.TrimSpace(input.ModelsPackage),
			IncludeTags:   sanitizeTags(input.IncludeTags),
			ExcludeTags:   sanitizeTags(input.ExcludeTags),
			Out:           strings.TrimSpace(input.OutputDir),
			Force:         input.Force,
			DryRun:        strings.TrimSpace(input.OutputDir) == "",
		}
		built, err := buildClient(ctx, doc, cfg, log)
		if err != nil {
			return errResult(err), generateClientOutput{}, nil
		}

		outDir := cfg.Out
		if outDir == "" {
			outDir = built.Gen.PackageName
		}
		res, err := goemitter.Emit(ctx, built.Model, built.Gen, goemitter.Options{
			OutDir: outDir,
			Force:  cfg.Force,
			DryRun: cfg.DryRun,
		})
		if err != nil {
			return errResult(err), generateClientOutput{}, nil
		}

		output := generateClientOutput{
			PackageName:  res.PackageName,
			Written:      !cfg.DryRun,
			Files:        make([]generatedFileInfo, 0, len(res.Planned)),
			Modules:      built.Gen.Modules,
			Operations:   len(built.Gen.Operations),
			WarningCount: built.Gen.WarningCount(),
		}
		if !cfg.DryRun {
			output.OutputDir = cfg.Out
		}
		for _, p := range res.Planned {
			output.Files = append(output.Files, generatedFileInfo{Name: p.RelPath, Size: p.Size})
		}
		for _, is := range built.Gen.Issues {
			output.Issues = append(output.Issues, is.String())
		}
		return nil, output, nil
	}
}

func loadToolInput(ctx context.Context, input generateClientInput) (*genspec.Document, error) {
	switch {
	case strings.TrimSpace(input.Spec) != "" && strings.TrimSpace(input.Input) != "":
		return nil, fmt.Errorf("provide either spec or input, not both")
	case strings.TrimSpace(input.Spec) != "":
		return genspec.LoadData(ctx, []byte(input.Spec))
	case strings.TrimSpace(input.Input) != "":
		return genspec.Load(ctx, strings.TrimSpace(input.Input))
	default:
		return nil, fmt.Errorf("spec or input is required")
	}
}

func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
