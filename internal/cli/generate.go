package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2client/internal/codegen"
	goemitter "github.com/mark3labs/swagger2client/internal/emitter/goemitter"
	genspec "github.com/mark3labs/swagger2client/internal/spec"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging the config file, environment, and CLI overrides.
type GenerateConfig struct {
	Input         string
	Out           string
	PackageName   string
	ModuleName    string
	ModelsPackage string
	IncludeTags   []string
	ExcludeTags   []string
	Methods       []string
	ConfigPath    string
	DryRun        bool
	Force         bool
	Verbose       bool
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Go client package from an OpenAPI/Swagger document",
		Long: "Generate a Go client package from an OpenAPI/Swagger document. " +
			"Options can be provided via flags, SWAGGER2CLIENT_* environment variables, or a config file.",
		Example: strings.TrimSpace(`  swagger2client generate --input spec.json --out ./avs --package-name avs
  swagger2client --config config.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("out", "", "Output directory (derived from the package name when omitted)")
	flags.String("package-name", "", "Go package name of the generated client (derived from the title when omitted)")
	flags.String("module-name", "", "Also write a go.mod declaring this module path")
	flags.String("models-package", "", "Import path of the package holding the model types")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include operations with these HTTP methods")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)

	k, err := loadLayers(cmd.Flags(), configPath)
	if err != nil {
		return nil, err
	}

	cfg := GenerateConfig{ConfigPath: configPath}
	for key, dst := range map[string]*string{
		"input":         &cfg.Input,
		"out":           &cfg.Out,
		"packageName":   &cfg.PackageName,
		"moduleName":    &cfg.ModuleName,
		"modelsPackage": &cfg.ModelsPackage,
	} {
		if *dst, err = layerString(k, key); err != nil {
			return nil, err
		}
	}
	for key, dst := range map[string]*[]string{
		"includeTags": &cfg.IncludeTags,
		"excludeTags": &cfg.ExcludeTags,
		"methods":     &cfg.Methods,
	} {
		if *dst, err = layerStrings(k, key); err != nil {
			return nil, err
		}
	}
	for key, dst := range map[string]*bool{
		"dryRun":  &cfg.DryRun,
		"force":   &cfg.Force,
		"verbose": &cfg.Verbose,
	} {
		if *dst, err = layerBool(k, key); err != nil {
			return nil, err
		}
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.PackageName = strings.TrimSpace(c.PackageName)
	c.ModuleName = strings.TrimSpace(c.ModuleName)
	c.ModelsPackage = strings.TrimSpace(c.ModelsPackage)
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	methods := c.Methods[:0:0]
	for _, m := range sanitizeTags(c.Methods) {
		methods = append(methods, strings.ToLower(m))
	}
	c.Methods = sanitizeTags(methods)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag, environment, or config file)")
	}
	if c.PackageName != "" && codegen.PackageNameFor(c.PackageName) != c.PackageName {
		return newUsageError(fmt.Sprintf("generate: --package-name %q is not a valid Go package name", c.PackageName))
	}
	for _, m := range c.Methods {
		switch genspec.HttpMethod(m) {
		case genspec.GET, genspec.POST, genspec.PUT, genspec.PATCH, genspec.DELETE, genspec.OPTIONS, genspec.HEAD:
		default:
			return newUsageError(fmt.Sprintf("generate: unsupported method %q", m))
		}
	}
	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}
	return nil
}

// buildResult is everything a generation run produced before writing.
type buildResult struct {
	Model *genspec.ServiceModel
	Gen   *codegen.Result
}

// buildClient loads the document, normalizes it, and emits the client source.
// It is shared by the generate command and the MCP tool.
func buildClient(ctx context.Context, doc *genspec.Document, cfg *GenerateConfig, log zerolog.Logger) (*buildResult, error) {
	methods := make([]genspec.HttpMethod, 0, len(cfg.Methods))
	for _, m := range cfg.Methods {
		methods = append(methods, genspec.HttpMethod(m))
	}
	sm, err := genspec.BuildServiceModel(
		ctx,
		doc,
		genspec.WithIncludeTags(cfg.IncludeTags),
		genspec.WithExcludeTags(cfg.ExcludeTags),
		genspec.WithMethods(methods),
	)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	for _, issue := range sm.Issues {
		log.Warn().Msg(issue)
	}

	gen, err := codegen.New(
		codegen.WithPackageName(cfg.PackageName),
		codegen.WithModelsImport(cfg.ModelsPackage),
		codegen.WithLogger(log),
	).Generate(sm)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	log.Info().
		Int("operations", len(gen.Operations)).
		Int("modules", len(gen.Modules)).
		Int("warnings", gen.WarningCount()).
		Msg("generated client")
	return &buildResult{Model: sm, Gen: gen}, nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	log := newLogger(os.Stderr, cfg.Verbose)

	doc, err := genspec.Load(ctx, cfg.Input)
	if err != nil {
		return specUsageError(err)
	}
	built, err := buildClient(ctx, doc, cfg, log)
	if err != nil {
		return err
	}

	outDir := cfg.Out
	if outDir == "" {
		outDir = built.Gen.PackageName
	}
	absOut := outDir
	if ap, err := filepath.Abs(outDir); err == nil {
		absOut = ap
	}

	res, err := goemitter.Emit(ctx, built.Model, built.Gen, goemitter.Options{
		OutDir:     outDir,
		ModuleName: cfg.ModuleName,
		Force:      cfg.Force,
		DryRun:     cfg.DryRun,
		Verbose:    cfg.Verbose,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	if cfg.DryRun {
		paths := make([]string, 0, len(res.Planned))
		for _, p := range res.Planned {
			paths = append(paths, p.RelPath)
		}
		printPlan(absOut, len(res.Planned), paths)
		return nil
	}
	log.Info().Str("out", absOut).Int("files", len(res.Planned)).Msg("wrote client package")
	return nil
}

// specUsageError maps structured loader errors into friendly messages.
func specUsageError(err error) error {
	var se *genspec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	msg := fmt.Sprintf("spec: %s", se.Message)
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	return wrapUsageError(msg, err)
}

func printPlan(outDir string, count int, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}
