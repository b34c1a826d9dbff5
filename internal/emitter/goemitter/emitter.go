package goemitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/tools/imports"

	"github.com/mark3labs/swagger2client/internal/codegen"
	genspec "github.com/mark3labs/swagger2client/internal/spec"
)

// RuntimeModule is the module generated clients depend on.
const RuntimeModule = "github.com/mark3labs/swagger2client"

// Options controls how generated client files are written.
type Options struct {
	OutDir     string // required; target directory of the client package
	ModuleName string // when set, a go.mod for this module path is written too
	Force      bool   // overwrite a non-empty directory
	DryRun     bool   // don't write, only plan
	Verbose    bool
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result returns the planned files and the package they belong to.
type Result struct {
	PackageName string
	ModuleName  string
	Planned     []PlannedFile
}

// Emit formats the generated files, adds the package documentation and an
// optional go.mod, and writes everything under OutDir.
func Emit(ctx context.Context, sm *genspec.ServiceModel, gen *codegen.Result, opts Options) (*Result, error) {
	if sm == nil || gen == nil {
		return nil, fmt.Errorf("goemitter: nil ServiceModel or generation result")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("goemitter: OutDir is required")
	}
	moduleName := strings.TrimSpace(opts.ModuleName)

	files := map[string][]byte{}
	for _, f := range gen.Files {
		src, err := formatSource(f.Name, f.Content)
		if err != nil {
			return nil, err
		}
		files[f.Name] = src
	}
	doc, err := formatSource("doc.go", []byte(renderDoc(sm, gen.PackageName)))
	if err != nil {
		return nil, err
	}
	files["doc.go"] = doc
	if moduleName != "" {
		files["go.mod"] = []byte(renderGoMod(moduleName))
	}

	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, filepath.ToSlash(p))
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := writeFiles(ctx, opts.OutDir, files, opts.Force); err != nil {
			return nil, err
		}
	}
	return &Result{PackageName: gen.PackageName, ModuleName: moduleName, Planned: planned}, nil
}

// formatSource runs goimports over a rendered file.
func formatSource(name string, src []byte) ([]byte, error) {
	out, err := imports.Process(name, src, &imports.Options{Comments: true, TabIndent: true, TabWidth: 8, FormatOnly: true})
	if err != nil {
		return nil, fmt.Errorf("goemitter: format %s: %w", name, err)
	}
	return out, nil
}

func renderDoc(sm *genspec.ServiceModel, pkg string) string {
	var b strings.Builder
	b.WriteString("// " + codegen.GeneratedHeader + "\n\n")
	title := strings.TrimSpace(sm.Title)
	if title == "" {
		title = "the service"
	}
	fmt.Fprintf(&b, "// Package %s is a client for %s", pkg, title)
	if sm.Version != "" {
		fmt.Fprintf(&b, " (API version %s)", sm.Version)
	}
	b.WriteString(".\n")
	if desc := strings.TrimSpace(sm.Description); desc != "" {
		b.WriteString("//\n")
		for _, line := range strings.Split(desc, "\n") {
			b.WriteString(strings.TrimRight("// "+line, " ") + "\n")
		}
	}
	fmt.Fprintf(&b, "package %s\n", pkg)
	return b.String()
}

func renderGoMod(module string) string {
	return fmt.Sprintf("module %s\n\ngo 1.24.0\n\nrequire %s v0.0.0\n", module, RuntimeModule)
}

func writeFiles(ctx context.Context, outDir string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	// Pre-flight: if directory exists and not empty and not force, error.
	if st, err := os.Stat(abs); err == nil && st.IsDir() && !force {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("goemitter: output directory %q is not empty (use --force to overwrite)", abs)
		}
	}
	for rel, content := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := filepath.Join(abs, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		// atomic write via temp file + rename
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, content, 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}
