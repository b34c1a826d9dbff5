// Package codegen turns a normalized service model into the source of a Go
// client: one builder per operation, grouped into module clients, plus the
// shared client scaffold and error enumeration.
package codegen

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"
	"github.com/rs/zerolog"

	"github.com/mark3labs/swagger2client/internal/naming"
	"github.com/mark3labs/swagger2client/internal/spec"
)

// GeneratedHeader marks every emitted file.
const GeneratedHeader = "Code generated by swagger2client. DO NOT EDIT."

const (
	clientFile     = "client.go"
	errorsFile     = "errors.go"
	operationsFile = "operations.go"
)

// File is one rendered source file.
type File struct {
	Name    string
	Content []byte
}

// Result is the output of a generation run.
type Result struct {
	PackageName string
	Files       []File
	// Modules lists the discovered module names in file order.
	Modules    []string
	Operations []EmissionUnit
	Issues     []Issue
}

// WarningCount returns the number of warning issues.
func (r *Result) WarningCount() int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Option configures a Generator.
type Option func(*Generator)

// WithPackageName sets the package clause of the emitted files.
func WithPackageName(name string) Option { return func(g *Generator) { g.packageName = name } }

// WithModelsImport sets the import path model types are qualified with.
func WithModelsImport(path string) Option { return func(g *Generator) { g.modelsImport = path } }

// WithSanitizer replaces the identifier sanitizer.
func WithSanitizer(s naming.Sanitizer) Option { return func(g *Generator) { g.sanitizer = s } }

// WithTypeNamer replaces the schema-to-type mapping.
func WithTypeNamer(t TypeNamer) Option { return func(g *Generator) { g.types = t } }

// WithStatusPredicate replaces the success-status filter.
func WithStatusPredicate(p StatusPredicate) Option { return func(g *Generator) { g.isSuccess = p } }

// WithLogger sets the logger used for per-operation diagnostics.
func WithLogger(l zerolog.Logger) Option { return func(g *Generator) { g.log = l } }

// Generator drives emission for a whole service model.
type Generator struct {
	packageName  string
	modelsImport string
	sanitizer    naming.Sanitizer
	types        TypeNamer
	isSuccess    StatusPredicate
	log          zerolog.Logger
}

// New returns a generator with the default collaborators.
func New(opts ...Option) *Generator {
	g := &Generator{
		sanitizer: naming.GoSanitizer{},
		types:     ModelTypeNamer{},
		isSuccess: IsSuccessStatus,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PackageNameFor derives a package name from a service title.
func PackageNameFor(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return "client"
	}
	return name
}

// Generate emits the client for sm. The first naming or type failure aborts
// the run and no files are returned.
func (g *Generator) Generate(sm *spec.ServiceModel) (*Result, error) {
	pkg := g.packageName
	if pkg == "" {
		pkg = PackageNameFor(sm.Title)
	}
	res := &Result{PackageName: pkg}

	classifier := Classifier{Sanitizer: g.sanitizer, Types: g.types}
	resolver := ResponseResolver{Types: g.types, IsSuccess: g.isSuccess}
	emitter := Emitter{ModelsImport: g.modelsImport}
	idents := NewIdentAllocator()

	resolved := make([]resolvedNames, len(sm.Operations))
	var modules []string
	seen := map[string]bool{}
	for i := range sm.Operations {
		names, err := g.resolveNames(&sm.Operations[i])
		if err != nil {
			return nil, err
		}
		resolved[i] = names
		if names.module != "" && !seen[names.module] {
			seen[names.module] = true
			modules = append(modules, names.module)
		}
	}
	methods := NewMethodAllocator(modules)

	for i := range sm.Operations {
		op := &sm.Operations[i]
		plan, err := g.plan(op, resolved[i], classifier, resolver, idents, methods)
		if err != nil {
			return nil, err
		}
		unit := emitter.Emit(plan)
		res.Issues = append(res.Issues, g.diagnose(plan, unit)...)
		res.Operations = append(res.Operations, unit)
		g.log.Debug().
			Str("operation", unit.Label).
			Str("module", unit.Module).
			Str("ident", unit.Ident).
			Str("mode", unit.Mode.String()).
			Msg("planned operation")
	}

	files, modules, err := g.render(pkg, sm, res.Operations)
	if err != nil {
		return nil, err
	}
	res.Files, res.Modules = files, modules
	return res, nil
}

// resolvedNames is the naming outcome of one operation with its module and
// function already sanitized.
type resolvedNames struct {
	result   naming.Result
	module   string
	function string
}

func (g *Generator) resolveNames(op *spec.Operation) (resolvedNames, error) {
	names := naming.Resolve(op)
	label := operationLabel(op)

	function, err := g.sanitizer.Sanitize(names.Function)
	if err != nil {
		return resolvedNames{}, &NamingError{Operation: label, Name: names.Function, Err: err}
	}
	module := ""
	if names.HasModule() {
		if module, err = g.sanitizer.Sanitize(names.Module); err != nil {
			return resolvedNames{}, &NamingError{Operation: label, Name: names.Module, Err: err}
		}
	}
	return resolvedNames{result: names, module: module, function: function}, nil
}

func (g *Generator) plan(op *spec.Operation, names resolvedNames, classifier Classifier, resolver ResponseResolver, idents *IdentAllocator, methods *MethodAllocator) (OperationPlan, error) {
	params, err := classifier.Classify(op)
	if err != nil {
		return OperationPlan{}, err
	}
	shape, err := resolver.Resolve(op)
	if err != nil {
		return OperationPlan{}, err
	}
	consumes := op.Consumes
	if consumes == "" {
		consumes = spec.DefaultContentType
	}
	plan := OperationPlan{
		Op:       op,
		Names:    names.result,
		Module:   names.module,
		Function: names.function,
		Ident:    idents.Allocate(names.module, names.function),
		Params:   params,
		Shape:    shape,
		Request:  PlanRequest(op, params, consumes),
	}
	plan.Method = methods.Allocate(plan.Receiver(), names.function)
	return plan, nil
}

// diagnose records the soft degraded paths of one operation.
func (g *Generator) diagnose(plan OperationPlan, unit EmissionUnit) []Issue {
	var issues []Issue
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		issues = append(issues, Issue{Operation: unit.Label, Message: msg, Severity: SeverityWarning})
		g.log.Warn().Str("operation", unit.Label).Msg(msg)
	}

	for _, p := range plan.Request.Unsupported {
		warn("query parameter %q uses collection format %q and is not sent", p.Name, formatName(p.CollectionFormat))
	}
	for _, s := range plan.Request.Steps {
		if s.Kind == StepFormData {
			warn("form data parameter %q is not supported; the operation fails at runtime", s.Name)
		}
	}
	if want := naming.Exported(plan.Function); plan.Method != want {
		warn("method %s is already declared on %s; the entry point is %s", want, plan.Receiver(), plan.Method)
	}
	for _, name := range unit.MissingPathParams {
		warn("path placeholder {%s} has no matching parameter", name)
	}
	switch unit.Mode {
	case ExecFirstPageOnly:
		if plan.Shape.Pagination.HasNextLink() {
			warn("next link %q is not reachable from the response type; only the first page is fetched", *plan.Shape.Pagination.NextLinkName)
		} else {
			warn("pageable without a next link; only the first page is fetched")
		}
	case ExecLongRunning:
		warn("long-running operation; only the initial response is returned")
	}
	return issues
}

func formatName(f spec.CollectionFormat) string {
	if f == spec.CollectionNone {
		return "csv"
	}
	return string(f)
}

func (g *Generator) render(pkg string, sm *spec.ServiceModel, units []EmissionUnit) ([]File, []string, error) {
	ungrouped, modules := GroupModules(units)
	names := make([]string, len(modules))
	idents := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
		idents[i] = m.Ident
	}

	variants := make([]EnumVariant, len(units))
	for i, u := range units {
		variants[i] = EnumVariant{Ident: u.Ident, Label: u.Label}
	}

	var files []File
	add := func(name string, decls []jen.Code) error {
		content, err := renderFile(pkg, decls)
		if err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		files = append(files, File{Name: name, Content: content})
		return nil
	}

	if err := add(clientFile, ClientScaffold(idents, sm.Endpoint)); err != nil {
		return nil, nil, err
	}
	if err := add(errorsFile, ErrorEnum(variants)); err != nil {
		return nil, nil, err
	}
	if len(ungrouped) > 0 {
		var decls []jen.Code
		for _, u := range ungrouped {
			decls = append(decls, u.Code()...)
		}
		if err := add(operationsFile, decls); err != nil {
			return nil, nil, err
		}
	}
	for _, m := range modules {
		decls := []jen.Code{GroupClient(m.Ident)}
		for _, u := range m.Units {
			decls = append(decls, u.Code()...)
		}
		if err := add(m.FileName(), decls); err != nil {
			return nil, nil, err
		}
	}
	return files, names, nil
}

func renderFile(pkg string, decls []jen.Code) ([]byte, error) {
	f := jen.NewFile(pkg)
	f.HeaderComment(GeneratedHeader)
	for _, d := range decls {
		f.Add(d)
		f.Line()
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
