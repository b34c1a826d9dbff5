package codegen

import (
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/mark3labs/swagger2client/internal/naming"
	"github.com/mark3labs/swagger2client/internal/spec"
)

// RuntimeImport is the package generated clients import for transport helpers.
const RuntimeImport = "github.com/mark3labs/swagger2client/clientrt"

// ExecMode selects the shape of an operation's execution method.
type ExecMode int

const (
	ExecSingle        ExecMode = iota // Send
	ExecStream                        // Pager over next links
	ExecFirstPageOnly                 // Send; continuation lives outside the body
	ExecLongRunning                   // Send; no polling
)

func (m ExecMode) String() string {
	return [...]string{"single", "stream", "first-page-only", "long-running"}[m]
}

// OperationPlan gathers everything the emitter needs for one operation.
type OperationPlan struct {
	Op       *spec.Operation
	Names    naming.Result
	Module   string // sanitized module identifier, empty when ungrouped
	Function string // sanitized function identifier
	Method   string // entry-point method name, unique on its receiver
	Ident    string // unique PascalCase identifier, also the error variant
	Params   ParameterSet
	Shape    ResponseShape
	Request  RequestPlan
}

// Receiver names the type the operation's entry point is declared on.
func (p OperationPlan) Receiver() string {
	if p.Module == "" {
		return "Client"
	}
	return ModuleClientType(p.Module)
}

// EmissionUnit is the emitted code of one operation.
type EmissionUnit struct {
	Module      string
	ModuleIdent string
	Ident       string
	Label       string
	Mode        ExecMode
	Responses   []jen.Code
	EntryPoint  jen.Code
	BuilderType jen.Code
	Setters     []jen.Code
	Execution   []jen.Code
	// MissingPathParams lists template placeholders with no parameter.
	MissingPathParams []string
}

// Code returns the unit's declarations in emission order.
func (u EmissionUnit) Code() []jen.Code {
	out := append([]jen.Code{}, u.Responses...)
	out = append(out, u.EntryPoint, u.BuilderType)
	out = append(out, u.Setters...)
	return append(out, u.Execution...)
}

// Emitter turns operation plans into Go declarations.
type Emitter struct {
	// ModelsImport is the import path of the models package; empty means
	// models live in the generated package.
	ModelsImport string
}

// SelectMode picks the execution branch for a plan.
func SelectMode(p OperationPlan) ExecMode {
	switch {
	case p.Shape.Pagination.HasNextLink() && continuable(p.Shape):
		return ExecStream
	case p.Shape.Pagination != nil:
		return ExecFirstPageOnly
	case p.Op.LongRunning:
		return ExecLongRunning
	default:
		return ExecSingle
	}
}

func continuable(s ResponseShape) bool {
	if s.IsUnion() {
		return true
	}
	t := s.Direct().Type
	return t != nil && t.Kind == KindModel && !t.Vector
}

// Emit builds the emission unit for one operation.
func (e Emitter) Emit(p OperationPlan) EmissionUnit {
	o := opEmitter{Emitter: e, plan: p, mode: SelectMode(p)}
	unit := EmissionUnit{
		Module:      p.Names.Module,
		ModuleIdent: p.Module,
		Ident:       p.Ident,
		Label:       operationLabel(p.Op),
		Mode:        o.mode,
		Responses:   o.responseTypes(),
		EntryPoint:  o.entryPoint(),
	}
	unit.BuilderType = o.builderType()
	unit.Setters = o.setters()
	newReq, missing := o.newRequest()
	unit.MissingPathParams = missing
	unit.Execution = append(unit.Execution, newReq, o.decode())
	if o.mode == ExecStream {
		unit.Execution = append(unit.Execution, o.pager())
	} else {
		unit.Execution = append(unit.Execution, o.send())
	}
	return unit
}

type opEmitter struct {
	Emitter
	plan OperationPlan
	mode ExecMode
}

func (o opEmitter) respName() string    { return o.plan.Ident + "Response" }
func (o opEmitter) builderName() string { return o.plan.Ident + "Builder" }
func (o opEmitter) markerName() string  { return "is" + o.respName() }
func (o opEmitter) variantName(e ResponseEntry) string {
	return o.plan.Ident + e.Ident
}
func (o opEmitter) opConst() string { return "Op" + o.plan.Ident }

func (o opEmitter) typeCode(t SemanticType) *jen.Statement { return t.Code(o.ModelsImport) }

// fieldType stores optional scalars behind a pointer; optional vectors stay
// plain slices because an empty slice already means "absent".
func (o opEmitter) fieldType(p ClassifiedParameter) *jen.Statement {
	if p.Required() || p.Type.Vector {
		return o.typeCode(p.Type)
	}
	return jen.Op("*").Add(o.typeCode(p.Type))
}

func (o opEmitter) responseTypes() []jen.Code {
	shape := o.plan.Shape
	name := o.respName()
	if !shape.IsUnion() {
		entry := shape.Direct()
		body := jen.Struct()
		if entry.Type != nil {
			body = o.typeCode(*entry.Type)
		}
		return []jen.Code{
			docLines(name + " is the response of " + operationLabel(o.plan.Op) + ".").
				Type().Id(name).Op("=").Add(body),
		}
	}

	variants := make([]string, len(shape.Entries))
	for i, entry := range shape.Entries {
		variants[i] = o.variantName(entry)
	}
	methods := []jen.Code{}
	if shape.UnionContinuation() {
		methods = append(methods, jen.Qual(RuntimeImport, "Continuable"))
	}
	methods = append(methods, jen.Id(o.markerName()).Params())

	doc := name + " is the response of " + operationLabel(o.plan.Op) + "."
	if len(variants) > 0 {
		doc += " It is one of " + strings.Join(variants, ", ") + "."
	}
	out := []jen.Code{docLines(doc).Type().Id(name).Interface(methods...)}

	for _, entry := range shape.Entries {
		variant := o.variantName(entry)
		fields := []jen.Code{}
		if entry.Type != nil {
			fields = append(fields, jen.Id("Body").Add(o.typeCode(*entry.Type)))
		}
		out = append(out,
			docLines(variant+" is returned for status "+entry.Status+".").Type().Id(variant).Struct(fields...),
			jen.Func().Params(jen.Id(variant)).Id(o.markerName()).Params().Block(),
		)
		if shape.UnionContinuation() {
			var ret jen.Code = jen.Lit("")
			if entry.Type != nil && entry.Type.Kind == KindModel && !entry.Type.Vector {
				ret = jen.Id("v").Dot("Body").Dot("Continuation").Call()
			}
			out = append(out, jen.Func().Params(jen.Id("v").Id(variant)).Id("Continuation").Params().String().Block(jen.Return(ret)))
		}
	}
	return out
}

func (o opEmitter) entryPoint() jen.Code {
	op := o.plan.Op
	recvType, clientExpr := o.plan.Receiver(), jen.Id("c")
	if o.plan.Module != "" {
		clientExpr = jen.Id("c").Dot("client")
	}
	method := o.plan.Method
	if method == "" {
		method = naming.Exported(o.plan.Function)
	}

	var lines []string
	if op.Summary != "" {
		lines = append(lines, method+": "+firstLine(op.Summary))
	} else {
		lines = append(lines, method+" prepares a call to "+operationLabel(op)+".")
	}
	if op.Description != "" && op.Description != op.Summary {
		lines = append(lines, "")
		lines = append(lines, strings.Split(op.Description, "\n")...)
	}
	var args []string
	for _, p := range o.plan.Params.Required() {
		if p.Description != "" {
			args = append(args, "  - "+p.VarName+": "+firstLine(p.Description))
		}
	}
	if len(args) > 0 {
		lines = append(lines, "", "Arguments:")
		lines = append(lines, args...)
	}

	params := []jen.Code{}
	dict := jen.Dict{jen.Id("client"): clientExpr}
	for _, p := range o.plan.Params.Required() {
		params = append(params, jen.Id(p.VarName).Add(o.fieldType(p)))
		dict[jen.Id(p.VarName)] = jen.Id(p.VarName)
	}
	return docLines(lines...).
		Func().Params(jen.Id("c").Op("*").Id(recvType)).Id(method).Params(params...).Op("*").Id(o.builderName()).
		Block(jen.Return(jen.Op("&").Id(o.builderName()).Values(dict)))
}

func (o opEmitter) builderType() jen.Code {
	fields := []jen.Code{jen.Id("client").Op("*").Id("Client")}
	for _, p := range o.plan.Params.Params {
		fields = append(fields, jen.Id(p.VarName).Add(o.fieldType(p)))
	}
	return docLines(o.builderName()+" accumulates the parameters of "+operationLabel(o.plan.Op)+".").
		Type().Id(o.builderName()).Struct(fields...)
}

func (o opEmitter) setters() []jen.Code {
	var out []jen.Code
	for _, p := range o.plan.Params.Optional() {
		name := naming.Exported(p.VarName)
		doc := name + " sets the optional " + p.Name + " parameter."
		if p.Description != "" {
			doc = name + " sets " + p.Name + ": " + firstLine(p.Description)
		}
		assign := jen.Id("b").Dot(p.VarName).Op("=").Id(p.VarName)
		if !p.Type.Vector {
			assign = jen.Id("b").Dot(p.VarName).Op("=").Op("&").Id(p.VarName)
		}
		out = append(out, docLines(doc).
			Func().Params(jen.Id("b").Op("*").Id(o.builderName())).Id(name).
			Params(jen.Id(p.VarName).Add(o.typeCode(p.Type))).Op("*").Id(o.builderName()).
			Block(assign, jen.Return(jen.Id("b"))))
	}
	return out
}

func (o opEmitter) methodConst() jen.Code {
	return jen.Qual("net/http", "Method"+strings.ToUpper(string(o.plan.Op.Method[:1]))+string(o.plan.Op.Method[1:]))
}

// newRequest renders URL construction, authentication, and the request plan.
func (o opEmitter) newRequest() (jen.Code, []string) {
	format, args, missing := o.urlFormat()
	fail := jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))

	body := []jen.Code{
		jen.List(jen.Id("u"), jen.Err()).Op(":=").Qual("net/url", "Parse").Call(
			jen.Qual("fmt", "Sprintf").Call(append([]jen.Code{jen.Lit(format)}, args...)...)),
		fail,
		jen.List(jen.Id("req"), jen.Err()).Op(":=").Id("b").Dot("client").Dot("newRequest").Call(jen.Id("ctx"), o.methodConst(), jen.Id("u")),
		fail,
	}

	usesQuery := false
	for _, s := range o.plan.Request.Steps {
		if s.Kind == StepAPIVersion || s.Kind == StepQuery || s.Kind == StepQueryMulti {
			usesQuery = true
			break
		}
	}
	if usesQuery {
		body = append(body, jen.Id("q").Op(":=").Id("req").Dot("URL").Dot("Query").Call())
	}
	for _, s := range o.plan.Request.Steps {
		body = append(body, o.renderStep(s)...)
	}
	if usesQuery {
		body = append(body, jen.Id("req").Dot("URL").Dot("RawQuery").Op("=").Id("q").Dot("Encode").Call())
	}
	body = append(body, jen.Return(jen.Id("req"), jen.Nil()))

	return jen.Func().Params(jen.Id("b").Op("*").Id(o.builderName())).Id("newRequest").
		Params(jen.Id("ctx").Qual("context", "Context")).
		Params(jen.Op("*").Qual("net/http", "Request"), jen.Error()).
		Block(body...), missing
}

// urlFormat turns "/a/{x}/b" into "%s/a/%s/b" plus the endpoint and the
// escaped path parameters in template order.
func (o opEmitter) urlFormat() (string, []jen.Code, []string) {
	byName := map[string]ClassifiedParameter{}
	for _, p := range o.plan.Params.OfKind(ParamPath) {
		byName[p.Name] = p
	}
	var (
		b       strings.Builder
		args    = []jen.Code{jen.Id("b").Dot("client").Dot("endpoint")}
		missing []string
	)
	b.WriteString("%s")
	rest := o.plan.Op.Path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			break
		}
		name := rest[open+1 : open+end]
		b.WriteString(strings.ReplaceAll(rest[:open], "%", "%%"))
		if p, ok := byName[name]; ok {
			b.WriteString("%s")
			args = append(args, jen.Qual("net/url", "PathEscape").Call(o.textValue(p, jen.Id("b").Dot(p.VarName))))
		} else {
			b.WriteString("{" + name + "}")
			missing = append(missing, name)
		}
		rest = rest[open+end+1:]
	}
	b.WriteString(strings.ReplaceAll(rest, "%", "%%"))
	return b.String(), args, missing
}

// textValue renders v as a string: strings pass through, everything else
// goes through clientrt.FormatValue.
func (o opEmitter) textValue(p ClassifiedParameter, v *jen.Statement) *jen.Statement {
	if p.Type.IsString() && (p.Required() || p.Type.Vector) {
		return v
	}
	return jen.Qual(RuntimeImport, "FormatValue").Call(v)
}

func (o opEmitter) renderStep(s Step) []jen.Code {
	switch s.Kind {
	case StepAPIVersion:
		return []jen.Code{jen.Id("q").Dot("Add").Call(jen.Qual(RuntimeImport, "APIVersionParam"), jen.Lit(s.Value))}
	case StepQuery, StepHeader:
		p := *s.Param
		set := func(v jen.Code) *jen.Statement {
			if s.Kind == StepQuery {
				return jen.Id("q").Dot("Add").Call(jen.Lit(s.Name), v)
			}
			return jen.Id("req").Dot("Header").Dot("Set").Call(jen.Lit(s.Name), v)
		}
		field := jen.Id("b").Dot(p.VarName)
		if !s.Guarded {
			return []jen.Code{set(o.textValue(p, field))}
		}
		var v jen.Code = jen.Qual(RuntimeImport, "FormatValue").Call(jen.Op("*").Id("b").Dot(p.VarName))
		if p.Type.IsString() {
			v = jen.Op("*").Id("b").Dot(p.VarName)
		}
		return []jen.Code{jen.If(field.Clone().Op("!=").Nil()).Block(set(v))}
	case StepQueryMulti:
		p := *s.Param
		var v jen.Code = jen.Qual(RuntimeImport, "FormatValue").Call(jen.Id("v"))
		if p.Type.Elem != nil && p.Type.Elem.IsString() {
			v = jen.Id("v")
		}
		return []jen.Code{
			jen.For(jen.List(jen.Id("_"), jen.Id("v")).Op(":=").Range().Id("b").Dot(p.VarName)).
				Block(jen.Id("q").Dot("Add").Call(jen.Lit(s.Name), v)),
		}
	case StepBody:
		return o.renderBody(s)
	case StepFormData:
		return []jen.Code{jen.Return(jen.Nil(), jen.Qual(RuntimeImport, "ErrFormDataNotSupported"))}
	case StepEmptyBody:
		return []jen.Code{jen.Qual(RuntimeImport, "SetEmptyBody").Call(jen.Id("req"))}
	case StepContentLengthZero:
		return []jen.Code{jen.Id("req").Dot("ContentLength").Op("=").Lit(0)}
	}
	return nil
}

func (o opEmitter) renderBody(s Step) []jen.Code {
	p := *s.Param
	value := jen.Id("b").Dot(p.VarName)
	if s.Guarded {
		value = jen.Op("*").Id("b").Dot(p.VarName)
	}

	var stmts []jen.Code
	if s.ContentType != "" {
		stmts = append(stmts, jen.Id("req").Dot("Header").Dot("Set").Call(jen.Lit("content-type"), jen.Lit(s.ContentType)))
	}
	if p.Type.IsStream() {
		stmts = append(stmts, jen.Qual(RuntimeImport, "SetBody").Call(jen.Id("req"), value))
	} else {
		stmts = append(stmts, jen.If(
			jen.Err().Op(":=").Qual(RuntimeImport, "SetJSONBody").Call(jen.Id("req"), value),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Nil(), jen.Err())))
	}
	if !s.Guarded {
		return stmts
	}
	return []jen.Code{
		jen.If(jen.Id("b").Dot(p.VarName).Op("!=").Nil()).Block(stmts...).
			Else().Block(jen.Qual(RuntimeImport, "SetEmptyBody").Call(jen.Id("req"))),
	}
}

// decode renders the status-code match table.
func (o opEmitter) decode() jen.Code {
	shape := o.plan.Shape
	return jen.Func().Params(jen.Id("b").Op("*").Id(o.builderName())).Id("decode").
		Params(jen.Id("resp").Op("*").Qual("net/http", "Response")).
		Params(jen.Id(o.respName()), jen.Error()).
		BlockFunc(func(g *jen.Group) {
			g.Var().Id("out").Id(o.respName())
			g.List(jen.Id("data"), jen.Err()).Op(":=").Qual(RuntimeImport, "ReadBody").Call(jen.Id("resp"))
			g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Id("out"), jen.Err()))
			g.Switch(jen.Id("resp").Dot("StatusCode")).BlockFunc(func(sw *jen.Group) {
				for _, entry := range shape.Entries {
					sw.Case(jen.Lit(statusCode(entry.Status))).Block(o.decodeEntry(entry)...)
				}
				sw.Default().Block(jen.Return(jen.Id("out"), jen.Qual(RuntimeImport, "NewHTTPError").Call(jen.Id("resp"), jen.Id("data"))))
			})
		})
}

func (o opEmitter) decodeEntry(entry ResponseEntry) []jen.Code {
	union := o.plan.Shape.IsUnion()
	wrap := func(v jen.Code) jen.Code {
		if !union {
			return v
		}
		if v == nil {
			return jen.Id(o.variantName(entry)).Values()
		}
		return jen.Id(o.variantName(entry)).Values(jen.Dict{jen.Id("Body"): v})
	}
	switch {
	case entry.Type == nil:
		if union {
			return []jen.Code{jen.Return(wrap(nil), jen.Nil())}
		}
		return []jen.Code{jen.Return(jen.Id(o.respName()).Values(), jen.Nil())}
	case entry.Type.IsStream():
		return []jen.Code{jen.Return(wrap(jen.Id("data")), jen.Nil())}
	default:
		return []jen.Code{
			jen.Var().Id("body").Add(o.typeCode(*entry.Type)),
			jen.If(
				jen.Err().Op(":=").Qual(RuntimeImport, "UnmarshalJSON").Call(jen.Id("data"), jen.Op("&").Id("body")),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Id("out"), jen.Err())),
			jen.Return(wrap(jen.Id("body")), jen.Nil()),
		}
	}
}

func (o opEmitter) operationError() jen.Code {
	return jen.Op("&").Id("OperationError").Values(jen.Dict{
		jen.Id("Operation"): jen.Id(o.opConst()),
		jen.Id("Err"):       jen.Err(),
	})
}

func (o opEmitter) send() jen.Code {
	label := operationLabel(o.plan.Op)
	lines := []string{"Send issues " + label + " and decodes the response."}
	switch o.mode {
	case ExecFirstPageOnly:
		lines = append(lines, "", "Only the first page is fetched: the continuation token is not part of the response schema.")
	case ExecLongRunning:
		lines = append(lines, "", "Only the initial response is returned: long-running operations are not polled to completion.")
	}
	fail := jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Id("out"), o.operationError()))
	return docLines(lines...).
		Func().Params(jen.Id("b").Op("*").Id(o.builderName())).Id("Send").
		Params(jen.Id("ctx").Qual("context", "Context")).
		Params(jen.Id(o.respName()), jen.Error()).
		Block(
			jen.Var().Id("out").Id(o.respName()),
			jen.List(jen.Id("req"), jen.Err()).Op(":=").Id("b").Dot("newRequest").Call(jen.Id("ctx")),
			fail,
			jen.List(jen.Id("resp"), jen.Err()).Op(":=").Id("b").Dot("client").Dot("pipeline").Dot("Do").Call(jen.Id("req")),
			fail,
			jen.List(jen.Id("out"), jen.Err()).Op("=").Id("b").Dot("decode").Call(jen.Id("resp")),
			fail,
			jen.Return(jen.Id("out"), jen.Nil()),
		)
}

// pager renders the stream method: the first page uses newRequest, later
// pages follow the continuation token with fresh authentication.
func (o opEmitter) pager() jen.Code {
	fail := jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
	next := []jen.Code{
		jen.List(jen.Id("u"), jen.Err()).Op(":=").Qual(RuntimeImport, "ResolveContinuation").Call(jen.Id("b").Dot("client").Dot("endpoint"), jen.Id("token")),
		fail,
		jen.List(jen.Id("req"), jen.Err()).Op(":=").Id("b").Dot("client").Dot("newRequest").Call(jen.Id("ctx"), o.methodConst(), jen.Id("u")),
		fail,
	}
	if o.plan.Params.HasAPIVersion {
		next = append(next, jen.If(jen.Op("!").Qual(RuntimeImport, "HasQueryParam").Call(jen.Id("req").Dot("URL"), jen.Qual(RuntimeImport, "APIVersionParam"))).Block(
			jen.Qual(RuntimeImport, "AddQueryParam").Call(jen.Id("req"), jen.Qual(RuntimeImport, "APIVersionParam"), jen.Lit(o.plan.Op.APIVersion)),
		))
	}
	next = append(next, jen.Return(jen.Id("req"), jen.Nil()))

	respType := jen.Id(o.respName())
	return docLines(
		"Pager returns a pager over every page of "+operationLabel(o.plan.Op)+".",
		"Pages are requested one at a time as the pager is advanced.",
	).
		Func().Params(jen.Id("b").Op("*").Id(o.builderName())).Id("Pager").Params().
		Op("*").Qual(RuntimeImport, "Pager").Index(respType.Clone()).
		Block(jen.Return(jen.Qual(RuntimeImport, "NewPager").Call(
			jen.Qual(RuntimeImport, "PageFetcher").Index(respType.Clone()).Values(jen.Dict{
				jen.Id("First"): jen.Id("b").Dot("newRequest"),
				jen.Id("Next"): jen.Func().
					Params(jen.Id("ctx").Qual("context", "Context"), jen.Id("token").String()).
					Params(jen.Op("*").Qual("net/http", "Request"), jen.Error()).
					Block(next...),
				jen.Id("Do"):     jen.Id("b").Dot("client").Dot("pipeline").Dot("Do"),
				jen.Id("Decode"): jen.Id("b").Dot("decode"),
				jen.Id("Wrap"): jen.Func().Params(jen.Err().Error()).Error().
					Block(jen.Return(o.operationError())),
			}),
		)))
}

// docLines renders one line comment per line.
func docLines(lines ...string) *jen.Statement {
	s := jen.Null()
	for _, l := range lines {
		s.Comment(strings.TrimRight(l, " \t")).Line()
	}
	return s
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

func statusCode(status string) int {
	code, _ := strconv.Atoi(strings.TrimSpace(status))
	return code
}
