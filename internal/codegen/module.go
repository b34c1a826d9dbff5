package codegen

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/iancoleman/strcase"

	"github.com/mark3labs/swagger2client/internal/naming"
)

// ModuleUnits is the merged emission of the operations sharing one module.
// Name is the module as resolved from the operation identifiers and names
// the file; Ident is its sanitized form and names the group client type.
type ModuleUnits struct {
	Name  string
	Ident string
	Units []EmissionUnit
}

// ClientType is the name of the module's group client type.
func (m ModuleUnits) ClientType() string { return ModuleClientType(m.Ident) }

// FileName is the file holding the module: "privateClouds" ->
// "private_clouds_client.go".
func (m ModuleUnits) FileName() string {
	return strcase.ToSnake(strings.TrimSuffix(m.Ident, "_")) + "_client.go"
}

// ModuleClientType names the group client of a module: "privateClouds" ->
// "PrivateCloudsClient".
func ModuleClientType(module string) string { return naming.Exported(module) + "Client" }

// GroupModules merges units by module identifier. Modules come back sorted
// by name; units keep their input order. Ungrouped units are returned apart.
func GroupModules(units []EmissionUnit) (ungrouped []EmissionUnit, modules []ModuleUnits) {
	index := map[string]int{}
	for _, u := range units {
		if u.Module == "" {
			ungrouped = append(ungrouped, u)
			continue
		}
		ident := u.ModuleIdent
		if ident == "" {
			ident = u.Module
		}
		i, ok := index[ident]
		if !ok {
			i = len(modules)
			index[ident] = i
			modules = append(modules, ModuleUnits{Name: u.Module, Ident: ident})
		}
		modules[i].Units = append(modules[i].Units, u)
	}
	sort.SliceStable(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
	return ungrouped, modules
}

// scaffoldNames are declared by the client scaffold and the error enumeration.
var scaffoldNames = []string{
	"Client", "ClientBuilder", "NewClient", "NewClientBuilder", "DefaultEndpoint",
	"OperationKind", "OperationError",
}

// IdentAllocator hands out operation identifiers that are unique across a
// generation run.
type IdentAllocator struct {
	taken map[string]bool
}

// NewIdentAllocator reserves the scaffold's own names.
func NewIdentAllocator() *IdentAllocator {
	a := &IdentAllocator{taken: map[string]bool{}}
	for _, n := range scaffoldNames {
		a.taken[n] = true
	}
	return a
}

// Allocate joins the exported module and function names and appends a
// numeric suffix until the result is unused.
func (a *IdentAllocator) Allocate(module, function string) string {
	base := naming.Exported(module) + naming.Exported(function)
	ident := base
	for i := 2; a.taken[ident]; i++ {
		ident = base + strconv.Itoa(i)
	}
	a.taken[ident] = true
	return ident
}

// MethodAllocator keeps entry-point method names unique per receiver type.
// The root client's accessor methods are taken up front.
type MethodAllocator struct {
	taken map[string]map[string]bool
}

// NewMethodAllocator reserves one accessor on Client per module identifier.
func NewMethodAllocator(modules []string) *MethodAllocator {
	a := &MethodAllocator{taken: map[string]map[string]bool{}}
	for _, m := range modules {
		a.reserve("Client", ModuleClientType(m))
	}
	return a
}

func (a *MethodAllocator) reserve(receiver, method string) {
	if a.taken[receiver] == nil {
		a.taken[receiver] = map[string]bool{}
	}
	a.taken[receiver][method] = true
}

// Allocate returns the exported form of function, with a numeric suffix
// when receiver already declares that method.
func (a *MethodAllocator) Allocate(receiver, function string) string {
	base := naming.Exported(function)
	method := base
	for i := 2; a.taken[receiver][method]; i++ {
		method = base + strconv.Itoa(i)
	}
	a.reserve(receiver, method)
	return method
}

// EnumVariant is one entry of the error-variant enumeration.
type EnumVariant struct {
	Ident string
	Label string // identifier as declared, or "VERB /path"
}

// ErrorEnum renders OperationKind, its constants, and OperationError.
func ErrorEnum(variants []EnumVariant) []jen.Code {
	consts := jen.Const().DefsFunc(func(g *jen.Group) {
		for i, v := range variants {
			if i == 0 {
				g.Id("Op" + v.Ident).Id("OperationKind").Op("=").Iota()
				continue
			}
			g.Id("Op" + v.Ident)
		}
	})
	names := jen.Var().Id("operationNames").Op("=").Index(jen.Op("...")).String().ValuesFunc(func(g *jen.Group) {
		for _, v := range variants {
			g.Lit(v.Label)
		}
	})

	return []jen.Code{
		docLines("OperationKind identifies the operation an OperationError came from.").
			Type().Id("OperationKind").Int(),
		consts,
		names,
		docLines("String returns the operation identifier as declared in the service description.").
			Func().Params(jen.Id("k").Id("OperationKind")).Id("String").Params().String().Block(
			jen.If(jen.Id("k").Op("<").Lit(0).Op("||").Int().Call(jen.Id("k")).Op(">=").Len(jen.Id("operationNames"))).Block(
				jen.Return(jen.Lit("OperationKind(").Op("+").Qual("strconv", "Itoa").Call(jen.Int().Call(jen.Id("k"))).Op("+").Lit(")")),
			),
			jen.Return(jen.Id("operationNames").Index(jen.Id("k"))),
		),
		docLines("OperationError wraps every failure returned by an operation.").
			Type().Id("OperationError").Struct(
			jen.Id("Operation").Id("OperationKind"),
			jen.Id("Err").Error(),
		),
		jen.Func().Params(jen.Id("e").Op("*").Id("OperationError")).Id("Error").Params().String().Block(
			jen.Return(jen.Id("e").Dot("Operation").Dot("String").Call().Op("+").Lit(": ").Op("+").Id("e").Dot("Err").Dot("Error").Call()),
		),
		jen.Func().Params(jen.Id("e").Op("*").Id("OperationError")).Id("Unwrap").Params().Error().Block(
			jen.Return(jen.Id("e").Dot("Err")),
		),
	}
}

// ClientScaffold renders the root client, its builder, and one accessor
// per module. An empty endpoint falls back to the public cloud endpoint.
func ClientScaffold(modules []string, endpoint string) []jen.Code {
	var defaultEndpoint jen.Code = jen.Qual(RuntimeImport, "PublicCloudEndpoint")
	if endpoint != "" {
		defaultEndpoint = jen.Lit(endpoint)
	}
	rt := func(name string) *jen.Statement { return jen.Qual(RuntimeImport, name) }
	builder := func(name string, param jen.Code, body ...jen.Code) jen.Code {
		return jen.Func().Params(jen.Id("b").Op("*").Id("ClientBuilder")).Id(name).Params(param).Op("*").Id("ClientBuilder").
			Block(append(body, jen.Return(jen.Id("b")))...)
	}

	out := []jen.Code{
		docLines("DefaultEndpoint is the service endpoint used when none is configured.").
			Const().Id("DefaultEndpoint").Op("=").Add(defaultEndpoint),
		docLines("Client is the entry point of the service. Operations without a group are",
			"methods on Client; grouped operations hang off the group accessors.").
			Type().Id("Client").Struct(
			jen.Id("endpoint").String(),
			jen.Id("credential").Add(rt("TokenCredential")),
			jen.Id("scopes").Index().String(),
			jen.Id("pipeline").Op("*").Add(rt("Pipeline")),
		),
		docLines("ClientBuilder configures a Client.").
			Type().Id("ClientBuilder").Struct(
			jen.Id("credential").Add(rt("TokenCredential")),
			jen.Id("endpoint").String(),
			jen.Id("scopes").Index().String(),
			jen.Id("options").Add(rt("ClientOptions")),
		),
		docLines("NewClientBuilder starts a builder authenticating with credential.").
			Func().Id("NewClientBuilder").Params(jen.Id("credential").Add(rt("TokenCredential"))).Op("*").Id("ClientBuilder").
			Block(jen.Return(jen.Op("&").Id("ClientBuilder").Values(jen.Dict{jen.Id("credential"): jen.Id("credential")}))),
		builder("Endpoint", jen.Id("endpoint").String(), jen.Id("b").Dot("endpoint").Op("=").Id("endpoint")),
		builder("Scopes", jen.Id("scopes").Op("...").String(), jen.Id("b").Dot("scopes").Op("=").Id("scopes")),
		builder("Retry", jen.Id("retry").Add(rt("RetryOptions")), jen.Id("b").Dot("options").Dot("Retry").Op("=").Id("retry")),
		builder("HTTPClient", jen.Id("doer").Add(rt("Doer")), jen.Id("b").Dot("options").Dot("HTTPClient").Op("=").Id("doer")),
		docLines("Build returns the configured client. The endpoint defaults to DefaultEndpoint",
			"and the scopes default to the endpoint followed by a slash.").
			Func().Params(jen.Id("b").Op("*").Id("ClientBuilder")).Id("Build").Params().Op("*").Id("Client").Block(
			jen.Id("endpoint").Op(":=").Id("b").Dot("endpoint"),
			jen.If(jen.Id("endpoint").Op("==").Lit("")).Block(jen.Id("endpoint").Op("=").Id("DefaultEndpoint")),
			jen.Id("scopes").Op(":=").Id("b").Dot("scopes"),
			jen.If(jen.Len(jen.Id("scopes")).Op("==").Lit(0)).Block(
				jen.Id("scopes").Op("=").Index().String().Values(jen.Id("endpoint").Op("+").Lit("/")),
			),
			jen.Return(jen.Id("NewClient").Call(jen.Id("endpoint"), jen.Id("b").Dot("credential"), jen.Id("scopes"), jen.Id("b").Dot("options"))),
		),
		docLines("NewClient creates a client for endpoint.").
			Func().Id("NewClient").Params(
			jen.Id("endpoint").String(),
			jen.Id("credential").Add(rt("TokenCredential")),
			jen.Id("scopes").Index().String(),
			jen.Id("options").Add(rt("ClientOptions")),
		).Op("*").Id("Client").Block(
			jen.Return(jen.Op("&").Id("Client").Values(jen.Dict{
				jen.Id("endpoint"):   jen.Qual("strings", "TrimRight").Call(jen.Id("endpoint"), jen.Lit("/")),
				jen.Id("credential"): jen.Id("credential"),
				jen.Id("scopes"):     jen.Id("scopes"),
				jen.Id("pipeline"):   rt("NewPipeline").Call(jen.Id("options")),
			})),
		),
		jen.Func().Params(jen.Id("c").Op("*").Id("Client")).Id("newRequest").Params(
			jen.Id("ctx").Qual("context", "Context"),
			jen.Id("method").String(),
			jen.Id("u").Op("*").Qual("net/url", "URL"),
		).Params(jen.Op("*").Qual("net/http", "Request"), jen.Error()).Block(
			jen.List(jen.Id("req"), jen.Err()).Op(":=").Add(rt("NewRequest")).Call(jen.Id("ctx"), jen.Id("method"), jen.Id("u")),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
			jen.If(
				jen.Err().Op(":=").Add(rt("Authorize")).Call(jen.Id("ctx"), jen.Id("req"), jen.Id("c").Dot("credential"), jen.Id("c").Dot("scopes")),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Nil(), jen.Err())),
			jen.Return(jen.Id("req"), jen.Nil()),
		),
	}

	for _, m := range modules {
		typ := ModuleClientType(m)
		out = append(out, docLines(typ+" returns the client for the "+m+" operations.").
			Func().Params(jen.Id("c").Op("*").Id("Client")).Id(typ).Params().Op("*").Id(typ).
			Block(jen.Return(jen.Op("&").Id(typ).Values(jen.Dict{jen.Id("client"): jen.Id("c")}))))
	}
	return out
}

// GroupClient renders the group client type of a module.
func GroupClient(module string) jen.Code {
	typ := ModuleClientType(module)
	return docLines(typ+" groups the "+module+" operations.").
		Type().Id(typ).Struct(jen.Id("client").Op("*").Id("Client"))
}
