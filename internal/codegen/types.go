package codegen

import (
	"errors"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/iancoleman/strcase"

	"github.com/mark3labs/swagger2client/internal/spec"
)

// TypeKind classifies a SemanticType.
type TypeKind int

const (
	KindPrimitive TypeKind = iota
	KindTime
	KindBytes  // base64 inside JSON
	KindStream // raw octets, passed through untouched
	KindModel
	KindObject
	KindAny
)

// SemanticType is the resolved Go type of a parameter or response body.
type SemanticType struct {
	Kind      TypeKind
	Name      string // builtin or model type name
	Qualified bool   // model lives in the models package
	Optional  bool
	Vector    bool
	Elem      *SemanticType // element type when Vector is set
}

// IsString reports whether the type is a plain string scalar.
func (t SemanticType) IsString() bool {
	return !t.Vector && t.Kind == KindPrimitive && t.Name == "string"
}

// IsStream reports whether the type is a raw byte stream.
func (t SemanticType) IsStream() bool { return !t.Vector && t.Kind == KindStream }

// Code renders the type without any optional wrapping. models is the
// import path of the models package; empty means the current package.
func (t SemanticType) Code(models string) *jen.Statement {
	if t.Vector && t.Elem != nil {
		return jen.Index().Add(t.Elem.Code(models))
	}
	switch t.Kind {
	case KindTime:
		return jen.Qual("time", "Time")
	case KindBytes, KindStream:
		return jen.Index().Byte()
	case KindModel:
		if t.Qualified && models != "" {
			return jen.Qual(models, t.Name)
		}
		return jen.Id(t.Name)
	case KindObject:
		return jen.Map(jen.String()).Id("any")
	case KindAny:
		return jen.Id("any")
	default:
		return jen.Id(t.Name)
	}
}

// TypeModifier adjusts a resolved type.
type TypeModifier func(*SemanticType)

// Qualified marks model types as living in the models package.
func Qualified() TypeModifier {
	return func(t *SemanticType) {
		if t.Elem != nil {
			Qualified()(t.Elem)
		}
		if t.Kind == KindModel {
			t.Qualified = true
		}
	}
}

// Optional marks the type as optional.
func Optional() TypeModifier {
	return func(t *SemanticType) { t.Optional = true }
}

// Vector wraps the type into a vector of itself.
func Vector() TypeModifier {
	return func(t *SemanticType) {
		elem := *t
		elem.Optional = false
		*t = SemanticType{Vector: true, Optional: t.Optional, Elem: &elem}
	}
}

// TypeNamer maps schema references to semantic types.
type TypeNamer interface {
	TypeForSchemaRef(ref *spec.SchemaRef, mods ...TypeModifier) (SemanticType, error)
}

var errUnnamedRef = errors.New("reference has no type name")

// ModelTypeNamer names $ref targets after their definition and maps
// primitive schemas onto Go builtins.
type ModelTypeNamer struct{}

func (n ModelTypeNamer) TypeForSchemaRef(ref *spec.SchemaRef, mods ...TypeModifier) (SemanticType, error) {
	t, err := n.resolve(ref)
	if err != nil {
		return SemanticType{}, err
	}
	for _, mod := range mods {
		mod(&t)
	}
	return t, nil
}

func (n ModelTypeNamer) resolve(ref *spec.SchemaRef) (SemanticType, error) {
	if ref == nil {
		return SemanticType{Kind: KindAny}, nil
	}
	if ref.Ref != "" {
		name := modelName(ref.Ref)
		if name == "" {
			return SemanticType{}, &TypeResolutionError{Ref: ref.Ref, Err: errUnnamedRef}
		}
		return SemanticType{Kind: KindModel, Name: name}, nil
	}
	switch ref.Type {
	case "string":
		switch ref.Format {
		case "byte":
			return SemanticType{Kind: KindBytes}, nil
		case "binary":
			return SemanticType{Kind: KindStream}, nil
		case "date-time":
			return SemanticType{Kind: KindTime}, nil
		}
		return SemanticType{Kind: KindPrimitive, Name: "string"}, nil
	case "file":
		return SemanticType{Kind: KindStream}, nil
	case "integer":
		if ref.Format == "int32" {
			return SemanticType{Kind: KindPrimitive, Name: "int32"}, nil
		}
		return SemanticType{Kind: KindPrimitive, Name: "int64"}, nil
	case "number":
		if ref.Format == "float" {
			return SemanticType{Kind: KindPrimitive, Name: "float32"}, nil
		}
		return SemanticType{Kind: KindPrimitive, Name: "float64"}, nil
	case "boolean":
		return SemanticType{Kind: KindPrimitive, Name: "bool"}, nil
	case "array":
		elem, err := n.resolve(ref.Items)
		if err != nil {
			return SemanticType{}, err
		}
		Vector()(&elem)
		return elem, nil
	case "object":
		return SemanticType{Kind: KindObject}, nil
	default:
		return SemanticType{Kind: KindAny}, nil
	}
}

// modelName takes the last segment of a reference and PascalCases it.
func modelName(ref string) string {
	i := strings.LastIndexAny(ref, "/#")
	return strcase.ToCamel(ref[i+1:])
}
