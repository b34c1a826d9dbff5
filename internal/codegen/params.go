package codegen

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/swagger2client/internal/naming"
	"github.com/mark3labs/swagger2client/internal/spec"
)

// ParamKind is where a classified parameter travels on the request.
type ParamKind int

const (
	ParamPath ParamKind = iota
	ParamQuery
	ParamHeader
	ParamBody
	ParamFormData
)

func (k ParamKind) String() string {
	switch k {
	case ParamPath:
		return "path"
	case ParamQuery:
		return "query"
	case ParamHeader:
		return "header"
	case ParamBody:
		return "body"
	case ParamFormData:
		return "formData"
	default:
		return "unknown"
	}
}

func kindOf(loc spec.ParameterLocation) ParamKind {
	switch loc {
	case spec.InPath:
		return ParamPath
	case spec.InHeader:
		return ParamHeader
	case spec.InBody:
		return ParamBody
	case spec.InFormData:
		return ParamFormData
	default:
		return ParamQuery
	}
}

// ClassifiedParameter is a declared parameter with its Go name, type and kind.
type ClassifiedParameter struct {
	Name             string // wire name
	VarName          string // Go identifier for locals and builder fields
	Type             SemanticType
	Kind             ParamKind
	CollectionFormat spec.CollectionFormat
	Description      string
}

// Required is the negation of the type's optionality.
func (p ClassifiedParameter) Required() bool { return !p.Type.Optional }

// ParameterSet is the classified parameter list of one operation.
type ParameterSet struct {
	// HasAPIVersion records that the api-version query parameter was
	// declared; it is stamped from the operation's version, never from a field.
	HasAPIVersion bool
	Params        []ClassifiedParameter
}

// Required returns the non-optional parameters in declaration order.
func (s ParameterSet) Required() []ClassifiedParameter {
	return s.filter(func(p ClassifiedParameter) bool { return p.Required() })
}

// Optional returns the optional parameters in declaration order.
func (s ParameterSet) Optional() []ClassifiedParameter {
	return s.filter(func(p ClassifiedParameter) bool { return !p.Required() })
}

// OfKind returns the parameters of one kind in declaration order.
func (s ParameterSet) OfKind(k ParamKind) []ClassifiedParameter {
	return s.filter(func(p ClassifiedParameter) bool { return p.Kind == k })
}

// HasContentTypeHeader reports whether a header parameter named
// content-type (any casing) is present.
func (s ParameterSet) HasContentTypeHeader() bool {
	for _, p := range s.Params {
		if p.Kind == ParamHeader && strings.EqualFold(p.Name, "content-type") {
			return true
		}
	}
	return false
}

// HasBody reports whether any Body parameter is present.
func (s ParameterSet) HasBody() bool { return len(s.OfKind(ParamBody)) > 0 }

func (s ParameterSet) filter(keep func(ClassifiedParameter) bool) []ClassifiedParameter {
	var out []ClassifiedParameter
	for _, p := range s.Params {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Classifier turns declared parameters into a ParameterSet.
type Classifier struct {
	Sanitizer naming.Sanitizer
	Types     TypeNamer
}

// Classify drops the api-version parameter and any parameter the path
// template already carries in its literal query string, then resolves names,
// types, and kinds for the rest.
func (c Classifier) Classify(op *spec.Operation) (ParameterSet, error) {
	set := ParameterSet{HasAPIVersion: op.HasAPIVersionParam()}
	skip := skipSet(op.Path)
	// Reserved: receivers, the builder's back-reference, and builder methods.
	taken := map[string]bool{
		"b": true, "c": true, "client": true,
		"send": true, "pager": true, "newRequest": true, "decode": true,
	}

	for _, p := range op.Parameters {
		if skip[p.Name] {
			continue
		}
		varName, err := c.Sanitizer.Sanitize(p.Name)
		if err != nil {
			return ParameterSet{}, &NamingError{Operation: operationLabel(op), Name: p.Name, Err: err}
		}
		varName = uniqueName(varName, taken)

		mods := []TypeModifier{Qualified()}
		if !p.Required {
			mods = append(mods, Optional())
		}
		typ, err := c.Types.TypeForSchemaRef(p.Schema, mods...)
		if err != nil {
			return ParameterSet{}, withOperation(err, op)
		}

		set.Params = append(set.Params, ClassifiedParameter{
			Name:             p.Name,
			VarName:          varName,
			Type:             typ,
			Kind:             kindOf(p.Location),
			CollectionFormat: p.CollectionFormat,
			Description:      p.Description,
		})
	}
	return set, nil
}

// skipSet holds api-version plus the names of the path template's literal
// query string, e.g. "/containers/{name}?restype=container".
func skipSet(path string) map[string]bool {
	skip := map[string]bool{spec.APIVersionParam: true}
	if _, query, ok := strings.Cut(path, "?"); ok {
		values, _ := url.ParseQuery(query)
		for name := range values {
			skip[name] = true
		}
	}
	return skip
}

func uniqueName(name string, taken map[string]bool) string {
	candidate := name
	for i := 2; taken[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}
	taken[candidate] = true
	return candidate
}

func operationLabel(op *spec.Operation) string {
	if op.ID != "" {
		return op.ID
	}
	return op.Method.Upper() + " " + op.Path
}

func withOperation(err error, op *spec.Operation) error {
	if te, ok := err.(*TypeResolutionError); ok {
		cp := *te
		cp.Operation = operationLabel(op)
		return &cp
	}
	return &TypeResolutionError{Operation: operationLabel(op), Err: err}
}
