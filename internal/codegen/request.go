package codegen

import (
	"strings"

	"github.com/mark3labs/swagger2client/internal/spec"
)

// StepKind is one serialization action applied to an outgoing request.
type StepKind int

const (
	StepAPIVersion        StepKind = iota // append api-version=<literal>
	StepQuery                             // append one query pair
	StepQueryMulti                        // append one query pair per element
	StepHeader                            // set a header
	StepBody                              // encode the body
	StepFormData                          // fail: form data is not implemented
	StepEmptyBody                         // send no body
	StepContentLengthZero                 // explicit zero ContentLength for bodiless POST
)

func (k StepKind) String() string {
	return [...]string{"api-version", "query", "query-multi", "header", "body", "form-data", "empty-body", "content-length-zero"}[k]
}

// Step is a planned request mutation.
type Step struct {
	Kind  StepKind
	Param *ClassifiedParameter
	// Name is the query name or the lowercased header name.
	Name  string
	Value string // api-version literal
	// Guarded steps only run when the optional value is present.
	Guarded bool
	// ContentType is stamped before the body; empty when the operation
	// carries its own content-type header parameter.
	ContentType string
}

// RequestPlan is the ordered list of request mutations for one operation.
type RequestPlan struct {
	Steps []Step
	// Unsupported lists vector query parameters whose collection format has
	// no serialization; they never reach the wire.
	Unsupported []ClassifiedParameter
}

// Kinds lists the step kinds in order.
func (p RequestPlan) Kinds() []StepKind {
	out := make([]StepKind, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Kind
	}
	return out
}

// PlanRequest decides how every classified parameter reaches the wire.
// Path parameters are not part of the plan; they are substituted into the
// URL template.
func PlanRequest(op *spec.Operation, params ParameterSet, consumes string) RequestPlan {
	var plan RequestPlan
	if params.HasAPIVersion {
		plan.Steps = append(plan.Steps, Step{Kind: StepAPIVersion, Name: spec.APIVersionParam, Value: op.APIVersion})
	}

	contentType := consumes
	if params.HasContentTypeHeader() {
		contentType = ""
	}

	for i := range params.Params {
		p := &params.Params[i]
		switch p.Kind {
		case ParamPath:
		case ParamQuery:
			switch {
			case !p.Type.Vector:
				plan.Steps = append(plan.Steps, Step{Kind: StepQuery, Param: p, Name: p.Name, Guarded: !p.Required()})
			case p.CollectionFormat == spec.CollectionMulti:
				plan.Steps = append(plan.Steps, Step{Kind: StepQueryMulti, Param: p, Name: p.Name})
			default:
				plan.Unsupported = append(plan.Unsupported, *p)
			}
		case ParamHeader:
			plan.Steps = append(plan.Steps, Step{
				Kind:    StepHeader,
				Param:   p,
				Name:    strings.ToLower(p.Name),
				Guarded: !p.Required() && !p.Type.Vector,
			})
		case ParamBody:
			plan.Steps = append(plan.Steps, Step{
				Kind:        StepBody,
				Param:       p,
				Name:        p.Name,
				Guarded:     !p.Required() && !p.Type.Vector,
				ContentType: contentType,
			})
		case ParamFormData:
			plan.Steps = append(plan.Steps, Step{Kind: StepFormData, Param: p, Name: p.Name})
		}
	}

	if !params.HasBody() {
		plan.Steps = append(plan.Steps, Step{Kind: StepEmptyBody})
		if op.Method == spec.POST {
			plan.Steps = append(plan.Steps, Step{Kind: StepContentLengthZero})
		}
	}
	return plan
}
