package spec

import "strings"

// Internal Model (IM) definitions consumed by the code generator.

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	PATCH   HttpMethod = "patch"
	DELETE  HttpMethod = "delete"
	OPTIONS HttpMethod = "options"
	HEAD    HttpMethod = "head"
)

// Upper returns the verb as it appears on the wire.
func (m HttpMethod) Upper() string { return strings.ToUpper(string(m)) }

// ParameterLocation is the declared "in" of a parameter.
type ParameterLocation string

const (
	InPath     ParameterLocation = "path"
	InQuery    ParameterLocation = "query"
	InHeader   ParameterLocation = "header"
	InBody     ParameterLocation = "body"
	InFormData ParameterLocation = "formData"
)

// CollectionFormat is the wire convention for array-valued query parameters.
type CollectionFormat string

const (
	CollectionNone  CollectionFormat = ""
	CollectionMulti CollectionFormat = "multi"
	CollectionCSV   CollectionFormat = "csv"
	CollectionSSV   CollectionFormat = "ssv"
	CollectionTSV   CollectionFormat = "tsv"
	CollectionPipes CollectionFormat = "pipes"
)

// DefaultContentType is used when an operation declares no consumes list.
const DefaultContentType = "application/json"

type ServiceModel struct {
	Title       string
	Version     string // api-version stamped on requests
	Description string
	Endpoint    string // fixed service endpoint, empty when the document has none
	Tags        []string
	Operations  []Operation
	Issues      []string
}

// Operation is one verb+path unit of the API. It is built once by the
// normalizer and treated as immutable afterwards.
type Operation struct {
	ID          string // operationId; empty when the document has none
	Method      HttpMethod
	Path        string
	APIVersion  string
	Parameters  []Parameter
	Responses   []Response
	Pageable    *Pageable
	LongRunning bool
	Summary     string
	Description string
	Consumes    string
	Tags        []string
}

// InGroup reports whether the operation belongs to a named operation group,
// which is the case when its identifier carries a group prefix.
func (o *Operation) InGroup() bool {
	before, after, ok := strings.Cut(o.ID, "_")
	return ok && before != "" && after != ""
}

// HasAPIVersionParam reports whether the declared parameters carry the
// reserved api-version query parameter.
func (o *Operation) HasAPIVersionParam() bool {
	for _, p := range o.Parameters {
		if p.Location == InQuery && p.Name == APIVersionParam {
			return true
		}
	}
	return false
}

// APIVersionParam is the reserved query parameter used for version pinning.
const APIVersionParam = "api-version"

type Parameter struct {
	Name             string
	Location         ParameterLocation
	Required         bool
	Schema           *SchemaRef
	CollectionFormat CollectionFormat
	Description      string
}

type Response struct {
	Status      string // "200", "204", "default"
	Description string
	Schema      *SchemaRef // nil when the response has no body
}

// Pageable carries the x-ms-pageable hint. A nil NextLinkName means the
// continuation does not live in the response body.
type Pageable struct {
	NextLinkName *string
}

// SchemaRef is the subset of a schema the generator needs to name a type.
type SchemaRef struct {
	Ref    string
	Type   string
	Format string
	Items  *SchemaRef
}
