package codegen

import "github.com/mark3labs/swagger2client/internal/spec"

// ResponseEntry is one success status of an operation.
type ResponseEntry struct {
	Status string
	Ident  string        // e.g. "OK200"
	Type   *SemanticType // nil when the response has no body
}

// Pagination mirrors the operation's pageable hint.
type Pagination struct {
	NextLinkName *string
}

// HasNextLink reports whether the next page is linked from the response body.
func (p *Pagination) HasNextLink() bool {
	return p != nil && p.NextLinkName != nil && *p.NextLinkName != ""
}

// ResponseShape is the emitted response contract of one operation.
type ResponseShape struct {
	Entries    []ResponseEntry
	Pagination *Pagination
}

// IsUnion reports whether the response is a tagged union. Exactly one
// success status collapses into a direct type.
func (s ResponseShape) IsUnion() bool { return len(s.Entries) != 1 }

// UnionContinuation reports whether the union needs a continuation accessor
// delegating to its variants' bodies.
func (s ResponseShape) UnionContinuation() bool {
	return s.IsUnion() && s.Pagination.HasNextLink()
}

// Direct returns the single entry of a non-union shape.
func (s ResponseShape) Direct() ResponseEntry { return s.Entries[0] }

// ResponseResolver collapses declared responses into a ResponseShape.
type ResponseResolver struct {
	Types       TypeNamer
	IsSuccess   StatusPredicate
	StatusIdent func(status string) string
}

// Resolve keeps success statuses in declaration order and names their types.
func (r ResponseResolver) Resolve(op *spec.Operation) (ResponseShape, error) {
	isSuccess := r.IsSuccess
	if isSuccess == nil {
		isSuccess = IsSuccessStatus
	}
	ident := r.StatusIdent
	if ident == nil {
		ident = StatusIdentifier
	}

	var shape ResponseShape
	for _, resp := range op.Responses {
		if !isSuccess(resp.Status) {
			continue
		}
		entry := ResponseEntry{Status: resp.Status, Ident: ident(resp.Status)}
		if resp.Schema != nil {
			t, err := r.Types.TypeForSchemaRef(resp.Schema, Qualified())
			if err != nil {
				return ResponseShape{}, withOperation(err, op)
			}
			entry.Type = &t
		}
		shape.Entries = append(shape.Entries, entry)
	}
	if op.Pageable != nil {
		shape.Pagination = &Pagination{NextLinkName: op.Pageable.NextLinkName}
	}
	return shape, nil
}
