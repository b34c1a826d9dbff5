// Package naming derives module and function names for operations and turns
// free-form strings into Go identifiers.
package naming

import (
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/mark3labs/swagger2client/internal/spec"
)

// Separator splits an operation identifier into its group and action parts.
const Separator = "_"

// Result is the canonical (module, function) pair for one operation.
// An empty Module means the operation belongs to no group.
type Result struct {
	Module   string
	Function string
}

// HasModule reports whether the operation is grouped.
func (r Result) HasModule() bool { return r.Module != "" }

// Resolve derives names for op. It never fails: when the identifier is
// missing or normalizes to nothing, the function name falls back to the
// lowercased verb joined with the raw path segments.
func Resolve(op *spec.Operation) Result {
	id := strings.TrimSpace(op.ID)
	if id == "" {
		return Result{Function: fallbackName(op)}
	}
	if group, action, ok := strings.Cut(id, Separator); ok && group != "" && action != "" {
		module, function := strcase.ToSnake(group), strcase.ToSnake(action)
		if module != "" && function != "" {
			return Result{Module: module, Function: function}
		}
	}
	if function := strcase.ToSnake(id); function != "" {
		return Result{Function: function}
	}
	return Result{Function: fallbackName(op)}
}

// fallbackName keeps placeholder braces; segments are taken verbatim.
func fallbackName(op *spec.Operation) string {
	parts := []string{strings.ToLower(string(op.Method))}
	for _, seg := range strings.Split(op.Path, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, Separator)
}
