package naming

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
)

// ErrInvalidIdentifier is returned when a string cannot be turned into a Go
// identifier.
var ErrInvalidIdentifier = errors.New("naming: invalid identifier")

// Sanitizer maps a free-form string to a valid identifier or fails.
type Sanitizer interface {
	Sanitize(raw string) (string, error)
}

// SanitizerFunc adapts a function to the Sanitizer interface.
type SanitizerFunc func(raw string) (string, error)

func (f SanitizerFunc) Sanitize(raw string) (string, error) { return f(raw) }

// goReservedWords are Go keywords plus the predeclared identifiers that
// generated code relies on.
var goReservedWords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	"ctx": true, "err": true, "nil": true, "true": true, "false": true, "iota": true,
	"string": true, "error": true, "any": true, "len": true, "append": true,
}

// GoSanitizer produces lowerCamel Go identifiers suitable for variables and
// struct fields.
type GoSanitizer struct{}

func (GoSanitizer) Sanitize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	cleaned := strings.Trim(b.String(), "_")
	if cleaned == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	name := strcase.ToLowerCamel(cleaned)
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "n" + name
	}
	if goReservedWords[name] {
		name += "_"
	}
	return name, nil
}

// Exported returns the PascalCase form of an already sanitized identifier.
func Exported(ident string) string {
	return strcase.ToCamel(strings.TrimSuffix(ident, "_"))
}
