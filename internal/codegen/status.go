package codegen

import (
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StatusPredicate selects the declared status codes that are success outcomes.
type StatusPredicate func(status string) bool

// IsSuccessStatus accepts numeric codes in the 2xx range.
func IsSuccessStatus(status string) bool {
	code, err := strconv.Atoi(strings.TrimSpace(status))
	return err == nil && code >= 200 && code < 300
}

// StatusIdentifier maps a status code to a Go identifier made of the
// standard status text and the code: "200" -> "OK200", "204" -> "NoContent204".
func StatusIdentifier(status string) string {
	status = strings.TrimSpace(status)
	code, err := strconv.Atoi(status)
	if err != nil {
		return "Status" + alnum(titleCase(status))
	}
	text := http.StatusText(code)
	if text == "" {
		return "Status" + status
	}
	return alnum(titleCase(text)) + status
}

// titleCase upper-cases the first letter of each word and leaves the rest
// alone, so "default" becomes "Default" and "2XX" stays "2XX".
func titleCase(s string) string {
	// Casers are stateful, so each call gets its own.
	return cases.Title(language.English, cases.NoLower).String(s)
}

func alnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
