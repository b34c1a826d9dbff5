package codegen

import "fmt"

// Severity ranks a generation issue.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Issue is a soft diagnostic: generation succeeded, but the emitted code
// knowingly degrades behavior for one operation.
type Issue struct {
	Operation string
	Message   string
	Severity  Severity
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Operation, i.Message)
}
