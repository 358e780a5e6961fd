package error

import (
	"fmt"
	"strings"
)

type Severity int

const (
	SeverityDetail Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError

	// SeverityBug marks a violated internal invariant. It is the only
	// severity that stops a build.
	SeverityBug
)

func (s Severity) String() string {
	switch s {
	case SeverityDetail:
		return "detail"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityBug:
		return "bug"
	}
	return "unknown"
}

// Diagnostic is one finding reported during a build. Row and Col are
// 1-based; 0 means the position is unknown.
type Diagnostic struct {
	Severity   Severity
	Code       string
	SourceName string
	Row        int
	Col        int
	Message    string
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	if d.SourceName != "" {
		fmt.Fprintf(&b, "%v: ", d.SourceName)
	}
	if d.Row != 0 {
		fmt.Fprintf(&b, "%v:%v: ", d.Row, d.Col)
	}
	fmt.Fprintf(&b, "%v: %v", d.Severity, d.Message)
	if d.Code != "" {
		fmt.Fprintf(&b, " [%v]", d.Code)
	}
	return b.String()
}

// DiagnosticList collects diagnostics in the order they are discovered.
// Every compilation stage appends to a list owned by its caller; a stage
// never aborts on anything below SeverityBug.
type DiagnosticList struct {
	diags []*Diagnostic
}

func (l *DiagnosticList) Report(d *Diagnostic) {
	l.diags = append(l.diags, d)
}

func (l *DiagnosticList) All() []*Diagnostic {
	return l.diags
}

// HasErrors reports whether the list contains a diagnostic of severity
// error or worse.
func (l *DiagnosticList) HasErrors() bool {
	for _, d := range l.diags {
		if d.Severity >= SeverityError {
			return true
		}
	}
	return false
}
