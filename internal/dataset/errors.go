package dataset

import (
	"fmt"
)

// LoadError reports a source row that cannot be loaded
type LoadError struct {
	Source string // demographic, biometric, enrolment, centers, history
	Line   int    // 1-based CSV line, 0 when the whole source is affected
	Field  string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := e.Source
	if e.Line > 0 {
		msg = fmt.Sprintf("%s line %d", msg, e.Line)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s field %q", msg, e.Field)
	}
	msg = fmt.Sprintf("load error: %s: %s", msg, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
