package dsm

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed graph input: duplicate task ids or
// edges referencing tasks that do not exist. No analysis runs on input
// that fails validation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid graph input: " + e.Reason
}

// CyclicGraphError reports a cyclic graph handed to an operation that
// requires a DAG. Remaining lists the tasks that could not be ordered.
type CyclicGraphError struct {
	Remaining []string
}

func (e *CyclicGraphError) Error() string {
	return fmt.Sprintf("graph contains a cycle involving %s", strings.Join(e.Remaining, ", "))
}
