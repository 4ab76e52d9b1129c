package merge

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

// yearTokenRe matches the two digits immediately preceding the dash in
// catalog ids like A24-001 or 0X26-003.
var yearTokenRe = regexp.MustCompile(`(\d{2})-`)

// yearToken extracts the year token from a task id, or "" if the id
// carries none.
func yearToken(id string) string {
	m := yearTokenRe.FindStringSubmatch(id)
	if m == nil {
		return ""
	}
	return m[1]
}

// sharedYearToken resolves the year token for a merged identifier. All
// members carrying a token must agree; a conflict is an
// InconsistentMergeInputError, never silently resolved. Components whose
// members carry no token at all use "00".
func sharedYearToken(scc dsm.SCC) (string, error) {
	year := ""
	for _, id := range scc {
		tok := yearToken(id)
		if tok == "" {
			continue
		}
		if year == "" {
			year = tok
			continue
		}
		if tok != year {
			return "", &InconsistentMergeInputError{Members: scc}
		}
	}
	if year == "" {
		year = "00"
	}
	return year, nil
}

// InconsistentMergeInputError reports a component whose members carry
// conflicting year tokens, so no single merged identifier can represent
// them. The caller must fix the catalog.
type InconsistentMergeInputError struct {
	Members []string
}

func (e *InconsistentMergeInputError) Error() string {
	return fmt.Sprintf("conflicting year tokens in cyclic cluster %s", strings.Join(e.Members, ", "))
}
