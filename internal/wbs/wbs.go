// Package wbs loads and writes the task catalog, the DSM dependency
// matrix, and the resource table. It is the thin I/O layer in front of
// the engine; everything it produces is validated before any analysis
// runs.
package wbs

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

// estimate column prefixes, in catalog column order.
var statOrder = []dsm.Stat{dsm.Optimistic, dsm.MostLikely, dsm.Pessimistic, dsm.Expected}

// ReadCatalog parses a WBS CSV. Required columns: "Task ID" and "TRF";
// estimator roles are discovered from columns shaped O_<role>, M_<role>,
// P_<role>, Te_<role>. A missing Te column is derived as (O + 4M + P) / 6.
// Optional columns: Eligible_Groups ("ALL", empty, or a ;-separated
// list) and ResourceDemand.
func ReadCatalog(r io.Reader) ([]*dsm.Task, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read WBS: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("read WBS: empty file")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	idCol, ok := col["Task ID"]
	if !ok {
		return nil, fmt.Errorf("read WBS: missing Task ID column")
	}

	roles := discoverRoles(header)
	if len(roles) == 0 {
		return nil, fmt.Errorf("read WBS: no estimate columns (want e.g. Te_newbie)")
	}

	var tasks []*dsm.Task
	for n, row := range records[1:] {
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		id := strings.TrimSpace(row[idCol])
		if id == "" {
			return nil, fmt.Errorf("read WBS: row %d has empty Task ID", n+2)
		}

		trf, err := parseFloat(get("TRF"), 0)
		if err != nil {
			return nil, fmt.Errorf("read WBS: task %s: bad TRF: %w", id, err)
		}

		estimates := make(map[string]dsm.Estimate, len(roles))
		for _, role := range roles {
			o, err := parseFloat(get("O_"+role), 0)
			if err != nil {
				return nil, fmt.Errorf("read WBS: task %s: bad O_%s: %w", id, role, err)
			}
			m, err := parseFloat(get("M_"+role), 0)
			if err != nil {
				return nil, fmt.Errorf("read WBS: task %s: bad M_%s: %w", id, role, err)
			}
			p, err := parseFloat(get("P_"+role), 0)
			if err != nil {
				return nil, fmt.Errorf("read WBS: task %s: bad P_%s: %w", id, role, err)
			}
			te, err := parseFloat(get("Te_"+role), (o+4*m+p)/6)
			if err != nil {
				return nil, fmt.Errorf("read WBS: task %s: bad Te_%s: %w", id, role, err)
			}
			estimates[role] = dsm.Estimate{O: o, M: m, P: p, Te: te}
		}

		demand := 0
		if v := get("ResourceDemand"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("read WBS: task %s: bad ResourceDemand: %w", id, err)
			}
			demand = int(f)
		}

		tasks = append(tasks, &dsm.Task{
			ID:             id,
			TRF:            trf,
			Estimates:      estimates,
			EligibleGroups: ParseEligibleGroups(get("Eligible_Groups")),
			ResourceDemand: demand,
		})
	}

	return tasks, nil
}

// ParseEligibleGroups parses the Eligible_Groups cell. "ALL" and the
// empty string both mean any group, which the engine encodes as nil.
func ParseEligibleGroups(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "ALL") {
		return nil
	}
	var groups []string
	for _, g := range strings.Split(value, ";") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// ValidateIDs checks that the catalog and the DSM describe the same task
// set, and that every TRF sits in [0, 1].
func ValidateIDs(tasks []*dsm.Task, dsmIDs []string) error {
	inDSM := make(map[string]bool, len(dsmIDs))
	for _, id := range dsmIDs {
		inDSM[id] = true
	}
	inCatalog := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		inCatalog[t.ID] = true
		if !inDSM[t.ID] {
			return &dsm.ValidationError{Reason: fmt.Sprintf("task %s in WBS but not in DSM", t.ID)}
		}
		if t.TRF < 0 || t.TRF > 1 {
			return &dsm.ValidationError{Reason: fmt.Sprintf("task %s has TRF %v outside [0, 1]", t.ID, t.TRF)}
		}
	}
	for _, id := range dsmIDs {
		if !inCatalog[id] {
			return &dsm.ValidationError{Reason: fmt.Sprintf("task %s in DSM but not in WBS", id)}
		}
	}
	return nil
}

// WriteCatalog writes tasks back out as a WBS CSV in the given order,
// with an optional Layer column. Used for the sorted and merged catalog
// exports.
func WriteCatalog(w io.Writer, tasks []*dsm.Task, layers map[string]int) error {
	roles := make(map[string]bool)
	for _, t := range tasks {
		for role := range t.Estimates {
			roles[role] = true
		}
	}
	var roleNames []string
	for role := range roles {
		roleNames = append(roleNames, role)
	}
	sort.Strings(roleNames)

	header := []string{"Task ID", "TRF"}
	for _, role := range roleNames {
		for _, stat := range statOrder {
			header = append(header, stat.String()+"_"+role)
		}
	}
	header = append(header, "Eligible_Groups", "ResourceDemand")
	if layers != nil {
		header = append(header, "Layer")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write WBS: %w", err)
	}
	for _, t := range tasks {
		row := []string{t.ID, formatFloat(t.TRF)}
		for _, role := range roleNames {
			est := t.Estimates[role]
			for _, stat := range statOrder {
				row = append(row, formatFloat(est.Value(stat)))
			}
		}
		eligible := "ALL"
		if len(t.EligibleGroups) > 0 {
			eligible = strings.Join(t.EligibleGroups, ";")
		}
		row = append(row, eligible, strconv.Itoa(t.Demand()))
		if layers != nil {
			row = append(row, strconv.Itoa(layers[t.ID]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write WBS: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// discoverRoles collects estimator roles from estimate-shaped headers.
func discoverRoles(header []string) []string {
	seen := make(map[string]bool)
	var roles []string
	for _, name := range header {
		name = strings.TrimSpace(name)
		for _, prefix := range []string{"O_", "M_", "P_", "Te_"} {
			if role, ok := strings.CutPrefix(name, prefix); ok && role != "" && !seen[role] {
				seen[role] = true
				roles = append(roles, role)
			}
		}
	}
	sort.Strings(roles)
	return roles
}

func parseFloat(s string, fallback float64) (float64, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
