package wbs

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Prosper1030/birdman-project/internal/rcpsp"
)

// ReadResources parses the resource table CSV with columns Group,
// Hr_Per_Week and Headcount_Cap. Either capacity column may be empty;
// rcpsp resolves the effective capacity.
func ReadResources(r io.Reader) ([]rcpsp.Group, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read resources: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("read resources: empty file")
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["Group"]; !ok {
		return nil, fmt.Errorf("read resources: missing Group column")
	}

	var groups []rcpsp.Group
	for n, row := range records[1:] {
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := get("Group")
		if name == "" {
			return nil, fmt.Errorf("read resources: row %d has empty Group", n+2)
		}

		grp := rcpsp.Group{Name: name}
		if v := get("Hr_Per_Week"); v != "" {
			grp.HoursPerWeek, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("read resources: group %s: bad Hr_Per_Week: %w", name, err)
			}
		}
		if v := get("Headcount_Cap"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("read resources: group %s: bad Headcount_Cap: %w", name, err)
			}
			grp.HeadcountCap = int(f)
		}
		groups = append(groups, grp)
	}

	return groups, nil
}
