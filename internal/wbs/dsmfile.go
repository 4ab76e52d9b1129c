package wbs

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

// Matrix is a parsed DSM: a square 0/1 adjacency structure where
// Cells[row][col] != 0 means the row task depends on the column task.
type Matrix struct {
	TaskIDs []string
	Cells   [][]int
}

// ReadDSM parses a DSM CSV: a header of task ids, then one row per task
// starting with its id. The matrix must be square with identical row and
// column ids, in the same order.
func ReadDSM(r io.Reader) (*Matrix, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read DSM: %w", err)
	}
	if len(records) < 2 {
		return nil, &dsm.ValidationError{Reason: "DSM has no task rows"}
	}

	cols := records[0][1:]
	rows := records[1:]
	if len(rows) != len(cols) {
		return nil, &dsm.ValidationError{Reason: fmt.Sprintf("DSM is not square: %d rows, %d columns", len(rows), len(cols))}
	}

	m := &Matrix{
		TaskIDs: make([]string, len(cols)),
		Cells:   make([][]int, len(rows)),
	}
	for i, c := range cols {
		m.TaskIDs[i] = strings.TrimSpace(c)
	}

	for i, row := range rows {
		if len(row) != len(cols)+1 {
			return nil, &dsm.ValidationError{Reason: fmt.Sprintf("DSM row %d has %d cells, want %d", i+1, len(row)-1, len(cols))}
		}
		id := strings.TrimSpace(row[0])
		if id != m.TaskIDs[i] {
			return nil, &dsm.ValidationError{Reason: fmt.Sprintf("DSM row id %s does not match column id %s", id, m.TaskIDs[i])}
		}
		m.Cells[i] = make([]int, len(cols))
		for j, cell := range row[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.Atoi(cell)
			if err != nil {
				return nil, &dsm.ValidationError{Reason: fmt.Sprintf("DSM cell (%s, %s) is not numeric: %q", id, m.TaskIDs[j], cell)}
			}
			m.Cells[i][j] = v
		}
	}

	return m, nil
}
