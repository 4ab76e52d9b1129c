// Package store persists analysis results under .birdman/ so later
// commands can report on a run without recomputing it, and archives
// past runs for comparison.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Prosper1030/birdman-project/internal/simulate"
)

const storeDir = ".birdman"
const recordFile = "analysis.json"
const historyDir = "history"

// Record is the persistent result of an analysis run.
type Record struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Field     string    `json:"field"`
	WBSPath   string    `json:"wbs_path"`
	DSMPath   string    `json:"dsm_path"`

	Cycles     [][]string          `json:"cycles,omitempty"`
	Merged     map[string][]string `json:"merged,omitempty"`
	Plan       *PlanSummary        `json:"plan,omitempty"`
	Simulation *simulate.Result    `json:"simulation,omitempty"`
	Schedule   *ScheduleSummary    `json:"schedule,omitempty"`

	mu   sync.Mutex `json:"-"`
	path string     `json:"-"`
}

// PlanSummary captures the critical-path analysis of a run.
type PlanSummary struct {
	Horizon      float64    `json:"horizon"`
	CriticalPath []string   `json:"critical_path"`
	Waves        [][]string `json:"waves"`
}

// ScheduleSummary captures the resource-constrained schedule of a run.
type ScheduleSummary struct {
	Makespan int               `json:"makespan"`
	Optimal  bool              `json:"optimal"`
	Starts   map[string]int    `json:"starts"`
	Groups   map[string]string `json:"groups"`
}

// NewRunID derives a sortable run identifier from the clock.
func NewRunID() string {
	return "run-" + time.Now().Format("20060102-150405")
}

// New creates a new Record and persists it.
func New(runID, field, wbsPath, dsmPath string) (*Record, error) {
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	r := &Record{
		RunID:     runID,
		CreatedAt: time.Now(),
		Field:     field,
		WBSPath:   wbsPath,
		DSMPath:   dsmPath,
		path:      filepath.Join(storeDir, recordFile),
	}

	if err := r.Save(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads the current record from disk.
func Load() (*Record, error) {
	path := filepath.Join(storeDir, recordFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analysis record: %w", err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse analysis record: %w", err)
	}
	r.path = path
	return &r, nil
}

// Exists checks if a current record exists.
func Exists() bool {
	_, err := os.Stat(filepath.Join(storeDir, recordFile))
	return err == nil
}

// Save persists the record to disk.
func (r *Record) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis record: %w", err)
	}
	return os.WriteFile(r.path, data, 0644)
}

// JSON encodes the record for machine-readable output, every persisted
// section included.
func (r *Record) JSON() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return json.MarshalIndent(r, "", "  ")
}

// SetCycles records detected cycles and merged-task membership and saves.
func (r *Record) SetCycles(cycles [][]string, merged map[string][]string) error {
	r.mu.Lock()
	r.Cycles = cycles
	r.Merged = merged
	r.mu.Unlock()
	return r.Save()
}

// SetPlan records the critical-path summary and saves.
func (r *Record) SetPlan(p *PlanSummary) error {
	r.mu.Lock()
	r.Plan = p
	r.mu.Unlock()
	return r.Save()
}

// SetSimulation records the Monte Carlo result and saves.
func (r *Record) SetSimulation(res *simulate.Result) error {
	r.mu.Lock()
	r.Simulation = res
	r.mu.Unlock()
	return r.Save()
}

// SetSchedule records the resource-constrained schedule and saves.
func (r *Record) SetSchedule(s *ScheduleSummary) error {
	r.mu.Lock()
	r.Schedule = s
	r.mu.Unlock()
	return r.Save()
}

// Archive moves the current record into the history directory, keyed
// by run ID.
func Archive() error {
	r, err := Load()
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	dir := filepath.Join(storeDir, historyDir, r.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.Rename(r.path, filepath.Join(dir, recordFile)); err != nil {
		return fmt.Errorf("archive record: %w", err)
	}
	return nil
}

// LoadArchived reads an archived record by run ID.
func LoadArchived(runID string) (*Record, error) {
	path := filepath.Join(storeDir, historyDir, runID, recordFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archived record %s: %w", runID, err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse archived record %s: %w", runID, err)
	}
	r.path = path
	return &r, nil
}

// ListHistory returns archived run IDs, newest first. Run IDs embed a
// timestamp so lexical order is chronological.
func ListHistory() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(storeDir, historyDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// LoadPrevious returns the most recently archived record.
func LoadPrevious() (*Record, error) {
	ids, err := ListHistory()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no archived runs")
	}
	return LoadArchived(ids[0])
}

// HistoryExists checks if any run has been archived.
func HistoryExists() bool {
	ids, err := ListHistory()
	return err == nil && len(ids) > 0
}

// CleanCurrent removes the current record but keeps history.
func CleanCurrent() error {
	err := os.Remove(filepath.Join(storeDir, recordFile))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clean removes the store directory entirely.
func Clean() error {
	return os.RemoveAll(storeDir)
}
