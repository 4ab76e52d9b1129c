package cpm

import "github.com/Prosper1030/birdman-project/internal/dsm"

// DefaultTolerance absorbs floating-point drift when classifying critical
// tasks: a task whose true slack is exactly zero must not be misclassified
// because fractional durations accumulated rounding error.
const DefaultTolerance = 1e-9

// Options tunes a critical path analysis.
type Options struct {
	Tolerance float64 // zero means DefaultTolerance
}

func (o Options) tolerance() float64 {
	if o.Tolerance > 0 {
		return o.Tolerance
	}
	return DefaultTolerance
}

// Span is one task's earliest-start/earliest-finish pair from a forward pass.
type Span struct {
	ES, EF float64
}

// Schedule holds the complete critical path analysis for one duration field.
type Schedule struct {
	Field          dsm.Field
	Tasks          map[string]*TaskSchedule
	TopoOrder      []string
	Horizon        float64    // project completion time, max EF over sinks
	CriticalPath   []string   // critical task ids in topological order
	CriticalChains [][]string // every maximal source-to-sink critical chain
	Waves          []Wave     // parallelizable groups by earliest start
}

// TaskSchedule holds the scheduling info for a single task. Slack is
// total float; FreeSlack is how far the task can slip without moving any
// successor's earliest start.
type TaskSchedule struct {
	TaskID    string
	ES, EF    float64
	LS, LF    float64
	Slack     float64
	FreeSlack float64
	Critical  bool
	Wave      int
}

// Wave represents a group of tasks that can execute in parallel.
type Wave struct {
	Index    int
	TaskIDs  []string
	Critical bool // true if the wave contains critical path tasks
}
