// Package report renders analysis results as terminal tables or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Prosper1030/birdman-project/internal/cpm"
	"github.com/Prosper1030/birdman-project/internal/merge"
	"github.com/Prosper1030/birdman-project/internal/rcpsp"
	"github.com/Prosper1030/birdman-project/internal/simulate"
	"github.com/Prosper1030/birdman-project/internal/ui"
)

// PrintCycles writes detected cycles and the synthetic tasks that
// replaced them.
func PrintCycles(w io.Writer, cycles [][]string, infos map[string]*merge.Info) {
	if len(cycles) == 0 {
		fmt.Fprintf(w, "%s no cycles detected\n", ui.Green("✓"))
		return
	}

	fmt.Fprintf(w, "%s %d cycle(s) detected\n\n", ui.BoldYellow("!"), len(cycles))

	ids := make([]string, 0, len(infos))
	for id := range infos {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		info := infos[id]
		fmt.Fprintf(w, "  %s %s %s  %s\n",
			ui.BoldMagenta(id),
			ui.Dim("<-"),
			strings.Join(info.Members, ", "),
			ui.Dim(fmt.Sprintf("[k=%.3f]", info.K)))
	}
	fmt.Fprintln(w)
}

// PrintSchedule writes the critical-path table: one row per task with
// early/late times, slack, and a critical marker.
func PrintSchedule(w io.Writer, s *cpm.Schedule) {
	fmt.Fprintf(w, "%s  field=%s  horizon=%s\n\n",
		ui.BoldCyan("Critical Path Analysis"),
		ui.Bold(s.Field.String()),
		ui.Bold(fmt.Sprintf("%.2f", s.Horizon)))

	fmt.Fprintf(w, "  %s %-10s %8s %8s %8s %8s %8s %8s\n",
		" ", "Task", "ES", "EF", "LS", "LF", "Slack", "Free")

	for _, id := range s.TopoOrder {
		t := s.Tasks[id]
		name := ui.BoldMagenta(t.TaskID)
		if !t.Critical {
			name = ui.Dim(t.TaskID)
		}
		fmt.Fprintf(w, "  %s %-10s %8.2f %8.2f %8.2f %8.2f %8.2f %8.2f\n",
			ui.CriticalMark(t.Critical), name,
			t.ES, t.EF, t.LS, t.LF, t.Slack, t.FreeSlack)
	}

	fmt.Fprintf(w, "\nCritical:  %s\n",
		ui.BoldRed(strings.Join(s.CriticalPath, " -> ")))
	if len(s.CriticalChains) > 1 {
		fmt.Fprintf(w, "Chains:    %d distinct critical chains\n", len(s.CriticalChains))
	}
}

// PrintWaves writes the parallel execution waves grouped by earliest
// start time.
func PrintWaves(w io.Writer, s *cpm.Schedule) {
	fmt.Fprintf(w, "%s\n\n", ui.BoldCyan("Execution Waves"))
	for _, wave := range s.Waves {
		label := fmt.Sprintf("Wave %d", wave.Index+1)
		if wave.Critical {
			label = ui.BoldWhite(label) + " " + ui.BoldRed("*")
		} else {
			label = ui.BoldWhite(label) + "  "
		}
		fmt.Fprintf(w, "  %s  %s\n", label, strings.Join(wave.TaskIDs, ", "))
	}
	fmt.Fprintln(w)
}

// PrintLayers writes the topological layering of the dependency graph.
func PrintLayers(w io.Writer, layers [][]string) {
	fmt.Fprintf(w, "%s\n\n", ui.BoldCyan("Topological Layers"))
	for i, layer := range layers {
		fmt.Fprintf(w, "  %s %d  %s\n", ui.BoldWhite("Layer"), i, strings.Join(layer, ", "))
	}
	fmt.Fprintln(w)
}

// PrintSimulation writes the Monte Carlo summary.
func PrintSimulation(w io.Writer, res *simulate.Result) {
	fmt.Fprintf(w, "%s\n\n", ui.BoldCyan("Monte Carlo Simulation"))
	fmt.Fprintf(w, "  Trials:      %d", res.Completed)
	if res.Completed < res.Requested {
		fmt.Fprintf(w, " %s", ui.Yellow(fmt.Sprintf("(of %d requested)", res.Requested)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Mean:        %s\n", ui.Bold(fmt.Sprintf("%.2f", res.Mean)))
	fmt.Fprintf(w, "  Std dev:     %.2f\n", res.StdDev)
	fmt.Fprintf(w, "  Range:       %.2f .. %.2f\n", res.Min, res.Max)
	fmt.Fprintf(w, "  %.0f%% interval: %s\n\n",
		res.Confidence*100,
		ui.BoldGreen(fmt.Sprintf("[%.2f, %.2f]", res.Lower, res.Upper)))
}

// PrintResourceSchedule writes the resource-constrained timeline, one
// row per task ordered by start time then id.
func PrintResourceSchedule(w io.Writer, s *rcpsp.Schedule) {
	fmt.Fprintf(w, "%s  makespan=%s  %s\n\n",
		ui.BoldCyan("Resource Schedule"),
		ui.Bold(fmt.Sprintf("%d", s.Makespan)),
		ui.OptimalityTag(s.Optimal))

	ids := make([]string, 0, len(s.Tasks))
	for id := range s.Tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.Tasks[ids[i]], s.Tasks[ids[j]]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return ids[i] < ids[j]
	})

	fmt.Fprintf(w, "  %-10s %6s %6s  %s\n", "Task", "Start", "End", "Group")
	for _, id := range ids {
		a := s.Tasks[id]
		fmt.Fprintf(w, "  %-10s %6d %6d  %s\n",
			ui.TaskPrefix(id), a.Start, a.Finish, ui.Cyan(a.Group))
	}
	fmt.Fprintln(w)
}

// PrintCapacityPlan writes the minimal per-group capacities found for a
// deadline.
func PrintCapacityPlan(w io.Writer, p *rcpsp.CapacityPlan) {
	fmt.Fprintf(w, "%s  deadline=%s  makespan=%s\n\n",
		ui.BoldCyan("Capacity Plan"),
		ui.Bold(fmt.Sprintf("%d", p.Deadline)),
		ui.Bold(fmt.Sprintf("%d", p.Makespan)))

	names := make([]string, 0, len(p.Capacities))
	for name := range p.Capacities {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "  %-12s %9s\n", "Group", "Headcount")
	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %9d\n", ui.Cyan(name), p.Capacities[name])
	}
	fmt.Fprintln(w)
}

// JSON bundles any computed results into one machine-readable payload.
// Nil sections are omitted.
func JSON(cycles [][]string, infos map[string]*merge.Info, s *cpm.Schedule, res *simulate.Result, rs *rcpsp.Schedule) ([]byte, error) {
	type mergedTask struct {
		ID      string   `json:"id"`
		Members []string `json:"members"`
		K       float64  `json:"k"`
	}

	type taskRow struct {
		TaskID    string  `json:"task_id"`
		ES        float64 `json:"es"`
		EF        float64 `json:"ef"`
		LS        float64 `json:"ls"`
		LF        float64 `json:"lf"`
		Slack     float64 `json:"slack"`
		FreeSlack float64 `json:"free_slack"`
		Critical  bool    `json:"critical"`
		Wave      int     `json:"wave"`
	}

	type planOut struct {
		Field        string     `json:"field"`
		Horizon      float64    `json:"horizon"`
		CriticalPath []string   `json:"critical_path"`
		Chains       [][]string `json:"critical_chains"`
		Waves        [][]string `json:"waves"`
		Tasks        []taskRow  `json:"tasks"`
	}

	type assignmentOut struct {
		TaskID string `json:"task_id"`
		Start  int    `json:"start"`
		Finish int    `json:"finish"`
		Group  string `json:"group"`
	}

	type scheduleOut struct {
		Makespan    int             `json:"makespan"`
		Optimal     bool            `json:"optimal"`
		Assignments []assignmentOut `json:"assignments"`
	}

	type output struct {
		Cycles     [][]string       `json:"cycles,omitempty"`
		Merged     []mergedTask     `json:"merged,omitempty"`
		Plan       *planOut         `json:"plan,omitempty"`
		Simulation *simulate.Result `json:"simulation,omitempty"`
		Schedule   *scheduleOut     `json:"schedule,omitempty"`
	}

	o := output{Cycles: cycles, Simulation: res}

	if len(infos) > 0 {
		ids := make([]string, 0, len(infos))
		for id := range infos {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			info := infos[id]
			o.Merged = append(o.Merged, mergedTask{ID: info.ID, Members: info.Members, K: info.K})
		}
	}

	if s != nil {
		p := &planOut{
			Field:        s.Field.String(),
			Horizon:      s.Horizon,
			CriticalPath: s.CriticalPath,
			Chains:       s.CriticalChains,
		}
		for _, wave := range s.Waves {
			p.Waves = append(p.Waves, wave.TaskIDs)
		}
		for _, id := range s.TopoOrder {
			t := s.Tasks[id]
			p.Tasks = append(p.Tasks, taskRow{
				TaskID: t.TaskID, ES: t.ES, EF: t.EF, LS: t.LS, LF: t.LF,
				Slack: t.Slack, FreeSlack: t.FreeSlack, Critical: t.Critical, Wave: t.Wave,
			})
		}
		o.Plan = p
	}

	if rs != nil {
		so := &scheduleOut{Makespan: rs.Makespan, Optimal: rs.Optimal}
		ids := make([]string, 0, len(rs.Tasks))
		for id := range rs.Tasks {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			a := rs.Tasks[id]
			so.Assignments = append(so.Assignments, assignmentOut{
				TaskID: id, Start: a.Start, Finish: a.Finish, Group: a.Group,
			})
		}
		o.Schedule = so
	}

	return json.MarshalIndent(o, "", "  ")
}

// CapacityJSON encodes a capacity plan as machine-readable JSON, groups
// in name order.
func CapacityJSON(p *rcpsp.CapacityPlan) ([]byte, error) {
	type groupCap struct {
		Group     string `json:"group"`
		Headcount int    `json:"headcount"`
	}
	type output struct {
		Field      string     `json:"field"`
		Deadline   int        `json:"deadline"`
		Makespan   int        `json:"makespan"`
		Capacities []groupCap `json:"capacities"`
	}

	names := make([]string, 0, len(p.Capacities))
	for name := range p.Capacities {
		names = append(names, name)
	}
	sort.Strings(names)

	o := output{Field: p.Field.String(), Deadline: p.Deadline, Makespan: p.Makespan}
	for _, name := range names {
		o.Capacities = append(o.Capacities, groupCap{Group: name, Headcount: p.Capacities[name]})
	}
	return json.MarshalIndent(o, "", "  ")
}
