package wbs

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

// ReadCatalogJSON parses a JSON task catalog of the form
//
//	{"tasks": [{"id": "A24-001", "trf": 0.3,
//	            "estimates": {"newbie": {"o": 1, "m": 2, "p": 6}},
//	            "eligible_groups": ["RD"], "resource_demand": 1}, ...]}
//
// A missing "te" is derived as (O + 4M + P) / 6.
func ReadCatalogJSON(data []byte) ([]*dsm.Task, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("read WBS json: malformed document")
	}

	items := gjson.GetBytes(data, "tasks")
	if !items.IsArray() {
		return nil, fmt.Errorf("read WBS json: missing tasks array")
	}

	var tasks []*dsm.Task
	var parseErr error
	items.ForEach(func(_, item gjson.Result) bool {
		id := item.Get("id").String()
		if id == "" {
			parseErr = fmt.Errorf("read WBS json: task %d has no id", len(tasks))
			return false
		}

		estimates := make(map[string]dsm.Estimate)
		item.Get("estimates").ForEach(func(role, est gjson.Result) bool {
			o := est.Get("o").Float()
			m := est.Get("m").Float()
			p := est.Get("p").Float()
			te := est.Get("te").Float()
			if !est.Get("te").Exists() {
				te = (o + 4*m + p) / 6
			}
			estimates[role.String()] = dsm.Estimate{O: o, M: m, P: p, Te: te}
			return true
		})
		if len(estimates) == 0 {
			parseErr = fmt.Errorf("read WBS json: task %s has no estimates", id)
			return false
		}

		var eligible []string
		item.Get("eligible_groups").ForEach(func(_, g gjson.Result) bool {
			eligible = append(eligible, g.String())
			return true
		})

		tasks = append(tasks, &dsm.Task{
			ID:             id,
			TRF:            item.Get("trf").Float(),
			Estimates:      estimates,
			EligibleGroups: eligible,
			ResourceDemand: int(item.Get("resource_demand").Int()),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return tasks, nil
}
