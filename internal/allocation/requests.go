package allocation

import (
	"fmt"

	"github.com/Dan9191/savings-planner/internal/models"
)

// BuildRequests pairs each submitted goal with the feasibility entry at the
// same index. Goals past the end of the feasibility list get a NoData
// request; feasibility entries past the end of the goal list are dropped.
// Both cases are reported as diagnostics.
func BuildRequests(goals []models.Goal, feasibility []models.GoalFeasibility) ([]Request, []models.Diagnostic) {
	requests := make([]Request, 0, len(goals))
	var diags []models.Diagnostic

	for i, goal := range goals {
		if i >= len(feasibility) {
			requests = append(requests, Request{GoalIndex: i, GoalName: goal.Type, NoData: true})
			diags = append(diags, models.Diagnostic{
				GoalIndex: i,
				Message:   "no feasibility data for goal",
			})
			continue
		}

		f := feasibility[i]
		name := f.GoalName
		if name == "" {
			name = goal.Type
		}
		requests = append(requests, Request{
			GoalIndex:   i,
			GoalName:    name,
			Recommended: f.RequiredSavingsPerMonth,
		})
	}

	if extra := len(feasibility) - len(goals); extra > 0 {
		diags = append(diags, models.Diagnostic{
			GoalIndex: -1,
			Message:   fmt.Sprintf("ignored %d feasibility entries without a matching goal", extra),
		})
	}

	return requests, diags
}
