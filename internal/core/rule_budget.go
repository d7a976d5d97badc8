package core

import (
	"context"
	"fmt"

	"creocore/pkg/domain"
)

// BudgetRule blocks leads whose budget range is malformed: a negative bound
// or a minimum above the maximum. Property prices are covered too since they
// share the same non-negative money constraint.
func BudgetRule() domain.Rule {
	return budgetRule{}
}

type budgetRule struct{}

func (budgetRule) Name() string { return "budget_range" }

func (budgetRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		switch after := change.After.(type) {
		case domain.Lead:
			budget := after.Budget
			if budget.Min < 0 || budget.Max < 0 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "budget_range",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("lead %s has a negative budget bound", after.ID),
					Entity:   domain.EntityLead,
					EntityID: after.ID,
				})
				continue
			}
			if budget.Min > budget.Max {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "budget_range",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("lead %s budget min %.2f exceeds max %.2f", after.ID, budget.Min, budget.Max),
					Entity:   domain.EntityLead,
					EntityID: after.ID,
				})
			}
		case domain.Property:
			if after.Price < 0 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "budget_range",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("property %s has a negative price", after.ID),
					Entity:   domain.EntityProperty,
					EntityID: after.ID,
				})
			}
		}
	}
	return res, nil
}
