package core

import (
	"context"
	"fmt"
	"time"

	"creocore/pkg/domain"
)

// FollowUpHygieneRule flags leads that reach a terminal state while still
// carrying a future follow-up reminder. Advisory only; the commit proceeds.
func FollowUpHygieneRule() domain.Rule {
	return followUpHygieneRule{nowFn: func() time.Time { return time.Now().UTC() }}
}

type followUpHygieneRule struct {
	nowFn func() time.Time
}

func (followUpHygieneRule) Name() string { return "followup_hygiene" }

func (r followUpHygieneRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	now := r.nowFn()
	res := domain.Result{}
	for _, change := range changes {
		lead, ok := change.After.(domain.Lead)
		if !ok {
			continue
		}
		if !lead.Terminal() {
			continue
		}
		if lead.NextFollowUp.IsZero() || !lead.NextFollowUp.After(now) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "followup_hygiene",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("lead %s is %s but still has a follow-up scheduled", lead.ID, lead.Status),
			Entity:   domain.EntityLead,
			EntityID: lead.ID,
		})
	}
	return res, nil
}
