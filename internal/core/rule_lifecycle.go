package core

import (
	"context"
	"fmt"

	"creocore/pkg/domain"
)

// LifecycleTransitionRule blocks illegal state transitions on stateful entities:
// unknown status values are rejected outright, and a record already in a
// terminal state cannot be moved to any other state. Updates that keep a
// terminal status unchanged are allowed so non-status fields stay editable.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

type lifecycleMachine struct {
	entity    domain.EntityType
	label     string
	terminal  map[string]struct{}
	valid     map[string]struct{}
	extractor func(v any) (id string, state string, ok bool)
}

var lifecycleMachines = map[domain.EntityType]lifecycleMachine{
	domain.EntityLead: {
		entity:   domain.EntityLead,
		label:    "lead",
		terminal: toSet(string(domain.LeadStatusConverted), string(domain.LeadStatusLost)),
		valid: toSet(
			string(domain.LeadStatusNew),
			string(domain.LeadStatusContacted),
			string(domain.LeadStatusQualified),
			string(domain.LeadStatusConverted),
			string(domain.LeadStatusLost),
		),
		extractor: func(v any) (string, string, bool) {
			lead, ok := v.(domain.Lead)
			if !ok {
				return "", "", false
			}
			return lead.ID, string(lead.Status), true
		},
	},
	domain.EntityDeal: {
		entity:   domain.EntityDeal,
		label:    "deal",
		terminal: toSet(string(domain.DealStageClosed), string(domain.DealStageLost)),
		valid: toSet(
			string(domain.DealStageOpen),
			string(domain.DealStageInProgress),
			string(domain.DealStageNegotiation),
			string(domain.DealStageClosed),
			string(domain.DealStageLost),
		),
		extractor: func(v any) (string, string, bool) {
			deal, ok := v.(domain.Deal)
			if !ok {
				return "", "", false
			}
			return deal.ID, string(deal.Stage), true
		},
	},
}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		machine, ok := lifecycleMachines[change.Entity]
		if !ok {
			continue
		}

		afterID, newState, ok := machine.extractor(change.After)
		if ok {
			if _, valid := machine.valid[newState]; !valid {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "lifecycle_transition",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("%s %s is set to invalid state %s", machine.label, afterID, newState),
					Entity:   machine.entity,
					EntityID: afterID,
				})
				continue
			}
		}

		beforeID, beforeState, ok := machine.extractor(change.Before)
		if !ok {
			continue
		}
		if _, ok := machine.terminal[beforeState]; !ok {
			continue
		}
		afterID, afterState, ok := machine.extractor(change.After)
		if !ok {
			continue
		}
		if afterState != beforeState {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lifecycle_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("cannot move %s %s from terminal state %s to %s", machine.label, beforeID, beforeState, afterState),
				Entity:   machine.entity,
				EntityID: afterID,
			})
		}
	}
	return res, nil
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
