package core

import (
	"context"
	"fmt"

	"creocore/pkg/domain"
)

// DealOverrides lets callers adjust the deal produced by a lead conversion.
// Unset fields keep the derived defaults.
type DealOverrides struct {
	Value      *float64
	Stage      *DealStage
	PropertyID *string
	ClientName *string
}

// Conversion reports the outcome of a successful lead-to-deal conversion.
type Conversion struct {
	Lead Lead
	Deal Deal
}

// ErrConversionIncomplete indicates the deal was created but the lead could
// not be marked converted. The deal is not rolled back; callers reconcile by
// retrying the lead update with the reported ids.
type ErrConversionIncomplete struct {
	LeadID string
	DealID string
	Err    error
}

func (e ErrConversionIncomplete) Error() string {
	return fmt.Sprintf("conversion incomplete: deal %s created but lead %s not updated: %v", e.DealID, e.LeadID, e.Err)
}

func (e ErrConversionIncomplete) Unwrap() error { return e.Err }

// ConvertLeadToDeal promotes a lead into a new deal and marks the lead
// converted. The deal value defaults to the midpoint of the lead's budget,
// the client name to the lead's name, and the stage to open. Converting an
// absent lead returns nil without error; converting a terminal lead is
// blocked by the lifecycle rule.
func (s *Service) ConvertLeadToDeal(ctx context.Context, leadID string, overrides DealOverrides) (*Conversion, Result, error) {
	done := s.instrument(ctx, "convert_lead_to_deal", domain.EntityLead)

	lead, ok := s.store.GetLead(leadID)
	if !ok {
		done(leadID, nil)
		return nil, Result{}, nil
	}
	if lead.Terminal() {
		blocked := Result{Violations: []domain.Violation{{
			Rule:     "lead_lifecycle",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("lead %s is already %s and cannot be converted", leadID, lead.Status),
			Entity:   domain.EntityLead,
			EntityID: leadID,
		}}}
		err := domain.RuleViolationError{Result: blocked}
		done(leadID, err)
		return nil, blocked, err
	}

	deal := Deal{
		ClientName: lead.Name,
		LeadID:     &lead.ID,
		Value:      lead.Budget.Midpoint(),
		Stage:      domain.DealStageOpen,
	}
	if overrides.Value != nil {
		deal.Value = *overrides.Value
	}
	if overrides.Stage != nil {
		deal.Stage = *overrides.Stage
	}
	if overrides.PropertyID != nil {
		id := *overrides.PropertyID
		deal.PropertyID = &id
	}
	if overrides.ClientName != nil {
		deal.ClientName = *overrides.ClientName
	}

	created, res, err := s.AddDeal(ctx, deal)
	if err != nil {
		done(leadID, err)
		return nil, res, err
	}

	converted := domain.LeadStatusConverted
	updated, leadRes, err := s.UpdateLead(ctx, leadID, domain.LeadPatch{Status: &converted})
	res.Merge(leadRes)
	if err != nil || updated == nil {
		if err == nil {
			err = domain.ErrNotFound{Entity: domain.EntityLead, ID: leadID}
		}
		incomplete := ErrConversionIncomplete{LeadID: leadID, DealID: created.ID, Err: err}
		done(leadID, incomplete)
		return nil, res, incomplete
	}

	done(leadID, nil)
	return &Conversion{Lead: *updated, Deal: created}, res, nil
}
