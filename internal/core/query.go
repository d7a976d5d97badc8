package core

import (
	"sort"
	"strings"
	"time"
)

// The query layer is pure: every function derives its answer from the slice
// it is given and never touches the store. Service wrappers below feed them
// the current committed collections.

// LeadsByStatus filters leads to those in the given pipeline state.
func LeadsByStatus(leads []Lead, status LeadStatus) []Lead {
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out
}

// LeadsByAgent filters leads to those assigned to the given agent id.
// Unassigned leads never match.
func LeadsByAgent(leads []Lead, agentID string) []Lead {
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if l.AssignedAgent != nil && l.AssignedAgent.ID == agentID {
			out = append(out, l)
		}
	}
	return out
}

// LeadsBySource filters leads by acquisition channel.
func LeadsBySource(leads []Lead, source LeadSource) []Lead {
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if l.Source == source {
			out = append(out, l)
		}
	}
	return out
}

// SearchLeads returns leads whose name, email, or phone contains the term,
// case-insensitively. An empty term matches every lead.
func SearchLeads(leads []Lead, term string) []Lead {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]Lead(nil), leads...)
	}
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if strings.Contains(strings.ToLower(l.Name), term) ||
			strings.Contains(strings.ToLower(l.Email), term) ||
			strings.Contains(strings.ToLower(l.Phone), term) {
			out = append(out, l)
		}
	}
	return out
}

// LeadsCreatedBetween returns leads created in [from, to] inclusive.
func LeadsCreatedBetween(leads []Lead, from, to time.Time) []Lead {
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		at := l.CreatedAt.Time
		if at.Before(from) || at.After(to) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// LeadsDueForFollowUp splits non-terminal leads with a follow-up timestamp
// into those due within the window from now and those already overdue. Leads
// without a follow-up, and converted or lost leads, are excluded from both.
func LeadsDueForFollowUp(leads []Lead, now time.Time, window time.Duration) (due, overdue []Lead) {
	horizon := now.Add(window)
	for _, l := range leads {
		if l.Terminal() || l.NextFollowUp.IsZero() {
			continue
		}
		at := l.NextFollowUp.Time
		switch {
		case at.Before(now):
			overdue = append(overdue, l)
		case !at.After(horizon):
			due = append(due, l)
		}
	}
	return due, overdue
}

// SortLeadsByScore returns a copy sorted by descending score. Ties keep
// their original relative order.
func SortLeadsByScore(leads []Lead) []Lead {
	out := append([]Lead(nil), leads...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// PropertiesByStatus filters properties by listing status.
func PropertiesByStatus(properties []Property, status PropertyStatus) []Property {
	out := make([]Property, 0, len(properties))
	for _, p := range properties {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// DealsByStage filters deals by pipeline stage.
func DealsByStage(deals []Deal, stage DealStage) []Deal {
	out := make([]Deal, 0, len(deals))
	for _, d := range deals {
		if d.Stage == stage {
			out = append(out, d)
		}
	}
	return out
}

// DealsByLead returns deals that reference the given lead.
func DealsByLead(deals []Deal, leadID string) []Deal {
	out := make([]Deal, 0, len(deals))
	for _, d := range deals {
		if d.LeadID != nil && *d.LeadID == leadID {
			out = append(out, d)
		}
	}
	return out
}

// ContactsByType filters contacts by relationship type.
func ContactsByType(contacts []Contact, typ ContactType) []Contact {
	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// Service wrappers -------------------------------------------------------------

// GetLeadsByStatus returns committed leads in the given state.
func (s *Service) GetLeadsByStatus(status LeadStatus) []Lead {
	return LeadsByStatus(s.store.ListLeads(), status)
}

// GetLeadsByAgent returns committed leads assigned to the agent.
func (s *Service) GetLeadsByAgent(agentID string) []Lead {
	return LeadsByAgent(s.store.ListLeads(), agentID)
}

// GetLeadsBySource returns committed leads from the given channel.
func (s *Service) GetLeadsBySource(source LeadSource) []Lead {
	return LeadsBySource(s.store.ListLeads(), source)
}

// SearchLeads matches committed leads against the term.
func (s *Service) SearchLeads(term string) []Lead {
	return SearchLeads(s.store.ListLeads(), term)
}

// GetLeadsDueForFollowUp splits committed leads by follow-up urgency.
func (s *Service) GetLeadsDueForFollowUp(now time.Time, window time.Duration) (due, overdue []Lead) {
	return LeadsDueForFollowUp(s.store.ListLeads(), now, window)
}

// GetPropertiesByStatus returns committed properties in the given status.
func (s *Service) GetPropertiesByStatus(status PropertyStatus) []Property {
	return PropertiesByStatus(s.store.ListProperties(), status)
}

// GetDealsByStage returns committed deals in the given stage.
func (s *Service) GetDealsByStage(stage DealStage) []Deal {
	return DealsByStage(s.store.ListDeals(), stage)
}

// GetDealsByLead returns committed deals referencing the lead.
func (s *Service) GetDealsByLead(leadID string) []Deal {
	return DealsByLead(s.store.ListDeals(), leadID)
}

// GetContactsByType returns committed contacts of the given type.
func (s *Service) GetContactsByType(typ ContactType) []Contact {
	return ContactsByType(s.store.ListContacts(), typ)
}
