package domain

// Patch types implement partial update semantics: only non-nil fields are
// applied to the existing record. A nil pointer means "leave unchanged",
// so callers can express single-field updates without reading first.

// LeadPatch describes a partial update to a Lead.
type LeadPatch struct {
	Name          *string       `json:"name,omitempty"`
	Email         *string       `json:"email,omitempty"`
	Phone         *string       `json:"phone,omitempty"`
	Source        *LeadSource   `json:"source,omitempty"`
	Status        *LeadStatus   `json:"status,omitempty"`
	Score         *int          `json:"score,omitempty"`
	Interest      *LeadInterest `json:"interest,omitempty"`
	Budget        *Budget       `json:"budget,omitempty"`
	Location      *string       `json:"location,omitempty"`
	PropertyTypes *[]string     `json:"property_types,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	LastContact   *Time         `json:"last_contact,omitempty"`
	NextFollowUp  *Time         `json:"next_follow_up,omitempty"`
	AssignedAgent *AgentRef     `json:"assigned_agent,omitempty"`
	Tags          *[]string     `json:"tags,omitempty"`
}

// Apply merges the patch onto the lead. Score is clamped to [MinScore, MaxScore].
func (p LeadPatch) Apply(l *Lead) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.Source != nil {
		l.Source = *p.Source
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Score != nil {
		l.Score = ClampScore(*p.Score)
	}
	if p.Interest != nil {
		l.Interest = *p.Interest
	}
	if p.Budget != nil {
		l.Budget = *p.Budget
	}
	if p.Location != nil {
		l.Location = *p.Location
	}
	if p.PropertyTypes != nil {
		l.PropertyTypes = append([]string(nil), (*p.PropertyTypes)...)
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	if p.LastContact != nil {
		l.LastContact = *p.LastContact
	}
	if p.NextFollowUp != nil {
		l.NextFollowUp = *p.NextFollowUp
	}
	if p.AssignedAgent != nil {
		agent := *p.AssignedAgent
		l.AssignedAgent = &agent
	}
	if p.Tags != nil {
		l.Tags = append([]string(nil), (*p.Tags)...)
	}
}

// PropertyPatch describes a partial update to a Property.
type PropertyPatch struct {
	Title       *string         `json:"title,omitempty"`
	Price       *float64        `json:"price,omitempty"`
	ListingDate *Time           `json:"listing_date,omitempty"`
	Status      *PropertyStatus `json:"status,omitempty"`
	Location    *string         `json:"location,omitempty"`
	Type        *string         `json:"type,omitempty"`
}

// Apply merges the patch onto the property.
func (p PropertyPatch) Apply(out *Property) {
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	if p.ListingDate != nil {
		out.ListingDate = *p.ListingDate
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Location != nil {
		out.Location = *p.Location
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
}

// DealPatch describes a partial update to a Deal.
type DealPatch struct {
	LeadID     *string    `json:"lead_id,omitempty"`
	PropertyID *string    `json:"property_id,omitempty"`
	ClientName *string    `json:"client_name,omitempty"`
	Value      *float64   `json:"value,omitempty"`
	Stage      *DealStage `json:"stage,omitempty"`
}

// Apply merges the patch onto the deal.
func (p DealPatch) Apply(d *Deal) {
	if p.LeadID != nil {
		id := *p.LeadID
		d.LeadID = &id
	}
	if p.PropertyID != nil {
		id := *p.PropertyID
		d.PropertyID = &id
	}
	if p.ClientName != nil {
		d.ClientName = *p.ClientName
	}
	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.Stage != nil {
		d.Stage = *p.Stage
	}
}

// ContactPatch describes a partial update to a Contact.
type ContactPatch struct {
	FirstName   *string        `json:"first_name,omitempty"`
	LastName    *string        `json:"last_name,omitempty"`
	Type        *ContactType   `json:"type,omitempty"`
	Status      *ContactStatus `json:"status,omitempty"`
	LastContact *Time          `json:"last_contact,omitempty"`
}

// Apply merges the patch onto the contact.
func (p ContactPatch) Apply(c *Contact) {
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.LastContact != nil {
		c.LastContact = *p.LastContact
	}
}

// ClampScore bounds a lead score to the valid range.
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
