// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by creocore.
package domain

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence slots.
const (
	// EntityLead identifies a prospective client record.
	EntityLead EntityType = "lead"
	// EntityProperty identifies a property listing record.
	EntityProperty EntityType = "property"
	// EntityDeal identifies a tracked transaction record.
	EntityDeal EntityType = "deal"
	// EntityContact identifies an address-book contact record.
	EntityContact EntityType = "contact"
)

// LeadStatus represents the canonical lead pipeline states.
type LeadStatus string

// Canonical lead statuses. Converted and lost are terminal.
const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// LeadSource enumerates where a lead originated.
type LeadSource string

// Canonical lead acquisition channels.
const (
	SourceWebsite     LeadSource = "website"
	SourceReferral    LeadSource = "referral"
	SourceSocial      LeadSource = "social"
	SourceAdvertising LeadSource = "advertising"
	SourceColdCall    LeadSource = "cold-call"
	SourceWalkIn      LeadSource = "walk-in"
)

// LeadInterest enumerates what a lead is in the market for.
type LeadInterest string

// Canonical lead interests.
const (
	InterestBuying    LeadInterest = "buying"
	InterestSelling   LeadInterest = "selling"
	InterestRenting   LeadInterest = "renting"
	InterestInvesting LeadInterest = "investing"
)

// DealStage enumerates deal pipeline stages. Closed and lost are terminal.
type DealStage string

// Canonical deal stages.
const (
	DealStageOpen        DealStage = "open"
	DealStageInProgress  DealStage = "in-progress"
	DealStageNegotiation DealStage = "negotiation"
	DealStageClosed      DealStage = "closed"
	DealStageLost        DealStage = "lost"
)

// PropertyStatus enumerates listing availability states.
type PropertyStatus string

// Canonical property statuses.
const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusPending   PropertyStatus = "pending"
	PropertyStatusSold      PropertyStatus = "sold"
	PropertyStatusWithdrawn PropertyStatus = "withdrawn"
)

// ContactType distinguishes how a contact relates to the business.
type ContactType string

// Canonical contact types.
const (
	ContactTypeClient   ContactType = "client"
	ContactTypeProspect ContactType = "prospect"
	ContactTypeVendor   ContactType = "vendor"
	ContactTypePartner  ContactType = "partner"
)

// ContactStatus enumerates contact activity states.
type ContactStatus string

// Canonical contact statuses.
const (
	ContactStatusActive   ContactStatus = "active"
	ContactStatusInactive ContactStatus = "inactive"
	ContactStatusArchived ContactStatus = "archived"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// MinScore and MaxScore bound the lead score; writes outside the range are clamped.
const (
	MinScore = 0
	MaxScore = 100
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string `json:"id"`
	CreatedAt Time   `json:"created_at"`
	UpdatedAt Time   `json:"updated_at"`
}

// Budget is a lead's price range. Min must not exceed Max and neither may be negative.
type Budget struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Midpoint returns the center of the range, used as the default deal value on conversion.
func (b Budget) Midpoint() float64 {
	return (b.Min + b.Max) / 2
}

// AgentRef identifies the agent a lead is assigned to.
type AgentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Lead represents a prospective client progressing toward conversion.
type Lead struct {
	Base
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	Source        LeadSource   `json:"source"`
	Status        LeadStatus   `json:"status"`
	Score         int          `json:"score"`
	Interest      LeadInterest `json:"interest"`
	Budget        Budget       `json:"budget"`
	Location      string       `json:"location"`
	PropertyTypes []string     `json:"property_types"`
	Notes         string       `json:"notes"`
	LastContact   Time         `json:"last_contact"`
	NextFollowUp  Time         `json:"next_follow_up"`
	AssignedAgent *AgentRef    `json:"assigned_agent"`
	Tags          []string     `json:"tags"`
}

// Terminal reports whether the lead has reached a final pipeline state.
func (l Lead) Terminal() bool {
	return l.Status == LeadStatusConverted || l.Status == LeadStatusLost
}

// Clone returns a deep copy of the lead.
func (l Lead) Clone() Lead {
	cp := l
	cp.PropertyTypes = append([]string(nil), l.PropertyTypes...)
	cp.Tags = append([]string(nil), l.Tags...)
	if l.AssignedAgent != nil {
		agent := *l.AssignedAgent
		cp.AssignedAgent = &agent
	}
	return cp
}

// Property represents a listed property.
type Property struct {
	Base
	Title       string         `json:"title"`
	Price       float64        `json:"price"`
	ListingDate Time           `json:"listing_date"`
	Status      PropertyStatus `json:"status"`
	Location    string         `json:"location"`
	Type        string         `json:"type"`
}

// Clone returns a copy of the property.
func (p Property) Clone() Property { return p }

// Deal represents a tracked transaction, created directly or by lead conversion.
type Deal struct {
	Base
	LeadID     *string   `json:"lead_id"`
	PropertyID *string   `json:"property_id"`
	ClientName string    `json:"client_name"`
	Value      float64   `json:"value"`
	Stage      DealStage `json:"stage"`
}

// Terminal reports whether the deal has reached a final stage.
func (d Deal) Terminal() bool {
	return d.Stage == DealStageClosed || d.Stage == DealStageLost
}

// Clone returns a deep copy of the deal.
func (d Deal) Clone() Deal {
	cp := d
	if d.LeadID != nil {
		id := *d.LeadID
		cp.LeadID = &id
	}
	if d.PropertyID != nil {
		id := *d.PropertyID
		cp.PropertyID = &id
	}
	return cp
}

// Contact represents an address-book entry.
type Contact struct {
	Base
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	Type        ContactType   `json:"type"`
	Status      ContactStatus `json:"status"`
	LastContact Time          `json:"last_contact"`
}

// Clone returns a copy of the contact.
func (c Contact) Clone() Contact { return c }

// Change describes a mutation applied to an entity during a transaction.
// Before and After carry the concrete entity values (Lead, Property, Deal,
// Contact); rules inspect them via type assertion.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
