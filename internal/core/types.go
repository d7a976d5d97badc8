package core

import "creocore/pkg/domain"

type (
	EntityType         = domain.EntityType
	LeadStatus         = domain.LeadStatus
	LeadSource         = domain.LeadSource
	LeadInterest       = domain.LeadInterest
	DealStage          = domain.DealStage
	PropertyStatus     = domain.PropertyStatus
	ContactType        = domain.ContactType
	ContactStatus      = domain.ContactStatus
	Severity           = domain.Severity
	Base               = domain.Base
	Lead               = domain.Lead
	Property           = domain.Property
	Deal               = domain.Deal
	Contact            = domain.Contact
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityLead     = domain.EntityLead
	EntityProperty = domain.EntityProperty
	EntityDeal     = domain.EntityDeal
	EntityContact  = domain.EntityContact
)

const (
	LeadStatusNew       = domain.LeadStatusNew
	LeadStatusContacted = domain.LeadStatusContacted
	LeadStatusQualified = domain.LeadStatusQualified
	LeadStatusConverted = domain.LeadStatusConverted
	LeadStatusLost      = domain.LeadStatusLost
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
