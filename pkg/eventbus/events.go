// Package eventbus provides the named-topic publish/subscribe channel that
// decouples store mutations from their consumers. Payloads are a closed set of
// typed event variants, one per collection change stream.
package eventbus

import "creocore/pkg/domain"

// Topic names a change stream on the bus.
type Topic string

// Well-known topics. Each collection publishes its full updated contents on
// its topic after every committed mutation.
const (
	TopicLeadsChanged      Topic = "leads.changed"
	TopicPropertiesChanged Topic = "properties.changed"
	TopicDealsChanged      Topic = "deals.changed"
	TopicContactsChanged   Topic = "contacts.changed"
	TopicFollowUpsDue      Topic = "followups.due"
)

// Event is implemented by every payload crossing the bus.
type Event interface {
	Topic() Topic
}

// LeadsChanged carries the full lead collection after a committed mutation.
type LeadsChanged struct {
	Leads []domain.Lead
}

// Topic implements Event.
func (LeadsChanged) Topic() Topic { return TopicLeadsChanged }

// PropertiesChanged carries the full property collection after a committed mutation.
type PropertiesChanged struct {
	Properties []domain.Property
}

// Topic implements Event.
func (PropertiesChanged) Topic() Topic { return TopicPropertiesChanged }

// DealsChanged carries the full deal collection after a committed mutation.
type DealsChanged struct {
	Deals []domain.Deal
}

// Topic implements Event.
func (DealsChanged) Topic() Topic { return TopicDealsChanged }

// ContactsChanged carries the full contact collection after a committed mutation.
type ContactsChanged struct {
	Contacts []domain.Contact
}

// Topic implements Event.
func (ContactsChanged) Topic() Topic { return TopicContactsChanged }

// FollowUpsDue carries the leads whose next follow-up is due or overdue,
// published by the follow-up monitor on each refresh.
type FollowUpsDue struct {
	Due     []domain.Lead
	Overdue []domain.Lead
}

// Topic implements Event.
func (FollowUpsDue) Topic() Topic { return TopicFollowUpsDue }
