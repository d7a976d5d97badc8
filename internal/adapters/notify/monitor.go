// Package notify derives follow-up reminders from the lead pipeline and
// publishes them on the event bus.
package notify

import (
	"context"
	"time"

	"creocore/internal/core"
	"creocore/pkg/domain"
	"creocore/pkg/eventbus"
)

// Source supplies the current committed leads.
type Source interface {
	ListLeads() []domain.Lead
}

// Publisher is the bus surface the monitor needs.
type Publisher interface {
	Publish(event eventbus.Event)
}

// FollowUpMonitor periodically scans the lead pipeline and publishes a
// followups.due event whenever any lead is due within the window or overdue.
type FollowUpMonitor struct {
	source   Source
	bus      Publisher
	logger   core.Logger
	interval time.Duration
	window   time.Duration
	nowFn    func() time.Time
}

// MonitorOption configures a FollowUpMonitor.
type MonitorOption func(*FollowUpMonitor)

// WithLogger sets the monitor's logger.
func WithLogger(logger core.Logger) MonitorOption {
	return func(m *FollowUpMonitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithInterval sets how often the pipeline is scanned. Default one minute.
func WithInterval(interval time.Duration) MonitorOption {
	return func(m *FollowUpMonitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithWindow sets how far ahead a follow-up counts as due. Default 24h.
func WithWindow(window time.Duration) MonitorOption {
	return func(m *FollowUpMonitor) {
		if window > 0 {
			m.window = window
		}
	}
}

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) MonitorOption {
	return func(m *FollowUpMonitor) {
		if now != nil {
			m.nowFn = now
		}
	}
}

// NewFollowUpMonitor constructs a monitor over the given source and bus.
func NewFollowUpMonitor(source Source, bus Publisher, opts ...MonitorOption) *FollowUpMonitor {
	m := &FollowUpMonitor{
		source:   source,
		bus:      bus,
		logger:   core.NoopLogger(),
		interval: time.Minute,
		window:   24 * time.Hour,
		nowFn:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Scan performs one pass and publishes when anything is due or overdue.
// It returns the published event, or nil when the pipeline is quiet.
func (m *FollowUpMonitor) Scan() *eventbus.FollowUpsDue {
	now := m.nowFn().UTC()
	due, overdue := core.LeadsDueForFollowUp(m.source.ListLeads(), now, m.window)
	if len(due) == 0 && len(overdue) == 0 {
		return nil
	}
	event := eventbus.FollowUpsDue{Due: due, Overdue: overdue}
	m.bus.Publish(event)
	m.logger.Info("follow-ups pending", "due", len(due), "overdue", len(overdue))
	return &event
}

// Run scans on the configured interval until ctx is canceled.
func (m *FollowUpMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Scan()
		}
	}
}
