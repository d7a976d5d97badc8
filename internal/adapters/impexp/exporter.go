package impexp

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	"creocore/internal/blob"
	"creocore/internal/core"
	"creocore/pkg/domain"
)

// ExportStatus describes the lifecycle stage of an export job.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportArtifact describes one rendered file stored for an export job.
type ExportArtifact struct {
	Key         string            `json:"key"`
	Collection  domain.EntityType `json:"collection"`
	Format      Format            `json:"format"`
	ContentType string            `json:"content_type"`
	SizeBytes   int64             `json:"size_bytes"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ExportRecord tracks an export job and its resulting artifacts.
type ExportRecord struct {
	ID          string              `json:"id"`
	Collections []domain.EntityType `json:"collections"`
	Formats     []Format            `json:"formats"`
	Status      ExportStatus        `json:"status"`
	Error       string              `json:"error,omitempty"`
	Artifacts   []ExportArtifact    `json:"artifacts,omitempty"`
	RequestedBy string              `json:"requested_by"`
	Reason      string              `json:"reason,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

func (r ExportRecord) copy() ExportRecord {
	dup := r
	dup.Collections = append([]domain.EntityType(nil), r.Collections...)
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	}
	return dup
}

// ExportInput is an enqueue request. Empty Collections means all four;
// empty Formats defaults to CSV and JSON.
type ExportInput struct {
	Collections []domain.EntityType
	Formats     []Format
	RequestedBy string
	Reason      string
}

// Source supplies committed collection snapshots to export jobs.
type Source interface {
	ListLeads() []domain.Lead
	ListProperties() []domain.Property
	ListDeals() []domain.Deal
	ListContacts() []domain.Contact
}

var allCollections = []domain.EntityType{
	domain.EntityLead, domain.EntityProperty, domain.EntityDeal, domain.EntityContact,
}

// Worker renders export jobs off a bounded queue and stores the artifacts.
type Worker struct {
	source Source
	store  blob.Store
	audit  core.AuditRecorder

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*ExportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WorkerOption configures the export worker.
type WorkerOption func(*Worker)

// WithAuditRecorder routes job transitions to the audit trail.
func WithAuditRecorder(audit core.AuditRecorder) WorkerOption {
	return func(w *Worker) {
		if audit != nil {
			w.audit = audit
		}
	}
}

// NewWorker constructs an export worker over the given source and artifact store.
func NewWorker(source Source, store blob.Store, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		source: source,
		store:  store,
		audit:  core.NoopAuditRecorder(),
		queue:  make(chan string, 32),
		jobs:   make(map[string]*ExportRecord),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins processing queued jobs.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop halts the worker and waits for the in-flight job to finish.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// Enqueue schedules an export job and returns the queued record snapshot.
func (w *Worker) Enqueue(ctx context.Context, input ExportInput) (ExportRecord, error) {
	collections := input.Collections
	if len(collections) == 0 {
		collections = allCollections
	}
	seen := make(map[domain.EntityType]struct{}, len(collections))
	uniq := make([]domain.EntityType, 0, len(collections))
	for _, c := range collections {
		switch c {
		case domain.EntityLead, domain.EntityProperty, domain.EntityDeal, domain.EntityContact:
		default:
			return ExportRecord{}, fmt.Errorf("unknown collection %s", c)
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		uniq = append(uniq, c)
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatCSV, FormatJSON}
	}
	seenFmt := make(map[Format]struct{}, len(formats))
	uniqFmt := make([]Format, 0, len(formats))
	for _, f := range formats {
		if f != FormatCSV && f != FormatJSON {
			return ExportRecord{}, fmt.Errorf("unsupported export format %s", f)
		}
		if _, dup := seenFmt[f]; dup {
			continue
		}
		seenFmt[f] = struct{}{}
		uniqFmt = append(uniqFmt, f)
	}

	now := time.Now().UTC()
	record := ExportRecord{
		ID:          newID(),
		Collections: uniq,
		Formats:     uniqFmt,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[record.ID] = &record
	queued := record.copy()
	w.mu.Unlock()

	w.recordAudit(ctx, record.ID, ExportStatusQueued, "")

	select {
	case w.queue <- record.ID:
	default:
		w.fail(record.ID, "export queue full")
		return ExportRecord{}, fmt.Errorf("export queue full")
	}
	return queued, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(id string) {
	w.mu.RLock()
	record, ok := w.jobs[id]
	var collections []domain.EntityType
	var formats []Format
	if ok {
		collections = append(collections, record.Collections...)
		formats = append(formats, record.Formats...)
	}
	w.mu.RUnlock()
	if !ok {
		return
	}

	w.updateStatus(id, ExportStatusRunning, "")

	var artifacts []ExportArtifact
	for _, collection := range collections {
		for _, format := range formats {
			payload, err := w.render(collection, format)
			if err != nil {
				w.fail(id, fmt.Sprintf("render %s as %s: %v", collection, format, err))
				return
			}
			key := path.Join("exports", id, fmt.Sprintf("%ss.%s", collection, format.Ext()))
			info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{ContentType: format.ContentType()})
			if err != nil {
				w.fail(id, fmt.Sprintf("store artifact %s: %v", key, err))
				return
			}
			artifacts = append(artifacts, ExportArtifact{
				Key:         info.Key,
				Collection:  collection,
				Format:      format,
				ContentType: format.ContentType(),
				SizeBytes:   info.Size,
				CreatedAt:   info.LastModified,
			})
		}
	}
	w.complete(id, artifacts)
}

func (w *Worker) render(collection domain.EntityType, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		switch collection {
		case domain.EntityLead:
			return RenderLeadsCSV(w.source.ListLeads())
		case domain.EntityProperty:
			return RenderPropertiesCSV(w.source.ListProperties())
		case domain.EntityDeal:
			return RenderDealsCSV(w.source.ListDeals())
		case domain.EntityContact:
			return RenderContactsCSV(w.source.ListContacts())
		}
	case FormatJSON:
		switch collection {
		case domain.EntityLead:
			return json.MarshalIndent(w.source.ListLeads(), "", "  ")
		case domain.EntityProperty:
			return json.MarshalIndent(w.source.ListProperties(), "", "  ")
		case domain.EntityDeal:
			return json.MarshalIndent(w.source.ListDeals(), "", "  ")
		case domain.EntityContact:
			return json.MarshalIndent(w.source.ListContacts(), "", "  ")
		}
	}
	return nil, fmt.Errorf("unsupported collection %s or format %s", collection, format)
}

func (w *Worker) updateStatus(id string, status ExportStatus, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, status, message)
}

func (w *Worker) complete(id string, artifacts []ExportArtifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, ExportStatusSucceeded, "")
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, ExportStatusFailed, reason)
}

func (w *Worker) recordAudit(ctx context.Context, id string, status ExportStatus, detail string) {
	auditStatus := core.AuditStatusSuccess
	if status == ExportStatusFailed {
		auditStatus = core.AuditStatusError
	}
	w.audit.Record(ctx, core.AuditEntry{
		Operation:  "export_" + string(status),
		Status:     auditStatus,
		EntityID:   id,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	})
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}
