package impexp

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
	"time"

	"creocore/pkg/domain"
)

func parseCSV(t *testing.T, payload []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	return rows
}

func TestRenderLeadsCSV(t *testing.T) {
	created := domain.NewTime(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	lead := domain.Lead{
		Base:          domain.Base{ID: "lead-1", CreatedAt: created, UpdatedAt: created},
		Name:          "Aisha Rahman",
		Email:         "aisha@example.com",
		Phone:         "+1-555-0100",
		Source:        domain.SourceWebsite,
		Status:        domain.LeadStatusQualified,
		Score:         72,
		Interest:      domain.InterestBuying,
		Budget:        domain.Budget{Min: 250000, Max: 400000},
		Location:      "Riverside",
		PropertyTypes: []string{"condo", "townhouse"},
		Notes:         "prefers, quoted \"text\"",
		AssignedAgent: &domain.AgentRef{ID: "agent-7", Name: "Dana Cole"},
		Tags:          []string{"hot", "finance-ready"},
	}

	payload, err := RenderLeadsCSV([]domain.Lead{lead})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	rows := parseCSV(t, payload)
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	if !reflect.DeepEqual(rows[0], LeadColumns) {
		t.Fatalf("header mismatch: %v", rows[0])
	}
	row := rows[1]
	if got := row[0]; got != "lead-1" {
		t.Fatalf("id column = %q", got)
	}
	if got := row[6]; got != "72" {
		t.Fatalf("score column = %q", got)
	}
	if got := row[8]; got != "250000" {
		t.Fatalf("budget_min column = %q", got)
	}
	if got := row[11]; got != "condo;townhouse" {
		t.Fatalf("property_types column = %q", got)
	}
	if got := row[12]; got != `prefers, quoted "text"` {
		t.Fatalf("notes column lost quoting: %q", got)
	}
	if got := row[15]; got != "agent-7" {
		t.Fatalf("assigned_agent_id column = %q", got)
	}
	if got := row[17]; got != "hot;finance-ready" {
		t.Fatalf("tags column = %q", got)
	}
	if got := row[18]; got != "2026-03-01T09:00:00Z" {
		t.Fatalf("created_at column = %q", got)
	}
}

func TestRenderLeadsCSVZeroTimesAreBlank(t *testing.T) {
	payload, err := RenderLeadsCSV([]domain.Lead{{Base: domain.Base{ID: "l"}, Name: "No Dates"}})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	row := parseCSV(t, payload)[1]
	for _, col := range []int{13, 14, 18, 19} {
		if row[col] != "" {
			t.Fatalf("column %d should be blank for a zero time, got %q", col, row[col])
		}
	}
	if row[15] != "" || row[16] != "" {
		t.Fatalf("agent columns should be blank when unassigned")
	}
}

func TestRenderDealsCSVReferenceColumns(t *testing.T) {
	leadID, propertyID := "lead-9", "prop-4"
	deals := []domain.Deal{
		{Base: domain.Base{ID: "deal-1"}, LeadID: &leadID, PropertyID: &propertyID, ClientName: "Marcus Webb", Value: 310000.5, Stage: domain.DealStageNegotiation},
		{Base: domain.Base{ID: "deal-2"}, ClientName: "Walk In", Stage: domain.DealStageOpen},
	}
	payload, err := RenderDealsCSV(deals)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	rows := parseCSV(t, payload)
	if !reflect.DeepEqual(rows[0], DealColumns) {
		t.Fatalf("header mismatch: %v", rows[0])
	}
	if rows[1][1] != "lead-9" || rows[1][2] != "prop-4" {
		t.Fatalf("reference columns = %q %q", rows[1][1], rows[1][2])
	}
	if rows[1][4] != "310000.5" {
		t.Fatalf("value column = %q", rows[1][4])
	}
	if rows[2][1] != "" || rows[2][2] != "" {
		t.Fatalf("nil references should render blank")
	}
}

func TestRenderPropertiesAndContactsCSV(t *testing.T) {
	props, err := RenderPropertiesCSV([]domain.Property{{
		Base: domain.Base{ID: "prop-1"}, Title: "Loft on 5th", Price: 525000,
		Status: domain.PropertyStatusAvailable, Location: "Downtown", Type: "loft",
	}})
	if err != nil {
		t.Fatalf("render properties failed: %v", err)
	}
	rows := parseCSV(t, props)
	if !reflect.DeepEqual(rows[0], PropertyColumns) {
		t.Fatalf("property header mismatch: %v", rows[0])
	}
	if rows[1][2] != "525000" || rows[1][4] != "available" {
		t.Fatalf("property row = %v", rows[1])
	}

	contacts, err := RenderContactsCSV([]domain.Contact{{
		Base: domain.Base{ID: "c-1"}, FirstName: "Dana", LastName: "Cole",
		Type: domain.ContactTypeClient, Status: domain.ContactStatusActive,
	}})
	if err != nil {
		t.Fatalf("render contacts failed: %v", err)
	}
	rows = parseCSV(t, contacts)
	if !reflect.DeepEqual(rows[0], ContactColumns) {
		t.Fatalf("contact header mismatch: %v", rows[0])
	}
	if rows[1][1] != "Dana" || rows[1][3] != "client" {
		t.Fatalf("contact row = %v", rows[1])
	}
}

func TestFormatContentTypes(t *testing.T) {
	if got := FormatCSV.ContentType(); got != "text/csv" {
		t.Fatalf("csv content type = %q", got)
	}
	if got := FormatJSON.ContentType(); got != "application/json" {
		t.Fatalf("json content type = %q", got)
	}
	if got := Format("xml").ContentType(); got != "application/octet-stream" {
		t.Fatalf("unknown format content type = %q", got)
	}
}
