// Package impexp renders entity collections to portable formats and loads
// lead rows back in through the service layer.
package impexp

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"creocore/pkg/domain"
)

// Format identifies a rendering format for exports.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Ext returns the artifact file extension for the format.
func (f Format) Ext() string { return string(f) }

const listSeparator = ";"

func formatTime(t domain.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) domain.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return domain.Time{}
	}
	return domain.NewTime(parsed)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// LeadColumns is the header row for lead CSV files, in render order.
var LeadColumns = []string{
	"id", "name", "email", "phone", "source", "status", "score", "interest",
	"budget_min", "budget_max", "location", "property_types", "notes",
	"last_contact", "next_follow_up", "assigned_agent_id", "assigned_agent_name",
	"tags", "created_at", "updated_at",
}

// RenderLeadsCSV writes the collection as CSV with a header row.
func RenderLeadsCSV(leads []domain.Lead) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(LeadColumns); err != nil {
		return nil, err
	}
	for _, l := range leads {
		agentID, agentName := "", ""
		if l.AssignedAgent != nil {
			agentID, agentName = l.AssignedAgent.ID, l.AssignedAgent.Name
		}
		row := []string{
			l.ID, l.Name, l.Email, l.Phone, string(l.Source), string(l.Status),
			strconv.Itoa(l.Score), string(l.Interest),
			formatFloat(l.Budget.Min), formatFloat(l.Budget.Max),
			l.Location, strings.Join(l.PropertyTypes, listSeparator), l.Notes,
			formatTime(l.LastContact), formatTime(l.NextFollowUp),
			agentID, agentName,
			strings.Join(l.Tags, listSeparator),
			formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PropertyColumns is the header row for property CSV files.
var PropertyColumns = []string{
	"id", "title", "price", "listing_date", "status", "location", "type",
	"created_at", "updated_at",
}

// RenderPropertiesCSV writes the collection as CSV with a header row.
func RenderPropertiesCSV(properties []domain.Property) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(PropertyColumns); err != nil {
		return nil, err
	}
	for _, p := range properties {
		row := []string{
			p.ID, p.Title, formatFloat(p.Price), formatTime(p.ListingDate),
			string(p.Status), p.Location, p.Type,
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DealColumns is the header row for deal CSV files.
var DealColumns = []string{
	"id", "lead_id", "property_id", "client_name", "value", "stage",
	"created_at", "updated_at",
}

// RenderDealsCSV writes the collection as CSV with a header row.
func RenderDealsCSV(deals []domain.Deal) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(DealColumns); err != nil {
		return nil, err
	}
	for _, d := range deals {
		leadID, propertyID := "", ""
		if d.LeadID != nil {
			leadID = *d.LeadID
		}
		if d.PropertyID != nil {
			propertyID = *d.PropertyID
		}
		row := []string{
			d.ID, leadID, propertyID, d.ClientName, formatFloat(d.Value),
			string(d.Stage), formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ContactColumns is the header row for contact CSV files.
var ContactColumns = []string{
	"id", "first_name", "last_name", "type", "status", "last_contact",
	"created_at", "updated_at",
}

// RenderContactsCSV writes the collection as CSV with a header row.
func RenderContactsCSV(contacts []domain.Contact) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(ContactColumns); err != nil {
		return nil, err
	}
	for _, c := range contacts {
		row := []string{
			c.ID, c.FirstName, c.LastName, string(c.Type), string(c.Status),
			formatTime(c.LastContact), formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
