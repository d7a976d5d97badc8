package impexp

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"creocore/pkg/domain"
)

// LeadSink accepts imported leads. The service satisfies this.
type LeadSink interface {
	AddLead(ctx context.Context, lead domain.Lead) (domain.Lead, domain.Result, error)
}

// RowError describes one rejected import row. Line numbers are 1-based and
// count the header.
type RowError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

// ImportSummary reports the outcome of a lead import.
type ImportSummary struct {
	Imported int        `json:"imported"`
	Rejected []RowError `json:"rejected,omitempty"`
	Warnings int        `json:"warnings"`
}

// ImportLeadsCSV reads lead rows from r and inserts them one at a time.
// The first row must be a header naming a subset of LeadColumns in any
// order. Bad rows are reported in the summary and do not abort the import.
func ImportLeadsCSV(ctx context.Context, sink LeadSink, r io.Reader) (ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return ImportSummary{}, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index["name"]; !ok {
		return ImportSummary{}, fmt.Errorf("header missing required column name")
	}

	var summary ImportSummary
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			summary.Rejected = append(summary.Rejected, RowError{Line: line, Err: err.Error()})
			continue
		}
		lead, err := leadFromRow(index, row)
		if err != nil {
			summary.Rejected = append(summary.Rejected, RowError{Line: line, Err: err.Error()})
			continue
		}
		_, res, err := sink.AddLead(ctx, lead)
		if err != nil {
			summary.Rejected = append(summary.Rejected, RowError{Line: line, Err: err.Error()})
			continue
		}
		summary.Imported++
		summary.Warnings += len(res.Violations)
	}
	return summary, nil
}

func field(index map[string]int, row []string, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func leadFromRow(index map[string]int, row []string) (domain.Lead, error) {
	var lead domain.Lead
	lead.Name = field(index, row, "name")
	if lead.Name == "" {
		return domain.Lead{}, fmt.Errorf("name is required")
	}
	lead.Email = field(index, row, "email")
	lead.Phone = field(index, row, "phone")
	lead.Source = domain.LeadSource(field(index, row, "source"))
	lead.Status = domain.LeadStatus(field(index, row, "status"))
	lead.Interest = domain.LeadInterest(field(index, row, "interest"))
	lead.Location = field(index, row, "location")
	lead.Notes = field(index, row, "notes")

	if raw := field(index, row, "score"); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("invalid score %q", raw)
		}
		lead.Score = score
	}
	if raw := field(index, row, "budget_min"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("invalid budget_min %q", raw)
		}
		lead.Budget.Min = v
	}
	if raw := field(index, row, "budget_max"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("invalid budget_max %q", raw)
		}
		lead.Budget.Max = v
	}
	if raw := field(index, row, "property_types"); raw != "" {
		lead.PropertyTypes = splitList(raw)
	}
	if raw := field(index, row, "tags"); raw != "" {
		lead.Tags = splitList(raw)
	}
	lead.LastContact = parseTime(field(index, row, "last_contact"))
	lead.NextFollowUp = parseTime(field(index, row, "next_follow_up"))

	agentID := field(index, row, "assigned_agent_id")
	agentName := field(index, row, "assigned_agent_name")
	if agentID != "" || agentName != "" {
		lead.AssignedAgent = &domain.AgentRef{ID: agentID, Name: agentName}
	}
	return lead, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
