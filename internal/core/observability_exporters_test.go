package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestExpvarRecorderAggregatesByOperationAndStatus(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "add_lead", true, 10*time.Millisecond)
	rec.Observe(ctx, "add_lead", true, 5*time.Millisecond)
	rec.Observe(ctx, "add_lead", false, 2*time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	snap := rec.Snapshot()
	if got := snap.DurationsMS["add_lead"]; got != 17 {
		t.Fatalf("duration total = %v, want 17", got)
	}
	if got := snap.Results["add_lead"]["success"]; got != 2 {
		t.Fatalf("success count = %d, want 2", got)
	}
	if got := snap.Results["add_lead"]["error"]; got != 1 {
		t.Fatalf("error count = %d, want 1", got)
	}
	if _, ok := snap.Results[""]; ok {
		t.Fatalf("empty operation must be ignored")
	}
	if rec.Name() == "" {
		t.Fatalf("recorder did not generate an expvar name")
	}
}

func TestExpvarSnapshotIsACopy(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "add_lead", true, time.Millisecond)

	snap := rec.Snapshot()
	snap.DurationsMS["add_lead"] = 999
	snap.Results["add_lead"]["success"] = 999

	again := rec.Snapshot()
	if again.DurationsMS["add_lead"] == 999 || again.Results["add_lead"]["success"] == 999 {
		t.Fatalf("snapshot shares state with the recorder")
	}
}

func TestPrometheusRecorderRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "add_lead", true, 3*time.Millisecond)
	rec.Observe(ctx, "add_lead", false, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sawCounter, sawHistogram bool
	for _, f := range families {
		switch f.GetName() {
		case "creocore_service_operations_total":
			sawCounter = true
			var total float64
			for _, m := range f.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			if total != 2 {
				t.Fatalf("operation counter total = %v, want 2", total)
			}
		case "creocore_service_operation_duration_seconds":
			sawHistogram = true
		}
	}
	if !sawCounter || !sawHistogram {
		t.Fatalf("collectors missing: counter=%v histogram=%v", sawCounter, sawHistogram)
	}

	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("double registration must fail")
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	buf := &bytes.Buffer{}
	tracer := NewJSONTracer(buf)

	_, span := tracer.Start(context.Background(), "convert_lead_to_deal")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "add_lead")
	span.End(errors.New("blocked"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(entries))
	}
	if entries[0].Operation != "convert_lead_to_deal" || entries[0].Status != "success" {
		t.Fatalf("first span = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error != "blocked" {
		t.Fatalf("second span = %+v", entries[1])
	}

	dec := json.NewDecoder(buf)
	var lines int
	for dec.More() {
		var entry JSONTraceEntry
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("decode line %d: %v", lines+1, err)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("wrote %d JSON lines, want 2", lines)
	}
}
