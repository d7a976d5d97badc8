// Command creocore-admin operates on a creocore data store from the shell:
// seeding demo records, printing collection counts, importing lead CSV files,
// and running exports into the configured artifact store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"creocore/internal/adapters/impexp"
	"creocore/internal/blob"
	"creocore/internal/core"
	"creocore/pkg/domain"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "creocore-admin:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: creocore-admin <seed|counts|import|export> [flags]")
	}
	ctx := context.Background()
	logger := core.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	store, err := core.OpenPersistentStore(ctx, core.NewDefaultRulesEngine(), logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	svc := core.NewService(store, nil, core.WithLogger(logger))

	switch args[0] {
	case "seed":
		return seed(ctx, svc)
	case "counts":
		return counts(svc)
	case "import":
		return importLeads(ctx, svc, args[1:])
	case "export":
		return export(ctx, svc, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func seed(ctx context.Context, svc *core.Service) error {
	leads := []domain.Lead{
		{
			Name:     "Aisha Rahman",
			Email:    "aisha.rahman@example.com",
			Phone:    "+1-555-0101",
			Source:   domain.SourceWebsite,
			Interest: domain.InterestBuying,
			Score:    72,
			Budget:   domain.Budget{Min: 250000, Max: 400000},
			Location: "Riverside",
		},
		{
			Name:     "Marcus Webb",
			Email:    "marcus.webb@example.com",
			Phone:    "+1-555-0102",
			Source:   domain.SourceReferral,
			Interest: domain.InterestInvesting,
			Score:    55,
			Budget:   domain.Budget{Min: 500000, Max: 750000},
			Location: "Harbor District",
		},
	}
	for _, lead := range leads {
		created, _, err := svc.AddLead(ctx, lead)
		if err != nil {
			return fmt.Errorf("seed lead %s: %w", lead.Name, err)
		}
		fmt.Println("seeded lead", created.ID, created.Name)
	}
	property, _, err := svc.AddProperty(ctx, domain.Property{
		Title:    "Two-bed riverside apartment",
		Price:    320000,
		Location: "Riverside",
		Type:     "apartment",
	})
	if err != nil {
		return fmt.Errorf("seed property: %w", err)
	}
	fmt.Println("seeded property", property.ID, property.Title)
	return nil
}

func counts(svc *core.Service) error {
	fmt.Printf("leads: %d\nproperties: %d\ndeals: %d\ncontacts: %d\n",
		len(svc.ListLeads()), len(svc.ListProperties()), len(svc.ListDeals()), len(svc.ListContacts()))
	return nil
}

func importLeads(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	path := fs.String("file", "", "lead CSV file to import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("-file is required")
	}
	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()
	summary, err := impexp.ImportLeadsCSV(ctx, svc, f)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func export(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	formats := fs.String("formats", "csv,json", "comma separated export formats")
	wait := fs.Duration("wait", 30*time.Second, "how long to wait for the export to finish")
	if err := fs.Parse(args); err != nil {
		return err
	}

	artifacts, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	worker := impexp.NewWorker(svc, artifacts)
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = worker.Stop(stopCtx)
	}()

	input := impexp.ExportInput{RequestedBy: "creocore-admin"}
	for _, raw := range splitComma(*formats) {
		input.Formats = append(input.Formats, impexp.Format(raw))
	}
	record, err := worker.Enqueue(ctx, input)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(*wait)
	for time.Now().Before(deadline) {
		current, ok := worker.Get(record.ID)
		if !ok {
			return fmt.Errorf("export %s disappeared", record.ID)
		}
		if current.Status == impexp.ExportStatusSucceeded || current.Status == impexp.ExportStatusFailed {
			out, err := json.MarshalIndent(current, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if current.Status == impexp.ExportStatusFailed {
				return fmt.Errorf("export failed: %s", current.Error)
			}
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("export %s still running after %s", record.ID, *wait)
}

func splitComma(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
