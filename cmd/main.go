package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vistoriatec/vistoria-backend/internal/app"
	"github.com/vistoriatec/vistoria-backend/internal/dates"
	"github.com/vistoriatec/vistoria-backend/internal/services"
	"github.com/vistoriatec/vistoria-backend/internal/types"
)

// Maintenance CLI: list records and generate PDF reports from the command
// line. The data-entry shell lives elsewhere; everything here goes through
// the same service layer it uses.
func main() {
	var (
		list       bool
		statusStr  string
		equipType  string
		reportKind string
		recordID   uint
	)
	flag.BoolVar(&list, "list", false, "list inspection records")
	flag.StringVar(&statusStr, "status", "", "filter by status: ok|due_soon|overdue")
	flag.StringVar(&equipType, "type", "", "filter by equipment type")
	flag.StringVar(&reportKind, "report", "", "generate a report: single|batch|summary")
	flag.UintVar(&recordID, "id", 0, "record id for -report single")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()

	if list {
		if err := runList(ctx, application, statusStr, equipType); err != nil {
			application.Log.Error("List failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if reportKind != "" {
		if err := runReport(ctx, application, reportKind, recordID, statusStr, equipType); err != nil {
			application.Log.Error("Report generation failed", "kind", reportKind, "error", err)
			os.Exit(1)
		}
		return
	}

	flag.Usage()
}

func runList(ctx context.Context, application *app.App, statusStr, equipType string) error {
	recs, err := application.Services.Records.List(ctx, services.ListOptions{
		Status:        types.Status(statusStr),
		EquipmentType: equipType,
	})
	if err != nil {
		return err
	}
	for _, rec := range recs {
		fmt.Printf("%4d  %-28s %-10s next %s\n", rec.ID, rec.Tag, rec.Status, dates.FormatDate(rec.NextInspectionDate))
	}
	fmt.Printf("%d record(s)\n", len(recs))
	return nil
}

func runReport(ctx context.Context, application *app.App, kind string, recordID uint, statusStr, equipType string) error {
	records := application.Services.Records
	reports := application.Services.Reports

	var data []byte
	var err error

	switch kind {
	case services.ReportKindSingle:
		if recordID == 0 {
			return fmt.Errorf("-report single requires -id")
		}
		rec, getErr := records.Get(ctx, recordID)
		if getErr != nil {
			return getErr
		}
		data, err = reports.RenderSingle(rec)
	case services.ReportKindBatch, services.ReportKindSummary:
		recs, listErr := records.List(ctx, services.ListOptions{
			Status:        types.Status(statusStr),
			EquipmentType: equipType,
		})
		if listErr != nil {
			return listErr
		}
		if kind == services.ReportKindBatch {
			data, err = reports.RenderBatch(recs)
		} else {
			data, err = reports.RenderSummary(recs)
		}
	default:
		return fmt.Errorf("unknown report kind %q", kind)
	}
	if err != nil {
		return err
	}

	path, err := reports.Save(kind, data)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
