package services

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vistoriatec/vistoria-backend/internal/logger"
	"github.com/vistoriatec/vistoria-backend/internal/types"
)

func newTestReportService(t *testing.T) (ReportService, PhotoService, string) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	dir := t.TempDir()
	photoSvc, err := NewPhotoService(filepath.Join(dir, "fotos"), log)
	if err != nil {
		t.Fatalf("init photo service: %v", err)
	}
	reportsDir := filepath.Join(dir, "relatorios")
	reportSvc, err := NewReportService(reportsDir, log, photoSvc)
	if err != nil {
		t.Fatalf("init report service: %v", err)
	}
	return reportSvc, photoSvc, reportsDir
}

func sampleRecord(id uint, status types.Status) *types.InspectionRecord {
	return &types.InspectionRecord{
		ID:                 id,
		Platform:           "P-1",
		Module:             "M01",
		Sector:             "S01",
		EquipmentType:      "Tanque",
		EquipmentSeq:       int(id),
		Tag:                "P-1-M01-S01-TQ-001",
		Defect:             "Vazamento",
		Cause:              "Corrosão externa",
		RTICategory:        "II",
		Recommendation:     "Pintura",
		DamageType:         "Localizado",
		InspectionDate:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		NextInspectionDate: time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
		Notes:              "válvula de alívio com corrosão superficial",
		Status:             status,
	}
}

func assertIsPDF(t *testing.T, data []byte) {
	t.Helper()
	if len(data) == 0 {
		t.Fatal("empty PDF output")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output does not start with %%PDF header: %q", data[:8])
	}
}

func TestStatusCounts(t *testing.T) {
	recs := []*types.InspectionRecord{
		sampleRecord(1, types.StatusOK),
		sampleRecord(2, types.StatusOverdue),
		sampleRecord(3, types.StatusDueSoon),
	}
	counts := statusCounts(recs)
	if counts[types.StatusOK] != 1 || counts[types.StatusOverdue] != 1 || counts[types.StatusDueSoon] != 1 {
		t.Fatalf("statusCounts = %v, want 1/1/1", counts)
	}
}

func TestRenderSingleWithoutPhoto(t *testing.T) {
	reportSvc, _, _ := newTestReportService(t)

	data, err := reportSvc.RenderSingle(sampleRecord(1, types.StatusOK))
	if err != nil {
		t.Fatalf("RenderSingle: %v", err)
	}
	assertIsPDF(t, data)
}

func TestRenderSingleWithMissingPhotoFile(t *testing.T) {
	reportSvc, _, _ := newTestReportService(t)

	rec := sampleRecord(2, types.StatusOverdue)
	rec.PhotoOptimizedPath = "/nonexistent/photo.jpg"

	// A dangling photo reference degrades to the placeholder, never an error.
	data, err := reportSvc.RenderSingle(rec)
	if err != nil {
		t.Fatalf("RenderSingle with missing photo: %v", err)
	}
	assertIsPDF(t, data)
}

func TestRenderSingleWithCorruptPhotoFile(t *testing.T) {
	reportSvc, _, _ := newTestReportService(t)

	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte("not image data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec := sampleRecord(4, types.StatusOK)
	rec.PhotoOptimizedPath = path

	// Readable but undecodable degrades to the placeholder like a missing file.
	data, err := reportSvc.RenderSingle(rec)
	if err != nil {
		t.Fatalf("RenderSingle with corrupt photo: %v", err)
	}
	assertIsPDF(t, data)
}

func TestRenderSingleWithRealPhoto(t *testing.T) {
	reportSvc, photoSvc, _ := newTestReportService(t)

	src := filepath.Join(t.TempDir(), "upload.png")
	writeTestPNG(t, src, 800, 600)
	result, err := photoSvc.Process(3, src)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	rec := sampleRecord(3, types.StatusDueSoon)
	rec.PhotoPath = result.OriginalPath
	rec.PhotoOptimizedPath = result.OptimizedPath
	rec.PhotoThumbPath = result.ThumbnailPath

	data, err := reportSvc.RenderSingle(rec)
	if err != nil {
		t.Fatalf("RenderSingle with photo: %v", err)
	}
	assertIsPDF(t, data)
}

func TestRenderBatchMixedPhotos(t *testing.T) {
	reportSvc, photoSvc, _ := newTestReportService(t)

	src := filepath.Join(t.TempDir(), "upload.png")
	writeTestPNG(t, src, 640, 480)
	result, err := photoSvc.Process(10, src)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	withPhoto := sampleRecord(10, types.StatusOK)
	withPhoto.PhotoOptimizedPath = result.OptimizedPath

	broken := sampleRecord(11, types.StatusOverdue)
	broken.PhotoOptimizedPath = "/gone/photo.jpg"

	plain := sampleRecord(12, types.StatusDueSoon)

	data, err := reportSvc.RenderBatch([]*types.InspectionRecord{withPhoto, broken, plain})
	if err != nil {
		t.Fatalf("RenderBatch: %v", err)
	}
	assertIsPDF(t, data)
}

func TestRenderSummary(t *testing.T) {
	reportSvc, _, _ := newTestReportService(t)

	recs := []*types.InspectionRecord{
		sampleRecord(1, types.StatusOK),
		sampleRecord(2, types.StatusOverdue),
		sampleRecord(3, types.StatusDueSoon),
	}
	data, err := reportSvc.RenderSummary(recs)
	if err != nil {
		t.Fatalf("RenderSummary: %v", err)
	}
	assertIsPDF(t, data)
}

func TestRenderSummaryEmpty(t *testing.T) {
	reportSvc, _, _ := newTestReportService(t)

	data, err := reportSvc.RenderSummary(nil)
	if err != nil {
		t.Fatalf("RenderSummary over empty set: %v", err)
	}
	assertIsPDF(t, data)
}

func TestSaveWritesNamedFile(t *testing.T) {
	reportSvc, _, reportsDir := newTestReportService(t)

	data, err := reportSvc.RenderSummary(nil)
	if err != nil {
		t.Fatalf("RenderSummary: %v", err)
	}
	path, err := reportSvc.Save(ReportKindSummary, data)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Dir(path) != reportsDir {
		t.Fatalf("report written outside reports dir: %s", path)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "summary_") || !strings.HasSuffix(base, ".pdf") {
		t.Fatalf("unexpected report file name %q", base)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved report: %v", err)
	}
	if !bytes.Equal(written, data) {
		t.Fatal("saved bytes differ from rendered output")
	}
}
