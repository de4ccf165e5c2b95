package services

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/vistoriatec/vistoria-backend/internal/dates"
	"github.com/vistoriatec/vistoria-backend/internal/logger"
	"github.com/vistoriatec/vistoria-backend/internal/types"
)

const (
	ReportKindSingle  = "single"
	ReportKindBatch   = "batch"
	ReportKindSummary = "summary"
)

var statusLabels = map[types.Status]string{
	types.StatusOK:      "EM DIA",
	types.StatusDueSoon: "PRÓXIMO DO VENCIMENTO",
	types.StatusOverdue: "VENCIDA",
}

type ReportService interface {
	RenderSingle(rec *types.InspectionRecord) ([]byte, error)
	RenderBatch(recs []*types.InspectionRecord) ([]byte, error)
	RenderSummary(recs []*types.InspectionRecord) ([]byte, error)
	Save(kind string, data []byte) (string, error)
}

type reportService struct {
	reportsDir string
	log        *logger.Logger
	photos     PhotoService
}

func NewReportService(reportsDir string, log *logger.Logger, photos PhotoService) (ReportService, error) {
	serviceLog := log.With("service", "ReportService")

	if strings.TrimSpace(reportsDir) == "" {
		return nil, fmt.Errorf("reports directory is empty")
	}
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, types.NewStorageError("create reports directory", err)
	}

	return &reportService{
		reportsDir: reportsDir,
		log:        serviceLog,
		photos:     photos,
	}, nil
}

func (rs *reportService) RenderSingle(rec *types.InspectionRecord) ([]byte, error) {
	pdf, tr := rs.newDocument()
	rs.renderRecordPage(pdf, tr, rec)
	return rs.output(pdf, rec.ID)
}

func (rs *reportService) RenderBatch(recs []*types.InspectionRecord) ([]byte, error) {
	pdf, tr := rs.newDocument()
	rs.renderCoverPage(pdf, tr, recs)
	for _, rec := range recs {
		rs.renderRecordPage(pdf, tr, rec)
	}
	return rs.output(pdf, 0)
}

func (rs *reportService) RenderSummary(recs []*types.InspectionRecord) ([]byte, error) {
	pdf, tr := rs.newDocument()
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, tr("RESUMO DE INSPEÇÕES"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Gerado em %s — %d registro(s)", time.Now().Format("02/01/2006 15:04"), len(recs))), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	counts := statusCounts(recs)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, tr("Totais por situação"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, st := range []types.Status{types.StatusOK, types.StatusDueSoon, types.StatusOverdue} {
		pdf.CellFormat(60, 7, tr(statusLabels[st]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", counts[st]), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	widths := []float64{15, 70, 55, 40}
	headers := []string{"ID", "TAG", "Situação", "Próxima inspeção"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(220, 220, 220)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, rec := range recs {
		pdf.CellFormat(widths[0], 7, fmt.Sprintf("%d", rec.ID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(rec.Tag), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, tr(statusLabels[rec.Status]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, dates.FormatDate(rec.NextInspectionDate), "1", 1, "C", false, 0, "")
	}

	return rs.output(pdf, 0)
}

func (rs *reportService) Save(kind string, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s_%s.pdf", kind, time.Now().Format("20060102_150405"), uuid.New().String()[:8])
	path := filepath.Join(rs.reportsDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", types.NewStorageError("write report file", err)
	}
	rs.log.Info("Report written", "kind", kind, "path", path)
	return path, nil
}

func (rs *reportService) newDocument() (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	return pdf, tr
}

func (rs *reportService) renderCoverPage(pdf *fpdf.Fpdf, tr func(string) string, recs []*types.InspectionRecord) {
	pdf.AddPage()
	pdf.Ln(40)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, tr("RELATÓRIO DE INSPEÇÕES DE EQUIPAMENTOS"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Gerado em %s", time.Now().Format("02/01/2006 15:04"))), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("%d registro(s) incluído(s)", len(recs))), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	counts := statusCounts(recs)
	pdf.SetFont("Helvetica", "", 10)
	for _, st := range []types.Status{types.StatusOK, types.StatusDueSoon, types.StatusOverdue} {
		pdf.CellFormat(0, 7, tr(fmt.Sprintf("%s: %d", statusLabels[st], counts[st])), "", 1, "C", false, 0, "")
	}
}

func (rs *reportService) renderRecordPage(pdf *fpdf.Fpdf, tr func(string) string, rec *types.InspectionRecord) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, tr("RELATÓRIO DE INSPEÇÃO DE EQUIPAMENTO"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	rs.renderSection(pdf, tr, "Identificação", [][2]string{
		{"Plataforma", rec.Platform},
		{"Módulo", rec.Module},
		{"Setor", rec.Sector},
		{"Tipo de equipamento", rec.EquipmentType},
		{"TAG", rec.Tag},
	})

	rs.renderSection(pdf, tr, "Detalhes da inspeção", [][2]string{
		{"Data da inspeção", dates.FormatDate(rec.InspectionDate)},
		{"Próxima inspeção", dates.FormatDate(rec.NextInspectionDate)},
		{"Situação", statusLabels[rec.Status]},
		{"Defeito", rec.Defect},
		{"Causa", rec.Cause},
		{"Categoria RTI", rec.RTICategory},
		{"Recomendação", rec.Recommendation},
		{"Tipo de dano", rec.DamageType},
	})

	if strings.TrimSpace(rec.Notes) != "" {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, tr("Observações"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, tr(rec.Notes), "1", "L", false)
		pdf.Ln(4)
	}

	rs.renderPhotoSlot(pdf, tr, rec)

	pdf.SetY(-30)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Registro #%d — gerado em %s", rec.ID, time.Now().Format("02/01/2006 15:04"))), "", 1, "C", false, 0, "")
}

func (rs *reportService) renderSection(pdf *fpdf.Fpdf, tr func(string) string, title string, rows [][2]string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(55, 7, tr(row[0]), "1", 0, "L", true, 0, "")
		pdf.CellFormat(115, 7, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

// renderPhotoSlot embeds the record's optimized photo, falling back to the
// placeholder when the file is missing or unreadable. A bad photo never
// aborts the document.
func (rs *reportService) renderPhotoSlot(pdf *fpdf.Fpdf, tr func(string) string, rec *types.InspectionRecord) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, tr("Foto"), "", 1, "L", false, 0, "")

	const slotWidth = 120.0

	if rec.HasPhoto() {
		raw, err := os.ReadFile(rec.PhotoOptimizedPath)
		if err == nil {
			_, _, err = image.Decode(bytes.NewReader(raw))
		}
		if err == nil {
			name := fmt.Sprintf("photo_%d", rec.ID)
			opts := fpdf.ImageOptions{ImageType: imageTypeForPath(rec.PhotoOptimizedPath)}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(raw))
			pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), slotWidth, 0, true, opts, 0, "")
			pdf.Ln(4)
			return
		}
		rs.log.Warn("Photo unavailable during rendering, using placeholder", "recordID", rec.ID, "path", rec.PhotoOptimizedPath, "error", err)
	}

	placeholder, err := rs.photos.Placeholder(600, 400)
	if err != nil {
		// Placeholder rendering is in-memory; failure here means the slot
		// degrades to text.
		rs.log.Error("Failed to render photo placeholder", "recordID", rec.ID, "error", err)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 7, tr("Foto indisponível"), "1", 1, "C", false, 0, "")
		return
	}

	name := fmt.Sprintf("placeholder_%d", rec.ID)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(placeholder))
	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), slotWidth, 0, true, opts, 0, "")
	pdf.Ln(4)
}

func (rs *reportService) output(pdf *fpdf.Fpdf, recordID uint) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &types.RenderError{RecordID: recordID, Reason: "pdf output failed", Err: err}
	}
	return buf.Bytes(), nil
}

func statusCounts(recs []*types.InspectionRecord) map[types.Status]int {
	counts := make(map[types.Status]int, 3)
	for _, rec := range recs {
		counts[rec.Status]++
	}
	return counts
}

func imageTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG"
	case ".gif":
		return "GIF"
	default:
		return "JPG"
	}
}
