// Package api holds the bot's outbound collaborators: the PDF report builder and the
// HTTP surface used to operate the bot.
package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	reportTitle     = "Relatório de Ordens de Serviço - Kraflo"
	reportFont      = "Helvetica"
	timestampLayout = "02/01/2006 15:04"
	notAvailable    = "N/A"
)

// PDFReport renders work order reports as A4 PDF files in a temporary directory.
type PDFReport struct {
	dir string           // Directory receiving the rendered files
	now func() time.Time // Clock used for file names
}

// NewPDFReport creates a PDFReport writing to dir. The directory is created on demand.
func NewPDFReport(dir string) *PDFReport {
	return &PDFReport{dir: dir, now: time.Now}
}

// Render writes the report of the user's orders for the period and returns the file.
//
// Arguments:
//   - ctx: cancels the rendering before the file is written.
//   - profile: the technician shown in the report header.
//   - orders: work orders, one block each, in the given order.
//   - periodLabel: the human readable period, e.g. "01/03/2024 a 05/03/2024".
//
// Returns:
//   - the document on disk, which must be removed with Discard once delivered.
func (r *PDFReport) Render(ctx context.Context, profile models.UserProfile, orders []models.WorkOrder, periodLabel string) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(reportTitle, true)
	pdf.SetHeaderFunc(func() {
		pdf.SetFont(reportFont, "B", 12)
		pdf.CellFormat(0, 10, tr(reportTitle), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(reportFont, "I", 8)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Página %d", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	line := func(h float64, text string) {
		pdf.CellFormat(0, h, tr(text), "", 1, "", false, 0, "")
	}

	pdf.SetFont(reportFont, "B", 14)
	line(10, "Detalhes do Profissional")
	pdf.SetFont(reportFont, "", 10)
	line(6, "Nome: "+profile.Name)
	line(6, "Função: "+profile.Role)
	line(6, "Matrícula: "+profile.RegistrationCode)
	line(6, "Período do Relatório: "+periodLabel)
	pdf.Ln(10)

	for _, o := range orders {
		pdf.SetFont(reportFont, "B", 12)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("OS ID: %d - Máquina: %s", o.ID, o.MachineNumber)), "B", 1, "", false, 0, "")
		pdf.Ln(4)

		pdf.SetFont(reportFont, "", 10)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("Modelo: %s | Tipo: %s", o.MachineModel, o.MaintenanceType.Label())), "", "", false)
		pdf.MultiCell(0, 5, tr("Problema Apresentado: "+o.ProblemDescription), "", "", false)
		pdf.MultiCell(0, 5, tr("Solução Aplicada: "+orNA(o.SolutionApplied)), "", "", false)
		if o.PartReplaced {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("Peça Substituída: %s (TAG: %s)", orNA(o.PartDescription), orNA(o.PartTag))), "", "", false)
		}
		pdf.Ln(2)
		line(5, fmt.Sprintf("Abertura: %s | Fecho: %s", formatTimestamp(&o.OpenedAt), formatTimestamp(o.ClosedAt)))
		line(5, "Serviço Concluído: "+yesNo(o.ServiceCompleted))
		if o.Notes != nil {
			pdf.MultiCell(0, 5, tr("Observações: "+*o.Notes), "", "", false)
		}
		pdf.Ln(8)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	name := fmt.Sprintf("relatorio_kraflo_%d_%s_%s.pdf", profile.ChatID, r.now().Format("20060102150405"), uuid.NewString())
	path := filepath.Join(r.dir, name)
	if err := pdf.OutputFileAndClose(path); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write report %s: %w", name, err)
	}

	logrus.Infof("Report PDF written to %s", path)
	return &models.Document{Path: path, Name: name}, nil
}

// Discard removes a rendered report. A file that is already gone is not an error.
func (r *PDFReport) Discard(doc *models.Document) error {
	if doc == nil {
		return nil
	}
	if err := os.Remove(doc.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove report: %w", err)
	}
	return nil
}

func formatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return notAvailable
	}
	return t.Format(timestampLayout)
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return notAvailable
	}
	return *s
}

func yesNo(b *bool) string {
	if b != nil && *b {
		return "Sim"
	}
	return "Não"
}
