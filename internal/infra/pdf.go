package infra

// pdf.go — payment receipt (recibo) generation using go-pdf/fpdf.
// Generates A6 receipts with:
//   - Business name header
//   - Receipt number, cliente and service
//   - Reference cycle and due date
//   - Amount, late fee and total paid
//   - Payment method and date
//
// The output file is saved to storagePath/recibo_{cobrancaID}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"mvsat/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateReciboPDF renders the receipt of a paid Cobranca.
// storagePath is created if needed. Returns the path of the generated file.
func GenerateReciboPDF(c *model.Cobranca, clienteNome, storagePath string) (string, error) {
	if c.Status != model.StatusPago || c.DataPagamento == nil {
		return "", fmt.Errorf("pdf: cobrança %s não está paga", c.ID)
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	filePath := filepath.Join(storagePath, fmt.Sprintf("recibo_%s.pdf", c.ID))

	pdf := fpdf.New("P", "mm", "A6", "")
	pdf.SetMargins(8, 8, 8)
	pdf.AddPage()
	// core fonts are cp1252; translate accents
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 16
	labelW := contentW * 0.45
	valueW := contentW - labelW

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 7, "MV SAT", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr("Recibo de Pagamento"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Nº "+c.ID.String()[:8], "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.Line(8, pdf.GetY(), pageW-8, pdf.GetY())
	pdf.Ln(3)

	// ── Details ──────────────────────────────────────────────────────────────
	linha := func(label, valor string) {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(labelW, 5, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(valueW, 5, tr(valor), "", 1, "R", false, 0, "")
	}

	if clienteNome == "" {
		clienteNome = "—"
	}
	linha("Cliente:", clienteNome)
	linha("Serviço:", model.RotuloTipo(c.Tipo))
	linha("Referência:", fmt.Sprintf("%02d/%04d", c.MesReferencia, c.AnoReferencia))
	if c.DataVencimento != nil {
		linha("Vencimento:", c.DataVencimento.UTC().Format("02/01/2006"))
	}
	linha("Pagamento:", c.DataPagamento.UTC().Format("02/01/2006"))
	if c.FormaPagamento != nil {
		linha("Forma:", *c.FormaPagamento)
	}

	pdf.Ln(2)
	pdf.Line(8, pdf.GetY(), pageW-8, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	linha("Valor:", reais(c.Valor))
	if c.Juros != nil && !c.Juros.IsZero() {
		linha("Juros/multa:", reais(*c.Juros))
	}
	pago := c.Valor
	if c.ValorPago != nil {
		pago = *c.ValorPago
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelW, 7, "TOTAL PAGO:", "", 0, "L", false, 0, "")
	pdf.CellFormat(valueW, 7, tr(reais(pago)), "", 1, "R", false, 0, "")

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("Obrigado pela preferência!"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}

// reais formats an amount as "R$ 1234,56".
func reais(v decimal.Decimal) string {
	s := v.StringFixed(2)
	return "R$ " + s[:len(s)-3] + "," + s[len(s)-2:]
}
