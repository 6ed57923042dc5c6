// Package pdf renders sanction letters as PDF files using go-pdf/fpdf.
package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aretw0/lendflow/internal/amount"
	"github.com/aretw0/lendflow/internal/identity"
	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

const (
	title      = "Loan Sanction Letter"
	approval   = "Congratulations! Based on the information provided and our credit evaluation, your personal loan has been approved. Please retain this document for your records."
	disclaimer = "This is a system-generated sanction letter and does not require a signature."
)

// Generator writes one letter per approved applicant into a directory.
type Generator struct {
	dir     string
	maskPAN bool
	logger  *slog.Logger
	printer *message.Printer
}

// Option configures the Generator.
type Option func(*Generator)

// WithMaskedPAN prints the identity token as "XXXXX1234X" instead of in full.
func WithMaskedPAN() Option {
	return func(g *Generator) {
		g.maskPAN = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a generator that writes letters under dir.
// An empty dir means the current working directory.
func New(dir string, opts ...Option) *Generator {
	g := &Generator{
		dir:     dir,
		logger:  logging.NewNop(),
		printer: message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ ports.ArtifactGenerator = (*Generator)(nil)

// Generate renders the letter and returns the file path.
func (g *Generator) Generate(ctx context.Context, view domain.SanctionView) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := g.dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}
	path := filepath.Join(dir, FileName(view.Name))

	pan := view.PAN
	if g.maskPAN && pan != "" {
		pan = identity.Mask(pan)
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCreationDate(view.IssuedAt)
	doc.SetTitle(title, false)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	doc.SetFont("Arial", "B", 16)
	doc.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	doc.Ln(8)

	doc.SetFont("Arial", "", 12)
	lines := []string{
		"Date of Issue: " + view.IssuedAt.Format("2006-01-02T15:04:05Z07:00"),
		"Borrower Name: " + view.Name,
		"PAN: " + pan,
		g.printer.Sprintf("Approved Loan Amount: Rs. %d", view.ApprovedAmount),
		fmt.Sprintf("Loan Tenure: %d months", view.Tenure),
		"Monthly EMI: Rs. " + amount.Format(view.EMI, 2),
	}
	for _, line := range lines {
		doc.MultiCell(0, 8, line, "", "L", false)
	}

	doc.Ln(10)
	doc.MultiCell(0, 8, approval, "", "L", false)
	doc.Ln(10)
	doc.MultiCell(0, 8, disclaimer, "", "L", false)

	if err := doc.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write sanction letter: %w", err)
	}

	g.logger.Debug("sanction letter written", "path", path)
	return path, nil
}

// FileName returns "sanction_letter_<name>.pdf" with spaces turned into
// underscores and anything outside letters, digits, '-' and '_' dropped.
func FileName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		}
		return -1
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "Applicant"
	}
	return "sanction_letter_" + clean + ".pdf"
}
