package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"studyplan/app/config"
	"studyplan/app/models"
)

// US Letter geometry in points, measured from the top-left corner.
const (
	pageHeight  = 792.0
	margin      = 50.0
	titleY      = 50.0
	bodyTop     = 80.0
	lineHeight  = 18.0
	titleSize   = 16.0
	bodySize    = 12.0
	pageBreakAt = pageHeight - margin
)

// documentDate is stamped into every PDF so output is reproducible.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// WriteText writes a paginated plain-text export. The first page starts with
// the title and a blank line; pages are separated by a form feed.
func WriteText(w io.Writer, tasks []models.Task, cfg config.ExportConfig) error {
	body := DocumentLines(tasks, cfg.Width)
	firstPage := max(cfg.LinesPerPage-2, 0)
	pages := Paginate(body, firstPage, cfg.LinesPerPage)

	bw := bufio.NewWriter(w)
	for i, page := range pages {
		if i == 0 {
			bw.WriteString(cfg.Title + "\n\n")
		} else {
			bw.WriteString("\f")
		}
		for _, line := range page {
			bw.WriteString(line + "\n")
		}
	}
	return bw.Flush()
}

// linesFit counts the baselines that fit from top down to pageBreakAt.
func linesFit(top float64) int {
	return int((pageBreakAt-top)/lineHeight) + 1
}

// WritePDF writes a US Letter PDF: a bold title, then one wrapped line per
// task, starting a new page when the next line would cross the bottom margin.
func WritePDF(w io.Writer, tasks []models.Task, cfg config.ExportConfig) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetTitle(cfg.Title, true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pages := Paginate(DocumentLines(tasks, cfg.Width), linesFit(bodyTop), linesFit(margin))

	for i, page := range pages {
		pdf.AddPage()
		y := margin
		if i == 0 {
			pdf.SetFont("Helvetica", "B", titleSize)
			pdf.Text(margin, titleY, tr(cfg.Title))
			y = bodyTop
		}
		pdf.SetFont("Helvetica", "", bodySize)
		for _, line := range page {
			pdf.Text(margin, y, tr(strings.TrimRight(line, " ")))
			y += lineHeight
		}
	}
	return pdf.Output(w)
}

// Formats accepted by Save.
const (
	FormatPDF  = "pdf"
	FormatText = "txt"
)

// ErrUnknownFormat is returned by Save for unsupported formats.
var ErrUnknownFormat = errors.New("unknown export format")

// Save writes tasks to path in the given format.
func Save(path, format string, tasks []models.Task, cfg config.ExportConfig) (err error) {
	var write func(io.Writer, []models.Task, config.ExportConfig) error
	switch format {
	case FormatPDF:
		write = WritePDF
	case FormatText:
		write = WriteText
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return write(f, tasks, cfg)
}
