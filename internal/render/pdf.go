package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mind-engage/worksheets/internal/generate"
	"github.com/mind-engage/worksheets/internal/grading"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

type Config struct {
	PageSize   string // A4|Letter
	MarginsMM  float64
	FontFamily string
}

type Options struct {
	AnswerKey bool // append an answer key page
}

// PDFRenderer lays a worksheet out as a printable PDF.
type PDFRenderer struct {
	cfg    Config
	engine *grading.Engine
}

func NewPDFRenderer(cfg Config, engine *grading.Engine) *PDFRenderer {
	if cfg.PageSize == "" {
		cfg.PageSize = "A4"
	}
	if strings.EqualFold(cfg.PageSize, "letter") {
		cfg.PageSize = "Letter"
	}
	if cfg.MarginsMM <= 0 {
		cfg.MarginsMM = 15
	}
	if cfg.FontFamily == "" {
		cfg.FontFamily = "Helvetica"
	}
	if engine == nil {
		engine = grading.NewEngine()
	}
	return &PDFRenderer{cfg: cfg, engine: engine}
}

func (p *PDFRenderer) Render(ctx context.Context, w worksheet.Worksheet, opts Options) ([]byte, error) {
	blocks, err := extractBlocks(w.Markup)
	if err != nil {
		return nil, fmt.Errorf("read markup: %w", err)
	}
	var items []grading.Item
	if opts.AnswerKey {
		if items, err = p.engine.Extract(w.Markup); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", p.cfg.PageSize, "")
	pdf.SetMargins(p.cfg.MarginsMM, p.cfg.MarginsMM, p.cfg.MarginsMM)
	pdf.SetAutoPageBreak(true, p.cfg.MarginsMM)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := w.Title
	if title == "" {
		title = "Worksheet"
	}
	pdf.SetTitle(tr(title), false)
	pdf.SetCreator("worksheets", false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-p.cfg.MarginsMM + 5)
		pdf.SetFont(p.cfg.FontFamily, "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("%s   page %d", tr(title), pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// ---------- title ----------
	pdf.SetFont(p.cfg.FontFamily, "B", 20)
	pdf.MultiCell(0, 10, tr(title), "", "C", false)
	pdf.SetFont(p.cfg.FontFamily, "", 11)
	pdf.CellFormat(0, 7, tr(subtitle(w)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 9, "Name: ______________________    Date: ____________", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ---------- questions ----------
	for i, b := range blocks {
		switch b.kind {
		case blockHeading:
			if i == 0 && strings.EqualFold(b.text, title) {
				continue
			}
			pdf.Ln(2)
			pdf.SetFont(p.cfg.FontFamily, "B", 14)
			pdf.MultiCell(0, 8, tr(b.text), "", "L", false)
		case blockQuestion:
			pdf.SetFont(p.cfg.FontFamily, "", 12)
			pdf.MultiCell(0, 8, tr(fmt.Sprintf("%d. %s", b.number, b.text)), "", "L", false)
			pdf.Ln(2)
		default:
			pdf.SetFont(p.cfg.FontFamily, "", 12)
			pdf.MultiCell(0, 7, tr(b.text), "", "L", false)
		}
	}

	// ---------- answers ----------
	if opts.AnswerKey {
		pdf.AddPage()
		pdf.SetFont(p.cfg.FontFamily, "B", 18)
		pdf.MultiCell(0, 10, tr(title+" - Answer Key"), "", "C", false)
		pdf.Ln(6)
		pdf.SetFont(p.cfg.FontFamily, "", 12)
		for _, it := range items {
			pdf.MultiCell(0, 8, tr(fmt.Sprintf("%d. %s", it.Position+1, answerText(it))), "", "L", false)
		}
		if len(items) == 0 {
			pdf.MultiCell(0, 8, "This worksheet has no marked answers.", "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func subtitle(w worksheet.Worksheet) string {
	var parts []string
	if w.YearGroup > 0 {
		parts = append(parts, generate.Config{Curriculum: w.Curriculum, YearGroup: w.YearGroup}.YearLabel())
	}
	if w.Topic != "" {
		parts = append(parts, cases.Title(language.English).String(w.Topic))
	}
	if w.Difficulty != "" {
		parts = append(parts, cases.Title(language.English).String(string(w.Difficulty)))
	}
	return strings.Join(parts, " | ")
}

func answerText(it grading.Item) string {
	alts := strings.Split(it.Expected, grading.AlternativeSeparator)
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}
	s := strings.Join(alts, " or ")
	if it.Tolerance > 0 {
		s += fmt.Sprintf(" (within %g)", it.Tolerance)
	}
	return s
}
