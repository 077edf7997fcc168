package services

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrNotPDF    = errors.New("file is not a pdf")
	ErrPDFEmpty  = errors.New("pdf has no pages")
	ErrPDFNoText = errors.New("no extractable text found in pdf")
)

// PDFInfo describes a document that passed the upload pre-flight.
type PDFInfo struct {
	Pages     int
	TextPages int
	Preview   string
}

// PDFInspector checks lesson PDFs locally before they are uploaded, so the
// backend never receives scans or corrupt files it cannot turn into lessons.
type PDFInspector struct {
	MaxBytes     int64
	PreviewChars int
}

func NewPDFInspector() *PDFInspector {
	return &PDFInspector{
		MaxBytes:     10 << 20,
		PreviewChars: 200,
	}
}

func (s *PDFInspector) Inspect(path string) (*PDFInfo, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return nil, fmt.Errorf("%w: %s", ErrNotPDF, filepath.Base(path))
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat pdf: %w", err)
	}
	if s.MaxBytes > 0 && st.Size() > s.MaxBytes {
		return nil, fmt.Errorf("pdf is %d bytes, limit is %d", st.Size(), s.MaxBytes)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	defer f.Close()

	info := &PDFInfo{Pages: reader.NumPage()}
	if info.Pages == 0 {
		return nil, ErrPDFEmpty
	}

	var b strings.Builder
	for pageIndex := 1; pageIndex <= info.Pages; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(content) == "" {
			continue
		}
		info.TextPages++
		b.WriteString(content)
		b.WriteString("\n")
	}

	text := normalizeExtractedText(b.String())
	if text == "" {
		return nil, ErrPDFNoText
	}
	info.Preview = preview(text, s.PreviewChars)
	return info, nil
}

func preview(text string, n int) string {
	r := []rune(text)
	if n <= 0 || len(r) <= n {
		return text
	}
	return string(r[:n]) + "…"
}

func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	buf := bytes.Buffer{}

	emptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		emptyCount = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String())
}
