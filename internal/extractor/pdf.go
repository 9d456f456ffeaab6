package extractor

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ExtractText reads a PDF file and returns the text content of each page.
// It tries the PDF library first, then the external pdftotext command
// (poppler-utils), then Tesseract OCR for image-only statements.
func ExtractText(filePath string) ([]string, error) {
	pages, libErr := extractWithLibrary(filePath)
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}

	popplerPages, popplerErr := extractWithPdftotext(filePath)
	if popplerErr == nil && isReadableText(popplerPages) {
		return popplerPages, nil
	}

	ocrPages, ocrErr := ExtractTextOCR(filePath)
	if ocrErr == nil && isReadableText(ocrPages) {
		return ocrPages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("PDF text extraction failed: %w (OCR fallback: %v)", libErr, ocrErr)
	}
	return nil, fmt.Errorf("no readable text could be extracted from PDF (OCR fallback: %v). Try copying the statement text and pasting it instead", ocrErr)
}

// ExtractTextCombined reads a PDF and returns all pages as one
// newline-separated string.
func ExtractTextCombined(filePath string) (string, error) {
	pages, err := ExtractText(filePath)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}

// statementPunct is the punctuation a payout statement is made of.
const statementPunct = ".,-/:;()'\"$%&@#!?+=*|"

// readableRune reports whether r could come from a correctly decoded
// statement. unicode.IsLetter would accept the accented glyphs that
// identity-encoded fonts decode to.
func readableRune(r rune) bool {
	switch {
	case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
		return true
	case unicode.IsSpace(r):
		return true
	}
	return strings.ContainsRune(statementPunct, r)
}

// textQuality is the share of readable runes across pages, 0 when empty.
func textQuality(pages []string) float64 {
	var total, readable int
	for _, page := range pages {
		for _, r := range page {
			total++
			if readableRune(r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

var statementWords = []string{
	"deposit", "total", "collected", "orders", "tax", "fee",
	"payout", "distribution", "amount", "statement", "period",
}

func mentionsStatementWord(pages []string) bool {
	for _, page := range pages {
		lower := strings.ToLower(page)
		for _, word := range statementWords {
			if strings.Contains(lower, word) {
				return true
			}
		}
	}
	return false
}

// isReadableText accepts pages holding more than 50 non-blank bytes, mostly
// readable runes and at least one statement word.
func isReadableText(pages []string) bool {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n > 50 && textQuality(pages) > 0.6 && mentionsStatementWord(pages)
}

// IsReadableText reports whether extracted pages look like a decoded payout
// statement rather than font garbage or an empty text layer.
func IsReadableText(pages []string) bool {
	return isReadableText(pages)
}

// extractWithPdftotext uses pdftotext from poppler-utils, one page at a time.
func extractWithPdftotext(filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages := pageCount(filePath)
	if numPages == 0 {
		numPages = 1
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		pageStr := strconv.Itoa(i)
		out, err := exec.Command("pdftotext", "-layout", "-f", pageStr, "-l", pageStr, filePath, "-").Output()
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// extractWithLibrary uses the ledongthuc/pdf library, row-based first and
// whole-document plain text second.
func extractWithLibrary(filePath string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, openErr := pdf.Open(filePath)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	pages = libraryRowPages(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	if text, err := libraryPlainText(r); err == nil && isReadableText([]string{text}) {
		return []string{text}, nil
	}

	return pages, nil
}

// libraryRowPages returns one string per page that has content, each
// visual row on its own line.
func libraryRowPages(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		pages = append(pages, rowText(rows))
	}
	return pages
}

// rowText joins the words of each row with spaces and the non-empty rows
// with newlines.
func rowText(rows pdf.Rows) string {
	var b strings.Builder
	for _, row := range rows {
		words := make([]string, 0, len(row.Content))
		for _, t := range row.Content {
			words = append(words, t.S)
		}
		line := strings.TrimSpace(strings.Join(words, " "))
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

func libraryPlainText(r *pdf.Reader) (string, error) {
	rd, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// pageCount asks pdfinfo for the page count; 0 means unknown.
func pageCount(filePath string) int {
	out, err := exec.Command("pdfinfo", filePath).Output()
	if err != nil {
		return 0
	}
	return parsePageCount(string(out))
}

// parsePageCount reads the "Pages:" field of pdfinfo output.
func parsePageCount(info string) int {
	for _, line := range strings.Split(info, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != "Pages" {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return 0
}
