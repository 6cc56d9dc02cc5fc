package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFTextExtractor reads the embedded text layer of a PDF. Scanned,
// image-only documents yield an empty string.
type PDFTextExtractor struct{}

// ExtractText returns the plain text of every non-null page, pages separated
// by a blank line.
func (PDFTextExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	pages, err := readPages(ctx, path, 0)
	if err != nil {
		return "", err
	}

	return strings.Join(pages, "\n\n"), nil
}

// ExtractPageText returns the raw text of a single 1-based page, or "" when
// the page does not exist or carries no text.
func (PDFTextExtractor) ExtractPageText(ctx context.Context, path string, pageNumber int) (string, error) {
	if pageNumber < 1 {
		return "", nil
	}

	pages, err := readPages(ctx, path, pageNumber)
	if err != nil || len(pages) == 0 {
		return "", err
	}

	return pages[0], nil
}

// readPages returns the trimmed, non-empty page texts of path. When only is
// positive just that page is read.
func readPages(ctx context.Context, path string, only int) (pages []string, err error) {
	// The parser panics on some malformed streams.
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic on %s: %v", path, recovered)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}

	defer func() { _ = file.Close() }()

	first, last := 1, reader.NumPage()
	if only > 0 {
		if only > last {
			return nil, nil
		}

		first, last = only, only
	}

	fonts := make(map[string]*pdf.Font)

	for i := first; i <= last; i++ {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return nil, fmt.Errorf("pdf extraction cancelled: %w", ctxErr)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}

		pageText, pageErr := page.GetPlainText(fonts)
		if pageErr != nil {
			return nil, fmt.Errorf("failed to read pdf page %d: %w", i, pageErr)
		}

		trimmed := strings.TrimSpace(pageText)
		if trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	return pages, nil
}
