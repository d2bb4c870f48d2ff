package document

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// CountPages returns the page count of a local PDF without rendering it.
func CountPages(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

// PageCount counts the pages of a prepared document. PDFs are read with
// pdfcpu; other renderable types (EPUB, XPS, CBZ, images) are opened with
// opener, which pdfcpu cannot parse.
func PageCount(doc Prepared, opener Opener) (int, error) {
	if doc.MIMEType == "application/pdf" {
		return CountPages(doc.Path)
	}
	src, err := opener.Open(doc.Path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", doc.MIMEType, err)
	}
	defer src.Close()
	return src.NumPage(), nil
}
