// Package pdfcheck inspects uploaded PDFs before they reach the extractor.
package pdfcheck

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"itinera/internal/domain"
)

var pdfMagic = []byte("%PDF-")

// PageCount returns the number of pages in data. Anything pdfcpu cannot read
// is reported as domain.ErrInvalidPDF.
func PageCount(data []byte) (int, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return 0, domain.ErrInvalidPDF
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidPDF, err)
	}
	if n <= 0 {
		return 0, domain.ErrInvalidPDF
	}
	return n, nil
}

// Check enforces a page ceiling; maxPages <= 0 disables it.
func Check(data []byte, maxPages int) (int, error) {
	n, err := PageCount(data)
	if err != nil {
		return 0, err
	}
	if maxPages > 0 && n > maxPages {
		return n, fmt.Errorf("%w: %d pages (limit %d)", domain.ErrTooManyPages, n, maxPages)
	}
	return n, nil
}
