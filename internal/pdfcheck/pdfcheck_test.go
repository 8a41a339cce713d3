package pdfcheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/internal/domain"
	"itinera/internal/pdfcheck"
)

func TestPageCount(t *testing.T) {
	n, err := pdfcheck.PageCount(pdfcheck.Minimal(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPageCount_NotAPDF(t *testing.T) {
	_, err := pdfcheck.PageCount([]byte("<html>hello</html>"))
	assert.ErrorIs(t, err, domain.ErrInvalidPDF)
}

func TestPageCount_Corrupt(t *testing.T) {
	_, err := pdfcheck.PageCount([]byte("%PDF-1.4\nthis is not a pdf body"))
	assert.ErrorIs(t, err, domain.ErrInvalidPDF)
}

func TestCheck_PageCeiling(t *testing.T) {
	_, err := pdfcheck.Check(pdfcheck.Minimal(5), 4)
	assert.ErrorIs(t, err, domain.ErrTooManyPages)

	n, err := pdfcheck.Check(pdfcheck.Minimal(4), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = pdfcheck.Check(pdfcheck.Minimal(50), 0)
	assert.NoError(t, err)
}
