package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/prp-express/constants"
	"github.com/joseph-ayodele/prp-express/internal/common"
)

// ErrUnsupportedFile is returned for files that cannot carry PSP text.
var ErrUnsupportedFile = common.NewAppError("UNSUPPORTED_FILE", "unsupported or missing extension", common.ErrInvalidInput)

// ReadPSPWorkbook returns the text of the sheet named PSP (any case): each
// row's cells joined by single spaces, rows joined by newlines. ok is false
// when the workbook has no such sheet.
func ReadPSPWorkbook(r io.Reader) (text string, ok bool, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", false, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := ""
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(name, constants.PSPSheetName) {
			sheet = name
			break
		}
	}
	if sheet == "" {
		return "", false, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", false, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, " ")
	}
	return strings.Join(lines, "\n"), true, nil
}

// ReadSource extracts the PSP text from a file's content according to its
// extension. Plain-text files are taken verbatim.
func ReadSource(name string, data []byte) (text string, ok bool, err error) {
	switch constants.MapExtToFormat(extOf(name)) {
	case constants.WORKBOOK:
		return ReadPSPWorkbook(bytes.NewReader(data))
	case constants.TEXT:
		return string(data), len(data) > 0, nil
	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnsupportedFile, extOf(name))
	}
}
