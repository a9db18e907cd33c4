package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	urlutil "github.com/law-makers/profiler/internal/utils/url"
	"github.com/law-makers/profiler/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// DefaultURLColumn is the column read when the caller does not name one
const DefaultURLColumn = "profile_url"

const utf8BOM = "\ufeff"

// ParseFile reads profile identifiers from a tabular file.
// Files ending in .xlsx are read as spreadsheets; anything else as delimited text.
func ParseFile(path, column string) ([]models.ProfileIdentifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch input: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ParseXLSX(f, column)
	}
	return ParseCSV(f, column)
}

// ParseCSV reads the named column of a header-first CSV document and returns
// the cells that look like profile URLs, in order. Blank and non-matching cells
// are skipped.
func ParseCSV(r io.Reader, column string) ([]models.ProfileIdentifier, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, schemaError(column, nil)
	}
	if err != nil {
		return nil, NewEngineError(ErrCodeSchema, "could not read header row", err)
	}

	idx, err := columnIndex(header, column)
	if err != nil {
		return nil, err
	}

	var cells []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			log.Debug().Err(err).Int("line", perr.Line).Msg("Skipping malformed CSV row")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read batch input: %w", err)
		}
		if idx < len(rec) {
			cells = append(cells, rec[idx])
		}
	}

	return collectIdentifiers(cells)
}

// ParseXLSX reads the named column from the first sheet of a workbook.
// The first row of the sheet is the header.
func ParseXLSX(r io.Reader, column string) ([]models.ProfileIdentifier, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, NewEngineError(ErrCodeSchema, "could not open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, schemaError(column, nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, NewEngineError(ErrCodeSchema, "could not read sheet "+sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, schemaError(column, nil)
	}

	idx, err := columnIndex(rows[0], column)
	if err != nil {
		return nil, err
	}

	var cells []string
	for _, row := range rows[1:] {
		if idx < len(row) {
			cells = append(cells, row[idx])
		}
	}

	return collectIdentifiers(cells)
}

func columnIndex(header []string, column string) (int, error) {
	if column == "" {
		column = DefaultURLColumn
	}
	found := make([]string, 0, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, utf8BOM))
		if name == column {
			return i, nil
		}
		if name != "" {
			found = append(found, name)
		}
	}
	return -1, schemaError(column, found)
}

func schemaError(column string, found []string) error {
	available := "none"
	if len(found) > 0 {
		available = strings.Join(found, ", ")
	}
	return NewEngineError(ErrCodeSchema,
		fmt.Sprintf("column %q not found in input; available columns: %s", column, available), nil).
		WithDetail("column", column).
		WithDetail("available", found)
}

func collectIdentifiers(cells []string) ([]models.ProfileIdentifier, error) {
	var ids []models.ProfileIdentifier
	skipped := 0
	for _, cell := range cells {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		id, err := urlutil.ParseProfileURL(cell)
		if err != nil {
			skipped++
			log.Debug().Str("cell", cell).Err(err).Msg("Skipping non-profile cell")
			continue
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, NewEngineError(ErrCodeEmptyBatch, "no valid profile URLs found in input", nil).
			WithDetail("skipped", skipped)
	}

	log.Debug().Int("accepted", len(ids)).Int("skipped", skipped).Msg("Parsed batch input")
	return ids, nil
}
