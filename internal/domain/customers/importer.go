package customers

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"mung-manager/internal/apperr"

	"github.com/xuri/excelize/v2"
)

// importRow is one parsed line of an uploaded customer file:
// name, phone_number, then any number of pet name columns.
type importRow struct {
	line     int
	name     string
	phone    string
	petNames []string
}

// RowError reports one rejected row of a batch import.
type RowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchResult is the partial-success outcome of a batch import: every valid
// row is created, every invalid row is reported, neither affects the other.
type BatchResult struct {
	Created []Customer `json:"created"`
	Errors  []RowError `json:"errors"`
}

// BatchCreateFromFile imports customers from an uploaded tabular file.
// CSV and XLSX are told apart by filename extension. Rows are processed
// sequentially; a failing row never rolls back an earlier success.
func (s *Service) BatchCreateFromFile(ctx context.Context, userID, tenantID, filename string, r io.Reader) (BatchResult, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return BatchResult{}, err
	}

	var (
		rows []importRow
		err  error
	)
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		rows, err = parseXLSX(r)
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		rows, err = parseCSV(r)
	default:
		return BatchResult{}, apperr.Validation("invalid_parameter_format", "file must be .csv or .xlsx")
	}
	if err != nil {
		return BatchResult{}, apperr.Validation("invalid_parameter_format", "file could not be parsed")
	}

	res := BatchResult{Created: []Customer{}, Errors: []RowError{}}
	for _, row := range rows {
		c, cerr := s.create(ctx, tenantID, CreateInput{
			Name:        row.name,
			PhoneNumber: row.phone,
			PetNames:    row.petNames,
		})
		if cerr != nil {
			e := apperr.From(cerr)
			res.Errors = append(res.Errors, RowError{Row: row.line, Code: e.Code, Message: e.Message})
			continue
		}
		res.Created = append(res.Created, c)
	}
	return res, nil
}

func parseCSV(r io.Reader) ([]importRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // pet name columns vary per row
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return toImportRows(records), nil
}

func parseXLSX(r io.Reader) ([]importRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return toImportRows(records), nil
}

func toImportRows(records [][]string) []importRow {
	rows := make([]importRow, 0, len(records))
	for i, rec := range records {
		if len(rec) == 0 {
			continue
		}
		if i == 0 && isHeader(rec) {
			continue
		}

		row := importRow{line: i + 1}
		row.name = strings.TrimSpace(rec[0])
		if len(rec) > 1 {
			row.phone = strings.TrimSpace(rec[1])
		}
		if len(rec) > 2 {
			for _, pn := range rec[2:] {
				if pn = strings.TrimSpace(pn); pn != "" {
					row.petNames = append(row.petNames, pn)
				}
			}
		}

		// Fully blank lines happen at the end of exported sheets.
		if row.name == "" && row.phone == "" && len(row.petNames) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func isHeader(rec []string) bool {
	first := strings.ToLower(strings.TrimSpace(rec[0]))
	return first == "name" || first == "customer_name"
}
