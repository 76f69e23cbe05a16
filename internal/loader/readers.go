package loader

import (
	"encoding/csv"
	"errors"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
	"github.com/pgEdge/pgedge-sales-etl/internal/model"
)

// readWorkbook returns the cell values of one worksheet. Values are read
// raw, so dates arrive as Excel serial numbers and measures without
// display formatting.
func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &model.SourceFormatError{Path: path, Reason: "cannot open workbook", Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Debug().Err(cerr).Str("path", path).Msg("Failed to close workbook")
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &model.SourceFormatError{Path: path, Reason: "workbook has no sheets"}
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, &model.SourceFormatError{Path: path, Reason: "sheet not found: " + sheet}
	}

	logging.Debug().
		Str("path", path).
		Str("sheet", sheet).
		Msg("Reading worksheet")

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &model.SourceFormatError{Path: path, Reason: "cannot read sheet " + sheet, Err: err}
	}
	return rows, nil
}

// readCSV returns all records of a comma-separated file.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &model.SourceFormatError{Path: path, Reason: "cannot open file", Err: err}
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &model.SourceFormatError{Path: path, Reason: "malformed CSV", Err: perr}
		}
		return nil, &model.SourceFormatError{Path: path, Reason: "cannot read file", Err: err}
	}
	return rows, nil
}
