package datagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
)

// SampleSheet is the worksheet name used for generated workbooks.
const SampleSheet = "Orders"

// usDateLayout is how Superstore CSV exports write dates.
const usDateLayout = "1/2/2006"

// WriteSample writes a sample to path as a workbook (.xlsx, .xlsm) or a
// CSV file (.csv).
func WriteSample(path string, sample *Sample) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		err = writeWorkbook(path, sample)
	case ".csv":
		err = writeCSV(path, sample)
	default:
		return fmt.Errorf("unsupported output format %q (want .xlsx or .csv)", ext)
	}
	if err != nil {
		return err
	}

	logging.Info().
		Str("output", path).
		Int("rows", len(sample.Rows)).
		Msg("Wrote sample")
	return nil
}

func writeWorkbook(path string, sample *Sample) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SampleSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(sample.Header))
	for i, h := range sample.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SampleSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range sample.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(SampleSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeCSV(path string, sample *Sample) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(out)
	if err := w.Write(sample.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(sample.Header))
	for _, row := range sample.Rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(usDateLayout)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
