package datagen

import (
	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
)

// ProgressReporter tracks and reports sample generation progress.
type ProgressReporter struct {
	output           string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(output string, totalRows int64, interval int64) *ProgressReporter {
	if interval < 1 {
		interval = 1
	}
	return &ProgressReporter{
		output:           output,
		totalRows:        totalRows,
		progressInterval: interval,
	}
}

// Update adds rows to the running count and logs each time an interval
// boundary is crossed.
func (p *ProgressReporter) Update(rows int64) {
	oldRow := p.currentRow
	p.currentRow += rows

	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		pct := float64(p.currentRow) / float64(p.totalRows) * 100
		logging.Info().
			Str("output", p.output).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Generating sample")
	}
}

// Rows returns the number of rows reported so far.
func (p *ProgressReporter) Rows() int64 {
	return p.currentRow
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("output", p.output).
		Int64("rows", p.currentRow).
		Msg("Sample complete")
}
