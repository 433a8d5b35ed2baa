package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/crime-score-map/internal/domain"
)

// Columns names the identifying columns of the raw dataset.
type Columns struct {
	State    string
	District string
	Total    string
}

// RecordReader loads crime records from a raw district-wise CSV.
// It implements pipeline.RecordExtractor.
type RecordReader struct {
	path       string
	columns    Columns
	categories []string
	logger     *slog.Logger
}

// NewRecordReader creates a reader for path. Only the listed categories are
// read from each row; other columns are ignored.
func NewRecordReader(path string, columns Columns, categories []string, logger *slog.Logger) *RecordReader {
	return &RecordReader{
		path:       path,
		columns:    columns,
		categories: categories,
		logger:     logger,
	}
}

// ExtractRecords reads every data row. Any problem with the file is returned
// wrapped in domain.ErrDataLoad.
func (r *RecordReader) ExtractRecords(ctx context.Context) ([]domain.CrimeRecord, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataLoad, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrDataLoad, r.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header of %s: %w", domain.ErrDataLoad, r.path, err)
	}

	colIdx := indexHeader(header)
	stateCol, districtCol, totalCol, err := r.requiredColumns(colIdx)
	if err != nil {
		return nil, err
	}

	categoryCols := make(map[string]int, len(r.categories))
	for _, c := range r.categories {
		idx, ok := colIdx[c]
		if !ok {
			r.logger.Warn("category column missing from input, counting as zero", "category", c, "file", r.path)
			continue
		}
		categoryCols[c] = idx
	}

	var records []domain.CrimeRecord //nolint:prealloc // size depends on CSV file contents
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrDataLoad, r.path, err)
		}
		line, _ := reader.FieldPos(0)

		total, err := parseCount(row[totalCol])
		if err != nil {
			return nil, r.cellError(line, r.columns.Total, err)
		}

		counts := make(map[string]float64, len(categoryCols))
		for name, idx := range categoryCols {
			v, err := parseCount(row[idx])
			if err != nil {
				return nil, r.cellError(line, name, err)
			}
			counts[name] = v
		}

		records = append(records, domain.CrimeRecord{
			State:       strings.TrimSpace(row[stateCol]),
			District:    strings.TrimSpace(row[districtCol]),
			Counts:      counts,
			TotalCrimes: total,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no data rows", domain.ErrDataLoad, r.path)
	}
	return records, nil
}

func (r *RecordReader) requiredColumns(colIdx map[string]int) (state, district, total int, err error) {
	var missing []string
	lookup := func(name string) int {
		idx, ok := colIdx[name]
		if !ok {
			missing = append(missing, strconv.Quote(name))
		}
		return idx
	}
	state = lookup(r.columns.State)
	district = lookup(r.columns.District)
	total = lookup(r.columns.Total)
	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("%w: %s is missing required columns %s",
			domain.ErrDataLoad, r.path, strings.Join(missing, ", "))
	}
	return state, district, total, nil
}

func (r *RecordReader) cellError(line int, column string, err error) error {
	return fmt.Errorf("%w: %s line %d column %q: %w", domain.ErrDataLoad, r.path, line, column, err)
}

// indexHeader maps trimmed header names to column positions. A UTF-8 byte
// order mark on the first column is dropped.
func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

// parseCount parses a non-negative count. Blank cells are zero.
func parseCount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative count: %q", s)
	}
	return v, nil
}
