package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/crime-score-map/internal/domain"
)

// scoreColumns is the header of the scored CSV, in output order.
var scoreColumns = []string{
	"state", "district", "total_crimes", "crime_probability", "district_score", "normalized_score",
}

// ScoreFile reads and writes the scored CSV at one path.
// It implements pipeline.ScoreLoader and pipeline.ScoreReader.
type ScoreFile struct {
	path string
}

// NewScoreFile creates a ScoreFile for path.
func NewScoreFile(path string) *ScoreFile {
	return &ScoreFile{path: path}
}

// Path returns the file location.
func (s *ScoreFile) Path() string { return s.path }

// LoadScores writes rows to the file, replacing it atomically.
func (s *ScoreFile) LoadScores(_ context.Context, rows []domain.ScoredDistrict) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".scores-*.csv")
	if err != nil {
		return fmt.Errorf("create scored csv: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := encodeScores(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close scored csv: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace scored csv: %w", err)
	}
	return nil
}

func encodeScores(w io.Writer, rows []domain.ScoredDistrict) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(domain.ScoredDistrict{}); err != nil {
		return fmt.Errorf("encode scored csv header: %w", err)
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return fmt.Errorf("encode scored row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write scored csv: %w", err)
	}
	return nil
}

// ReadScores loads every row of the scored CSV. Failures wrap domain.ErrDataLoad.
func (s *ScoreFile) ReadScores(_ context.Context) ([]domain.ScoredDistrict, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataLoad, err)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrDataLoad, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header of %s: %w", domain.ErrDataLoad, s.path, err)
	}
	for _, col := range scoreColumns {
		if !slices.Contains(dec.Header(), col) {
			return nil, fmt.Errorf("%w: %s is missing column %q", domain.ErrDataLoad, s.path, col)
		}
	}

	var rows []domain.ScoredDistrict
	for {
		var row domain.ScoredDistrict
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrDataLoad, s.path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
