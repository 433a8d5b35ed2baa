package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crime-score-map/internal/domain"
)

func TestScoreFile_WriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scored.csv")
	rows := []domain.ScoredDistrict{
		{
			State:            "Delhi",
			District:         "Central",
			TotalCrimes:      7,
			CrimeProbability: domain.Share(7, 28),
			DistrictScore:    40,
			NormalizedScore:  domain.Share(40, 80),
		},
		{
			State:            "Lakshadweep",
			District:         "Lakshadweep",
			CrimeProbability: domain.Ratio{},
			NormalizedScore:  domain.Ratio{},
		},
	}

	f := NewScoreFile(path)
	require.NoError(t, f.LoadScores(context.Background(), rows))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "state,district,total_crimes,crime_probability,district_score,normalized_score", lines[0])
	assert.Equal(t, "Delhi,Central,7,0.25,40,0.5", lines[1])
	assert.Equal(t, "Lakshadweep,Lakshadweep,0,NA,0,NA", lines[2])

	got, err := f.ReadScores(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("ReadScores mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreFile_WriteEmptyKeepsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scored.csv")
	f := NewScoreFile(path)
	require.NoError(t, f.LoadScores(context.Background(), nil))

	got, err := f.ReadScores(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScoreFile_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scored.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	f := NewScoreFile(path)
	require.NoError(t, f.LoadScores(context.Background(), []domain.ScoredDistrict{{State: "Goa", District: "North Goa"}}))

	got, err := f.ReadScores(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "North Goa", got[0].District)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be gone")
}

func TestScoreFile_ReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "empty", content: "", want: "is empty"},
		{name: "missing column", content: "state,district,total_crimes\nDelhi,Central,7\n", want: `missing column "crime_probability"`},
		{
			name:    "bad ratio",
			content: "state,district,total_crimes,crime_probability,district_score,normalized_score\nDelhi,Central,7,lots,40,0.5\n",
			want:    "lots",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scored.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := NewScoreFile(path).ReadScores(context.Background())
			require.ErrorIs(t, err, domain.ErrDataLoad)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScoreFile_ReadMissing(t *testing.T) {
	_, err := NewScoreFile(filepath.Join(t.TempDir(), "nope.csv")).ReadScores(context.Background())
	assert.ErrorIs(t, err, domain.ErrDataLoad)
}
