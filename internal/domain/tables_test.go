package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	require.NoError(t, w.Validate())
	assert.Len(t, w, 14)
	assert.Equal(t, 20.0, w["Rape"])
	assert.Equal(t, 0.0, w["Dowry Deaths"])
	for name, weight := range w {
		assert.GreaterOrEqual(t, weight, 0.0, name)
		assert.LessOrEqual(t, weight, 20.0, name)
	}
}

func TestWeightTable_Validate(t *testing.T) {
	require.Error(t, WeightTable{}.Validate())

	err := WeightTable{"A": 1, "B": -2}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"B"`)
}

func TestWeightTable_Categories(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, WeightTable{"C": 1, "A": 2, "B": 3}.Categories())
}

func TestDefaultReferenceTable(t *testing.T) {
	table := DefaultReferenceTable()
	require.NoError(t, table.Validate())
	assert.Len(t, table, 11)
	assert.Equal(t, "Central", table[0].Name)
	assert.Equal(t, 28.68, table[0].Point.Lat())
	assert.Equal(t, 77.22, table[0].Point.Lon())
}

func TestReferenceTable_Validate(t *testing.T) {
	tests := []struct {
		name  string
		table ReferenceTable
		err   string
	}{
		{"blank name", ReferenceTable{{Point: NewPoint(1, 1)}}, "no name"},
		{"duplicate", ReferenceTable{{Name: "A", Point: NewPoint(1, 1)}, {Name: "A", Point: NewPoint(2, 2)}}, "duplicate"},
		{"bad latitude", ReferenceTable{{Name: "A", Point: NewPoint(91, 1)}}, "invalid coordinate"},
		{"bad longitude", ReferenceTable{{Name: "A", Point: NewPoint(1, -181)}}, "invalid coordinate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
	assert.NoError(t, ReferenceTable{}.Validate())
}

func TestReferenceTable_Bound(t *testing.T) {
	b := DefaultReferenceTable().Bound()
	assert.Equal(t, 28.49, b.Min.Lat())
	assert.Equal(t, 28.75, b.Max.Lat())
	assert.Equal(t, 76.98, b.Min.Lon())
	assert.Equal(t, 77.30, b.Max.Lon())
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(-90, 180))
	assert.True(t, ValidCoordinate(12.9716, 77.5946))
	assert.False(t, ValidCoordinate(90.01, 0))
	assert.False(t, ValidCoordinate(0, -180.5))
}
