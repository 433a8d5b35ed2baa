package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/couchcryptid/crime-score-map/internal/domain"
)

// Tables holds the crime weights and reference points used for one run.
type Tables struct {
	Weights    domain.WeightTable
	References domain.ReferenceTable
}

// tablesFile is the YAML layout. Both sections are lists so that category
// names may contain the koanf key delimiter and reference order is kept.
//
//	weights:
//	  - category: Rape
//	    weight: 20
//	reference_points:
//	  - name: Central
//	    lat: 28.68
//	    lon: 77.22
type tablesFile struct {
	Weights []struct {
		Category string  `koanf:"category"`
		Weight   float64 `koanf:"weight"`
	} `koanf:"weights"`
	ReferencePoints []struct {
		Name string  `koanf:"name"`
		Lat  float64 `koanf:"lat"`
		Lon  float64 `koanf:"lon"`
	} `koanf:"reference_points"`
}

// DefaultTables returns the built-in NCRB weights and Delhi reference points.
func DefaultTables() Tables {
	return Tables{
		Weights:    domain.DefaultWeights(),
		References: domain.DefaultReferenceTable(),
	}
}

// LoadTables reads a YAML tables file. An empty path returns DefaultTables.
// A section missing from the file keeps its default.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Tables{}, fmt.Errorf("load tables file %s: %w", path, err)
	}

	var tf tablesFile
	if err := k.Unmarshal("", &tf); err != nil {
		return Tables{}, fmt.Errorf("decode tables file %s: %w", path, err)
	}

	if k.Exists("weights") {
		tables.Weights = make(domain.WeightTable, len(tf.Weights))
		for _, w := range tf.Weights {
			if w.Category == "" {
				return Tables{}, fmt.Errorf("tables file %s: weight without a category", path)
			}
			if _, dup := tables.Weights[w.Category]; dup {
				return Tables{}, fmt.Errorf("tables file %s: duplicate weight for %q", path, w.Category)
			}
			tables.Weights[w.Category] = w.Weight
		}
	}
	if k.Exists("reference_points") {
		tables.References = make(domain.ReferenceTable, 0, len(tf.ReferencePoints))
		for _, rp := range tf.ReferencePoints {
			tables.References = append(tables.References, domain.ReferencePoint{
				Name:  rp.Name,
				Point: domain.NewPoint(rp.Lat, rp.Lon),
			})
		}
	}

	if err := tables.Weights.Validate(); err != nil {
		return Tables{}, fmt.Errorf("tables file %s: %w", path, err)
	}
	if err := tables.References.Validate(); err != nil {
		return Tables{}, fmt.Errorf("tables file %s: %w", path, err)
	}
	return tables, nil
}
