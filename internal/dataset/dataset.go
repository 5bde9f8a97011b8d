package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/skywash/skywash-api/internal/models"
)

// Dataset holds the immutable baseline city records loaded once at
// startup. Enrichment works on copies; the baseline is never mutated.
type Dataset struct {
	records []models.CityRecord
}

// Load reads the static city dataset from a JSON file: an array of
// records with city, country, coordinates and baseline pm25.
func Load(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cities file: %w", err)
	}

	var records []models.CityRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse cities file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("cities file %s contains no records", path)
	}
	for i, rec := range records {
		if rec.City == "" {
			return nil, fmt.Errorf("cities file %s: record %d has no city name", path, i)
		}
	}
	return &Dataset{records: records}, nil
}

// Records returns a fresh copy of the baseline records, in dataset order.
// Callers own the copy and may mutate it freely.
func (d *Dataset) Records() []models.CityRecord {
	out := make([]models.CityRecord, len(d.records))
	copy(out, d.records)
	return out
}

// Len returns the number of cities in the dataset.
func (d *Dataset) Len() int {
	return len(d.records)
}
