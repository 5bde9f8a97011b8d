package models

// Data source tags reported in CityRecord.DataSource.
const (
	SourceRealTime = "real_time"
	SourceStatic   = "static"
)

// LastUpdatedStatic is the sentinel LastUpdated value for records that
// carry baseline data instead of a live reading.
const LastUpdatedStatic = "static_data"

// CityRecord is one city's air-quality snapshot as served by the API.
// Baseline records loaded from the static dataset carry City, Country,
// Lat, Lon and the static PM25; DataSource and LastUpdated are filled in
// on a per-request copy by the enrichment pass. The baseline itself is
// never mutated.
type CityRecord struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	PM25        float64 `json:"pm25"`
	DataSource  string  `json:"data_source,omitempty"`
	LastUpdated string  `json:"last_updated,omitempty"`
}
