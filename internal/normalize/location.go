package normalize

import (
	"encoding/json"

	"github.com/kjstillabower/city-explorer/internal/models"
)

type geocodeResult struct {
	DisplayName *string         `json:"display_name"`
	Lat         json.RawMessage `json:"lat"`
	Lon         json.RawMessage `json:"lon"`
}

// Location builds a LocationRecord for searchQuery from the first entry of a
// geocoding response array.
func Location(searchQuery string, payload []byte) (models.LocationRecord, error) {
	var results []geocodeResult
	if err := decode("location", payload, &results); err != nil {
		return models.LocationRecord{}, err
	}
	if results == nil {
		return models.LocationRecord{}, malformed("location", "expected result array")
	}
	if len(results) == 0 {
		return models.LocationRecord{}, noMatch("location")
	}

	first := results[0]
	if first.DisplayName == nil {
		return models.LocationRecord{}, malformed("location", "display_name missing")
	}
	lat, ok := coordText(first.Lat)
	if !ok {
		return models.LocationRecord{}, malformed("location", "lat missing or not a string/number")
	}
	lon, ok := coordText(first.Lon)
	if !ok {
		return models.LocationRecord{}, malformed("location", "lon missing or not a string/number")
	}

	return models.LocationRecord{
		SearchQuery:    searchQuery,
		FormattedQuery: *first.DisplayName,
		Latitude:       lat,
		Longitude:      lon,
	}, nil
}
