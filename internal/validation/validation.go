package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
)

var validate = validator.New()

// ErrSearchQueryEmpty is returned when the search string is empty or whitespace-only.
var ErrSearchQueryEmpty = errors.New("search query is required")

// ErrSearchQueryTooLong is returned when the search string exceeds the maximum length.
var ErrSearchQueryTooLong = errors.New("search query too long")

// ErrSearchQueryInvalidChars is returned when the search string contains control characters.
var ErrSearchQueryInvalidChars = errors.New("search query contains invalid characters")

var (
	ErrLatitudeInvalid  = errors.New("latitude must be a number between -90 and 90")
	ErrLongitudeInvalid = errors.New("longitude must be a number between -180 and 180")
)

// SearchQuery checks a place-name parameter and returns it unchanged. The
// value is the location store key, so it is neither trimmed nor case folded.
// maxLen counts runes; zero disables the bound.
func SearchQuery(input string, maxLen int) (string, error) {
	if err := validate.Var(strings.TrimSpace(input), "required"); err != nil {
		return "", ErrSearchQueryEmpty
	}
	if maxLen > 0 {
		if err := validate.Var(input, fmt.Sprintf("max=%d", maxLen)); err != nil {
			return "", ErrSearchQueryTooLong
		}
	}
	for _, r := range input {
		if unicode.IsControl(r) {
			return "", ErrSearchQueryInvalidChars
		}
	}
	return input, nil
}

type coordinates struct {
	Latitude  string `validate:"required,latitude"`
	Longitude string `validate:"required,longitude"`
}

// Coordinates parses a latitude/longitude query pair into an orb.Point
// ([lon, lat]).
func Coordinates(latitude, longitude string) (orb.Point, error) {
	in := coordinates{
		Latitude:  strings.TrimSpace(latitude),
		Longitude: strings.TrimSpace(longitude),
	}
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Longitude" {
			return orb.Point{}, ErrLongitudeInvalid
		}
		return orb.Point{}, ErrLatitudeInvalid
	}

	lat, err := strconv.ParseFloat(in.Latitude, 64)
	if err != nil {
		return orb.Point{}, ErrLatitudeInvalid
	}
	lon, err := strconv.ParseFloat(in.Longitude, 64)
	if err != nil {
		return orb.Point{}, ErrLongitudeInvalid
	}
	return orb.Point{lon, lat}, nil
}
