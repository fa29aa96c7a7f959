package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func TestSearchQuery_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tab", "\t"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SearchQuery(tc.input, 100)
			if !errors.Is(err, ErrSearchQueryEmpty) {
				t.Errorf("error = %v, want ErrSearchQueryEmpty", err)
			}
		})
	}
}

func TestSearchQuery_TooLong(t *testing.T) {
	_, err := SearchQuery(strings.Repeat("a", 101), 100)
	if !errors.Is(err, ErrSearchQueryTooLong) {
		t.Errorf("error = %v, want ErrSearchQueryTooLong", err)
	}
	// Length counts runes, not bytes.
	if _, err := SearchQuery(strings.Repeat("ü", 100), 100); err != nil {
		t.Errorf("100 runes error = %v, want nil", err)
	}
}

func TestSearchQuery_InvalidChars(t *testing.T) {
	for _, in := range []string{"sea\x00ttle", "sea\nttle", "sea\x7fttle"} {
		if _, err := SearchQuery(in, 100); !errors.Is(err, ErrSearchQueryInvalidChars) {
			t.Errorf("SearchQuery(%q) error = %v, want ErrSearchQueryInvalidChars", in, err)
		}
	}
}

// TestSearchQuery_Verbatim verifies that accepted search strings come back
// byte-for-byte, since they are used as store keys.
func TestSearchQuery_Verbatim(t *testing.T) {
	tests := []string{"Seattle", "seattle", "New York", "  Boston  ", "Zürich", "St. John's", "a/b?c&d"}
	for _, in := range tests {
		got, err := SearchQuery(in, 100)
		if err != nil {
			t.Errorf("SearchQuery(%q) error = %v", in, err)
			continue
		}
		if got != in {
			t.Errorf("SearchQuery(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     string
		lon     string
		want    orb.Point
		wantErr error
	}{
		{"seattle", "47.6062", "-122.3321", orb.Point{-122.3321, 47.6062}, nil},
		{"integers", "0", "0", orb.Point{0, 0}, nil},
		{"bounds", "-90", "180", orb.Point{180, -90}, nil},
		{"padded", " 47.6 ", " -122.3 ", orb.Point{-122.3, 47.6}, nil},
		{"missing latitude", "", "-122.3", orb.Point{}, ErrLatitudeInvalid},
		{"missing longitude", "47.6", "", orb.Point{}, ErrLongitudeInvalid},
		{"latitude out of range", "91", "0", orb.Point{}, ErrLatitudeInvalid},
		{"longitude out of range", "0", "181", orb.Point{}, ErrLongitudeInvalid},
		{"latitude not a number", "north", "0", orb.Point{}, ErrLatitudeInvalid},
		{"longitude not a number", "0", "west", orb.Point{}, ErrLongitudeInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Coordinates(tc.lat, tc.lon)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("Coordinates() = %v, want %v", got, tc.want)
			}
			if got.Lat() != tc.want.Lat() {
				t.Errorf("Lat() = %v, want %v", got.Lat(), tc.want.Lat())
			}
		})
	}
}
