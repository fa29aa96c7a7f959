package models

// LocationRecord is a geocoded search. SearchQuery is the literal string the
// caller sent and the store key; Latitude and Longitude keep the provider's
// textual form.
type LocationRecord struct {
	SearchQuery    string `json:"search_query"`
	FormattedQuery string `json:"formatted_query"`
	Latitude       string `json:"latitude"`
	Longitude      string `json:"longitude"`
}

// WeatherRecord is one forecast day. Time is YYYY-MM-DD.
type WeatherRecord struct {
	Forecast string `json:"forecast"`
	Time     string `json:"time"`
}

// ReviewRecord is one business match from the review provider.
type ReviewRecord struct {
	Name      string  `json:"name"`
	ImageURL  string  `json:"image_url"`
	Price     string  `json:"price"`
	Rating    float64 `json:"rating"`
	URL       string  `json:"url"`
	CreatedAt int64   `json:"created_at"` // unix millis at normalization
}

type MovieRecord struct {
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	AverageVotes float64 `json:"average_votes"`
	TotalVotes   int     `json:"total_votes"`
	ImageURL     string  `json:"image_url"`
	Popularity   float64 `json:"popularity"`
	ReleasedOn   string  `json:"released_on"`
	CreatedAt    int64   `json:"created_at"`
}

type TrailRecord struct {
	Name          string  `json:"name"`
	Location      string  `json:"location"`
	Length        float64 `json:"length"`
	Stars         float64 `json:"stars"`
	StarVotes     int     `json:"star_votes"`
	Summary       string  `json:"summary"`
	TrailURL      string  `json:"trail_url"`
	Conditions    string  `json:"conditions"`
	ConditionDate string  `json:"condition_date"`
	ConditionTime string  `json:"condition_time"`
	CreatedAt     int64   `json:"created_at"`
}
