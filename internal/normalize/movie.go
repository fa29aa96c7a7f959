package normalize

import (
	"time"

	"github.com/kjstillabower/city-explorer/internal/models"
)

type moviePayload struct {
	Results *[]struct {
		Title       *string `json:"title"`
		Overview    string  `json:"overview"`
		VoteAverage float64 `json:"vote_average"`
		VoteCount   int     `json:"vote_count"`
		PosterPath  *string `json:"poster_path"`
		Popularity  float64 `json:"popularity"`
		ReleaseDate string  `json:"release_date"`
	} `json:"results"`
}

// Movies returns one MovieRecord per search result. A null poster_path leaves
// image_url as the bare PosterBaseURL rather than dropping the field.
func Movies(payload []byte, now time.Time) ([]models.MovieRecord, error) {
	var p moviePayload
	if err := decode("movies", payload, &p); err != nil {
		return nil, err
	}
	if p.Results == nil {
		return nil, malformed("movies", "results missing")
	}
	if len(*p.Results) == 0 {
		return nil, noMatch("movies")
	}

	createdAt := millis(now)
	out := make([]models.MovieRecord, 0, len(*p.Results))
	for i, m := range *p.Results {
		if m.Title == nil {
			return nil, malformed("movies", "results[%d].title missing", i)
		}
		out = append(out, models.MovieRecord{
			Title:        *m.Title,
			Overview:     m.Overview,
			AverageVotes: m.VoteAverage,
			TotalVotes:   m.VoteCount,
			ImageURL:     PosterURL(m.PosterPath),
			Popularity:   m.Popularity,
			ReleasedOn:   m.ReleaseDate,
			CreatedAt:    createdAt,
		})
	}
	return out, nil
}

// PosterURL joins PosterBaseURL and the fragment; nil fragment gives the base.
func PosterURL(fragment *string) string {
	if fragment == nil {
		return PosterBaseURL
	}
	return PosterBaseURL + *fragment
}
