package normalize

import (
	"time"

	"github.com/kjstillabower/city-explorer/internal/models"
)

type businessPayload struct {
	Businesses *[]struct {
		Name     *string `json:"name"`
		ImageURL string  `json:"image_url"`
		Price    string  `json:"price"`
		Rating   float64 `json:"rating"`
		URL      string  `json:"url"`
	} `json:"businesses"`
}

// Reviews returns one ReviewRecord per business. Optional fields default to
// their zero value; created_at is now.
func Reviews(payload []byte, now time.Time) ([]models.ReviewRecord, error) {
	var p businessPayload
	if err := decode("reviews", payload, &p); err != nil {
		return nil, err
	}
	if p.Businesses == nil {
		return nil, malformed("reviews", "businesses missing")
	}
	if len(*p.Businesses) == 0 {
		return nil, noMatch("reviews")
	}

	createdAt := millis(now)
	out := make([]models.ReviewRecord, 0, len(*p.Businesses))
	for i, b := range *p.Businesses {
		if b.Name == nil {
			return nil, malformed("reviews", "businesses[%d].name missing", i)
		}
		out = append(out, models.ReviewRecord{
			Name:      *b.Name,
			ImageURL:  b.ImageURL,
			Price:     b.Price,
			Rating:    b.Rating,
			URL:       b.URL,
			CreatedAt: createdAt,
		})
	}
	return out, nil
}
