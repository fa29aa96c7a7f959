package normalize

import (
	"fmt"
	"time"

	"github.com/kjstillabower/city-explorer/internal/models"
)

// conditionDate looks like "2019-05-15 08:41:13"; the time part is read from
// offset 12.
const (
	conditionDateLen    = 10
	conditionTimeOffset = 12
)

type trailPayload struct {
	Trails *[]struct {
		Name             *string `json:"name"`
		Location         string  `json:"location"`
		Length           float64 `json:"length"`
		Stars            float64 `json:"stars"`
		StarVotes        int     `json:"starVotes"`
		Summary          string  `json:"summary"`
		URL              string  `json:"url"`
		ConditionDetails string  `json:"conditionDetails"`
		ConditionDate    *string `json:"conditionDate"`
	} `json:"trails"`
}

// Trails returns one TrailRecord per trail, splitting conditionDate into its
// date and time parts.
func Trails(payload []byte, now time.Time) ([]models.TrailRecord, error) {
	var p trailPayload
	if err := decode("trails", payload, &p); err != nil {
		return nil, err
	}
	if p.Trails == nil {
		return nil, malformed("trails", "trails missing")
	}
	if len(*p.Trails) == 0 {
		return nil, noMatch("trails")
	}

	createdAt := millis(now)
	out := make([]models.TrailRecord, 0, len(*p.Trails))
	for i, t := range *p.Trails {
		if t.Name == nil {
			return nil, malformed("trails", "trails[%d].name missing", i)
		}
		if t.ConditionDate == nil {
			return nil, malformed("trails", "trails[%d].conditionDate missing", i)
		}
		date, clock, err := SplitConditionDate(*t.ConditionDate)
		if err != nil {
			return nil, fmt.Errorf("trails[%d]: %w", i, err)
		}
		out = append(out, models.TrailRecord{
			Name:          *t.Name,
			Location:      t.Location,
			Length:        t.Length,
			Stars:         t.Stars,
			StarVotes:     t.StarVotes,
			Summary:       t.Summary,
			TrailURL:      t.URL,
			Conditions:    t.ConditionDetails,
			ConditionDate: date,
			ConditionTime: clock,
			CreatedAt:     createdAt,
		})
	}
	return out, nil
}

// SplitConditionDate returns s[:10] and s[12:]. Values shorter than 12 bytes
// are rejected instead of truncated.
func SplitConditionDate(s string) (date, clock string, err error) {
	if len(s) < conditionTimeOffset {
		return "", "", malformed("trails", "conditionDate %q shorter than %d characters", s, conditionTimeOffset)
	}
	return s[:conditionDateLen], s[conditionTimeOffset:], nil
}
