package normalize

import "github.com/kjstillabower/city-explorer/internal/models"

type forecastPayload struct {
	Data *[]struct {
		Weather *struct {
			Description *string `json:"description"`
		} `json:"weather"`
		Datetime *string `json:"datetime"`
	} `json:"data"`
}

// Weather returns one WeatherRecord per forecast day in the payload.
func Weather(payload []byte) ([]models.WeatherRecord, error) {
	var p forecastPayload
	if err := decode("weather", payload, &p); err != nil {
		return nil, err
	}
	if p.Data == nil {
		return nil, malformed("weather", "data missing")
	}
	if len(*p.Data) == 0 {
		return nil, noMatch("weather")
	}

	out := make([]models.WeatherRecord, 0, len(*p.Data))
	for i, day := range *p.Data {
		if day.Weather == nil || day.Weather.Description == nil {
			return nil, malformed("weather", "data[%d].weather.description missing", i)
		}
		if day.Datetime == nil {
			return nil, malformed("weather", "data[%d].datetime missing", i)
		}
		out = append(out, models.WeatherRecord{
			Forecast: *day.Weather.Description,
			Time:     *day.Datetime,
		})
	}
	return out, nil
}
