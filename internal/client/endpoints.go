package client

import "net/url"

// Resource names one of the aggregated data types.
type Resource string

const (
	ResourceLocation Resource = "location"
	ResourceWeather  Resource = "weather"
	ResourceReviews  Resource = "reviews"
	ResourceMovies   Resource = "movies"
	ResourceTrails   Resource = "trails"
)

// Default provider base URLs.
const (
	DefaultLocationURL = "https://us1.locationiq.com/v1/search.php"
	DefaultWeatherURL  = "http://api.weatherbit.io/v2.0/forecast/daily"
	DefaultReviewsURL  = "https://api.yelp.com/v3/businesses/search"
	DefaultMoviesURL   = "https://api.themoviedb.org/3/search/movie"
	DefaultTrailsURL   = "https://www.hikingproject.com/data/get-trails"
)

// ForecastDays is how many daily forecasts are requested.
const ForecastDays = "5"

// AuthStyle selects how the provider credential travels.
type AuthStyle int

const (
	// AuthQueryParam sends the key as the query parameter named by Auth.Param.
	AuthQueryParam AuthStyle = iota
	// AuthBearer sends "Authorization: Bearer <key>".
	AuthBearer
)

type Auth struct {
	Style AuthStyle
	Param string
	Key   string
}

// Endpoint describes one provider: where it lives, the query parameters sent
// on every call, and its credential.
type Endpoint struct {
	Resource Resource
	BaseURL  string
	Fixed    url.Values
	Auth     Auth
}

func LocationEndpoint(baseURL, key string) Endpoint {
	return Endpoint{
		Resource: ResourceLocation,
		BaseURL:  orDefault(baseURL, DefaultLocationURL),
		Fixed:    url.Values{"format": {"json"}, "limit": {"1"}},
		Auth:     Auth{Style: AuthQueryParam, Param: "key", Key: key},
	}
}

func WeatherEndpoint(baseURL, key string) Endpoint {
	return Endpoint{
		Resource: ResourceWeather,
		BaseURL:  orDefault(baseURL, DefaultWeatherURL),
		Fixed:    url.Values{"lang": {"en"}, "days": {ForecastDays}},
		Auth:     Auth{Style: AuthQueryParam, Param: "key", Key: key},
	}
}

func ReviewsEndpoint(baseURL, key string) Endpoint {
	return Endpoint{
		Resource: ResourceReviews,
		BaseURL:  orDefault(baseURL, DefaultReviewsURL),
		Auth:     Auth{Style: AuthBearer, Key: key},
	}
}

func MoviesEndpoint(baseURL, key string) Endpoint {
	return Endpoint{
		Resource: ResourceMovies,
		BaseURL:  orDefault(baseURL, DefaultMoviesURL),
		Fixed:    url.Values{"language": {"en-US"}, "page": {"1"}},
		Auth:     Auth{Style: AuthQueryParam, Param: "api_key", Key: key},
	}
}

func TrailsEndpoint(baseURL, key string) Endpoint {
	return Endpoint{
		Resource: ResourceTrails,
		BaseURL:  orDefault(baseURL, DefaultTrailsURL),
		Fixed:    url.Values{"maxDistance": {"200"}},
		Auth:     Auth{Style: AuthQueryParam, Param: "key", Key: key},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
