package weather

import (
	"context"
	"math"
)

type Provider interface {
	Get(ctx context.Context, city string) (*Report, error)
}

// Report is the weather summary shown for a city. Pressure is in mmHg.
type Report struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Weather     string  `json:"weather"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Pressure    float64 `json:"pressure"`
	Mocked      bool    `json:"-"`
}

// Mock is the report served whenever the provider cannot answer.
func Mock(city string) Report {
	return Report{
		City:        city,
		Temperature: 20,
		FeelsLike:   18,
		Weather:     "ясно",
		Humidity:    65,
		WindSpeed:   3.5,
		Pressure:    760,
		Mocked:      true,
	}
}

const hPaToMmHg = 0.75006

// HPaToMmHg converts hectopascals to millimetres of mercury, rounded to
// two decimals.
func HPaToMmHg(hpa float64) float64 {
	return math.Round(hpa*hPaToMmHg*100) / 100
}
