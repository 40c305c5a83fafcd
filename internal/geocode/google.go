package geocode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"pv_forecast/internal/models"
)

// Google resolves addresses through the Google Maps geocoding API. It yields
// at most one candidate per query.
type Google struct {
	circuit *gobreaker.CircuitBreaker
}

// NewGoogle sets the package-level API key used by kelvins/geocoder.
func NewGoogle(apiKey string) *Google {
	geocoder.ApiKey = apiKey

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "google-geocoding",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
	})
	return &Google{circuit: cb}
}

func (g *Google) Search(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := g.circuit.Execute(func() (interface{}, error) {
		return geocoder.Geocoding(geocoder.Address{Street: query})
	})
	if err != nil {
		// the library reports no-result and transport failures alike
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	loc, ok := result.(geocoder.Location)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	pos := models.Position{Latitude: loc.Latitude, Longitude: loc.Longitude}
	if err := pos.Validate(); err != nil {
		return []Candidate{}, nil
	}

	display := query
	if addrs, err := geocoder.GeocodingReverse(loc); err == nil && len(addrs) > 0 {
		if formatted := addrs[0].FormatAddress(); formatted != "" {
			display = formatted
		}
	}
	return []Candidate{newCandidate("", display, pos)}, nil
}
