package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pv_forecast/internal/config"
	"pv_forecast/internal/models"
)

// Display limits for candidate labels, in runes.
const (
	DetailMaxRunes = 60
	LabelMaxRunes  = 80
)

var (
	ErrEmptyQuery  = errors.New("empty search query")
	ErrUnavailable = errors.New("geocoding service unavailable")
)

// Candidate is one search hit. Only Position and DisplayName feed the site
// state machine; Name and Detail are for the result list.
type Candidate struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Detail      string          `json:"detail"`
	Position    models.Position `json:"position"`
}

// Searcher resolves a free-text address to ordered candidates.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// New returns the backend selected by cfg.Provider.
func New(cfg config.GeocoderConfig, client *http.Client) (Searcher, error) {
	switch cfg.Provider {
	case "", "nominatim":
		return NewNominatim(NominatimOptions{
			BaseURL:      cfg.BaseURL,
			CountryCodes: cfg.CountryCodes,
			UserAgent:    cfg.UserAgent,
			Limit:        cfg.Limit,
			RPS:          cfg.RPS,
		}, client), nil
	case "google":
		return NewGoogle(cfg.GoogleAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown geocoder provider %q", cfg.Provider)
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func newCandidate(name, displayName string, pos models.Position) Candidate {
	if name == "" {
		name, _, _ = strings.Cut(displayName, ",")
		name = strings.TrimSpace(name)
	}
	return Candidate{
		Name:        name,
		DisplayName: displayName,
		Detail:      Truncate(displayName, DetailMaxRunes),
		Position:    pos,
	}
}
