package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"pv_forecast/internal/models"
)

type NominatimOptions struct {
	BaseURL      string
	CountryCodes string
	UserAgent    string
	Limit        int
	RPS          float64
}

// Nominatim queries an OpenStreetMap Nominatim search endpoint. Requests are
// rate limited to the public usage policy and guarded by a circuit breaker.
type Nominatim struct {
	opts    NominatimOptions
	client  *http.Client
	limiter *rate.Limiter
	circuit *gobreaker.CircuitBreaker
}

func NewNominatim(opts NominatimOptions, client *http.Client) *Nominatim {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	if opts.RPS <= 0 {
		opts.RPS = 1
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nominatim",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
	})

	return &Nominatim{
		opts:    opts,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RPS), 1),
		circuit: cb,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Search(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	result, err := n.circuit.Execute(func() (interface{}, error) {
		return n.fetch(ctx, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}

	places, ok := result.([]nominatimPlace)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}

	out := make([]Candidate, 0, len(places))
	for _, p := range places {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lon, errLon := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		pos := models.Position{Latitude: lat, Longitude: lon}
		if pos.Validate() != nil {
			continue
		}
		out = append(out, newCandidate(p.Name, p.DisplayName, pos))
	}
	return out, nil
}

func (n *Nominatim) fetch(ctx context.Context, query string) ([]nominatimPlace, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("format", "json")
	values.Set("limit", strconv.Itoa(n.opts.Limit))
	if n.opts.CountryCodes != "" {
		values.Set("countrycodes", n.opts.CountryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.opts.BaseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if n.opts.UserAgent != "" {
		req.Header.Set("User-Agent", n.opts.UserAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}
	return places, nil
}
