package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"pv_forecast/internal/geocode"
	"pv_forecast/internal/logger"
)

var (
	ErrSearchInProgress = errors.New("an address search is already in progress")
	ErrInvalidQuery     = errors.New("search query must be 2 to 200 characters")
)

var validate = validator.New()

type searchQuery struct {
	Query string `validate:"required,min=2,max=200"`
}

// GeocodeService runs at most one address search at a time.
type GeocodeService struct {
	searcher geocode.Searcher
	log      *logger.Logger
	inFlight atomic.Bool
}

func NewGeocodeService(searcher geocode.Searcher, log *logger.Logger) *GeocodeService {
	return &GeocodeService{searcher: searcher, log: log}
}

// Search returns the candidates for query in backend order. An empty slice
// means no match.
func (s *GeocodeService) Search(ctx context.Context, query string) ([]geocode.Candidate, error) {
	q := searchQuery{Query: strings.TrimSpace(query)}
	if err := validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSearchInProgress
	}
	defer s.inFlight.Store(false)

	out, err := s.searcher.Search(ctx, q.Query)
	if err != nil {
		s.log.Warnw("geocode_search_failed", "err", err, "query", q.Query)
		return nil, err
	}
	if out == nil {
		out = []geocode.Candidate{}
	}
	s.log.Debugw("geocode_search", "query", q.Query, "results", len(out))
	return out, nil
}
