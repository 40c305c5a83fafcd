package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pv_forecast/internal/geocode"
	"pv_forecast/internal/logger"
	"pv_forecast/internal/models"
)

type fakeSearcher struct {
	mu      sync.Mutex
	out     []geocode.Candidate
	err     error
	queries []string
	started chan struct{}
	release chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]geocode.Candidate, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.out, f.err
}

func TestGeocodeService_Search(t *testing.T) {
	want := []geocode.Candidate{{Name: "Torino", DisplayName: "Torino, Piemonte, Italia", Position: turin}}
	fs := &fakeSearcher{out: want}
	svc := NewGeocodeService(fs, logger.Nop())

	got, err := svc.Search(context.Background(), "  torino ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Position != turin {
		t.Fatalf("unexpected candidates %+v", got)
	}
	if fs.queries[0] != "torino" {
		t.Fatalf("expected trimmed query, got %q", fs.queries[0])
	}
}

func TestGeocodeService_NoResultsIsEmptyNotNil(t *testing.T) {
	svc := NewGeocodeService(&fakeSearcher{}, logger.Nop())

	got, err := svc.Search(context.Background(), "atlantis")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
}

func TestGeocodeService_QueryValidation(t *testing.T) {
	fs := &fakeSearcher{}
	svc := NewGeocodeService(fs, logger.Nop())

	for _, q := range []string{"", "   ", "x"} {
		if _, err := svc.Search(context.Background(), q); !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("query %q: expected ErrInvalidQuery, got %v", q, err)
		}
	}
	if len(fs.queries) != 0 {
		t.Fatalf("invalid queries must not reach the backend")
	}
}

func TestGeocodeService_BackendError(t *testing.T) {
	fs := &fakeSearcher{err: geocode.ErrUnavailable}
	svc := NewGeocodeService(fs, logger.Nop())

	if _, err := svc.Search(context.Background(), "milano"); !errors.Is(err, geocode.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGeocodeService_SingleSearchInFlight(t *testing.T) {
	fs := &fakeSearcher{
		out:     []geocode.Candidate{{Position: models.Position{Latitude: 1, Longitude: 2}}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewGeocodeService(fs, logger.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Search(context.Background(), "roma")
		done <- err
	}()
	<-fs.started

	if _, err := svc.Search(context.Background(), "napoli"); !errors.Is(err, ErrSearchInProgress) {
		t.Fatalf("expected ErrSearchInProgress, got %v", err)
	}
	close(fs.release)
	if err := <-done; err != nil {
		t.Fatalf("first search: %v", err)
	}
}
