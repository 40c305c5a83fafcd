package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"pv_forecast/internal/geocode"
	"pv_forecast/internal/models"
	"pv_forecast/internal/service"
)

func TestGeocodeHandlers_Search(t *testing.T) {
	geo := &mockGeocode{results: []geocode.Candidate{
		{Name: "Torino", DisplayName: "Torino, Piemonte, Italia", Detail: "Torino, Piemonte, Italia", Position: turin},
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Geocode: geo}
	r := newTestRouter(s)

	w := doJSON(t, r, http.MethodGet, "/api/v1/geocode/search?q="+url.QueryEscape("via roma, torino"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("search status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count   int                 `json:"count"`
		Results []geocode.Candidate `json:"results"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 1 || out.Results[0].Position != turin {
		t.Fatalf("unexpected results: %+v", out)
	}
	if geo.lastQuery != "via roma, torino" {
		t.Fatalf("query not forwarded: %q", geo.lastQuery)
	}
}

func TestGeocodeHandlers_SearchErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: too short", service.ErrInvalidQuery), http.StatusBadRequest},
		{service.ErrSearchInProgress, http.StatusConflict},
		{fmt.Errorf("%w: status 503", geocode.ErrUnavailable), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		s := &service.Service{Authorization: &mockAuth{parseID: 1}, Geocode: &mockGeocode{err: tc.err}}
		r := newTestRouter(s)

		w := doJSON(t, r, http.MethodGet, "/api/v1/geocode/search?q=x", "")
		if w.Code != tc.code {
			t.Fatalf("%v: got %d, want %d", tc.err, w.Code, tc.code)
		}
	}
}

func TestGeocodeHandlers_SelectProposesCandidate(t *testing.T) {
	cand := turin
	st := &mockSite{state: models.SiteState{
		Status:         models.StatusPendingConfirmation,
		Confirmed:      milan,
		Candidate:      &cand,
		CandidateLabel: "Torino",
		Marker:         turin,
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Site: st}
	r := newTestRouter(s)

	long := strings.Repeat("a", 120)
	w := doJSON(t, r, http.MethodPost, "/api/v1/geocode/select", `{"lat":45.0703,"lon":7.6869,"label":"`+long+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("select status=%d, body=%s", w.Code, w.Body.String())
	}
	resp := decodeState(t, w)
	if resp.Status != statusProposed || !resp.State.Pending() {
		t.Fatalf("expected pending state, got %+v", resp)
	}
	if len(st.calls) != 1 || st.calls[0] != "select" {
		t.Fatalf("expected a single select call, got %v", st.calls)
	}
	if st.lastPos != turin {
		t.Fatalf("position not forwarded: %v", st.lastPos)
	}
	if len([]rune(st.lastLabel)) != geocode.LabelMaxRunes {
		t.Fatalf("label not truncated: %d runes", len([]rune(st.lastLabel)))
	}
}
