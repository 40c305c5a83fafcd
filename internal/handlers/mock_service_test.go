package handlers

import (
	"context"
	"net/http"
	"time"

	"pv_forecast/internal/forecast"
	"pv_forecast/internal/geocode"
	"pv_forecast/internal/models"
	"pv_forecast/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockSite returns state for every command, or err when set.
type mockSite struct {
	state models.SiteState
	err   error

	lastPos   models.Position
	lastLabel string
	calls     []string
}

func (m *mockSite) State() models.SiteState    { return m.state }
func (m *mockSite) Confirmed() models.Position { return m.state.Confirmed }

func (m *mockSite) OnDragEnd(ctx context.Context, p models.Position) (models.SiteState, error) {
	m.calls = append(m.calls, "drag")
	m.lastPos = p
	return m.state, m.err
}
func (m *mockSite) OnGeocodeSelect(ctx context.Context, p models.Position, label string) (models.SiteState, error) {
	m.calls = append(m.calls, "select")
	m.lastPos = p
	m.lastLabel = label
	return m.state, m.err
}
func (m *mockSite) OnConfirm(ctx context.Context) (models.SiteState, error) {
	m.calls = append(m.calls, "confirm")
	return m.state, m.err
}
func (m *mockSite) OnCancel(ctx context.Context) (models.SiteState, error) {
	m.calls = append(m.calls, "cancel")
	return m.state, m.err
}
func (m *mockSite) OnManualCoords(ctx context.Context, p models.Position) (models.SiteState, error) {
	m.calls = append(m.calls, "manual")
	m.lastPos = p
	return m.state, m.err
}

type mockForecast struct {
	view       service.View
	submitErr  error
	latestErr  error
	preview    service.LossPreview
	previewErr error
	inFlight   bool

	lastFields forecast.Fields
	submits    int
}

func (m *mockForecast) OnSubmit(ctx context.Context, f forecast.Fields) (service.View, error) {
	m.submits++
	m.lastFields = f
	return m.view, m.submitErr
}
func (m *mockForecast) Latest() (service.View, error) { return m.view, m.latestErr }
func (m *mockForecast) Preview(f forecast.Fields) (service.LossPreview, error) {
	m.lastFields = f
	return m.preview, m.previewErr
}
func (m *mockForecast) InFlight() bool { return m.inFlight }

type mockGeocode struct {
	results   []geocode.Candidate
	err       error
	lastQuery string
}

func (m *mockGeocode) Search(ctx context.Context, q string) ([]geocode.Candidate, error) {
	m.lastQuery = q
	return m.results, m.err
}

type mockEventLog struct {
	resp     []models.SiteEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SiteEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
