package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/standings-engine/handlers"
	"github.com/Dosada05/standings-engine/live"
	"github.com/Dosada05/standings-engine/models"
	"github.com/Dosada05/standings-engine/services"
)

var testSecret = []byte("routes-test-secret")

type standingsStub struct{ recomputed []int }

func (s *standingsStub) Recompute(_ context.Context, id int) (*services.RecomputeReport, error) {
	s.recomputed = append(s.recomputed, id)
	return &services.RecomputeReport{TournamentID: id}, nil
}

func (s *standingsStub) Estimate(_ context.Context, id int) (*services.StandingsView, error) {
	return &services.StandingsView{TournamentID: id, Mode: "estimate"}, nil
}

func (s *standingsStub) RecomputeStale(context.Context) (*services.SweepReport, error) {
	return &services.SweepReport{}, nil
}

type payoutsStub struct{}

func (payoutsStub) Get(context.Context, int) (*models.PayoutStructure, error) {
	return &models.PayoutStructure{}, nil
}

func (payoutsStub) Generate(context.Context, int, services.GeneratePayoutInput) (*models.PayoutStructure, error) {
	return &models.PayoutStructure{}, nil
}

func (payoutsStub) SaveManual(context.Context, int, services.SaveManualPayoutInput) (*models.PayoutStructure, error) {
	return &models.PayoutStructure{}, nil
}

func (payoutsStub) RemovePlace(context.Context, int, int, int) (*models.PayoutStructure, error) {
	return &models.PayoutStructure{}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *standingsStub) {
	t.Helper()
	st := &standingsStub{}
	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Standings: handlers.NewStandingsHandler(st),
		Payouts:   handlers.NewPayoutHandler(payoutsStub{}),
		WebSocket: handlers.NewWebSocketHandler(live.NewHub(nil), nil, nil),
		Health:    handlers.NewHealthHandler(nil),
	}, Options{
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"https://app.example"},
		RequestTimeout: 5 * time.Second,
	})
	return router, st
}

func tokenFor(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 12,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func TestRouteAccess(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		role   string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", "", "", http.StatusOK},
		{"public standings", http.MethodGet, "/tournaments/4/standings", "", "", http.StatusOK},
		{"public payouts", http.MethodGet, "/tournaments/4/payouts", "", "", http.StatusOK},
		{"recompute anonymous", http.MethodPost, "/tournaments/4/standings/recompute", "", "", http.StatusUnauthorized},
		{"recompute player", http.MethodPost, "/tournaments/4/standings/recompute", "", "player", http.StatusForbidden},
		{"recompute organizer", http.MethodPost, "/tournaments/4/standings/recompute", "", "organizer", http.StatusOK},
		{"generate admin", http.MethodPost, "/tournaments/4/payouts/generate", `{"payout_places": 1}`, "admin", http.StatusOK},
		{"save anonymous", http.MethodPut, "/tournaments/4/payouts", `{"payouts": []}`, "", http.StatusUnauthorized},
		{"remove place organizer", http.MethodDelete, "/tournaments/4/payouts/places/1", "", "organizer", http.StatusOK},
		{"unknown route", http.MethodGet, "/players", "", "", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := newTestRouter(t)
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.role != "" {
				req.Header.Set("Authorization", "Bearer "+tokenFor(t, tc.role))
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRecomputeReachesService(t *testing.T) {
	router, st := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/tournaments/15/standings/recompute", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "admin"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{15}, st.recomputed)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/tournaments/4/payouts", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
