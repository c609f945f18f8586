package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/wealthflow-projection/internal/adapter/dto"
	"github.com/simaogato/wealthflow-projection/internal/adapter/repository/memory"
	"github.com/simaogato/wealthflow-projection/internal/domain"
	"github.com/simaogato/wealthflow-projection/internal/metrics"
	"github.com/simaogato/wealthflow-projection/internal/usecase/catalog"
	"github.com/simaogato/wealthflow-projection/internal/usecase/projection"
)

const testToken = "test-token"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo := memory.NewInstrumentRepository()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &domain.Instrument{
		ID: "IE00BK5BQT80", Name: "Vanguard FTSE All-World Acc", Symbol: "VWCE.DE",
		CurrentPrice: 100, DividendPolicy: domain.DividendPolicyAccumulating,
	}))
	require.NoError(t, repo.Upsert(ctx, &domain.Instrument{
		ID: "US0378331005", Name: "Apple Inc.", Symbol: "AAPL",
		CurrentPrice: 200, DividendYield: 0.012, DividendPolicy: domain.DividendPolicyDistributing,
	}))

	m := metrics.NewMetrics(nil)
	catalogService := catalog.NewCatalogService(repo)
	srv := New(Config{
		APIToken:   testToken,
		Log:        zerolog.Nop(),
		Projection: projection.NewProjectionService(catalogService, m, zerolog.Nop()),
		Catalog:    catalogService,
		Metrics:    m,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRunSimulation(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/api/simulations", `{
		"positions": [{"identifier": "US0378331005", "quantity": "5"}],
		"startingCapital": 1000,
		"horizonYears": 2
	}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.SimulationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Portfolio, 25)
	assert.Equal(t, 1000.0, body.Portfolio[0].TotalValue)
	// 1.2% a year on 1000 paid out over two years
	assert.InDelta(t, 24.0, body.Portfolio[24].CumulativeDividendsPaid, 0.01)
	require.Len(t, body.Instruments, 1)
	assert.Len(t, body.Instruments[0].YearlyDividends, 2)
}

func TestRunSimulation_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"positions": [`, http.StatusBadRequest},
		{"unknown field", `{"horizon": 5}`, http.StatusBadRequest},
		{"no positions", `{"horizonYears": 5}`, http.StatusBadRequest},
		{"bad frequency", `{"positions":[{"identifier":"AAPL"}],"horizonYears":1,"contribution":{"amountPerEvent":10,"eventsPerCheckpoint":1,"frequency":"DAILY"}}`, http.StatusBadRequest},
		{"unknown instrument", `{"positions":[{"identifier":"XX0000000000","quantity":1}],"horizonYears":1}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, http.MethodPost, "/api/simulations", tt.body)

			assert.Equal(t, tt.status, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestInstruments(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodGet, "/api/instruments?q=vwce", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Instruments []dto.InstrumentDTO `json:"instruments"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Instruments, 1)
	assert.Equal(t, "IE00BK5BQT80", list.Instruments[0].Identifier)

	resp = do(t, ts, http.MethodGet, "/api/instruments/us0378331005", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var inst dto.InstrumentDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&inst))
	assert.Equal(t, "Apple Inc.", inst.Name)

	resp = do(t, ts, http.MethodGet, "/api/instruments/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/instruments")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	do(t, ts, http.MethodPost, "/api/simulations", `{"positions":[{"identifier":"IE00BK5BQT80","quantity":1}],"horizonYears":1}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `projection_runs_total{outcome="ok"} 1`)
	assert.Contains(t, string(body), "projection_months_simulated_total 12")
}
