package bcraApi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/portfolio-tracker/config"
	"github.com/portfolio-tracker/internal/externalApi"
	"github.com/portfolio-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApi(serverURL string) *BcraApi {
	cfg := &config.Config{}
	cfg.API.Timeout = 5 * time.Second
	cfg.API.BcraApi.Url = serverURL
	cfg.API.BcraApi.Token = "test-token"
	return New(cfg)
}

func TestBcraApi_CanHandle(t *testing.T) {
	api := newTestApi("http://localhost")

	assert.True(t, api.CanHandle("USD"))
	assert.True(t, api.CanHandle("USD_MEP"))

	assert.False(t, api.CanHandle("EUR"))
	assert.False(t, api.CanHandle("usd"))
	assert.False(t, api.CanHandle("BTC"))
}

func TestBcraApi_GetPrice_LastPointWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usd", r.URL.Path)
		assert.Equal(t, "BEARER test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"d": "2024-03-13", "v": 850.0}, {"d": "2024-03-14", "v": 855.0}, {"d": "2024-03-15", "v": 860.5}]`))
	}))
	defer server.Close()

	api := newTestApi(server.URL)

	price, err := api.GetPrice(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(86050), price.Cents())
	assert.Equal(t, model.ARS, price.Currency())
}

func TestBcraApi_GetPrice_MepSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usd_mep", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"d": "2024-03-15", "v": 1020.25}]`))
	}))
	defer server.Close()

	api := newTestApi(server.URL)

	price, err := api.GetPrice(context.Background(), "USD_MEP")
	require.NoError(t, err)
	assert.Equal(t, int64(102025), price.Cents())
}

func TestBcraApi_GetPrice_EmptySeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	api := newTestApi(server.URL)

	_, err := api.GetPrice(context.Background(), "USD")
	assert.ErrorIs(t, err, externalApi.ErrNotFound)
}

func TestBcraApi_GetPrice_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	api := newTestApi(server.URL)

	_, err := api.GetPrice(context.Background(), "USD")
	assert.Error(t, err)
}
