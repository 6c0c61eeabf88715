package marketdata

import (
	"context"
	"errors"
	"testing"

	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider is a mock implementation of Provider for testing
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CanHandle(code string) bool {
	args := m.Called(code)
	return args.Bool(0)
}

func (m *MockProvider) GetPrice(ctx context.Context, code string) (model.Money, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.Money), args.Error(1)
}

// MockCache is a mock implementation of Cache for testing
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetPrice(ctx context.Context, code string) (model.Money, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.Money), args.Error(1)
}

func (m *MockCache) SetPrice(ctx context.Context, code string, price model.Money) error {
	args := m.Called(ctx, code, price)
	return args.Error(0)
}

func mustMoney(t *testing.T, amount, currency string) model.Money {
	t.Helper()
	m, err := model.NewMoneyFromString(amount, currency)
	require.NoError(t, err)
	return m
}

var errCacheMiss = errors.New("cache miss")

func TestService_GetPrice_FirstClaimingProviderWins(t *testing.T) {
	ctx := context.Background()

	first := new(MockProvider)
	second := new(MockProvider)
	cache := new(MockCache)

	firstPrice := mustMoney(t, "100.00", "ARS")

	cache.On("GetPrice", ctx, "BTC").Return(model.Money{}, errCacheMiss)
	cache.On("SetPrice", mock.Anything, "BTC", firstPrice).Return(nil).Maybe()

	first.On("CanHandle", "BTC").Return(true)
	first.On("GetPrice", ctx, "BTC").Return(firstPrice, nil)

	// second would also claim BTC but must never be consulted
	second.On("CanHandle", "BTC").Return(true).Maybe()

	srv := New(cache, first, second)

	got, err := srv.GetPrice(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, firstPrice.Cents(), got.Cents())

	second.AssertNotCalled(t, "GetPrice", ctx, "BTC")
}

func TestService_GetPrice_SkipsNonClaimingProviders(t *testing.T) {
	ctx := context.Background()

	first := new(MockProvider)
	second := new(MockProvider)
	cache := new(MockCache)

	price := mustMoney(t, "250.50", "USD")

	cache.On("GetPrice", ctx, "AAPL").Return(model.Money{}, errCacheMiss)
	cache.On("SetPrice", mock.Anything, "AAPL", price).Return(nil).Maybe()

	first.On("CanHandle", "AAPL").Return(false)
	second.On("CanHandle", "AAPL").Return(true)
	second.On("GetPrice", ctx, "AAPL").Return(price, nil)

	srv := New(cache, first, second)

	got, err := srv.GetPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, price.Cents(), got.Cents())

	first.AssertNotCalled(t, "GetPrice", ctx, "AAPL")
}

func TestService_GetPrice_NoFallbackOnFetchError(t *testing.T) {
	ctx := context.Background()

	first := new(MockProvider)
	second := new(MockProvider)
	cache := new(MockCache)

	fetchErr := errors.New("upstream unavailable")

	cache.On("GetPrice", ctx, "BTC").Return(model.Money{}, errCacheMiss)

	first.On("CanHandle", "BTC").Return(true)
	first.On("GetPrice", ctx, "BTC").Return(model.Money{}, fetchErr)

	second.On("CanHandle", "BTC").Return(true).Maybe()

	srv := New(cache, first, second)

	_, err := srv.GetPrice(ctx, "BTC")
	assert.ErrorIs(t, err, fetchErr)

	second.AssertNotCalled(t, "GetPrice", ctx, "BTC")
	cache.AssertNotCalled(t, "SetPrice", mock.Anything, "BTC", mock.Anything)
}

func TestService_GetPrice_UnsupportedInstrument(t *testing.T) {
	ctx := context.Background()

	first := new(MockProvider)
	second := new(MockProvider)
	cache := new(MockCache)

	cache.On("GetPrice", ctx, "ZZZ").Return(model.Money{}, errCacheMiss)

	first.On("CanHandle", "ZZZ").Return(false)
	second.On("CanHandle", "ZZZ").Return(false)

	srv := New(cache, first, second)

	_, err := srv.GetPrice(ctx, "ZZZ")
	assert.ErrorIs(t, err, service.ErrUnsupportedInstrument)
}

func TestService_GetPrice_CacheHitSkipsProviders(t *testing.T) {
	ctx := context.Background()

	provider := new(MockProvider)
	cache := new(MockCache)

	cached := mustMoney(t, "99.99", "ARS")
	cache.On("GetPrice", ctx, "BTC").Return(cached, nil)

	srv := New(cache, provider)

	got, err := srv.GetPrice(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, cached.Cents(), got.Cents())

	provider.AssertNotCalled(t, "CanHandle", "BTC")
}

func TestService_RefreshPrice_BypassesCacheRead(t *testing.T) {
	ctx := context.Background()

	provider := new(MockProvider)
	cache := new(MockCache)

	fresh := mustMoney(t, "101.00", "ARS")

	provider.On("CanHandle", "BTC").Return(true)
	provider.On("GetPrice", ctx, "BTC").Return(fresh, nil)
	cache.On("SetPrice", ctx, "BTC", fresh).Return(nil)

	srv := New(cache, provider)

	got, err := srv.RefreshPrice(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, fresh.Cents(), got.Cents())

	cache.AssertNotCalled(t, "GetPrice", ctx, "BTC")
	cache.AssertCalled(t, "SetPrice", ctx, "BTC", fresh)
}

func TestService_RefreshPrice_CacheWriteErrorIsNotFatal(t *testing.T) {
	ctx := context.Background()

	provider := new(MockProvider)
	cache := new(MockCache)

	fresh := mustMoney(t, "101.00", "ARS")

	provider.On("CanHandle", "BTC").Return(true)
	provider.On("GetPrice", ctx, "BTC").Return(fresh, nil)
	cache.On("SetPrice", ctx, "BTC", fresh).Return(errors.New("redis down"))

	srv := New(cache, provider)

	got, err := srv.RefreshPrice(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, fresh.Cents(), got.Cents())
}
