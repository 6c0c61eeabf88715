package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLedgerService is a mock implementation of LedgerService for testing
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) CreateAccount(ctx context.Context, name string) (uuid.UUID, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockLedgerService) CreateTransaction(ctx context.Context, action string, accountID uuid.UUID, code string, quantity decimal.Decimal, moneyAmount, moneyCurrency string, datetime time.Time) (uuid.UUID, error) {
	args := m.Called(ctx, action, accountID, code, quantity, moneyAmount, moneyCurrency, datetime)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockLedgerService) GetPortfolioValue(ctx context.Context, accountID uuid.UUID) (model.Money, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(model.Money), args.Error(1)
}

func (m *MockLedgerService) GetTransactionHistory(ctx context.Context, accountID uuid.UUID, code string) ([]model.InvestmentTransaction, error) {
	args := m.Called(ctx, accountID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InvestmentTransaction), args.Error(1)
}

func (m *MockLedgerService) GetMostRecentTransaction(ctx context.Context, accountID uuid.UUID, code string) (model.InvestmentTransaction, error) {
	args := m.Called(ctx, accountID, code)
	return args.Get(0).(model.InvestmentTransaction), args.Error(1)
}

func (m *MockLedgerService) GenerateReport(ctx context.Context, accountID uuid.UUID) (string, error) {
	args := m.Called(ctx, accountID)
	return args.String(0), args.Error(1)
}

// MockMarketDataService is a mock implementation of MarketDataService for testing
type MockMarketDataService struct {
	mock.Mock
}

func (m *MockMarketDataService) GetPrice(ctx context.Context, code string) (model.Money, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.Money), args.Error(1)
}

func newTestRouter(ledgerSrv *MockLedgerService, marketDataSrv *MockMarketDataService) http.Handler {
	return NewRouter(NewController(ledgerSrv, marketDataSrv))
}

func TestController_CreateAccount(t *testing.T) {
	ledgerSrv := new(MockLedgerService)
	accountID := uuid.New()

	ledgerSrv.On("CreateAccount", mock.Anything, "main").Return(accountID, nil)

	router := newTestRouter(ledgerSrv, new(MockMarketDataService))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(`{"name": "main"}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, accountID.String(), body["accountId"])
}

func TestController_CreateAccount_EmptyName(t *testing.T) {
	ledgerSrv := new(MockLedgerService)
	router := newTestRouter(ledgerSrv, new(MockMarketDataService))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(`{"name": ""}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ledgerSrv.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
}

func TestController_CreateTransaction(t *testing.T) {
	ledgerSrv := new(MockLedgerService)
	accountID := uuid.New()
	transactionID := uuid.New()

	ledgerSrv.On(
		"CreateTransaction",
		mock.Anything,
		"buy",
		accountID,
		"BTC",
		mock.MatchedBy(func(q decimal.Decimal) bool { return q.Equal(decimal.NewFromInt(2)) }),
		"100000.50",
		"ARS",
		mock.Anything,
	).Return(transactionID, nil)

	router := newTestRouter(ledgerSrv, new(MockMarketDataService))

	payload := `{
		"accountId": "` + accountID.String() + `",
		"code": "BTC",
		"amount": 2,
		"money": {"amount": "100000.50", "currency": "ARS"},
		"datetime": "2024-03-15T10:00:00Z"
	}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/investment-transaction/buy", strings.NewReader(payload))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, transactionID.String(), body["transactionId"])
}

func TestController_CreateTransaction_InsufficientQuantity(t *testing.T) {
	ledgerSrv := new(MockLedgerService)
	accountID := uuid.New()

	ledgerSrv.On(
		"CreateTransaction",
		mock.Anything, "sell", accountID, "BTC", mock.Anything, mock.Anything, mock.Anything, mock.Anything,
	).Return(uuid.Nil, service.ErrInsufficientQuantity)

	router := newTestRouter(ledgerSrv, new(MockMarketDataService))

	payload := `{
		"accountId": "` + accountID.String() + `",
		"code": "BTC",
		"amount": 1,
		"money": {"amount": "100", "currency": "ARS"},
		"datetime": "2024-03-15T10:00:00Z"
	}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/investment-transaction/sell", strings.NewReader(payload))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Insufficient quantity for sale. Please check your portfolio and enter a valid quantity.", body["message"])
}

func TestController_CreateTransaction_BadAccountID(t *testing.T) {
	ledgerSrv := new(MockLedgerService)
	router := newTestRouter(ledgerSrv, new(MockMarketDataService))

	payload := `{"accountId": "not-a-uuid", "code": "BTC", "amount": 1, "money": {"amount": "100", "currency": "ARS"}, "datetime": "2024-03-15T10:00:00Z"}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/investment-transaction/buy", strings.NewReader(payload))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ledgerSrv.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestController_GetBalance(t *testing.T) {
	ledgerSrv := new(MockLedgerService)
	accountID := uuid.New()

	balance, err := model.NewMoneyFromString("1234.56", "ARS")
	require.NoError(t, err)

	ledgerSrv.On("GetPortfolioValue", mock.Anything, accountID).Return(balance, nil)

	router := newTestRouter(ledgerSrv, new(MockMarketDataService))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/balance/"+accountID.String(), nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body model.SerializedMoney
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(123456), body.Cents)
	assert.Equal(t, "ARS", body.Currency)
}

func TestController_GetBalance_UnknownAccount(t *testing.T) {
	ledgerSrv := new(MockLedgerService)
	accountID := uuid.New()

	ledgerSrv.On("GetPortfolioValue", mock.Anything, accountID).Return(model.Money{}, service.ErrNotFound)

	router := newTestRouter(ledgerSrv, new(MockMarketDataService))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/balance/"+accountID.String(), nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestController_GetPrice_UnsupportedInstrument(t *testing.T) {
	marketDataSrv := new(MockMarketDataService)

	marketDataSrv.On("GetPrice", mock.Anything, "ZZZ").Return(model.Money{}, service.ErrUnsupportedInstrument)

	router := newTestRouter(new(MockLedgerService), marketDataSrv)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/market-data/ZZZ", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestController_GetPrice_InternalError(t *testing.T) {
	marketDataSrv := new(MockMarketDataService)

	marketDataSrv.On("GetPrice", mock.Anything, "BTC").Return(model.Money{}, errors.New("provider down"))

	router := newTestRouter(new(MockLedgerService), marketDataSrv)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/market-data/BTC", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body["message"])
}
