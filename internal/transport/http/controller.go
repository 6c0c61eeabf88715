package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/internal/service"
	customMiddleware "github.com/portfolio-tracker/internal/transport/http/middleware"
	"github.com/portfolio-tracker/utils"
	"github.com/shopspring/decimal"
)

// insufficientQuantityMessage is the user-facing wording kept stable for
// API clients.
const insufficientQuantityMessage = "Insufficient quantity for sale. Please check your portfolio and enter a valid quantity."

type LedgerService interface {
	CreateAccount(ctx context.Context, name string) (uuid.UUID, error)
	CreateTransaction(ctx context.Context, action string, accountID uuid.UUID, code string, quantity decimal.Decimal, moneyAmount, moneyCurrency string, datetime time.Time) (uuid.UUID, error)
	GetPortfolioValue(ctx context.Context, accountID uuid.UUID) (model.Money, error)
	GetTransactionHistory(ctx context.Context, accountID uuid.UUID, code string) ([]model.InvestmentTransaction, error)
	GetMostRecentTransaction(ctx context.Context, accountID uuid.UUID, code string) (model.InvestmentTransaction, error)
	GenerateReport(ctx context.Context, accountID uuid.UUID) (downloadLink string, err error)
}

type MarketDataService interface {
	GetPrice(ctx context.Context, code string) (model.Money, error)
}

type Controller struct {
	ledgerService     LedgerService
	marketDataService MarketDataService
}

func NewController(ledgerService LedgerService, marketDataService MarketDataService) *Controller {
	return &Controller{
		ledgerService:     ledgerService,
		marketDataService: marketDataService,
	}
}

func NewRouter(ctrl *Controller) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(customMiddleware.Logger)

	r.Post("/accounts", ctrl.CreateAccount)
	r.Get("/accounts/{accountID}/report", ctrl.GenerateReport)
	r.Post("/investment-transaction/{action}", ctrl.CreateTransaction)
	r.Get("/investment-transaction/{accountID}/{code}", ctrl.GetTransactionHistory)
	r.Get("/investment-transaction/{accountID}/{code}/latest", ctrl.GetMostRecentTransaction)
	r.Get("/balance/{accountID}", ctrl.GetBalance)
	r.Get("/market-data/{code}", ctrl.GetPrice)

	return r
}

type createAccountRequest struct {
	Name string `json:"name"`
}

type createTransactionRequest struct {
	AccountID string          `json:"accountId"`
	Code      string          `json:"code"`
	Amount    decimal.Decimal `json:"amount"`
	Money     struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"money"`
	Datetime time.Time `json:"datetime"`
}

func (ctrl *Controller) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := createAccountRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(ctx, w, http.StatusBadRequest, "name should not be empty")
		return
	}

	accountID, err := ctrl.ledgerService.CreateAccount(ctx, req.Name)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, map[string]any{"accountId": accountID})
}

func (ctrl *Controller) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	action := chi.URLParam(r, "action")

	req := createTransactionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "accountId must be a uuid")
		return
	}

	transactionID, err := ctrl.ledgerService.CreateTransaction(
		ctx,
		action,
		accountID,
		req.Code,
		req.Amount,
		req.Money.Amount,
		req.Money.Currency,
		req.Datetime,
	)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, map[string]any{"transactionId": transactionID})
}

func (ctrl *Controller) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "accountID must be a uuid")
		return
	}

	transactions, err := ctrl.ledgerService.GetTransactionHistory(ctx, accountID, chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	serialized := make([]model.SerializedTransaction, 0, len(transactions))
	for _, tx := range transactions {
		serialized = append(serialized, tx.Serialize())
	}

	writeJSON(ctx, w, http.StatusOK, serialized)
}

func (ctrl *Controller) GetMostRecentTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "accountID must be a uuid")
		return
	}

	tx, err := ctrl.ledgerService.GetMostRecentTransaction(ctx, accountID, chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, tx.Serialize())
}

func (ctrl *Controller) GetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "accountID must be a uuid")
		return
	}

	balance, err := ctrl.ledgerService.GetPortfolioValue(ctx, accountID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, balance.Serialize())
}

func (ctrl *Controller) GetPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	price, err := ctrl.marketDataService.GetPrice(ctx, chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, price.Serialize())
}

func (ctrl *Controller) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "accountID must be a uuid")
		return
	}

	downloadLink, err := ctrl.ledgerService.GenerateReport(ctx, accountID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"link": downloadLink})
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientQuantity):
		writeError(ctx, w, http.StatusBadRequest, insufficientQuantityMessage)
	case errors.Is(err, model.ErrInvalidArgument),
		errors.Is(err, model.ErrCurrencyMismatch),
		errors.Is(err, service.ErrUnsupportedInstrument):
		writeError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(ctx, w, http.StatusNotFound, "not found")
	default:
		writeError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, map[string]any{"message": message, "statusCode": status})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("can't encode response", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}
}
