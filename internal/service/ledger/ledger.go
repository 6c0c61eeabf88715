package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio-tracker/data/repository"
	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/internal/service"
	"github.com/portfolio-tracker/utils"
	"github.com/shopspring/decimal"
)

type Repository interface {
	InsertTransaction(ctx context.Context, tx model.InvestmentTransaction) (uuid.UUID, error)
	GetTransactions(ctx context.Context, accountID uuid.UUID, code string) ([]model.InvestmentTransaction, error)
	GetTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]model.InvestmentTransaction, error)
	GetMostRecentTransaction(ctx context.Context, accountID uuid.UUID, code string) (model.InvestmentTransaction, error)
	GetNetQuantity(ctx context.Context, accountID uuid.UUID, code string) (decimal.Decimal, error)
	GetHoldings(ctx context.Context, accountID uuid.UUID) ([]model.Holding, error)
	GetHeldCodes(ctx context.Context) ([]string, error)
	InsertAccount(ctx context.Context, name string) (uuid.UUID, error)
	GetAccount(ctx context.Context, accountID uuid.UUID) (model.Account, error)
	LockAccount(ctx context.Context, accountID uuid.UUID) error
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
}

type MarketData interface {
	GetPrice(ctx context.Context, code string) (model.Money, error)
	RefreshPrice(ctx context.Context, code string) (model.Money, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

type LedgerService struct {
	repo            Repository
	marketData      MarketData
	reportGenerator ReportGenerator
	cloudStorage    CloudStorage
}

func New(repo Repository, marketData MarketData, reportGenerator ReportGenerator, cloudStorage CloudStorage) *LedgerService {
	return &LedgerService{
		repo:            repo,
		marketData:      marketData,
		reportGenerator: reportGenerator,
		cloudStorage:    cloudStorage,
	}
}

func (s *LedgerService) CreateAccount(ctx context.Context, name string) (uuid.UUID, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.CreateAccount"

	slog.Debug("CreateAccount start", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
	defer func() {
		slog.Debug("CreateAccount finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
	}()

	accountID, err := s.repo.InsertAccount(ctx, name)
	if err != nil {
		slog.Error("got error from repo.InsertAccount", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return uuid.Nil, err
	}

	return accountID, nil
}

// CreateTransaction validates and appends one ledger record. Sells are
// validated and appended inside a database transaction holding the account
// row lock, so two concurrent sells cannot both pass the sufficiency check
// against stale holdings. Either exactly one record persists or none.
func (s *LedgerService) CreateTransaction(
	ctx context.Context,
	action string,
	accountID uuid.UUID,
	code string,
	quantity decimal.Decimal,
	moneyAmount string,
	moneyCurrency string,
	datetime time.Time,
) (transactionID uuid.UUID, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.CreateTransaction"

	slog.Debug("CreateTransaction start", slog.String("rqID", rqID), slog.String("op", op), slog.String("action", action), slog.String("code", code))
	defer func() {
		slog.Debug("CreateTransaction finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("action", action), slog.String("code", code))
	}()

	parsedAction, err := model.ParseAction(action)
	if err != nil {
		return uuid.Nil, err
	}

	money, err := model.NewMoneyFromString(moneyAmount, moneyCurrency)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := model.NewInvestmentTransaction(parsedAction, accountID, code, quantity, money, datetime)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = s.repo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, service.ErrNotFound
		}
		slog.Error("got error from repo.GetAccount", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return uuid.Nil, err
	}

	if parsedAction == model.ActionBuy {
		transactionID, err = s.repo.InsertTransaction(ctx, tx)
		if err != nil {
			slog.Error("got error from repo.InsertTransaction", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return uuid.Nil, err
		}
		return transactionID, nil
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if lockErr := s.repo.LockAccount(ctx, accountID); lockErr != nil {
			return lockErr
		}

		netQuantity, netErr := s.repo.GetNetQuantity(ctx, accountID, tx.Code())
		if netErr != nil {
			return netErr
		}

		if tx.Quantity().GreaterThan(netQuantity) {
			return service.ErrInsufficientQuantity
		}

		var insertErr error
		transactionID, insertErr = s.repo.InsertTransaction(ctx, tx)
		return insertErr
	})
	if err != nil {
		if !errors.Is(err, service.ErrInsufficientQuantity) {
			slog.Error("sell transaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		return uuid.Nil, err
	}

	return transactionID, nil
}

// GetNetQuantity reports the derived holding for one (account, code) pair.
func (s *LedgerService) GetNetQuantity(ctx context.Context, accountID uuid.UUID, code string) (decimal.Decimal, error) {
	return s.repo.GetNetQuantity(ctx, accountID, code)
}

// GetTransactionHistory returns the account's trades for one code in
// insertion order.
func (s *LedgerService) GetTransactionHistory(ctx context.Context, accountID uuid.UUID, code string) ([]model.InvestmentTransaction, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.GetTransactionHistory"

	transactions, err := s.repo.GetTransactions(ctx, accountID, code)
	if err != nil {
		slog.Error("got error from repo.GetTransactions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return transactions, nil
}

// GetMostRecentTransaction returns the latest trade for (account, code) by
// creation time.
func (s *LedgerService) GetMostRecentTransaction(ctx context.Context, accountID uuid.UUID, code string) (model.InvestmentTransaction, error) {
	tx, err := s.repo.GetMostRecentTransaction(ctx, accountID, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.InvestmentTransaction{}, service.ErrNotFound
		}
		return model.InvestmentTransaction{}, err
	}

	return tx, nil
}

// GetPortfolioValue prices every nonzero holding of the account and sums
// the valuations. Holdings valued in different currencies make the sum
// undefined: the call fails with model.ErrCurrencyMismatch instead of
// converting or dropping anything.
func (s *LedgerService) GetPortfolioValue(ctx context.Context, accountID uuid.UUID) (total model.Money, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.GetPortfolioValue"

	slog.Debug("GetPortfolioValue start", slog.String("rqID", rqID), slog.String("op", op), slog.String("accountID", accountID.String()))
	defer func() {
		slog.Debug("GetPortfolioValue finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("accountID", accountID.String()))
	}()

	_, err = s.repo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Money{}, service.ErrNotFound
		}
		return model.Money{}, err
	}

	holdings, err := s.repo.GetHoldings(ctx, accountID)
	if err != nil {
		slog.Error("got error from repo.GetHoldings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Money{}, err
	}

	// empty portfolio values to zero in the local currency
	total, err = model.NewMoneyFromCents(0, model.ARS)
	if err != nil {
		return model.Money{}, err
	}

	for i, holding := range holdings {
		price, priceErr := s.marketData.GetPrice(ctx, holding.Code)
		if priceErr != nil {
			return model.Money{}, priceErr
		}

		value := price.Mul(holding.NetQuantity)

		if i == 0 {
			total = value
			continue
		}

		total, err = total.Add(value)
		if err != nil {
			slog.Warn("portfolio mixes currencies", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return model.Money{}, err
		}
	}

	return total, nil
}

// GetPortfolioReport builds the valuation snapshot grouped per currency
// plus the full trade history. Totals are kept per currency and never
// added across currencies.
func (s *LedgerService) GetPortfolioReport(ctx context.Context, accountID uuid.UUID) (report model.PortfolioReport, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.GetPortfolioReport"

	slog.Debug("GetPortfolioReport start", slog.String("rqID", rqID), slog.String("op", op), slog.String("accountID", accountID.String()))
	defer func() {
		slog.Debug("GetPortfolioReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("accountID", accountID.String()))
	}()

	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.PortfolioReport{}, service.ErrNotFound
		}
		return model.PortfolioReport{}, err
	}

	holdings, err := s.repo.GetHoldings(ctx, accountID)
	if err != nil {
		return model.PortfolioReport{}, err
	}

	report = model.PortfolioReport{
		AccountName: account.Name,
		Positions:   make(map[model.Currency][]model.Position),
		Totals:      make(map[model.Currency]model.Money),
	}

	for _, holding := range holdings {
		price, priceErr := s.marketData.GetPrice(ctx, holding.Code)
		if priceErr != nil {
			return model.PortfolioReport{}, priceErr
		}

		value := price.Mul(holding.NetQuantity)
		currency := value.Currency()

		report.Positions[currency] = append(report.Positions[currency], model.Position{
			Code:        holding.Code,
			NetQuantity: holding.NetQuantity,
			Price:       price,
			Value:       value,
		})

		total, ok := report.Totals[currency]
		if !ok {
			report.Totals[currency] = value
			continue
		}

		total, err = total.Add(value)
		if err != nil {
			return model.PortfolioReport{}, err
		}
		report.Totals[currency] = total
	}

	report.History, err = s.repo.GetTransactionsByAccount(ctx, accountID)
	if err != nil {
		slog.Error("got error from repo.GetTransactionsByAccount", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.PortfolioReport{}, err
	}

	return report, nil
}

// GenerateReport renders the portfolio report to a spreadsheet and uploads
// it to cloud storage, returning the download link.
func (s *LedgerService) GenerateReport(ctx context.Context, accountID uuid.UUID) (downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.GenerateReport"

	slog.Debug("GenerateReport start", slog.String("rqID", rqID), slog.String("op", op), slog.String("accountID", accountID.String()))
	defer func() {
		slog.Debug("GenerateReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("accountID", accountID.String()))
	}()

	report, err := s.GetPortfolioReport(ctx, accountID)
	if err != nil {
		return "", err
	}

	fileBytes, fileExtension, err := s.reportGenerator.Generate(ctx, report)
	if err != nil {
		slog.Error("got error from reportGenerator.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	filename := fmt.Sprintf("portfolio_%s_%s%s", accountID, time.Now().Format("20060102_150405"), fileExtension)

	downloadLink, err = s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	return downloadLink, nil
}

// RefreshPrices warms the price cache for every held code. Failures for
// individual codes are logged and skipped so one broken provider does not
// starve the rest of the cache.
func (s *LedgerService) RefreshPrices(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.RefreshPrices"

	slog.Debug("RefreshPrices start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("RefreshPrices finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	codes, err := s.repo.GetHeldCodes(ctx)
	if err != nil {
		slog.Error("got error from repo.GetHeldCodes", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	for _, code := range codes {
		_, err := s.marketData.RefreshPrice(ctx, code)
		if err != nil {
			slog.Warn("can't refresh price", slog.String("rqID", rqID), slog.String("op", op), slog.String("code", code), slog.String("err", err.Error()))
		}
	}

	return nil
}
