package ppiApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/go-resty/resty/v2"
	"github.com/portfolio-tracker/config"
	"github.com/portfolio-tracker/internal/externalApi"
	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/utils"
	"github.com/shopspring/decimal"
)

// tickerPattern matches broker instrument codes (stocks, bonds, cedears).
// PpiApi is the catch-all provider, so the pattern is deliberately wide.
var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,11}$`)

type rawInstrumentPrice struct {
	Code     string          `json:"code"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

type PpiApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *PpiApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.PpiApi.Url)
	return &PpiApi{client: client}
}

func (a *PpiApi) CanHandle(code string) bool {
	return tickerPattern.MatchString(code)
}

func (a *PpiApi) GetPrice(ctx context.Context, code string) (model.Money, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/api/instruments/%s/price", code)

	slog.Debug("start PpiApi.GetPrice request", slog.String("rqID", rqID), slog.String("code", code))

	resp, err := a.client.R().
		SetHeader("Accept", "application/json").
		Get(url)

	if err != nil {
		slog.Error("error while dialing PpiApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Money{}, err
	}

	if resp.StatusCode() == 404 {
		slog.Warn("instrument not found in PpiApi", slog.String("rqID", rqID), slog.String("code", code))
		return model.Money{}, externalApi.ErrNotFound
	}

	if resp.IsError() {
		return model.Money{}, fmt.Errorf("PpiApi responded with status %d", resp.StatusCode())
	}

	instrumentPrice := rawInstrumentPrice{}
	err = json.Unmarshal(resp.Body(), &instrumentPrice)
	if err != nil {
		slog.Error("can't unmarshall response into rawInstrumentPrice", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Money{}, err
	}

	currency, err := model.ParseCurrency(instrumentPrice.Currency)
	if err != nil {
		slog.Error("unexpected currency from PpiApi", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("currency", instrumentPrice.Currency))
		return model.Money{}, err
	}

	price, err := model.NewMoneyFromDecimal(instrumentPrice.Price, currency)
	if err != nil {
		slog.Error("can't build money from instrument price", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Money{}, err
	}

	slog.Debug("PpiApi.GetPrice request complete", slog.String("rqID", rqID), slog.String("code", code))

	return price, nil
}
