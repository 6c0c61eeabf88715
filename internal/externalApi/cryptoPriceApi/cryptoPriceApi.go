package cryptoPriceApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/portfolio-tracker/config"
	"github.com/portfolio-tracker/internal/externalApi"
	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/utils"
	"github.com/shopspring/decimal"
)

// supported coins are quoted against ARS by the aggregator.
var supportedCoins = map[string]struct{}{
	"BTC":  {},
	"ETH":  {},
	"USDT": {},
	"USDC": {},
	"DAI":  {},
}

type rawQuote struct {
	Ask      decimal.Decimal `json:"ask"`
	TotalAsk decimal.Decimal `json:"totalAsk"`
	Bid      decimal.Decimal `json:"bid"`
	TotalBid decimal.Decimal `json:"totalBid"`
	Time     int64           `json:"time"`
}

type CryptoPriceApi struct {
	client   *resty.Client
	exchange string
}

func New(cfg *config.Config) *CryptoPriceApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.CryptoPriceApi.Url)
	return &CryptoPriceApi{client: client, exchange: cfg.API.CryptoPriceApi.Exchange}
}

func (a *CryptoPriceApi) CanHandle(code string) bool {
	_, ok := supportedCoins[code]
	return ok
}

// GetPrice returns the total ask for one coin in ARS.
func (a *CryptoPriceApi) GetPrice(ctx context.Context, code string) (model.Money, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/api/%s/%s/ars", a.exchange, strings.ToLower(code))

	slog.Debug("start CryptoPriceApi.GetPrice request", slog.String("rqID", rqID), slog.String("code", code))

	resp, err := a.client.R().
		SetHeader("Accept", "application/json").
		Get(url)

	if err != nil {
		slog.Error("error while dialing CryptoPriceApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Money{}, err
	}

	if resp.StatusCode() == 404 {
		slog.Warn("coin not found in CryptoPriceApi", slog.String("rqID", rqID), slog.String("code", code))
		return model.Money{}, externalApi.ErrNotFound
	}

	if resp.IsError() {
		return model.Money{}, fmt.Errorf("CryptoPriceApi responded with status %d", resp.StatusCode())
	}

	quote := rawQuote{}
	err = json.Unmarshal(resp.Body(), &quote)
	if err != nil {
		slog.Error("can't unmarshall response into rawQuote", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Money{}, err
	}

	if quote.TotalAsk.IsZero() {
		return model.Money{}, fmt.Errorf("empty totalAsk for %s", code)
	}

	price, err := model.NewMoneyFromDecimal(quote.TotalAsk, model.ARS)
	if err != nil {
		slog.Error("can't build money from totalAsk", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Money{}, err
	}

	slog.Debug("CryptoPriceApi.GetPrice request complete", slog.String("rqID", rqID), slog.String("code", code))

	return price, nil
}
