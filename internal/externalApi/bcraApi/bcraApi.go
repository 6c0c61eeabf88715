package bcraApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/portfolio-tracker/config"
	"github.com/portfolio-tracker/internal/externalApi"
	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/utils"
	"github.com/shopspring/decimal"
)

// series endpoint per handled code
var seriesByCode = map[string]string{
	"USD":     "/usd",
	"USD_MEP": "/usd_mep",
}

type rawPoint struct {
	Date  string          `json:"d"`
	Value decimal.Decimal `json:"v"`
}

type BcraApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *BcraApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.BcraApi.Url).
		SetAuthScheme("BEARER").
		SetAuthToken(cfg.API.BcraApi.Token)
	return &BcraApi{client: client}
}

func (a *BcraApi) CanHandle(code string) bool {
	_, ok := seriesByCode[code]
	return ok
}

// GetPrice returns the most recent point of the exchange-rate series in ARS.
func (a *BcraApi) GetPrice(ctx context.Context, code string) (model.Money, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url, ok := seriesByCode[code]
	if !ok {
		return model.Money{}, externalApi.ErrNotFound
	}

	slog.Debug("start BcraApi.GetPrice request", slog.String("rqID", rqID), slog.String("code", code))

	resp, err := a.client.R().
		SetHeader("Accept", "application/json").
		Get(url)

	if err != nil {
		slog.Error("error while dialing BcraApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Money{}, err
	}

	if resp.IsError() {
		return model.Money{}, fmt.Errorf("BcraApi responded with status %d", resp.StatusCode())
	}

	points := []rawPoint{}
	err = json.Unmarshal(resp.Body(), &points)
	if err != nil {
		slog.Error("can't unmarshall response into series points", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Money{}, err
	}

	if len(points) == 0 {
		slog.Warn("empty series from BcraApi", slog.String("rqID", rqID), slog.String("code", code))
		return model.Money{}, externalApi.ErrNotFound
	}

	// the series is chronological, last point is current
	last := points[len(points)-1]

	price, err := model.NewMoneyFromDecimal(last.Value, model.ARS)
	if err != nil {
		slog.Error("can't build money from series value", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Money{}, err
	}

	slog.Debug("BcraApi.GetPrice request complete", slog.String("rqID", rqID), slog.String("code", code), slog.String("date", last.Date))

	return price, nil
}
