package marketdata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/internal/service"
	"github.com/portfolio-tracker/utils"
)

// Provider is one external price source: a cheap local capability check and
// a suspending fetch. Only the provider that claims a code incurs I/O.
type Provider interface {
	CanHandle(code string) bool
	GetPrice(ctx context.Context, code string) (model.Money, error)
}

type Cache interface {
	GetPrice(ctx context.Context, code string) (model.Money, error)
	SetPrice(ctx context.Context, code string, price model.Money) error
}

type Service struct {
	providers []Provider
	cache     Cache
}

// New keeps the provider slice in the given order. The order is a priority
// list: resolution is a linear scan and the first provider whose CanHandle
// returns true is authoritative for the code, even when later providers
// would also claim it.
func New(cache Cache, providers ...Provider) *Service {
	return &Service{providers: providers, cache: cache}
}

// GetPrice resolves a current price for the code, consulting the cache
// first. A fetch error from the claiming provider propagates as is: a
// provider claiming a code is a commitment, not a suggestion, so there is
// no fallback to later providers.
func (s *Service) GetPrice(ctx context.Context, code string) (model.Money, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketDataService.GetPrice"

	slog.Debug("GetPrice start", slog.String("rqID", rqID), slog.String("op", op), slog.String("code", code))
	defer func() {
		slog.Debug("GetPrice finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("code", code))
	}()

	price, err := s.cache.GetPrice(ctx, code)
	if err == nil {
		return price, nil
	}

	price, err = s.resolve(ctx, code)
	if err != nil {
		return model.Money{}, err
	}

	go s.cache.SetPrice(context.WithoutCancel(ctx), code, price)

	return price, nil
}

// RefreshPrice bypasses the cache, fetches a fresh price and stores it
// synchronously. Used by the cache warming job.
func (s *Service) RefreshPrice(ctx context.Context, code string) (model.Money, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketDataService.RefreshPrice"

	slog.Debug("RefreshPrice start", slog.String("rqID", rqID), slog.String("op", op), slog.String("code", code))

	price, err := s.resolve(ctx, code)
	if err != nil {
		return model.Money{}, err
	}

	err = s.cache.SetPrice(ctx, code, price)
	if err != nil {
		slog.Warn("can't store refreshed price in cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	slog.Debug("RefreshPrice finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("code", code))

	return price, nil
}

func (s *Service) resolve(ctx context.Context, code string) (model.Money, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketDataService.resolve"

	for _, provider := range s.providers {
		if !provider.CanHandle(code) {
			continue
		}

		price, err := provider.GetPrice(ctx, code)
		if err != nil {
			slog.Error("provider fetch failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("code", code), slog.String("err", err.Error()))
			return model.Money{}, err
		}

		return price, nil
	}

	slog.Warn("no provider can handle code", slog.String("rqID", rqID), slog.String("op", op), slog.String("code", code))

	return model.Money{}, fmt.Errorf("%w: %s", service.ErrUnsupportedInstrument, code)
}
