package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/portfolio-tracker/config"
	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/utils"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func priceKey(code string) string {
	return fmt.Sprintf("price:%s", code)
}

// SetPrice caches the serialized money; cents is the authoritative field on
// the way back.
func (r *RedisCache) SetPrice(ctx context.Context, code string, price model.Money) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetPrice start", slog.String("rqID", rqID), slog.String("code", code))

	priceJson, err := json.Marshal(price.Serialize())
	if err != nil {
		slog.Error(
			"can't marshall price in SetPrice",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("code", code),
		)
		return errors.New("can't marshall price")
	}

	_, err = r.redis.Set(ctx, priceKey(code), priceJson, r.cfg.Cache.PricesExpiration).Result()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("code", code))
		return err
	}

	slog.Debug("SetPrice completed", slog.String("rqID", rqID), slog.String("code", code))

	return nil
}

func (r *RedisCache) GetPrice(ctx context.Context, code string) (model.Money, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetPrice start", slog.String("rqID", rqID), slog.String("code", code))

	res, err := r.redis.Get(ctx, priceKey(code)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", priceKey(code)))
		}
		return model.Money{}, err
	}

	serialized := model.SerializedMoney{}
	err = json.Unmarshal([]byte(res), &serialized)
	if err != nil {
		slog.Error(
			"can't unmarshall price in GetPrice",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return model.Money{}, errors.New("can't unmarshall price")
	}

	currency, err := model.ParseCurrency(serialized.Currency)
	if err != nil {
		return model.Money{}, err
	}

	price, err := model.NewMoneyFromCents(serialized.Cents, currency)
	if err != nil {
		return model.Money{}, err
	}

	slog.Debug("GetPrice finished", slog.String("rqID", rqID), slog.String("code", code))

	return price, nil
}
